// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/assetfs/cmd/assetfs/cli"
	"github.com/bureau-foundation/assetfs/lib/clock"
	"github.com/bureau-foundation/assetfs/lib/version"
)

// application carries the process-wide dependencies commands share.
// Tests substitute a buffer and a fake clock.
type application struct {
	stdout io.Writer
	clock  clock.Clock
}

func (a *application) root() *cli.Command {
	return &cli.Command{
		Name:    "assetfs",
		Summary: "Lazily loaded game asset filesystem",
		Description: `Assetfs presents the files listed in an asset index as a filesystem.
File content is fetched on first open, cached while in use, and
discarded shortly after the last close. Files written by the game are
kept in memory and saved to a local store.`,
		Subcommands: []*cli.Command{
			a.mountCommand(),
			a.lsCommand(),
			a.catCommand(),
			a.verifyCommand(),
			a.versionCommand(),
		},
	}
}

func (a *application) versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			_, err := fmt.Fprintln(a.stdout, version.Full())
			return err
		},
	}
}
