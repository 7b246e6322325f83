// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/assetfs/cmd/assetfs/cli"
	"github.com/bureau-foundation/assetfs/lib/clock"
)

func main() {
	if err := run(); err != nil {
		// verify prints its own report and returns an ExitError; don't
		// follow it with a redundant "error:" line.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &application{stdout: os.Stdout, clock: clock.Real()}
	logger := cli.NewCommandLogger(slog.LevelWarn)
	return app.root().Execute(context.Background(), os.Args[1:], logger)
}
