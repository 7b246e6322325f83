// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetfs/cmd/assetfs/cli"
	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

type catParams struct {
	Config cli.ConfigFlag
	Offset int64 `flag:"offset" desc:"start reading at this byte offset"`
	Length int64 `flag:"length,n" desc:"stop after this many bytes (0 reads to the end)"`
}

func (a *application) catCommand() *cli.Command {
	var params catParams
	return &cli.Command{
		Name:    "cat",
		Summary: "Fetch a file through the loader chain and print it",
		Description: `Open one file the way the mount would: fetched from the configured
source, verified against the index digest, or taken from the save
store when the game has saved it. The content is written to stdout.`,
		Usage: "assetfs cat [flags] <path>",
		Examples: []cli.Example{
			{
				Description: "Print the game config",
				Command:     "assetfs cat fallout2.cfg",
			},
			{
				Description: "Dump the header of an art file",
				Command:     "assetfs cat -n 62 data/art/intrface/hp.frm | xxd",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("cat", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one path")
			}
			if params.Offset < 0 || params.Length < 0 {
				return fmt.Errorf("--offset and --length must be non-negative")
			}

			cfg, err := params.Config.Load()
			if err != nil {
				return err
			}
			tree, _, err := buildTree(ctx, cfg, a.clock, logger)
			if err != nil {
				return err
			}
			return a.cat(ctx, tree, args[0], params.Offset, params.Length)
		},
	}
}

func (a *application) cat(ctx context.Context, tree *assetfs.Tree, path string, offset, length int64) error {
	node, err := tree.Resolve(path)
	if err != nil {
		return err
	}
	if node.IsDir() {
		return fmt.Errorf("%s: %w", path, assetfs.ErrIsDir)
	}

	stream, err := tree.Open(ctx, node).Wait(ctx)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer stream.Close()

	if _, err := stream.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking %s: %w", path, err)
	}
	var reader io.Reader = stream
	if length > 0 {
		reader = io.LimitReader(stream, length)
	}
	if _, err := io.Copy(a.stdout, reader); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
