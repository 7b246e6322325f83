// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetfs/cmd/assetfs/cli"
	"github.com/bureau-foundation/assetfs/lib/assetindex"
	"github.com/bureau-foundation/assetfs/lib/compress"
)

type verifyParams struct {
	Config      cli.ConfigFlag
	Index       string `flag:"index" desc:"index file (default source.index from the config)"`
	Dir         string `flag:"dir" desc:"asset directory to check (default source.dir from the config)"`
	Digest      string `flag:"digest" desc:"digest algorithm: sha256, blake3, or none (default source.digest, else sha256)"`
	Encoding    string `flag:"encoding" desc:"on-disk encoding: none, gzip, zstd, or lz4 (default source.encoding, else none)"`
	Concurrency int    `flag:"concurrency" desc:"files hashed in parallel" default:"4"`
}

func (a *application) verifyCommand() *cli.Command {
	var params verifyParams
	return &cli.Command{
		Name:    "verify",
		Summary: "Check an asset directory against an index",
		Description: `Check that every file listed in the index exists in the asset
directory, decodes to the declared size, and matches the declared
digest. Every problem is printed; the exit code is 1 if any were found.

With both --index and --dir set no config is read. Otherwise the
missing values come from the config's source section.`,
		Usage: "assetfs verify [flags]",
		Examples: []cli.Example{
			{
				Description: "Check a gzip-encoded mirror before publishing it",
				Command:     "assetfs verify --index mirror/index.txt --dir mirror --encoding gzip",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if err := params.fillFromConfig(); err != nil {
				return err
			}
			return a.verify(ctx, params, logger)
		},
	}
}

// fillFromConfig completes unset flags from the config file.
func (p *verifyParams) fillFromConfig() error {
	if p.Index == "" || p.Dir == "" {
		cfg, err := p.Config.Load()
		if err != nil {
			return fmt.Errorf("--index and --dir not both given: %w", err)
		}
		if p.Index == "" {
			p.Index = cfg.Source.Index
		}
		if p.Dir == "" {
			p.Dir = cfg.Source.Dir
		}
		if p.Digest == "" {
			p.Digest = cfg.Source.Digest
		}
		if p.Encoding == "" {
			p.Encoding = cfg.Source.Encoding
		}
		if p.Dir == "" {
			return fmt.Errorf("--dir is required when the config source is a URL")
		}
	}
	if p.Digest == "" {
		p.Digest = "sha256"
	}
	if p.Encoding == "" {
		p.Encoding = "none"
	}
	return nil
}

func (a *application) verify(ctx context.Context, params verifyParams, logger *slog.Logger) error {
	algorithm, err := assetindex.ParseAlgorithm(params.Digest)
	if err != nil {
		return err
	}
	encoding, err := compress.ParseEncoding(params.Encoding)
	if err != nil {
		return err
	}
	index, err := assetindex.ParseFile(params.Index)
	if err != nil {
		return err
	}

	logger.Info("verifying", "index", params.Index, "dir", params.Dir, "files", index.Len())
	report, err := assetindex.VerifyDir(ctx, params.Dir, index, assetindex.VerifyOptions{
		Algorithm:   algorithm,
		Encoding:    encoding,
		Concurrency: params.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("verify interrupted after %d files: %w", report.Checked, err)
	}

	for _, problem := range report.Problems {
		fmt.Fprintln(a.stdout, problem.String())
	}
	fmt.Fprintf(a.stdout, "checked %s (%s), %s\n",
		pluralize(report.Checked, "file"),
		humanize.IBytes(uint64(report.Bytes)),
		pluralize(len(report.Problems), "problem"))
	if !report.OK() {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
