// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetfs/cmd/assetfs/cli"
	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/clock"
	"github.com/bureau-foundation/assetfs/lib/fusefs"
	"github.com/bureau-foundation/assetfs/lib/service"
)

// finalSyncTimeout bounds the save on shutdown.
const finalSyncTimeout = 30 * time.Second

type mountParams struct {
	Config     cli.ConfigFlag
	Mountpoint string `flag:"mountpoint,m" desc:"mount directory (overrides mount.mountpoint)"`
}

func (a *application) mountCommand() *cli.Command {
	var params mountParams
	return &cli.Command{
		Name:    "mount",
		Summary: "Mount the asset tree and serve it until interrupted",
		Description: `Mount the tree described by the configured index over FUSE and serve
it until SIGINT or SIGTERM. Modified files are saved every
save.interval and once more after unmounting.`,
		Usage: "assetfs mount [flags]",
		Examples: []cli.Example{
			{
				Description: "Mount using the config named by $ASSETFS_CONFIG",
				Command:     "assetfs mount",
			},
			{
				Description: "Mount a specific config at a different directory",
				Command:     "assetfs mount -c ~/.config/assetfs/fallout2.yaml -m /tmp/fallout2",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("mount", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			cfg, err := params.Config.Load()
			if err != nil {
				return err
			}
			if params.Mountpoint != "" {
				cfg.Mount.Mountpoint = params.Mountpoint
			}
			if err := cfg.RequireMount(); err != nil {
				return err
			}
			logger, err := service.NewLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			durations, err := cfg.Durations()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tree, index, err := buildTree(ctx, cfg, a.clock, logger)
			if err != nil {
				return err
			}
			server, err := fusefs.Mount(fusefs.Options{
				Mountpoint: cfg.Mount.Mountpoint,
				Tree:       tree,
				AllowOther: cfg.Mount.AllowOther,
				FsName:     cfg.Mount.FsName,
				Logger:     logger,
			})
			if err != nil {
				return fmt.Errorf("mounting %s: %w", cfg.Mount.Mountpoint, err)
			}
			logger.Info("assetfs mounted",
				"mountpoint", cfg.Mount.Mountpoint,
				"files", index.Len(),
				"bytes", index.TotalSize(),
			)

			d := &daemon{
				tree:         tree,
				clock:        a.clock,
				saveInterval: durations.SaveInterval,
				logger:       logger,
			}
			return d.serve(ctx, server)
		},
	}
}

// fuseServer is the part of *fuse.Server the daemon drives.
type fuseServer interface {
	Wait()
	Unmount() error
}

// daemon runs a mounted tree: periodic saves while serving, then an
// unmount and a final save.
type daemon struct {
	tree         *assetfs.Tree
	clock        clock.Clock
	saveInterval time.Duration
	logger       *slog.Logger
}

// serve blocks until ctx is cancelled or the filesystem is unmounted
// externally (fusermount -u).
func (d *daemon) serve(ctx context.Context, server fuseServer) error {
	served := make(chan struct{})
	go func() {
		server.Wait()
		close(served)
	}()

	loopCtx, cancelLoop := context.WithCancel(ctx)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		d.syncLoop(loopCtx)
	}()

	select {
	case <-ctx.Done():
		d.logger.Info("shutting down", "reason", context.Cause(ctx))
		if err := server.Unmount(); err != nil {
			d.logger.Error("unmount failed", "error", err)
		}
		<-served
	case <-served:
		d.logger.Info("filesystem unmounted externally")
	}
	cancelLoop()
	<-loopDone

	syncCtx, cancel := context.WithTimeout(context.Background(), finalSyncTimeout)
	defer cancel()
	if err := d.tree.Sync(syncCtx); err != nil {
		return fmt.Errorf("saving modified files: %w", err)
	}
	d.logger.Info("modified files saved", "memory_backed", d.tree.Stats().MemoryBackedFiles)
	return nil
}

// syncLoop saves modified files every saveInterval until ctx is done.
// A failed save is logged and retried on the next tick; dirty files
// stay dirty until a save succeeds.
func (d *daemon) syncLoop(ctx context.Context) {
	if d.saveInterval <= 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(d.saveInterval):
		}
		if err := d.tree.Sync(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Warn("periodic save failed", "error", err)
		}
	}
}
