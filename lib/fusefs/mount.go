// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

// DefaultFsName is the filesystem name shown in the mount table.
const DefaultFsName = "assetfs"

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	// It is created if it does not exist.
	Mountpoint string

	// Tree is the filesystem being served.
	Tree *assetfs.Tree

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// FsName is the source shown in the mount table. Empty uses
	// DefaultFsName.
	FsName string

	// Logger receives diagnostic messages. If nil, errors are
	// logged to stderr.
	Logger *slog.Logger
}

// filesystem is shared by every inode of one mount.
type filesystem struct {
	tree   *assetfs.Tree
	logger *slog.Logger
}

// Mount mounts the tree at the configured mountpoint. The caller must
// call Unmount on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Tree == nil {
		return nil, fmt.Errorf("tree is required")
	}
	if options.FsName == "" {
		options.FsName = DefaultFsName
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	fs := &filesystem{tree: options.Tree, logger: options.Logger}
	root := fs.newDir(options.Tree.Root())

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		RootStableAttr:  &gofuse.StableAttr{Ino: uint64(options.Tree.Root().ID())},
		MountOptions: fuse.MountOptions{
			FsName:     options.FsName,
			Name:       "assetfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("asset filesystem mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// embedderFor wraps a tree node in the matching inode type.
func (f *filesystem) embedderFor(node *assetfs.Node) gofuse.InodeEmbedder {
	if node.IsDir() {
		return f.newDir(node)
	}
	return &fileNode{base: base{fs: f, node: node}}
}

func (f *filesystem) newDir(node *assetfs.Node) *dirNode {
	return &dirNode{base: base{fs: f, node: node}}
}

// stableAttr is the identity go-fuse keys inodes by.
func stableAttr(node *assetfs.Node) gofuse.StableAttr {
	mode := uint32(syscall.S_IFREG)
	if node.IsDir() {
		mode = syscall.S_IFDIR
	}
	return gofuse.StableAttr{Mode: mode, Ino: uint64(node.ID())}
}
