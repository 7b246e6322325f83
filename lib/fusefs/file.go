// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

// fileNode is a regular file of the tree.
type fileNode struct {
	base
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)

// Open blocks until the file's content is in memory. The kernel
// cancels the context if the calling process is interrupted; the
// load itself keeps running for other openers.
func (n *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	stream, err := n.fs.tree.Open(ctx, n.node).Wait(ctx)
	if err != nil {
		n.fs.logger.Warn("open failed", "inode", n.node.ID(), "name", n.node.Name(), "error", err)
		return nil, 0, toErrno(err)
	}
	return &handle{fs: n.fs, stream: stream}, 0, 0
}

// handle is one open file description.
type handle struct {
	fs     *filesystem
	stream *assetfs.Stream
}

var _ gofuse.FileReader = (*handle)(nil)
var _ gofuse.FileWriter = (*handle)(nil)
var _ gofuse.FileFlusher = (*handle)(nil)
var _ gofuse.FileFsyncer = (*handle)(nil)
var _ gofuse.FileReleaser = (*handle)(nil)

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.fs.tree.Read(h.stream, dest, off)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *handle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.fs.tree.Write(h.stream, data, off)
	if err != nil {
		return 0, toErrno(err)
	}
	return uint32(n), 0
}

// Flush runs on every close(2) of a descriptor. Content is saved on
// fsync and when the daemon syncs the tree, not here.
func (h *handle) Flush(ctx context.Context) syscall.Errno {
	return 0
}

func (h *handle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	if err := h.fs.tree.SaveFile(ctx, h.stream.Node()); err != nil {
		h.fs.logger.Error("saving file failed", "inode", h.stream.Node().ID(), "error", err)
		return toErrno(err)
	}
	return 0
}

func (h *handle) Release(ctx context.Context) syscall.Errno {
	return toErrno(h.stream.Close())
}
