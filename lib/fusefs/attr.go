// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

// base carries the attribute operations shared by files and
// directories.
type base struct {
	gofuse.Inode
	fs   *filesystem
	node *assetfs.Node
}

var _ gofuse.NodeGetattrer = (*base)(nil)
var _ gofuse.NodeSetattrer = (*base)(nil)

func (b *base) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fillAttr(&out.Attr, b.fs.tree.Getattr(b.node))
	return 0
}

// Setattr applies mode, mtime and size changes. A non-zero truncate
// of a file whose content is not in memory loads it first so the
// kept prefix is the real content.
func (b *base) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	var change assetfs.SetAttr
	if mode, ok := in.GetMode(); ok {
		change.Mode = &mode
	}
	if mtime, ok := in.GetMTime(); ok {
		change.Timestamp = &mtime
	}
	if size, ok := in.GetSize(); ok {
		if size > uint64(assetfs.MaxFileSize) {
			return unix.EFBIG
		}
		length := int64(size)
		change.Size = &length
		if loadBeforeTruncate(b.node.State(), length) {
			stream, err := b.fs.tree.Open(ctx, b.node).Wait(ctx)
			if err != nil {
				b.fs.logger.Warn("loading file for truncate failed", "inode", b.node.ID(), "error", err)
				return toErrno(err)
			}
			// The stream holds the buffer until Setattr has promoted it.
			defer stream.Close()
		}
	}

	if err := b.fs.tree.Setattr(b.node, change); err != nil {
		return toErrno(err)
	}
	fillAttr(&out.Attr, b.fs.tree.Getattr(b.node))
	return 0
}

// loadBeforeTruncate reports whether truncating a file in state to
// length needs its content first. A load already in flight is joined
// rather than raced.
func loadBeforeTruncate(state assetfs.State, length int64) bool {
	if length == 0 {
		return false
	}
	return state == assetfs.StateUnloaded || state == assetfs.StateLoading
}

// fillAttr converts a tree stat record. FUSE counts blocks in 512-byte
// units regardless of Blksize.
func fillAttr(out *fuse.Attr, attr assetfs.Attr) {
	out.Ino = attr.Ino
	out.Mode = attr.Mode
	out.Nlink = attr.Nlink
	out.Owner = fuse.Owner{Uid: attr.UID, Gid: attr.GID}
	out.Size = uint64(attr.Size)
	out.Blocks = (uint64(attr.Size) + 511) / 512
	out.Blksize = uint32(attr.Blksize)
	atime, mtime, ctime := attr.Atime, attr.Mtime, attr.Ctime
	out.SetTimes(&atime, &mtime, &ctime)
}
