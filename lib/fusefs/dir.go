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

// dirNode is a directory of the tree.
type dirNode struct {
	base
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeOnAdder = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeCreater = (*dirNode)(nil)
var _ gofuse.NodeMknoder = (*dirNode)(nil)
var _ gofuse.NodeMkdirer = (*dirNode)(nil)
var _ gofuse.NodeUnlinker = (*dirNode)(nil)
var _ gofuse.NodeRmdirer = (*dirNode)(nil)
var _ gofuse.NodeRenamer = (*dirNode)(nil)
var _ gofuse.NodeSymlinker = (*dirNode)(nil)
var _ gofuse.NodeLinker = (*dirNode)(nil)

// OnAdd registers a persistent inode for every child. go-fuse calls
// it for each new directory inode, so the whole tree is populated
// recursively from the root.
func (d *dirNode) OnAdd(ctx context.Context) {
	children, err := d.fs.tree.Children(d.node)
	if err != nil {
		d.fs.logger.Error("listing directory for mount", "inode", d.node.ID(), "error", err)
		return
	}
	for _, child := range children {
		inode := d.NewPersistentInode(ctx, d.fs.embedderFor(child), stableAttr(child))
		d.AddChild(child.Name(), inode, false)
	}
}

func (d *dirNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	children, err := d.fs.tree.Children(d.node)
	if err != nil {
		return nil, toErrno(err)
	}
	entries := make([]fuse.DirEntry, 0, len(children))
	for _, child := range children {
		entries = append(entries, fuse.DirEntry{
			Name: child.Name(),
			Mode: stableAttr(child).Mode,
			Ino:  uint64(child.ID()),
		})
	}
	return gofuse.NewListDirStream(entries), 0
}

func (d *dirNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	node, err := d.fs.tree.Mknod(d.node, name, mode&^syscall.S_IFMT|syscall.S_IFREG)
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}
	stream, err := d.fs.tree.Open(ctx, node).Wait(ctx)
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}
	inode := d.NewPersistentInode(ctx, d.fs.embedderFor(node), stableAttr(node))
	fillAttr(&out.Attr, d.fs.tree.Getattr(node))
	return inode, &handle{fs: d.fs, stream: stream}, 0, 0
}

func (d *dirNode) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return d.make(ctx, name, mode, out)
}

func (d *dirNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return d.make(ctx, name, mode&^syscall.S_IFMT|syscall.S_IFDIR, out)
}

func (d *dirNode) make(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	node, err := d.fs.tree.Mknod(d.node, name, mode)
	if err != nil {
		return nil, toErrno(err)
	}
	fillAttr(&out.Attr, d.fs.tree.Getattr(node))
	return d.NewPersistentInode(ctx, d.fs.embedderFor(node), stableAttr(node)), 0
}

func (d *dirNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return toErrno(d.fs.tree.Unlink(d.node, name))
}

func (d *dirNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return toErrno(d.fs.tree.Rmdir(d.node, name))
}

func (d *dirNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	target := d.node
	if parent, ok := newParent.(*dirNode); ok {
		target = parent.node
	}
	return toErrno(d.fs.tree.Rename(d.node, name, target, newName))
}

func (d *dirNode) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return nil, toErrno(d.fs.tree.Symlink(d.node, name, target))
}

func (d *dirNode) Link(ctx context.Context, target gofuse.InodeEmbedder, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	var targetNode *assetfs.Node
	switch existing := target.(type) {
	case *fileNode:
		targetNode = existing.node
	case *dirNode:
		targetNode = existing.node
	}
	return nil, toErrno(d.fs.tree.Link(d.node, name, targetNode))
}
