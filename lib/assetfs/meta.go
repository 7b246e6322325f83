// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"fmt"
	"time"
)

// Attr is the stat record returned by Getattr. Device, link count and
// ownership are fixed; one timestamp serves as atime, mtime and ctime.
type Attr struct {
	Dev     uint64
	Ino     uint64
	Mode    uint32
	Nlink   uint32
	UID     uint32
	GID     uint32
	Size    int64
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
	Blksize int64
	Blocks  int64
}

// SetAttr carries the fields Setattr may change. Nil fields are left
// alone.
type SetAttr struct {
	// Mode replaces the permission bits. The file type bits of a node
	// never change.
	Mode      *uint32
	Timestamp *time.Time
	Size      *int64
}

// Getattr returns the node's attributes.
func (t *Tree) Getattr(node *Node) Attr {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Attr{
		Dev:     1,
		Ino:     uint64(node.id),
		Mode:    node.mode,
		Nlink:   1,
		UID:     0,
		GID:     0,
		Size:    node.size,
		Atime:   node.timestamp,
		Mtime:   node.timestamp,
		Ctime:   node.timestamp,
		Blksize: BlockSize,
		Blocks:  (node.size + BlockSize - 1) / BlockSize,
	}
}

// Setattr changes a node's mode, timestamp, or size in place.
//
// Any Size, even the current one, makes the file memory-backed: once
// truncated, the content must never be replaced by a later fetch.
// Truncating a file that has no buffer is only possible to size zero;
// other sizes return ErrNotLoaded and the caller must open the file
// first.
// Sizes above MaxFileSize return ErrTooLarge.
func (t *Tree) Setattr(node *Node, attr SetAttr) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if attr.Size != nil {
		size := *attr.Size
		if node.IsDir() {
			return fmt.Errorf("setattr size on %s: %w", node.name, ErrIsDir)
		}
		if size < 0 {
			return fmt.Errorf("setattr size %d on %s: %w", size, node.name, ErrInvalid)
		}
		if size > MaxFileSize {
			return fmt.Errorf("setattr size %d on %s: %w", size, node.name, ErrTooLarge)
		}
		if !node.loaded {
			if size != 0 {
				return fmt.Errorf("truncating %s to %d bytes: %w", node.name, size, ErrNotLoaded)
			}
			node.setBufferLocked([]byte{})
		}
		node.resizeLocked(size)
		node.promoteLocked()
	}
	if attr.Mode != nil {
		node.mode = node.mode&ModeTypeMask | *attr.Mode&^ModeTypeMask
	}
	if attr.Timestamp != nil {
		node.timestamp = *attr.Timestamp
	} else if attr.Size != nil {
		node.timestamp = t.clock.Now()
	}
	return nil
}

// Readdir lists a directory: ".", "..", then every child in name
// order.
func (t *Tree) Readdir(node *Node) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !node.IsDir() {
		return nil, fmt.Errorf("readdir %s: %w", node.name, ErrNotDir)
	}
	entries := make([]string, 0, len(node.children)+2)
	entries = append(entries, ".", "..")
	for _, child := range sortedChildren(node) {
		entries = append(entries, child.name)
	}
	return entries, nil
}

// Mknod creates a regular file or directory under parent. The new node
// is memory-backed from the start: a file gets an empty buffer, a
// directory an empty child map. A mode without type bits creates a
// regular file. Device, FIFO, socket and symlink modes are refused.
func (t *Tree) Mknod(parent *Node, name string, mode uint32) (*Node, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	switch mode & ModeTypeMask {
	case 0:
		mode |= ModeRegular
	case ModeRegular, ModeDir:
	default:
		return nil, fmt.Errorf("mknod %s with mode %o: %w", name, mode, ErrPermission)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !parent.IsDir() {
		return nil, fmt.Errorf("mknod %s in %s: %w", name, parent.name, ErrNotDir)
	}
	if parent.detached {
		return nil, fmt.Errorf("mknod %s in removed directory %s: %w", name, parent.name, ErrNotFound)
	}
	if _, exists := parent.children[name]; exists {
		return nil, fmt.Errorf("mknod %s: %w", name, ErrExists)
	}

	node := t.newNodeLocked(parent, name, mode)
	node.memoryBacked = true
	if !node.IsDir() {
		node.setBufferLocked([]byte{})
		node.markDirtyLocked()
	}
	parent.timestamp = node.timestamp
	return node, nil
}

// Unlink removes a file entry from parent. Streams already open on the
// file keep working on the detached node.
func (t *Tree) Unlink(parent *Node, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !parent.IsDir() {
		return fmt.Errorf("unlink %s in %s: %w", name, parent.name, ErrNotDir)
	}
	node, ok := parent.children[name]
	if !ok {
		return fmt.Errorf("unlink %s: %w", name, ErrNotFound)
	}
	if node.IsDir() {
		return fmt.Errorf("unlink directory %s: %w", name, ErrPermission)
	}

	delete(parent.children, name)
	delete(t.nodes, node.id)
	node.detached = true
	node.dirty = false
	parent.timestamp = t.clock.Now()
	return nil
}

// Lookup always fails with ErrIO. Children are registered in their
// parent when created, so a host that asks for a lookup has not been
// wired to the pre-built namespace.
func (t *Tree) Lookup(parent *Node, name string) (*Node, error) {
	t.logger.Error("unexpected lookup", "parent", parent.id, "name", name)
	return nil, fmt.Errorf("lookup %s in %s: %w", name, parent.name, ErrIO)
}

// Rename always fails: the namespace is fixed except for create and
// remove of leaf entries.
func (t *Tree) Rename(oldParent *Node, oldName string, newParent *Node, newName string) error {
	return fmt.Errorf("rename %s to %s: %w", oldName, newName, ErrPermission)
}

// Rmdir always fails.
func (t *Tree) Rmdir(parent *Node, name string) error {
	return fmt.Errorf("rmdir %s: %w", name, ErrPermission)
}

// Symlink always fails.
func (t *Tree) Symlink(parent *Node, name, target string) error {
	return fmt.Errorf("symlink %s: %w", name, ErrPermission)
}

// Link always fails.
func (t *Tree) Link(parent *Node, name string, target *Node) error {
	return fmt.Errorf("link %s: %w", name, ErrPermission)
}
