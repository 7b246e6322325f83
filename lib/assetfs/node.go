// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"time"

	"github.com/bureau-foundation/assetfs/lib/clock"
)

// NodeID identifies a node within its Tree. It doubles as the inode
// number reported by Getattr. The root is always 1.
type NodeID uint64

// Mode bits. The type bits match the POSIX S_IF* values so that modes
// pass through FUSE and stat unchanged.
const (
	ModeTypeMask    uint32 = 0o170000
	ModeSocket      uint32 = 0o140000
	ModeSymlink     uint32 = 0o120000
	ModeRegular     uint32 = 0o100000
	ModeBlockDevice uint32 = 0o060000
	ModeDir         uint32 = 0o040000
	ModeCharDevice  uint32 = 0o020000
	ModeFIFO        uint32 = 0o010000

	// DirMode and FileMode are the modes given to nodes created by
	// Mount.
	DirMode  = ModeDir | 0o777
	FileMode = ModeRegular | 0o777
)

// BlockSize is the block size reported by Getattr. It is also the
// size reported for every directory.
const BlockSize = 4096

// MaxFileSize is the largest size a file in the tree may have.
// Content lives in a single in-memory buffer.
const MaxFileSize int64 = 4 << 30

// State is the content state of a file node.
type State int

const (
	// StateUnloaded: remote-backed, no buffer.
	StateUnloaded State = iota
	// StateLoading: remote-backed, a load is in flight.
	StateLoading
	// StateCached: remote-backed, buffer present, evictable when idle.
	StateCached
	// StateMemoryBacked: the buffer is the only copy of the content.
	StateMemoryBacked
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateCached:
		return "cached"
	case StateMemoryBacked:
		return "memory-backed"
	default:
		return "unknown"
	}
}

// Node is a file or directory in a Tree. Nodes are only created by the
// Tree (Mount, Mknod, Restore) and all mutable fields are guarded by
// the owning Tree's mutex.
type Node struct {
	tree *Tree

	id   NodeID
	name string
	// parent is the parent directory's id, resolved through
	// Tree.nodes. Zero for the root.
	parent NodeID

	mode      uint32
	timestamp time.Time
	size      int64

	// children is non-nil exactly for directories.
	children map[string]*Node

	// buffer is the file content. loaded distinguishes an empty
	// buffer from no buffer.
	buffer []byte
	loaded bool

	refs         int
	memoryBacked bool
	detached     bool

	// dirty is set when a memory-backed buffer has changes that have
	// not been handed to the Saver. writeGen counts mutations so that
	// a save racing a write does not clear dirty.
	dirty    bool
	writeGen uint64

	load *loadFuture

	evictTimer *clock.Timer
	evictGen   uint64
}

// ID returns the node's id.
func (n *Node) ID() NodeID { return n.id }

// Name returns the node's name within its parent. The root is "/".
func (n *Node) Name() string { return n.name }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.children != nil }

// Mode returns the node's mode bits.
func (n *Node) Mode() uint32 {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.mode
}

// Size returns the node's size in bytes.
func (n *Node) Size() int64 {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.size
}

// Refs returns the number of open streams on the node.
func (n *Node) Refs() int {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.refs
}

// State returns the content state of a file. Directories always
// report StateMemoryBacked: they have no remote content.
func (n *Node) State() State {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.stateLocked()
}

func (n *Node) stateLocked() State {
	switch {
	case n.IsDir() || n.memoryBacked:
		return StateMemoryBacked
	case n.loaded:
		return StateCached
	case n.load != nil:
		return StateLoading
	default:
		return StateUnloaded
	}
}

// Detached reports whether the node has been unlinked from its parent.
func (n *Node) Detached() bool {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.detached
}

// Path returns the node's slash-separated path relative to the mount
// root. The root's path is "".
func (n *Node) Path() (string, error) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.tree.pathLocked(n)
}

// setBufferLocked replaces the buffer and keeps size in step with it.
func (n *Node) setBufferLocked(buffer []byte) {
	n.buffer = buffer
	n.loaded = true
	n.size = int64(len(buffer))
}

// resizeLocked grows (zero-filled) or shrinks the buffer to size.
func (n *Node) resizeLocked(size int64) {
	old := int64(len(n.buffer))
	switch {
	case size <= old:
		n.buffer = n.buffer[:size]
	case size <= int64(cap(n.buffer)):
		n.buffer = n.buffer[:size]
		clear(n.buffer[old:])
	default:
		newCap := 2 * int64(cap(n.buffer))
		if newCap < size {
			newCap = size
		}
		grown := make([]byte, size, newCap)
		copy(grown, n.buffer)
		n.buffer = grown
	}
	n.size = size
}

// promoteLocked makes the node memory-backed. The transition is
// permanent; any pending eviction is cancelled.
func (n *Node) promoteLocked() {
	n.markDirtyLocked()
	if n.memoryBacked {
		return
	}
	n.memoryBacked = true
	n.tree.cancelEvictionLocked(n)
	n.tree.logger.Debug("file promoted to memory-backed", "node", n.id, "name", n.name)
}

func (n *Node) markDirtyLocked() {
	n.dirty = true
	n.writeGen++
}
