// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fusefs serves an [assetfs.Tree] through the kernel with
// go-fuse.
//
// Every node of the tree gets a persistent inode when its parent
// directory is added, so the kernel never needs a lookup callback:
// the namespace is fully known up front and only changes through
// create, mkdir and unlink calls routed back into the tree. Inode
// numbers are the tree's node IDs.
//
// A kernel open maps to [assetfs.Tree.Open] and blocks until the
// file's content is loaded; release maps to [assetfs.Stream.Close],
// which arms eviction. Fsync saves the file through the tree's Saver.
// Rename, rmdir, symlink and hard links are refused with EPERM.
package fusefs
