// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetfs implements an in-process virtual filesystem over a
// set of remotely hosted, mostly immutable assets.
//
// A [Tree] is built once from an index of (path, size, optional
// content) records by [Mount]. File content is fetched lazily through
// a [Loader] the first time a file is opened, kept in memory while any
// [Stream] references it, and discarded again once the file has been
// idle for the eviction window. The first write or size-changing
// [Tree.Setattr] promotes a file to memory-backed: its buffer becomes
// the only copy of the content and is never evicted or re-fetched.
//
// # File states
//
//	Unloaded ──open──▶ Loading ──ok──▶ Cached ──write/truncate──▶ MemoryBacked
//	    ▲                 │              │
//	    └──size mismatch──┘              │
//	    └────────── idle for the eviction window
//
// MemoryBacked is also reached directly by [Tree.Mknod] and by
// truncating a file in any state.
//
// # Opening
//
// [Tree.Open] returns an [OpenFuture]. Opening a file whose buffer is
// present resolves immediately. Otherwise all concurrent openers of
// the same node share a single in-flight load: the loader is called at
// most once per node until that load completes. The load runs without
// the caller's cancellation; loader timeouts are the loader's concern.
//
// # Concurrency
//
// All node state is guarded by one mutex per Tree. The loader and
// saver are always called without that mutex held. Eviction timers
// are armed by [Tree.Close] and cancelled by [Tree.Open] on the same
// node; a per-node generation counter discards callbacks that lost
// the race with a reopen.
package assetfs
