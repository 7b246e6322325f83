// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

// armEvictionLocked schedules the node's buffer to be dropped after
// the eviction delay. A later Open, write, truncate, or re-arm
// invalidates the timer through evictGen, so a callback that already
// fired and is waiting on the lock does nothing.
func (t *Tree) armEvictionLocked(node *Node) {
	if t.evictionDelay < 0 || !node.loaded {
		return
	}
	t.cancelEvictionLocked(node)
	generation := node.evictGen
	node.evictTimer = t.clock.AfterFunc(t.evictionDelay, func() {
		t.evict(node, generation)
	})
}

func (t *Tree) cancelEvictionLocked(node *Node) {
	if node.evictTimer != nil {
		node.evictTimer.Stop()
		node.evictTimer = nil
	}
	node.evictGen++
}

func (t *Tree) evict(node *Node, generation uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.evictGen != generation || node.evictTimer == nil {
		return
	}
	node.evictTimer = nil
	if node.refs > 0 || node.memoryBacked || !node.loaded {
		return
	}
	node.buffer = nil
	node.loaded = false
	t.logger.Debug("evicted cached file", "node", node.id, "name", node.name, "size", node.size)
}
