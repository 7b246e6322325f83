// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"context"
	"errors"
	"fmt"
)

// pendingSave is a copy of one dirty buffer taken under the lock.
type pendingSave struct {
	node       *Node
	path       string
	data       []byte
	generation uint64
}

// SaveFile hands one memory-backed file's content to the Saver. Clean
// files, remote-backed files, and directories are skipped. The dirty
// flag is cleared only if no write happened while the save ran.
func (t *Tree) SaveFile(ctx context.Context, node *Node) error {
	if t.saver == nil {
		return nil
	}

	t.mu.Lock()
	save, ok, err := t.pendingSaveLocked(node)
	t.mu.Unlock()
	if err != nil || !ok {
		return err
	}
	return t.save(ctx, save)
}

// Sync saves every dirty memory-backed file reachable from the root,
// in path order. It attempts every file and returns the joined errors.
func (t *Tree) Sync(ctx context.Context) error {
	if t.saver == nil {
		return nil
	}

	var saves []pendingSave
	err := t.Walk(func(path string, node *Node) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		save, ok, err := t.pendingSaveLocked(node)
		if ok && err == nil {
			saves = append(saves, save)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, save := range saves {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := t.save(ctx, save); err != nil {
			errs = append(errs, err)
		}
	}
	if len(saves) > 0 {
		t.logger.Info("synced memory-backed files", "files", len(saves), "failed", len(errs))
	}
	return errors.Join(errs...)
}

func (t *Tree) pendingSaveLocked(node *Node) (pendingSave, bool, error) {
	if node.IsDir() || !node.memoryBacked || !node.dirty || node.detached {
		return pendingSave{}, false, nil
	}
	path, err := t.pathLocked(node)
	if err != nil {
		return pendingSave{}, false, err
	}
	data := make([]byte, len(node.buffer))
	copy(data, node.buffer)
	return pendingSave{
		node:       node,
		path:       path,
		data:       data,
		generation: node.writeGen,
	}, true, nil
}

func (t *Tree) save(ctx context.Context, save pendingSave) error {
	if err := t.saver.SaveFile(ctx, save.path, save.data); err != nil {
		return fmt.Errorf("saving %s: %w", save.path, err)
	}
	t.mu.Lock()
	if save.node.writeGen == save.generation {
		save.node.dirty = false
	}
	t.mu.Unlock()
	return nil
}
