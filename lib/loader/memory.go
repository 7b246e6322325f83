// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

// Memory serves files from a map and records saves into the same map.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
	loads map[string]int
	saves map[string]int
}

// NewMemory returns a Memory holding copies of files.
func NewMemory(files map[string][]byte) *Memory {
	memory := &Memory{
		files: make(map[string][]byte, len(files)),
		loads: make(map[string]int),
		saves: make(map[string]int),
	}
	for path, content := range files {
		memory.files[path] = clone(content)
	}
	return memory
}

// LoadFile returns a copy of the stored content. expectedSize is not
// checked here; the tree checks it.
func (m *Memory) LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads[path]++
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return clone(content), nil
}

// SaveFile stores a copy of data.
func (m *Memory) SaveFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves[path]++
	m.files[path] = clone(data)
	return nil
}

// Loads returns how many times path was loaded.
func (m *Memory) Loads(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[path]
}

// Saves returns how many times path was saved.
func (m *Memory) Saves(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[path]
}

// Content returns a copy of the stored content for path.
func (m *Memory) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	return clone(content), ok
}

// Entries returns mount input for every stored file, sorted by path,
// with sizes taken from the stored content.
func (m *Memory) Entries() []assetfs.IndexEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]assetfs.IndexEntry, 0, len(m.files))
	for path, content := range m.files {
		entries = append(entries, assetfs.IndexEntry{Path: path, Size: int64(len(content))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

var (
	_ assetfs.Loader = (*Memory)(nil)
	_ assetfs.Saver  = (*Memory)(nil)
)
