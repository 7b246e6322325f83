// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists memory-backed files (save games, edited
// configs) in a single CBOR file so they survive a remount.
//
// A Store is an assetfs.Saver: every SaveFile updates the in-memory
// set and atomically rewrites the snapshot file. On the next start,
// [Store.RestoreInto] re-applies the saved files to a freshly mounted
// tree before it is served.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/codec"
)

// formatVersion is written into every snapshot. Open refuses any
// other version.
const formatVersion = 1

// document is the on-disk form.
type document struct {
	Version int               `cbor:"version"`
	Files   map[string][]byte `cbor:"files"`
}

// Store holds saved file contents and mirrors them to one file.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	files map[string][]byte
}

// Open loads the snapshot at path. A missing file yields an empty
// Store; the file is created on the first save.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := &Store{
		path:   path,
		logger: logger,
		files:  make(map[string][]byte),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var decoded document
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if decoded.Version != formatVersion {
		return nil, fmt.Errorf("snapshot %s has format version %d, want %d", path, decoded.Version, formatVersion)
	}
	for name, content := range decoded.Files {
		if content == nil {
			content = []byte{}
		}
		store.files[name] = content
	}
	logger.Info("opened snapshot", "path", path, "files", len(store.files))
	return store, nil
}

// SaveFile records data for path and rewrites the snapshot file.
func (s *Store) SaveFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.files[path]
	s.files[path] = data
	if err := s.writeLocked(); err != nil {
		if existed {
			s.files[path] = previous
		} else {
			delete(s.files, path)
		}
		return err
	}
	s.logger.Debug("saved file to snapshot", "path", path, "size", len(data))
	return nil
}

// Files returns the saved paths in sorted order.
func (s *Store) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Content returns the saved content for path.
func (s *Store) Content(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	return content, ok
}

// RestoreInto installs every saved file into tree as a memory-backed
// node and returns the number restored. A file that cannot be
// restored (its path now collides with a directory, say) is logged
// and skipped; the joined errors are returned alongside the count.
func (s *Store) RestoreInto(tree *assetfs.Tree) (int, error) {
	var errs []error
	restored := 0
	for _, name := range s.Files() {
		content, _ := s.Content(name)
		data := make([]byte, len(content))
		copy(data, content)
		if _, err := tree.Restore(name, data); err != nil {
			s.logger.Warn("skipping snapshot file", "path", name, "error", err)
			errs = append(errs, err)
			continue
		}
		restored++
	}
	return restored, errors.Join(errs...)
}

// writeLocked rewrites the snapshot atomically: temp file + rename.
func (s *Store) writeLocked() error {
	data, err := codec.Marshal(document{Version: formatVersion, Files: s.files})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(directory, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}

	success = true
	return nil
}

var _ assetfs.Saver = (*Store)(nil)
