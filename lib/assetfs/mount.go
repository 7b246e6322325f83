// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"fmt"
	"strings"
)

// IndexEntry describes one file to mount.
type IndexEntry struct {
	// Path is slash-separated and relative to the mount root. A
	// leading "./" is ignored.
	Path string

	// Size is the declared content length.
	Size int64

	// Content, when non-nil, is the file's content and must be
	// exactly Size bytes. The Tree takes ownership of the slice.
	Content []byte
}

// Mount builds a Tree from an ordered list of index entries.
// Intermediate directories are created as needed; each entry becomes a
// remote-backed file of the declared size. Entries with inline content
// start out cached. With Options.Local set, every file starts
// memory-backed instead, using its inline content or zeros.
func Mount(entries []IndexEntry, options Options) (*Tree, error) {
	tree := New(options)

	tree.mu.Lock()
	var totalSize int64
	for i, entry := range entries {
		if err := tree.addEntryLocked(entry); err != nil {
			tree.mu.Unlock()
			return nil, fmt.Errorf("index entry %d (%s): %w", i, entry.Path, err)
		}
		totalSize += entry.Size
	}
	tree.mu.Unlock()

	tree.logger.Info("mounted index",
		"files", len(entries),
		"bytes", totalSize,
		"local", tree.local,
	)
	return tree, nil
}

func (t *Tree) addEntryLocked(entry IndexEntry) error {
	segments, err := splitPath(entry.Path)
	if err != nil {
		return err
	}
	if entry.Size < 0 {
		return fmt.Errorf("negative size %d: %w", entry.Size, ErrInvalid)
	}
	if entry.Size > MaxFileSize {
		return fmt.Errorf("size %d: %w", entry.Size, ErrTooLarge)
	}
	if entry.Content != nil && int64(len(entry.Content)) != entry.Size {
		return &IntegrityError{
			Path:         strings.Join(segments, "/"),
			ExpectedSize: entry.Size,
			ActualSize:   int64(len(entry.Content)),
		}
	}

	parent, err := t.mkdirAllLocked(segments[:len(segments)-1])
	if err != nil {
		return err
	}
	name := segments[len(segments)-1]
	if _, exists := parent.children[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrExists)
	}

	node := t.newNodeLocked(parent, name, FileMode)
	node.size = entry.Size
	switch {
	case t.local:
		content := entry.Content
		if content == nil {
			content = make([]byte, entry.Size)
		}
		node.setBufferLocked(content)
		node.memoryBacked = true
	case entry.Content != nil:
		node.setBufferLocked(entry.Content)
	}
	return nil
}

// mkdirAllLocked returns the directory at segments, creating missing
// directories along the way. A file in the way fails with ErrExists.
func (t *Tree) mkdirAllLocked(segments []string) (*Node, error) {
	current := t.root
	for _, segment := range segments {
		child, ok := current.children[segment]
		if !ok {
			child = t.newNodeLocked(current, segment, DirMode)
		} else if !child.IsDir() {
			return nil, fmt.Errorf("directory %s is a file: %w", segment, ErrExists)
		}
		current = child
	}
	return current, nil
}

// Restore installs previously saved content at path as a
// memory-backed file, creating the file and any missing directories.
// An existing file's content is replaced. Restored files are not
// dirty: the content came from the Saver's store.
func (t *Tree) Restore(path string, data []byte) (*Node, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent, err := t.mkdirAllLocked(segments[:len(segments)-1])
	if err != nil {
		return nil, fmt.Errorf("restoring %s: %w", path, err)
	}
	name := segments[len(segments)-1]
	node, exists := parent.children[name]
	switch {
	case !exists:
		node = t.newNodeLocked(parent, name, FileMode)
	case node.IsDir():
		return nil, fmt.Errorf("restoring %s: %w", path, ErrIsDir)
	}

	t.cancelEvictionLocked(node)
	node.setBufferLocked(data)
	node.memoryBacked = true
	node.dirty = false
	node.timestamp = t.clock.Now()
	return node, nil
}
