// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"errors"
	"slices"
	"testing"
)

func TestMountBuildsDirectories(t *testing.T) {
	tree, err := Mount([]IndexEntry{
		{Path: "./data/art/a.frm", Size: 10},
		{Path: "data/art/b.frm", Size: 20},
		{Path: "data/sound/c.acm", Size: 30},
		{Path: "fallout2.cfg", Size: 40},
	}, Options{})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	var walked []string
	err = tree.Walk(func(path string, node *Node) error {
		walked = append(walked, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{
		"",
		"data",
		"data/art",
		"data/art/a.frm",
		"data/art/b.frm",
		"data/sound",
		"data/sound/c.acm",
		"fallout2.cfg",
	}
	if !slices.Equal(walked, want) {
		t.Fatalf("Walk = %v, want %v", walked, want)
	}

	stats := tree.Stats()
	if stats.Directories != 4 || stats.Files != 4 || stats.LoadedFiles != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if size := resolve(t, tree, "data/sound/c.acm").Size(); size != 30 {
		t.Fatalf("declared size = %d, want 30", size)
	}
	if state := resolve(t, tree, "data/art/a.frm").State(); state != StateUnloaded {
		t.Fatalf("state = %v, want unloaded", state)
	}
}

func TestMountErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []IndexEntry
		wantErr error
	}{
		{
			name:    "duplicate file",
			entries: []IndexEntry{{Path: "a/b", Size: 1}, {Path: "a/b", Size: 2}},
			wantErr: ErrExists,
		},
		{
			name:    "file over directory",
			entries: []IndexEntry{{Path: "a/b/c", Size: 1}, {Path: "a/b", Size: 2}},
			wantErr: ErrExists,
		},
		{
			name:    "directory through file",
			entries: []IndexEntry{{Path: "a/b", Size: 1}, {Path: "a/b/c", Size: 2}},
			wantErr: ErrExists,
		},
		{name: "absolute", entries: []IndexEntry{{Path: "/etc/passwd", Size: 1}}, wantErr: ErrInvalid},
		{name: "dotdot", entries: []IndexEntry{{Path: "a/../b", Size: 1}}, wantErr: ErrInvalid},
		{name: "dot", entries: []IndexEntry{{Path: "a/./b", Size: 1}}, wantErr: ErrInvalid},
		{name: "empty segment", entries: []IndexEntry{{Path: "a//b", Size: 1}}, wantErr: ErrInvalid},
		{name: "trailing slash", entries: []IndexEntry{{Path: "a/", Size: 1}}, wantErr: ErrInvalid},
		{name: "empty", entries: []IndexEntry{{Path: "", Size: 1}}, wantErr: ErrInvalid},
		{name: "negative size", entries: []IndexEntry{{Path: "a", Size: -1}}, wantErr: ErrInvalid},
		{name: "size above max", entries: []IndexEntry{{Path: "a", Size: MaxFileSize + 1}}, wantErr: ErrTooLarge},
		{
			name:    "content length mismatch",
			entries: []IndexEntry{{Path: "a", Size: 5, Content: []byte("abc")}},
			wantErr: ErrIntegrity,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Mount(test.entries, Options{})
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Mount error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestMountInlineContent(t *testing.T) {
	loader := newStubLoader(nil)
	tree, err := Mount([]IndexEntry{
		{Path: "inline.txt", Size: 5, Content: []byte("HELLO")},
	}, Options{Loader: loader})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	node := resolve(t, tree, "inline.txt")
	if state := node.State(); state != StateCached {
		t.Fatalf("state = %v, want cached", state)
	}
	stream := open(t, tree, node)
	defer closeStream(t, stream)
	if got := readAll(t, tree, stream); got != "HELLO" {
		t.Fatalf("read = %q", got)
	}
	if calls := loader.callCount("inline.txt"); calls != 0 {
		t.Fatalf("loader called %d times", calls)
	}
}

func TestMountLocal(t *testing.T) {
	tree, err := Mount([]IndexEntry{
		{Path: "zeros.bin", Size: 4},
		{Path: "text.txt", Size: 2, Content: []byte("hi")},
	}, Options{Local: true})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	zeros := resolve(t, tree, "zeros.bin")
	if state := zeros.State(); state != StateMemoryBacked {
		t.Fatalf("state = %v, want memory-backed", state)
	}
	stream := open(t, tree, zeros)
	if got := readAll(t, tree, stream); got != "\x00\x00\x00\x00" {
		t.Fatalf("read = %q", got)
	}
	closeStream(t, stream)

	text := open(t, tree, resolve(t, tree, "text.txt"))
	defer closeStream(t, text)
	if got := readAll(t, tree, text); got != "hi" {
		t.Fatalf("read = %q", got)
	}
	if stats := tree.Stats(); stats.MemoryBackedFiles != 2 || stats.LoadedBytes != 6 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRestore(t *testing.T) {
	loader := newStubLoader(map[string]string{"data/SAVEGAME/SLOT01/SAVE.DAT": "remote"})
	tree, _ := testTree(t, loader, nil)

	node, err := tree.Restore("data/SAVEGAME/SLOT01/SAVE.DAT", []byte("restored"))
	if err != nil {
		t.Fatalf("Restore existing: %v", err)
	}
	if node != resolve(t, tree, "data/SAVEGAME/SLOT01/SAVE.DAT") {
		t.Fatalf("Restore replaced the node instead of updating it")
	}
	if state := node.State(); state != StateMemoryBacked {
		t.Fatalf("state = %v, want memory-backed", state)
	}
	stream := open(t, tree, node)
	if got := readAll(t, tree, stream); got != "restored" {
		t.Fatalf("read = %q", got)
	}
	closeStream(t, stream)

	created, err := tree.Restore("data/SAVEGAME/SLOT02/SAVE.DAT", []byte("new"))
	if err != nil {
		t.Fatalf("Restore new: %v", err)
	}
	if size := created.Size(); size != 3 {
		t.Fatalf("restored size = %d, want 3", size)
	}
	if calls := loader.callCount("data/SAVEGAME/SLOT01/SAVE.DAT"); calls != 0 {
		t.Fatalf("loader called %d times", calls)
	}

	if _, err := tree.Restore("data/SAVEGAME", []byte("x")); !errors.Is(err, ErrIsDir) {
		t.Fatalf("Restore over directory error = %v, want ErrIsDir", err)
	}
	if _, err := tree.Restore("data/SAVEGAME/SLOT02/SAVE.DAT/x", []byte("x")); !errors.Is(err, ErrExists) {
		t.Fatalf("Restore through file error = %v, want ErrExists", err)
	}
}
