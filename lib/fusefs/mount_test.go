// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"syscall"
	"testing"
	"time"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/clock"
	"github.com/bureau-foundation/assetfs/lib/loader"
)

// testTimestamp is a fixed timestamp for tree nodes in tests.
var testTimestamp = time.Unix(1735689600, 0) // 2025-01-01T00:00:00Z

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	_, err := os.Stat("/dev/fuse")
	if err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

type testEnv struct {
	mountpoint string
	tree       *assetfs.Tree
	source     *loader.Memory
	saves      *loader.Memory
}

// testMount builds a tree over an in-memory source, mounts it with a
// fake clock (so nothing is evicted during the test), and unmounts it
// when the test ends.
func testMount(t *testing.T, extra ...assetfs.IndexEntry) *testEnv {
	t.Helper()
	fuseAvailable(t)

	source := loader.NewMemory(map[string][]byte{
		"fallout2.cfg":             []byte("[system]\nlanguage=english\n"),
		"data/art/intrface/hp.frm": []byte("FRM-HP"),
		"data/text/english.msg":    []byte("{100}{}{Hello}"),
	})
	saves := loader.NewMemory(nil)

	entries := append(source.Entries(), extra...)
	tree, err := assetfs.Mount(entries, assetfs.Options{
		Loader: source,
		Saver:  saves,
		Clock:  clock.Fake(testTimestamp),
	})
	if err != nil {
		t.Fatalf("assetfs.Mount: %v", err)
	}

	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(Options{Mountpoint: mountpoint, Tree: tree})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})

	return &testEnv{mountpoint: mountpoint, tree: tree, source: source, saves: saves}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.mountpoint, filepath.FromSlash(name))
}

func TestMountListsIndexWithoutLoading(t *testing.T) {
	env := testMount(t)

	entries, err := os.ReadDir(env.mountpoint)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if !slices.Equal(names, []string{"data", "fallout2.cfg"}) {
		t.Errorf("root entries = %v", names)
	}

	info, err := os.Stat(env.path("data/art/intrface/hp.frm"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 6 || !info.Mode().IsRegular() {
		t.Errorf("hp.frm: size %d mode %v", info.Size(), info.Mode())
	}
	if !info.ModTime().Equal(testTimestamp) {
		t.Errorf("hp.frm mtime = %v, want %v", info.ModTime(), testTimestamp)
	}
	if loads := env.source.Loads("data/art/intrface/hp.frm"); loads != 0 {
		t.Errorf("stat loaded the file %d times", loads)
	}
}

func TestMountReadLoadsOnce(t *testing.T) {
	env := testMount(t)

	for range 3 {
		got, err := os.ReadFile(env.path("data/text/english.msg"))
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(got) != "{100}{}{Hello}" {
			t.Fatalf("ReadFile = %q", got)
		}
	}
	if loads := env.source.Loads("data/text/english.msg"); loads != 1 {
		t.Errorf("loads = %d, want 1 (eviction window never elapsed)", loads)
	}
}

func TestMountCreateWriteFsync(t *testing.T) {
	env := testMount(t)

	file, err := os.Create(env.path("data/SAVEGAME.DAT"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := file.WriteString("slot 1"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := file.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	saved, ok := env.saves.Content("data/SAVEGAME.DAT")
	if !ok || string(saved) != "slot 1" {
		t.Errorf("saved = %q, %v", saved, ok)
	}
	node, err := env.tree.Resolve("data/SAVEGAME.DAT")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if node.State() != assetfs.StateMemoryBacked {
		t.Errorf("state = %v, want memory-backed", node.State())
	}
}

func TestMountOverwriteRemoteFile(t *testing.T) {
	env := testMount(t)

	if err := os.WriteFile(env.path("fallout2.cfg"), []byte("[sound]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(env.path("fallout2.cfg"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "[sound]\n" {
		t.Errorf("content = %q", got)
	}
	if err := env.tree.Sync(t.Context()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if saved, _ := env.saves.Content("fallout2.cfg"); string(saved) != "[sound]\n" {
		t.Errorf("saved = %q", saved)
	}
}

func TestMountTruncateUnloadedKeepsPrefix(t *testing.T) {
	env := testMount(t)

	if err := os.Truncate(env.path("data/art/intrface/hp.frm"), 3); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	got, err := os.ReadFile(env.path("data/art/intrface/hp.frm"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "FRM" {
		t.Errorf("content = %q, want FRM", got)
	}
}

func TestMountNamespaceChanges(t *testing.T) {
	env := testMount(t)

	if err := os.Mkdir(env.path("data/maps"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(env.path("data/maps/temple.map"), []byte("MAP"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Remove(env.path("data/maps/temple.map")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(env.path("data/maps/temple.map")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stat after remove: %v", err)
	}

	refused := map[string]error{
		"rename":  os.Rename(env.path("fallout2.cfg"), env.path("f2.cfg")),
		"rmdir":   os.Remove(env.path("data/maps")),
		"symlink": os.Symlink("fallout2.cfg", env.path("link.cfg")),
		"link":    os.Link(env.path("fallout2.cfg"), env.path("hard.cfg")),
	}
	for operation, err := range refused {
		if !errors.Is(err, syscall.EPERM) {
			t.Errorf("%s: error = %v, want EPERM", operation, err)
		}
	}
}

func TestMountMissingUpstreamIsIOError(t *testing.T) {
	env := testMount(t, assetfs.IndexEntry{Path: "data/sound/missing.acm", Size: 10})

	_, err := os.ReadFile(env.path("data/sound/missing.acm"))
	if !errors.Is(err, syscall.EIO) {
		t.Fatalf("ReadFile error = %v, want EIO", err)
	}
}
