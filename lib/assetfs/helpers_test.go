// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/assetfs/lib/clock"
	"github.com/bureau-foundation/assetfs/lib/testutil"
)

// testEpoch is the fake clock's starting time.
var testEpoch = time.Unix(1735689600, 0) // 2025-01-01T00:00:00Z

// stubLoader serves files from a map and counts calls per path. When
// gate is non-nil every LoadFile blocks until it is closed; started
// receives the path of each call before it blocks.
type stubLoader struct {
	mu      sync.Mutex
	files   map[string][]byte
	calls   map[string]int
	gate    chan struct{}
	started chan string
	err     error
}

func newStubLoader(files map[string]string) *stubLoader {
	loader := &stubLoader{
		files: make(map[string][]byte),
		calls: make(map[string]int),
	}
	for path, content := range files {
		loader.files[path] = []byte(content)
	}
	return loader
}

func (l *stubLoader) LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error) {
	l.mu.Lock()
	l.calls[path]++
	gate, started := l.gate, l.started
	l.mu.Unlock()

	if started != nil {
		started <- path
	}
	if gate != nil {
		<-gate
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	data, ok := l.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return bytes.Clone(data), nil
}

func (l *stubLoader) set(path, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[path] = []byte(content)
}

func (l *stubLoader) block() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate = make(chan struct{})
	l.started = make(chan string, 64)
}

func (l *stubLoader) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.gate)
}

func (l *stubLoader) callCount(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[path]
}

// testTree mounts one index entry per file in the loader, with sizes
// taken from the loader's content.
func testTree(t *testing.T, loader *stubLoader, modify func(*Options)) (*Tree, *clock.FakeClock) {
	t.Helper()

	fakeClock := clock.Fake(testEpoch)
	options := Options{
		Loader: loader,
		Clock:  fakeClock,
	}
	if modify != nil {
		modify(&options)
	}

	var entries []IndexEntry
	loader.mu.Lock()
	for path, content := range loader.files {
		entries = append(entries, IndexEntry{Path: path, Size: int64(len(content))})
	}
	loader.mu.Unlock()

	tree, err := Mount(entries, options)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return tree, fakeClock
}

func resolve(t *testing.T, tree *Tree, path string) *Node {
	t.Helper()
	node, err := tree.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", path, err)
	}
	return node
}

// open opens node and waits for the stream.
func open(t *testing.T, tree *Tree, node *Node) *Stream {
	t.Helper()
	future := tree.Open(context.Background(), node)
	testutil.RequireClosed(t, future.Done(), 5*time.Second, "opening %s", node.Name())
	stream, err := future.Wait(context.Background())
	if err != nil {
		t.Fatalf("Open(%s): %v", node.Name(), err)
	}
	return stream
}

// openErr opens node and waits for the error.
func openErr(t *testing.T, tree *Tree, node *Node) error {
	t.Helper()
	future := tree.Open(context.Background(), node)
	testutil.RequireClosed(t, future.Done(), 5*time.Second, "opening %s", node.Name())
	stream, err := future.Wait(context.Background())
	if err == nil {
		_ = stream.Close()
		t.Fatalf("Open(%s) succeeded, want error", node.Name())
	}
	return err
}

// readAll reads the whole file from position 0 through the tree.
func readAll(t *testing.T, tree *Tree, stream *Stream) string {
	t.Helper()
	buffer := make([]byte, stream.Node().Size()+16)
	n, err := tree.Read(stream, buffer, 0)
	if err != nil {
		t.Fatalf("Read(%s): %v", stream.Node().Name(), err)
	}
	return string(buffer[:n])
}

func closeStream(t *testing.T, stream *Stream) {
	t.Helper()
	if err := stream.Close(); err != nil {
		t.Fatalf("Close(%s): %v", stream.Node().Name(), err)
	}
}

// bufferAddress identifies the node's current buffer allocation.
func bufferAddress(tree *Tree, node *Node) *byte {
	tree.mu.Lock()
	defer tree.mu.Unlock()
	if len(node.buffer) == 0 {
		return nil
	}
	return &node.buffer[0]
}
