// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/assetfs/lib/clock"
)

// DefaultEvictionDelay is how long a cached file must stay unopened
// before its buffer is discarded.
const DefaultEvictionDelay = time.Second

// Loader fetches the whole content of one file. The returned slice
// must be exactly expectedSize bytes long; anything else is treated as
// an integrity failure. The Tree takes ownership of the slice.
type Loader interface {
	LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error)
}

// Saver persists the content of one file. data is a private copy the
// Saver may keep.
type Saver interface {
	SaveFile(ctx context.Context, path string, data []byte) error
}

// Options configures a Tree.
type Options struct {
	// Loader fetches remote-backed file content on first open. A tree
	// without a Loader can only serve files whose content is already
	// present (inline index content, local mounts, created files).
	Loader Loader

	// Saver receives memory-backed files from Sync and SaveFile. Nil
	// makes both no-ops.
	Saver Saver

	// Clock drives eviction timers and timestamps. Nil uses
	// clock.Real().
	Clock clock.Clock

	// EvictionDelay is the quiescence window after the last close of
	// a cached file. Zero uses DefaultEvictionDelay; a negative value
	// disables eviction.
	EvictionDelay time.Duration

	// Pinned lists paths whose cached buffers are never evicted.
	Pinned []string

	// Local makes every file created by Mount memory-backed: the
	// index content (or zeros, when an entry has none) is the only
	// copy. Use it for fully local mounts with no remote source.
	Local bool

	// Logger receives diagnostic messages. Nil logs errors to stderr.
	Logger *slog.Logger
}

// Tree is one mounted filesystem: the node namespace plus the loader,
// saver, and eviction policy shared by every node in it.
type Tree struct {
	mu sync.Mutex

	loader        Loader
	saver         Saver
	clock         clock.Clock
	evictionDelay time.Duration
	pinned        map[string]bool
	local         bool
	logger        *slog.Logger

	nodes  map[NodeID]*Node
	nextID NodeID
	root   *Node
}

// New returns a Tree containing only an empty root directory.
func New(options Options) *Tree {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.EvictionDelay == 0 {
		options.EvictionDelay = DefaultEvictionDelay
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	tree := &Tree{
		loader:        options.Loader,
		saver:         options.Saver,
		clock:         options.Clock,
		evictionDelay: options.EvictionDelay,
		pinned:        make(map[string]bool),
		local:         options.Local,
		logger:        options.Logger,
		nodes:         make(map[NodeID]*Node),
	}
	for _, path := range options.Pinned {
		if segments, err := splitPath(path); err == nil {
			tree.pinned[strings.Join(segments, "/")] = true
		} else {
			tree.logger.Warn("ignoring invalid pinned path", "path", path, "error", err)
		}
	}

	tree.mu.Lock()
	tree.root = tree.newNodeLocked(nil, "/", DirMode)
	tree.mu.Unlock()
	return tree
}

// Root returns the root directory.
func (t *Tree) Root() *Node { return t.root }

// Resolve returns the node at a slash-separated path relative to the
// root. "" and "." resolve to the root.
func (t *Tree) Resolve(path string) (*Node, error) {
	segments, err := splitPath(path)
	if err != nil && path != "" && path != "." {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.root
	for _, segment := range segments {
		if !current.IsDir() {
			return nil, fmt.Errorf("resolving %s: %w", path, ErrNotDir)
		}
		child, ok := current.children[segment]
		if !ok {
			return nil, fmt.Errorf("resolving %s: %w", path, ErrNotFound)
		}
		current = child
	}
	return current, nil
}

// Children returns the children of a directory sorted by name.
func (t *Tree) Children(dir *Node) ([]*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !dir.IsDir() {
		return nil, ErrNotDir
	}
	return sortedChildren(dir), nil
}

// WalkFunc is called by Walk for every node. path is relative to the
// root ("" for the root itself).
type WalkFunc func(path string, node *Node) error

// Walk visits every attached node depth-first in name order, starting
// with the root. The node list is captured before fn is called, so fn
// may call back into the Tree. Walk stops at the first error.
func (t *Tree) Walk(fn WalkFunc) error {
	type visit struct {
		path string
		node *Node
	}

	t.mu.Lock()
	var visits []visit
	var collect func(prefix string, node *Node)
	collect = func(path string, node *Node) {
		visits = append(visits, visit{path: path, node: node})
		if !node.IsDir() {
			return
		}
		for _, child := range sortedChildren(node) {
			childPath := child.name
			if path != "" {
				childPath = path + "/" + child.name
			}
			collect(childPath, child)
		}
	}
	collect("", t.root)
	t.mu.Unlock()

	for _, v := range visits {
		if err := fn(v.path, v.node); err != nil {
			return err
		}
	}
	return nil
}

// Stats is a point-in-time summary of a Tree.
type Stats struct {
	Directories int
	Files       int

	// LoadedFiles counts files with a buffer present; LoadedBytes is
	// the sum of their sizes.
	LoadedFiles int
	LoadedBytes int64

	MemoryBackedFiles int
	OpenFiles         int
	PendingEvictions  int
}

// Stats returns counters over every attached node.
func (t *Tree) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var stats Stats
	for _, node := range t.nodes {
		if node.IsDir() {
			stats.Directories++
			continue
		}
		stats.Files++
		if node.loaded {
			stats.LoadedFiles++
			stats.LoadedBytes += int64(len(node.buffer))
		}
		if node.memoryBacked {
			stats.MemoryBackedFiles++
		}
		if node.refs > 0 {
			stats.OpenFiles++
		}
		if node.evictTimer != nil {
			stats.PendingEvictions++
		}
	}
	return stats
}

// newNodeLocked allocates a node and registers it under parent. A nil
// parent creates the root.
func (t *Tree) newNodeLocked(parent *Node, name string, mode uint32) *Node {
	t.nextID++
	node := &Node{
		tree:      t,
		id:        t.nextID,
		name:      name,
		mode:      mode,
		timestamp: t.clock.Now(),
	}
	if mode&ModeTypeMask == ModeDir {
		node.children = make(map[string]*Node)
		node.size = BlockSize
	}
	if parent != nil {
		node.parent = parent.id
		parent.children[name] = node
	}
	t.nodes[node.id] = node
	return node
}

// pathLocked walks parent ids up to the root.
func (t *Tree) pathLocked(node *Node) (string, error) {
	if node.detached {
		return "", fmt.Errorf("node %d (%s) was removed: %w", node.id, node.name, ErrNotFound)
	}
	var segments []string
	for current := node; current.parent != 0; {
		segments = append(segments, current.name)
		parent, ok := t.nodes[current.parent]
		if !ok {
			return "", fmt.Errorf("node %d has no parent %d: %w", current.id, current.parent, ErrNotFound)
		}
		current = parent
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/"), nil
}

func sortedChildren(dir *Node) []*Node {
	children := make([]*Node, 0, len(dir.children))
	for _, child := range dir.children {
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].name < children[j].name })
	return children
}

// splitPath validates a slash-separated relative path and returns its
// segments. A leading "./" is accepted and dropped.
func splitPath(path string) ([]string, error) {
	path = strings.TrimPrefix(path, "./")
	if path == "" {
		return nil, fmt.Errorf("empty path: %w", ErrInvalid)
	}
	if strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("absolute path %q: %w", path, ErrInvalid)
	}
	segments := strings.Split(path, "/")
	for _, segment := range segments {
		if err := validateName(segment); err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
	}
	return segments, nil
}

// validateName checks a single path segment.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name: %w", ErrInvalid)
	case name == "." || name == "..":
		return fmt.Errorf("reserved name %q: %w", name, ErrInvalid)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("name %q contains a separator or NUL: %w", name, ErrInvalid)
	}
	return nil
}
