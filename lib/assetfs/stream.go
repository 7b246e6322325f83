// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Stream is one open handle on a node with its own cursor. Many
// streams may share a node.
type Stream struct {
	tree     *Tree
	node     *Node
	position int64
	closed   bool
}

// OpenFuture is the pending result of Tree.Open.
type OpenFuture struct {
	done   chan struct{}
	stream *Stream
	err    error
}

// loadFuture is the single in-flight fetch of one node. Every Open
// that finds the node loading appends its OpenFuture to openers
// instead of starting another fetch.
type loadFuture struct {
	path     string
	expected int64
	openers  []*OpenFuture
}

func newOpenFuture() *OpenFuture {
	return &OpenFuture{done: make(chan struct{})}
}

func resolvedOpen(stream *Stream, err error) *OpenFuture {
	future := newOpenFuture()
	future.resolve(stream, err)
	return future
}

func (f *OpenFuture) resolve(stream *Stream, err error) {
	f.stream = stream
	f.err = err
	close(f.done)
}

// Done is closed once the open has succeeded or failed.
func (f *OpenFuture) Done() <-chan struct{} { return f.done }

// Wait blocks until the open completes and returns the stream.
//
// If ctx ends first, Wait returns ctx.Err(). The load itself keeps
// running for any other openers; if it later succeeds, the stream this
// future would have returned is closed so its reference is released.
func (f *OpenFuture) Wait(ctx context.Context) (*Stream, error) {
	select {
	case <-f.done:
		return f.stream, f.err
	case <-ctx.Done():
		go func() {
			<-f.done
			if f.stream != nil {
				_ = f.stream.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Open opens a stream on node.
//
// Directories and files whose buffer is present resolve immediately.
// Otherwise the file is fetched through the Loader; concurrent opens
// of the same node join the fetch already in flight, so the Loader is
// called once. A fetch that returns a different number of bytes than
// the node's size fails every joined opener with an *IntegrityError
// and leaves the node unloaded.
//
// Opening cancels any pending eviction of the node.
func (t *Tree) Open(ctx context.Context, node *Node) *OpenFuture {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.IsDir() {
		return resolvedOpen(t.newStreamLocked(node), nil)
	}

	t.cancelEvictionLocked(node)

	if node.loaded {
		node.refs++
		return resolvedOpen(t.newStreamLocked(node), nil)
	}

	future := newOpenFuture()
	if node.load != nil {
		node.load.openers = append(node.load.openers, future)
		return future
	}

	if t.loader == nil {
		return resolvedOpen(nil, fmt.Errorf("opening %s: %w", node.name, ErrNoLoader))
	}
	path, err := t.pathLocked(node)
	if err != nil {
		return resolvedOpen(nil, fmt.Errorf("opening %s: %w", node.name, err))
	}

	load := &loadFuture{
		path:     path,
		expected: node.size,
		openers:  []*OpenFuture{future},
	}
	node.load = load
	go t.runLoad(context.WithoutCancel(ctx), node, load)
	return future
}

// runLoad performs one fetch and settles every opener that joined it.
func (t *Tree) runLoad(ctx context.Context, node *Node, load *loadFuture) {
	t.logger.Debug("loading file", "path", load.path, "size", load.expected)

	data, err := t.loader.LoadFile(ctx, load.path, load.expected)
	if err == nil && int64(len(data)) != load.expected {
		err = &IntegrityError{
			Path:         load.path,
			ExpectedSize: load.expected,
			ActualSize:   int64(len(data)),
		}
	}

	t.mu.Lock()
	node.load = nil
	openers := load.openers

	var streams []*Stream
	switch {
	case node.loaded:
		// Truncated while the fetch was in flight. The truncated
		// buffer is authoritative and the fetched bytes are dropped.
		err = nil
	case err == nil:
		node.setBufferLocked(data)
	}
	if err == nil {
		node.refs += len(openers)
		for range openers {
			streams = append(streams, t.newStreamLocked(node))
		}
	}
	t.mu.Unlock()

	if err != nil {
		var integrity *IntegrityError
		if errors.As(err, &integrity) {
			t.logger.Error("content integrity failure",
				"path", load.path,
				"error", err,
			)
		} else {
			t.logger.Warn("file load failed", "path", load.path, "error", err)
		}
		err = fmt.Errorf("loading %s: %w", load.path, err)
		for _, opener := range openers {
			opener.resolve(nil, err)
		}
		return
	}

	t.logger.Debug("file loaded", "path", load.path, "openers", len(openers))
	for i, opener := range openers {
		opener.resolve(streams[i], nil)
	}
}

func (t *Tree) newStreamLocked(node *Node) *Stream {
	return &Stream{tree: t, node: node}
}

// Close releases a stream. When the last stream on a cached,
// remote-backed file closes, eviction of its buffer is scheduled.
func (t *Tree) Close(stream *Stream) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stream.closed {
		return ErrClosed
	}
	stream.closed = true

	node := stream.node
	if node.IsDir() {
		return nil
	}
	if node.refs > 0 {
		node.refs--
	}
	if node.memoryBacked || node.refs > 0 {
		return nil
	}
	if path, err := t.pathLocked(node); err == nil && t.pinned[path] {
		return nil
	}
	t.armEvictionLocked(node)
	return nil
}

// Read copies content starting at position into p and returns the
// number of bytes copied: min(len(p), size-position), or 0 at or past
// the end of the file.
func (t *Tree) Read(stream *Stream, p []byte, position int64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, err := t.fileForIOLocked(stream, position)
	if err != nil {
		return 0, err
	}
	if position >= int64(len(node.buffer)) {
		return 0, nil
	}
	return copy(p, node.buffer[position:]), nil
}

// Write copies p into the file at position, growing the file with
// zeros if position is past the end. The first write makes the file
// memory-backed. Writes are never partial: one that would end past
// MaxFileSize returns ErrTooLarge and leaves the file untouched.
func (t *Tree) Write(stream *Stream, p []byte, position int64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, err := t.fileForIOLocked(stream, position)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if position > MaxFileSize-int64(len(p)) {
		return 0, fmt.Errorf("writing %d bytes at %d to %s: %w", len(p), position, node.name, ErrTooLarge)
	}

	node.promoteLocked()
	if end := position + int64(len(p)); end > int64(len(node.buffer)) {
		node.resizeLocked(end)
	}
	copy(node.buffer[position:], p)
	node.timestamp = t.clock.Now()
	return len(p), nil
}

// Llseek moves the stream cursor. whence is io.SeekStart, io.SeekCurrent
// or io.SeekEnd (relative to the file size; directories have no end
// offset). A negative result fails with ErrInvalid and leaves the
// cursor unchanged.
func (t *Tree) Llseek(stream *Stream, offset int64, whence int) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stream.closed {
		return 0, ErrClosed
	}

	position := offset
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		position += stream.position
	case io.SeekEnd:
		if !stream.node.IsDir() {
			position += stream.node.size
		}
	default:
		return 0, fmt.Errorf("seek whence %d: %w", whence, ErrInvalid)
	}
	if position < 0 {
		return 0, fmt.Errorf("seek to %d: %w", position, ErrInvalid)
	}
	stream.position = position
	return position, nil
}

func (t *Tree) fileForIOLocked(stream *Stream, position int64) (*Node, error) {
	if stream.closed {
		return nil, ErrClosed
	}
	node := stream.node
	if node.IsDir() {
		return nil, fmt.Errorf("%s: %w", node.name, ErrIsDir)
	}
	if position < 0 {
		return nil, fmt.Errorf("position %d: %w", position, ErrInvalid)
	}
	if !node.loaded {
		return nil, fmt.Errorf("%s: %w", node.name, ErrNotLoaded)
	}
	return node, nil
}

// Node returns the node the stream is bound to.
func (s *Stream) Node() *Node { return s.node }

// Position returns the stream cursor.
func (s *Stream) Position() int64 {
	s.tree.mu.Lock()
	defer s.tree.mu.Unlock()
	return s.position
}

// Read reads at the cursor and advances it. It returns io.EOF once
// the cursor is at or past the end of the file.
func (s *Stream) Read(p []byte) (int, error) {
	position := s.Position()
	n, err := s.tree.Read(s, p, position)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	s.advance(n)
	return n, nil
}

// ReadAt reads at off without moving the cursor.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.tree.Read(s, p, off)
	if err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write writes at the cursor and advances it.
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.tree.Write(s, p, s.Position())
	s.advance(n)
	return n, err
}

// Seek is Llseek on this stream.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	return s.tree.Llseek(s, offset, whence)
}

// Close is Tree.Close on this stream.
func (s *Stream) Close() error {
	return s.tree.Close(s)
}

func (s *Stream) advance(n int) {
	s.tree.mu.Lock()
	s.position += int64(n)
	s.tree.mu.Unlock()
}

var (
	_ io.ReadWriteSeeker = (*Stream)(nil)
	_ io.ReaderAt        = (*Stream)(nil)
	_ io.Closer          = (*Stream)(nil)
)
