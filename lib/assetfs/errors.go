// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetfs

import (
	"errors"
	"fmt"
)

var (
	// ErrPermission is returned for operations this filesystem never
	// allows: rename, rmdir, symlink, link, creating device or FIFO
	// nodes, and unlinking directories.
	ErrPermission = errors.New("operation not permitted")

	// ErrNotFound is returned when a named entry does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrExists is returned when creating an entry whose name is taken.
	ErrExists = errors.New("file exists")

	// ErrNotDir is returned when a directory operation targets a file.
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir is returned when a file operation targets a directory.
	ErrIsDir = errors.New("is a directory")

	// ErrInvalid is returned for invalid arguments: negative seek
	// results and positions, malformed names and index paths.
	ErrInvalid = errors.New("invalid argument")

	// ErrIO is returned by Lookup. Children are registered when they
	// are created, so a lookup call means the caller is miswired.
	ErrIO = errors.New("input/output error")

	// ErrClosed is returned for operations on a closed Stream.
	ErrClosed = errors.New("stream is closed")

	// ErrNotLoaded is returned when an operation needs a file's
	// content but the file has no buffer. Non-zero truncation of a
	// remote-backed file that was never opened returns it; callers
	// open the file first.
	ErrNotLoaded = errors.New("file content not loaded")

	// ErrNoLoader is returned by Open when a file must be fetched but
	// the tree was mounted without a Loader.
	ErrNoLoader = errors.New("no content loader configured")

	// ErrTooLarge is returned when a write, truncate or index entry
	// would make a file larger than MaxFileSize.
	ErrTooLarge = errors.New("file too large")

	// ErrIntegrity is the sentinel matched by every *IntegrityError.
	ErrIntegrity = errors.New("content integrity failure")
)

// IntegrityError reports loaded content that does not match the
// index: a byte count different from the declared size, or (when the
// loader verifies digests) a different digest. The file stays
// unloaded; the next open fetches it again.
type IntegrityError struct {
	Path string

	ExpectedSize int64
	ActualSize   int64

	// Algorithm and the two digests are set only for digest
	// mismatches.
	Algorithm      string
	ExpectedDigest string
	ActualDigest   string
}

func (e *IntegrityError) Error() string {
	if e.ExpectedDigest != "" {
		return fmt.Sprintf("content integrity failure for %s: %s digest %s, expected %s",
			e.Path, e.Algorithm, e.ActualDigest, e.ExpectedDigest)
	}
	return fmt.Sprintf("content integrity failure for %s: got %d bytes, expected %d",
		e.Path, e.ActualSize, e.ExpectedSize)
}

// Unwrap lets errors.Is(err, ErrIntegrity) match.
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
