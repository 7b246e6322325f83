// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/assetindex"
)

// Verifying checks every loaded file against the digest recorded in
// an index. Paths the index does not list (files created after
// mount and later saved to the source) pass through unchecked.
type Verifying struct {
	next      assetfs.Loader
	index     *assetindex.Index
	algorithm assetindex.Algorithm
	logger    *slog.Logger
}

// NewVerifying wraps next. With AlgorithmNone it still compares sizes
// against the index.
func NewVerifying(next assetfs.Loader, index *assetindex.Index, algorithm assetindex.Algorithm, logger *slog.Logger) *Verifying {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Verifying{next: next, index: index, algorithm: algorithm, logger: logger}
}

// LoadFile loads through the wrapped loader and verifies the result.
func (v *Verifying) LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error) {
	data, err := v.next.LoadFile(ctx, path, expectedSize)
	if err != nil {
		return nil, err
	}

	entry, ok := v.index.Lookup(path)
	if !ok {
		v.logger.Debug("no index entry, skipping verification", "path", path)
		return data, nil
	}
	if int64(len(data)) != entry.Size {
		return nil, &assetfs.IntegrityError{
			Path:         path,
			ExpectedSize: entry.Size,
			ActualSize:   int64(len(data)),
		}
	}
	if v.algorithm == assetindex.AlgorithmNone {
		return data, nil
	}
	if actual := v.algorithm.Sum(data); actual != entry.Digest {
		return nil, &assetfs.IntegrityError{
			Path:           path,
			ExpectedSize:   entry.Size,
			ActualSize:     int64(len(data)),
			Algorithm:      v.algorithm.String(),
			ExpectedDigest: entry.Digest,
			ActualDigest:   actual,
		}
	}
	return data, nil
}

var _ assetfs.Loader = (*Verifying)(nil)
