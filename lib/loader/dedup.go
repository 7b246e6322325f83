// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

// Dedup collapses concurrent loads of the same path and size into one
// call to the wrapped loader. A single Tree already fetches each node
// once; Dedup extends that across trees sharing one source.
type Dedup struct {
	next  assetfs.Loader
	group singleflight.Group
}

// NewDedup wraps next.
func NewDedup(next assetfs.Loader) *Dedup {
	return &Dedup{next: next}
}

// LoadFile joins an in-flight load of the same file or starts one.
// A caller whose ctx ends stops waiting; the shared fetch continues
// for the others.
func (d *Dedup) LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error) {
	key := strconv.FormatInt(expectedSize, 10) + ":" + path
	results := d.group.DoChan(key, func() (any, error) {
		return d.next.LoadFile(context.WithoutCancel(ctx), path, expectedSize)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		data, _ := result.Val.([]byte)
		if result.Shared {
			// Each tree takes ownership of what it is given.
			data = clone(data)
		}
		return data, nil
	}
}

var _ assetfs.Loader = (*Dedup)(nil)
