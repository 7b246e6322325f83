// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetindex

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/assetfs/lib/compress"
)

// ProblemKind classifies a verification failure.
type ProblemKind string

const (
	ProblemMissing    ProblemKind = "missing"
	ProblemSize       ProblemKind = "size"
	ProblemDigest     ProblemKind = "digest"
	ProblemUnreadable ProblemKind = "unreadable"
)

// Problem is one file that failed verification.
type Problem struct {
	Path   string
	Kind   ProblemKind
	Detail string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Path, p.Kind, p.Detail)
}

// Report is the result of VerifyDir.
type Report struct {
	// Checked counts entries examined, including failed ones.
	Checked int
	// Bytes is the total decoded size of files that were read.
	Bytes int64
	// Problems is sorted by path.
	Problems []Problem
}

// OK reports whether every entry verified.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// VerifyOptions configures VerifyDir.
type VerifyOptions struct {
	Algorithm Algorithm
	Encoding  compress.Encoding
	// Concurrency bounds the files hashed at once. Zero means 4.
	Concurrency int
}

// VerifyDir checks that every index entry exists under dir (as
// path+encoding suffix), decodes to the declared size, and matches
// the declared digest. Every entry is checked; problems are collected
// rather than returned as errors. The returned error is non-nil only
// if ctx ends before the check completes.
func VerifyDir(ctx context.Context, dir string, index *Index, options VerifyOptions) (Report, error) {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu     sync.Mutex
		report Report
	)
	record := func(bytes int64, problem *Problem) {
		mu.Lock()
		defer mu.Unlock()
		report.Checked++
		report.Bytes += bytes
		if problem != nil {
			report.Problems = append(report.Problems, *problem)
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for _, entry := range index.entries {
		if entry.Path == FileName {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			size, problem := verifyFile(dir, entry, options)
			record(size, problem)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	sort.Slice(report.Problems, func(i, j int) bool {
		return report.Problems[i].Path < report.Problems[j].Path
	})
	return report, nil
}

func verifyFile(dir string, entry Entry, options VerifyOptions) (int64, *Problem) {
	name := filepath.Join(dir, filepath.FromSlash(entry.Path)) + options.Encoding.Suffix()
	file, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, &Problem{Path: entry.Path, Kind: ProblemMissing, Detail: name}
	}
	if err != nil {
		return 0, &Problem{Path: entry.Path, Kind: ProblemUnreadable, Detail: err.Error()}
	}
	defer file.Close()

	reader, err := options.Encoding.NewReader(file)
	if err != nil {
		return 0, &Problem{Path: entry.Path, Kind: ProblemUnreadable, Detail: err.Error()}
	}
	defer reader.Close()

	var writer io.Writer = io.Discard
	digest := options.Algorithm.New()
	if digest != nil {
		writer = digest
	}
	size, err := io.Copy(writer, reader)
	if err != nil {
		return size, &Problem{Path: entry.Path, Kind: ProblemUnreadable, Detail: err.Error()}
	}
	if size != entry.Size {
		return size, &Problem{
			Path:   entry.Path,
			Kind:   ProblemSize,
			Detail: fmt.Sprintf("declared %d bytes, found %d", entry.Size, size),
		}
	}
	if digest != nil {
		if actual := hex.EncodeToString(digest.Sum(nil)); actual != entry.Digest {
			return size, &Problem{
				Path:   entry.Path,
				Kind:   ProblemDigest,
				Detail: fmt.Sprintf("declared %s, found %s", entry.Digest, actual),
			}
		}
	}
	return size, nil
}
