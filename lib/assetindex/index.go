// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetindex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/compress"
)

// FileName is the conventional name of the index inside the tree it
// describes. The index never lists itself as a mountable file.
const FileName = "index.txt"

// maxLineLength bounds one index line.
const maxLineLength = 64 * 1024

// Entry is one line of the index.
type Entry struct {
	Size   int64
	Digest string
	Path   string
}

// Index is a parsed index in file order.
type Index struct {
	entries []Entry
	byPath  map[string]int
}

// Parse reads an index. A malformed line fails the whole parse with
// its line number.
func Parse(r io.Reader) (*Index, error) {
	index := &Index{byPath: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineLength)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("index line %d: %w", lineNumber, err)
		}
		if previous, exists := index.byPath[entry.Path]; exists {
			return nil, fmt.Errorf("index line %d: %s already listed as entry %d", lineNumber, entry.Path, previous+1)
		}
		index.byPath[entry.Path] = len(index.entries)
		index.entries = append(index.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return index, nil
}

func parseLine(line string) (Entry, error) {
	sizeField, rest, ok := cutField(line)
	if !ok {
		return Entry{}, fmt.Errorf("missing digest and path in %q", line)
	}
	digestField, path, ok := cutField(rest)
	if !ok || path == "" {
		return Entry{}, fmt.Errorf("missing path in %q", line)
	}

	size, err := strconv.ParseInt(sizeField, 10, 64)
	if err != nil || size < 0 {
		return Entry{}, fmt.Errorf("invalid size %q", sizeField)
	}
	if len(digestField) != 64 || !isHex(digestField) {
		return Entry{}, fmt.Errorf("invalid digest %q (want 64 hex characters)", digestField)
	}
	return Entry{
		Size:   size,
		Digest: strings.ToLower(digestField),
		Path:   strings.TrimPrefix(path, "./"),
	}, nil
}

// cutField splits off the first whitespace-delimited field. The
// remainder keeps any internal spaces.
func cutField(s string) (field, rest string, ok bool) {
	s = strings.TrimLeft(s, " \t")
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, "", false
	}
	return s[:end], strings.TrimLeft(s[end:], " \t"), true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ParseFile reads an index from disk. A ".gz" name is decompressed.
func ParseFile(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		decoded, err := compress.EncodingGzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
		defer decoded.Close()
		reader = decoded
	}

	index, err := Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	return index, nil
}

// Len returns the number of entries.
func (x *Index) Len() int { return len(x.entries) }

// All returns the entries in file order.
func (x *Index) All() []Entry {
	return append([]Entry(nil), x.entries...)
}

// Lookup returns the entry for path.
func (x *Index) Lookup(path string) (Entry, bool) {
	i, ok := x.byPath[strings.TrimPrefix(path, "./")]
	if !ok {
		return Entry{}, false
	}
	return x.entries[i], true
}

// TotalSize returns the sum of all entry sizes.
func (x *Index) TotalSize() int64 {
	var total int64
	for _, entry := range x.entries {
		total += entry.Size
	}
	return total
}

// Exclude returns a copy of the index without entries at or under any
// of the given path prefixes. A prefix matches whole path segments:
// "data/art" excludes "data/art/x.frm" but not "data/artwork".
func (x *Index) Exclude(prefixes ...string) *Index {
	filtered := &Index{byPath: make(map[string]int)}
	for _, entry := range x.entries {
		if matchesAny(entry.Path, prefixes) {
			continue
		}
		filtered.byPath[entry.Path] = len(filtered.entries)
		filtered.entries = append(filtered.entries, entry)
	}
	return filtered
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.Trim(strings.TrimPrefix(prefix, "./"), "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Entries converts the index to assetfs mount input, omitting the
// index file itself.
func (x *Index) Entries() []assetfs.IndexEntry {
	entries := make([]assetfs.IndexEntry, 0, len(x.entries))
	for _, entry := range x.entries {
		if entry.Path == FileName {
			continue
		}
		entries = append(entries, assetfs.IndexEntry{Path: entry.Path, Size: entry.Size})
	}
	return entries
}

// Directories returns every directory implied by the entries, sorted.
func (x *Index) Directories() []string {
	seen := make(map[string]bool)
	for _, entry := range x.entries {
		for dir := entry.Path; ; {
			slash := strings.LastIndexByte(dir, '/')
			if slash < 0 {
				break
			}
			dir = dir[:slash]
			if seen[dir] {
				break
			}
			seen[dir] = true
		}
	}
	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// ErrNotListed is returned when a path has no index entry.
var ErrNotListed = errors.New("path not listed in index")
