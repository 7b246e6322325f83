// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/compress"
	"github.com/bureau-foundation/assetfs/lib/netutil"
)

// Dir loads files from a local directory laid out like the mounted
// tree, each stored under its path plus the encoding's suffix. Saved
// files are written back with the same encoding so they load the
// same way.
type Dir struct {
	root     string
	encoding compress.Encoding
	logger   *slog.Logger
}

// NewDir returns a Dir rooted at root, which must be an existing
// directory.
func NewDir(root string, encoding compress.Encoding, logger *slog.Logger) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %s is not a directory", root)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dir{root: root, encoding: encoding, logger: logger}, nil
}

// Root returns the directory being served.
func (d *Dir) Root() string { return d.root }

// LoadFile reads and decodes one file. At most expectedSize+1 decoded
// bytes are read, so an oversized file fails the tree's length check
// instead of exhausting memory.
func (d *Dir) LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := d.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return decodeBounded(file, d.encoding, path, expectedSize)
}

// SaveFile encodes data and writes it atomically: temp file + rename.
func (d *Dir) SaveFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := d.resolve(path)
	if err != nil {
		return err
	}
	encoded, err := d.encoding.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	directory := filepath.Dir(name)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmpFile, err := os.CreateTemp(directory, ".save-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(encoded); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, name); err != nil {
		return fmt.Errorf("renaming %s: %w", path, err)
	}

	success = true
	d.logger.Debug("saved file", "path", path, "size", len(data), "stored", len(encoded))
	return nil
}

// RestoreInto applies every stored file to tree as a memory-backed
// file, the way a snapshot restores. Temp files left by an interrupted
// save are skipped. Files that cannot be restored are logged and
// reported together; the rest are still applied.
func (d *Dir) RestoreInto(tree *assetfs.Tree) (int, error) {
	suffix := d.encoding.Suffix()
	var errs []error
	restored := 0

	walkErr := filepath.WalkDir(d.root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".save-") || !strings.HasSuffix(name, suffix) {
			return nil
		}
		relative, err := filepath.Rel(d.root, strings.TrimSuffix(name, suffix))
		if err != nil {
			return err
		}
		path := filepath.ToSlash(relative)

		encoded, err := os.ReadFile(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
			return nil
		}
		data, err := d.encoding.Decode(encoded, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("decoding %s: %w", path, err))
			return nil
		}
		if data == nil {
			data = []byte{}
		}
		if _, err := tree.Restore(path, data); err != nil {
			d.logger.Warn("skipping saved file", "path", path, "error", err)
			errs = append(errs, err)
			return nil
		}
		restored++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return restored, errors.Join(errs...)
}

// resolve maps a tree path to its stored file, refusing anything that
// would land outside the root.
func (d *Dir) resolve(path string) (string, error) {
	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("path %q escapes the asset directory: %w", path, assetfs.ErrInvalid)
	}
	return filepath.Join(d.root, local) + d.encoding.Suffix(), nil
}

// decodeBounded decodes r and reads at most expectedSize+1 bytes.
func decodeBounded(r io.Reader, encoding compress.Encoding, path string, expectedSize int64) ([]byte, error) {
	decoded, err := encoding.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer decoded.Close()

	limit := expectedSize + 1
	data, err := netutil.ReadBody(io.LimitReader(decoded, limit), limit, expectedSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

var (
	_ assetfs.Loader = (*Dir)(nil)
	_ assetfs.Saver  = (*Dir)(nil)
)
