// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
	"github.com/bureau-foundation/assetfs/lib/assetindex"
	"github.com/bureau-foundation/assetfs/lib/clock"
	"github.com/bureau-foundation/assetfs/lib/compress"
	"github.com/bureau-foundation/assetfs/lib/config"
	"github.com/bureau-foundation/assetfs/lib/loader"
	"github.com/bureau-foundation/assetfs/lib/netutil"
	"github.com/bureau-foundation/assetfs/lib/snapshot"
	"github.com/bureau-foundation/assetfs/lib/version"
)

// maxIndexSize bounds an index fetched over HTTP.
const maxIndexSize int64 = 256 << 20

// saveStore is a Saver that can also put previously saved files back
// into a fresh tree.
type saveStore interface {
	assetfs.Saver
	RestoreInto(tree *assetfs.Tree) (int, error)
}

// buildTree assembles a Tree from a validated config: index, loader
// chain, save store, and any previously saved files.
func buildTree(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *slog.Logger) (*assetfs.Tree, *assetindex.Index, error) {
	durations, err := cfg.Durations()
	if err != nil {
		return nil, nil, err
	}
	encoding, err := compress.ParseEncoding(cfg.Source.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("source.encoding: %w", err)
	}
	algorithm, err := assetindex.ParseAlgorithm(cfg.Source.Digest)
	if err != nil {
		return nil, nil, fmt.Errorf("source.digest: %w", err)
	}

	index, err := loadIndex(ctx, cfg.Source.Index, durations.Timeout)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Source.Exclude) > 0 {
		before := index.Len()
		index = index.Exclude(cfg.Source.Exclude...)
		logger.Info("excluded index entries", "excluded", before-index.Len(), "prefixes", cfg.Source.Exclude)
	}

	var base assetfs.Loader
	if cfg.Source.URL != "" {
		base, err = loader.NewHTTP(loader.HTTPOptions{
			BaseURL:      cfg.Source.URL,
			Encoding:     encoding,
			Timeout:      durations.Timeout,
			Retries:      cfg.Source.Retries,
			RetryBackoff: durations.RetryBackoff,
			RateLimit:    cfg.Source.RateLimit,
			Clock:        clk,
			Logger:       logger,
		})
	} else {
		base, err = loader.NewDir(cfg.Source.Dir, encoding, logger)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating loader: %w", err)
	}

	store, err := openSaveStore(cfg.Save, logger)
	if err != nil {
		return nil, nil, err
	}
	options := assetfs.Options{
		Loader:        loader.NewDedup(loader.NewVerifying(base, index, algorithm, logger)),
		Clock:         clk,
		EvictionDelay: durations.Quiescence,
		Pinned:        cfg.Cache.Pinned,
		Logger:        logger,
	}
	if store != nil {
		options.Saver = store
	}

	tree, err := assetfs.Mount(index.Entries(), options)
	if err != nil {
		return nil, nil, fmt.Errorf("mounting index: %w", err)
	}

	if store != nil {
		restored, err := store.RestoreInto(tree)
		if err != nil {
			logger.Warn("some saved files could not be restored", "error", err)
		}
		if restored > 0 {
			logger.Info("restored saved files", "files", restored)
		}
	}
	return tree, index, nil
}

// openSaveStore returns the configured save store, or nil when saving
// is disabled.
func openSaveStore(save config.SaveConfig, logger *slog.Logger) (saveStore, error) {
	switch {
	case save.Snapshot != "":
		store, err := snapshot.Open(save.Snapshot, logger)
		if err != nil {
			return nil, fmt.Errorf("opening save snapshot: %w", err)
		}
		return store, nil
	case save.Dir != "":
		if err := os.MkdirAll(save.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating save directory: %w", err)
		}
		dir, err := loader.NewDir(save.Dir, compress.EncodingNone, logger)
		if err != nil {
			return nil, fmt.Errorf("opening save directory: %w", err)
		}
		return dir, nil
	}
	return nil, nil
}

// loadIndex reads the index from a local path or an http(s) URL. A
// ".gz" name is decompressed either way.
func loadIndex(ctx context.Context, location string, timeout time.Duration) (*assetindex.Index, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return assetindex.ParseFile(location)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("building index request: %w", err)
	}
	request.Header.Set("User-Agent", version.UserAgent())

	client := &http.Client{Timeout: timeout}
	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, &netutil.StatusError{
			URL:        location,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}

	var body io.Reader = io.LimitReader(response.Body, maxIndexSize+1)
	if strings.HasSuffix(request.URL.Path, ".gz") {
		decoded, err := compress.EncodingGzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", location, err)
		}
		defer decoded.Close()
		body = decoded
	}
	data, err := netutil.ReadBody(body, maxIndexSize, response.ContentLength)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", location, err)
	}

	index, err := assetindex.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", location, err)
	}
	return index, nil
}
