// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/assetfs/lib/clock"
	"github.com/bureau-foundation/assetfs/lib/compress"
	"github.com/bureau-foundation/assetfs/lib/netutil"
	"github.com/bureau-foundation/assetfs/lib/version"
)

// Retry defaults.
const (
	DefaultRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 30 * time.Second
)

// HTTPOptions configures an HTTP loader.
type HTTPOptions struct {
	// BaseURL is the URL the tree root is published at. A file at
	// "data/art/a.frm" is fetched from BaseURL + "/data/art/a.frm"
	// plus the encoding's suffix.
	BaseURL string

	// Encoding is how the server stores each file.
	Encoding compress.Encoding

	// Client performs requests. Nil uses a client with Timeout.
	Client *http.Client

	// Timeout bounds each request when Client is nil. Zero means no
	// timeout.
	Timeout time.Duration

	// Retries is how many times a transient failure is retried.
	Retries int

	// RetryBackoff is the wait before the first retry; it doubles on
	// each further retry. Zero uses DefaultRetryBackoff.
	RetryBackoff time.Duration

	// RateLimit caps requests per second across all files. Zero means
	// unlimited.
	RateLimit float64

	// Clock drives retry waits. Nil uses clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// HTTP fetches files from a web server.
type HTTP struct {
	base     *url.URL
	encoding compress.Encoding
	client   *http.Client
	retries  int
	backoff  time.Duration
	limiter  *rate.Limiter
	clock    clock.Clock
	logger   *slog.Logger
}

// NewHTTP validates options and returns an HTTP loader.
func NewHTTP(options HTTPOptions) (*HTTP, error) {
	base, err := url.Parse(options.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", options.BaseURL)
	}
	if options.Retries < 0 {
		return nil, fmt.Errorf("retries must be non-negative, got %d", options.Retries)
	}

	loader := &HTTP{
		base:     base,
		encoding: options.Encoding,
		client:   options.Client,
		retries:  options.Retries,
		backoff:  options.RetryBackoff,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		clock:    options.Clock,
		logger:   options.Logger,
	}
	if loader.client == nil {
		loader.client = &http.Client{Timeout: options.Timeout}
	}
	if loader.backoff <= 0 {
		loader.backoff = DefaultRetryBackoff
	}
	if options.RateLimit > 0 {
		loader.limiter = rate.NewLimiter(rate.Limit(options.RateLimit), max(1, int(options.RateLimit)))
	}
	if loader.clock == nil {
		loader.clock = clock.Real()
	}
	if loader.logger == nil {
		loader.logger = slog.New(slog.DiscardHandler)
	}
	return loader, nil
}

// URL returns the URL a tree path is fetched from.
func (h *HTTP) URL(path string) string {
	segments := strings.Split(path, "/")
	segments[len(segments)-1] += h.encoding.Suffix()
	return h.base.JoinPath(segments...).String()
}

// LoadFile fetches and decodes one file, retrying transient failures.
// A 404 is permanent and matches fs.ErrNotExist.
func (h *HTTP) LoadFile(ctx context.Context, path string, expectedSize int64) ([]byte, error) {
	target := h.URL(path)
	backoff := h.backoff

	for attempt := 0; ; attempt++ {
		data, err := h.fetch(ctx, target, path, expectedSize)
		if err == nil {
			if attempt > 0 {
				h.logger.Info("fetch succeeded after retry", "path", path, "attempts", attempt+1)
			}
			return data, nil
		}
		if attempt >= h.retries || !netutil.IsTransient(err) {
			return nil, err
		}

		h.logger.Warn("fetch failed, retrying",
			"path", path,
			"attempt", attempt+1,
			"error", err,
			"backoff", backoff,
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetching %s: %w", path, ctx.Err())
		case <-h.clock.After(backoff):
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

func (h *HTTP) fetch(ctx context.Context, target, path string, expectedSize int64) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	request.Header.Set("User-Agent", version.UserAgent())
	response, err := h.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		statusErr := &netutil.StatusError{
			URL:        target,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
		if response.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", statusErr, fs.ErrNotExist)
		}
		return nil, statusErr
	}

	data, err := decodeBounded(response.Body, h.encoding, path, expectedSize)
	if err != nil {
		return nil, fmt.Errorf("fetching %w", err)
	}
	return data, nil
}
