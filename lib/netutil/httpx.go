// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers for content loaders.
//
// Response body reads are bounded so that a misbehaving server cannot
// exhaust memory: asset downloads are bounded by a caller-supplied
// limit derived from the index, error bodies by MaxErrorBodySize.
//
// [IsTransient] classifies failures that are worth retrying.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// MaxErrorBodySize bounds how much of an error response is kept for
// a diagnostic message.
const MaxErrorBodySize int64 = 4 << 10

// ErrBodyTooLarge is returned by ReadBody when the body exceeds the
// limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// ReadBody reads a response body of at most limit bytes. sizeHint,
// when positive, preallocates the result.
func ReadBody(body io.Reader, limit, sizeHint int64) ([]byte, error) {
	if sizeHint < 0 || sizeHint > limit {
		sizeHint = 0
	}
	buffer := make([]byte, 0, sizeHint+1)
	for {
		if int64(len(buffer)) > limit {
			return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
		}
		if len(buffer) == cap(buffer) {
			buffer = append(buffer, 0)[:len(buffer)]
		}
		n, err := body.Read(buffer[len(buffer):cap(buffer)])
		buffer = buffer[:len(buffer)+n]
		if errors.Is(err, io.EOF) {
			if int64(len(buffer)) > limit {
				return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
			}
			return buffer, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}
	}
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are ignored: a
// partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return string(data)
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// IsTransient reports whether a failed request may succeed if
// retried: server errors, 408 and 429 responses, timeouts, and
// connections reset or refused by the peer. Context cancellation is
// never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= 500 ||
			status.StatusCode == http.StatusRequestTimeout ||
			status.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ECONNRESET || errno == syscall.ECONNREFUSED || errno == syscall.EPIPE
	}
	return false
}
