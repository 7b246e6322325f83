// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"
)

func TestReadBody(t *testing.T) {
	t.Run("exact size", func(t *testing.T) {
		data, err := ReadBody(strings.NewReader("HELLO"), 5, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "HELLO" {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("no hint", func(t *testing.T) {
		data, err := ReadBody(bytes.NewReader(bytes.Repeat([]byte("x"), 10000)), 20000, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 10000 {
			t.Fatalf("got %d bytes", len(data))
		}
	})

	t.Run("empty body", func(t *testing.T) {
		data, err := ReadBody(bytes.NewReader(nil), 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 0 {
			t.Fatalf("expected empty, got %d bytes", len(data))
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadBody(strings.NewReader("HELLO!"), 5, 5)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("error = %v, want ErrBodyTooLarge", err)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		_, err := ReadBody(&failReader{}, 10, 0)
		if err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader("not found")); got != "not found" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("e", int(MaxErrorBodySize)+100)
	if got := ErrorBody(strings.NewReader(long)); int64(len(got)) != MaxErrorBodySize {
		t.Fatalf("got %d bytes, want %d", len(got), MaxErrorBodySize)
	}
	if got := ErrorBody(&failReader{}); got != "" {
		t.Fatalf("got %q from failing reader", got)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "500", err: &StatusError{StatusCode: 500}, want: true},
		{name: "503 wrapped", err: fmt.Errorf("loading: %w", &StatusError{StatusCode: 503}), want: true},
		{name: "429", err: &StatusError{StatusCode: 429}, want: true},
		{name: "404", err: &StatusError{StatusCode: 404}, want: false},
		{name: "403", err: &StatusError{StatusCode: 403}, want: false},
		{name: "unexpected EOF", err: io.ErrUnexpectedEOF, want: true},
		{name: "reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: true},
		{name: "refused", err: syscall.ECONNREFUSED, want: true},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "other", err: errors.New("bad digest"), want: false},
	}
	for _, test := range tests {
		if got := IsTransient(test.err); got != test.want {
			t.Errorf("%s: IsTransient = %v, want %v", test.name, got, test.want)
		}
	}
}

type failReader struct{}

func (f *failReader) Read([]byte) (int, error) {
	return 0, errors.New("simulated read failure")
}
