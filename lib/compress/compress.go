// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress decodes asset files that are stored or served in
// compressed form. Each file is compressed individually and carries
// the encoding's suffix: "maps/arroyo.map" is published as
// "maps/arroyo.map.gz" under EncodingGzip.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Encoding identifies how stored files are compressed.
type Encoding uint8

const (
	// EncodingNone stores files as-is.
	EncodingNone Encoding = iota

	// EncodingGzip is gzip, the format the asset pipeline publishes
	// by default.
	EncodingGzip

	// EncodingZstd is a zstd frame per file.
	EncodingZstd

	// EncodingLZ4 is an LZ4 frame per file.
	EncodingLZ4
)

// String returns the configuration name of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingNone:
		return "none"
	case EncodingGzip:
		return "gzip"
	case EncodingZstd:
		return "zstd"
	case EncodingLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// ParseEncoding parses a configuration name. The empty string means
// EncodingNone.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "", "none":
		return EncodingNone, nil
	case "gzip", "gz":
		return EncodingGzip, nil
	case "zstd", "zst":
		return EncodingZstd, nil
	case "lz4":
		return EncodingLZ4, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q (want none, gzip, zstd, or lz4)", name)
	}
}

// Suffix is appended to a file's path to name its stored form.
func (e Encoding) Suffix() string {
	switch e {
	case EncodingGzip:
		return ".gz"
	case EncodingZstd:
		return ".zst"
	case EncodingLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// NewReader returns a reader producing the decoded content of r. The
// caller must Close it; closing does not close r.
func (e Encoding) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch e {
	case EncodingNone:
		return io.NopCloser(r), nil
	case EncodingGzip:
		reader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		return reader, nil
	case EncodingZstd:
		decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), nil
	case EncodingLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown encoding %d", e)
	}
}

// Decode decodes a whole stored file. sizeHint, when positive,
// preallocates the output.
func (e Encoding) Decode(data []byte, sizeHint int64) ([]byte, error) {
	if e == EncodingNone {
		return data, nil
	}
	reader, err := e.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var out bytes.Buffer
	if sizeHint > 0 {
		out.Grow(int(sizeHint))
	}
	if _, err := io.Copy(&out, reader); err != nil {
		return nil, fmt.Errorf("%s decode: %w", e, err)
	}
	return out.Bytes(), nil
}

// Encode compresses data. The asset pipeline uses it to publish
// files and tests use it to build fixtures.
func (e Encoding) Encode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	switch e {
	case EncodingNone:
		return data, nil
	case EncodingGzip:
		writer, err := gzip.NewWriterLevel(&out, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("gzip encode: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("gzip encode: %w", err)
		}
	case EncodingZstd:
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	case EncodingLZ4:
		writer := lz4.NewWriter(&out)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 encode: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown encoding %d", e)
	}
	return out.Bytes(), nil
}
