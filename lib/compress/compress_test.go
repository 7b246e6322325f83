// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	original := []byte(strings.Repeat("[sound]\nmusic_volume=22118\n", 200))

	for _, encoding := range []Encoding{EncodingNone, EncodingGzip, EncodingZstd, EncodingLZ4} {
		t.Run(encoding.String(), func(t *testing.T) {
			encoded, err := encoding.Encode(original)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if encoding != EncodingNone && len(encoded) >= len(original) {
				t.Errorf("encoded %d bytes from %d, expected compression", len(encoded), len(original))
			}

			decoded, err := encoding.Decode(encoded, int64(len(original)))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(decoded, original) {
				t.Fatalf("Decode mismatch: %d bytes, want %d", len(decoded), len(original))
			}

			reader, err := encoding.NewReader(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			streamed, err := io.ReadAll(reader)
			reader.Close()
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(streamed, original) {
				t.Fatalf("streamed mismatch")
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, encoding := range []Encoding{EncodingGzip, EncodingZstd, EncodingLZ4} {
		encoded, err := encoding.Encode(nil)
		if err != nil {
			t.Fatalf("%s Encode: %v", encoding, err)
		}
		decoded, err := encoding.Decode(encoded, 0)
		if err != nil {
			t.Fatalf("%s Decode: %v", encoding, err)
		}
		if len(decoded) != 0 {
			t.Fatalf("%s decoded %d bytes", encoding, len(decoded))
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	for _, encoding := range []Encoding{EncodingGzip, EncodingZstd, EncodingLZ4} {
		if _, err := encoding.Decode([]byte("definitely not compressed"), 0); err == nil {
			t.Errorf("%s: Decode accepted garbage", encoding)
		}
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		name       string
		want       Encoding
		wantSuffix string
	}{
		{name: "", want: EncodingNone, wantSuffix: ""},
		{name: "none", want: EncodingNone, wantSuffix: ""},
		{name: "gzip", want: EncodingGzip, wantSuffix: ".gz"},
		{name: "gz", want: EncodingGzip, wantSuffix: ".gz"},
		{name: "zstd", want: EncodingZstd, wantSuffix: ".zst"},
		{name: "lz4", want: EncodingLZ4, wantSuffix: ".lz4"},
	}
	for _, test := range tests {
		got, err := ParseEncoding(test.name)
		if err != nil {
			t.Errorf("ParseEncoding(%q): %v", test.name, err)
			continue
		}
		if got != test.want || got.Suffix() != test.wantSuffix {
			t.Errorf("ParseEncoding(%q) = %v (%q), want %v (%q)", test.name, got, got.Suffix(), test.want, test.wantSuffix)
		}
	}
	if _, err := ParseEncoding("brotli"); err == nil {
		t.Errorf("ParseEncoding(brotli) succeeded")
	}
}
