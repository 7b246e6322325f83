// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetindex

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/assetfs/lib/compress"
)

const (
	digestA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	digestB = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"5 " + digestA + " ./fallout2.cfg",
		"",
		"5 " + strings.ToUpper(digestB) + " data/art/my file.frm\r",
		"   ",
		"0\t" + digestA + "\tdata/empty",
	}, "\n")

	index, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Entry{
		{Size: 5, Digest: digestA, Path: "fallout2.cfg"},
		{Size: 5, Digest: digestB, Path: "data/art/my file.frm"},
		{Size: 0, Digest: digestA, Path: "data/empty"},
	}
	if !slices.Equal(index.All(), want) {
		t.Fatalf("entries = %+v, want %+v", index.All(), want)
	}
	if entry, ok := index.Lookup("./data/empty"); !ok || entry.Size != 0 {
		t.Fatalf("Lookup = %+v, %v", entry, ok)
	}
	if _, ok := index.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) found an entry")
	}
	if total := index.TotalSize(); total != 10 {
		t.Fatalf("TotalSize = %d, want 10", total)
	}
	if dirs := index.Directories(); !slices.Equal(dirs, []string{"data", "data/art"}) {
		t.Fatalf("Directories = %v", dirs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine string
	}{
		{name: "size only", input: "12", wantLine: "line 1"},
		{name: "no path", input: "12 " + digestA, wantLine: "line 1"},
		{name: "bad size", input: "twelve " + digestA + " a", wantLine: "line 1"},
		{name: "negative size", input: "-1 " + digestA + " a", wantLine: "line 1"},
		{name: "short digest", input: "1 abc a", wantLine: "line 1"},
		{name: "non-hex digest", input: "1 " + strings.Repeat("z", 64) + " a", wantLine: "line 1"},
		{name: "duplicate", input: "1 " + digestA + " a\n\n1 " + digestA + " ./a", wantLine: "line 3"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(test.input))
			if err == nil {
				t.Fatalf("Parse succeeded")
			}
			if !strings.Contains(err.Error(), test.wantLine) {
				t.Fatalf("error %q does not name %s", err, test.wantLine)
			}
		})
	}
}

func TestParseFileGzip(t *testing.T) {
	content := "5 " + digestA + " a.txt\n" + "5 " + digestB + " index.txt\n"
	encoded, err := compress.EncodingGzip.Encode([]byte(content))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.txt.gz")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	index, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if index.Len() != 2 {
		t.Fatalf("Len = %d, want 2", index.Len())
	}
	entries := index.Entries()
	if len(entries) != 1 || entries[0].Path != "a.txt" || entries[0].Size != 5 || entries[0].Content != nil {
		t.Fatalf("Entries = %+v, want only a.txt", entries)
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("ParseFile succeeded on a missing file")
	}
}

func TestExclude(t *testing.T) {
	input := strings.Join([]string{
		"1 " + digestA + " data/art/a.frm",
		"1 " + digestA + " data/artwork/b.frm",
		"1 " + digestA + " data/sound/c.acm",
		"1 " + digestA + " fallout2.cfg",
	}, "\n")
	index, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	filtered := index.Exclude("./data/art/", "data/sound", "")
	var paths []string
	for _, entry := range filtered.All() {
		paths = append(paths, entry.Path)
	}
	if !slices.Equal(paths, []string{"data/artwork/b.frm", "fallout2.cfg"}) {
		t.Fatalf("Exclude kept %v", paths)
	}
	if _, ok := filtered.Lookup("data/sound/c.acm"); ok {
		t.Fatalf("excluded entry still found by Lookup")
	}
	if index.Len() != 4 {
		t.Fatalf("Exclude modified the original index")
	}
}

func TestAlgorithms(t *testing.T) {
	if got := AlgorithmSHA256.Sum([]byte("hello")); got != digestA {
		t.Fatalf("sha256(hello) = %s", got)
	}
	blake := AlgorithmBLAKE3.Sum([]byte("hello"))
	if len(blake) != 64 || blake == digestA {
		t.Fatalf("blake3(hello) = %s", blake)
	}
	streamed := AlgorithmBLAKE3.New()
	streamed.Write([]byte("hel"))
	streamed.Write([]byte("lo"))
	if got := strings.ToLower(hexString(streamed.Sum(nil))); got != blake {
		t.Fatalf("streamed blake3 = %s, want %s", got, blake)
	}
	if AlgorithmNone.New() != nil || AlgorithmNone.Sum([]byte("x")) != "" {
		t.Fatalf("AlgorithmNone produced a digest")
	}

	for _, name := range []string{"", "sha256", "blake3", "none"} {
		if _, err := ParseAlgorithm(name); err != nil {
			t.Errorf("ParseAlgorithm(%q): %v", name, err)
		}
	}
	if _, err := ParseAlgorithm("md5"); err == nil {
		t.Errorf("ParseAlgorithm(md5) succeeded")
	}
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0xf])
	}
	return string(out)
}
