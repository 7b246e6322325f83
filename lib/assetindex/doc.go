// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetindex reads the file index that describes a published
// asset tree and verifies published trees against it.
//
// The index is a text file, usually named index.txt (or index.txt.gz),
// with one line per file:
//
//	<size> <hex digest> <path>
//
// size is the decoded content length in bytes, digest is the hex
// content digest (SHA-256 unless configured otherwise), and path is
// slash-separated relative to the tree root. Blank lines are ignored.
// The path runs to the end of the line and may contain spaces.
//
// [Index.Entries] converts an index to the input of assetfs.Mount.
// [VerifyDir] checks a directory of published files against an index.
package assetindex
