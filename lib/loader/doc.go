// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader provides the content sources behind an assetfs.Tree.
//
// Every type here implements assetfs.Loader, and the local ones also
// implement assetfs.Saver:
//
//   - [HTTP] fetches files from a web server that publishes them
//     under a base URL, optionally compressed, with retries.
//   - [Dir] reads files from a local directory and saves written
//     files back into it.
//   - [Memory] serves files from a map. Tests use it to count loads.
//
// Loaders compose by wrapping:
//
//   - [Verifying] checks each loaded file against the digest in the
//     index and reports mismatches as *assetfs.IntegrityError.
//   - [Dedup] collapses concurrent loads of one path into a single
//     fetch, for several trees that share one source.
//
// A typical chain is Dedup(Verifying(HTTP)). The tree itself
// checks the length of whatever the chain returns.
package loader
