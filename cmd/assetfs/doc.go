// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Assetfs mounts a game asset tree described by an index file and
// fetches each file from a web server or local directory the first
// time it is opened.
//
// Usage:
//
//	assetfs mount  [--config path] [--mountpoint dir]
//	assetfs ls     [--config path] [--long] [path]
//	assetfs cat    [--config path] [--offset n] <path>
//	assetfs verify --index file --dir dir [--digest alg] [--encoding enc]
//	assetfs version
//
// The config file is named by --config or the ASSETFS_CONFIG
// environment variable. See package config for its format.
//
// mount serves the tree over FUSE until SIGINT or SIGTERM. Files the
// game creates or modifies are kept in memory and written to the
// configured save store every save.interval and on unmount; they are
// restored into the tree on the next start.
package main
