// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads assetfs daemon configuration.
//
// Configuration comes from a single file named by the ASSETFS_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no discovery and no fallback search path.
//
// Files ending in .json or .jsonc are parsed as JSON with comments and
// trailing commas; anything else is YAML. Both formats share the same
// field names.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Source, Cache, Save, Mount, Log
//   - [Default] -- returns a Config with defaults for every optional field
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other assetfs packages.
package config
