// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides shared scaffolding for long-running assetfs
// processes. Daemons compose these helpers in their own main() rather
// than subclassing a framework.
package service
