// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used by assetfs.
//
// Two things in assetfs depend on time: the eviction window that
// reclaims idle cached buffers, and the backoff between HTTP loader
// retries. Both take a Clock instead of calling the time package, so
// tests can drive them with Fake and never sleep.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	tree, _ := assetfs.Mount(entries, assetfs.Options{Clock: c, ...})
//	// ... open and close a file ...
//	c.WaitForTimers(1)          // the eviction timer is armed
//	c.Advance(time.Second)      // fire it deterministically
//
// AfterFunc callbacks run synchronously inside Advance, so by the time
// Advance returns every expired callback has completed.
package clock
