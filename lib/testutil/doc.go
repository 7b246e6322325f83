// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the timeout safety valve
// (select with a time.After fallback) so that tests waiting on a
// goroutine never hang. They are the only place in the test suite
// that uses real wall-clock timeouts; everything else runs on
// clock.Fake. [RequirePending] is the inverse check for futures that
// must not have resolved yet.
//
// [WriteTree] populates a directory from a path-to-content map for
// loader and verifier tests.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
