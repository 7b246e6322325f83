// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	savedCommit, savedDirty, savedTime := GitCommit, GitDirty, BuildTime
	t.Cleanup(func() { GitCommit, GitDirty, BuildTime = savedCommit, savedDirty, savedTime })

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-03-01T00:00:00Z"
	want := Version + " (abc1234-dirty, 2026-03-01T00:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	if strings.Contains(Info(), "dirty") {
		t.Errorf("Info() = %q, clean build marked dirty", Info())
	}
	if !strings.Contains(Full(), runtime.Version()) {
		t.Errorf("Full() = %q, missing Go version", Full())
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "assetfs/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
