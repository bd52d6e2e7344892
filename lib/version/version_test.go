// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

// setBuildInfo swaps the ldflags-injected variables for the test and
// restores them afterwards. These are package globals, so tests using
// this helper must not run in parallel.
func setBuildInfo(t *testing.T, commit, dirty, buildTime, release string) {
	t.Helper()
	oldCommit, oldDirty, oldTime, oldVersion := GitCommit, GitDirty, BuildTime, Version
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = oldCommit, oldDirty, oldTime, oldVersion
	})
	GitCommit, GitDirty, BuildTime, Version = commit, dirty, buildTime, release
}

func TestInfoFormatsCleanBuild(t *testing.T) {
	setBuildInfo(t, "abc1234", "false", "2026-08-25T10:00:00Z", "1.2.3")
	got := Info()
	want := "1.2.3 (abc1234, 2026-08-25T10:00:00Z)"
	if got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestInfoMarksDirtyBuild(t *testing.T) {
	setBuildInfo(t, "abc1234", "true", "2026-08-25T10:00:00Z", "1.2.3")
	got := Info()
	want := "1.2.3 (abc1234-dirty, 2026-08-25T10:00:00Z)"
	if got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestShortIsJustTheVersion(t *testing.T) {
	setBuildInfo(t, "abc1234", "false", "now", "9.9.9")
	if got := Short(); got != "9.9.9" {
		t.Errorf("Short() = %q, want 9.9.9", got)
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	setBuildInfo(t, "abc1234", "false", "now", "1.0.0")
	got := Full()
	if !strings.Contains(got, runtime.Version()) {
		t.Errorf("Full() = %q, missing Go version", got)
	}
	if !strings.Contains(got, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, missing platform", got)
	}
}
