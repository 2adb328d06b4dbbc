package version

import (
	"runtime/debug"
	"testing"
)

func stubBuild(t *testing.T, version, commit string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origTime, origRead := Version, GitCommit, BuildTime, readBuildInfo
	t.Cleanup(func() {
		Version, GitCommit, BuildTime, readBuildInfo = origVersion, origCommit, origTime, origRead
	})
	Version, GitCommit, BuildTime = version, commit, ""
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGetFromVCS(t *testing.T) {
	stubBuild(t, "dev", "", &debug.BuildInfo{
		GoVersion: "go1.24.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2025-01-15T10:30:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := Get()
	if info.GitCommit != "0123456" {
		t.Errorf("expected short commit, got %q", info.GitCommit)
	}
	if !info.Dirty || info.GoVersion != "go1.24.0" || info.BuildTime != "2025-01-15T10:30:00Z" {
		t.Errorf("unexpected info: %+v", info)
	}
	if got := info.String(); got != "dev-0123456-dirty (built 2025-01-15T10:30:00Z)" {
		t.Errorf("String() = %q", got)
	}
}

func TestLinkTimeValuesWin(t *testing.T) {
	stubBuild(t, "1.2.0", "abc1234", &debug.BuildInfo{
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}},
	})
	if got := Get().String(); got != "1.2.0-abc1234" {
		t.Errorf("String() = %q", got)
	}
}

func TestNoBuildInfo(t *testing.T) {
	stubBuild(t, "dev", "", nil)
	if got := Get().String(); got != "dev" {
		t.Errorf("String() = %q", got)
	}
}
