package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })
}

func TestStringAndTemplate(t *testing.T) {
	stamp(t, "v0.3.1", "abc123", "2026-01-02T03:04:05Z")

	if got := String(); got != "version: v0.3.1\ncommit: abc123\nbuilt: 2026-01-02T03:04:05Z" {
		t.Errorf("String() = %q", got)
	}
	if got := Template(); got != "{{.Name}} v0.3.1\ncommit abc123, built 2026-01-02T03:04:05Z\n" {
		t.Errorf("Template() = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	stamp(t, "v0.3.1", "none", "unknown")
	if got := UserAgent(); !strings.HasPrefix(got, "popmap/v0.3.1 ") {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestFillFrom(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
		},
	}

	t.Run("unstamped", func(t *testing.T) {
		stamp(t, "dev", "none", "unknown")
		fillFrom(info)
		if Version != "v1.2.0" || Commit != "deadbeef" || Date != "2026-03-04T05:06:07Z" {
			t.Errorf("got %s %s %s", Version, Commit, Date)
		}
	})

	t.Run("ldflags win", func(t *testing.T) {
		stamp(t, "v9.9.9", "cafe", "today")
		fillFrom(info)
		if Version != "v9.9.9" || Commit != "cafe" || Date != "today" {
			t.Errorf("got %s %s %s", Version, Commit, Date)
		}
	})

	t.Run("devel main module", func(t *testing.T) {
		stamp(t, "dev", "none", "unknown")
		fillFrom(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		if Version != "dev" {
			t.Errorf("Version = %q, want dev", Version)
		}
	})
}
