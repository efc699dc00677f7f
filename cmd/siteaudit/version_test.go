package main

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolveBuild(t *testing.T) {
	t.Parallel()

	vcs := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	tests := []struct {
		name   string
		linked buildInfo
		info   *debug.BuildInfo
		want   buildInfo
	}{
		{
			name: "no build info",
			want: buildInfo{Version: "(devel)", Commit: "unknown", Date: "unknown"},
		},
		{
			name: "module and vcs metadata",
			info: vcs,
			want: buildInfo{Version: "v1.2.0", Commit: "0123456", Date: "2026-01-02T03:04:05Z"},
		},
		{
			name:   "linker values win",
			linked: buildInfo{Version: "v9.9.9", Commit: "abc"},
			info:   vcs,
			want:   buildInfo{Version: "v9.9.9", Commit: "abc", Date: "2026-01-02T03:04:05Z"},
		},
		{
			name: "short revision kept whole",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc12"}}},
			want: buildInfo{Version: "(devel)", Commit: "abc12", Date: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolveBuild(tt.linked, tt.info); got != tt.want {
				t.Errorf("resolveBuild() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := currentBuild()
	want := "siteaudit version " + b.Version + "\n  commit: " + b.Commit
	if !strings.HasPrefix(buf.String(), want) {
		t.Errorf("output %q does not start with %q", buf.String(), want)
	}
	if !strings.Contains(buf.String(), "built:  "+b.Date) {
		t.Errorf("output %q lacks the build date", buf.String())
	}
}
