package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	unstamped := Info{Version: "dev", Commit: "none", Date: "unknown"}
	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abc123"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
	}

	tests := []struct {
		name    string
		stamped Info
		bi      *debug.BuildInfo
		want    Info
	}{
		{
			name:    "no build info",
			stamped: unstamped,
			want:    unstamped,
		},
		{
			name:    "module version and vcs",
			stamped: unstamped,
			bi:      &debug.BuildInfo{GoVersion: "go1.24.0", Main: debug.Module{Version: "v0.3.1"}, Settings: vcs},
			want:    Info{Version: "v0.3.1", Commit: "abc123", Date: "2026-01-02T03:04:05Z", GoVersion: "go1.24.0"},
		},
		{
			name:    "devel module keeps dev",
			stamped: unstamped,
			bi:      &debug.BuildInfo{GoVersion: "go1.24.0", Main: debug.Module{Version: "(devel)"}},
			want:    Info{Version: "dev", Commit: "none", Date: "unknown", GoVersion: "go1.24.0"},
		},
		{
			name:    "dirty checkout",
			stamped: unstamped,
			bi: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: []debug.BuildSetting{
				{Key: "vcs.modified", Value: "true"},
			}},
			want: Info{Version: "dev+dirty", Commit: "none", Date: "unknown"},
		},
		{
			name:    "ldflags win",
			stamped: Info{Version: "v1.0.0", Commit: "fff", Date: "2026-05-01"},
			bi:      &debug.BuildInfo{GoVersion: "go1.24.0", Main: debug.Module{Version: "v0.3.1"}, Settings: vcs},
			want:    Info{Version: "v1.0.0", Commit: "fff", Date: "2026-05-01", GoVersion: "go1.24.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(tt.stamped, tt.bi); got != tt.want {
				t.Errorf("resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTemplate(t *testing.T) {
	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} version ") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.Contains(got, "commit: ") || !strings.Contains(got, "built: ") {
		t.Errorf("Template() = %q lacks commit or date", got)
	}
}
