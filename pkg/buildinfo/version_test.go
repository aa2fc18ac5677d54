package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	stamped := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	tests := []struct {
		name                string
		info                *debug.BuildInfo
		in                  [3]string
		version, commit, at string
	}{
		{"defaults filled", stamped, [3]string{"dev", "none", "unknown"}, "v0.3.1", "abc123", "2026-01-02T03:04:05Z"},
		{"ldflags win", stamped, [3]string{"v1.0.0", "fff", "today"}, "v1.0.0", "fff", "today"},
		{"devel build", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, [3]string{"dev", "none", "unknown"}, "dev", "none", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c, d := resolve(tt.info, tt.in[0], tt.in[1], tt.in[2])
			if v != tt.version || c != tt.commit || d != tt.at {
				t.Errorf("resolve() = %q, %q, %q; want %q, %q, %q", v, c, d, tt.version, tt.commit, tt.at)
			}
		})
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(String(), "commit: "+Commit) {
		t.Errorf("String() = %q", String())
	}
}
