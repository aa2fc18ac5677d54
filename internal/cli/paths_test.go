package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/gardenflow/pkg/garden"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".cache", appName)
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	want := filepath.Join(custom, appName)
	if dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input string
		name  string
		want  string
	}{
		{"gardens/omni.yaml", "Omni", "omni"},
		{"omni.v2.json", "Omni", "omni.v2"},
		{"-", "Omni Platform", "omni-platform"},
		{"https://example.com/x.json", "Labs/Beta", "labs-beta"},
		{"-", "  ", "garden"},
	}
	for _, tt := range tests {
		g := &garden.Garden{Name: tt.name}
		if got := outputBase(tt.input, g); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.input, tt.name, got, tt.want)
		}
	}
}
