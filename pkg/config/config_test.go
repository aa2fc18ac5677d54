package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/navigate"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.Engine != pipeline.DefaultEngine {
		t.Errorf("Engine = %q, want %q", cfg.Layout.Engine, pipeline.DefaultEngine)
	}
	if cfg.Server.Cooldown.Duration != navigate.DefaultCooldown {
		t.Errorf("Cooldown = %v, want %v", cfg.Server.Cooldown, navigate.DefaultCooldown)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("Backend = %q, want %q", cfg.Cache.Backend, BackendFile)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[build]
expand = true
max_depth = 3
edge_type = "smoothstep"

[layout]
engine = "dot"
timeout = "2s"

[cache]
backend = "none"

[server]
addr = ":9090"
cooldown = "250ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Build.Expand || cfg.Build.MaxDepth != 3 || cfg.Build.EdgeType != "smoothstep" {
		t.Errorf("Build = %+v", cfg.Build)
	}
	if cfg.Build.Width != pipeline.DefaultWidth {
		t.Errorf("Width = %v, want default %v", cfg.Build.Width, pipeline.DefaultWidth)
	}
	if cfg.Layout.Engine != "dot" || cfg.Layout.Timeout.Duration != 2*time.Second {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.Cooldown.Duration != 250*time.Millisecond {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Registry.MongoCollection != DefaultMongoCollection {
		t.Errorf("MongoCollection = %q, want default", cfg.Registry.MongoCollection)
	}

	opts := cfg.PipelineOptions()
	if !opts.Expand || opts.MaxDepth != 3 || opts.Engine != "dot" || opts.LayoutTimeout != 2*time.Second {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should load defaults: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}

	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing path error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"syntax", "[build\nexpand = ", errors.ErrCodeInvalidFormat},
		{"unknown key", "[build]\ncolour = \"red\"", errors.ErrCodeInvalidOption},
		{"bad duration", "[layout]\ntimeout = \"soon\"", errors.ErrCodeInvalidFormat},
		{"bad engine", "[layout]\nengine = \"elk\"", errors.ErrCodeInvalidOption},
		{"bad backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidOption},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidOption},
		{"depth", "[build]\nmax_depth = 99", errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[layout]\nengine = \"dot\"\nnode_spacing = 80.0\n")
	setEnv(t, map[string]string{
		"GARDENFLOW_LAYOUT_ENGINE":        "tree",
		"GARDENFLOW_LAYOUT_LAYER_SPACING": "120",
		"GARDENFLOW_BUILD_EXPAND":         "true",
		"GARDENFLOW_BUILD_MAX_DEPTH":      "2",
		"GARDENFLOW_CACHE_BACKEND":        "redis",
		"GARDENFLOW_CACHE_REDIS_ADDR":     "redis://localhost:6379/0",
		"GARDENFLOW_SERVER_COOLDOWN":      "1s",
		"GARDENFLOW_REGISTRY_MONGO_DB":    "prod",
	})
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.Engine != "tree" {
		t.Errorf("env should override file: Engine = %q", cfg.Layout.Engine)
	}
	if cfg.Layout.NodeSpacing != 80 || cfg.Layout.LayerSpacing != 120 {
		t.Errorf("Layout spacing = %v/%v, want 80/120", cfg.Layout.NodeSpacing, cfg.Layout.LayerSpacing)
	}
	if !cfg.Build.Expand || cfg.Build.MaxDepth != 2 {
		t.Errorf("Build = %+v", cfg.Build)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "redis://localhost:6379/0" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Cooldown.Duration != time.Second {
		t.Errorf("Cooldown = %v, want 1s", cfg.Server.Cooldown)
	}
	if cfg.Registry.MongoDatabase != "prod" {
		t.Errorf("MongoDatabase = %q, want prod", cfg.Registry.MongoDatabase)
	}
}

func TestEnvOverridesKeepUnset(t *testing.T) {
	path := writeConfig(t, "[server]\naddr = \":9090\"\ncooldown = \"250ms\"\n")
	setEnv(t, map[string]string{"GARDENFLOW_CACHE_BACKEND": "none"})

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.Cooldown.Duration != 250*time.Millisecond {
		t.Errorf("Server = %+v, want file values", cfg.Server)
	}
	if cfg.Layout.Timeout.Duration != pipeline.DefaultLayoutTimeout {
		t.Errorf("Timeout = %v, want default %v", cfg.Layout.Timeout, pipeline.DefaultLayoutTimeout)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("Backend = %q, want %q", cfg.Cache.Backend, BackendNone)
	}
}

func TestEnvOverrideErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"GARDENFLOW_BUILD_EXPAND", "maybe"},
		{"GARDENFLOW_BUILD_MAX_DEPTH", "deep"},
		{"GARDENFLOW_BUILD_WIDTH", "wide"},
		{"GARDENFLOW_LAYOUT_TIMEOUT", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			if !errors.Is(err, errors.ErrCodeInvalidOption) {
				t.Errorf("%s=%q error = %v, want INVALID_OPTION", tt.key, tt.value, err)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/custom/config", "gardenflow", FileName); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	got, err = DefaultPath()
	if err != nil {
		t.Skip("no home directory")
	}
	if filepath.Base(filepath.Dir(got)) != "gardenflow" {
		t.Errorf("DefaultPath() = %q, want .../gardenflow/%s", got, FileName)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil || d.Duration != 90*time.Second {
		t.Errorf("UnmarshalText = %v, %v", d, err)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText = %q, want 1m30s", text)
	}
}
