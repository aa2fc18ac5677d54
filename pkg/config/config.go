// Package config loads gardenflow settings from a TOML file and the
// environment.
//
// Settings are resolved in order of increasing precedence: built-in defaults
// (the pipeline and navigate constants), the config file, GARDENFLOW_*
// environment variables, and finally command-line flags applied by the CLI.
//
// A minimal file:
//
//	[build]
//	expand = true
//	max_depth = 3
//
//	[layout]
//	engine = "dot"
//	timeout = "5s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/navigate"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
)

const (
	appName = "gardenflow"

	// FileName is the config file name inside the config directory.
	FileName = appName + ".toml"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Server and registry defaults.
const (
	DefaultAddr            = ":8080"
	DefaultMongoDatabase   = appName
	DefaultMongoCollection = "gardens"
)

// Config is the complete gardenflow configuration.
type Config struct {
	Build    Build    `toml:"build" mapstructure:"build"`
	Layout   Layout   `toml:"layout" mapstructure:"layout"`
	Cache    Cache    `toml:"cache" mapstructure:"cache"`
	Server   Server   `toml:"server" mapstructure:"server"`
	Registry Registry `toml:"registry" mapstructure:"registry"`
}

// Build holds [pipeline.Options] build settings.
type Build struct {
	Expand      bool    `toml:"expand" mapstructure:"expand"`
	MaxDepth    int     `toml:"max_depth" mapstructure:"max_depth"`
	Width       float64 `toml:"width" mapstructure:"width"`
	EdgeType    string  `toml:"edge_type" mapstructure:"edge_type"`
	StaticEdges bool    `toml:"static_edges" mapstructure:"static_edges"`
}

// Layout selects the layout engine.
type Layout struct {
	Engine       string   `toml:"engine" mapstructure:"engine"`
	Timeout      Duration `toml:"timeout" mapstructure:"timeout"`
	NodeSpacing  float64  `toml:"node_spacing" mapstructure:"node_spacing"`
	LayerSpacing float64  `toml:"layer_spacing" mapstructure:"layer_spacing"`
}

// Cache selects the cache backend. An empty Dir means the XDG cache dir.
type Cache struct {
	Backend   string   `toml:"backend" mapstructure:"backend"`
	Dir       string   `toml:"dir" mapstructure:"dir"`
	RedisAddr string   `toml:"redis_addr" mapstructure:"redis_addr"`
	TTL       Duration `toml:"ttl" mapstructure:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr     string   `toml:"addr" mapstructure:"addr"`
	Cooldown Duration `toml:"cooldown" mapstructure:"cooldown"`
}

// Registry configures where known gardens are loaded from. Dir and MongoURI
// may both be set; directory gardens win on name clashes.
type Registry struct {
	Dir             string `toml:"dir" mapstructure:"dir"`
	Watch           bool   `toml:"watch" mapstructure:"watch"`
	MongoURI        string `toml:"mongo_uri" mapstructure:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_db" mapstructure:"mongo_db"`
	MongoCollection string `toml:"mongo_collection" mapstructure:"mongo_collection"`
}

// Duration is a time.Duration written as a Go duration string ("500ms").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Build: Build{
			MaxDepth: pipeline.DefaultMaxDepth,
			Width:    pipeline.DefaultWidth,
		},
		Layout: Layout{
			Engine:  pipeline.DefaultEngine,
			Timeout: Duration{pipeline.DefaultLayoutTimeout},
		},
		Cache: Cache{
			Backend: BackendFile,
		},
		Server: Server{
			Addr:     DefaultAddr,
			Cooldown: Duration{navigate.DefaultCooldown},
		},
		Registry: Registry{
			MongoDatabase:   DefaultMongoDatabase,
			MongoCollection: DefaultMongoCollection,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/gardenflow/gardenflow.toml, falling
// back to ~/.config/gardenflow/gardenflow.toml.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path selects [DefaultPath], which may be
// missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve config path")
		}
		path = p
	}

	if err := cfg.decodeFile(path); err != nil {
		if explicit || !errors.Is(err, errors.ErrCodeFileNotFound) {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return errors.New(errors.ErrCodeInvalidOption, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate reports invalid settings.
func (c *Config) Validate() error {
	opts := c.PipelineOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidOption, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidOption, "invalid cache.backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "cache.ttl must not be negative")
	}
	if c.Server.Cooldown.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "server.cooldown must not be negative")
	}
	if c.Registry.MongoURI != "" && (c.Registry.MongoDatabase == "" || c.Registry.MongoCollection == "") {
		return errors.New(errors.ErrCodeInvalidOption, "registry.mongo_db and registry.mongo_collection are required with registry.mongo_uri")
	}
	return nil
}

// PipelineOptions converts the build and layout sections into pipeline
// options. Runtime fields (Logger, Refresh) are left for the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Expand:        c.Build.Expand,
		MaxDepth:      c.Build.MaxDepth,
		Width:         c.Build.Width,
		EdgeType:      c.Build.EdgeType,
		StaticEdges:   c.Build.StaticEdges,
		Engine:        c.Layout.Engine,
		NodeSpacing:   c.Layout.NodeSpacing,
		LayerSpacing:  c.Layout.LayerSpacing,
		LayoutTimeout: c.Layout.Timeout.Duration,
	}
}
