package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GARDENFLOW_"

// envKeys lists the settings that can be overridden, as dotted TOML keys.
// "build.max_depth" is read from GARDENFLOW_BUILD_MAX_DEPTH.
var envKeys = []string{
	"build.expand",
	"build.max_depth",
	"build.width",
	"build.edge_type",
	"build.static_edges",
	"layout.engine",
	"layout.timeout",
	"layout.node_spacing",
	"layout.layer_spacing",
	"cache.backend",
	"cache.dir",
	"cache.redis_addr",
	"cache.ttl",
	"server.addr",
	"server.cooldown",
	"registry.dir",
	"registry.watch",
	"registry.mongo_uri",
	"registry.mongo_db",
	"registry.mongo_collection",
}

// applyEnv overlays every set GARDENFLOW_* variable onto c. Settings whose
// variable is unset or empty keep their current value.
func (c *Config) applyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(strings.TrimSuffix(EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "bind %s", key)
		}
	}

	err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "environment overrides (%s*)", EnvPrefix)
	}
	return nil
}
