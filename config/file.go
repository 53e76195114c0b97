package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix prefixes environment overrides, e.g. ZALLET_RPC_TIMEOUT.
const envPrefix = "ZALLET"

// Load reads the TOML config file at path on top of the defaults and applies
// ZALLET_* environment overrides. A missing file is an error only when
// required is set.
func Load(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
