package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Catalog  CatalogConfig  `koanf:"catalog"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Enabled      bool   `koanf:"enabled"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type CatalogConfig struct {
	// ManifestDir is the directory of catalog manifest files, used when the
	// database loader is disabled.
	ManifestDir   string `koanf:"manifest_dir"`
	CacheCapacity int    `koanf:"cache_capacity"`
	// MaxQueryOrder caps the pixel depth accepted from region queries.
	MaxQueryOrder int `koanf:"max_query_order"`
	// DefaultMarginThresholdArcsec applies to margin requests that leave the
	// threshold unset.
	DefaultMarginThresholdArcsec float64 `koanf:"default_margin_threshold_arcsec"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required when database.enabled")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	} else if strings.TrimSpace(c.Catalog.ManifestDir) == "" {
		return fmt.Errorf("catalog.manifest_dir is required when database is disabled")
	}

	if c.Catalog.CacheCapacity <= 0 {
		return fmt.Errorf("catalog.cache_capacity must be > 0")
	}
	if c.Catalog.MaxQueryOrder <= 0 || c.Catalog.MaxQueryOrder > 29 {
		return fmt.Errorf("invalid catalog.max_query_order %d (must be 1-29)", c.Catalog.MaxQueryOrder)
	}
	if c.Catalog.DefaultMarginThresholdArcsec < 0 {
		return fmt.Errorf("catalog.default_margin_threshold_arcsec must be >= 0")
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                             8080,
		"server.host":                             "0.0.0.0",
		"server.mode":                             "release",
		"database.enabled":                        false,
		"database.dsn":                            "",
		"database.max_open_conns":                 25,
		"database.max_idle_conns":                 25,
		"database.auto_migrate":                   true,
		"catalog.manifest_dir":                    "./catalogs",
		"catalog.cache_capacity":                  64,
		"catalog.max_query_order":                 29,
		"catalog.default_margin_threshold_arcsec": 5.0,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("STARCAT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STARCAT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
