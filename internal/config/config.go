package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the engine's static configuration. Everything here is
// process-wide and read-only; per-request state lives with the request.
type Config struct {
	Port int `koanf:"port"`

	ORS struct {
		APIKey      string        `koanf:"api_key"`
		BaseURL     string        `koanf:"base_url"`
		Profile     string        `koanf:"profile"`
		Timeout     time.Duration `koanf:"timeout"`
		MaxAttempts int           `koanf:"max_attempts"`
	} `koanf:"ors"`

	Engine struct {
		EmissionFactor float64       `koanf:"emission_factor"`
		LegConcurrency int           `koanf:"leg_concurrency"`
		FastestWeight  float64       `koanf:"fastest_weight"`
		EcoWeight      float64       `koanf:"eco_weight"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"engine"`

	Cache struct {
		// Backend selects the geocode cache: "sqlite", "postgres", "redis".
		Backend     string `koanf:"backend"`
		SQLitePath  string `koanf:"sqlite_path"`
		DatabaseURL string `koanf:"database_url"`
		RedisAddr   string `koanf:"redis_addr"`
	} `koanf:"cache"`
}

func defaults() *Config {
	cfg := &Config{Port: 5001}

	cfg.ORS.BaseURL = "https://api.openrouteservice.org"
	cfg.ORS.Profile = "driving-car"
	cfg.ORS.Timeout = 15 * time.Second
	cfg.ORS.MaxAttempts = 4

	cfg.Engine.EmissionFactor = 0.265
	cfg.Engine.LegConcurrency = 4
	cfg.Engine.FastestWeight = 1.0
	cfg.Engine.EcoWeight = 0.0
	cfg.Engine.RequestTimeout = 60 * time.Second

	cfg.Cache.Backend = "sqlite"
	cfg.Cache.SQLitePath = "data/geocode.db"

	return cfg
}

// Load reads configuration: defaults, then an optional yaml file, then
// ECO_* environment overrides (ECO_ORS__API_KEY -> ors.api_key).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %q: %w", path, err)
			}
		}
	}

	err := k.Load(env.ProviderWithValue("ECO_", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, "ECO_"))
		key = strings.ReplaceAll(key, "__", ".")
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
