// Package config loads server configuration from an optional YAML file,
// with environment variables taking precedence over file values.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`
	OSRMURL      string `yaml:"osrm_url"`
	NominatimURL string `yaml:"nominatim_url"`
	UserAgent    string `yaml:"user_agent"`

	Engine EngineConfig `yaml:"engine"`
}

type EngineConfig struct {
	ExactThreshold        int `yaml:"exact_threshold"`
	TwoOptIterationCap    int `yaml:"two_opt_iteration_cap"`
	DefaultServiceMinutes int `yaml:"default_service_minutes"`
	MaxFallbackCandidates int `yaml:"max_fallback_candidates"`
	TravelCacheDays       int `yaml:"travel_cache_days"`
}

// Load reads the file named by CONFIG_FILE (if set), then applies
// environment overrides. A missing or empty CONFIG_FILE is not an error.
func Load() (Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setStr(&cfg.Port, "PORT")
	setStr(&cfg.DatabaseURL, "DATABASE_URL")
	setStr(&cfg.RedisURL, "REDIS_URL")
	setStr(&cfg.OSRMURL, "OSRM_URL")
	setStr(&cfg.NominatimURL, "NOMINATIM_URL")
	setStr(&cfg.UserAgent, "GEOCODE_USER_AGENT")
	setInt(&cfg.Engine.ExactThreshold, "EXACT_THRESHOLD")
	setInt(&cfg.Engine.TwoOptIterationCap, "TWO_OPT_ITERATION_CAP")
	setInt(&cfg.Engine.DefaultServiceMinutes, "DEFAULT_SERVICE_MINUTES")
	setInt(&cfg.Engine.MaxFallbackCandidates, "MAX_FALLBACK_CANDIDATES")
	setInt(&cfg.Engine.TravelCacheDays, "TRAVEL_CACHE_DAYS")
}

// TravelCacheTTL returns the configured cache lifetime, defaulting to a week.
func (c Config) TravelCacheTTL() time.Duration {
	if c.Engine.TravelCacheDays > 0 {
		return time.Duration(c.Engine.TravelCacheDays) * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}
