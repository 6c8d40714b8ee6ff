// Package config loads service configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WatchlistConfig struct {
	// Backend selects the store implementation: "memory" or "postgres".
	Backend     string   `mapstructure:"backend"`
	PostgresDSN string   `mapstructure:"postgres_dsn"`
	Sources     []string `mapstructure:"sources"`
}

type ScreeningConfig struct {
	FuzzyFloor            float64       `mapstructure:"fuzzy_floor"`
	MediumFloor           float64       `mapstructure:"medium_floor"`
	MinSubstringTargetLen int           `mapstructure:"min_substring_target_len"`
	PerSourceTimeout      time.Duration `mapstructure:"per_source_timeout"`
	Agencies              []string      `mapstructure:"agencies"`
	EnforcementCacheTTL   time.Duration `mapstructure:"enforcement_cache_ttl"`
}

type RiskConfig struct {
	// Weights maps risk factor names to relative weights. Empty means equal
	// weighting.
	Weights map[string]float64 `mapstructure:"weights"`
}

type CacheConfig struct {
	// Backend selects the cache implementation: "memory" or "redis".
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
}

type AuditConfig struct {
	// Enabled turns on the Kafka audit stream.
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type TelemetryConfig struct {
	// TracingEnabled turns on the stdout trace exporter.
	TracingEnabled bool `mapstructure:"tracing_enabled"`
}

// Load reads configuration from an optional config file plus CLEARWATCH_
// environment variables. Environment always wins.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CLEARWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	} else {
		v.SetConfigName("clearwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/clearwatch")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("watchlist.backend", "memory")
	v.SetDefault("watchlist.sources", []string{})

	v.SetDefault("screening.fuzzy_floor", 0.8)
	v.SetDefault("screening.medium_floor", 0.9)
	v.SetDefault("screening.min_substring_target_len", 4)
	v.SetDefault("screening.per_source_timeout", 5*time.Second)
	v.SetDefault("screening.agencies", []string{"SEC", "CFTC", "DOJ", "FinCEN"})
	v.SetDefault("screening.enforcement_cache_ttl", time.Hour)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.topic", "clearwatch.reports")

	v.SetDefault("telemetry.tracing_enabled", false)
}
