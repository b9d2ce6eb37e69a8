package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Port           string        `mapstructure:"port" json:"port"`
	Env            string        `mapstructure:"env" json:"env"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
}

type MongoConfig struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	URL      string `mapstructure:"url" json:"url"`
	Database string `mapstructure:"database" json:"database"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	URL     string `mapstructure:"url" json:"url"`
}

type MeiliConfig struct {
	Enabled   bool          `mapstructure:"enabled" json:"enabled"`
	URL       string        `mapstructure:"url" json:"url"`
	MasterKey string        `mapstructure:"master_key" json:"-"`
	Index     string        `mapstructure:"index" json:"index"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxHits   int           `mapstructure:"max_hits" json:"max_hits"`
}

type CacheConfig struct {
	L1Size int           `mapstructure:"l1_size" json:"l1_size"`
	TTL    time.Duration `mapstructure:"ttl" json:"ttl"`
	WarmUp int           `mapstructure:"warm_up" json:"warm_up"`
}

type BatchConfig struct {
	Workers      int `mapstructure:"workers" json:"workers"`
	MaxAddresses int `mapstructure:"max_addresses" json:"max_addresses"`
}

type SuggestConfig struct {
	JWWeight  float64 `mapstructure:"jw_weight" json:"jw_weight"`
	LevWeight float64 `mapstructure:"lev_weight" json:"lev_weight"`
	Limit     int     `mapstructure:"limit" json:"limit"`
}

type Config struct {
	App         AppConfig     `mapstructure:"app" json:"app"`
	Mongo       MongoConfig   `mapstructure:"mongo" json:"mongo"`
	Redis       RedisConfig   `mapstructure:"redis" json:"redis"`
	Meilisearch MeiliConfig   `mapstructure:"meilisearch" json:"meilisearch"`
	Cache       CacheConfig   `mapstructure:"cache" json:"cache"`
	Batch       BatchConfig   `mapstructure:"batch" json:"batch"`
	Suggest     SuggestConfig `mapstructure:"suggest" json:"suggest"`
}

var C Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.request_timeout", "1500ms")
	v.SetDefault("mongo.enabled", true)
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "address_parser")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("meilisearch.enabled", true)
	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.master_key", "")
	v.SetDefault("meilisearch.index", "addresses")
	v.SetDefault("meilisearch.timeout", "30s")
	v.SetDefault("meilisearch.max_hits", 20)
	v.SetDefault("cache.l1_size", 10000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.warm_up", 5000)
	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.max_addresses", 20000)
	v.SetDefault("suggest.jw_weight", 0.7)
	v.SetDefault("suggest.lev_weight", 0.3)
	v.SetDefault("suggest.limit", 5)
}

// Load reads path (or config/app.yaml when path is empty), applies defaults and
// environment overrides such as MONGO_URL or BATCH_WORKERS, and stores the
// result in C. A missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Batch.Workers <= 0 {
		return nil, fmt.Errorf("batch.workers must be positive, got %d", cfg.Batch.Workers)
	}

	C = cfg
	return &cfg, nil
}

// IsProduction reports whether APP_ENV selects production logging and gin mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func RequestTimeout() time.Duration {
	if C.App.RequestTimeout > 0 {
		return C.App.RequestTimeout
	}
	return 1500 * time.Millisecond
}
