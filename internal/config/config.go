package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config is the typed view of the service configuration.
type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Auth struct {
		Secret    string `mapstructure:"secret"`
		MaxSkewMS int64  `mapstructure:"max_skew_ms"`
	} `mapstructure:"auth"`

	Storage struct {
		Driver string `mapstructure:"driver"` // "mongo" or "memory"
	} `mapstructure:"storage"`

	Mongo struct {
		URI    string `mapstructure:"uri"`
		DBName string `mapstructure:"db_name"`
	} `mapstructure:"mongodb"`

	Logs struct {
		Retention int `mapstructure:"retention"` // max log entries kept
	} `mapstructure:"logs"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // "text" or "json"
	} `mapstructure:"logging"`

	Telegram struct {
		Enabled         bool   `mapstructure:"enabled"`
		Token           string `mapstructure:"token"`
		ChatIDs         []int  `mapstructure:"chat_ids"`
		IntervalMinutes int    `mapstructure:"interval_minutes"`
	} `mapstructure:"telegram"`
}

// Load unmarshals and validates a Config from an already-read viper instance.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Auth.Secret == "" {
		return nil, errors.New("auth.secret is required")
	}
	if cfg.Storage.Driver == "mongo" && cfg.Mongo.URI == "" {
		return nil, errors.New("mongodb.uri is required with the mongo driver")
	}
	if cfg.Logs.Retention <= 0 {
		return nil, errors.New("logs.retention must be positive")
	}
	if cfg.Telegram.Enabled && cfg.Telegram.IntervalMinutes <= 0 {
		return nil, errors.New("telegram.interval_minutes must be positive when telegram is enabled")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("auth.max_skew_ms", 120_000)
	v.SetDefault("storage.driver", "mongo")
	v.SetDefault("mongodb.db_name", "fezwd")
	v.SetDefault("logs.retention", 200)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("telegram.interval_minutes", 30)
}
