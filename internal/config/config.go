package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "PLANNER"

// Config keeps runtime settings for the server, bot and CLI.
type Config struct {
	HTTPAddr       string  `mapstructure:"http_addr"`
	DatabaseDriver string  `mapstructure:"database_driver"`
	DatabaseURL    string  `mapstructure:"database_url"`
	TelegramToken  string  `mapstructure:"telegram_token"`
	ReportTime     string  `mapstructure:"report_time"`
	Timezone       string  `mapstructure:"timezone"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFormat      string  `mapstructure:"log_format"`
	BcryptCost     int     `mapstructure:"bcrypt_cost"`
	TelegramRate   float64 `mapstructure:"telegram_rate"`

	// Location is Timezone resolved by Load.
	Location *time.Location `mapstructure:"-"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_url", "time_planner.db")
	v.SetDefault("telegram_token", "")
	v.SetDefault("report_time", "08:00")
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("telegram_rate", 20.0)
}

// Load reads configuration from a .env file in the working directory (if any),
// PLANNER_* environment variables and an optional YAML file at path. The
// environment wins over the file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.ReportTime = strings.TrimSpace(cfg.ReportTime)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.Location = loc

	if c.ReportTime != "" {
		if _, err := time.Parse("15:04", c.ReportTime); err != nil {
			return fmt.Errorf("invalid report time %q, expected HH:MM", c.ReportTime)
		}
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TelegramRate <= 0 {
		return fmt.Errorf("telegram rate must be positive")
	}
	return nil
}
