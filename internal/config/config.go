package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	SourceDir  = "dir"
	SourceHTTP = "http"

	DefaultBaseURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series"

	MaxHorizon = 365
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Forecast ForecastConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS float64
}

type DataConfig struct {
	Source         string
	Dir            string
	BaseURL        string
	ReloadInterval time.Duration
	FetchTimeout   time.Duration
	MaxRetries     int
}

type ForecastConfig struct {
	Horizon int
	Workers int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvFloat("RATE_LIMIT_RPS", 10),
		},
		Data: DataConfig{
			Source:         getEnv("DATA_SOURCE", SourceDir),
			Dir:            getEnv("DATA_DIR", "./data/csse"),
			BaseURL:        getEnv("DATA_BASE_URL", DefaultBaseURL),
			ReloadInterval: getEnvDuration("RELOAD_INTERVAL", 0),
			FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvInt("FETCH_MAX_RETRIES", 3),
		},
		Forecast: ForecastConfig{
			Horizon: getEnvInt("FORECAST_HORIZON", 30),
			Workers: getEnvInt("FORECAST_WORKERS", 4),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/covid-forecast.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive: %v", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Data.Source {
	case SourceDir:
		if c.Data.Dir == "" {
			return fmt.Errorf("DATA_DIR is required when DATA_SOURCE=%s", SourceDir)
		}
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return fmt.Errorf("DATA_BASE_URL is required when DATA_SOURCE=%s", SourceHTTP)
		}
	default:
		return fmt.Errorf("invalid data source: %s", c.Data.Source)
	}

	if c.Data.ReloadInterval != 0 && c.Data.ReloadInterval < time.Minute {
		return fmt.Errorf("reload interval must be 0 or at least 1 minute")
	}
	if c.Data.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Data.MaxRetries < 0 {
		return fmt.Errorf("fetch retries must not be negative: %d", c.Data.MaxRetries)
	}

	if c.Forecast.Horizon < 1 || c.Forecast.Horizon > MaxHorizon {
		return fmt.Errorf("forecast horizon must be between 1 and %d: %d", MaxHorizon, c.Forecast.Horizon)
	}
	if c.Forecast.Workers < 1 {
		return fmt.Errorf("forecast workers must be at least 1: %d", c.Forecast.Workers)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
