// Package config loads service configuration from an optional YAML file
// with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the API service needs at startup.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`
	NATSURL     string `yaml:"natsUrl"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or console
	} `yaml:"log"`

	Auth struct {
		Mode       string `yaml:"mode"` // dev or hmac
		HMACSecret string `yaml:"hmacSecret"`
	} `yaml:"auth"`

	RateLimit struct {
		PerSecond float64 `yaml:"perSecond"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Solver Solver `yaml:"solver"`

	Webhooks struct {
		MaxAttempts int `yaml:"maxAttempts"`
	} `yaml:"webhooks"`
}

// Solver holds trip-independent solver defaults applied when a trip omits
// them.
type Solver struct {
	MPH              float64 `yaml:"mph"`
	DefaultDwellMin  int     `yaml:"defaultDwellMin"`
	Lambda           float64 `yaml:"lambda"`
	Seed             int64   `yaml:"seed"`
	RiskThresholdMin float64 `yaml:"riskThresholdMin"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Port = "8080"
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Auth.Mode = "dev"
	c.RateLimit.PerSecond = 50
	c.RateLimit.Burst = 100
	c.Solver.MPH = 30
	c.Solver.DefaultDwellMin = 10
	c.Solver.Lambda = 0.5
	c.Webhooks.MaxAttempts = 10
	return c
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and then applies environment overrides.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return c, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	setStr(&c.Port, "PORT")
	setStr(&c.DatabaseURL, "DATABASE_URL")
	setStr(&c.RedisURL, "REDIS_URL")
	setStr(&c.NATSURL, "NATS_URL")
	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.Log.Format, "LOG_FORMAT")
	setStr(&c.Auth.Mode, "AUTH_MODE")
	setStr(&c.Auth.HMACSecret, "AUTH_HMAC_SECRET")
	setFloat(&c.RateLimit.PerSecond, "RATE_LIMIT_PER_SECOND")
	setInt(&c.RateLimit.Burst, "RATE_LIMIT_BURST")
	setFloat(&c.Solver.MPH, "SOLVER_MPH")
	setInt(&c.Solver.DefaultDwellMin, "SOLVER_DWELL_MIN")
	setFloat(&c.Solver.Lambda, "SOLVER_LAMBDA")
	setInt64(&c.Solver.Seed, "SOLVER_SEED")
	setFloat(&c.Solver.RiskThresholdMin, "SOLVER_RISK_THRESHOLD_MIN")
	setInt(&c.Webhooks.MaxAttempts, "WEBHOOK_MAX_ATTEMPTS")
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
