package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the public API serving Finnish day-ahead spot prices.
const DefaultEndpoint = "https://api.porssisahko.net/v1/latest-prices.json"

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"data_source"`
	Schedule struct {
		TickSeconds int `yaml:"tick_seconds"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		Broker      string `yaml:"broker"`
		TopicPrefix string `yaml:"topic_prefix"`
		ClientID    string `yaml:"client_id"`
	} `yaml:"mqtt"`
	Display struct {
		VATExcluded bool      `yaml:"vat_excluded"`
		Thresholds  []float64 `yaml:"thresholds"`
		CostOffset  float64   `yaml:"cost_offset"`
		ZoomLevel   int       `yaml:"zoom_level"`
	} `yaml:"display"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PRICE_API_URL"); v != "" {
		cfg.DataSource.Endpoint = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.TickSeconds = n
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Endpoint == "" {
		cfg.DataSource.Endpoint = DefaultEndpoint
	}
	if cfg.DataSource.TimeoutSeconds == 0 {
		cfg.DataSource.TimeoutSeconds = 30
	}
	if cfg.Schedule.TickSeconds == 0 {
		cfg.Schedule.TickSeconds = 60
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/spotwatch.db"
	}
	if len(cfg.Display.Thresholds) == 0 {
		cfg.Display.Thresholds = []float64{7, 15, 22}
	}
	if cfg.Display.ZoomLevel == 0 {
		cfg.Display.ZoomLevel = 10
	}

	return cfg, nil
}

// Validate checks that all required fields are set and sane.
func (c *Config) Validate() error {
	if c.DataSource.Endpoint == "" {
		return fmt.Errorf("data_source.endpoint is required")
	}
	if c.Schedule.TickSeconds <= 0 {
		return fmt.Errorf("schedule.tick_seconds must be positive")
	}
	if len(c.Display.Thresholds) != 3 {
		return fmt.Errorf("display.thresholds must list exactly 3 values")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}
