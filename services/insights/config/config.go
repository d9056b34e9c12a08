package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MetricConfig defines a single known health metric
type MetricConfig struct {
	ID          string  `toml:"ID"`
	DisplayUnit string  `toml:"DisplayUnit"`
	Reduction   string  `toml:"Reduction"`
	MinValid    float64 `toml:"MinValid"`
	MaxValid    float64 `toml:"MaxValid"`
}

// ImportMappingConfig defines how one metric is extracted from a health-export JSON document
type ImportMappingConfig struct {
	Metric        string `toml:"Metric"`
	RecordsPath   string `toml:"RecordsPath"`
	TimestampPath string `toml:"TimestampPath"`
	ValuePath     string `toml:"ValuePath"`
}

// Config maps to the config.toml file for the insights service
type Config struct {
	ListenAddress             string                `toml:"ListenAddress"`
	DatabasePath              string                `toml:"DatabasePath"`
	RetentionSeconds          int                   `toml:"RetentionSeconds"`
	PointBudget               int                   `toml:"PointBudget"`
	MinimumBucketWidthSeconds int64                 `toml:"MinimumBucketWidthSeconds"`
	CacheCapacity             int                   `toml:"CacheCapacity"`
	Metrics                   []MetricConfig        `toml:"Metrics"`
	Import                    []ImportMappingConfig `toml:"Import"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
