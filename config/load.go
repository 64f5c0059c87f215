// Package config loads, validates and watches the engine's YAML
// configuration. Large integer fields (token units) travel as decimal
// strings so they are not constrained by YAML number precision.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fee-engine-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string        `yaml:"env"`
	Logger      logger.Config `yaml:"logger"`
	MetricsAddr string        `yaml:"metricsAddr"`
	Feed        FeedConfig    `yaml:"feed"`
	Engine      EngineConfig  `yaml:"engine"`
	Solver      SolverConfig  `yaml:"solver"`
}

// FeedConfig configures the oracle websocket subscription.
type FeedConfig struct {
	URL            string   `yaml:"url"`
	Pools          []string `yaml:"pools"`
	MaxRetries     int      `yaml:"maxRetries"`
	BackoffSeconds int      `yaml:"backoffSeconds"`
}

// EngineConfig carries the fee-policy parameters. Threshold fields are
// decimal-string integers in token units; fee fields are basis points.
type EngineConfig struct {
	BaseFeeBps          int64  `yaml:"baseFeeBps"`
	MinFeeBps           int64  `yaml:"minFeeBps"`
	MaxFeeBps           int64  `yaml:"maxFeeBps"`
	VolumeHighThreshold string `yaml:"volumeHighThreshold"`
	VolumeLowThreshold  string `yaml:"volumeLowThreshold"`
	MaxTradeSize        string `yaml:"maxTradeSize"`
	LiquidityThreshold  string `yaml:"liquidityThreshold"`
	CostDeviationPct    int64  `yaml:"costDeviationPct"`
	Smoothing           string `yaml:"smoothing"`
	EMAAlpha            int64  `yaml:"emaAlpha"`
	EMAPrecision        int64  `yaml:"emaPrecision"`
	ReturnCapacity      int    `yaml:"returnCapacity"`
}

// SolverConfig bounds the implied-volatility iteration. Tolerance is a
// decimal literal such as "0.000000001".
type SolverConfig struct {
	MaxIterations int    `yaml:"maxIterations"`
	Tolerance     string `yaml:"tolerance"`
}

// Load reads YAML config from path and applies validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific
// fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("FE_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("FE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	return cfg, Validate(cfg)
}
