package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
env: test
logger:
  level: info
  outputs: [stdout]
  format: json
metricsAddr: ":9100"
feed:
  url: ws://127.0.0.1:8900/stream
  pools: [ETH-USDC]
  maxRetries: 5
  backoffSeconds: 3
engine:
  baseFeeBps: 30
  minFeeBps: 5
  maxFeeBps: 500
  volumeHighThreshold: "1000000000000"
  volumeLowThreshold: "10000000000"
  maxTradeSize: "500000000000"
  liquidityThreshold: "100000000000"
  costDeviationPct: 20
  smoothing: ema
  emaAlpha: 2
  emaPrecision: 10
  returnCapacity: 1000
solver:
  maxIterations: 32
  tolerance: "0.000000001"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "ws://127.0.0.1:8900/stream", cfg.Feed.URL)
	assert.Equal(t, []string{"ETH-USDC"}, cfg.Feed.Pools)
	assert.Equal(t, int64(30), cfg.Engine.BaseFeeBps)
	assert.Equal(t, "1000000000000", cfg.Engine.VolumeHighThreshold)
	assert.Equal(t, "ema", cfg.Engine.Smoothing)
	assert.Equal(t, 32, cfg.Solver.MaxIterations)
	assert.Equal(t, "0.000000001", cfg.Solver.Tolerance)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		mangle  func(string) string
		errPart string
	}{
		{"bad yaml", func(s string) string { return s + "\n\t: broken" }, "parse yaml"},
		{"missing env", func(s string) string { return replaceLine(s, "env: test", "env: \"\"") }, "env"},
		{"missing feed url", func(s string) string {
			return replaceLine(s, "  url: ws://127.0.0.1:8900/stream", "  url: \"\"")
		}, "feed.url"},
		{"bad threshold", func(s string) string {
			return replaceLine(s, `  volumeHighThreshold: "1000000000000"`, `  volumeHighThreshold: "12x"`)
		}, "volumeHighThreshold"},
		{"bad tolerance", func(s string) string {
			return replaceLine(s, `  tolerance: "0.000000001"`, `  tolerance: "abc"`)
		}, "tolerance"},
		{"zero base fee", func(s string) string {
			return replaceLine(s, "  baseFeeBps: 30", "  baseFeeBps: 0")
		}, "baseFeeBps"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.mangle(validYAML)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("FE_FEED_URL", "ws://override:9999/stream")
	t.Setenv("FE_METRICS_ADDR", ":7777")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "ws://override:9999/stream", cfg.Feed.URL)
	assert.Equal(t, ":7777", cfg.MetricsAddr)
}

func replaceLine(s, old, new string) string {
	return strings.Replace(s, old, new, 1)
}
