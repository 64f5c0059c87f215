package config

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"fee-engine-go/fixedpoint"
)

// Validate ensures required fields are present and parseable. Semantic
// cross-field checks (fee bounds, thresholds ordering) live with the engine
// parameters; this layer rejects what cannot even be converted.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Feed.URL == "" {
		return errors.New("feed.url is required (or FE_FEED_URL)")
	}
	if len(cfg.Feed.Pools) == 0 {
		return errors.New("feed.pools is required")
	}
	if cfg.Feed.MaxRetries < 0 {
		return errors.New("feed.maxRetries must be >= 0")
	}
	if cfg.Feed.BackoffSeconds < 0 {
		return errors.New("feed.backoffSeconds must be >= 0")
	}
	if cfg.Engine.BaseFeeBps <= 0 {
		return errors.New("engine.baseFeeBps must be > 0")
	}
	if cfg.Engine.MinFeeBps < 0 || cfg.Engine.MaxFeeBps <= 0 {
		return errors.New("engine fee bounds must be non-negative with maxFeeBps > 0")
	}
	for _, f := range []struct{ name, value string }{
		{"engine.volumeHighThreshold", cfg.Engine.VolumeHighThreshold},
		{"engine.volumeLowThreshold", cfg.Engine.VolumeLowThreshold},
		{"engine.maxTradeSize", cfg.Engine.MaxTradeSize},
		{"engine.liquidityThreshold", cfg.Engine.LiquidityThreshold},
	} {
		if _, ok := sdkmath.NewIntFromString(f.value); !ok {
			return fmt.Errorf("%s: invalid integer %q", f.name, f.value)
		}
	}
	if cfg.Engine.CostDeviationPct <= 0 {
		return errors.New("engine.costDeviationPct must be > 0")
	}
	if cfg.Engine.ReturnCapacity < 0 {
		return errors.New("engine.returnCapacity must be >= 0")
	}
	if cfg.Solver.MaxIterations < 0 {
		return errors.New("solver.maxIterations must be >= 0")
	}
	if cfg.Solver.Tolerance != "" {
		tol, err := fixedpoint.ParseDecimal(cfg.Solver.Tolerance)
		if err != nil {
			return fmt.Errorf("solver.tolerance: %w", err)
		}
		if tol.IsNegative() {
			return errors.New("solver.tolerance must be >= 0")
		}
	}
	return nil
}
