package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"

	"fee-engine-go/config"
	"fee-engine-go/engine"
	"fee-engine-go/fixedpoint"
	"fee-engine-go/infrastructure/logger"
	"fee-engine-go/infrastructure/monitor"
	"fee-engine-go/logs"
	"fee-engine-go/market"
	"fee-engine-go/metrics"
	"fee-engine-go/volatility"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Close()
	lib := zl.ForLibraries()
	logs.DefaultLogger = lib

	params, err := engineParams(cfg)
	if err != nil {
		log.Fatalf("engine parameters: %v", err)
	}
	eng, err := engine.New(params, lib)
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}

	mon := monitor.New(monitor.DefaultConfig())
	if cfg.MetricsAddr != "" {
		metrics.StartMetricsServer(cfg.MetricsAddr, mon.Handler())
		lib.Info("metrics listening", "addr", cfg.MetricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pools := make(map[string]bool, len(cfg.Feed.Pools))
	for _, p := range cfg.Feed.Pools {
		pools[p] = true
	}

	ticks := make(chan market.Tick, 256)
	fatal := make(chan error, 1)
	feed := market.NewFeed(cfg.Feed.URL, func(t market.Tick) {
		select {
		case ticks <- t:
		default:
			lib.Warn("tick dropped, consumer behind", "pool", t.Pool)
		}
	})
	if cfg.Feed.MaxRetries > 0 {
		feed.MaxRetries = cfg.Feed.MaxRetries
	}
	if cfg.Feed.BackoffSeconds > 0 {
		feed.RetryBackoff = time.Duration(cfg.Feed.BackoffSeconds) * time.Second
	}
	feed.Logger = lib
	feed.SetFatalErrorHandler(func(err error) {
		select {
		case fatal <- err:
		default:
		}
	})
	feed.Start()
	defer feed.Stop()

	paramUpdates := make(chan engine.Params, 1)
	watcher, err := config.NewWatcher(*cfgPath)
	if err != nil {
		log.Fatalf("config watcher: %v", err)
	}
	defer watcher.Close()
	watcher.Logger = lib
	err = watcher.Start(ctx, func(newCfg config.AppConfig) {
		p, err := engineParams(newCfg)
		if err != nil {
			lib.Warn("reloaded config rejected", "err", err)
			return
		}
		select {
		case paramUpdates <- p:
		default:
		}
	})
	if err != nil {
		log.Fatalf("config watcher: %v", err)
	}

	lib.Info("fee engine running", "env", cfg.Env, "pools", cfg.Feed.Pools)

	// Single loop: all engine access is serialized here.
	for {
		select {
		case <-ctx.Done():
			lib.Info("shutting down")
			return
		case err := <-fatal:
			lib.Error("oracle feed lost", "err", err)
			return
		case p := <-paramUpdates:
			if err := eng.UpdateParams(p); err != nil {
				lib.Warn("parameter update rejected", "err", err)
			}
		case t := <-ticks:
			if !pools[t.Pool] {
				continue
			}
			eng.RefreshMarketSnapshot(t.Pool, t.Snapshot)
			mon.RecordSnapshot(t.Pool)
			if err := eng.AddPrice(t.Price); err != nil {
				lib.Warn("price rejected", "pool", t.Pool, "price", t.Price.String(), "err", err)
				continue
			}
			mon.SetCostLevel(intFloat(eng.CostLevel()))
			if est, err := eng.SigmaAndDrift(); err == nil {
				lib.Info("estimate updated",
					"pool", t.Pool,
					"sigma", est.Sigma.String(),
					"drift", est.Drift.String())
			}
		}
	}
}

// engineParams converts the YAML config into validated engine parameters.
func engineParams(cfg config.AppConfig) (engine.Params, error) {
	volumeHigh, ok := sdkmath.NewIntFromString(cfg.Engine.VolumeHighThreshold)
	if !ok {
		return engine.Params{}, fmt.Errorf("invalid volumeHighThreshold %q", cfg.Engine.VolumeHighThreshold)
	}
	volumeLow, ok := sdkmath.NewIntFromString(cfg.Engine.VolumeLowThreshold)
	if !ok {
		return engine.Params{}, fmt.Errorf("invalid volumeLowThreshold %q", cfg.Engine.VolumeLowThreshold)
	}
	maxTrade, ok := sdkmath.NewIntFromString(cfg.Engine.MaxTradeSize)
	if !ok {
		return engine.Params{}, fmt.Errorf("invalid maxTradeSize %q", cfg.Engine.MaxTradeSize)
	}
	liquidity, ok := sdkmath.NewIntFromString(cfg.Engine.LiquidityThreshold)
	if !ok {
		return engine.Params{}, fmt.Errorf("invalid liquidityThreshold %q", cfg.Engine.LiquidityThreshold)
	}
	solver := volatility.DefaultSolverConfig()
	if cfg.Solver.MaxIterations > 0 {
		solver.MaxIterations = cfg.Solver.MaxIterations
	}
	if cfg.Solver.Tolerance != "" {
		tol, err := fixedpoint.ParseDecimal(cfg.Solver.Tolerance)
		if err != nil {
			return engine.Params{}, fmt.Errorf("invalid solver tolerance: %w", err)
		}
		solver.Tolerance = tol
	}
	return engine.Params{
		BaseFeeBps:          cfg.Engine.BaseFeeBps,
		MinFeeBps:           cfg.Engine.MinFeeBps,
		MaxFeeBps:           cfg.Engine.MaxFeeBps,
		VolumeHighThreshold: volumeHigh,
		VolumeLowThreshold:  volumeLow,
		MaxTradeSize:        maxTrade,
		LiquidityThreshold:  liquidity,
		CostDeviationPct:    cfg.Engine.CostDeviationPct,
		Smoothing:           cfg.Engine.Smoothing,
		EMAAlpha:            cfg.Engine.EMAAlpha,
		EMAPrecision:        cfg.Engine.EMAPrecision,
		ReturnCapacity:      cfg.Engine.ReturnCapacity,
		Solver:              solver,
	}, nil
}

func intFloat(v sdkmath.Int) float64 {
	f, err := v.ToLegacyDec().Float64()
	if err != nil {
		return 0
	}
	return f
}
