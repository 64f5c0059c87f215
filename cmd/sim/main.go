package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"

	"fee-engine-go/engine"
	"fee-engine-go/fixedpoint"
	"fee-engine-go/infrastructure/monitor"
	"fee-engine-go/market"
	"fee-engine-go/posttrade"
	"fee-engine-go/volatility"
)

// A local simulation: a seeded random walk drives prices, snapshots and a
// pre-trade/post-trade cycle through the full engine, without any oracle
// connection. Floats appear only on the generation side; everything handed
// to the engine is fixed point or integer.
func main() {
	pool := flag.String("pool", "ETH-USDC", "pool identifier")
	steps := flag.Int("steps", 50, "number of simulated trades")
	seed := flag.Int64("seed", 42, "random walk seed")
	flag.Parse()

	params := engine.Params{
		BaseFeeBps:          30,
		MinFeeBps:           5,
		MaxFeeBps:           500,
		VolumeHighThreshold: sdkmath.NewInt(1_000_000),
		VolumeLowThreshold:  sdkmath.NewInt(10_000),
		MaxTradeSize:        sdkmath.NewInt(100_000),
		LiquidityThreshold:  sdkmath.NewInt(500_000),
		CostDeviationPct:    20,
		Smoothing:           engine.SmoothingEMA,
		EMAAlpha:            2,
		EMAPrecision:        10,
		ReturnCapacity:      1000,
		Solver:              volatility.DefaultSolverConfig(),
	}
	eng, err := engine.New(params, nil)
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}
	mon := monitor.New(monitor.DefaultConfig())
	recorder := posttrade.NewRecorder()
	rng := rand.New(rand.NewSource(*seed))

	price := 100.0
	for i := 0; i < *steps; i++ {
		price *= 1 + rng.NormFloat64()*0.004
		fp, err := fixedpoint.ParseDecimal(strconv.FormatFloat(price, 'f', 6, 64))
		if err != nil {
			log.Fatalf("price conversion: %v", err)
		}

		snap := market.Snapshot{
			Volatility: sdkmath.NewInt(int64(50 + rng.Intn(300))),
			Liquidity:  sdkmath.NewInt(int64(200_000 + rng.Intn(1_000_000))),
			Volume:     sdkmath.NewInt(int64(rng.Intn(2_000_000))),
			AsOf:       time.Now(),
		}
		eng.RefreshMarketSnapshot(*pool, snap)
		mon.RecordSnapshot(*pool)
		if err := eng.AddPrice(fp); err != nil {
			log.Fatalf("add price: %v", err)
		}

		size := sdkmath.NewInt(int64(1_000 + rng.Intn(90_000)))
		if rng.Intn(2) == 0 {
			size = size.Neg()
		}
		cost := sdkmath.NewInt(int64(20_000_000_000 + rng.Intn(10_000_000_000)))

		fee, tradeID, err := eng.ComputeFee(*pool, size, cost)
		if err != nil {
			log.Fatalf("compute fee: %v", err)
		}
		mon.RecordFee(*pool, float64(fee.Int64()))

		// The external trade "executes": realized delta wobbles around the
		// requested size.
		realized := size.AddRaw(int64(rng.Intn(2_001) - 1_000))
		adj, err := eng.ApplyPostTradeAdjustment(tradeID, realized)
		if err != nil {
			log.Fatalf("settle %s: %v", tradeID, err)
		}
		recorder.OnSettlement(tradeID, *pool, adj)
		mon.RecordSettlement(adjFloat(adj))

		fmt.Printf("step=%d price=%.4f fee=%sbps trade=%s adjustment=%s\n",
			i, price, fee.String(), tradeID, adj.String())
	}

	if est, err := eng.SigmaAndDrift(); err == nil {
		fmt.Printf("closed form: sigma=%s drift=%s\n", est.Sigma.String(), est.Drift.String())

		periodT, _ := fixedpoint.FromRatio(1, 252)
		res, err := eng.ImpliedSigmaAndDrift(eng.Mean(), periodT)
		if err != nil {
			log.Fatalf("implied solve: %v", err)
		}
		mon.RecordSolve(res.Iterations, res.Converged)
		fmt.Printf("implied: sigma=%s drift=%s iterations=%d converged=%v\n",
			res.Sigma.String(), res.Drift.String(), res.Iterations, res.Converged)
	}

	stats := recorder.Stats()
	fmt.Printf("settled=%d avgAdjustment=%.4f maxAbs=%.4f\n",
		stats.Settled, stats.AvgAdjustment, stats.MaxAbsolute)
}

func adjFloat(v sdkmath.Int) float64 {
	f, err := v.ToLegacyDec().Float64()
	if err != nil {
		return 0
	}
	return f
}
