// Package engine composes per-trade fees from market snapshots, a smoothed
// transaction-cost signal and trade-size checks, and settles each trade with
// a symmetric post-trade adjustment. One Engine instance owns all state for
// its pools; callers serialize access (one trade is fully processed before
// the next begins).
package engine

import (
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"

	"fee-engine-go/fixedpoint"
	"fee-engine-go/logs"
	"fee-engine-go/market"
	"fee-engine-go/stats"
	"fee-engine-go/volatility"
)

// Smoothing mode names accepted by Params.
const (
	SmoothingEMA        = "ema"
	SmoothingArithmetic = "arithmetic"
)

var (
	bpsDenominator = sdkmath.NewInt(10_000)
	costAdjDivisor = sdkmath.NewInt(1_000_000_000)
	slipAdjDivisor = sdkmath.NewInt(1_000)
	liqAdjDivisor  = sdkmath.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(22), nil))
)

// Params configures the fee policy. All fee fields are basis points; volume,
// liquidity and trade-size fields are token units.
type Params struct {
	BaseFeeBps int64
	MinFeeBps  int64
	MaxFeeBps  int64

	VolumeHighThreshold sdkmath.Int
	VolumeLowThreshold  sdkmath.Int
	MaxTradeSize        sdkmath.Int
	LiquidityThreshold  sdkmath.Int

	// CostDeviationPct is the percent deviation of the current cost signal
	// from its smoothed level beyond which the fee reacts.
	CostDeviationPct int64

	Smoothing    string
	EMAAlpha     int64
	EMAPrecision int64

	ReturnCapacity int
	Solver         volatility.SolverConfig
}

// Validate rejects parameter sets the engine cannot price with.
func (p Params) Validate() error {
	if p.BaseFeeBps <= 0 {
		return fmt.Errorf("%w: baseFeeBps must be > 0", ErrInvalidParams)
	}
	if p.MinFeeBps < 0 || p.MaxFeeBps <= 0 || p.MinFeeBps > p.MaxFeeBps {
		return fmt.Errorf("%w: fee bounds [%d,%d] invalid", ErrInvalidParams, p.MinFeeBps, p.MaxFeeBps)
	}
	if p.VolumeHighThreshold.IsNil() || p.VolumeLowThreshold.IsNil() ||
		p.MaxTradeSize.IsNil() || p.LiquidityThreshold.IsNil() {
		return fmt.Errorf("%w: thresholds must be set", ErrInvalidParams)
	}
	if p.VolumeHighThreshold.IsNegative() || p.VolumeLowThreshold.IsNegative() ||
		p.LiquidityThreshold.IsNegative() {
		return fmt.Errorf("%w: thresholds must be >= 0", ErrInvalidParams)
	}
	if p.VolumeLowThreshold.GT(p.VolumeHighThreshold) {
		return fmt.Errorf("%w: volume low threshold above high threshold", ErrInvalidParams)
	}
	if !p.MaxTradeSize.IsPositive() {
		return fmt.Errorf("%w: maxTradeSize must be > 0", ErrInvalidParams)
	}
	if p.CostDeviationPct <= 0 {
		return fmt.Errorf("%w: costDeviationPct must be > 0", ErrInvalidParams)
	}
	switch p.Smoothing {
	case SmoothingEMA:
		if p.EMAAlpha <= 0 || p.EMAPrecision <= 0 || p.EMAAlpha > p.EMAPrecision {
			return fmt.Errorf("%w: ema alpha %d / precision %d invalid", ErrInvalidParams, p.EMAAlpha, p.EMAPrecision)
		}
	case SmoothingArithmetic:
	default:
		return fmt.Errorf("%w: unknown smoothing mode %q", ErrInvalidParams, p.Smoothing)
	}
	return nil
}

// Engine owns the fee-policy state for a set of pools: one return series,
// per-pool snapshots, the cost smoother and the live trade contexts.
type Engine struct {
	params    Params
	logger    logs.Logger
	series    *stats.ReturnSeries
	snapshots map[string]market.Snapshot
	contexts  map[string]*TradeContext
	smoother  costSmoother
	provider  market.Provider
	lastCost  sdkmath.Int
	seq       uint64
	now       func() time.Time
}

// New creates an engine with the given policy. A nil logger selects
// logs.DefaultLogger.
func New(params Params, logger logs.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logs.DefaultLogger
	}
	return &Engine{
		params:    params,
		logger:    logger,
		series:    stats.NewReturnSeries(params.ReturnCapacity),
		snapshots: make(map[string]market.Snapshot),
		contexts:  make(map[string]*TradeContext),
		smoother:  newSmoother(params),
		lastCost:  sdkmath.ZeroInt(),
		now:       time.Now,
	}, nil
}

func newSmoother(p Params) costSmoother {
	if p.Smoothing == SmoothingArithmetic {
		return NewRunningAverage()
	}
	return NewCostEMA(p.EMAAlpha, p.EMAPrecision)
}

// UpdateParams swaps the fee policy, keeping accumulated statistics and the
// smoother level. Used by config hot reload.
func (e *Engine) UpdateParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if params.Smoothing != e.params.Smoothing {
		e.smoother = newSmoother(params)
	}
	e.params = params
	e.logger.Info("fee parameters updated",
		"baseFeeBps", params.BaseFeeBps, "minFeeBps", params.MinFeeBps, "maxFeeBps", params.MaxFeeBps)
	return nil
}

// RefreshMarketSnapshot replaces the pool's snapshot whole.
func (e *Engine) RefreshMarketSnapshot(poolID string, snap market.Snapshot) {
	e.snapshots[poolID] = snap
}

// SetSnapshotProvider installs a synchronous fallback consulted when a pool
// has no cached snapshot. A fetched snapshot is cached like a refresh.
func (e *Engine) SetSnapshotProvider(p market.Provider) {
	e.provider = p
}

func (e *Engine) snapshot(poolID string) (market.Snapshot, error) {
	if snap, ok := e.snapshots[poolID]; ok {
		return snap, nil
	}
	if e.provider != nil {
		snap, err := e.provider.Fetch(poolID)
		if err != nil {
			return market.Snapshot{}, fmt.Errorf("%w: %s: %v", ErrNoSnapshot, poolID, err)
		}
		e.snapshots[poolID] = snap
		return snap, nil
	}
	return market.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, poolID)
}

// UpdateCostSignal feeds the smoother and remembers the raw signal for
// settlement.
func (e *Engine) UpdateCostSignal(signal sdkmath.Int) {
	e.smoother.Update(signal)
	e.lastCost = signal
}

// CostLevel returns the current smoothed cost level.
func (e *Engine) CostLevel() sdkmath.Int { return e.smoother.Level() }

// ComputeFee prices a trade against the pool's current snapshot and opens a
// trade context under a fresh identifier. The returned fee is in basis
// points, always within [MinFeeBps, MaxFeeBps].
func (e *Engine) ComputeFee(poolID string, tradeSize, costSignal sdkmath.Int) (sdkmath.Int, string, error) {
	snap, err := e.snapshot(poolID)
	if err != nil {
		return sdkmath.Int{}, "", err
	}
	fee := e.composeFee(snap, tradeSize, costSignal)
	e.UpdateCostSignal(costSignal)

	e.seq++
	id := fmt.Sprintf("%s#%d", poolID, e.seq)
	e.contexts[id] = &TradeContext{
		PoolID:             poolID,
		InitialAmount:      tradeSize,
		InitialCostSignal:  costSignal,
		AppliedFee:         fee,
		Timestamp:          e.now(),
		VolatilitySnapshot: snap.Volatility,
		LiquiditySnapshot:  snap.Liquidity,
	}
	e.logger.Info("fee computed",
		"pool", poolID, "trade", id, "feeBps", fee.String(), "size", tradeSize.String())
	return fee, id, nil
}

// composeFee applies the percentage adjustments sequentially to the running
// fee, in this fixed order, then clamps. Quotients truncate toward zero.
func (e *Engine) composeFee(snap market.Snapshot, tradeSize, costSignal sdkmath.Int) sdkmath.Int {
	fee := sdkmath.NewInt(e.params.BaseFeeBps)

	// Volatility scaling: (10000 + vol) / 10000.
	fee = fee.Mul(bpsDenominator.Add(snap.Volatility)).Quo(bpsDenominator)

	// Volume band: +-10%.
	if snap.Volume.GT(e.params.VolumeHighThreshold) {
		fee = fee.MulRaw(110).QuoRaw(100)
	} else if snap.Volume.LT(e.params.VolumeLowThreshold) {
		fee = fee.MulRaw(90).QuoRaw(100)
	}

	// Large trades: +20% above half the configured maximum.
	if tradeSize.Abs().GT(e.params.MaxTradeSize.QuoRaw(2)) {
		fee = fee.MulRaw(120).QuoRaw(100)
	}

	// Thin liquidity: +50%.
	if snap.Liquidity.LT(e.params.LiquidityThreshold) {
		fee = fee.MulRaw(150).QuoRaw(100)
	}

	// Cost-signal deviation: higher cost lowers the fee to keep flow coming,
	// lower cost raises it. Skipped until the smoother has a level.
	if e.smoother.Initialized() && !e.smoother.Level().IsZero() {
		level := e.smoother.Level()
		deviation := costSignal.Sub(level).MulRaw(100).Quo(level)
		threshold := sdkmath.NewInt(e.params.CostDeviationPct)
		if deviation.GT(threshold) {
			fee = fee.MulRaw(80).QuoRaw(100)
		} else if deviation.LT(threshold.Neg()) {
			fee = fee.MulRaw(120).QuoRaw(100)
		}
	}

	if min := sdkmath.NewInt(e.params.MinFeeBps); fee.LT(min) {
		fee = min
	}
	if max := sdkmath.NewInt(e.params.MaxFeeBps); fee.GT(max) {
		fee = max
	}
	return fee
}

// ApplyPostTradeAdjustment consumes the trade context and returns the
// post-trade adjustment: a cost-signal term, a slippage term and a
// market-condition term, summed. A second call for the same id fails with
// ErrMissingContext.
func (e *Engine) ApplyPostTradeAdjustment(tradeID string, realizedDelta sdkmath.Int) (sdkmath.Int, error) {
	ctx, ok := e.contexts[tradeID]
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %s", ErrMissingContext, tradeID)
	}
	snap, ok := e.snapshots[ctx.PoolID]
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %s", ErrNoSnapshot, ctx.PoolID)
	}
	delete(e.contexts, tradeID)

	costTerm := e.lastCost.Sub(ctx.InitialCostSignal).Mul(ctx.AppliedFee).Quo(costAdjDivisor)
	slipTerm := realizedDelta.Sub(ctx.InitialAmount).Quo(slipAdjDivisor)
	volTerm := snap.Volatility.Sub(ctx.VolatilitySnapshot).Mul(ctx.AppliedFee).Quo(bpsDenominator)
	liqTerm := snap.Liquidity.Sub(ctx.LiquiditySnapshot).Mul(ctx.AppliedFee).Quo(liqAdjDivisor)

	adjustment := costTerm.Add(slipTerm).Add(volTerm).Add(liqTerm)
	e.logger.Info("trade settled", "trade", tradeID, "adjustment", adjustment.String())
	return adjustment, nil
}

// LiveContexts reports the number of unconsumed trade contexts.
func (e *Engine) LiveContexts() int { return len(e.contexts) }

// AddPrice appends a price observation, deriving a log return from the
// second price on.
func (e *Engine) AddPrice(p fixedpoint.Value) error { return e.series.AddPrice(p) }

// AddReturn feeds a precomputed log return.
func (e *Engine) AddReturn(r fixedpoint.Value) error { return e.series.AddReturn(r) }

// Mean returns the running mean of the accumulated returns.
func (e *Engine) Mean() fixedpoint.Value { return e.series.Mean() }

// Variance returns the sample variance of the accumulated returns.
func (e *Engine) Variance() (fixedpoint.Value, error) { return e.series.Variance() }

// Return returns the i-th accumulated return.
func (e *Engine) Return(i int) (fixedpoint.Value, error) { return e.series.Return(i) }

// Returns returns a copy of the accumulated return sequence.
func (e *Engine) Returns() []fixedpoint.Value { return e.series.Returns() }

// SigmaAndDrift computes the closed-form volatility/drift estimate from the
// accumulated returns.
func (e *Engine) SigmaAndDrift() (volatility.Estimate, error) {
	return volatility.SigmaAndDrift(e.series)
}

// ImpliedSigmaAndDrift runs the iterative solver for a single fee return
// muPool over period t using the configured iteration budget.
func (e *Engine) ImpliedSigmaAndDrift(muPool, t fixedpoint.Value) (volatility.Result, error) {
	res, err := volatility.ImpliedSigmaAndDrift(muPool, t, e.params.Solver)
	if err != nil {
		return volatility.Result{}, err
	}
	if !res.Converged {
		e.logger.Warn("implied volatility solve did not converge",
			"iterations", res.Iterations, "sigma", res.Sigma.String(), "drift", res.Drift.String())
	}
	return res, nil
}
