package engine

import sdkmath "cosmossdk.io/math"

// costSmoother tracks a smoothed level of the transaction-cost signal.
// Implementations are not safe for concurrent use; the engine serializes.
type costSmoother interface {
	Update(signal sdkmath.Int)
	Level() sdkmath.Int
	Initialized() bool
}

// CostEMA is an exponential moving average with integer weights:
// level = (signal*alpha + level*(precision-alpha)) / precision.
// The first observation seeds the level.
type CostEMA struct {
	alpha       sdkmath.Int
	precision   sdkmath.Int
	level       sdkmath.Int
	initialized bool
}

// NewCostEMA creates an EMA with weight alpha out of precision.
func NewCostEMA(alpha, precision int64) *CostEMA {
	return &CostEMA{
		alpha:     sdkmath.NewInt(alpha),
		precision: sdkmath.NewInt(precision),
		level:     sdkmath.ZeroInt(),
	}
}

func (e *CostEMA) Update(signal sdkmath.Int) {
	if !e.initialized {
		e.level = signal
		e.initialized = true
		return
	}
	e.level = signal.Mul(e.alpha).
		Add(e.level.Mul(e.precision.Sub(e.alpha))).
		Quo(e.precision)
}

func (e *CostEMA) Level() sdkmath.Int { return e.level }

func (e *CostEMA) Initialized() bool { return e.initialized }

// RunningAverage is the count-weighted alternative smoother:
// value = (value*count + signal) / (count+1), seeded by the first sample.
type RunningAverage struct {
	value sdkmath.Int
	count int64
}

// NewRunningAverage creates an empty count-weighted average.
func NewRunningAverage() *RunningAverage {
	return &RunningAverage{value: sdkmath.ZeroInt()}
}

func (a *RunningAverage) Update(signal sdkmath.Int) {
	if a.count == 0 {
		a.value = signal
		a.count = 1
		return
	}
	a.value = a.value.MulRaw(a.count).Add(signal).QuoRaw(a.count + 1)
	a.count++
}

func (a *RunningAverage) Level() sdkmath.Int { return a.value }

func (a *RunningAverage) Initialized() bool { return a.count > 0 }
