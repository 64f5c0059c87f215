// Package posttrade aggregates settled trade adjustments for reporting.
package posttrade

import (
	"math/big"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Settlement is one settled trade's post-trade adjustment.
type Settlement struct {
	Pool       string
	Adjustment sdkmath.Int
	SettledAt  time.Time
}

// Stats summarizes recorded settlements. Float fields are reporting views of
// the underlying integers.
type Stats struct {
	Settled       int
	AvgAdjustment float64
	MaxAbsolute   float64
}

// Recorder collects settlements keyed by trade id. Safe for concurrent use.
type Recorder struct {
	mu          sync.RWMutex
	settlements map[string]Settlement
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{settlements: make(map[string]Settlement)}
}

// OnSettlement records the adjustment applied to a settled trade. A repeated
// trade id overwrites the previous record; the engine never emits duplicates.
func (r *Recorder) OnSettlement(tradeID, pool string, adjustment sdkmath.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements[tradeID] = Settlement{
		Pool:       pool,
		Adjustment: adjustment,
		SettledAt:  time.Now(),
	}
}

// Stats computes summary statistics over all recorded settlements.
func (r *Recorder) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Settled: len(r.settlements)}
	if len(r.settlements) == 0 {
		return stats
	}
	sum := sdkmath.ZeroInt()
	maxAbs := sdkmath.ZeroInt()
	for _, s := range r.settlements {
		sum = sum.Add(s.Adjustment)
		if abs := s.Adjustment.Abs(); abs.GT(maxAbs) {
			maxAbs = abs
		}
	}
	stats.AvgAdjustment = intToFloat(sum) / float64(len(r.settlements))
	stats.MaxAbsolute = intToFloat(maxAbs)
	return stats
}

// Prune drops settlements older than maxAge and returns how many were
// removed.
func (r *Recorder) Prune(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, s := range r.settlements {
		if s.SettledAt.Before(cutoff) {
			delete(r.settlements, id)
			removed++
		}
	}
	return removed
}

func intToFloat(v sdkmath.Int) float64 {
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}
