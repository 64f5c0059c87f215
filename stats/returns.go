// Package stats accumulates logarithmic returns and maintains their running
// mean and variance with Welford's single-pass algorithm, entirely in
// fixed-point arithmetic.
package stats

import (
	"errors"
	"fmt"

	"fee-engine-go/fixedpoint"
)

var (
	ErrCapacityExceeded    = errors.New("return series at capacity")
	ErrInsufficientSamples = errors.New("variance requires at least two samples")
)

// DefaultCapacity bounds the stored prices and returns when no explicit
// capacity is given.
const DefaultCapacity = 1000

// ReturnSeries is a bounded series of log returns, optionally derived from a
// raw price sequence. It is created empty and grows one sample at a time.
// Not safe for concurrent use; the engine serializes access.
type ReturnSeries struct {
	capacity int
	prices   []fixedpoint.Value
	returns  []fixedpoint.Value
	count    int
	mean     fixedpoint.Value
	m2       fixedpoint.Value
}

// NewReturnSeries creates an empty series holding at most capacity samples.
// A non-positive capacity selects DefaultCapacity.
func NewReturnSeries(capacity int) *ReturnSeries {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ReturnSeries{
		capacity: capacity,
		prices:   make([]fixedpoint.Value, 0, capacity),
		returns:  make([]fixedpoint.Value, 0, capacity),
		mean:     fixedpoint.Zero(),
		m2:       fixedpoint.Zero(),
	}
}

// AddReturn feeds one return into the accumulator. The Welford update order
// (delta, mean, delta2, m2) is load-bearing: it determines the truncation
// behavior under fixed-point rounding. On any arithmetic failure the series
// is left unchanged.
func (s *ReturnSeries) AddReturn(v fixedpoint.Value) error {
	if s.count >= s.capacity {
		return ErrCapacityExceeded
	}
	n := s.count + 1
	delta, err := v.Sub(s.mean)
	if err != nil {
		return err
	}
	step, err := delta.Div(fixedpoint.FromInt64(int64(n)))
	if err != nil {
		return err
	}
	mean, err := s.mean.Add(step)
	if err != nil {
		return err
	}
	delta2, err := v.Sub(mean)
	if err != nil {
		return err
	}
	inc, err := delta.Mul(delta2)
	if err != nil {
		return err
	}
	m2, err := s.m2.Add(inc)
	if err != nil {
		return err
	}
	s.mean = mean
	s.m2 = m2
	s.count = n
	s.returns = append(s.returns, v)
	return nil
}

// AddPrice appends a price observation. From the second price on the log
// return ln(current/previous) is derived and fed to AddReturn. Non-positive
// prices fail with fixedpoint.ErrDomain.
func (s *ReturnSeries) AddPrice(p fixedpoint.Value) error {
	if p.IsZero() || p.IsNegative() {
		return fixedpoint.ErrDomain
	}
	if len(s.prices) >= s.capacity {
		return ErrCapacityExceeded
	}
	if len(s.prices) > 0 {
		ratio, err := p.Div(s.prices[len(s.prices)-1])
		if err != nil {
			return err
		}
		r, err := fixedpoint.Ln(ratio)
		if err != nil {
			return err
		}
		if err := s.AddReturn(r); err != nil {
			return err
		}
	}
	s.prices = append(s.prices, p)
	return nil
}

// Count returns the number of accumulated returns.
func (s *ReturnSeries) Count() int { return s.count }

// Mean returns the running mean of the accumulated returns.
func (s *ReturnSeries) Mean() fixedpoint.Value { return s.mean }

// M2 returns the accumulated sum of squared deviations.
func (s *ReturnSeries) M2() fixedpoint.Value { return s.m2 }

// Variance returns the sample variance m2/(count-1).
func (s *ReturnSeries) Variance() (fixedpoint.Value, error) {
	if s.count < 2 {
		return fixedpoint.Value{}, ErrInsufficientSamples
	}
	return s.m2.Div(fixedpoint.FromInt64(int64(s.count - 1)))
}

// Return returns the i-th accumulated return.
func (s *ReturnSeries) Return(i int) (fixedpoint.Value, error) {
	if i < 0 || i >= len(s.returns) {
		return fixedpoint.Value{}, fmt.Errorf("return index %d out of range [0,%d)", i, len(s.returns))
	}
	return s.returns[i], nil
}

// Returns returns a copy of the accumulated return sequence.
func (s *ReturnSeries) Returns() []fixedpoint.Value {
	out := make([]fixedpoint.Value, len(s.returns))
	copy(out, s.returns)
	return out
}

// Prices returns a copy of the stored price sequence.
func (s *ReturnSeries) Prices() []fixedpoint.Value {
	out := make([]fixedpoint.Value, len(s.prices))
	copy(out, s.prices)
	return out
}
