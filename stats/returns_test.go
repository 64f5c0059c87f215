package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fee-engine-go/fixedpoint"
)

func ratio(t *testing.T, num, den int64) fixedpoint.Value {
	t.Helper()
	v, err := fixedpoint.FromRatio(num, den)
	require.NoError(t, err)
	return v
}

func TestWelfordMatchesTwoPass(t *testing.T) {
	samples := []int64{10, -20, 15, 5, -10} // thousandths
	s := NewReturnSeries(0)
	for _, n := range samples {
		require.NoError(t, s.AddReturn(ratio(t, n, 1000)))
	}
	require.Equal(t, len(samples), s.Count())

	// Naive two-pass reference.
	var sum float64
	for _, n := range samples {
		sum += float64(n) / 1000
	}
	mean := sum / float64(len(samples))
	var m2 float64
	for _, n := range samples {
		d := float64(n)/1000 - mean
		m2 += d * d
	}
	variance := m2 / float64(len(samples)-1)

	assert.InDelta(t, mean, s.Mean().Float64(), 1e-6)
	v, err := s.Variance()
	require.NoError(t, err)
	assert.InDelta(t, variance, v.Float64(), 1e-6)
	assert.False(t, v.IsNegative())
	assert.False(t, s.M2().IsNegative())
}

func TestVarianceRequiresTwoSamples(t *testing.T) {
	s := NewReturnSeries(10)
	_, err := s.Variance()
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	require.NoError(t, s.AddReturn(ratio(t, 1, 100)))
	_, err = s.Variance()
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	require.NoError(t, s.AddReturn(ratio(t, -1, 100)))
	v, err := s.Variance()
	require.NoError(t, err)
	assert.False(t, v.IsNegative())
}

func TestCapacityExceeded(t *testing.T) {
	s := NewReturnSeries(2)
	require.NoError(t, s.AddReturn(ratio(t, 1, 100)))
	require.NoError(t, s.AddReturn(ratio(t, 2, 100)))

	err := s.AddReturn(ratio(t, 3, 100))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	// The failed append leaves the accumulator untouched.
	assert.Equal(t, 2, s.Count())
	assert.Len(t, s.Returns(), 2)
}

func TestAddPriceDerivesLogReturns(t *testing.T) {
	prices := []int64{100, 105, 102, 108}
	s := NewReturnSeries(0)
	for _, p := range prices {
		require.NoError(t, s.AddPrice(fixedpoint.FromInt64(p)))
	}
	require.Equal(t, len(prices)-1, s.Count())
	require.Len(t, s.Prices(), len(prices))

	for i := 1; i < len(prices); i++ {
		want := math.Log(float64(prices[i]) / float64(prices[i-1]))
		got, err := s.Return(i - 1)
		require.NoError(t, err)
		assert.InDelta(t, want, got.Float64(), 1e-6, "return %d", i-1)
	}
}

func TestAddPriceRejectsNonPositive(t *testing.T) {
	s := NewReturnSeries(10)
	assert.ErrorIs(t, s.AddPrice(fixedpoint.Zero()), fixedpoint.ErrDomain)
	assert.ErrorIs(t, s.AddPrice(fixedpoint.FromInt64(-5)), fixedpoint.ErrDomain)
	assert.Len(t, s.Prices(), 0)
}

func TestAddPriceCapacity(t *testing.T) {
	s := NewReturnSeries(2)
	require.NoError(t, s.AddPrice(fixedpoint.FromInt64(100)))
	require.NoError(t, s.AddPrice(fixedpoint.FromInt64(105)))
	assert.ErrorIs(t, s.AddPrice(fixedpoint.FromInt64(110)), ErrCapacityExceeded)
	assert.Len(t, s.Prices(), 2)
	assert.Equal(t, 1, s.Count())
}

func TestReturnAccessors(t *testing.T) {
	s := NewReturnSeries(10)
	require.NoError(t, s.AddReturn(ratio(t, 1, 100)))

	_, err := s.Return(-1)
	assert.Error(t, err)
	_, err = s.Return(1)
	assert.Error(t, err)

	got, err := s.Return(0)
	require.NoError(t, err)
	assert.True(t, got.Equal(ratio(t, 1, 100)))

	// Returns hands out a copy.
	all := s.Returns()
	all[0] = fixedpoint.FromInt64(99)
	again, err := s.Return(0)
	require.NoError(t, err)
	assert.True(t, again.Equal(ratio(t, 1, 100)))
}
