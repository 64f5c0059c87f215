// Package volatility derives annualized volatility (sigma) and drift (u)
// from accumulated return statistics, and solves the implied-volatility
// fixed-point equation from a single pool-fee-return observation.
package volatility

import (
	"fee-engine-go/fixedpoint"
	"fee-engine-go/stats"
)

// annualization is sqrt(252) at the reference precision, 15.87401.
var annualization fixedpoint.Value

func init() {
	v, err := fixedpoint.FromRatio(1587401, 100000)
	if err != nil {
		panic(err)
	}
	annualization = v
}

// Annualization returns the annualization constant applied to the per-sample
// standard deviation.
func Annualization() fixedpoint.Value { return annualization }

// Estimate is an annualized volatility and drift pair.
type Estimate struct {
	Sigma fixedpoint.Value
	Drift fixedpoint.Value
}

// SigmaAndDrift computes the closed-form estimate from a return series:
// sigma = sqrt(variance) * sqrt(252), drift = mean - sigma^2/2.
func SigmaAndDrift(series *stats.ReturnSeries) (Estimate, error) {
	variance, err := series.Variance()
	if err != nil {
		return Estimate{}, err
	}
	stdDev, err := fixedpoint.Sqrt(variance)
	if err != nil {
		return Estimate{}, err
	}
	sigma, err := stdDev.Mul(annualization)
	if err != nil {
		return Estimate{}, err
	}
	drift, err := Drift(series.Mean(), sigma)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Sigma: sigma, Drift: drift}, nil
}

// Drift returns muPool - sigma^2/2.
func Drift(muPool, sigma fixedpoint.Value) (fixedpoint.Value, error) {
	sq, err := sigma.Mul(sigma)
	if err != nil {
		return fixedpoint.Value{}, err
	}
	halfSq, err := sq.Div(fixedpoint.FromInt64(2))
	if err != nil {
		return fixedpoint.Value{}, err
	}
	return muPool.Sub(halfSq)
}

// SolverConfig bounds the implied-volatility iteration.
type SolverConfig struct {
	MaxIterations int
	Tolerance     fixedpoint.Value
}

// DefaultSolverConfig returns 32 iterations with a 1e-9 tolerance.
func DefaultSolverConfig() SolverConfig {
	tol, err := fixedpoint.FromRatio(1, 1_000_000_000)
	if err != nil {
		panic(err)
	}
	return SolverConfig{MaxIterations: 32, Tolerance: tol}
}

// Result carries the last computed sigma/drift pair. Converged reports
// whether the iteration met the tolerance within its budget; the pair is
// returned either way so callers can choose to accept a truncated solve.
type Result struct {
	Sigma      fixedpoint.Value
	Drift      fixedpoint.Value
	Iterations int
	Converged  bool
}

// ImpliedSigmaAndDrift solves the implied-volatility equation for a single
// fee return muPool over period t (in years). Starting from u0 = muPool it
// iterates
//
//	sigma_i = sqrt((8/t) * (muPool*t - ln(cosh(u_i*t/2))))
//	u_{i+1} = muPool - sigma_i^2/2
//
// until |u_{i+1} - u_i| < tolerance or the iteration budget is exhausted.
// A negative expression under the root fails with fixedpoint.ErrDomain: the
// observation admits no real volatility.
func ImpliedSigmaAndDrift(muPool, t fixedpoint.Value, cfg SolverConfig) (Result, error) {
	if t.IsZero() || t.IsNegative() {
		return Result{}, fixedpoint.ErrDomain
	}
	if cfg.MaxIterations <= 0 || cfg.Tolerance.IsZero() {
		def := DefaultSolverConfig()
		if cfg.MaxIterations <= 0 {
			cfg.MaxIterations = def.MaxIterations
		}
		if cfg.Tolerance.IsZero() {
			cfg.Tolerance = def.Tolerance
		}
	}
	eightOverT, err := fixedpoint.FromInt64(8).Div(t)
	if err != nil {
		return Result{}, err
	}
	halfT, err := t.Div(fixedpoint.FromInt64(2))
	if err != nil {
		return Result{}, err
	}
	muT, err := muPool.Mul(t)
	if err != nil {
		return Result{}, err
	}

	u := muPool
	var sigma fixedpoint.Value
	for i := 1; i <= cfg.MaxIterations; i++ {
		arg, err := u.Mul(halfT)
		if err != nil {
			return Result{}, err
		}
		ch, err := fixedpoint.Cosh(arg)
		if err != nil {
			return Result{}, err
		}
		lc, err := fixedpoint.Ln(ch)
		if err != nil {
			return Result{}, err
		}
		inner, err := muT.Sub(lc)
		if err != nil {
			return Result{}, err
		}
		sq, err := eightOverT.Mul(inner)
		if err != nil {
			return Result{}, err
		}
		sigma, err = fixedpoint.Sqrt(sq)
		if err != nil {
			return Result{}, err
		}
		next, err := Drift(muPool, sigma)
		if err != nil {
			return Result{}, err
		}
		diff, err := next.Sub(u)
		if err != nil {
			return Result{}, err
		}
		diff, err = diff.Abs()
		if err != nil {
			return Result{}, err
		}
		u = next
		if diff.LT(cfg.Tolerance) {
			return Result{Sigma: sigma, Drift: u, Iterations: i, Converged: true}, nil
		}
	}
	return Result{Sigma: sigma, Drift: u, Iterations: cfg.MaxIterations, Converged: false}, nil
}
