package fixedpoint

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Series lengths are fixed constants of the implementation so that results
// are bit-identical across runs and platforms.
const (
	lnSeriesTerms  = 6
	expSeriesTerms = 10
)

var (
	// ln 2 · 2^64, truncated (0xB17217F7D1CF79AB).
	ln2         = Value{raw: sdkmath.NewIntFromUint64(12786308645202655659)}
	half        = Value{raw: sdkmath.NewIntFromBigInt(new(big.Int).Rsh(scaleBig, 1))}
	threeHalves = Value{raw: sdkmath.NewIntFromBigInt(new(big.Int).Rsh(new(big.Int).Mul(scaleBig, big.NewInt(3)), 1))}
)

// Sqrt returns the square root of x, failing with ErrDomain for negative
// input. Newton's iteration runs on the widened raw value until the guess
// stops decreasing, which for integer Newton is the floor of the exact root.
func Sqrt(x Value) (Value, error) {
	if x.IsNegative() {
		return Value{}, ErrDomain
	}
	if x.IsZero() {
		return Zero(), nil
	}
	z := new(big.Int).Lsh(x.rawInt().BigInt(), FracBits)
	y := new(big.Int).Set(z)
	g := new(big.Int).Rsh(new(big.Int).Add(z, big.NewInt(1)), 1)
	for g.Cmp(y) < 0 {
		y.Set(g)
		g.Div(z, y)
		g.Add(g, y)
		g.Rsh(g, 1)
	}
	return FromRaw(sdkmath.NewIntFromBigInt(y))
}

// Ln returns the natural logarithm of x, failing with ErrDomain for x <= 0.
//
// The input is normalized into [1/2, 3/2] by repeated halving/doubling while
// tracking the net power of two k, then ln(1+z) is evaluated with the
// alternating series sum (-1)^(n+1) z^n / n over lnSeriesTerms terms and
// k·ln2 is added back.
func Ln(x Value) (Value, error) {
	if x.IsZero() || x.IsNegative() {
		return Value{}, ErrDomain
	}
	v := x
	k := int64(0)
	for v.Cmp(threeHalves) >= 0 {
		v = Value{raw: v.rawInt().QuoRaw(2)}
		k++
	}
	for v.LT(half) {
		v = Value{raw: v.rawInt().MulRaw(2)}
		k--
	}
	z, err := v.Sub(One())
	if err != nil {
		return Value{}, err
	}
	sum := z
	power := z
	for n := int64(2); n <= lnSeriesTerms; n++ {
		power, err = power.Mul(z)
		if err != nil {
			return Value{}, err
		}
		term, err := power.Div(FromInt64(n))
		if err != nil {
			return Value{}, err
		}
		if n%2 == 0 {
			sum, err = sum.Sub(term)
		} else {
			sum, err = sum.Add(term)
		}
		if err != nil {
			return Value{}, err
		}
	}
	shift, err := ln2.Mul(FromInt64(k))
	if err != nil {
		return Value{}, err
	}
	return sum.Add(shift)
}

// Exp returns e^x. The argument is reduced to x = n·ln2 + r with
// r in [-ln2/2, ln2/2], e^r is evaluated with expSeriesTerms Maclaurin terms
// and the result is scaled by 2^n. Results outside the representable range
// fail with ErrOverflow.
func Exp(x Value) (Value, error) {
	q, err := x.Div(ln2)
	if err != nil {
		return Value{}, err
	}
	rounded := q
	if q.IsNegative() {
		rounded, err = q.Sub(half)
	} else {
		rounded, err = q.Add(half)
	}
	if err != nil {
		return Value{}, err
	}
	n, err := rounded.Int64()
	if err != nil {
		return Value{}, err
	}
	if n > 64 {
		return Value{}, ErrOverflow
	}
	scaled, err := ln2.Mul(FromInt64(n))
	if err != nil {
		return Value{}, err
	}
	r, err := x.Sub(scaled)
	if err != nil {
		return Value{}, err
	}
	sum := One()
	term := One()
	for i := int64(1); i <= expSeriesTerms; i++ {
		term, err = term.Mul(r)
		if err != nil {
			return Value{}, err
		}
		term, err = term.Div(FromInt64(i))
		if err != nil {
			return Value{}, err
		}
		sum, err = sum.Add(term)
		if err != nil {
			return Value{}, err
		}
	}
	raw := sum.rawInt().BigInt()
	switch {
	case n >= 0:
		raw.Lsh(raw, uint(n))
	case n < -128:
		return Zero(), nil
	default:
		raw.Rsh(raw, uint(-n))
	}
	return FromRaw(sdkmath.NewIntFromBigInt(raw))
}

// Cosh returns the hyperbolic cosine (e^x + e^-x) / 2.
func Cosh(x Value) (Value, error) {
	ep, err := Exp(x)
	if err != nil {
		return Value{}, err
	}
	nx, err := x.Neg()
	if err != nil {
		return Value{}, err
	}
	en, err := Exp(nx)
	if err != nil {
		return Value{}, err
	}
	sum, err := ep.Add(en)
	if err != nil {
		return Value{}, err
	}
	return sum.Div(FromInt64(2))
}
