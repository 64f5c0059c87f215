// Package fixedpoint implements signed Q64.64 fixed-point arithmetic on top
// of cosmossdk.io/math integers. A Value stores the real number multiplied by
// 2^64 and is constrained to the signed 128-bit range; operations whose
// mathematical result leaves that range fail with ErrOverflow instead of
// wrapping. All quotients truncate toward zero.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrOverflow       = errors.New("fixed-point overflow")
	ErrDivisionByZero = errors.New("fixed-point division by zero")
	ErrDomain         = errors.New("fixed-point argument outside domain")
)

// FracBits is the number of fractional bits in the representation.
const FracBits = 64

var (
	scaleBig = new(big.Int).Lsh(big.NewInt(1), FracBits)
	scaleInt = sdkmath.NewIntFromBigInt(scaleBig)
	maxRaw   = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)))
	minRaw   = sdkmath.NewIntFromBigInt(new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127)))
)

// Value is a signed Q64.64 number. The zero Value represents 0.
type Value struct {
	raw sdkmath.Int
}

func (v Value) rawInt() sdkmath.Int {
	if v.raw.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v.raw
}

func checkRange(raw sdkmath.Int) (Value, error) {
	if raw.GT(maxRaw) || raw.LT(minRaw) {
		return Value{}, ErrOverflow
	}
	return Value{raw: raw}, nil
}

// Zero returns the value 0.
func Zero() Value { return Value{raw: sdkmath.ZeroInt()} }

// One returns the value 1.
func One() Value { return Value{raw: scaleInt} }

// FromInt64 converts an integer to fixed point.
func FromInt64(n int64) Value {
	return Value{raw: sdkmath.NewInt(n).Mul(scaleInt)}
}

// FromRatio returns num/den as a fixed-point value.
func FromRatio(num, den int64) (Value, error) {
	if den == 0 {
		return Value{}, ErrDivisionByZero
	}
	raw := sdkmath.NewInt(num).Mul(scaleInt).Quo(sdkmath.NewInt(den))
	return checkRange(raw)
}

// FromRaw wraps a raw 2^64-scaled integer, rejecting values outside the
// representable range.
func FromRaw(raw sdkmath.Int) (Value, error) {
	return checkRange(raw)
}

// ParseDecimal parses a decimal literal such as "-12.345" into fixed point.
func ParseDecimal(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, fmt.Errorf("parse fixed point: empty string")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	digits := intPart + fracPart
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Value{}, fmt.Errorf("parse fixed point: invalid literal %q", s)
		}
	}
	num, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Value{}, fmt.Errorf("parse fixed point: invalid literal %q", s)
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(fracPart))), nil)
	num.Mul(num, scaleBig)
	num.Quo(num, den)
	if neg {
		num.Neg(num)
	}
	return checkRange(sdkmath.NewIntFromBigInt(num))
}

// Int64 truncates toward zero to the nearest integer.
func (v Value) Int64() (int64, error) {
	q := v.rawInt().Quo(scaleInt)
	if !q.IsInt64() {
		return 0, ErrOverflow
	}
	return q.Int64(), nil
}

// Add returns v + o.
func (v Value) Add(o Value) (Value, error) {
	return checkRange(v.rawInt().Add(o.rawInt()))
}

// Sub returns v - o.
func (v Value) Sub(o Value) (Value, error) {
	return checkRange(v.rawInt().Sub(o.rawInt()))
}

// Mul returns v * o. The 256-bit product is computed before rescaling so no
// precision is lost ahead of the final truncation.
func (v Value) Mul(o Value) (Value, error) {
	return checkRange(v.rawInt().Mul(o.rawInt()).Quo(scaleInt))
}

// Div returns v / o, failing on a zero divisor. The dividend is widened by
// 2^64 before the division.
func (v Value) Div(o Value) (Value, error) {
	if o.IsZero() {
		return Value{}, ErrDivisionByZero
	}
	return checkRange(v.rawInt().Mul(scaleInt).Quo(o.rawInt()))
}

// Neg returns -v.
func (v Value) Neg() (Value, error) {
	return checkRange(v.rawInt().Neg())
}

// Abs returns |v|.
func (v Value) Abs() (Value, error) {
	return checkRange(v.rawInt().Abs())
}

// Cmp returns -1, 0 or 1 comparing v against o.
func (v Value) Cmp(o Value) int {
	return v.rawInt().BigInt().Cmp(o.rawInt().BigInt())
}

// Equal reports v == o.
func (v Value) Equal(o Value) bool { return v.rawInt().Equal(o.rawInt()) }

// LT reports v < o.
func (v Value) LT(o Value) bool { return v.rawInt().LT(o.rawInt()) }

// GT reports v > o.
func (v Value) GT(o Value) bool { return v.rawInt().GT(o.rawInt()) }

// IsZero reports v == 0.
func (v Value) IsZero() bool { return v.rawInt().IsZero() }

// IsNegative reports v < 0.
func (v Value) IsNegative() bool { return v.rawInt().IsNegative() }

// Raw returns the underlying 2^64-scaled integer.
func (v Value) Raw() sdkmath.Int { return v.rawInt() }

// Float64 returns an approximate float view. Reporting only; never feed the
// result back into stored state.
func (v Value) Float64() float64 {
	f := new(big.Float).SetInt(v.rawInt().BigInt())
	f.Quo(f, new(big.Float).SetInt(scaleBig))
	out, _ := f.Float64()
	return out
}

// String renders the value with six decimal places, truncated.
func (v Value) String() string {
	raw := v.rawInt().BigInt()
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	intPart := new(big.Int).Rsh(abs, FracBits)
	frac := new(big.Int).And(abs, new(big.Int).Sub(scaleBig, big.NewInt(1)))
	frac.Mul(frac, big.NewInt(1_000_000))
	frac.Rsh(frac, FracBits)
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%06d", sign, intPart.String(), frac)
}
