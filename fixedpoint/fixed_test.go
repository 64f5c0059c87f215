package fixedpoint

import (
	"errors"
	"math"
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
)

func approx(t *testing.T, got Value, want float64, tol float64) {
	t.Helper()
	if d := math.Abs(got.Float64() - want); d > tol {
		t.Errorf("got %v, want %v (diff %v > tol %v)", got.Float64(), want, d, tol)
	}
}

func TestFromInt64RoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		got, err := FromInt64(n).Int64()
		if err != nil {
			t.Fatalf("Int64(%d): %v", n, err)
		}
		if got != n {
			t.Errorf("round trip %d: got %d", n, got)
		}
	}
}

func TestInt64TruncatesTowardZero(t *testing.T) {
	v, err := FromRatio(-3, 2) // -1.5
	if err != nil {
		t.Fatal(err)
	}
	n, err := v.Int64()
	if err != nil {
		t.Fatal(err)
	}
	if n != -1 {
		t.Errorf("trunc(-1.5) = %d, want -1", n)
	}

	v, _ = FromRatio(7, 2) // 3.5
	n, _ = v.Int64()
	if n != 3 {
		t.Errorf("trunc(3.5) = %d, want 3", n)
	}
}

func TestArithmetic(t *testing.T) {
	a, _ := FromRatio(3, 2) // 1.5
	b := FromInt64(2)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, sum, 3.5, 1e-12)

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, diff, -0.5, 1e-12)

	prod, err := a.Mul(b)
	if err != nil {
		t.Fatal(err)
	}
	if !prod.Equal(FromInt64(3)) {
		t.Errorf("1.5*2 = %s, want 3", prod)
	}

	quot, err := FromInt64(1).Div(FromInt64(3))
	if err != nil {
		t.Fatal(err)
	}
	back, err := quot.Mul(FromInt64(3))
	if err != nil {
		t.Fatal(err)
	}
	approx(t, back, 1, 1e-12)
}

func TestDivisionByZero(t *testing.T) {
	_, err := FromInt64(1).Div(Zero())
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
	_, err = FromRatio(1, 0)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("FromRatio: expected ErrDivisionByZero, got %v", err)
	}
}

func TestOverflow(t *testing.T) {
	big62 := FromInt64(1 << 62)
	_, err := big62.Mul(FromInt64(4))
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("2^62 * 4: expected ErrOverflow, got %v", err)
	}

	// 2^62 + 2^62 = 2^63, whose raw value is exactly 2^127: one past max.
	if _, err = big62.Add(big62); !errors.Is(err, ErrOverflow) {
		t.Errorf("2^62 + 2^62: expected ErrOverflow, got %v", err)
	}
	half62 := FromInt64(1 << 61)
	if _, err = half62.Add(half62); err != nil {
		t.Errorf("2^61 + 2^61: unexpected error %v", err)
	}

	// Negating the most negative representable value overflows.
	minValue, err := FromRaw(sdkmath.NewIntFromBigInt(
		new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := minValue.Neg(); !errors.Is(err, ErrOverflow) {
		t.Errorf("Neg(min): expected ErrOverflow, got %v", err)
	}
	if _, err := minValue.Abs(); !errors.Is(err, ErrOverflow) {
		t.Errorf("Abs(min): expected ErrOverflow, got %v", err)
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		num  int64
		den  int64
	}{
		{"1.5", 3, 2},
		{"-0.25", -1, 4},
		{"10", 10, 1},
		{"+2.0", 2, 1},
		{"0.000001", 1, 1_000_000},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q): %v", tc.in, err)
		}
		want, err := FromRatio(tc.num, tc.den)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tc.in, got, want)
		}
	}

	for _, bad := range []string{"", "abc", "1.2.3", "--1"} {
		if _, err := ParseDecimal(bad); err == nil {
			t.Errorf("ParseDecimal(%q): expected error", bad)
		}
	}
}

func TestComparisonsAndString(t *testing.T) {
	a, _ := FromRatio(-3, 2)
	if !a.IsNegative() || a.IsZero() {
		t.Errorf("-1.5 sign checks failed")
	}
	if got := a.String(); got != "-1.500000" {
		t.Errorf("String() = %q, want -1.500000", got)
	}
	if a.Cmp(Zero()) >= 0 || !a.LT(Zero()) || Zero().GT(a) != true {
		t.Errorf("comparison against zero failed")
	}

	var zero Value // zero value usable as 0
	if !zero.IsZero() {
		t.Errorf("zero Value should equal 0")
	}
	sum, err := zero.Add(One())
	if err != nil || !sum.Equal(One()) {
		t.Errorf("0 + 1 = %s (%v), want 1", sum, err)
	}
}
