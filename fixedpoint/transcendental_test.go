package fixedpoint

import (
	"errors"
	"math"
	"testing"
)

func TestSqrt(t *testing.T) {
	got, err := Sqrt(FromInt64(4))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(FromInt64(2)) {
		t.Errorf("sqrt(4) = %s, want 2", got)
	}

	got, err = Sqrt(FromInt64(2))
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, math.Sqrt2, 1e-9)

	got, err = Sqrt(Zero())
	if err != nil || !got.IsZero() {
		t.Errorf("sqrt(0) = %s (%v), want 0", got, err)
	}

	quarter, _ := FromRatio(1, 4)
	got, err = Sqrt(quarter)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, 0.5, 1e-9)

	if _, err := Sqrt(FromInt64(-1)); !errors.Is(err, ErrDomain) {
		t.Errorf("sqrt(-1): expected ErrDomain, got %v", err)
	}
}

func TestLn(t *testing.T) {
	got, err := Ln(One())
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("ln(1) = %s, want exactly 0", got)
	}

	got, err = Ln(FromInt64(2))
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, math.Ln2, 1e-9)

	// ln(e): the normalized argument sits near the edge of the reduction
	// interval, the worst case for the truncated series.
	e, err := ParseDecimal("2.718281828459045")
	if err != nil {
		t.Fatal(err)
	}
	got, err = Ln(e)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, 1, 5e-4)

	// 0.25 normalizes to exactly 1/2, the far edge of the series interval,
	// where the six-term truncation error peaks.
	quarter, _ := FromRatio(1, 4)
	got, err = Ln(quarter)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, math.Log(0.25), 5e-3)

	if _, err := Ln(Zero()); !errors.Is(err, ErrDomain) {
		t.Errorf("ln(0): expected ErrDomain, got %v", err)
	}
	if _, err := Ln(FromInt64(-3)); !errors.Is(err, ErrDomain) {
		t.Errorf("ln(-3): expected ErrDomain, got %v", err)
	}
}

func TestExp(t *testing.T) {
	got, err := Exp(Zero())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(One()) {
		t.Errorf("exp(0) = %s, want exactly 1", got)
	}

	got, err = Exp(One())
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, math.E, 1e-9)

	minusTwo := FromInt64(-2)
	got, err = Exp(minusTwo)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, math.Exp(-2), 1e-9)

	if _, err := Exp(FromInt64(100)); !errors.Is(err, ErrOverflow) {
		t.Errorf("exp(100): expected ErrOverflow, got %v", err)
	}
}

func TestLnExpRoundTrip(t *testing.T) {
	for _, x := range []float64{-1.0, -0.5, -0.1, 0.1, 0.5, 1.0, 2.5} {
		v, err := FromRatio(int64(x*1000), 1000)
		if err != nil {
			t.Fatal(err)
		}
		ex, err := Exp(v)
		if err != nil {
			t.Fatalf("exp(%v): %v", x, err)
		}
		back, err := Ln(ex)
		if err != nil {
			t.Fatalf("ln(exp(%v)): %v", x, err)
		}
		approx(t, back, x, 5e-4)
	}
}

func TestCosh(t *testing.T) {
	got, err := Cosh(Zero())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(One()) {
		t.Errorf("cosh(0) = %s, want exactly 1", got)
	}

	got, err = Cosh(One())
	if err != nil {
		t.Fatal(err)
	}
	approx(t, got, math.Cosh(1), 1e-9)

	// cosh is even.
	neg, err := Cosh(FromInt64(-1))
	if err != nil {
		t.Fatal(err)
	}
	if !neg.Equal(got) {
		t.Errorf("cosh(-1) = %s != cosh(1) = %s", neg, got)
	}
}
