package units

import (
	"math"
	"testing"
)

// TestRoundKg verifies rounding to the nearest 2.5 kg, half up.
func TestRoundKg(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.0, 0},
		{1.25, 2.5},
		{2.5, 2.5},
		{3.7, 2.5},
		{3.75, 5},
		{61.3, 62.5},
		{100, 100},
		{101.24, 100},
		{101.25, 102.5},
	}

	for _, tt := range tests {
		if got := Round(tt.in, Kilograms); got != tt.want {
			t.Errorf("Round(%v, kg) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestRoundLb verifies rounding to the nearest 5 lb, half up.
func TestRoundLb(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{2.4, 0},
		{2.5, 5},
		{137.2, 135},
		{137.5, 140},
		{225, 225},
	}

	for _, tt := range tests {
		if got := Round(tt.in, Pounds); got != tt.want {
			t.Errorf("Round(%v, lb) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestRoundProducesMultiples verifies that any rounded display value is a
// whole multiple of the unit's increment.
func TestRoundProducesMultiples(t *testing.T) {
	for _, u := range []Unit{Kilograms, Pounds} {
		inc := Increment(u)
		for w := 0.0; w < 300; w += 1.7 {
			rounded := Round(ToDisplay(w, u), u)
			steps := rounded / inc
			if math.Abs(steps-math.Round(steps)) > 1e-9 {
				t.Fatalf("Round(ToDisplay(%v, %s)) = %v, not a multiple of %v", w, u, rounded, inc)
			}
		}
	}
}

// TestConvertRoundTrip verifies the idempotence contract: converting a
// rounded value to canonical kg and back, then rounding again, is a no-op.
func TestConvertRoundTrip(t *testing.T) {
	for _, u := range []Unit{Kilograms, Pounds} {
		for w := 0.0; w < 300; w += 2.3 {
			once := Round(ToDisplay(w, u), u)
			again := Round(ToDisplay(ToCanonicalKg(once, u), u), u)
			if math.Abs(once-again) > 1e-9 {
				t.Fatalf("round trip not idempotent for %v %s: first %v, second %v", w, u, once, again)
			}
		}
	}
}

// TestToDisplayKgIdentity verifies kg display values pass through unchanged.
func TestToDisplayKgIdentity(t *testing.T) {
	if got := ToDisplay(102.5, Kilograms); got != 102.5 {
		t.Errorf("ToDisplay(102.5, kg) = %v, want 102.5", got)
	}
	if got := ToCanonicalKg(102.5, Kilograms); got != 102.5 {
		t.Errorf("ToCanonicalKg(102.5, kg) = %v, want 102.5", got)
	}
}

// TestToDisplayLb verifies the kg→lb factor.
func TestToDisplayLb(t *testing.T) {
	got := ToDisplay(100, Pounds)
	if math.Abs(got-220.462) > 1e-9 {
		t.Errorf("ToDisplay(100, lb) = %v, want 220.462", got)
	}
	back := ToCanonicalKg(got, Pounds)
	if math.Abs(back-100) > 1e-9 {
		t.Errorf("ToCanonicalKg(%v, lb) = %v, want 100", got, back)
	}
}
