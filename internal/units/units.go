// Package units converts between kilograms (the canonical storage unit)
// and pounds, and rounds weights to the plate increments a barbell can
// actually be loaded to.
package units

import "math"

// Unit is a display unit for weights.
type Unit string

const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lb"
)

// kg → lb conversion factor.
const lbPerKg = 2.20462

// Increment returns the smallest loadable step for a unit: 2.5 kg or 5 lb.
func Increment(u Unit) float64 {
	if u == Pounds {
		return 5
	}
	return 2.5
}

// ToDisplay converts a canonical kg weight into the given display unit.
func ToDisplay(weightKg float64, u Unit) float64 {
	if u == Pounds {
		return weightKg * lbPerKg
	}
	return weightKg
}

// ToCanonicalKg converts a display-unit weight back to canonical kilograms.
func ToCanonicalKg(value float64, u Unit) float64 {
	if u == Pounds {
		return value / lbPerKg
	}
	return value
}

// Round rounds a display-unit value to the nearest increment for that unit,
// half up. Round is idempotent: Round(Round(v, u), u) == Round(v, u).
func Round(value float64, u Unit) float64 {
	inc := Increment(u)
	return math.Floor(value/inc+0.5) * inc
}
