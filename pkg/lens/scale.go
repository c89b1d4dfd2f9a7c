// Package lens turns raw lens-position readings into a normalized UI ratio.
//
// Readings come from driver metadata whose keys differ between hardware
// generations, and whose near/far ends may be numerically inverted. Nothing
// here is used for control decisions; it only feeds the focus ring readout.
package lens

// LinearScale maps a closed domain [Min, Max] onto [0, 1].
type LinearScale struct {
	min, max   float64
	degenerate bool
}

// NewLinearScale builds a scale from two domain ends in any order. An
// inverted pair is swapped so the scale stays monotonic. The pair (0, 0)
// yields a degenerate scale that maps everything to 0 and contains nothing.
func NewLinearScale(lo, hi float64) LinearScale {
	if lo == 0 && hi == 0 {
		return LinearScale{degenerate: true}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return LinearScale{min: lo, max: hi}
}

// Min returns the lower domain bound.
func (s LinearScale) Min() float64 { return s.min }

// Max returns the upper domain bound.
func (s LinearScale) Max() float64 { return s.max }

// Degenerate reports whether the scale was built from (0, 0).
func (s LinearScale) Degenerate() bool { return s.degenerate }

// Contains reports whether v lies inside the domain.
func (s LinearScale) Contains(v float64) bool {
	if s.degenerate {
		return false
	}
	return v >= s.min && v <= s.max
}

// Scale maps v to [0, 1]. Callers check Contains first; a zero-width domain
// maps to 0.
func (s LinearScale) Scale(v float64) float64 {
	if s.degenerate || s.max == s.min {
		return 0
	}
	return (v - s.min) / (s.max - s.min)
}
