package bits

import "math"

// Sentinel is a reserved raw code meaning "not available".
type Sentinel int64

// Available reports whether raw carries data rather than the reserved code.
func (s Sentinel) Available(raw int64) bool { return raw != int64(s) }

// Float returns the scaled value of raw, or NaN when raw is the sentinel.
func (s Sentinel) Float(raw int64, scale float64) float64 {
	if raw == int64(s) {
		return math.NaN()
	}
	return float64(raw) * scale
}

// NaN is the unavailable marker for floating-point fields.
func NaN() float64 { return math.NaN() }

// IsNaN reports whether v is the unavailable marker.
func IsNaN(v float64) bool { return math.IsNaN(v) }
