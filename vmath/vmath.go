package vmath

import (
	"math"
	"math/bits"
)

// Q32.32 Fixed Point constants
const (
	Shift = 32
	Scale = 1 << Shift
	Half  = 1 << (Shift - 1)
)

// --- Conversion ---

func FromInt(i int) int64       { return int64(i) << Shift }
func ToInt(f int64) int         { return int(f >> Shift) }
func FromFloat(f float64) int64 { return int64(f * Scale) }
func ToFloat(f int64) float64   { return float64(f) / Scale }

// Round converts to the nearest integer, halves away from negative infinity
func Round(f int64) int { return int((f + Half) >> Shift) }

// Abs returns absolute value
func Abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// MulDiv computes (a * b) / c with a 128-bit intermediate, saturating on overflow
// Returns 0 when c is 0
func MulDiv(a, b, c int64) int64 {
	if c == 0 || a == 0 || b == 0 {
		return 0
	}
	neg := (a < 0) != (b < 0) != (c < 0)
	ua, ub, uc := uint64(Abs(a)), uint64(Abs(b)), uint64(Abs(c))

	hi, lo := bits.Mul64(ua, ub)
	if hi >= uc {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	quo, _ := bits.Div64(hi, lo, uc)
	if quo > math.MaxInt64 {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	if neg {
		return -int64(quo)
	}
	return int64(quo)
}

// Lerp interpolates from a to b by the ratio num/den, clamped to [a, b]
func Lerp(a, b, num, den int64) int64 {
	if den <= 0 || num >= den {
		return b
	}
	if num <= 0 {
		return a
	}
	return a + MulDiv(b-a, num, den)
}

// DistanceApprox uses Alpha max plus beta min algorithm (error ~4%)
func DistanceApprox(dx, dy int64) int64 {
	dx, dy = Abs(dx), Abs(dy)
	if dx < dy {
		dx, dy = dy, dx
	}
	// dist = max + 0.375*min
	return dx + (dy >> 2) + (dy >> 3)
}
