// Package geom holds the small geometry and numeric helpers shared by the
// grid and tracking layers: angle normalisation, exponential smoothing,
// and planar distance.
package geom

import "math"

// NormalizeAngle wraps an angle in radians into [-π, π].
func NormalizeAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad < -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}

// AngleDiff returns the absolute angular difference between two headings,
// normalised to [0, π].
func AngleDiff(a, b float64) float64 {
	return math.Abs(NormalizeAngle(a - b))
}

// EuclideanDistance returns the planar distance between (x1,y1) and (x2,y2).
func EuclideanDistance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// Smooth applies exponential smoothing with weight alpha on the new value.
// alpha=1 takes the new value outright; alpha=0 keeps the previous one.
func Smooth(prev, next, alpha float64) float64 {
	return (1-alpha)*prev + alpha*next
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp clamps v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
