package pipeline

import (
	"math"

	"palm-reader/pkg/geometry"
)

// Score rates how much of the expected line the path covers, as its
// arc length normalized against the region diagonal scaled by
// opts.ConfidenceNorm, capped at 1. An empty path or degenerate region
// scores zero.
func Score(path []geometry.PointInt, width, height int, opts Options) (length, confidence float64) {
	length = PathLength(path)
	return length, ScoreLength(length, width, height, opts)
}

// ScoreLength rates an arc length directly. Manually corrected lines
// are scored through this so they rank exactly like extracted ones.
func ScoreLength(length float64, width, height int, opts Options) float64 {
	diagonal := math.Hypot(float64(width), float64(height))
	if diagonal <= 0 {
		return 0
	}

	confidence := length / (diagonal * opts.ConfidenceNorm)
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
