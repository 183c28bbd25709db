// Package features derives per-line descriptors from extracted palm
// line geometry. The numbers feed the reading rules and are stored with
// every analysis so corrections can be re-scored later.
package features

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"palm-reader/internal/pipeline"
	"palm-reader/pkg/geometry"
)

// verticalSlope stands in for an infinite slope when the fitted line
// direction has no horizontal component.
const verticalSlope = 100.0

// LineFeatures summarizes one palm line. Only the metrics that apply to
// the line's category are set; the rest stay at their zero value.
type LineFeatures struct {
	Detected   bool    `json:"detected"`
	Desc       string  `json:"desc"`
	NormLength float64 `json:"norm_len,omitempty"`
	Curvature  float64 `json:"curvature,omitempty"`
	Slope      float64 `json:"slope,omitempty"`
	Complexity int     `json:"complexity,omitempty"`
}

// Extract computes descriptors for each category from the pipeline
// results. Width and height are the palm region dimensions the lines
// were extracted from; lengths are normalized against them so values
// stay comparable across image sizes.
func Extract(results map[pipeline.Category]pipeline.Result, width, height int, logger *logrus.Logger) map[pipeline.Category]LineFeatures {
	segments := make(map[pipeline.Category][][]geometry.PointInt, len(results))
	for cat, res := range results {
		if len(res.Points) > 0 {
			segments[cat] = [][]geometry.PointInt{res.Points}
		}
	}
	return FromSegments(segments, width, height, logger)
}

// FromSegments computes descriptors from raw polyline segments, as
// stored in analysis records or submitted by manual correction. Length
// metrics aggregate over all of a line's segments; shape metrics use
// the longest segment.
func FromSegments(segments map[pipeline.Category][][]geometry.PointInt, width, height int, logger *logrus.Logger) map[pipeline.Category]LineFeatures {
	out := make(map[pipeline.Category]LineFeatures, len(pipeline.Categories()))
	for _, cat := range pipeline.Categories() {
		total, longest := measure(segments[cat])
		if longest == nil {
			out[cat] = LineFeatures{Desc: "not detected"}
			continue
		}
		out[cat] = describe(cat, total, longest, segments[cat], width, height, logger)
	}
	return out
}

// measure returns the summed arc length of all non-trivial segments and
// the longest one.
func measure(segments [][]geometry.PointInt) (float64, []geometry.PointInt) {
	var total, best float64
	var longest []geometry.PointInt
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		l := pipeline.PathLength(seg)
		total += l
		if longest == nil || l > best {
			best = l
			longest = seg
		}
	}
	return total, longest
}

func describe(cat pipeline.Category, total float64, longest []geometry.PointInt, segments [][]geometry.PointInt, width, height int, logger *logrus.Logger) LineFeatures {
	f := LineFeatures{Detected: true}

	switch cat {
	case pipeline.Life:
		longSide := width
		if height > longSide {
			longSide = height
		}
		if longSide > 0 {
			f.NormLength = total / float64(longSide)
		}
		if width > 0 {
			box := geometry.BoundingBoxInt(longest)
			f.Curvature = float64(box.Width) / float64(width)
		}
		f.Desc = fmt.Sprintf("length index %.2f, arc index %.2f", f.NormLength, f.Curvature)

	case pipeline.Head:
		if width > 0 {
			f.NormLength = total / float64(width)
		}
		slope, err := fitSlope(longest)
		if err != nil {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"category": cat.String(),
					"error":    err.Error(),
				}).Debug("Line fit failed, using zero slope")
			}
			slope = 0
		}
		if slope == verticalSlope && logger != nil {
			logger.WithField("category", cat.String()).Debug("Vertical line fit, using sentinel slope")
		}
		f.Slope = slope
		f.Desc = fmt.Sprintf("length index %.2f, slope %.2f", f.NormLength, f.Slope)

	case pipeline.Heart:
		if width > 0 {
			f.NormLength = total / float64(width)
		}
		for _, seg := range segments {
			f.Complexity += complexity(seg)
		}
		f.Desc = fmt.Sprintf("length index %.2f, complexity %d", f.NormLength, f.Complexity)
	}

	return f
}

// fitSlope fits a straight line through the points by total least
// squares and returns its slope in image coordinates. The principal
// direction is the eigenvector of the 2x2 scatter matrix with the
// largest eigenvalue, which matches a perpendicular-distance fit.
func fitSlope(points []geometry.PointInt) (float64, error) {
	if len(points) < 2 {
		return 0, fmt.Errorf("need at least 2 points, got %d", len(points))
	}

	var mx, my float64
	for _, p := range points {
		mx += float64(p.X)
		my += float64(p.Y)
	}
	n := float64(len(points))
	mx /= n
	my /= n

	var sxx, sxy, syy float64
	for _, p := range points {
		dx := float64(p.X) - mx
		dy := float64(p.Y) - my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}

	scatter := mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy})
	var eig mat.EigenSym
	if !eig.Factorize(scatter, true) {
		return 0, fmt.Errorf("eigendecomposition failed")
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues come back in ascending order, so the principal
	// direction is the second column.
	vx := vectors.At(0, 1)
	vy := vectors.At(1, 1)
	if vx == 0 {
		return verticalSlope, nil
	}
	return vy / vx, nil
}

// complexity counts the vertices left after simplifying a segment with
// a tolerance of 1% of its arc length. Straight lines collapse to a
// couple of points while wavy or broken ones keep many.
func complexity(points []geometry.PointInt) int {
	if len(points) < 3 {
		return len(points)
	}

	pts := make([]image.Point, len(points))
	for i, p := range points {
		pts[i] = image.Pt(p.X, p.Y)
	}
	pv := gocv.NewPointVectorFromPoints(pts)
	defer pv.Close()

	arc := gocv.ArcLength(pv, false)
	approx := gocv.ApproxPolyDP(pv, 0.01*arc, false)
	defer approx.Close()

	return approx.Size()
}
