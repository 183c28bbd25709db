package pipeline

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"palm-reader/internal/landmark"
	"palm-reader/pkg/geometry"
)

// Zone geometry ratios, relative to region height (head) or to the
// index-to-pinky base span (heart).
const (
	headDropNear   = 0.1
	headDropFar    = 0.3
	heartDropRatio = 0.35
)

// BuildMask renders the search region for a line category as a filled
// polygon anchored to the hand landmarks. Landmark sets too short to
// anchor the polygon yield an all-zero mask rather than an error; the
// empty mask flows through the pipeline and scores zero confidence.
func BuildMask(category Category, lm []geometry.PointInt, width, height int) gocv.Mat {
	mask := gocv.Zeros(height, width, gocv.MatTypeCV8UC1)

	verts, ok := zonePolicies[category].vertices(lm, width, height)
	if !ok {
		return mask
	}

	poly := make([]image.Point, len(verts))
	for i, v := range verts {
		poly[i] = image.Pt(v.X, v.Y)
	}

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pts.Close()
	gocv.FillPoly(&mask, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	return mask
}

// palmCenter is the centroid of the wrist and the index/pinky bases.
func palmCenter(lm []geometry.PointInt) geometry.PointInt {
	p0 := lm[landmark.Wrist]
	p5 := lm[landmark.IndexMCP]
	p17 := lm[landmark.PinkyMCP]
	return geometry.PointInt{
		X: (p0.X + p5.X + p17.X) / 3,
		Y: (p0.Y + p5.Y + p17.Y) / 3,
	}
}

// webPoint is the midpoint of the thumb-index web.
func webPoint(lm []geometry.PointInt) geometry.PointInt {
	return geometry.Midpoint(lm[landmark.ThumbMCP], lm[landmark.IndexMCP])
}

// The life line wraps around the thumb ball: from the wrist along the
// thumb base landmarks to the web, then back toward the palm center.
func lifeVertices(lm []geometry.PointInt, width, height int) ([]geometry.PointInt, bool) {
	if len(lm) <= landmark.PinkyMCP {
		return nil, false
	}

	center := palmCenter(lm)
	inner := geometry.Midpoint(center, lm[landmark.Wrist])

	return []geometry.PointInt{
		lm[landmark.Wrist],
		lm[landmark.ThumbCMC],
		lm[landmark.ThumbMCP],
		webPoint(lm),
		inner,
	}, true
}

// The head line crosses the mid palm: from the web past the index base
// toward a band below the pinky base, closed through the palm center.
func headVertices(lm []geometry.PointInt, width, height int) ([]geometry.PointInt, bool) {
	if len(lm) <= landmark.PinkyMCP {
		return nil, false
	}

	p17 := lm[landmark.PinkyMCP]
	near := geometry.PointInt{X: p17.X, Y: p17.Y + int(float64(height)*headDropNear)}
	far := geometry.PointInt{X: p17.X, Y: p17.Y + int(float64(height)*headDropFar)}

	return []geometry.PointInt{
		webPoint(lm),
		lm[landmark.IndexMCP],
		near,
		far,
		palmCenter(lm),
	}, true
}

// The heart line runs just below the finger bases: the zone spans the
// four base landmarks and a band dropped below the index and pinky
// bases by a fraction of their span.
func heartVertices(lm []geometry.PointInt, width, height int) ([]geometry.PointInt, bool) {
	if len(lm) <= landmark.PinkyMCP {
		return nil, false
	}

	p5 := lm[landmark.IndexMCP]
	p17 := lm[landmark.PinkyMCP]
	offset := int(heartDropRatio * p5.Distance(p17))

	return []geometry.PointInt{
		p17,
		lm[landmark.RingMCP],
		lm[landmark.MiddleMCP],
		p5,
		{X: p5.X, Y: p5.Y + offset},
		{X: p17.X, Y: p17.Y + offset},
	}, true
}
