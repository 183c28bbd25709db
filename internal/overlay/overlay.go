// Package overlay renders detection results onto the source photo and
// shapes line paths for export.
package overlay

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"palm-reader/internal/detect"
	"palm-reader/internal/pipeline"
	"palm-reader/pkg/colorutil"
	"palm-reader/pkg/geometry"
)

const (
	// MinConfidence filters lines too weak to draw or export.
	MinConfidence = 0.1
	// ExportEpsilon controls polyline simplification, as a fraction of
	// arc length, when paths are saved for manual correction.
	ExportEpsilon = 0.005
	// lineAlpha blends the line layer over the photo so the palm stays
	// visible underneath.
	lineAlpha = 0.7
)

var boxColor = colorutil.Yellow

// Annotate draws the detected palm lines, the crop box and the hand
// label onto the full-resolution image in place. Lines below
// MinConfidence are skipped.
func Annotate(img *gocv.Mat, hand *detect.Hand, results map[pipeline.Category]pipeline.Result) {
	thickness := max(2, img.Cols()/300)

	layer := img.Clone()
	defer layer.Close()

	origin := geometry.PointInt{X: hand.Region.X, Y: hand.Region.Y}
	for _, cat := range pipeline.Categories() {
		res, ok := results[cat]
		if !ok || len(res.Points) == 0 || res.Confidence <= MinConfidence {
			continue
		}

		pts := toImagePoints(Translate(res.Points, origin))
		contours := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		gocv.DrawContours(&layer, contours, -1, cat.Color(), thickness)
		contours.Close()
	}

	gocv.AddWeighted(layer, lineAlpha, *img, 1-lineAlpha, 0, img)

	box := image.Rect(hand.Region.X, hand.Region.Y, hand.Region.X+hand.Region.Width, hand.Region.Y+hand.Region.Height)
	gocv.Rectangle(img, box, boxColor, max(1, thickness/2))

	label := fmt.Sprintf("%s Hand (%.2f)", hand.Handedness, hand.Score)
	gocv.PutText(img, label, image.Pt(hand.Region.X, hand.Region.Y-10),
		gocv.FontHersheySimplex, 0.8, boxColor, 2)
}

// DrawLines blends corrected line segments over the image in place.
// Unlike Annotate the segments are already in full-image coordinates
// and are drawn as open polylines, with no crop box or label.
func DrawLines(img *gocv.Mat, lines map[pipeline.Category][][]geometry.PointInt) {
	thickness := max(2, img.Cols()/300)

	layer := img.Clone()
	defer layer.Close()

	for _, cat := range pipeline.Categories() {
		for _, segment := range lines[cat] {
			if len(segment) < 2 {
				continue
			}
			pv := gocv.NewPointsVectorFromPoints([][]image.Point{toImagePoints(segment)})
			gocv.Polylines(&layer, pv, false, cat.Color(), thickness)
			pv.Close()
		}
	}

	gocv.AddWeighted(layer, lineAlpha, *img, 1-lineAlpha, 0, img)
}

// Translate shifts every point by the given offset, mapping crop-local
// coordinates back into the full image.
func Translate(points []geometry.PointInt, offset geometry.PointInt) []geometry.PointInt {
	shift := geometry.Translation(float64(offset.X), float64(offset.Y))
	out := make([]geometry.PointInt, len(points))
	for i, p := range points {
		out[i] = shift.ApplyInt(p)
	}
	return out
}

// Simplify reduces a line path with the Douglas-Peucker algorithm,
// using a tolerance proportional to the path's arc length. Exported
// paths stay editable by hand without thousands of vertices.
func Simplify(points []geometry.PointInt, epsilonRatio float64) []geometry.PointInt {
	if len(points) < 3 {
		return append([]geometry.PointInt(nil), points...)
	}

	pv := gocv.NewPointVectorFromPoints(toImagePoints(points))
	defer pv.Close()

	epsilon := epsilonRatio * gocv.ArcLength(pv, false)
	approx := gocv.ApproxPolyDP(pv, epsilon, false)
	defer approx.Close()

	out := make([]geometry.PointInt, 0, approx.Size())
	for _, p := range approx.ToPoints() {
		out = append(out, geometry.PointInt{X: p.X, Y: p.Y})
	}
	return out
}

func toImagePoints(points []geometry.PointInt) []image.Point {
	pts := make([]image.Point, len(points))
	for i, p := range points {
		pts[i] = image.Pt(p.X, p.Y)
	}
	return pts
}
