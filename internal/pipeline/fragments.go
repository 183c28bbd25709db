package pipeline

import (
	"sort"

	"gocv.io/x/gocv"

	"palm-reader/pkg/geometry"
)

// ExtractFragments traces the connected branches of a skeleton raster
// as ordered point sequences. Branches are ranked by arc length
// descending; at most opts.MaxFragments are considered and each must be
// longer than opts.MinFragmentRatio of the larger region dimension.
func ExtractFragments(skeleton gocv.Mat, opts Options) [][]geometry.PointInt {
	width := skeleton.Cols()
	height := skeleton.Rows()

	contours := gocv.FindContours(skeleton, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	type measured struct {
		points []geometry.PointInt
		length float64
	}

	candidates := make([]measured, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		candidates = append(candidates, measured{
			points: toPointSlice(contour),
			length: gocv.ArcLength(contour, false),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].length > candidates[j].length
	})

	minLength := opts.MinFragmentRatio * float64(max(width, height))

	fragments := make([][]geometry.PointInt, 0, opts.MaxFragments)
	for i, c := range candidates {
		if i >= opts.MaxFragments {
			break
		}
		if c.length > minLength {
			fragments = append(fragments, c.points)
		}
	}

	return fragments
}

func toPointSlice(contour gocv.PointVector) []geometry.PointInt {
	points := make([]geometry.PointInt, contour.Size())
	for j := 0; j < contour.Size(); j++ {
		p := contour.At(j)
		points[j] = geometry.PointInt{X: p.X, Y: p.Y}
	}
	return points
}

// PathLength returns the sum of consecutive point distances, equal to
// the open arc length of the sequence.
func PathLength(points []geometry.PointInt) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += points[i-1].Distance(points[i])
	}
	return length
}
