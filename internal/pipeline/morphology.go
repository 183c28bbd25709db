package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// Condition removes speckle noise and bridges small breaks in the
// binary line mask. Opening uses a fixed 3x3 element; the elliptical
// closing kernel is zone-dependent, since the life and head zones sit
// close to neighboring lines and tolerate less bridging than the heart
// zone. The caller owns the returned Mat.
func Condition(binary gocv.Mat, category Category, opts Options) gocv.Mat {
	width := binary.Cols()

	openKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer openKernel.Close()

	opened := gocv.NewMat()
	gocv.MorphologyEx(binary, &opened, gocv.MorphOpen, openKernel)

	size := width / zonePolicies[category].closeDivisor(opts)
	if size < opts.MinCloseSize {
		size = opts.MinCloseSize
	}
	closeKernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(size, size))
	defer closeKernel.Close()

	closed := gocv.NewMat()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, closeKernel)
	opened.Close()

	return closed
}
