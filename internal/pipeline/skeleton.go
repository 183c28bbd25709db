package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// Skeletonize reduces a binary mask to a one-pixel-wide medial skeleton
// by iterative morphological thinning with a cross-shaped element. Each
// round peels one erosion layer and accumulates the pixels the opening
// removed; the loop ends exactly when the eroded image is empty, which
// is guaranteed since erosion strictly shrinks a finite foreground.
// The input is not modified; the caller owns the returned Mat.
func Skeletonize(binary gocv.Mat) gocv.Mat {
	skeleton := gocv.Zeros(binary.Rows(), binary.Cols(), gocv.MatTypeCV8UC1)

	img := binary.Clone()
	defer img.Close()

	element := gocv.GetStructuringElement(gocv.MorphCross, image.Pt(3, 3))
	defer element.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	delta := gocv.NewMat()
	defer delta.Close()
	eroded := gocv.NewMat()
	defer eroded.Close()

	for {
		gocv.MorphologyEx(img, &opened, gocv.MorphOpen, element)
		gocv.Subtract(img, opened, &delta)
		gocv.Erode(img, &eroded, element)
		gocv.BitwiseOr(skeleton, delta, &skeleton)
		eroded.CopyTo(&img)

		if gocv.CountNonZero(img) == 0 {
			break
		}
	}

	return skeleton
}
