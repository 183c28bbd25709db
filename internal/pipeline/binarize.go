package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// Binarize separates dark line pixels from the surrounding skin inside
// the masked zone. Two detectors run over the masked grayscale: a local
// adaptive threshold that flags pixels darker than their neighborhood
// mean, and optionally a bottom-hat transform that responds to narrow
// dark ridges on a bright background. Their union is clipped back to
// the zone mask. The caller owns the returned Mat.
func Binarize(gray, mask gocv.Mat, opts Options) gocv.Mat {
	width := gray.Cols()

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAndWithMask(gray, gray, &masked, mask)

	block := oddAtLeast(width/opts.BlockDivisor, opts.MinBlockSize)
	binary := gocv.NewMat()
	gocv.AdaptiveThreshold(masked, &binary, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, block, opts.ThresholdC)

	if opts.UseBlackhat {
		side := oddAtLeast(width/opts.BlackhatDivisor, 3)
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(side, side))
		defer kernel.Close()

		ridges := gocv.NewMat()
		defer ridges.Close()
		gocv.MorphologyEx(masked, &ridges, gocv.MorphBlackhat, kernel)
		gocv.Threshold(ridges, &ridges, opts.BlackhatCutoff, 255, gocv.ThresholdBinary)

		gocv.BitwiseOr(binary, ridges, &binary)
	}

	out := gocv.NewMat()
	gocv.BitwiseAndWithMask(binary, binary, &out, mask)
	binary.Close()

	return out
}
