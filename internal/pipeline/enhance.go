package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// Enhance prepares a cropped palm region for binarization: grayscale
// conversion, local contrast equalization, then edge-preserving
// smoothing to flatten skin texture while keeping line edges sharp.
// The caller owns the returned Mat.
func Enhance(region gocv.Mat, opts Options) gocv.Mat {
	gray := gocv.NewMat()
	if region.Channels() == 1 {
		region.CopyTo(&gray)
	} else {
		gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
	}

	clahe := gocv.NewCLAHEWithParams(opts.ClipLimit, image.Pt(opts.TileSize, opts.TileSize))
	defer clahe.Close()

	equalized := gocv.NewMat()
	clahe.Apply(gray, &equalized)
	gray.Close()

	diameter := oddAtLeast(region.Cols()/opts.BilateralDivisor, opts.MinBilateral)
	smoothed := gocv.NewMat()
	gocv.BilateralFilter(equalized, &smoothed, diameter, opts.SigmaColor, opts.SigmaSpace)
	equalized.Close()

	return smoothed
}
