// Package imageio loads palm photos and converts between Go images and
// OpenCV mats. Loading honors EXIF orientation so phone photos come in
// upright, and every image is normalized to a fixed working height
// before detection.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	// Registers WebP decoding for phone uploads. JPEG, PNG, GIF, TIFF
	// and BMP come with the imaging package.
	_ "golang.org/x/image/webp"
)

// TargetHeight is the working height every input is scaled to before
// hand detection. Line extraction parameters are tuned for this scale.
const TargetHeight = 1080

// Load reads an image file, applies its EXIF orientation and returns a
// BGR mat.
func Load(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}
	return ToMat(img)
}

// Decode decodes uploaded image bytes, applies EXIF orientation and
// returns a BGR mat.
func Decode(data []byte) (gocv.Mat, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode image: %w", err)
	}
	return ToMat(img)
}

// ToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty image %dx%d", w, h)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	// Parallelize by horizontal stripes
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (h + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > h {
			endY = h
		}
		if startY >= h {
			break
		}

		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				for x := 0; x < w; x++ {
					r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
					// OpenCV uses BGR format
					mat.SetUCharAt(y, x*3+0, uint8(b>>8))
					mat.SetUCharAt(y, x*3+1, uint8(g>>8))
					mat.SetUCharAt(y, x*3+2, uint8(r>>8))
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	return mat, nil
}

// ToImage converts a BGR mat to a Go image.Image.
func ToImage(mat gocv.Mat) (image.Image, error) {
	h := mat.Rows()
	w := mat.Cols()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty mat %dx%d", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stride := img.Stride

	numWorkers := runtime.NumCPU()
	rowsPerWorker := (h + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > h {
			endY = h
		}
		if startY >= h {
			break
		}

		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				rowOffset := y * stride
				for x := 0; x < w; x++ {
					pixOffset := rowOffset + x*4
					img.Pix[pixOffset+0] = mat.GetUCharAt(y, x*3+2) // R
					img.Pix[pixOffset+1] = mat.GetUCharAt(y, x*3+1) // G
					img.Pix[pixOffset+2] = mat.GetUCharAt(y, x*3+0) // B
					img.Pix[pixOffset+3] = 255                      // A
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	return img, nil
}

// ResizeHeight scales the mat to the target height, preserving aspect
// ratio. Area interpolation is used when shrinking and cubic when
// growing, which keeps fine palm lines from aliasing away.
func ResizeHeight(src gocv.Mat, targetHeight int) gocv.Mat {
	h := src.Rows()
	if h == 0 || h == targetHeight {
		return src.Clone()
	}

	scale := float64(targetHeight) / float64(h)
	newWidth := int(float64(src.Cols()) * scale)

	interp := gocv.InterpolationCubic
	if scale < 1 {
		interp = gocv.InterpolationArea
	}

	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(newWidth, targetHeight), 0, 0, interp)
	return dst
}

// EncodeJPEG encodes the mat as JPEG bytes.
func EncodeJPEG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// Save writes the mat to disk, with the format chosen by the file
// extension.
func Save(path string, mat gocv.Mat) error {
	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to write image to %s", path)
	}
	return nil
}
