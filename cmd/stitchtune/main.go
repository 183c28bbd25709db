// Command stitchtune sweeps the fragment stitching threshold over a
// synthetic or prepared line mask and prints path statistics, for
// tuning the gap ratio against real palm photographs.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"palm-reader/internal/imageio"
	"palm-reader/internal/pipeline"
	"palm-reader/pkg/geometry"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func main() {
	maskPath := flag.String("mask", "", "Binary mask image (white lines on black), skips synthesis")
	width := flag.Int("width", 400, "Synthetic mask width")
	height := flag.Int("height", 400, "Synthetic mask height")
	lineCount := flag.Int("lines", 3, "Synthetic line count")
	breaks := flag.Int("breaks", 3, "Gaps per synthetic line")
	maxGap := flag.Int("gap", 30, "Largest synthetic gap in pixels")
	seed := flag.Int64("seed", 1, "Synthesis seed")
	sweep := flag.String("sweep", "0.02,0.05,0.08,0.12,0.16,0.20", "Comma-separated gap ratios to try")
	flag.Parse()

	ratios, err := parseSweep(*sweep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad -sweep value: %v\n", err)
		os.Exit(1)
	}

	var mask gocv.Mat
	if *maskPath != "" {
		mask, err = loadMask(*maskPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load mask: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded mask %s: %dx%d\n", *maskPath, mask.Cols(), mask.Rows())
	} else {
		mask = synthesize(*width, *height, *lineCount, *breaks, *maxGap, *seed)
		fmt.Printf("Synthesized %d broken lines on %dx%d, gaps up to %dpx (seed %d)\n",
			*lineCount, *width, *height, *maxGap, *seed)
	}
	defer mask.Close()

	w := mask.Cols()
	h := mask.Rows()
	opts := pipeline.DefaultOptions()

	skeleton := pipeline.Skeletonize(mask)
	defer skeleton.Close()

	fragments := pipeline.ExtractFragments(skeleton, opts)

	fmt.Printf("\n=== Fragments ===\n")
	if len(fragments) == 0 {
		fmt.Println("No fragments survived filtering, nothing to stitch.")
		os.Exit(1)
	}
	var total float64
	longest := 0.0
	for _, f := range fragments {
		l := pipeline.PathLength(f)
		total += l
		if l > longest {
			longest = l
		}
	}
	fmt.Printf("%d fragments, longest %.1fpx, mean %.1fpx\n",
		len(fragments), longest, total/float64(len(fragments)))

	fmt.Printf("\n=== Stitch sweep ===\n")
	fmt.Printf("%8s %10s %7s %10s %10s %12s\n",
		"Ratio", "Threshold", "Paths", "Longest", "Total", "Confidence")
	for _, ratio := range ratios {
		opts.StitchGapRatio = ratio
		paths := pipeline.StitchFragments(fragments, w, h, opts)

		var pathTotal float64
		var best []geometry.PointInt
		bestLength := 0.0
		for _, p := range paths {
			l := pipeline.PathLength(p)
			pathTotal += l
			if l > bestLength {
				best, bestLength = p, l
			}
		}
		_, confidence := pipeline.Score(best, w, h, opts)

		fmt.Printf("%8.3f %9.1fpx %7d %9.1fpx %9.1fpx %12.2f\n",
			ratio, ratio*float64(max(w, h)), len(paths), bestLength, pathTotal, confidence)
	}
}

func parseSweep(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	ratios := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		if v <= 0 || v >= 1 {
			return nil, fmt.Errorf("ratio %v out of range (0, 1)", v)
		}
		ratios = append(ratios, v)
	}
	return ratios, nil
}

// loadMask reads an image and binarizes it, so hand-painted masks and
// saved pipeline intermediates both work.
func loadMask(path string) (gocv.Mat, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer img.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	gocv.Threshold(gray, &mask, 127, 255, gocv.ThresholdBinary)
	gray.Close()
	return mask, nil
}

// synthesize draws shallow arcs broken into pieces. Gap positions and
// sizes come from the seed, so a sweep can be re-run on the same layout.
func synthesize(width, height, lines, breaks, maxGap int, seed int64) gocv.Mat {
	rng := rand.New(rand.NewSource(seed))
	mask := gocv.Zeros(height, width, gocv.MatTypeCV8UC1)

	margin := width / 10
	for i := 0; i < lines; i++ {
		baseY := height * (i + 1) / (lines + 1)
		amplitude := float64(height) / 12

		type gap struct{ start, end int }
		gaps := make([]gap, 0, breaks)
		for g := 0; g < breaks; g++ {
			size := maxGap/2 + rng.Intn(maxGap/2+1)
			if span := width - 2*margin - 1; size > span {
				size = span
			}
			start := margin + rng.Intn(width-2*margin-size)
			gaps = append(gaps, gap{start: start, end: start + size})
		}

		prev := arcPoint(margin, width, baseY, amplitude)
		for x := margin + 1; x <= width-margin; x++ {
			cur := arcPoint(x, width, baseY, amplitude)
			hidden := false
			for _, g := range gaps {
				if x > g.start && x <= g.end {
					hidden = true
					break
				}
			}
			if !hidden {
				gocv.Line(&mask, prev, cur, white, 3)
			}
			prev = cur
		}
	}
	return mask
}

func arcPoint(x, width, baseY int, amplitude float64) image.Point {
	t := float64(x) / float64(width)
	return image.Pt(x, baseY+int(amplitude*math.Sin(t*math.Pi)))
}
