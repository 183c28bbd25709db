package pipeline

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

var testWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func TestSkeletonizeEmptyInput(t *testing.T) {
	blank := gocv.Zeros(50, 50, gocv.MatTypeCV8UC1)
	defer blank.Close()

	skeleton := Skeletonize(blank)
	defer skeleton.Close()

	if gocv.CountNonZero(skeleton) != 0 {
		t.Error("skeleton of an empty mask should be empty")
	}
}

func TestSkeletonizeThinsWithoutTouchingInput(t *testing.T) {
	mask := gocv.Zeros(60, 120, gocv.MatTypeCV8UC1)
	defer mask.Close()

	// 3px-thick horizontal bar.
	gocv.Rectangle(&mask, image.Rect(10, 28, 110, 31), testWhite, -1)
	before := gocv.CountNonZero(mask)

	skeleton := Skeletonize(mask)
	defer skeleton.Close()

	thinned := gocv.CountNonZero(skeleton)
	if thinned == 0 {
		t.Fatal("skeleton of a solid bar should not be empty")
	}
	if thinned >= before {
		t.Errorf("skeleton should shrink the bar: got %d, input %d", thinned, before)
	}

	if after := gocv.CountNonZero(mask); after != before {
		t.Errorf("input mask was modified: %d -> %d nonzero", before, after)
	}
}

func TestSkeletonizeIdempotent(t *testing.T) {
	mask := gocv.Zeros(60, 120, gocv.MatTypeCV8UC1)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(10, 28, 110, 31), testWhite, -1)

	first := Skeletonize(mask)
	defer first.Close()
	second := Skeletonize(first)
	defer second.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(first, second, &diff)

	if gocv.CountNonZero(diff) != 0 {
		t.Error("re-skeletonizing a skeleton should be a no-op")
	}
}
