package pipeline

import (
	"testing"

	"gocv.io/x/gocv"

	"palm-reader/pkg/geometry"
)

// testLandmarks returns a plausible right-palm landmark set for a
// 400x400 canvas: wrist at the bottom, finger bases across the upper
// palm, fingertips toward the top.
func testLandmarks() []geometry.PointInt {
	return []geometry.PointInt{
		{X: 200, Y: 380}, // wrist
		{X: 130, Y: 350}, {X: 90, Y: 290}, {X: 70, Y: 250}, {X: 60, Y: 210}, // thumb
		{X: 150, Y: 160}, {X: 145, Y: 120}, {X: 142, Y: 90}, {X: 140, Y: 60}, // index
		{X: 200, Y: 150}, {X: 200, Y: 105}, {X: 200, Y: 70}, {X: 200, Y: 40}, // middle
		{X: 250, Y: 155}, {X: 255, Y: 110}, {X: 258, Y: 75}, {X: 260, Y: 45}, // ring
		{X: 300, Y: 170}, {X: 310, Y: 130}, {X: 315, Y: 100}, {X: 320, Y: 70}, // pinky
	}
}

func TestBuildMaskMatchesPolygon(t *testing.T) {
	lm := testLandmarks()

	for _, category := range Categories() {
		t.Run(category.String(), func(t *testing.T) {
			verts, ok := zonePolicies[category].vertices(lm, 400, 400)
			if !ok {
				t.Fatal("vertices rule rejected a full landmark set")
			}

			polygon := make([]geometry.Point2D, len(verts))
			for i, v := range verts {
				polygon[i] = v.ToFloat()
			}

			mask := BuildMask(category, lm, 400, 400)
			defer mask.Close()

			if gocv.CountNonZero(mask) == 0 {
				t.Fatal("mask is empty for a full landmark set")
			}

			// Compare raster against the polygon on a sample grid,
			// skipping probes within 3px of the boundary where fill
			// and ray-cast conventions may differ.
			checked := 0
			for y := 5; y < 400; y += 15 {
				for x := 5; x < 400; x += 15 {
					inside := geometry.PointInPolygon(geometry.Point2D{X: float64(x), Y: float64(y)}, polygon)
					nearBoundary := false
					for _, d := range [][2]float64{
						{3, 0}, {-3, 0}, {0, 3}, {0, -3}, {3, 3}, {3, -3}, {-3, 3}, {-3, -3},
					} {
						neighbor := geometry.Point2D{X: float64(x) + d[0], Y: float64(y) + d[1]}
						if geometry.PointInPolygon(neighbor, polygon) != inside {
							nearBoundary = true
							break
						}
					}
					if nearBoundary {
						continue
					}

					got := mask.GetUCharAt(y, x) != 0
					if got != inside {
						t.Fatalf("mask(%d,%d): got %v, polygon says %v", x, y, got, inside)
					}
					checked++
				}
			}

			if checked < 100 {
				t.Fatalf("too few probes checked: %d", checked)
			}
		})
	}
}

func TestBuildMaskFailSoft(t *testing.T) {
	short := testLandmarks()[:5]

	for _, category := range Categories() {
		mask := BuildMask(category, short, 400, 400)
		if gocv.CountNonZero(mask) != 0 {
			t.Errorf("%v: mask should be all-zero for a short landmark set", category)
		}
		mask.Close()
	}

	for _, category := range Categories() {
		mask := BuildMask(category, nil, 400, 400)
		if gocv.CountNonZero(mask) != 0 {
			t.Errorf("%v: mask should be all-zero without landmarks", category)
		}
		mask.Close()
	}
}

func TestBuildMaskDimensions(t *testing.T) {
	mask := BuildMask(Life, testLandmarks(), 320, 240)
	defer mask.Close()

	if mask.Cols() != 320 || mask.Rows() != 240 {
		t.Errorf("mask dimensions: got %dx%d, want 320x240", mask.Cols(), mask.Rows())
	}
	if mask.Type() != gocv.MatTypeCV8UC1 {
		t.Errorf("mask type: got %v, want CV8UC1", mask.Type())
	}
}

func TestZoneVerticesDisjointAnchors(t *testing.T) {
	lm := testLandmarks()

	life, _ := lifeVertices(lm, 400, 400)
	heart, _ := heartVertices(lm, 400, 400)

	// The life zone hugs the thumb side, the heart zone the finger
	// bases; their vertex sets must not be identical.
	if len(life) == len(heart) {
		same := true
		for i := range life {
			if life[i] != heart[i] {
				same = false
				break
			}
		}
		if same {
			t.Error("life and heart zones resolved to the same polygon")
		}
	}
}
