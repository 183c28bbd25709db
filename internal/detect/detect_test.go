package detect

import (
	"errors"
	"fmt"
	"testing"

	"palm-reader/internal/landmark"
	"palm-reader/pkg/geometry"
)

const (
	testWidth  = 1000
	testHeight = 800
)

// testHand returns an open palm facing the camera, labeled "Right" by
// the upstream classifier, framed well inside a 1000x800 image.
func testHand() landmark.HandLandmarks {
	coords := [landmark.NumLandmarks][2]float64{
		{0.50, 0.90},                                             // wrist
		{0.38, 0.85}, {0.30, 0.75}, {0.26, 0.65}, {0.24, 0.58},   // thumb
		{0.38, 0.50}, {0.37, 0.40}, {0.36, 0.33}, {0.355, 0.27},  // index
		{0.50, 0.48}, {0.50, 0.36}, {0.50, 0.28}, {0.50, 0.20},   // middle
		{0.60, 0.50}, {0.615, 0.38}, {0.62, 0.31}, {0.625, 0.25}, // ring
		{0.68, 0.55}, {0.70, 0.45}, {0.71, 0.38}, {0.72, 0.33},   // pinky
	}
	h := landmark.HandLandmarks{Handedness: "Right", Score: 0.93}
	for i, c := range coords {
		h.Points[i] = landmark.Point3D{X: c[0], Y: c[1]}
	}
	return h
}

func mirrored(h landmark.HandLandmarks) landmark.HandLandmarks {
	for i := range h.Points {
		h.Points[i].X = 1 - h.Points[i].X
	}
	return h
}

func shrunk(h landmark.HandLandmarks, factor float64) landmark.HandLandmarks {
	const cx, cy = 0.5, 0.65
	for i := range h.Points {
		h.Points[i].X = cx + (h.Points[i].X-cx)*factor
		h.Points[i].Y = cy + (h.Points[i].Y-cy)*factor
	}
	return h
}

func TestScreenAcceptsOpenPalm(t *testing.T) {
	hand, err := Screen([]landmark.HandLandmarks{testHand()}, testWidth, testHeight, DefaultOptions())
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}

	if hand.Handedness != "Left" {
		t.Errorf("Handedness = %q, want %q (label flips for palm-side view)", hand.Handedness, "Left")
	}
	if hand.Score != 0.93 {
		t.Errorf("Score = %v, want 0.93", hand.Score)
	}
	if hand.NearBorder {
		t.Error("hand well inside the frame flagged as near border")
	}

	want := geometry.RectInt{X: 320, Y: 317, Width: 420, Height: 470}
	if hand.Region != want {
		t.Errorf("Region = %+v, want %+v", hand.Region, want)
	}

	if got := (geometry.PointInt{X: 500, Y: 720}); hand.Landmarks[landmark.Wrist] != got {
		t.Errorf("Landmarks[wrist] = %+v, want %+v", hand.Landmarks[landmark.Wrist], got)
	}
	if got := (geometry.PointInt{X: 180, Y: 403}); hand.Local[landmark.Wrist] != got {
		t.Errorf("Local[wrist] = %+v, want %+v", hand.Local[landmark.Wrist], got)
	}

	// Every local landmark is the full-image one shifted by the crop origin.
	for i := range hand.Landmarks {
		dx := hand.Landmarks[i].X - hand.Local[i].X
		dy := hand.Landmarks[i].Y - hand.Local[i].Y
		if dx != hand.Region.X || dy != hand.Region.Y {
			t.Fatalf("landmark %d shifted by (%d,%d), want (%d,%d)", i, dx, dy, hand.Region.X, hand.Region.Y)
		}
	}
}

func TestScreenMirroredHand(t *testing.T) {
	h := mirrored(testHand())
	h.Handedness = "Left"

	hand, err := Screen([]landmark.HandLandmarks{h}, testWidth, testHeight, DefaultOptions())
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if hand.Handedness != "Right" {
		t.Errorf("Handedness = %q, want %q", hand.Handedness, "Right")
	}
}

func TestScreenGates(t *testing.T) {
	notOpen := testHand()
	notOpen.Points[landmark.MiddleTip] = landmark.Point3D{X: 0.50, Y: 0.41}

	backOfHand := testHand()
	backOfHand.Handedness = "Left" // same winding now reads as the back

	tests := []struct {
		name  string
		hands []landmark.HandLandmarks
		want  error
		code  int
	}{
		{"no hands", nil, ErrNoHand, 1001},
		{"empty slice", []landmark.HandLandmarks{}, ErrNoHand, 1001},
		{"back of hand", []landmark.HandLandmarks{backOfHand}, ErrBackOfHand, 1004},
		{"too small", []landmark.HandLandmarks{shrunk(testHand(), 0.08)}, ErrTooSmall, 1002},
		{"not open", []landmark.HandLandmarks{notOpen}, ErrNotOpen, 1003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Screen(tt.hands, testWidth, testHeight, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Screen error = %v, want %v", err, tt.want)
			}
			if got := Code(err); got != tt.code {
				t.Errorf("Code = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestScreenInvalidDimensions(t *testing.T) {
	_, err := Screen([]landmark.HandLandmarks{testHand()}, 0, testHeight, DefaultOptions())
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("Screen error = %v, want %v", err, ErrInvalidImage)
	}
	if Code(err) != 1000 {
		t.Errorf("Code = %d, want 1000", Code(err))
	}
}

func TestScreenNearBorder(t *testing.T) {
	h := testHand()
	h.Points[landmark.Wrist] = landmark.Point3D{X: 0.50, Y: 0.995}

	hand, err := Screen([]landmark.HandLandmarks{h}, testWidth, testHeight, DefaultOptions())
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if !hand.NearBorder {
		t.Error("wrist at the bottom edge should flag NearBorder")
	}
	if bottom := hand.Region.Y + hand.Region.Height; bottom != testHeight {
		t.Errorf("crop bottom = %d, want clamped to %d", bottom, testHeight)
	}
}

func TestCode(t *testing.T) {
	if Code(nil) != 0 {
		t.Error("Code(nil) should be 0")
	}
	if Code(errors.New("boom")) != 0 {
		t.Error("Code of an unrelated error should be 0")
	}
	wrapped := fmt.Errorf("screening palm: %w", ErrTooSmall)
	if Code(wrapped) != 1002 {
		t.Errorf("Code of wrapped error = %d, want 1002", Code(wrapped))
	}
}
