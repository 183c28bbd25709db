// Package detect screens hand landmarks before palm line extraction.
// It rejects frames that cannot produce a usable reading (no hand, back
// of the hand, hand too small or not open) and crops the palm region
// the rest of the pipeline works on.
package detect

import (
	"errors"

	"palm-reader/internal/landmark"
	"palm-reader/pkg/geometry"
)

// Screening failures. The messages double as user-facing suggestions
// and each maps to a stable numeric code via Code.
var (
	ErrInvalidImage = errors.New("invalid input image")
	ErrNoHand       = errors.New("no palm detected, make sure the whole palm is in frame against a clean background")
	ErrTooSmall     = errors.New("detected palm is too small, move the hand closer to the camera")
	ErrNotOpen      = errors.New("palm does not look fully open, spread the fingers for best results")
	ErrBackOfHand   = errors.New("back of the hand detected, flip the hand to show the palm")
)

// Code returns the stable numeric code for a screening failure, or 0
// for errors that did not come from the screening gates.
func Code(err error) int {
	switch {
	case errors.Is(err, ErrInvalidImage):
		return 1000
	case errors.Is(err, ErrNoHand):
		return 1001
	case errors.Is(err, ErrTooSmall):
		return 1002
	case errors.Is(err, ErrNotOpen):
		return 1003
	case errors.Is(err, ErrBackOfHand):
		return 1004
	}
	return 0
}

// anchors are the landmarks that frame the palm itself, excluding the
// fingers. The crop region and the size gate are computed from these so
// long fingers do not skew the box.
var anchors = [...]int{
	landmark.Wrist,
	landmark.ThumbCMC,
	landmark.IndexMCP,
	landmark.MiddleMCP,
	landmark.RingMCP,
	landmark.PinkyMCP,
}

// Options tune the screening gates.
type Options struct {
	PaddingRatio float64 // crop padding relative to the anchor box size
	MinAreaRatio float64 // reject hands covering less than this fraction of the frame
	ExtensionMin float64 // middle fingertip reach required, relative to palm length
	BorderMargin int     // distance from the frame edge that flags a cropped hand
}

// DefaultOptions returns the screening parameters used in production.
func DefaultOptions() Options {
	return Options{
		PaddingRatio: 0.2,
		MinAreaRatio: 0.03,
		ExtensionMin: 1.2,
		BorderMargin: 10,
	}
}

// Hand is a screened palm ready for line extraction.
type Hand struct {
	// Region is the padded palm crop in full-image pixel coordinates.
	Region geometry.RectInt
	// Landmarks are pixel coordinates in the full image.
	Landmarks [landmark.NumLandmarks]geometry.PointInt
	// Local are the same landmarks translated into Region.
	Local [landmark.NumLandmarks]geometry.PointInt
	// Handedness is derived from the palm geometry, not from the
	// upstream classifier label.
	Handedness string
	Score      float64
	NearBorder bool
}

// Screen validates the first detected hand against the gates and
// returns its crop region and translated landmarks. Width and height
// are the dimensions of the image the landmarks were detected on.
func Screen(hands []landmark.HandLandmarks, width, height int, opts Options) (*Hand, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidImage
	}
	if len(hands) == 0 {
		return nil, ErrNoHand
	}

	h := hands[0]

	// The wrist-to-index and wrist-to-pinky vectors wind one way for a
	// palm facing the camera and the other way for the back of the
	// hand, with the direction depending on which hand it is.
	p0 := h.Points[landmark.Wrist]
	p5 := h.Points[landmark.IndexMCP]
	p17 := h.Points[landmark.PinkyMCP]
	cross := (p5.X-p0.X)*(p17.Y-p0.Y) - (p5.Y-p0.Y)*(p17.X-p0.X)

	palmSide := cross > 0
	if h.Handedness == "Left" {
		palmSide = cross < 0
	}
	if !palmSide {
		return nil, ErrBackOfHand
	}

	// With the palm confirmed, the winding direction alone tells the
	// hand apart. This overrides the classifier label, which mirrors
	// on selfie-flipped input.
	handedness := "Left"
	if cross < 0 {
		handedness = "Right"
	}

	pixels := h.ToPixels(width, height)

	anchorPts := make([]geometry.PointInt, len(anchors))
	for i, idx := range anchors {
		anchorPts[i] = pixels[idx]
	}
	box := geometry.BoundingBoxInt(anchorPts)

	imgArea := float64(width) * float64(height)
	if float64(box.Width)*float64(box.Height) < opts.MinAreaRatio*imgArea {
		return nil, ErrTooSmall
	}

	wrist := pixels[landmark.Wrist]
	palmLen := wrist.Distance(pixels[landmark.MiddleMCP])
	fingerLen := wrist.Distance(pixels[landmark.MiddleTip])
	if fingerLen < palmLen*opts.ExtensionMin {
		return nil, ErrNotOpen
	}

	nearBorder := false
	for _, p := range anchorPts {
		if p.X < opts.BorderMargin || p.X > width-opts.BorderMargin ||
			p.Y < opts.BorderMargin || p.Y > height-opts.BorderMargin {
			nearBorder = true
			break
		}
	}

	region := box.Expand(
		int(float64(box.Width)*opts.PaddingRatio),
		int(float64(box.Height)*opts.PaddingRatio),
	).Clamp(width, height)

	shift := geometry.Translation(float64(-region.X), float64(-region.Y))
	var local [landmark.NumLandmarks]geometry.PointInt
	for i, p := range pixels {
		local[i] = shift.ApplyInt(p)
	}

	return &Hand{
		Region:     region,
		Landmarks:  pixels,
		Local:      local,
		Handedness: handedness,
		Score:      h.Score,
		NearBorder: nearBorder,
	}, nil
}
