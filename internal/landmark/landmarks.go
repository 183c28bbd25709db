// Package landmark provides hand landmark types and providers.
//
// Landmark coordinates follow the MediaPipe hand model: 21 points per
// hand, normalized to [0,1] relative to the image dimensions.
package landmark

import (
	"palm-reader/pkg/geometry"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a normalized landmark coordinate. X and Y are in
// [0,1] relative to image width and height; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected for one hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// ToPixels converts the normalized landmarks to integer pixel
// coordinates for an image of the given dimensions.
func (h *HandLandmarks) ToPixels(width, height int) [NumLandmarks]geometry.PointInt {
	var pixels [NumLandmarks]geometry.PointInt
	for i, p := range h.Points {
		pixels[i] = geometry.PointInt{
			X: int(p.X * float64(width)),
			Y: int(p.Y * float64(height)),
		}
	}
	return pixels
}
