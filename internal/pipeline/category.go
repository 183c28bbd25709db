// Package pipeline implements palm line extraction from a cropped palm
// region: zone masking, texture enhancement, binarization, morphological
// conditioning, skeletonization and fragment stitching.
package pipeline

import (
	"fmt"
	"image/color"

	"palm-reader/pkg/geometry"
)

// Category identifies one of the three palm lines the pipeline extracts.
type Category int

const (
	Life Category = iota
	Head
	Heart
)

// Categories returns all line categories in stable processing order.
func Categories() []Category {
	return []Category{Life, Head, Heart}
}

func (c Category) String() string {
	switch c {
	case Life:
		return "life"
	case Head:
		return "head"
	case Heart:
		return "heart"
	}
	return "unknown"
}

// ParseCategory converts a category name to its Category value.
func ParseCategory(name string) (Category, error) {
	switch name {
	case "life":
		return Life, nil
	case "head":
		return Head, nil
	case "heart":
		return Heart, nil
	}
	return 0, fmt.Errorf("unknown line category %q", name)
}

// MarshalText encodes the category as its name. Implementing the text
// interfaces keeps categories usable as JSON object keys.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category from its name.
func (c *Category) UnmarshalText(data []byte) error {
	parsed, err := ParseCategory(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Color returns the display color used when rendering this line.
func (c Category) Color() color.RGBA {
	return zonePolicies[c].color
}

// zonePolicy collects the per-category processing rules: how the region
// mask is anchored to the landmarks, how aggressively gaps are closed,
// and the display color.
type zonePolicy struct {
	vertices     func(lm []geometry.PointInt, width, height int) ([]geometry.PointInt, bool)
	closeDivisor func(o Options) int
	color        color.RGBA
}

var zonePolicies = map[Category]zonePolicy{
	Life: {
		vertices:     lifeVertices,
		closeDivisor: func(o Options) int { return o.CloseDivisorTight },
		color:        color.RGBA{R: 255, G: 0, B: 0, A: 255},
	},
	Head: {
		vertices:     headVertices,
		closeDivisor: func(o Options) int { return o.CloseDivisorTight },
		color:        color.RGBA{R: 0, G: 255, B: 0, A: 255},
	},
	Heart: {
		vertices:     heartVertices,
		closeDivisor: func(o Options) int { return o.CloseDivisorWide },
		color:        color.RGBA{R: 0, G: 0, B: 255, A: 255},
	},
}
