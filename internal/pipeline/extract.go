package pipeline

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"palm-reader/pkg/geometry"
	"palm-reader/pkg/log"
)

// Result holds the extraction outcome for one line category. Points is
// empty when no line survived filtering; Confidence is 0 in that case.
type Result struct {
	Category   Category            `json:"category"`
	Points     []geometry.PointInt `json:"points"`
	Length     float64             `json:"length"`
	Confidence float64             `json:"confidence"`
}

// Extractor runs the full line extraction pipeline over a cropped palm
// region.
type Extractor struct {
	opts   Options
	logger *logrus.Logger
}

func NewExtractor(opts Options, logger *logrus.Logger) *Extractor {
	return &Extractor{
		opts:   opts,
		logger: logger,
	}
}

// ExtractLines detects the three palm lines in the cropped region. The
// region is enhanced once; the categories then run concurrently, each
// owning its own mask and intermediate buffers and writing into its own
// result slot.
func (e *Extractor) ExtractLines(region gocv.Mat, landmarks []geometry.PointInt) (map[Category]Result, error) {
	if region.Empty() {
		return nil, fmt.Errorf("empty palm region")
	}

	enhanced := Enhance(region, e.opts)
	defer enhanced.Close()

	width := enhanced.Cols()
	height := enhanced.Rows()

	categories := Categories()
	slots := make([]Result, len(categories))

	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(i int, category Category) {
			defer wg.Done()
			slots[i] = e.extractCategory(enhanced, category, landmarks, width, height)
		}(i, category)
	}
	wg.Wait()

	results := make(map[Category]Result, len(categories))
	for i, category := range categories {
		results[category] = slots[i]
	}
	return results, nil
}

func (e *Extractor) extractCategory(enhanced gocv.Mat, category Category, landmarks []geometry.PointInt, width, height int) Result {
	result := Result{Category: category}

	mask := BuildMask(category, landmarks, width, height)
	defer mask.Close()
	if gocv.CountNonZero(mask) == 0 {
		e.logger.WithFields(log.Fields{
			"category": category.String(),
		}).Debug("Zone mask is empty, skipping line")
		return result
	}

	binary := Binarize(enhanced, mask, e.opts)
	defer binary.Close()

	conditioned := Condition(binary, category, e.opts)
	defer conditioned.Close()

	skeleton := Skeletonize(conditioned)
	defer skeleton.Close()

	fragments := ExtractFragments(skeleton, e.opts)
	paths := StitchFragments(fragments, width, height, e.opts)
	if len(paths) == 0 {
		return result
	}

	longest := paths[0]
	longestLength := PathLength(longest)
	for _, path := range paths[1:] {
		if l := PathLength(path); l > longestLength {
			longest, longestLength = path, l
		}
	}

	result.Points = longest
	result.Length, result.Confidence = Score(longest, width, height, e.opts)

	e.logger.WithFields(log.Fields{
		"category":   category.String(),
		"fragments":  len(fragments),
		"points":     len(longest),
		"confidence": result.Confidence,
	}).Debug("Extracted palm line")

	return result
}
