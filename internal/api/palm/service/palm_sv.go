package palmService

import (
	"context"
	"fmt"
	"image"

	"palm-reader/internal/api/palm"
	"palm-reader/internal/detect"
	"palm-reader/internal/features"
	"palm-reader/internal/imageio"
	"palm-reader/internal/overlay"
	"palm-reader/internal/pipeline"
	"palm-reader/internal/store"
	"palm-reader/pkg/colorutil"
	"palm-reader/pkg/geometry"
	"palm-reader/pkg/log"
)

// exportEpsilon is the simplification tolerance for API line exports,
// as a fraction of arc length. Kept finer than the batch tool's so the
// correction editor has enough vertices to drag.
const exportEpsilon = 0.001

func (s *palmService) DetectPalm(ctx context.Context, imageData []byte) (*palm.DetectionResponse, error) {
	img, err := imageio.Decode(imageData)
	if err != nil {
		return nil, palm.ErrInvalidImage
	}
	defer img.Close()

	processed := imageio.ResizeHeight(img, imageio.TargetHeight)
	defer processed.Close()

	width := processed.Cols()
	height := processed.Rows()

	frame, err := imageio.EncodeJPEG(processed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	hands, err := s.landmarks.Detect(ctx, frame)
	if err != nil {
		s.log.WithField("error", err.Error()).Error("Landmark detection failed")
		return nil, palm.ErrLandmarksOffline
	}

	hand, err := detect.Screen(hands, width, height, s.detectOpts)
	if err != nil {
		return nil, err
	}

	roi := processed.Region(image.Rect(
		hand.Region.X, hand.Region.Y,
		hand.Region.X+hand.Region.Width, hand.Region.Y+hand.Region.Height,
	))
	results, err := s.extractor.ExtractLines(roi, hand.Local[:])
	roi.Close()
	if err != nil {
		return nil, err
	}

	feats := features.Extract(results, hand.Region.Width, hand.Region.Height, s.log)

	rec := store.NewAnalysis()
	rec.Width = width
	rec.Height = height
	rec.Region = hand.Region
	rec.Hand = store.HandInfo{
		Label:      hand.Handedness,
		Score:      hand.Score,
		NearBorder: hand.NearBorder,
	}
	rec.Features = feats

	origin := geometry.PointInt{X: hand.Region.X, Y: hand.Region.Y}
	rec.Lines = make(map[pipeline.Category][][]geometry.PointInt, len(results))
	lines := make(map[pipeline.Category]palm.LineResult, len(results))
	for cat, res := range results {
		lr := palm.LineResult{
			Confidence: res.Confidence,
			Color:      colorHex(cat),
			Segments:   [][]geometry.PointInt{},
		}
		if len(res.Points) > 0 && res.Confidence > overlay.MinConfidence {
			full := overlay.Translate(res.Points, origin)
			lr.Segments = append(lr.Segments, overlay.Simplify(full, exportEpsilon))
			lr.Detected = true
		}
		rec.Lines[cat] = lr.Segments
		lines[cat] = lr
	}

	rec.CleanImage = store.CleanImageName(rec.ID)
	if err := imageio.Save(s.store.ImagePath(rec.CleanImage), processed); err != nil {
		return nil, fmt.Errorf("failed to save clean image: %w", err)
	}

	annotated := processed.Clone()
	overlay.Annotate(&annotated, hand, results)
	rec.ResultImage = store.ResultImageName(rec.ID)
	err = imageio.Save(s.store.ImagePath(rec.ResultImage), annotated)
	annotated.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to save result image: %w", err)
	}

	if err := s.store.Save(rec); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.log.WithFields(log.Fields{
		"data_id":    rec.ID,
		"handedness": hand.Handedness,
		"region":     fmt.Sprintf("%dx%d", hand.Region.Width, hand.Region.Height),
	}).Debug("Palm analysis stored")

	return &palm.DetectionResponse{
		DataID:        rec.ID,
		Hand:          rec.Hand,
		Width:         width,
		Height:        height,
		Region:        hand.Region,
		Lines:         lines,
		ImageURL:      imageURL(rec.ResultImage),
		CleanImageURL: imageURL(rec.CleanImage),
	}, nil
}

func (s *palmService) AnalyzePalm(ctx context.Context, id string) (*palm.AnalyzeResponse, error) {
	rec, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}

	report, source := s.analyzer.Analyze(ctx, rec.Features)

	return &palm.AnalyzeResponse{
		DataID:   rec.ID,
		Features: rec.Features,
		Reading:  report,
		Source:   source,
	}, nil
}

func (s *palmService) CorrectPalm(ctx context.Context, req palm.CorrectionRequest) (*palm.CorrectionResponse, error) {
	rec, err := s.store.Load(req.DataID)
	if err != nil {
		return nil, err
	}

	if rec.CleanImage == "" {
		return nil, palm.ErrCleanImageLost
	}
	img, err := imageio.Load(s.store.ImagePath(rec.CleanImage))
	if err != nil {
		s.log.WithFields(log.Fields{
			"data_id": rec.ID,
			"error":   err.Error(),
		}).Error("Clean image missing for correction")
		return nil, palm.ErrCleanImageLost
	}
	defer img.Close()

	lines := normalizeLines(req.Lines)

	overlay.DrawLines(&img, lines)

	rec.CorrectedImage = store.CorrectedImageName(rec.ID)
	if err := imageio.Save(s.store.ImagePath(rec.CorrectedImage), img); err != nil {
		return nil, fmt.Errorf("failed to save corrected image: %w", err)
	}

	rec.Lines = lines
	rec.Features = features.FromSegments(lines, rec.Width, rec.Height, s.log)
	rec.Corrected = true
	if err := s.store.Save(rec); err != nil {
		return nil, fmt.Errorf("failed to persist correction: %w", err)
	}

	return &palm.CorrectionResponse{
		DataID:   rec.ID,
		Message:  "Correction saved and analysis updated",
		Lines:    s.scoreLines(lines, rec.Region),
		ImageURL: imageURL(rec.CorrectedImage),
	}, nil
}

func (s *palmService) GetAnalysis(ctx context.Context, id string) (*store.Analysis, error) {
	return s.store.Load(id)
}

// scoreLines rates corrected segments against the palm region exactly
// like extracted paths, so the client can show a comparable confidence.
func (s *palmService) scoreLines(lines map[pipeline.Category][][]geometry.PointInt, region geometry.RectInt) map[pipeline.Category]palm.LineResult {
	out := make(map[pipeline.Category]palm.LineResult, len(pipeline.Categories()))
	for _, cat := range pipeline.Categories() {
		segments := lines[cat]
		if segments == nil {
			segments = [][]geometry.PointInt{}
		}

		var total float64
		for _, seg := range segments {
			total += pipeline.PathLength(seg)
		}

		out[cat] = palm.LineResult{
			Detected:   len(segments) > 0,
			Confidence: pipeline.ScoreLength(total, region.Width, region.Height, s.opts),
			Color:      colorHex(cat),
			Segments:   segments,
		}
	}
	return out
}

// normalizeLines drops empty segments while keeping category keys, so a
// submitted-but-emptied category reads as "not detected" downstream.
func normalizeLines(lines map[pipeline.Category][][]geometry.PointInt) map[pipeline.Category][][]geometry.PointInt {
	out := make(map[pipeline.Category][][]geometry.PointInt, len(lines))
	for cat, segments := range lines {
		kept := make([][]geometry.PointInt, 0, len(segments))
		for _, seg := range segments {
			if len(seg) > 0 {
				kept = append(kept, seg)
			}
		}
		out[cat] = kept
	}
	return out
}

func colorHex(cat pipeline.Category) string {
	return colorutil.Hex(cat.Color())
}

func imageURL(name string) string {
	return "/images/" + name
}
