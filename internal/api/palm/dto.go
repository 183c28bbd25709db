package palm

import (
	"palm-reader/internal/features"
	"palm-reader/internal/pipeline"
	"palm-reader/internal/reading"
	"palm-reader/internal/store"
	"palm-reader/pkg/geometry"
)

// LineResult is one palm line on the wire. Segments hold simplified
// polylines in full-image coordinates; detection produces at most one,
// corrections may carry several.
type LineResult struct {
	Detected   bool                  `json:"detected"`
	Confidence float64               `json:"confidence"`
	Color      string                `json:"color"`
	Segments   [][]geometry.PointInt `json:"segments"`
}

type DetectRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

type DetectionResponse struct {
	DataID        string                           `json:"data_id"`
	Hand          store.HandInfo                   `json:"hand_info"`
	Width         int                              `json:"width"`
	Height        int                              `json:"height"`
	Region        geometry.RectInt                 `json:"region"`
	Lines         map[pipeline.Category]LineResult `json:"lines"`
	ImageURL      string                           `json:"image_url"`
	CleanImageURL string                           `json:"clean_image_url"`
}

type AnalyzeRequest struct {
	DataID string `json:"data_id" validate:"required,uuid4"`
}

type AnalyzeResponse struct {
	DataID   string                                      `json:"data_id"`
	Features map[pipeline.Category]features.LineFeatures `json:"features"`
	Reading  reading.Report                              `json:"reading"`
	Source   reading.Source                              `json:"source"`
}

type CorrectionRequest struct {
	DataID string                                      `json:"data_id" validate:"required,uuid4"`
	Lines  map[pipeline.Category][][]geometry.PointInt `json:"lines" validate:"required"`
}

type CorrectionResponse struct {
	DataID   string                           `json:"data_id"`
	Message  string                           `json:"message"`
	Lines    map[pipeline.Category]LineResult `json:"lines"`
	ImageURL string                           `json:"image_url"`
}
