package palmService

import (
	"context"

	"github.com/sirupsen/logrus"

	"palm-reader/internal/api/palm"
	"palm-reader/internal/detect"
	"palm-reader/internal/landmark"
	"palm-reader/internal/pipeline"
	"palm-reader/internal/reading"
	"palm-reader/internal/store"
)

type IPalmService interface {
	DetectPalm(ctx context.Context, imageData []byte) (*palm.DetectionResponse, error)
	AnalyzePalm(ctx context.Context, id string) (*palm.AnalyzeResponse, error)
	CorrectPalm(ctx context.Context, req palm.CorrectionRequest) (*palm.CorrectionResponse, error)
	GetAnalysis(ctx context.Context, id string) (*store.Analysis, error)
}

type palmService struct {
	log        *logrus.Logger
	store      *store.Store
	landmarks  landmark.Provider
	extractor  *pipeline.Extractor
	analyzer   *reading.Analyzer
	opts       pipeline.Options
	detectOpts detect.Options
}

func NewPalmService(
	log *logrus.Logger,
	st *store.Store,
	landmarks landmark.Provider,
	analyzer *reading.Analyzer,
) IPalmService {
	opts := pipeline.DefaultOptions()

	return &palmService{
		log:        log,
		store:      st,
		landmarks:  landmarks,
		extractor:  pipeline.NewExtractor(opts, log),
		analyzer:   analyzer,
		opts:       opts,
		detectOpts: detect.DefaultOptions(),
	}
}
