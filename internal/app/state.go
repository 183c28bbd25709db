// Package app provides shared state and events for the correction
// studio.
package app

import (
	"context"
	"fmt"
	goimage "image"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"palm-reader/internal/api/palm"
	palmService "palm-reader/internal/api/palm/service"
	"palm-reader/internal/imageio"
	"palm-reader/internal/landmark"
	"palm-reader/internal/pipeline"
	"palm-reader/internal/reading"
	"palm-reader/internal/store"
	"palm-reader/pkg/geometry"
	"palm-reader/pkg/llm"
)

// State holds the analysis being corrected and notifies the UI about
// changes. Exported fields are only touched from the UI thread; the
// mutex guards the listener table and the modified flag.
type State struct {
	mu sync.RWMutex

	log      *logrus.Logger
	store    *store.Store
	analyzer *reading.Analyzer
	service  palmService.IPalmService

	// Analysis is the record being edited, nil before the first open.
	Analysis *store.Analysis

	// Clean is the stored photo without any overlay drawn on it.
	Clean goimage.Image

	// Lines is the working copy of the line segments, in full-image
	// coordinates. Edits land here until SaveCorrection persists them.
	Lines map[pipeline.Category][][]geometry.PointInt

	Modified bool

	listeners map[EventType][]EventListener
}

// EventType identifies different studio events.
type EventType int

const (
	EventAnalysisLoaded EventType = iota
	EventLinesChanged
	EventCorrectionSaved
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates the studio state on top of an opened store. The
// reading backend matches the server: the chat model when configured,
// the rule table otherwise.
func NewState(st *store.Store, logger *logrus.Logger) *State {
	var chat llm.IChatClient
	if llm.Configured() {
		chat = llm.NewChatClient()
	}
	analyzer := reading.NewAnalyzer(chat, logger)

	return &State{
		log:       logger,
		store:     st,
		analyzer:  analyzer,
		service:   palmService.NewPalmService(logger, st, nil, analyzer),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the working lines as diverged from the stored record.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// OpenAnalysis loads a stored record and its clean photo for editing.
func (s *State) OpenAnalysis(id string) error {
	rec, err := s.store.Load(id)
	if err != nil {
		return err
	}
	if rec.CleanImage == "" {
		return fmt.Errorf("analysis %s has no stored photo", id)
	}

	mat, err := imageio.Load(s.store.ImagePath(rec.CleanImage))
	if err != nil {
		return fmt.Errorf("failed to load photo: %w", err)
	}
	img, err := imageio.ToImage(mat)
	mat.Close()
	if err != nil {
		return err
	}

	s.Analysis = rec
	s.Clean = img
	s.Lines = copyLines(rec.Lines)
	s.SetModified(false)
	s.Emit(EventAnalysisLoaded, rec.ID)
	return nil
}

// OpenPhoto runs detection on a photo and opens the resulting analysis.
// With a landmark file the whole run is offline; otherwise the landmark
// service from LANDMARK_SERVICE_URL is asked for the hand.
func (s *State) OpenPhoto(imagePath, landmarkPath string) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}

	var provider landmark.Provider
	if landmarkPath != "" {
		provider = landmark.NewFileProvider(landmarkPath)
	} else {
		serviceURL := os.Getenv("LANDMARK_SERVICE_URL")
		if serviceURL == "" {
			return fmt.Errorf("no landmark file given and LANDMARK_SERVICE_URL is not set")
		}
		provider = landmark.NewHTTPProvider(serviceURL)
	}

	svc := palmService.NewPalmService(s.log, s.store, provider, s.analyzer)
	resp, err := svc.DetectPalm(context.Background(), data)
	if err != nil {
		return err
	}
	return s.OpenAnalysis(resp.DataID)
}

// ReplaceLine swaps the working segments for one category.
func (s *State) ReplaceLine(cat pipeline.Category, segments [][]geometry.PointInt) {
	if s.Lines == nil {
		s.Lines = make(map[pipeline.Category][][]geometry.PointInt)
	}
	s.Lines[cat] = segments
	s.SetModified(true)
	s.Emit(EventLinesChanged, cat)
}

// AppendSegment adds one stroke to a category, keeping what is already
// there.
func (s *State) AppendSegment(cat pipeline.Category, segment []geometry.PointInt) {
	if s.Lines == nil {
		s.Lines = make(map[pipeline.Category][][]geometry.PointInt)
	}
	s.Lines[cat] = append(s.Lines[cat], segment)
	s.SetModified(true)
	s.Emit(EventLinesChanged, cat)
}

// ClearLine removes all working segments for one category.
func (s *State) ClearLine(cat pipeline.Category) {
	s.ReplaceLine(cat, [][]geometry.PointInt{})
}

// LineScore rates the working segments of a category against the palm
// region, on the same scale the extraction pipeline uses.
func (s *State) LineScore(cat pipeline.Category) float64 {
	if s.Analysis == nil {
		return 0
	}

	var total float64
	for _, seg := range s.Lines[cat] {
		total += pipeline.PathLength(seg)
	}
	return pipeline.ScoreLength(total, s.Analysis.Region.Width, s.Analysis.Region.Height, pipeline.DefaultOptions())
}

// SaveCorrection persists the working lines as a correction, updating
// the stored features and the corrected overlay image.
func (s *State) SaveCorrection() error {
	if s.Analysis == nil {
		return fmt.Errorf("no analysis loaded")
	}

	resp, err := s.service.CorrectPalm(context.Background(), palm.CorrectionRequest{
		DataID: s.Analysis.ID,
		Lines:  s.Lines,
	})
	if err != nil {
		return err
	}

	rec, err := s.store.Load(resp.DataID)
	if err != nil {
		return err
	}
	s.Analysis = rec
	s.Lines = copyLines(rec.Lines)
	s.SetModified(false)
	s.Emit(EventCorrectionSaved, rec.ID)
	return nil
}

// Reading interprets the currently stored features.
func (s *State) Reading() (reading.Report, reading.Source, error) {
	if s.Analysis == nil {
		return nil, "", fmt.Errorf("no analysis loaded")
	}
	report, source := s.analyzer.Analyze(context.Background(), s.Analysis.Features)
	return report, source, nil
}

func copyLines(src map[pipeline.Category][][]geometry.PointInt) map[pipeline.Category][][]geometry.PointInt {
	out := make(map[pipeline.Category][][]geometry.PointInt, len(src))
	for cat, segments := range src {
		cp := make([][]geometry.PointInt, len(segments))
		for i, seg := range segments {
			cp[i] = append([]geometry.PointInt(nil), seg...)
		}
		out[cat] = cp
	}
	return out
}
