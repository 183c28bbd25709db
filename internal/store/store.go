// Package store persists analysis records and their images on disk.
// Each detection run gets a UUID, one JSON record and a set of derived
// images, so readings can be recomputed and lines corrected later
// without rerunning detection.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"palm-reader/internal/features"
	"palm-reader/internal/pipeline"
	"palm-reader/pkg/geometry"
)

// ErrNotFound is returned when no analysis exists for an ID.
var ErrNotFound = errors.New("analysis not found")

// HandInfo is the screened hand summary stored with an analysis.
type HandInfo struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	NearBorder bool    `json:"near_border,omitempty"`
}

// Analysis is one detection run: the processed image geometry, the
// extracted lines in full-image coordinates and their derived features.
type Analysis struct {
	Version  int       `json:"version"`
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Dimensions of the processed (height-normalized) image the line
	// coordinates refer to.
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Region geometry.RectInt `json:"region"`
	Hand   HandInfo         `json:"hand"`

	// Lines maps each category to its polyline segments. Detection
	// produces at most one segment per line; manual corrections may
	// carry several.
	Lines    map[pipeline.Category][][]geometry.PointInt `json:"lines"`
	Features map[pipeline.Category]features.LineFeatures `json:"features"`

	// Corrected marks records whose lines were replaced by hand.
	Corrected bool `json:"corrected"`

	CleanImage     string `json:"clean_image,omitempty"`
	ResultImage    string `json:"result_image,omitempty"`
	CorrectedImage string `json:"corrected_image,omitempty"`
}

// NewAnalysis creates an empty record with a fresh ID.
func NewAnalysis() *Analysis {
	now := time.Now()
	return &Analysis{
		Version: 1,
		ID:      uuid.NewString(),
		Created: now,
	}
}

// Image names derived from an analysis ID.
func CleanImageName(id string) string     { return "clean_" + id + ".jpg" }
func ResultImageName(id string) string    { return "result_" + id + ".jpg" }
func CorrectedImageName(id string) string { return "corrected_" + id + ".jpg" }

// Store is a directory-backed analysis store.
type Store struct {
	root string
}

// Open prepares the store directories under root.
func Open(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, "images"), filepath.Join(root, "analyses")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// ImagesDir returns the directory images are served from.
func (s *Store) ImagesDir() string {
	return filepath.Join(s.root, "images")
}

// ImagePath returns the on-disk path for a stored image name.
func (s *Store) ImagePath(name string) string {
	return filepath.Join(s.ImagesDir(), name)
}

func (s *Store) analysisPath(id string) string {
	return filepath.Join(s.root, "analyses", id+".json")
}

// Save writes the record, stamping its modification time.
func (s *Store) Save(a *Analysis) error {
	if _, err := uuid.Parse(a.ID); err != nil {
		return fmt.Errorf("invalid analysis id %q", a.ID)
	}
	a.Modified = time.Now()
	if a.Created.IsZero() {
		a.Created = a.Modified
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.analysisPath(a.ID), data, 0644)
}

// Load reads the record for the given ID. IDs are always UUIDs, so
// anything else maps to ErrNotFound without touching the filesystem.
func (s *Store) Load(id string) (*Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(s.analysisPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
