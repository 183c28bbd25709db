package palmService

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"palm-reader/internal/api/palm"
	"palm-reader/internal/detect"
	"palm-reader/internal/imageio"
	"palm-reader/internal/landmark"
	"palm-reader/internal/pipeline"
	"palm-reader/internal/reading"
	"palm-reader/internal/store"
	"palm-reader/pkg/geometry"
)

type fakeProvider struct {
	hands []landmark.HandLandmarks
	err   error
}

func (p *fakeProvider) Detect(ctx context.Context, imageJPEG []byte) ([]landmark.HandLandmarks, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.hands, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// openPalm is a right-handed open palm facing the camera, in
// normalized coordinates.
func openPalm() landmark.HandLandmarks {
	coords := [landmark.NumLandmarks][2]float64{
		{0.50, 0.90},
		{0.38, 0.85}, {0.30, 0.75}, {0.26, 0.65}, {0.24, 0.58},
		{0.38, 0.50}, {0.37, 0.40}, {0.36, 0.33}, {0.355, 0.27},
		{0.50, 0.48}, {0.50, 0.36}, {0.50, 0.28}, {0.50, 0.20},
		{0.60, 0.50}, {0.615, 0.38}, {0.62, 0.31}, {0.625, 0.25},
		{0.68, 0.55}, {0.70, 0.45}, {0.71, 0.38}, {0.72, 0.33},
	}

	h := landmark.HandLandmarks{Handedness: "Right", Score: 0.93}
	for i, c := range coords {
		h.Points[i] = landmark.Point3D{X: c[0], Y: c[1]}
	}
	return h
}

// blankPhoto encodes a uniform white frame. Uniform pixels guarantee
// the extraction pipeline finds nothing, which keeps assertions exact.
func blankPhoto(t *testing.T) []byte {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()

	data, err := imageio.EncodeJPEG(mat)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	return data
}

func testService(t *testing.T, provider landmark.Provider) (IPalmService, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	analyzer := reading.NewAnalyzer(nil, nil)
	return NewPalmService(testLogger(), st, provider, analyzer), st
}

func TestDetectPalmBlankPhoto(t *testing.T) {
	svc, st := testService(t, &fakeProvider{hands: []landmark.HandLandmarks{openPalm()}})

	resp, err := svc.DetectPalm(context.Background(), blankPhoto(t))
	if err != nil {
		t.Fatalf("DetectPalm: %v", err)
	}

	if resp.Width != 1440 || resp.Height != 1080 {
		t.Errorf("processed dims = %dx%d, want 1440x1080", resp.Width, resp.Height)
	}
	if resp.Hand.Label != "Left" {
		t.Errorf("hand label = %q, want Left", resp.Hand.Label)
	}
	if resp.Hand.Score != 0.93 {
		t.Errorf("hand score = %v", resp.Hand.Score)
	}

	wantColors := map[pipeline.Category]string{
		pipeline.Life:  "#ff0000",
		pipeline.Head:  "#00ff00",
		pipeline.Heart: "#0000ff",
	}
	if len(resp.Lines) != 3 {
		t.Fatalf("line map has %d entries, want 3", len(resp.Lines))
	}
	for cat, lr := range resp.Lines {
		if lr.Detected || lr.Confidence != 0 || len(lr.Segments) != 0 {
			t.Errorf("%s on a blank photo = %+v, want empty", cat, lr)
		}
		if lr.Color != wantColors[cat] {
			t.Errorf("%s color = %q, want %q", cat, lr.Color, wantColors[cat])
		}
	}

	rec, err := st.Load(resp.DataID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.Region != resp.Region {
		t.Errorf("stored region %+v differs from response %+v", rec.Region, resp.Region)
	}
	for _, cat := range pipeline.Categories() {
		if rec.Features[cat].Detected {
			t.Errorf("%s feature detected on a blank photo", cat)
		}
	}

	if resp.ImageURL != "/images/result_"+resp.DataID+".jpg" {
		t.Errorf("ImageURL = %q", resp.ImageURL)
	}
	for _, name := range []string{rec.CleanImage, rec.ResultImage} {
		if _, err := os.Stat(st.ImagePath(name)); err != nil {
			t.Errorf("image %s not written: %v", name, err)
		}
	}
}

func TestDetectPalmGateRejection(t *testing.T) {
	svc, _ := testService(t, &fakeProvider{hands: nil})

	_, err := svc.DetectPalm(context.Background(), blankPhoto(t))
	if !errors.Is(err, detect.ErrNoHand) {
		t.Fatalf("err = %v, want ErrNoHand", err)
	}
	if code := detect.Code(err); code != 1001 {
		t.Errorf("gate code = %d, want 1001", code)
	}
}

func TestDetectPalmProviderDown(t *testing.T) {
	svc, _ := testService(t, &fakeProvider{err: errors.New("connection refused")})

	_, err := svc.DetectPalm(context.Background(), blankPhoto(t))
	if !errors.Is(err, palm.ErrLandmarksOffline) {
		t.Fatalf("err = %v, want ErrLandmarksOffline", err)
	}
}

func TestDetectPalmBadImage(t *testing.T) {
	svc, _ := testService(t, &fakeProvider{hands: []landmark.HandLandmarks{openPalm()}})

	_, err := svc.DetectPalm(context.Background(), []byte("not an image"))
	if !errors.Is(err, palm.ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
}

func TestAnalyzePalm(t *testing.T) {
	svc, _ := testService(t, &fakeProvider{hands: []landmark.HandLandmarks{openPalm()}})

	if _, err := svc.AnalyzePalm(context.Background(), "11111111-2222-4333-8444-555555555555"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing record err = %v, want ErrNotFound", err)
	}

	det, err := svc.DetectPalm(context.Background(), blankPhoto(t))
	if err != nil {
		t.Fatalf("DetectPalm: %v", err)
	}

	resp, err := svc.AnalyzePalm(context.Background(), det.DataID)
	if err != nil {
		t.Fatalf("AnalyzePalm: %v", err)
	}
	if resp.Source != reading.SourceRules {
		t.Errorf("source = %q, want rules", resp.Source)
	}
	if len(resp.Reading) != 3 {
		t.Fatalf("reading has %d entries, want 3", len(resp.Reading))
	}
	for cat, lr := range resp.Reading {
		if lr.Feature != "not detected" || lr.Reading != "no data" {
			t.Errorf("%s reading on a blank photo = %+v", cat, lr)
		}
	}
}

func TestCorrectPalm(t *testing.T) {
	svc, st := testService(t, &fakeProvider{hands: []landmark.HandLandmarks{openPalm()}})

	det, err := svc.DetectPalm(context.Background(), blankPhoto(t))
	if err != nil {
		t.Fatalf("DetectPalm: %v", err)
	}

	segment := make([]geometry.PointInt, 0, 300)
	for x := 400; x < 700; x++ {
		segment = append(segment, geometry.PointInt{X: x, Y: 600})
	}
	req := palm.CorrectionRequest{
		DataID: det.DataID,
		Lines: map[pipeline.Category][][]geometry.PointInt{
			pipeline.Life: {segment, {}},
		},
	}

	resp, err := svc.CorrectPalm(context.Background(), req)
	if err != nil {
		t.Fatalf("CorrectPalm: %v", err)
	}

	life := resp.Lines[pipeline.Life]
	if !life.Detected {
		t.Error("corrected life line not marked detected")
	}
	if life.Confidence <= 0 || life.Confidence > 1 {
		t.Errorf("corrected confidence = %v", life.Confidence)
	}
	if len(life.Segments) != 1 {
		t.Errorf("kept %d segments, want 1 (empty dropped)", len(life.Segments))
	}
	if resp.Lines[pipeline.Head].Detected {
		t.Error("head line should stay undetected")
	}
	if resp.ImageURL != "/images/corrected_"+det.DataID+".jpg" {
		t.Errorf("ImageURL = %q", resp.ImageURL)
	}

	rec, err := st.Load(det.DataID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !rec.Corrected {
		t.Error("record not marked corrected")
	}
	if len(rec.Lines[pipeline.Life]) != 1 {
		t.Errorf("stored %d life segments, want 1", len(rec.Lines[pipeline.Life]))
	}
	if !rec.Features[pipeline.Life].Detected {
		t.Error("life feature not re-extracted")
	}
	if rec.Features[pipeline.Life].NormLength <= 0 {
		t.Errorf("life NormLength = %v, want > 0", rec.Features[pipeline.Life].NormLength)
	}
	if _, err := os.Stat(st.ImagePath(rec.CorrectedImage)); err != nil {
		t.Errorf("corrected image not written: %v", err)
	}
}

func TestCorrectPalmMissingRecord(t *testing.T) {
	svc, _ := testService(t, &fakeProvider{hands: []landmark.HandLandmarks{openPalm()}})

	req := palm.CorrectionRequest{
		DataID: "11111111-2222-4333-8444-555555555555",
		Lines:  map[pipeline.Category][][]geometry.PointInt{},
	}
	if _, err := svc.CorrectPalm(context.Background(), req); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetAnalysis(t *testing.T) {
	svc, _ := testService(t, &fakeProvider{hands: []landmark.HandLandmarks{openPalm()}})

	det, err := svc.DetectPalm(context.Background(), blankPhoto(t))
	if err != nil {
		t.Fatalf("DetectPalm: %v", err)
	}

	rec, err := svc.GetAnalysis(context.Background(), det.DataID)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if rec.ID != det.DataID {
		t.Errorf("record id = %q, want %q", rec.ID, det.DataID)
	}
}
