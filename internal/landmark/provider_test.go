package landmark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const sampleResponse = `{
	"hands": [
		{
			"handedness": "Left",
			"score": 0.97,
			"points": [
				{"x": 0.5, "y": 0.9, "z": 0.0},
				{"x": 0.4, "y": 0.8, "z": 0.0},
				{"x": 0.35, "y": 0.7, "z": 0.0},
				{"x": 0.3, "y": 0.6, "z": 0.0},
				{"x": 0.28, "y": 0.5, "z": 0.0},
				{"x": 0.45, "y": 0.5, "z": 0.0},
				{"x": 0.44, "y": 0.4, "z": 0.0},
				{"x": 0.43, "y": 0.3, "z": 0.0},
				{"x": 0.42, "y": 0.2, "z": 0.0},
				{"x": 0.52, "y": 0.48, "z": 0.0},
				{"x": 0.52, "y": 0.35, "z": 0.0},
				{"x": 0.52, "y": 0.25, "z": 0.0},
				{"x": 0.52, "y": 0.15, "z": 0.0},
				{"x": 0.58, "y": 0.5, "z": 0.0},
				{"x": 0.59, "y": 0.38, "z": 0.0},
				{"x": 0.6, "y": 0.28, "z": 0.0},
				{"x": 0.61, "y": 0.2, "z": 0.0},
				{"x": 0.65, "y": 0.55, "z": 0.0},
				{"x": 0.67, "y": 0.45, "z": 0.0},
				{"x": 0.68, "y": 0.38, "z": 0.0},
				{"x": 0.69, "y": 0.32, "z": 0.0}
			]
		}
	]
}`

func TestHTTPProviderDetect(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("request is not valid multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL)
	hands, err := provider.Detect(context.Background(), []byte("fake-jpeg-bytes"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(hands) != 1 {
		t.Fatalf("hands: got %d, want 1", len(hands))
	}
	if hands[0].Handedness != "Left" {
		t.Errorf("Handedness: got %q, want Left", hands[0].Handedness)
	}
	if hands[0].Score != 0.97 {
		t.Errorf("Score: got %v, want 0.97", hands[0].Score)
	}
	if hands[0].Points[Wrist].Y != 0.9 {
		t.Errorf("wrist y: got %v, want 0.9", hands[0].Points[Wrist].Y)
	}
	if gotContentType == "" {
		t.Error("Content-Type header was not set")
	}
}

func TestHTTPProviderDetectNoHands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hands": []}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL)
	hands, err := provider.Detect(context.Background(), []byte("fake"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(hands) != 0 {
		t.Errorf("hands: got %d, want 0", len(hands))
	}
}

func TestHTTPProviderDetectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL)
	if _, err := provider.Detect(context.Background(), []byte("fake")); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestFileProviderDetect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landmarks.json")
	if err := os.WriteFile(path, []byte(sampleResponse), 0644); err != nil {
		t.Fatal(err)
	}

	provider := NewFileProvider(path)
	hands, err := provider.Detect(context.Background(), nil)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(hands) != 1 {
		t.Fatalf("hands: got %d, want 1", len(hands))
	}
	if hands[0].Points[PinkyMCP].X != 0.65 {
		t.Errorf("pinky MCP x: got %v, want 0.65", hands[0].Points[PinkyMCP].X)
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	provider := NewFileProvider(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := provider.Detect(context.Background(), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestToPixels(t *testing.T) {
	var h HandLandmarks
	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.25}
	h.Points[PinkyMCP] = Point3D{X: 1.0, Y: 1.0}

	pixels := h.ToPixels(400, 200)
	if pixels[Wrist].X != 200 || pixels[Wrist].Y != 50 {
		t.Errorf("wrist: got %v, want (200,50)", pixels[Wrist])
	}
	if pixels[PinkyMCP].X != 400 || pixels[PinkyMCP].Y != 200 {
		t.Errorf("pinky MCP: got %v, want (400,200)", pixels[PinkyMCP])
	}
}
