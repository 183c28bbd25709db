package landmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// Provider defines the interface for hand landmark detection backends.
type Provider interface {
	// Detect analyzes a JPEG-encoded image and returns landmarks for
	// every detected hand. Returns an empty slice if no hands are found.
	Detect(ctx context.Context, imageJPEG []byte) ([]HandLandmarks, error)
}

type detectResponse struct {
	Hands []HandLandmarks `json:"hands"`
}

// HTTPProvider calls an external landmark detection service over HTTP.
// The service receives the image as a multipart upload and responds
// with a JSON body: {"hands": [{"handedness", "score", "points"}]}.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider creates a provider that posts images to the given
// endpoint URL.
func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *HTTPProvider) Detect(ctx context.Context, imageJPEG []byte) ([]HandLandmarks, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "hand.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageJPEG); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("landmark service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("landmark service returned %d: %s", resp.StatusCode, string(msg))
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode landmark response: %w", err)
	}

	return decoded.Hands, nil
}

// FileProvider reads landmarks from a JSON sidecar file. It serves
// offline batch runs and tests, where the landmark service output has
// been captured ahead of time.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider backed by the given JSON file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Detect(ctx context.Context, imageJPEG []byte) ([]HandLandmarks, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read landmark file: %w", err)
	}

	var decoded detectResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse landmark file: %w", err)
	}

	return decoded.Hands, nil
}
