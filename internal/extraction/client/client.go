// Package client is the HTTP adapter to the model-serving collaborator
// hosting face extraction, OCR, and document analysis. It returns plain
// errors; callers apply the timeout and retry policies.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"veris/internal/document"
	"veris/internal/extraction"
)

const defaultTimeout = 15 * time.Second

// Client calls the extraction service. One client serves all three
// capabilities so connection pooling is shared.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs an extraction client. A zero timeout uses the package
// default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Image        string `json:"image"`
	DocumentType string `json:"document_type,omitempty"`
}

// ExtractFace implements extraction.FaceExtractor.
func (c *Client) ExtractFace(ctx context.Context, image []byte) (*extraction.FaceMeasurements, error) {
	var out extraction.FaceMeasurements
	if err := c.post(ctx, "/v1/face", extractRequest{Image: encode(image)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractText implements extraction.TextExtractor.
func (c *Client) ExtractText(ctx context.Context, image []byte, documentType string) (*extraction.OCRResult, error) {
	var out extraction.OCRResult
	req := extractRequest{Image: encode(image), DocumentType: documentType}
	if err := c.post(ctx, "/v1/ocr", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type analysisResponse struct {
	Quality   extraction.ImageQuality   `json:"quality"`
	Security  document.SecurityFeatures `json:"security"`
	Tampering extraction.Indicator      `json:"tampering"`
}

// AnalyzeDocument implements document.Analyzer.
func (c *Client) AnalyzeDocument(ctx context.Context, image []byte) (*document.Analysis, error) {
	var out analysisResponse
	if err := c.post(ctx, "/v1/document-analysis", extractRequest{Image: encode(image)}, &out); err != nil {
		return nil, err
	}
	return &document.Analysis{
		Quality:   out.Quality,
		Security:  out.Security,
		Tampering: out.Tampering,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func encode(image []byte) string {
	return base64.StdEncoding.EncodeToString(image)
}
