package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	MistralOCRName         = "mistral-ocr"
	MistralOCRDefaultModel = "mistral-ocr-latest"
)

// MistralOCRConfig holds configuration for the Mistral OCR client.
type MistralOCRConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit int // requests per minute
}

// MistralOCR implements OCRProvider against the Mistral OCR API.
type MistralOCR struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *RateLimiter
}

// NewMistralOCR creates a new Mistral OCR provider.
func NewMistralOCR(cfg MistralOCRConfig) *MistralOCR {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralOCRDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}
	return &MistralOCR{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Name returns the provider identifier.
func (m *MistralOCR) Name() string { return MistralOCRName }

type mistralOCRDocument struct {
	Type        string `json:"type"`
	ImageURL    string `json:"image_url,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ProcessImage runs OCR on a single image.
func (m *MistralOCR) ProcessImage(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	doc := mistralOCRDocument{
		Type:     "image_url",
		ImageURL: dataURL(image, mimeType),
	}
	return m.process(ctx, doc)
}

// ProcessDocument runs OCR on a full document such as a PDF.
func (m *MistralOCR) ProcessDocument(ctx context.Context, data []byte, mimeType string) (*OCRResult, error) {
	doc := mistralOCRDocument{
		Type:        "document_url",
		DocumentURL: dataURL(data, mimeType),
	}
	return m.process(ctx, doc)
}

func (m *MistralOCR) process(ctx context.Context, doc mistralOCRDocument) (*OCRResult, error) {
	start := time.Now()

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(mistralOCRRequest{Model: m.model, Document: doc})
	if err != nil {
		return nil, fmt.Errorf("mistral ocr: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/ocr", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mistral ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mistral ocr: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mistral ocr: status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(raw, &ocrResp); err != nil {
		return nil, fmt.Errorf("mistral ocr: decode response: %w", err)
	}

	parts := make([]string, 0, len(ocrResp.Pages))
	for _, p := range ocrResp.Pages {
		parts = append(parts, p.Markdown)
	}

	return &OCRResult{
		Text:          strings.Join(parts, "\n\n"),
		Pages:         len(ocrResp.Pages),
		Provider:      MistralOCRName,
		ExecutionTime: time.Since(start),
	}, nil
}

func dataURL(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
