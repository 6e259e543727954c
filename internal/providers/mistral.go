package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	MistralName         = "mistral"
	MistralBaseURL      = "https://api.mistral.ai/v1"
	MistralDefaultModel = "mistral-large-latest"
)

// MistralConfig holds configuration for the Mistral chat client.
type MistralConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	RateLimit    int // requests per minute
}

// MistralClient implements LLMClient against the Mistral chat/completions API.
type MistralClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	limiter      *RateLimiter
}

// NewMistralClient creates a new Mistral chat client.
func NewMistralClient(cfg MistralConfig) *MistralClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = MistralDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 120
	}
	return &MistralClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       &http.Client{Timeout: cfg.Timeout},
		limiter:      NewRateLimiter(cfg.RateLimit),
	}
}

// Name returns the client identifier.
func (c *MistralClient) Name() string { return MistralName }

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralResponseFormat struct {
	Type       string              `json:"type"`
	JSONSchema *mistralJSONSchema  `json:"json_schema,omitempty"`
}

type mistralJSONSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type mistralRequest struct {
	Model          string                 `json:"model"`
	Messages       []mistralMessage       `json:"messages"`
	Temperature    float64                `json:"temperature,omitempty"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	ResponseFormat *mistralResponseFormat `json:"response_format,omitempty"`
}

type mistralResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat sends a chat completion request.
func (c *MistralClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	mReq := mistralRequest{
		Model:       model,
		Messages:    make([]mistralMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		mReq.Messages = append(mReq.Messages, mistralMessage{Role: m.Role, Content: m.Content})
	}
	if req.ResponseFormat != nil {
		mReq.ResponseFormat = &mistralResponseFormat{
			Type: "json_schema",
			JSONSchema: &mistralJSONSchema{
				Name:   req.ResponseFormat.Name,
				Schema: req.ResponseFormat.JSONSchema,
				Strict: true,
			},
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	mResp, err := c.doRequest(ctx, "/chat/completions", &mReq)
	if err != nil {
		return nil, err
	}
	if len(mResp.Choices) == 0 {
		return nil, fmt.Errorf("mistral: no choices in response")
	}

	return &ChatResult{
		Content:          mResp.Choices[0].Message.Content,
		ModelUsed:        mResp.Model,
		PromptTokens:     mResp.Usage.PromptTokens,
		CompletionTokens: mResp.Usage.CompletionTokens,
		TotalTokens:      mResp.Usage.TotalTokens,
		ExecutionTime:    time.Since(start),
		RequestID:        requestID,
		Provider:         MistralName,
	}, nil
}

func (c *MistralClient) doRequest(ctx context.Context, path string, body *mistralRequest) (*mistralResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mistral: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mistral: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mistral: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mistral: status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var mResp mistralResponse
	if err := json.Unmarshal(raw, &mResp); err != nil {
		return nil, fmt.Errorf("mistral: decode response: %w", err)
	}
	return &mResp, nil
}

// truncateBody keeps error messages readable when the API returns a large
// HTML or JSON error payload.
func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
