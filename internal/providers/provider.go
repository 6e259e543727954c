// Package providers wraps the external text-recognition and inference
// engines behind narrow interfaces. Everything network-facing lives here:
// HTTP clients, rate limiting, circuit breaking, and the structured-output
// contract enforcement.
package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the inference capability: prompt in, completion out.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g. "mistral").
	Name() string
}

// OCRProvider is the recognition capability: document bytes in, text out.
type OCRProvider interface {
	// Name returns the provider identifier (e.g. "mistral-ocr").
	Name() string

	// ProcessImage extracts text from a single image.
	ProcessImage(ctx context.Context, image []byte, mimeType string) (*OCRResult, error)

	// ProcessDocument extracts text from a whole document (e.g. a PDF).
	ProcessDocument(ctx context.Context, doc []byte, mimeType string) (*OCRResult, error)
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat requests structured output constrained by a JSON schema.
type ResponseFormat struct {
	Name       string          `json:"name"`
	JSONSchema json.RawMessage `json:"json_schema"`
}

// ChatRequest is a request to an inference engine.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`

	// ResponseFormat, when set, asks the provider for schema-constrained
	// output. Providers that support it natively pass the schema through;
	// local validation still applies either way.
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	RequestID string `json:"-"`
}

// ChatResult is the response from an inference call.
type ChatResult struct {
	Content          string        `json:"content"`
	ModelUsed        string        `json:"model_used,omitempty"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	ExecutionTime    time.Duration `json:"execution_time"`
	RequestID        string        `json:"request_id"`
	Provider         string        `json:"provider"`
}

// OCRResult is the response from a recognition call.
type OCRResult struct {
	Text          string        `json:"text"`
	Pages         int           `json:"pages"`
	Provider      string        `json:"provider"`
	ExecutionTime time.Duration `json:"execution_time"`
}
