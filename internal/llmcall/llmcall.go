// Package llmcall provides LLM call recording and querying for traceability.
// Every LLM API call is recorded with its provider, model and token metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// RequestID ties the call back to the pipeline request that made it.
	RequestID string `json:"request_id,omitempty"`

	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FromChatResult builds a Call from a chat outcome. res may be nil when the
// call failed before producing a result.
func FromChatResult(res *providers.ChatResult, callErr error, latency time.Duration) Call {
	call := Call{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		LatencyMs: int(latency.Milliseconds()),
		Success:   callErr == nil,
	}
	if callErr != nil {
		call.Error = callErr.Error()
	}
	if res != nil {
		call.RequestID = res.RequestID
		call.Provider = res.Provider
		call.Model = res.ModelUsed
		call.PromptTokens = res.PromptTokens
		call.CompletionTokens = res.CompletionTokens
		call.TotalTokens = res.TotalTokens
	}
	return call
}
