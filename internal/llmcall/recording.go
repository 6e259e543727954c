package llmcall

import (
	"context"
	"time"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

// RecordingClient wraps an LLM client and records every call into a History.
type RecordingClient struct {
	inner   providers.LLMClient
	history *History
}

// NewRecordingClient wraps client so every chat call lands in history.
func NewRecordingClient(client providers.LLMClient, history *History) *RecordingClient {
	return &RecordingClient{inner: client, history: history}
}

func (c *RecordingClient) Name() string { return c.inner.Name() }

func (c *RecordingClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	start := time.Now()
	res, err := c.inner.Chat(ctx, req)
	call := FromChatResult(res, err, time.Since(start))
	if call.Provider == "" {
		call.Provider = c.inner.Name()
	}
	if call.RequestID == "" && req != nil {
		call.RequestID = req.RequestID
	}
	c.history.Add(call)
	return res, err
}
