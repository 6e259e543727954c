package providers

import (
	"context"
	"sync"
	"time"
)

// MockLLM is a test double for LLMClient. Responses are served from a queue
// so a pipeline test can script a classification answer followed by an
// extraction answer. When the queue is empty the last response repeats.
type MockLLM struct {
	mu        sync.Mutex
	responses []string
	last      string
	err       error
	calls     []*ChatRequest
	Delay     time.Duration
}

// NewMockLLM creates a mock that replies with the given responses in order.
func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{responses: responses}
}

// FailWith makes every subsequent Chat call return err.
func (m *MockLLM) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Enqueue appends responses to the reply queue.
func (m *MockLLM) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Calls returns a copy of the requests seen so far.
func (m *MockLLM) Calls() []*ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ChatRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// Name returns the mock identifier.
func (m *MockLLM) Name() string { return "mock-llm" }

// Chat pops the next scripted response.
func (m *MockLLM) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}

	content := m.last
	if len(m.responses) > 0 {
		content = m.responses[0]
		m.responses = m.responses[1:]
		m.last = content
	}

	return &ChatResult{
		Content:   content,
		ModelUsed: "mock-model",
		RequestID: req.RequestID,
		Provider:  m.Name(),
	}, nil
}

// MockOCR is a test double for OCRProvider returning fixed text.
type MockOCR struct {
	Text  string
	Err   error
	mu    sync.Mutex
	calls int
}

// Name returns the mock identifier.
func (m *MockOCR) Name() string { return "mock-ocr" }

// CallCount reports how many times OCR was invoked.
func (m *MockOCR) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockOCR) result() (*OCRResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &OCRResult{Text: m.Text, Pages: 1, Provider: m.Name()}, nil
}

// ProcessImage returns the fixed text.
func (m *MockOCR) ProcessImage(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	return m.result()
}

// ProcessDocument returns the fixed text.
func (m *MockOCR) ProcessDocument(ctx context.Context, doc []byte, mimeType string) (*OCRResult, error) {
	return m.result()
}
