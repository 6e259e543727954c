package llmcall

import "sync"

// DefaultCapacity bounds the in-memory call history.
const DefaultCapacity = 500

// History keeps the most recent LLM calls in a ring buffer. It trades
// durability for zero setup: the history resets with the process.
type History struct {
	mu    sync.RWMutex
	calls []Call
	next  int
	full  bool
}

// NewHistory creates a History with the given capacity.
// A capacity below 1 uses DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{calls: make([]Call, capacity)}
}

// Add records a call, evicting the oldest entry when full.
func (h *History) Add(call Call) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls[h.next] = call
	h.next = (h.next + 1) % len(h.calls)
	if h.next == 0 {
		h.full = true
	}
}

// List returns recorded calls, newest first, at most limit entries.
// limit <= 0 returns everything retained.
func (h *History) List(limit int) []Call {
	h.mu.RLock()
	defer h.mu.RUnlock()

	size := h.next
	if h.full {
		size = len(h.calls)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Call, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.calls)) % len(h.calls)
		out = append(out, h.calls[idx])
	}
	return out
}

// Stats summarizes the retained history.
type Stats struct {
	Calls       int            `json:"calls"`
	Failures    int            `json:"failures"`
	TotalTokens int            `json:"total_tokens"`
	ByProvider  map[string]int `json:"by_provider"`
}

// Summarize aggregates counts over the retained calls.
func (h *History) Summarize() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{ByProvider: make(map[string]int)}
	size := h.next
	if h.full {
		size = len(h.calls)
	}
	for i := 0; i < size; i++ {
		c := h.calls[i]
		stats.Calls++
		stats.TotalTokens += c.TotalTokens
		if !c.Success {
			stats.Failures++
		}
		if c.Provider != "" {
			stats.ByProvider[c.Provider]++
		}
	}
	return stats
}
