package llmcall

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

func TestHistoryRingBuffer(t *testing.T) {
	h := NewHistory(3)

	for i := 0; i < 5; i++ {
		h.Add(Call{ID: fmt.Sprintf("c%d", i), Provider: "mistral", Success: true, TotalTokens: 10})
	}

	calls := h.List(0)
	if len(calls) != 3 {
		t.Fatalf("expected 3 retained calls, got %d", len(calls))
	}
	// Newest first, oldest evicted.
	if calls[0].ID != "c4" || calls[2].ID != "c2" {
		t.Errorf("unexpected order: %s .. %s", calls[0].ID, calls[2].ID)
	}

	if got := h.List(1); len(got) != 1 || got[0].ID != "c4" {
		t.Errorf("limit 1 should return only the newest call, got %+v", got)
	}

	stats := h.Summarize()
	if stats.Calls != 3 || stats.TotalTokens != 30 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ByProvider["mistral"] != 3 {
		t.Errorf("unexpected provider counts: %v", stats.ByProvider)
	}
}

func TestHistoryPartialFill(t *testing.T) {
	h := NewHistory(10)
	h.Add(Call{ID: "a", Success: false})
	h.Add(Call{ID: "b", Success: true})

	calls := h.List(0)
	if len(calls) != 2 || calls[0].ID != "b" {
		t.Fatalf("unexpected list: %+v", calls)
	}
	if stats := h.Summarize(); stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}
}

func TestRecordingClient(t *testing.T) {
	mock := providers.NewMockLLM(`{"ok":true}`)
	h := NewHistory(10)
	client := NewRecordingClient(mock, h)

	res, err := client.Chat(context.Background(), &providers.ChatRequest{
		RequestID: "req-1",
		Messages:  []providers.Message{{Role: "user", Content: "bonjour"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != `{"ok":true}` {
		t.Errorf("unexpected content: %s", res.Content)
	}

	calls := h.List(0)
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if !calls[0].Success || calls[0].RequestID != "req-1" {
		t.Errorf("unexpected call record: %+v", calls[0])
	}
}

func TestRecordingClientFailure(t *testing.T) {
	mock := providers.NewMockLLM()
	mock.FailWith(errors.New("backend down"))
	h := NewHistory(10)
	client := NewRecordingClient(mock, h)

	if _, err := client.Chat(context.Background(), &providers.ChatRequest{}); err == nil {
		t.Fatal("expected error")
	}

	calls := h.List(0)
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].Success {
		t.Error("failed call should not be marked successful")
	}
	if calls[0].Error == "" {
		t.Error("failed call should carry the error")
	}
	if calls[0].Provider != "mock-llm" {
		t.Errorf("provider should fall back to the client name, got %q", calls[0].Provider)
	}
}
