package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMistralClientChat(t *testing.T) {
	var gotAuth string
	var gotBody mistralRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"model": "mistral-large-latest",
			"choices": [{"message": {"content": "{\"ok\":true}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	client := NewMistralClient(MistralConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	schema := json.RawMessage(`{"type":"object"}`)
	res, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "classifie ce document"}},
		Temperature:    0.1,
		ResponseFormat: &ResponseFormat{Name: "classification", JSONSchema: schema},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotBody.ResponseFormat == nil || gotBody.ResponseFormat.Type != "json_schema" {
		t.Errorf("response_format not forwarded: %+v", gotBody.ResponseFormat)
	}
	if gotBody.ResponseFormat.JSONSchema.Name != "classification" {
		t.Errorf("schema name = %q", gotBody.ResponseFormat.JSONSchema.Name)
	}
	if res.Content != `{"ok":true}` {
		t.Errorf("Content = %q", res.Content)
	}
	if res.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", res.TotalTokens)
	}
	if res.Provider != MistralName {
		t.Errorf("Provider = %q", res.Provider)
	}
}

func TestMistralClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"invalid api key"}`)
	}))
	defer server.Close()

	client := NewMistralClient(MistralConfig{APIKey: "bad", BaseURL: server.URL})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestMistralOCRJoinsPages(t *testing.T) {
	var gotDoc mistralOCRDocument

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			t.Errorf("path = %q, want /ocr", r.URL.Path)
		}
		var req mistralOCRRequest
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotDoc = req.Document
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"pages":[
			{"index":0,"markdown":"# Page un"},
			{"index":1,"markdown":"Page deux"}
		]}`)
	}))
	defer server.Close()

	ocr := NewMistralOCR(MistralOCRConfig{APIKey: "k", BaseURL: server.URL})

	res, err := ocr.ProcessDocument(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if gotDoc.Type != "document_url" {
		t.Errorf("document type = %q, want document_url", gotDoc.Type)
	}
	if !strings.HasPrefix(gotDoc.DocumentURL, "data:application/pdf;base64,") {
		t.Errorf("document_url not a data URL: %q", gotDoc.DocumentURL[:40])
	}
	if res.Text != "# Page un\n\nPage deux" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}

	imgRes, err := ocr.ProcessImage(context.Background(), []byte{0x89, 0x50}, "image/png")
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if gotDoc.Type != "image_url" {
		t.Errorf("document type = %q, want image_url", gotDoc.Type)
	}
	if imgRes.Pages != 2 {
		t.Errorf("Pages = %d", imgRes.Pages)
	}
}

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain object", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"surrounded by prose", "Voici le résultat:\n{\"a\":1}\nVoilà.", `{"a":1}`, false},
		{"array", `[1,2]`, `[1,2]`, false},
		{"empty", "", "", true},
		{"not json", "pas de JSON ici", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructuredJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStructuredJSON: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStructuredClientRepairsInvalidOutput(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"type_detecte": {"type": "string"}},
		"required": ["type_detecte"],
		"additionalProperties": false
	}`)

	// First reply violates the schema, second conforms.
	mock := NewMockLLM(
		`{"wrong_field": "KBIS"}`,
		"```json\n{\"type_detecte\": \"KBIS\"}\n```",
	)
	client := NewStructuredClient(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "classifie"}},
		ResponseFormat: &ResponseFormat{Name: "classification", JSONSchema: schema},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Content != `{"type_detecte":"KBIS"}` {
		t.Errorf("Content = %q", res.Content)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	repair := calls[1].Messages[len(calls[1].Messages)-1]
	if !strings.Contains(repair.Content, "strictly conforms") {
		t.Errorf("second call missing repair prompt: %q", repair.Content)
	}
}

func TestStructuredClientGivesUpAfterRepair(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","required":["x"]}`)
	mock := NewMockLLM(`{"a":1}`, `{"b":2}`)
	client := NewStructuredClient(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "x"}},
		ResponseFormat: &ResponseFormat{Name: "t", JSONSchema: schema},
	})
	if err == nil {
		t.Fatal("expected error after exhausting repair attempts")
	}
	if got := len(mock.Calls()); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestStructuredClientPropagatesProviderError(t *testing.T) {
	mock := NewMockLLM()
	wantErr := errors.New("backend down")
	mock.FailWith(wantErr)
	client := NewStructuredClient(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "x"}},
		ResponseFormat: &ResponseFormat{Name: "t", JSONSchema: json.RawMessage(`{"type":"object"}`)},
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
	// Transport errors are not repairable, no second attempt.
	if got := len(mock.Calls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRegistryReload(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"primary":  {Type: "mistral", Model: "mistral-large-latest", APIKey: "k1", Enabled: true},
			"disabled": {Type: "openai", APIKey: "k2", Enabled: false},
			"nokey":    {Type: "openai", Enabled: true},
		},
		OCRProviders: map[string]OCRProviderConfig{
			"ocr": {Type: "mistral-ocr", APIKey: "k3", Enabled: true},
		},
	}

	r := NewRegistryFromConfig(cfg, logger)
	if !r.HasLLM("primary") {
		t.Fatal("primary LLM not registered")
	}
	if r.HasLLM("disabled") || r.HasLLM("nokey") {
		t.Error("disabled or keyless providers should not register")
	}
	if !r.HasOCR("ocr") {
		t.Fatal("ocr provider not registered")
	}

	before, _ := r.GetLLM("primary")

	// Unchanged config keeps the same client instance.
	r.Reload(cfg)
	after, _ := r.GetLLM("primary")
	if before != after {
		t.Error("unchanged provider was recreated on reload")
	}

	// Changed model recreates, removed provider unregisters.
	cfg.LLMProviders["primary"] = LLMProviderConfig{
		Type: "mistral", Model: "mistral-small-latest", APIKey: "k1", Enabled: true,
	}
	delete(cfg.OCRProviders, "ocr")
	r.Reload(cfg)

	after, _ = r.GetLLM("primary")
	if before == after {
		t.Error("changed provider was not recreated on reload")
	}
	if r.HasOCR("ocr") {
		t.Error("removed OCR provider still registered")
	}
}

func TestRateLimiterConsumesTokens(t *testing.T) {
	rl := NewRateLimiter(60)

	for i := 0; i < 60; i++ {
		if !rl.TryConsume() {
			t.Fatalf("token %d should be available", i)
		}
	}
	if rl.TryConsume() {
		t.Error("bucket should be empty after consuming full minute budget")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait should honor context cancellation when empty")
	}
}
