package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsWithoutFile(t *testing.T) {
	cm, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := cm.Get()
	if cfg.Server.Port != 8380 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Pipeline.MaxConcurrency != 5 {
		t.Errorf("MaxConcurrency = %d", cfg.Pipeline.MaxConcurrency)
	}
	if _, ok := cfg.GetOCRProvider("mistral"); !ok {
		t.Error("default mistral OCR provider missing")
	}
	if _, ok := cfg.GetLLMProvider("mistral"); !ok {
		t.Error("default mistral LLM provider missing")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
storage:
  db_path: /tmp/test.db
  max_file_size_mb: 10
pipeline:
  max_concurrency: 3
llm_providers:
  custom:
    type: openai
    model: gpt-4o
    api_key: plain-key
    enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := cm.Get()
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Storage.MaxFileSizeMB != 10 {
		t.Errorf("MaxFileSizeMB = %d", cfg.Storage.MaxFileSizeMB)
	}
	if cfg.Pipeline.MaxConcurrency != 3 {
		t.Errorf("MaxConcurrency = %d", cfg.Pipeline.MaxConcurrency)
	}
	llm, ok := cfg.GetLLMProvider("custom")
	if !ok || llm.Model != "gpt-4o" {
		t.Errorf("custom provider = %+v, ok = %v", llm, ok)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("CARTEFIN_TEST_KEY", "secret-123")

	tests := []struct {
		in   string
		want string
	}{
		{"${CARTEFIN_TEST_KEY}", "secret-123"},
		{"prefix-${CARTEFIN_TEST_KEY}", "prefix-secret-123"},
		{"no-vars", "no-vars"},
		{"${UNSET_VAR_XYZ}", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	t.Setenv("TEST_MISTRAL_KEY", "mk-123")

	cfg := &Config{
		OCRProviders: map[string]OCRProviderCfg{
			"ocr": {Type: "mistral-ocr", APIKey: "${TEST_MISTRAL_KEY}", RateLimit: 30, Enabled: true},
		},
		LLMProviders: map[string]LLMProviderCfg{
			"llm": {Type: "mistral", Model: "mistral-large-latest", APIKey: "${TEST_MISTRAL_KEY}", Enabled: true},
		},
	}

	reg := cfg.ToProviderRegistryConfig()
	if reg.OCRProviders["ocr"].APIKey != "mk-123" {
		t.Errorf("OCR APIKey = %q", reg.OCRProviders["ocr"].APIKey)
	}
	if reg.LLMProviders["llm"].APIKey != "mk-123" {
		t.Errorf("LLM APIKey = %q", reg.LLMProviders["llm"].APIKey)
	}
	if reg.OCRProviders["ocr"].RateLimit != 30 {
		t.Errorf("RateLimit = %d", reg.OCRProviders["ocr"].RateLimit)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager on written default: %v", err)
	}
	if cm.Get().Pipeline.LLMProvider != "mistral" {
		t.Errorf("LLMProvider = %q", cm.Get().Pipeline.LLMProvider)
	}
}
