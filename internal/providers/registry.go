package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds references to LLM clients and OCR providers. It supports
// config-driven instantiation, hot reload, and thread-safe access.
type Registry struct {
	mu           sync.RWMutex
	llmClients   map[string]LLMClient
	llmConfigs   map[string]LLMProviderConfig
	ocrProviders map[string]OCRProvider
	ocrConfigs   map[string]OCRProviderConfig
	logger       *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients:   make(map[string]LLMClient),
		llmConfigs:   make(map[string]LLMProviderConfig),
		ocrProviders: make(map[string]OCRProvider),
		ocrConfigs:   make(map[string]OCRProviderConfig),
		logger:       slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	r.logger.Info("providers.llm.registered", "name", name)
}

// RegisterOCR registers an OCR provider by name.
func (r *Registry) RegisterOCR(name string, provider OCRProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ocrProviders[name] = provider
	r.logger.Info("providers.ocr.registered", "name", name)
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// GetOCR returns an OCR provider by name.
func (r *Registry) GetOCR(name string) (OCRProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.ocrProviders[name]
	if !ok {
		return nil, fmt.Errorf("OCR provider not found: %s", name)
	}
	return provider, nil
}

// ListLLM returns all registered LLM client names.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	return names
}

// ListOCR returns all registered OCR provider names.
func (r *Registry) ListOCR() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ocrProviders))
	for name := range r.ocrProviders {
		names = append(names, name)
	}
	return names
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// HasOCR checks if an OCR provider is registered.
func (r *Registry) HasOCR(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ocrProviders[name]
	return ok
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	// OCRProviders maps provider names to their config
	OCRProviders map[string]OCRProviderConfig

	// LLMProviders maps provider names to their config
	LLMProviders map[string]LLMProviderConfig
}

// OCRProviderConfig describes one OCR backend with its resolved API key.
type OCRProviderConfig struct {
	Type      string // "mistral-ocr"
	Model     string
	APIKey    string
	BaseURL   string
	RateLimit int // requests per minute
	Enabled   bool
}

// LLMProviderConfig describes one chat backend with its resolved API key.
type LLMProviderConfig struct {
	Type      string // "mistral", "openai"
	Model     string
	APIKey    string
	BaseURL   string
	RateLimit int // requests per minute
	Enabled   bool
}

// NewRegistryFromConfig creates a registry with providers based on
// configuration. Only enabled providers with an API key are registered.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyConfig(cfg)
	return r
}

// Reload updates the registry from new configuration. Providers no longer
// configured are removed, changed ones are recreated, unchanged ones keep
// their client (and its rate limiter state).
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wantLLM := make(map[string]bool)
	wantOCR := make(map[string]bool)

	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantLLM[name] = true

		if existing, ok := r.llmConfigs[name]; ok && existing == provCfg {
			continue
		}
		client := createLLMClient(provCfg, r.logger)
		if client == nil {
			r.logger.Warn("providers.llm.unknown_type", "name", name, "type", provCfg.Type)
			continue
		}
		_, existed := r.llmClients[name]
		r.llmClients[name] = client
		r.llmConfigs[name] = provCfg
		if existed {
			r.logger.Info("providers.llm.updated", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("providers.llm.registered", "name", name, "type", provCfg.Type)
		}
	}

	for name, provCfg := range cfg.OCRProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantOCR[name] = true

		if existing, ok := r.ocrConfigs[name]; ok && existing == provCfg {
			continue
		}
		provider := createOCRProvider(provCfg)
		if provider == nil {
			r.logger.Warn("providers.ocr.unknown_type", "name", name, "type", provCfg.Type)
			continue
		}
		_, existed := r.ocrProviders[name]
		r.ocrProviders[name] = provider
		r.ocrConfigs[name] = provCfg
		if existed {
			r.logger.Info("providers.ocr.updated", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("providers.ocr.registered", "name", name, "type", provCfg.Type)
		}
	}

	for name := range r.llmClients {
		if !wantLLM[name] {
			delete(r.llmClients, name)
			delete(r.llmConfigs, name)
			r.logger.Info("providers.llm.unregistered", "name", name)
		}
	}
	for name := range r.ocrProviders {
		if !wantOCR[name] {
			delete(r.ocrProviders, name)
			delete(r.ocrConfigs, name)
			r.logger.Info("providers.ocr.unregistered", "name", name)
		}
	}
}

// applyConfig registers providers without reload bookkeeping. Caller holds
// the lock.
func (r *Registry) applyConfig(cfg RegistryConfig) {
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		if client := createLLMClient(provCfg, r.logger); client != nil {
			r.llmClients[name] = client
			r.llmConfigs[name] = provCfg
		}
	}
	for name, provCfg := range cfg.OCRProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		if provider := createOCRProvider(provCfg); provider != nil {
			r.ocrProviders[name] = provider
			r.ocrConfigs[name] = provCfg
		}
	}
}

// createLLMClient builds a chat client for the provider type. Every client
// is wrapped with circuit breaking and local structured-output validation.
func createLLMClient(cfg LLMProviderConfig, logger *slog.Logger) LLMClient {
	var base LLMClient
	switch cfg.Type {
	case "mistral":
		base = NewMistralClient(MistralConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			RateLimit:    cfg.RateLimit,
		})
	case "openai":
		base = NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			RateLimit:    cfg.RateLimit,
		})
	default:
		return nil
	}
	return NewStructuredClient(NewBreakerClient(base, BreakerConfig{}, logger), logger)
}

// createOCRProvider builds an OCR provider for the provider type.
func createOCRProvider(cfg OCRProviderConfig) OCRProvider {
	switch cfg.Type {
	case "mistral-ocr":
		return NewMistralOCR(MistralOCRConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			RateLimit: cfg.RateLimit,
		})
	default:
		return nil
	}
}
