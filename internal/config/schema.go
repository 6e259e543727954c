package config

// Config holds the full service configuration, loaded from config.yaml with
// CARTEFIN_ environment overrides.
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Storage      StorageCfg                `mapstructure:"storage" yaml:"storage"`
	OCRProviders map[string]OCRProviderCfg `mapstructure:"ocr_providers" yaml:"ocr_providers"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Pipeline     PipelineCfg               `mapstructure:"pipeline" yaml:"pipeline"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// StorageCfg configures persistence and upload staging.
type StorageCfg struct {
	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
	// UploadDir stages uploaded files during processing.
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir"`
	// DeleteAfterProcessing removes staged copies once a document finished.
	DeleteAfterProcessing bool `mapstructure:"delete_after_processing" yaml:"delete_after_processing"`
	// MaxFileSizeMB is the upload size ceiling.
	MaxFileSizeMB int `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
}

// OCRProviderCfg configures one OCR backend.
type OCRProviderCfg struct {
	Type      string `mapstructure:"type" yaml:"type"`   // "mistral-ocr"
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR}
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per minute
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// LLMProviderCfg configures one chat backend.
type LLMProviderCfg struct {
	Type      string `mapstructure:"type" yaml:"type"` // "mistral", "openai"
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR}
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per minute
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PipelineCfg tunes the document pipeline.
type PipelineCfg struct {
	// OCRProvider and LLMProvider name the default backends.
	OCRProvider string `mapstructure:"ocr_provider" yaml:"ocr_provider"`
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
	// MaxConcurrency bounds parallel documents in a batch.
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	// DocumentTimeoutSeconds bounds one document's pipeline run.
	DocumentTimeoutSeconds int `mapstructure:"document_timeout_seconds" yaml:"document_timeout_seconds"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8380,
		},
		Storage: StorageCfg{
			DBPath:                "cartefin.db",
			UploadDir:             "uploads",
			DeleteAfterProcessing: true,
			MaxFileSizeMB:         50,
		},
		OCRProviders: map[string]OCRProviderCfg{
			"mistral": {
				Type:      "mistral-ocr",
				APIKey:    "${MISTRAL_API_KEY}",
				RateLimit: 60,
				Enabled:   true,
			},
		},
		LLMProviders: map[string]LLMProviderCfg{
			"mistral": {
				Type:      "mistral",
				Model:     "mistral-large-latest",
				APIKey:    "${MISTRAL_API_KEY}",
				RateLimit: 120,
				Enabled:   true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o-mini",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 120,
				Enabled:   false,
			},
		},
		Pipeline: PipelineCfg{
			OCRProvider:            "mistral",
			LLMProvider:            "mistral",
			MaxConcurrency:         5,
			DocumentTimeoutSeconds: 300,
		},
	}
}

// GetOCRProvider returns an OCR provider config by name.
func (c *Config) GetOCRProvider(name string) (OCRProviderCfg, bool) {
	cfg, ok := c.OCRProviders[name]
	return cfg, ok
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}
