package endpoints

import (
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Document endpoints
		&ProcessDocumentsEndpoint{},
		&ListDocumentsEndpoint{},
		&GetDocumentEndpoint{},
		&DeleteDocumentEndpoint{},

		// Type catalog endpoints
		&ListDocumentTypesEndpoint{},
		&ReloadDocumentTypesEndpoint{},

		// Synthesis endpoints
		&CreateSynthesisEndpoint{},
		&ListSynthesesEndpoint{},
		&GetSynthesisEndpoint{},
		&SynthesisReportEndpoint{},

		// Stats
		&StatsEndpoint{},

		// LLM call history endpoints
		&ListLLMCallsEndpoint{},
		&LLMCallStatsEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}
