// Package svcctx provides service context for dependency injection via
// context. This package is separate from server to avoid import cycles with
// endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/batch"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/classify"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/config"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/extract"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/home"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/llmcall"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/recognize"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/report"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/synthesis"
)

// Services holds the core services that flow through context. Endpoints
// extract what they need via the individual extractors.
type Services struct {
	Config     *config.Manager
	Registry   *providers.Registry
	DocTypes   *doctypes.Registry
	Store      *store.Store
	Recognizer *recognize.Recognizer
	Classifier *classify.Classifier
	Extractor  *extract.Extractor
	Batch      *batch.Coordinator
	Aggregator *synthesis.Aggregator
	Renderer   *report.Renderer
	Home       *home.Dir
	LLMCalls   *llmcall.History
	Logger     *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context. Returns nil
// if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// StoreFrom extracts the document store from context.
func StoreFrom(ctx context.Context) *store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// DocTypesFrom extracts the document type registry from context.
func DocTypesFrom(ctx context.Context) *doctypes.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.DocTypes
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// BatchFrom extracts the batch coordinator from context.
func BatchFrom(ctx context.Context) *batch.Coordinator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Batch
	}
	return nil
}

// AggregatorFrom extracts the synthesis aggregator from context.
func AggregatorFrom(ctx context.Context) *synthesis.Aggregator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Aggregator
	}
	return nil
}

// RendererFrom extracts the report renderer from context.
func RendererFrom(ctx context.Context) *report.Renderer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Renderer
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LLMCallsFrom extracts the LLM call history from context.
func LLMCallsFrom(ctx context.Context) *llmcall.History {
	if s := ServicesFrom(ctx); s != nil {
		return s.LLMCalls
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
