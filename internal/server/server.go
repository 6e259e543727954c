package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
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
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/server/endpoints"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/synthesis"
)

// Server is the main cartefin HTTP server. It owns the document store
// lifecycle, opening it on start and closing it on shutdown.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	docTypes   *doctypes.Registry
	configMgr  *config.Manager
	homeDir    *home.Dir
	llmCalls   *llmcall.History
	logger     *slog.Logger

	store *store.Store

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8380)
	Port string
	// Home is the cartefin home directory for data and staged uploads
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// SwaggerSpecPath points to the generated OpenAPI spec
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8380"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	// Create provider registry from config, with hot reload
	registry := providers.NewRegistryFromConfig(
		cfg.ConfigManager.Get().ToProviderRegistryConfig(), cfg.Logger)
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s := &Server{
		registry:  registry,
		docTypes:  doctypes.NewRegistry(cfg.Logger),
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		llmCalls:  llmcall.NewHistory(llmcall.DefaultCapacity),
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: cfg.SwaggerSpecPath}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  10 * time.Minute, // batch uploads run synchronously
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the document store, wires the pipeline and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	cfg := s.configMgr.Get()

	dbPath := cfg.Storage.DBPath
	if s.homeDir != nil && dbPath == "" {
		dbPath = s.homeDir.DBPath()
	}

	st, err := store.Open(dbPath, s.logger)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = st

	// The config watcher may already be delivering changes, so the
	// initial assignment takes the same lock as the rebuild callback.
	svcs := s.buildServices(cfg)
	s.mu.Lock()
	s.services = svcs
	s.mu.Unlock()

	// Rebuild the pipeline when config changes so new provider settings
	// take effect without a restart.
	s.configMgr.OnChange(func(c *config.Config) {
		s.mu.Lock()
		s.services = s.buildServices(c)
		s.mu.Unlock()
	})

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// buildServices assembles the document pipeline from the current config.
// Provider lookups that fail leave the corresponding stage degraded: the
// classifier falls back to keywords, recognition rejects image input.
func (s *Server) buildServices(cfg *config.Config) *svcctx.Services {
	var ocr providers.OCRProvider
	if p, err := s.registry.GetOCR(cfg.Pipeline.OCRProvider); err == nil {
		ocr = p
	} else {
		s.logger.Warn("ocr provider unavailable", "name", cfg.Pipeline.OCRProvider, "error", err)
	}

	var llm providers.LLMClient
	var model string
	if c, err := s.registry.GetLLM(cfg.Pipeline.LLMProvider); err == nil {
		llm = llmcall.NewRecordingClient(c, s.llmCalls)
		if pc, ok := cfg.GetLLMProvider(cfg.Pipeline.LLMProvider); ok {
			model = pc.Model
		}
	} else {
		s.logger.Warn("llm provider unavailable", "name", cfg.Pipeline.LLMProvider, "error", err)
	}

	recognizer := recognize.New(ocr, s.logger)
	classifier := classify.New(s.docTypes, llm, classify.Config{Model: model}, s.logger)
	extractor := extract.New(s.docTypes, llm, extract.Config{Model: model}, s.logger)

	coordinator := batch.New(recognizer, classifier, extractor, s.store, batch.Config{
		MaxConcurrency:  cfg.Pipeline.MaxConcurrency,
		MaxFileSizeMB:   cfg.Storage.MaxFileSizeMB,
		DeleteAfter:     cfg.Storage.DeleteAfterProcessing,
		DocumentTimeout: time.Duration(cfg.Pipeline.DocumentTimeoutSeconds) * time.Second,
	}, s.logger)

	aggregator := synthesis.New(s.store, s.logger)

	return &svcctx.Services{
		Config:     s.configMgr,
		Registry:   s.registry,
		DocTypes:   s.docTypes,
		Store:      s.store,
		Recognizer: recognizer,
		Classifier: classifier,
		Extractor:  extractor,
		Batch:      coordinator,
		Aggregator: aggregator,
		Renderer:   report.New(),
		Home:       s.homeDir,
		LLMCalls:   s.llmCalls,
		Logger:     s.logger,
	}
}

// shutdown performs graceful shutdown of the HTTP server and the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// DocTypes returns the document type registry.
func (s *Server) DocTypes() *doctypes.Registry {
	return s.docTypes
}

// Handler returns the server's HTTP handler, context enrichment included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the store and pipeline are ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.services != nil
		s.mu.RUnlock()
		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
