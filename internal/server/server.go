// Package server wires the services together behind one HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopsearch/shop-search/internal/bus"
	"github.com/shopsearch/shop-search/internal/config"
	"github.com/shopsearch/shop-search/internal/conversation"
	"github.com/shopsearch/shop-search/internal/enhance"
	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/llm"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/personalize"
	"github.com/shopsearch/shop-search/internal/pipeline"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
	"github.com/shopsearch/shop-search/internal/pkg/middleware"
	"github.com/shopsearch/shop-search/internal/rank"
	"github.com/shopsearch/shop-search/internal/respond"
	"github.com/shopsearch/shop-search/internal/search"
	"github.com/shopsearch/shop-search/internal/validate"
	"github.com/shopsearch/shop-search/internal/vectordb"
)

// Server is the HTTP server with all its services.
type Server struct {
	cfg *config.Config
	log *logger.Logger

	llm       llm.Service
	retriever vectordb.Retriever
	sessions  conversation.Store
	prefs     personalize.Store
	bus       bus.Bus
	search    *search.Service
	handler   *search.Handler

	httpServer *http.Server
}

// New creates a server with all dependencies from the configuration.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}

	llmSvc, err := llm.NewClient(cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	s.llm = llmSvc

	retriever, err := vectordb.NewQdrantRetriever(cfg.Qdrant, llmSvc, log)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant retriever: %w", err)
	}
	s.retriever = retriever

	s.sessions, err = newSessionStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	s.prefs, err = newPreferenceStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating preference store: %w", err)
	}

	s.bus, err = bus.NewBus(cfg.Bus, log)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	orch := pipeline.NewOrchestrator(
		intent.NewClassifier(llmSvc, cfg.Pipeline.ConfidenceFloor, log),
		params.NewExtractor(llmSvc, log),
		conversation.NewResolver(),
		enhance.NewEnhancer(),
		s.retriever,
		rank.NewRanker(rank.Options{
			StrictPriceFilter:    cfg.Ranking.StrictPriceFilter,
			PersonalizationBoost: cfg.Ranking.PersonalizationBoost,
		}),
		validate.NewValidator(cfg.Pipeline.TopN),
		respond.NewGenerator(llmSvc, cfg.Pipeline.TopN, log),
		pipeline.Options{
			RetrievalK:         cfg.Pipeline.RetrievalK,
			TopN:               cfg.Pipeline.TopN,
			MaxQueryLength:     cfg.Pipeline.MaxQueryLength,
			StageTimeout:       cfg.Pipeline.StageTimeout,
			EnableConversation: cfg.EnableConversation,
		},
		log,
	)

	s.search = search.NewService(orch, s.sessions, s.prefs, s.bus, search.Options{
		EnableConversation:    cfg.EnableConversation,
		EnablePersonalization: cfg.EnablePersonalization,
		MaxTurns:              cfg.Session.MaxTurns,
		TopN:                  cfg.Pipeline.TopN,
	}, log)

	s.handler = search.NewHandler(s.search, llmSvc)

	return s, nil
}

func newSessionStore(cfg *config.Config, log *logger.Logger) (conversation.Store, error) {
	if cfg.Session.Type == "redis" {
		return conversation.NewRedisStore(cfg.Session.RedisURL, cfg.Session.TTL, log)
	}
	return conversation.NewMemoryStore(cfg.Session.TTL), nil
}

func newPreferenceStore(cfg *config.Config, log *logger.Logger) (personalize.Store, error) {
	if cfg.Session.Type == "redis" {
		// Preferences share the session Redis; they outlive sessions.
		return personalize.NewRedisStore(cfg.Session.RedisURL, 0, log)
	}
	return personalize.NewMemoryStore(), nil
}

// Run starts the server and blocks until ctx is canceled or the listener
// fails. Shutdown is graceful: in-flight requests drain before services
// close.
func (s *Server) Run(ctx context.Context) error {
	if err := bus.SubscribeLogging(ctx, s.bus, s.log); err != nil {
		return fmt.Errorf("subscribing telemetry consumer: %w", err)
	}

	mux := http.NewServeMux()
	s.handler.RegisterRoutes(mux)

	var handler http.Handler = mux
	if s.cfg.Security.APIKey != "" {
		handler = middleware.APIKeyAuth(s.cfg.Security.APIKey)(handler)
		s.log.Info("API key auth enabled")
	}
	if s.cfg.Security.RateLimit > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.cfg.Security.RateLimit),
			Burst:             s.cfg.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
		handler = rl.Middleware(handler)
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("Starting HTTP server", "addr", s.cfg.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTP shutdown error", "error", err)
		}

		s.close()
		return nil
	})

	return g.Wait()
}

// close releases all service resources.
func (s *Server) close() {
	if c, ok := s.retriever.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			s.log.Warn("Retriever close error", "error", err)
		}
	}
	if err := s.sessions.Close(); err != nil {
		s.log.Warn("Session store close error", "error", err)
	}
	if err := s.prefs.Close(); err != nil {
		s.log.Warn("Preference store close error", "error", err)
	}
	if err := s.bus.Close(); err != nil {
		s.log.Warn("Bus close error", "error", err)
	}
	if err := s.llm.Close(); err != nil {
		s.log.Warn("LLM client close error", "error", err)
	}
	s.log.Info("Server stopped")
}
