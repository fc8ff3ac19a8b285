// Package search provides the request-level search service and HTTP API.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shopsearch/shop-search/internal/bus"
	"github.com/shopsearch/shop-search/internal/catalog"
	"github.com/shopsearch/shop-search/internal/conversation"
	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/personalize"
	"github.com/shopsearch/shop-search/internal/pipeline"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
	"github.com/shopsearch/shop-search/internal/pkg/security"
	"github.com/shopsearch/shop-search/internal/rank"
)

// Request is one search request.
type Request struct {
	// Query is the free-text search query.
	Query string `json:"query"`

	// SessionID identifies the conversation session. Empty starts a new one.
	SessionID string `json:"session_id,omitempty"`

	// UserID identifies the user for personalization. Optional.
	UserID string `json:"user_id,omitempty"`
}

// Response is the search result returned to the caller.
type Response struct {
	RequestID  string                `json:"request_id"`
	SessionID  string                `json:"session_id"`
	Response   string                `json:"response"`
	Intent     intent.Intent         `json:"intent"`
	Confidence float64               `json:"confidence"`
	Results    []rank.RankedResult   `json:"results"`
	Degraded   bool                  `json:"degraded"`
	ErrorTrail []pipeline.StageError `json:"error_trail,omitempty"`
}

// Feedback is a user feedback submission for a past search.
type Feedback struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// Options configure the service.
type Options struct {
	EnableConversation    bool
	EnablePersonalization bool
	MaxTurns              int
	TopN                  int
}

// Service runs searches end to end: session locking, context load/save,
// the pipeline run, preference learning and telemetry.
type Service struct {
	orch     *pipeline.Orchestrator
	sessions conversation.Store
	prefs    personalize.Store
	locker   *conversation.SessionLocker
	bus      bus.Bus
	opts     Options
	log      *logger.Logger
}

// NewService creates the search service.
func NewService(
	orch *pipeline.Orchestrator,
	sessions conversation.Store,
	prefs personalize.Store,
	eventBus bus.Bus,
	opts Options,
	log *logger.Logger,
) *Service {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 10
	}
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	return &Service{
		orch:     orch,
		sessions: sessions,
		prefs:    prefs,
		locker:   conversation.NewSessionLocker(),
		bus:      eventBus,
		opts:     opts,
		log:      log,
	}
}

// Search runs one query through the pipeline. It never fails for pipeline
// reasons: the response always carries non-empty text, with degradation
// visible in the error trail.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	log := s.log.WithSession(sessionID)
	log.Info("Search request", "request_id", requestID, "query", security.SanitizeForLog(req.Query))

	// One in-flight run per session; the context read-modify-write below
	// must not interleave with another run on the same session.
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	sessCtx := s.loadContext(ctx, sessionID, req.UserID, log)

	state := s.orch.Run(ctx, req.Query, sessCtx)

	s.saveTurn(ctx, sessCtx, state, log)
	s.learnPreferences(ctx, req.UserID, sessCtx, state, log)
	s.publishTelemetry(ctx, sessionID, requestID, state)

	return &Response{
		RequestID:  requestID,
		SessionID:  sessionID,
		Response:   state.Response,
		Intent:     state.Intent,
		Confidence: state.Confidence,
		Results:    s.topResults(state),
		Degraded:   state.Degraded,
		ErrorTrail: state.ErrorTrail,
	}, nil
}

// SubmitFeedback records user feedback as a telemetry event.
func (s *Service) SubmitFeedback(ctx context.Context, fb Feedback) error {
	event := bus.NewEvent(bus.TopicFeedbackReceived, "shop-search", fb.SessionID, fb)
	return s.bus.Publish(ctx, bus.TopicFeedbackReceived, event)
}

// loadContext loads session history and the user's preference snapshot.
// Storage failures degrade to a fresh context, logged, never fatal.
func (s *Service) loadContext(ctx context.Context, sessionID, userID string, log *logger.Logger) *conversation.Context {
	sessCtx := &conversation.Context{SessionID: sessionID, Preferences: personalize.Default()}

	if s.opts.EnableConversation {
		loaded, err := s.sessions.Load(ctx, sessionID)
		if err != nil {
			log.Warn("Session load failed, starting fresh", "error", err)
		} else {
			sessCtx = loaded
		}
	}

	if s.opts.EnablePersonalization && userID != "" {
		prefs, err := s.prefs.Get(ctx, userID)
		if err != nil {
			log.Warn("Preference load failed, using defaults", "error", err)
		}
		sessCtx.Preferences = prefs
	}

	return sessCtx
}

// saveTurn appends the completed turn to the session and persists it.
func (s *Service) saveTurn(ctx context.Context, sessCtx *conversation.Context, state *pipeline.SearchState, log *logger.Logger) {
	if !s.opts.EnableConversation {
		return
	}

	turn := conversation.Turn{
		Query:      state.RawQuery,
		Intent:     state.Intent,
		Parameters: state.Parameters,
		At:         time.Now(),
	}
	if state.ResolvedQuery != state.RawQuery {
		turn.ResolvedQuery = state.ResolvedQuery
	}
	for _, r := range s.topResults(state) {
		turn.TopResults = append(turn.TopResults, r.Product.ID)
	}

	sessCtx.AddTurn(turn, s.opts.MaxTurns)
	if err := s.sessions.Save(ctx, sessCtx); err != nil {
		log.Warn("Session save failed", "error", err)
	}
}

// learnPreferences updates the user's preference snapshot from the results.
func (s *Service) learnPreferences(ctx context.Context, userID string, sessCtx *conversation.Context, state *pipeline.SearchState, log *logger.Logger) {
	if !s.opts.EnablePersonalization || userID == "" || len(state.Ranked) == 0 {
		return
	}

	updated := personalize.LearnFromResults(sessCtx.Preferences, productsOf(s.topResults(state)))
	if err := s.prefs.Put(ctx, userID, updated); err != nil {
		log.Warn("Preference save failed", "error", err)
	}
}

// publishTelemetry emits the run's terminal event.
func (s *Service) publishTelemetry(ctx context.Context, sessionID, requestID string, state *pipeline.SearchState) {
	topic := bus.TopicSearchCompleted
	if state.Degraded && len(state.Ranked) == 0 {
		topic = bus.TopicSearchFailed
	}

	payload := map[string]any{
		"request_id": requestID,
		"query":      state.RawQuery,
		"intent":     state.Intent,
		"confidence": state.Confidence,
		"results":    len(state.Ranked),
		"verdict":    state.Validation.Verdict,
		"degraded":   state.Degraded,
		"metadata":   state.Metadata,
	}

	event := bus.NewEvent(topic, "shop-search", sessionID, payload)
	if err := s.bus.Publish(ctx, topic, event); err != nil {
		s.log.Warn("Telemetry publish failed", "topic", topic, "error", err)
	}
}

func (s *Service) topResults(state *pipeline.SearchState) []rank.RankedResult {
	if len(state.Ranked) > s.opts.TopN {
		return state.Ranked[:s.opts.TopN]
	}
	return state.Ranked
}

func productsOf(results []rank.RankedResult) []catalog.Product {
	products := make([]catalog.Product, 0, len(results))
	for _, r := range results {
		products = append(products, r.Product)
	}
	return products
}
