package pipeline

import (
	"time"

	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/rank"
	"github.com/shopsearch/shop-search/internal/validate"
	"github.com/shopsearch/shop-search/internal/vectordb"
)

// Stage names the orchestrator's states.
type Stage string

const (
	StageInputValidation      Stage = "INPUT_VALIDATION"
	StageIntentClassification Stage = "INTENT_CLASSIFICATION"
	StageParameterExtraction  Stage = "PARAMETER_EXTRACTION"
	StageContextResolution    Stage = "CONTEXT_RESOLUTION"
	StageQueryEnhancement     Stage = "QUERY_ENHANCEMENT"
	StageVectorSearch         Stage = "VECTOR_SEARCH"
	StageRanking              Stage = "RANKING"
	StageQualityValidation    Stage = "QUALITY_VALIDATION"
	StageResponseGeneration   Stage = "RESPONSE_GENERATION"
	StageFallbackResponse     Stage = "FALLBACK_RESPONSE"
	StageTelemetry            Stage = "TELEMETRY"
	StageDone                 Stage = "DONE"
)

// StageError is one error-trail entry. Trail entries record degradation;
// they never abort the run.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// SearchState is the shared state threaded through the stages. Evolution is
// append-only: each stage fills in its own fields and never rewrites earlier
// ones. Only the context resolver writes ResolvedQuery; only the ranker
// writes Ranked.
type SearchState struct {
	RawQuery      string            `json:"raw_query"`
	SessionID     string            `json:"session_id,omitempty"`
	ResolvedQuery string            `json:"resolved_query"`
	Intent        intent.Intent     `json:"intent"`
	Confidence    float64           `json:"confidence"`
	Parameters    params.Parameters `json:"parameters"`
	EnhancedQuery string            `json:"enhanced_query"`

	Retrieved  []vectordb.Retrieval `json:"retrieved,omitempty"`
	Ranked     []rank.RankedResult  `json:"ranked,omitempty"`
	Validation validate.Report      `json:"validation"`
	Response   string               `json:"response"`

	// Degraded is set when any stage fell back to its degraded output.
	Degraded   bool         `json:"degraded"`
	ErrorTrail []StageError `json:"error_trail,omitempty"`
	RetryCount int          `json:"retry_count"`

	// Metadata holds run counters and timestamps written by the telemetry
	// stage.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// addError appends a trail entry and marks the run degraded.
func (s *SearchState) addError(stage Stage, err error) {
	if err == nil {
		return
	}
	s.Degraded = true
	s.ErrorTrail = append(s.ErrorTrail, StageError{
		Stage:   stage,
		Message: err.Error(),
		At:      time.Now(),
	})
}

// addNote appends a trail entry without marking the run degraded.
func (s *SearchState) addNote(stage Stage, note string) {
	if note == "" {
		return
	}
	s.ErrorTrail = append(s.ErrorTrail, StageError{
		Stage:   stage,
		Message: note,
		At:      time.Now(),
	})
}

// setMeta records a metadata key, allocating the map on first use.
func (s *SearchState) setMeta(key string, value any) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	s.Metadata[key] = value
}
