// Package pipeline runs the staged query-processing state machine.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsearch/shop-search/internal/conversation"
	"github.com/shopsearch/shop-search/internal/enhance"
	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/personalize"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
	"github.com/shopsearch/shop-search/internal/rank"
	"github.com/shopsearch/shop-search/internal/respond"
	"github.com/shopsearch/shop-search/internal/validate"
	"github.com/shopsearch/shop-search/internal/vectordb"
)

// Options configure a pipeline run.
type Options struct {
	// RetrievalK is how many candidates to pull from the vector index.
	RetrievalK int

	// TopN is how many results the response covers.
	TopN int

	// MaxQueryLength is the input length cap.
	MaxQueryLength int

	// StageTimeout bounds each external call.
	StageTimeout time.Duration

	// EnableConversation turns the context-resolution stage on.
	EnableConversation bool
}

func (o *Options) setDefaults() {
	if o.RetrievalK <= 0 {
		o.RetrievalK = 10
	}
	if o.TopN <= 0 {
		o.TopN = 3
	}
	if o.MaxQueryLength <= 0 {
		o.MaxQueryLength = 500
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = 10 * time.Second
	}
}

// Orchestrator drives one query through the stage machine. It is stateless
// across runs and safe for concurrent use.
type Orchestrator struct {
	classifier *intent.Classifier
	extractor  *params.Extractor
	resolver   *conversation.Resolver
	enhancer   *enhance.Enhancer
	retriever  vectordb.Retriever
	ranker     *rank.Ranker
	validator  *validate.Validator
	generator  *respond.Generator
	opts       Options
	log        *logger.Logger
}

// NewOrchestrator wires the stages together.
func NewOrchestrator(
	classifier *intent.Classifier,
	extractor *params.Extractor,
	resolver *conversation.Resolver,
	enhancer *enhance.Enhancer,
	retriever vectordb.Retriever,
	ranker *rank.Ranker,
	validator *validate.Validator,
	generator *respond.Generator,
	opts Options,
	log *logger.Logger,
) *Orchestrator {
	opts.setDefaults()
	return &Orchestrator{
		classifier: classifier,
		extractor:  extractor,
		resolver:   resolver,
		enhancer:   enhancer,
		retriever:  retriever,
		ranker:     ranker,
		validator:  validator,
		generator:  generator,
		opts:       opts,
		log:        log,
	}
}

// Run processes one query to completion. It never returns an error: every
// failure mode ends in a non-empty response, with degradation recorded in
// the state's error trail. sessCtx may be nil when conversation mode is off
// or the session is new; the pipeline never mutates it.
func (o *Orchestrator) Run(ctx context.Context, rawQuery string, sessCtx *conversation.Context) *SearchState {
	started := time.Now()

	state := &SearchState{
		RawQuery:      rawQuery,
		ResolvedQuery: rawQuery,
		Intent:        intent.ProductDiscovery,
	}
	if sessCtx != nil {
		state.SessionID = sessCtx.SessionID
	}

	stage := StageInputValidation
	for stage != StageDone {
		// Cancellation is cooperative: checked between stages only.
		if err := ctx.Err(); err != nil && stage != StageFallbackResponse && stage != StageTelemetry {
			state.addError(stage, fmt.Errorf("run canceled: %w", err))
			if state.Response == "" {
				state.Response = respond.NoResultsText
			}
			stage = StageTelemetry
			continue
		}

		o.log.Debug("Pipeline stage", "stage", stage, "query", rawQuery)
		stage = o.step(ctx, stage, state, sessCtx)
	}

	o.finish(state, started)
	return state
}

// step executes one stage and returns the next.
func (o *Orchestrator) step(ctx context.Context, stage Stage, state *SearchState, sessCtx *conversation.Context) Stage {
	switch stage {
	case StageInputValidation:
		issue, canned := validateInput(state.RawQuery, o.opts.MaxQueryLength)
		if issue != InputOK {
			state.addNote(stage, "input rejected: "+string(issue))
			state.setMeta("input_issue", string(issue))
			state.Response = canned
			state.Validation = validate.Report{Verdict: validate.VerdictReject}
			return StageTelemetry
		}
		return StageIntentClassification

	case StageIntentClassification:
		callCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
		cls, err := o.classifier.Classify(callCtx, state.RawQuery)
		cancel()
		state.addError(stage, err)
		state.Intent = cls.Intent
		state.Confidence = cls.Confidence
		return StageParameterExtraction

	case StageParameterExtraction:
		callCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
		extracted, err := o.extractor.Extract(callCtx, state.RawQuery, state.Intent)
		cancel()
		state.addError(stage, err)
		state.Parameters = extracted
		if o.opts.EnableConversation {
			return StageContextResolution
		}
		return StageQueryEnhancement

	case StageContextResolution:
		res := o.resolver.Resolve(state.RawQuery, state.Parameters, sessCtx)
		state.addNote(stage, res.Note)
		state.ResolvedQuery = res.Query
		state.Parameters = res.Parameters
		if res.Resolved {
			state.setMeta("context_resolved", true)
		}
		return StageQueryEnhancement

	case StageQueryEnhancement:
		if state.RetryCount > 0 {
			state.EnhancedQuery = o.enhancer.Broaden(state.ResolvedQuery, state.Intent, state.Parameters)
		} else {
			state.EnhancedQuery = o.enhancer.Enhance(state.ResolvedQuery, state.Intent, state.Parameters)
		}
		return StageVectorSearch

	case StageVectorSearch:
		callCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
		retrieved, err := o.retriever.Search(callCtx, state.EnhancedQuery, o.opts.RetrievalK)
		cancel()
		state.addError(stage, err)
		state.Retrieved = retrieved
		return StageRanking

	case StageRanking:
		prefs := sessionPrefs(sessCtx)
		state.Ranked = o.ranker.Rank(state.Retrieved, state.Intent, state.Parameters, prefs)
		return StageQualityValidation

	case StageQualityValidation:
		retryAllowed := state.RetryCount == 0
		state.Validation = o.validator.Validate(state.Ranked, state.Parameters, retryAllowed)
		switch state.Validation.Verdict {
		case validate.VerdictPass:
			return StageResponseGeneration
		case validate.VerdictRetry:
			state.RetryCount++
			state.addNote(stage, "quality retry: "+joinIssues(state.Validation.Issues))
			return StageQueryEnhancement
		default:
			state.addNote(stage, "quality reject: "+joinIssues(state.Validation.Issues))
			return StageFallbackResponse
		}

	case StageResponseGeneration:
		callCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
		text, err := o.generator.Generate(callCtx, state.ResolvedQuery, state.Intent, state.Parameters, state.Ranked)
		cancel()
		state.addError(stage, err)

		if issues := o.validator.CheckResponse(text, state.Ranked); len(issues) > 0 {
			state.addNote(stage, "generated response replaced: "+joinIssues(issues))
			text = o.generator.Fallback(state.ResolvedQuery, state.Intent, state.Ranked)
		}
		state.Response = text
		return StageTelemetry

	case StageFallbackResponse:
		if len(state.Ranked) == 0 {
			state.Response = respond.NoResultsText
		} else {
			state.Response = respond.RetryExhaustedText
		}
		return StageTelemetry

	case StageTelemetry:
		return StageDone
	}

	return StageDone
}

// finish writes the run counters. The telemetry bus event is published by
// the caller, which owns the session and the bus.
func (o *Orchestrator) finish(state *SearchState, started time.Time) {
	state.setMeta("duration_ms", time.Since(started).Milliseconds())
	state.setMeta("retrieved_count", len(state.Retrieved))
	state.setMeta("ranked_count", len(state.Ranked))
	state.setMeta("retry_count", state.RetryCount)
	state.setMeta("degraded", state.Degraded)
	state.setMeta("completed_at", time.Now().UTC().Format(time.RFC3339))

	o.log.Info("Pipeline run complete",
		"intent", state.Intent,
		"confidence", state.Confidence,
		"results", len(state.Ranked),
		"verdict", state.Validation.Verdict,
		"degraded", state.Degraded,
		"retries", state.RetryCount)
}

func sessionPrefs(sessCtx *conversation.Context) personalize.Preferences {
	if sessCtx != nil {
		return sessCtx.Preferences
	}
	return personalize.Default()
}

func joinIssues(issues []string) string {
	switch len(issues) {
	case 0:
		return "unspecified"
	case 1:
		return issues[0]
	}
	out := issues[0]
	for _, i := range issues[1:] {
		out += "; " + i
	}
	return out
}
