// Package conversation provides multi-turn session context: storage of past
// turns and resolution of follow-up queries against them.
package conversation

import (
	"time"

	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/personalize"
)

// Turn records one completed search in a session.
type Turn struct {
	// Query is the raw query as the user typed it.
	Query string `json:"query"`

	// ResolvedQuery is the query after context resolution, if it differed.
	ResolvedQuery string `json:"resolved_query,omitempty"`

	// Intent is the intent the turn was classified with.
	Intent intent.Intent `json:"intent"`

	// Parameters are the constraints extracted for the turn.
	Parameters params.Parameters `json:"parameters"`

	// TopResults lists the product IDs returned for the turn.
	TopResults []string `json:"top_results,omitempty"`

	// At is when the turn completed.
	At time.Time `json:"at"`
}

// Context is the per-session conversation state carried between turns.
type Context struct {
	// SessionID identifies the session.
	SessionID string `json:"session_id"`

	// Turns holds past turns, oldest first.
	Turns []Turn `json:"turns"`

	// Preferences is the preference snapshot loaded for the session's user.
	// It rides along so the pipeline sees one consistent view per run.
	Preferences personalize.Preferences `json:"preferences"`
}

// LastTurn returns the most recent turn, or nil when the session has none.
func (c *Context) LastTurn() *Turn {
	if c == nil || len(c.Turns) == 0 {
		return nil
	}
	return &c.Turns[len(c.Turns)-1]
}

// AddTurn appends a turn and trims history to maxTurns, dropping the oldest.
func (c *Context) AddTurn(t Turn, maxTurns int) {
	c.Turns = append(c.Turns, t)
	if maxTurns > 0 && len(c.Turns) > maxTurns {
		c.Turns = c.Turns[len(c.Turns)-maxTurns:]
	}
}
