package conversation

import (
	"strings"

	"github.com/shopsearch/shop-search/internal/params"
)

// Resolution is the outcome of resolving a query against session context.
type Resolution struct {
	// Query is the resolved query text. Equal to the input when nothing
	// referred back to an earlier turn.
	Query string `json:"query"`

	// Parameters are the current turn's parameters merged over the prior
	// turn's, current turn winning on collision.
	Parameters params.Parameters `json:"parameters"`

	// Resolved indicates whether a back-reference was found and substituted.
	Resolved bool `json:"resolved"`

	// Note explains why resolution was skipped, for the error trail.
	Note string `json:"note,omitempty"`
}

// Resolver rewrites follow-up queries ("these in blue", "cheaper ones") into
// standalone queries using the most recent turn. Only the latest turn is
// consulted; older history informs preferences, not substitution.
type Resolver struct{}

// NewResolver creates a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// referentPronouns are the tokens that point back at an earlier result set.
var referentPronouns = []string{
	"these", "those", "them", "they", "it", "that one", "this one",
	"the same", "ones",
}

// comparativeMarkers signal an elided subject ("cheaper", "a bigger one").
var comparativeMarkers = []string{
	"cheaper", "cheapest", "more expensive", "bigger", "smaller",
	"larger", "lighter", "heavier", "better", "similar", "other",
	"different color", "another",
}

// NeedsContext reports whether the query likely refers back to an earlier
// turn. Short queries with pronouns or comparatives are the signal.
func (r *Resolver) NeedsContext(query string) bool {
	lower := " " + strings.ToLower(strings.TrimSpace(query)) + " "

	for _, p := range referentPronouns {
		if strings.Contains(lower, " "+p+" ") {
			return true
		}
	}
	for _, m := range comparativeMarkers {
		if strings.Contains(lower, " "+m+" ") {
			return true
		}
	}

	// Very short queries ("in blue", "under $50") rarely stand alone.
	return len(strings.Fields(query)) <= 3 && !strings.Contains(lower, " for ")
}

// Resolve rewrites the query against the session's most recent turn and
// merges parameters with the current turn taking precedence. Resolving an
// already-resolved query is a no-op: with no back-reference left, the input
// passes through unchanged.
func (r *Resolver) Resolve(query string, current params.Parameters, sessCtx *Context) Resolution {
	if !r.NeedsContext(query) {
		return Resolution{Query: query, Parameters: current}
	}

	last := sessCtx.LastTurn()
	if last == nil {
		return Resolution{
			Query:      query,
			Parameters: current,
			Note:       "follow-up query with no prior turn in session",
		}
	}

	subject := subjectOf(last)
	if subject == "" {
		return Resolution{
			Query:      query,
			Parameters: current.MergeOver(last.Parameters),
			Note:       "prior turn has no resolvable subject",
		}
	}

	// A query already carrying the subject is resolved; substituting again
	// would duplicate it.
	resolved := query
	if !strings.Contains(strings.ToLower(query), strings.ToLower(subject)) {
		resolved = substituteReferent(query, subject)
	}
	merged := current.MergeOver(last.Parameters)

	return Resolution{
		Query:      resolved,
		Parameters: merged,
		Resolved:   resolved != query || !merged.IsEmpty(),
	}
}

// subjectOf extracts the thing the previous turn was about.
func subjectOf(t *Turn) string {
	p := t.Parameters
	switch {
	case p.SpecificProduct != "":
		return p.SpecificProduct
	case p.ProductType != "" && len(p.Brands) > 0:
		return p.Brands[0] + " " + p.ProductType
	case p.ProductType != "":
		return p.ProductType
	case len(p.Brands) > 0:
		return p.Brands[0]
	}
	if t.ResolvedQuery != "" {
		return t.ResolvedQuery
	}
	return t.Query
}

// substituteReferent replaces the back-reference in query with the subject.
// When no pronoun matches, the subject is prepended so comparatives still
// land on something concrete.
func substituteReferent(query, subject string) string {
	lower := strings.ToLower(query)

	for _, p := range referentPronouns {
		idx := indexWord(lower, p)
		if idx < 0 {
			continue
		}
		return strings.TrimSpace(query[:idx] + subject + query[idx+len(p):])
	}

	return subject + " " + strings.TrimSpace(query)
}

// indexWord finds needle in haystack at a word boundary, or -1.
func indexWord(haystack, needle string) int {
	from := 0
	for {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return -1
		}
		idx += from
		startOK := idx == 0 || haystack[idx-1] == ' '
		end := idx + len(needle)
		endOK := end == len(haystack) || haystack[end] == ' ' ||
			haystack[end] == ',' || haystack[end] == '.' || haystack[end] == '?'
		if startOK && endOK {
			return idx
		}
		from = idx + 1
	}
}
