// Package enhance rewrites resolved queries into retrieval-friendly form.
package enhance

import (
	"fmt"
	"strings"

	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
)

// Enhancer expands a query with intent phrasing and extracted parameter
// terms. It is fully deterministic: the same inputs always produce the same
// enhanced query, and the core query terms are always preserved.
type Enhancer struct{}

// NewEnhancer creates an enhancer.
func NewEnhancer() *Enhancer {
	return &Enhancer{}
}

// intentExpansions are the retrieval hints appended per intent.
var intentExpansions = map[intent.Intent][]string{
	intent.ProductDiscovery: {"product", "shop"},
	intent.SpecificProduct:  {"exact model"},
	intent.AttributeSearch:  {"with features"},
	intent.ProblemSolution:  {"solution", "designed for"},
	intent.Comparison:       {"compare", "alternatives"},
	intent.PriceBased:       {"price", "value"},
	intent.Availability:     {"in stock"},
}

// broadenExpansions replace the intent hints on retry, widening the net
// after a quality failure.
var broadenExpansions = []string{"similar", "related", "popular"}

// Enhance builds the retrieval query: the resolved query first, then
// parameter terms not already present, then the intent expansion phrases.
func (e *Enhancer) Enhance(query string, detected intent.Intent, p params.Parameters) string {
	return e.build(query, detected, p, false)
}

// Broaden builds the retry variant: parameter terms are kept but the intent
// hints give way to generic widening terms.
func (e *Enhancer) Broaden(query string, detected intent.Intent, p params.Parameters) string {
	return e.build(query, detected, p, true)
}

func (e *Enhancer) build(query string, detected intent.Intent, p params.Parameters, broaden bool) string {
	parts := []string{strings.TrimSpace(query)}
	seen := strings.ToLower(query)

	for _, term := range p.Terms() {
		if term == "" || strings.Contains(seen, strings.ToLower(term)) {
			continue
		}
		parts = append(parts, term)
		seen += " " + strings.ToLower(term)
	}

	if p.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("under $%.0f", *p.PriceMax))
	} else if p.PriceMin != nil {
		parts = append(parts, fmt.Sprintf("over $%.0f", *p.PriceMin))
	}

	hints := intentExpansions[detected]
	if broaden {
		hints = broadenExpansions
	}
	for _, h := range hints {
		if !strings.Contains(seen, h) {
			parts = append(parts, h)
		}
	}

	return strings.Join(parts, " ")
}
