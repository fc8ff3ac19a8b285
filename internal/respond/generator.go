// Package respond turns ranked results into natural-language answers.
package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/llm"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
	"github.com/shopsearch/shop-search/internal/rank"
)

// Generator produces the response text for a search. The language model
// writes it when available; a deterministic template is the fallback. The
// returned text is never empty.
type Generator struct {
	llm  llm.Service
	topN int
	log  *logger.Logger
}

// NewGenerator creates a generator. llmSvc may be nil for template-only mode.
func NewGenerator(llmSvc llm.Service, topN int, log *logger.Logger) *Generator {
	if topN <= 0 {
		topN = 3
	}
	return &Generator{llm: llmSvc, topN: topN, log: log}
}

// Generate writes a response for the query over the top ranked results.
// On model failure it returns the templated summary plus the error for the
// caller's error trail.
func (g *Generator) Generate(ctx context.Context, query string, detected intent.Intent, p params.Parameters, ranked []rank.RankedResult) (string, error) {
	top := g.top(ranked)

	if g.llm == nil {
		return g.Fallback(query, detected, ranked), nil
	}

	paramsJSON, err := json.Marshal(p)
	if err != nil {
		paramsJSON = []byte("{}")
	}

	user := fmt.Sprintf(llm.ResponseGenerationPrompt,
		query, detected, string(paramsJSON), resultsBlock(top))

	text, err := g.llm.Complete(ctx, "", user)
	if err != nil {
		g.log.Warn("Response generation degraded to template", "error", err)
		return g.Fallback(query, detected, ranked), err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return g.Fallback(query, detected, ranked), nil
	}
	return text, nil
}

// Fallback builds the deterministic templated summary. Also used when the
// generated response fails the response guardrails.
func (g *Generator) Fallback(query string, detected intent.Intent, ranked []rank.RankedResult) string {
	top := g.top(ranked)
	if len(top) == 0 {
		return NoResultsText
	}

	var b strings.Builder
	switch detected {
	case intent.Comparison:
		b.WriteString("Here is a comparison of the closest matches:\n")
	case intent.Availability:
		b.WriteString("These matching items are in stock:\n")
	case intent.PriceBased:
		b.WriteString("Here are the best matches in your price range:\n")
	default:
		fmt.Fprintf(&b, "Here are the top matches for %q:\n", query)
	}

	for i, r := range top {
		prod := r.Product
		fmt.Fprintf(&b, "%d. %s", i+1, prod.Name)
		if prod.Brand != "" {
			fmt.Fprintf(&b, " by %s", prod.Brand)
		}
		fmt.Fprintf(&b, " - $%.2f", prod.Price)
		if !prod.InStock {
			b.WriteString(" (out of stock)")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (g *Generator) top(ranked []rank.RankedResult) []rank.RankedResult {
	if len(ranked) > g.topN {
		return ranked[:g.topN]
	}
	return ranked
}

// resultsBlock renders the ranked results for the generation prompt.
func resultsBlock(top []rank.RankedResult) string {
	var b strings.Builder
	for i, r := range top {
		prod := r.Product
		fmt.Fprintf(&b, "%d. %s | brand: %s | price: $%.2f | in stock: %t\n",
			i+1, prod.Name, prod.Brand, prod.Price, prod.InStock)
		if prod.Description != "" {
			fmt.Fprintf(&b, "   %s\n", prod.Description)
		}
	}
	return b.String()
}
