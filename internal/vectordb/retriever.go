// Package vectordb provides vector similarity retrieval over the product
// catalog. The pipeline treats the index as a stable black box: it issues
// queries and consumes descending (product, score) pairs, and never manages
// index construction or embedding computation itself.
package vectordb

import (
	"context"

	"github.com/shopsearch/shop-search/internal/catalog"
)

// Retrieval is a single (product, similarity score) pair.
type Retrieval struct {
	Product catalog.Product `json:"product"`

	// Score is the raw similarity score, higher is better. Scores from a
	// single Search call are comparable with each other.
	Score float32 `json:"score"`
}

// Retriever is the retrieval contract consumed by the pipeline.
type Retriever interface {
	// Search returns up to k results in descending score order.
	Search(ctx context.Context, query string, k int) ([]Retrieval, error)
}
