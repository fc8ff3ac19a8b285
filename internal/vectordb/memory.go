package vectordb

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/shopsearch/shop-search/internal/catalog"
)

// MemoryRetriever is an in-memory Retriever for tests and local development.
// Scoring is token-overlap cosine over the product embedding text, which is
// deterministic and needs no external services.
type MemoryRetriever struct {
	mu       sync.RWMutex
	products []catalog.Product
}

// NewMemoryRetriever creates a retriever over a fixed product set.
func NewMemoryRetriever(products []catalog.Product) *MemoryRetriever {
	return &MemoryRetriever{products: products}
}

// Add appends products to the index.
func (m *MemoryRetriever) Add(products ...catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, products...)
}

// Search implements Retriever.
func (m *MemoryRetriever) Search(ctx context.Context, query string, k int) ([]Retrieval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if k <= 0 {
		k = 10
	}

	queryTokens := tokenize(query)

	scored := make([]Retrieval, 0, len(m.products))
	for _, p := range m.products {
		score := cosineOverlap(queryTokens, tokenize(p.EmbeddingText()))
		if score <= 0 {
			continue
		}
		scored = append(scored, Retrieval{Product: p, Score: score})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func tokenize(text string) map[string]int {
	tokens := make(map[string]int)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		field = strings.Trim(field, ".,!?\"'()")
		if field == "" {
			continue
		}
		tokens[field]++
	}
	return tokens
}

func cosineOverlap(a, b map[string]int) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for token, countA := range a {
		normA += float64(countA * countA)
		if countB, ok := b[token]; ok {
			dot += float64(countA * countB)
		}
	}
	for _, countB := range b {
		normB += float64(countB * countB)
	}

	if dot == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
