package vectordb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/shopsearch/shop-search/internal/catalog"
	"github.com/shopsearch/shop-search/internal/config"
	"github.com/shopsearch/shop-search/internal/llm"
	apperrors "github.com/shopsearch/shop-search/internal/pkg/errors"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

const (
	// CollectionPrefix is prepended to all collection names.
	CollectionPrefix = "shop_"

	// DefaultTimeout is the default operation timeout.
	DefaultTimeout = 30 * time.Second
)

// QdrantRetriever retrieves products from a Qdrant collection. Query texts
// are embedded through the llm service before the dense search.
type QdrantRetriever struct {
	client     *qdrant.Client
	embedder   llm.Service
	collection string
	timeout    time.Duration
	log        *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQdrantRetriever creates a Qdrant-backed retriever.
func NewQdrantRetriever(cfg config.QdrantConfig, embedder llm.Service, log *logger.Logger) (*QdrantRetriever, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "products"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantRetriever{
		client:     client,
		embedder:   embedder,
		collection: CollectionPrefix + cfg.Collection,
		timeout:    DefaultTimeout,
		log:        log,
	}, nil
}

// Search implements Retriever.
func (r *QdrantRetriever) Search(ctx context.Context, query string, k int) ([]Retrieval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("retriever is closed")
	}

	if k <= 0 {
		k = 10
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperrors.RetrievalError("embedding query", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperrors.RetrievalError("qdrant query", err)
	}

	results := make([]Retrieval, 0, len(points))
	for _, p := range points {
		results = append(results, Retrieval{
			Product: productFromPayload(pointID(p.Id), p.Payload),
			Score:   p.Score,
		})
	}

	r.log.Debug("Vector search complete", "query", query, "k", k, "results", len(results))
	return results, nil
}

// UpsertProducts indexes products into the collection. Used by the catalog
// seeding command, not by the search pipeline.
func (r *QdrantRetriever) UpsertProducts(ctx context.Context, products []catalog.Product) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("retriever is closed")
	}

	points := make([]*qdrant.PointStruct, 0, len(products))
	for _, p := range products {
		vector, err := r.embedder.Embed(ctx, p.EmbeddingText())
		if err != nil {
			return apperrors.RetrievalError(fmt.Sprintf("embedding product %s", p.ID), err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectorsDense(vector),
			Payload: qdrant.NewValueMap(productPayload(p)),
		})
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return apperrors.RetrievalError("upserting products", err)
	}

	return nil
}

// EnsureCollection creates the product collection if it does not exist.
func (r *QdrantRetriever) EnsureCollection(ctx context.Context, dim int) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return apperrors.RetrievalError("checking collection", err)
	}
	if exists {
		return nil
	}

	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return apperrors.RetrievalError("creating collection", err)
	}

	return nil
}

// Close closes the underlying client connection.
func (r *QdrantRetriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

func pointID(id *qdrant.PointId) string {
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	}
	return ""
}

func productPayload(p catalog.Product) map[string]any {
	payload := map[string]any{
		"name":     p.Name,
		"price":    p.Price,
		"in_stock": p.InStock,
	}
	if p.Description != "" {
		payload["description"] = p.Description
	}
	if p.Brand != "" {
		payload["brand"] = p.Brand
	}
	if p.Category != "" {
		payload["category"] = p.Category
	}
	for name, values := range p.Attributes {
		payload["attr_"+name] = values
	}
	return payload
}

func productFromPayload(id string, payload map[string]*qdrant.Value) catalog.Product {
	p := catalog.Product{ID: id}

	p.Name = getString(payload, "name")
	p.Description = getString(payload, "description")
	p.Brand = getString(payload, "brand")
	p.Category = getString(payload, "category")
	p.Price = getDouble(payload, "price")
	p.InStock = getBool(payload, "in_stock")

	for key, value := range payload {
		if len(key) > 5 && key[:5] == "attr_" {
			if values := listToStrings(value); len(values) > 0 {
				if p.Attributes == nil {
					p.Attributes = make(map[string][]string)
				}
				p.Attributes[key[5:]] = values
			}
		}
	}

	return p
}

func getString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getDouble(payload map[string]*qdrant.Value, key string) float64 {
	if v, ok := payload[key]; ok {
		if d := v.GetDoubleValue(); d != 0 {
			return d
		}
		return float64(v.GetIntegerValue())
	}
	return 0
}

func getBool(payload map[string]*qdrant.Value, key string) bool {
	if v, ok := payload[key]; ok {
		return v.GetBoolValue()
	}
	return false
}

func listToStrings(value *qdrant.Value) []string {
	list := value.GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.Values))
	for _, v := range list.Values {
		if s := v.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
