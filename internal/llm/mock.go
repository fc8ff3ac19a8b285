package llm

import (
	"context"
	"sync"
)

// Mock is an in-memory Service implementation for tests and local development.
// Responses are matched by a caller-supplied function, falling back to a
// static default.
type Mock struct {
	mu sync.Mutex

	// CompleteFunc, when set, handles Complete calls.
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	// EmbedFunc, when set, handles Embed calls.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	// DefaultResponse is returned by Complete when CompleteFunc is nil.
	DefaultResponse string

	// Calls records every Complete invocation's user prompt.
	Calls []string
}

// NewMock creates a mock service with a default response.
func NewMock(defaultResponse string) *Mock {
	return &Mock{DefaultResponse: defaultResponse}
}

// Complete implements Service.
func (m *Mock) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, user)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return m.DefaultResponse, nil
}

// Embed implements Service.
func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	// Deterministic tiny embedding keyed on text length.
	return []float32{float32(len(text)), 1, 0}, nil
}

// Health implements Service.
func (m *Mock) Health() HealthStatus {
	return HealthStatus{Healthy: true, Model: "mock"}
}

// Close implements Service.
func (m *Mock) Close() error {
	return nil
}
