// Package llm provides language understanding and generation services.
//
// All calls are synchronous request/response with a bounded timeout. Callers
// are expected to supply a fallback value for every call site; this package
// never retries on its own.
package llm

import (
	"context"
)

// Service provides language model capabilities.
type Service interface {
	// Complete sends a prompt and returns the generated text.
	Complete(ctx context.Context, system, user string) (string, error)

	// Embed generates a dense embedding for a text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Health returns the service health status.
	Health() HealthStatus

	// Close releases resources.
	Close() error
}

// HealthStatus represents service health.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Model   string `json:"model"`
	Error   string `json:"error,omitempty"`
}
