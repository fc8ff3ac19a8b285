package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/shopsearch/shop-search/internal/llm"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}

func TestClassifyByRules(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"running shoes under $100", PriceBased},
		{"iphone 15 vs galaxy s24", Comparison},
		{"do you have airpods in stock", Availability},
		{"my feet hurt when running", ProblemSolution},
		{"waterproof hiking boots", AttributeSearch},
		{"show me some jackets", ProductDiscovery},
		{"macbook m3", SpecificProduct},
		{"gift ideas", ProductDiscovery},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, confidence := classifyByRules(tt.query)
			if got != tt.want {
				t.Errorf("classifyByRules(%q) = %s, want %s", tt.query, got, tt.want)
			}
			if confidence <= 0 || confidence > 1 {
				t.Errorf("confidence %f out of range", confidence)
			}
		})
	}
}

func TestClassifyWithModel(t *testing.T) {
	mock := llm.NewMock("PRICE_BASED")
	c := NewClassifier(mock, 0.3, testLogger())

	got, err := c.Classify(context.Background(), "running shoes under $100")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Intent != PriceBased {
		t.Errorf("intent = %s, want %s", got.Intent, PriceBased)
	}
	// Model and rules agree, confidence should be high.
	if got.Confidence < 0.9 {
		t.Errorf("confidence = %f, want >= 0.9", got.Confidence)
	}
	if !got.UsedModel {
		t.Error("expected UsedModel")
	}
}

func TestClassifyModelFailure(t *testing.T) {
	mock := llm.NewMock("")
	mock.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("connection refused")
	}
	c := NewClassifier(mock, 0.3, testLogger())

	got, err := c.Classify(context.Background(), "running shoes")
	if err == nil {
		t.Fatal("expected error for the error trail")
	}
	if got.Intent != ProductDiscovery {
		t.Errorf("degraded intent = %s, want %s", got.Intent, ProductDiscovery)
	}
	if got.Confidence != 0 {
		t.Errorf("degraded confidence = %f, want 0", got.Confidence)
	}
}

func TestClassifyInvalidLabel(t *testing.T) {
	mock := llm.NewMock("BANANAS")
	c := NewClassifier(mock, 0.3, testLogger())

	got, err := c.Classify(context.Background(), "running shoes")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Intent != ProductDiscovery {
		t.Errorf("intent = %s, want %s", got.Intent, ProductDiscovery)
	}
}

func TestClassifyEmptyQuery(t *testing.T) {
	c := NewClassifier(nil, 0.3, testLogger())

	got, err := c.Classify(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Intent != ProductDiscovery || got.Confidence != 0 {
		t.Errorf("got %+v, want product_discovery with confidence 0", got)
	}
}

func TestClassifyWithoutModel(t *testing.T) {
	c := NewClassifier(nil, 0.3, testLogger())

	got, err := c.Classify(context.Background(), "compare sony and bose headphones")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Intent != Comparison {
		t.Errorf("intent = %s, want %s", got.Intent, Comparison)
	}
	if got.UsedModel {
		t.Error("UsedModel should be false without a model")
	}
}
