package conversation

import (
	"strings"
	"testing"

	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
)

func TestNeedsContext(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		query string
		want  bool
	}{
		{"show me these in blue", true},
		{"cheaper ones", true},
		{"something more expensive", true},
		{"in blue", true},
		{"under $50", true},
		{"running shoes for marathon training", false},
		{"wireless headphones with noise cancellation", false},
		{"gifts for dad", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := r.NeedsContext(tt.query); got != tt.want {
				t.Errorf("NeedsContext(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestResolveStandaloneQueryPassesThrough(t *testing.T) {
	r := NewResolver()
	p := params.Parameters{ProductType: "running shoes for marathons"}

	res := r.Resolve("running shoes for marathon training", p, &Context{SessionID: "s1"})
	if res.Resolved {
		t.Error("standalone query should not resolve")
	}
	if res.Query != "running shoes for marathon training" {
		t.Errorf("Query = %q, want unchanged", res.Query)
	}
}

func TestResolveNoPriorTurn(t *testing.T) {
	r := NewResolver()

	res := r.Resolve("these in blue", params.Parameters{}, &Context{SessionID: "s1"})
	if res.Resolved {
		t.Error("nothing to resolve against")
	}
	if res.Note == "" {
		t.Error("expected a note for the error trail")
	}
	if res.Query != "these in blue" {
		t.Errorf("Query = %q, want unchanged", res.Query)
	}
}

func TestResolveSubstitutesPronoun(t *testing.T) {
	r := NewResolver()
	sessCtx := &Context{
		SessionID: "s1",
		Turns: []Turn{{
			Query:  "nike running shoes",
			Intent: intent.ProductDiscovery,
			Parameters: params.Parameters{
				ProductType: "running shoes",
				Brands:      []string{"Nike"},
			},
		}},
	}
	current := params.Parameters{
		Attributes: map[string][]string{"color": {"blue"}},
	}

	res := r.Resolve("these in blue", current, sessCtx)
	if !res.Resolved {
		t.Fatal("expected resolution")
	}
	if res.Query != "Nike running shoes in blue" {
		t.Errorf("Query = %q", res.Query)
	}
	if res.Parameters.ProductType != "running shoes" {
		t.Error("prior turn's product type should carry over")
	}
	if got := res.Parameters.Attributes["color"]; len(got) != 1 || got[0] != "blue" {
		t.Errorf("color = %v", got)
	}
}

func TestResolveComparativePrependsSubject(t *testing.T) {
	r := NewResolver()
	sessCtx := &Context{
		SessionID: "s1",
		Turns: []Turn{{
			Query:      "leather jackets",
			Parameters: params.Parameters{ProductType: "leather jackets"},
		}},
	}

	res := r.Resolve("cheaper", params.Parameters{}, sessCtx)
	if !res.Resolved {
		t.Fatal("expected resolution")
	}
	if !strings.Contains(res.Query, "leather jackets") {
		t.Errorf("Query = %q, want subject included", res.Query)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := NewResolver()
	sessCtx := &Context{
		SessionID: "s1",
		Turns: []Turn{{
			Query:      "leather jackets",
			Parameters: params.Parameters{ProductType: "leather jackets"},
		}},
	}

	first := r.Resolve("cheaper", params.Parameters{}, sessCtx)
	second := r.Resolve(first.Query, first.Parameters, sessCtx)
	if second.Query != first.Query {
		t.Errorf("re-resolving changed the query: %q -> %q", first.Query, second.Query)
	}
}

func TestResolvePriorTurnWithoutSubject(t *testing.T) {
	r := NewResolver()
	sessCtx := &Context{
		SessionID: "s1",
		Turns: []Turn{{
			Parameters: params.Parameters{PriceMax: f(100)},
		}},
	}

	res := r.Resolve("in blue", params.Parameters{}, sessCtx)
	if res.Note == "" {
		t.Error("expected a note about the missing subject")
	}
	if res.Query != "in blue" {
		t.Errorf("Query = %q, want unchanged", res.Query)
	}
	if res.Parameters.PriceMax == nil || *res.Parameters.PriceMax != 100 {
		t.Error("prior parameters should still merge")
	}
}

func TestSubjectOfPrecedence(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want string
	}{
		{
			"specific product wins",
			Turn{Parameters: params.Parameters{
				SpecificProduct: "iPhone 15",
				ProductType:     "phones",
				Brands:          []string{"Apple"},
			}},
			"iPhone 15",
		},
		{
			"brand plus type",
			Turn{Parameters: params.Parameters{
				ProductType: "running shoes",
				Brands:      []string{"Nike"},
			}},
			"Nike running shoes",
		},
		{
			"type only",
			Turn{Parameters: params.Parameters{ProductType: "jackets"}},
			"jackets",
		},
		{
			"falls back to resolved query",
			Turn{Query: "warm things", ResolvedQuery: "warm winter jackets"},
			"warm winter jackets",
		},
		{
			"falls back to raw query",
			Turn{Query: "warm things"},
			"warm things",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subjectOf(&tt.turn); got != tt.want {
				t.Errorf("subjectOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func f(v float64) *float64 {
	return &v
}
