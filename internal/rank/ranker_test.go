package rank

import (
	"math"
	"testing"

	"github.com/shopsearch/shop-search/internal/catalog"
	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/personalize"
	"github.com/shopsearch/shop-search/internal/vectordb"
)

func retrievals() []vectordb.Retrieval {
	return []vectordb.Retrieval{
		{Product: catalog.Product{ID: "p1", Name: "Pegasus 41", Brand: "Nike", Category: "Shoes", Price: 89.99, InStock: true}, Score: 0.92},
		{Product: catalog.Product{ID: "p2", Name: "Ultraboost 24", Brand: "Adidas", Category: "Shoes", Price: 179.99, InStock: true}, Score: 0.88},
		{Product: catalog.Product{ID: "p3", Name: "Gel-Kayano", Brand: "Asics", Category: "Shoes", Price: 120.00, InStock: false}, Score: 0.85},
		{Product: catalog.Product{ID: "p4", Name: "Fresh Foam", Brand: "New Balance", Category: "Shoes", Price: 60.00, InStock: true}, Score: 0.70},
	}
}

func TestRankScoreSum(t *testing.T) {
	r := NewRanker(Options{})

	for _, detected := range intent.All {
		t.Run(string(detected), func(t *testing.T) {
			ranked := r.Rank(retrievals(), detected, params.Parameters{}, personalize.Default())
			for _, res := range ranked {
				sum := 0.0
				for _, c := range res.Components {
					sum += c.Weight * c.Value
				}
				if math.Abs(sum-res.FinalScore) > 1e-9 {
					t.Errorf("%s: component sum %f != final score %f", res.Product.ID, sum, res.FinalScore)
				}
			}
		})
	}
}

func TestRankDeterministic(t *testing.T) {
	r := NewRanker(Options{})
	p := params.Parameters{PriceMax: ptr(150)}

	first := r.Rank(retrievals(), intent.PriceBased, p, personalize.Default())
	for i := 0; i < 10; i++ {
		again := r.Rank(retrievals(), intent.PriceBased, p, personalize.Default())
		if len(again) != len(first) {
			t.Fatal("result count changed between runs")
		}
		for j := range first {
			if again[j].Product.ID != first[j].Product.ID {
				t.Fatalf("order changed between runs at %d: %s vs %s",
					j, again[j].Product.ID, first[j].Product.ID)
			}
		}
	}
}

func TestRankTieBreakByRetrievalOrder(t *testing.T) {
	r := NewRanker(Options{})

	// Identical products under discovery score identically; retrieval order
	// must decide.
	same := []vectordb.Retrieval{
		{Product: catalog.Product{ID: "a", Name: "Widget", Price: 10, InStock: true}, Score: 0.5},
		{Product: catalog.Product{ID: "b", Name: "Widget", Price: 10, InStock: true}, Score: 0.5},
		{Product: catalog.Product{ID: "c", Name: "Widget", Price: 10, InStock: true}, Score: 0.5},
	}

	ranked := r.Rank(same, intent.ProductDiscovery, params.Parameters{}, personalize.Default())
	if len(ranked) != 3 {
		t.Fatalf("got %d results", len(ranked))
	}
	for i, want := range []string{"a", "b", "c"} {
		if ranked[i].Product.ID != want {
			t.Errorf("position %d = %s, want %s", i, ranked[i].Product.ID, want)
		}
	}
}

func TestRankAvailabilityExcludesOutOfStock(t *testing.T) {
	r := NewRanker(Options{})

	ranked := r.Rank(retrievals(), intent.Availability, params.Parameters{}, personalize.Default())
	for _, res := range ranked {
		if !res.Product.InStock {
			t.Errorf("out-of-stock product %s survived availability filter", res.Product.ID)
		}
	}
	if len(ranked) != 3 {
		t.Errorf("got %d results, want 3", len(ranked))
	}
}

func TestRankStrictPriceFilter(t *testing.T) {
	r := NewRanker(Options{StrictPriceFilter: true})
	p := params.Parameters{PriceMax: ptr(100)}

	ranked := r.Rank(retrievals(), intent.PriceBased, p, personalize.Default())
	for _, res := range ranked {
		if res.Product.Price > 100 {
			t.Errorf("product %s at $%.2f survived strict price filter", res.Product.ID, res.Product.Price)
		}
	}
	if len(ranked) != 2 {
		t.Errorf("got %d results, want 2", len(ranked))
	}
}

func TestRankSoftPricePenalty(t *testing.T) {
	r := NewRanker(Options{})
	p := params.Parameters{PriceMax: ptr(100)}

	ranked := r.Rank(retrievals(), intent.PriceBased, p, personalize.Default())
	if len(ranked) != 4 {
		t.Fatalf("soft mode should keep all results, got %d", len(ranked))
	}
	// The in-budget p1 must outrank the over-budget p2 despite similar
	// similarity.
	if ranked[0].Product.ID != "p1" {
		t.Errorf("top result = %s, want p1", ranked[0].Product.ID)
	}
}

func TestRankPersonalizationBoost(t *testing.T) {
	r := NewRanker(Options{PersonalizationBoost: 1.0})
	prefs := personalize.Preferences{PreferredBrands: []string{"New Balance"}}

	// Same similarity so the preference decides.
	tied := []vectordb.Retrieval{
		{Product: catalog.Product{ID: "x", Name: "Shoe X", Brand: "Acme", Price: 50, InStock: true}, Score: 0.8},
		{Product: catalog.Product{ID: "y", Name: "Shoe Y", Brand: "New Balance", Price: 50, InStock: true}, Score: 0.8},
	}

	ranked := r.Rank(tied, intent.ProductDiscovery, params.Parameters{}, prefs)
	if ranked[0].Product.ID != "y" {
		t.Errorf("preferred brand should rank first, got %s", ranked[0].Product.ID)
	}
}

func TestRankComparisonBoostsNamedItems(t *testing.T) {
	r := NewRanker(Options{})
	p := params.Parameters{ComparisonItems: []string{"Ultraboost", "Pegasus"}}

	ranked := r.Rank(retrievals(), intent.Comparison, p, personalize.Default())
	topTwo := map[string]bool{ranked[0].Product.ID: true, ranked[1].Product.ID: true}
	if !topTwo["p1"] || !topTwo["p2"] {
		t.Errorf("compared items should rank on top, got %s, %s",
			ranked[0].Product.ID, ranked[1].Product.ID)
	}
}

func TestWeightsForUnknownIntent(t *testing.T) {
	w := WeightsFor(intent.Intent("bogus"))
	if w != weightTable[intent.ProductDiscovery] {
		t.Error("unknown intent should fall back to discovery weights")
	}
}

func TestRankEmptyInput(t *testing.T) {
	r := NewRanker(Options{})
	ranked := r.Rank(nil, intent.ProductDiscovery, params.Parameters{}, personalize.Default())
	if len(ranked) != 0 {
		t.Errorf("got %d results from empty input", len(ranked))
	}
}

func ptr(v float64) *float64 {
	return &v
}
