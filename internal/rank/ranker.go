// Package rank orders retrieved products by intent-aware score.
package rank

import (
	"sort"
	"strings"

	"github.com/shopsearch/shop-search/internal/catalog"
	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/personalize"
	"github.com/shopsearch/shop-search/internal/vectordb"
)

// ScoreComponent is one weighted term of a result's final score.
type ScoreComponent struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// RankedResult is one product with its final score and the full breakdown.
// The components always satisfy sum(weight*value) == FinalScore.
type RankedResult struct {
	Product    catalog.Product  `json:"product"`
	FinalScore float64          `json:"final_score"`
	Similarity float64          `json:"similarity"`
	Components []ScoreComponent `json:"components"`
}

// Weights is the per-intent weight assignment over the three components.
type Weights struct {
	Similarity      float64
	IntentFit       float64
	Personalization float64
}

// weightTable assigns component weights per intent. Similarity dominates for
// open-ended discovery; constrained intents shift weight to fit.
var weightTable = map[intent.Intent]Weights{
	intent.ProductDiscovery: {Similarity: 0.7, IntentFit: 0.15, Personalization: 0.15},
	intent.SpecificProduct:  {Similarity: 0.5, IntentFit: 0.45, Personalization: 0.05},
	intent.AttributeSearch:  {Similarity: 0.45, IntentFit: 0.45, Personalization: 0.1},
	intent.ProblemSolution:  {Similarity: 0.6, IntentFit: 0.3, Personalization: 0.1},
	intent.Comparison:       {Similarity: 0.45, IntentFit: 0.5, Personalization: 0.05},
	intent.PriceBased:       {Similarity: 0.4, IntentFit: 0.5, Personalization: 0.1},
	intent.Availability:     {Similarity: 0.5, IntentFit: 0.45, Personalization: 0.05},
}

// WeightsFor returns the weight assignment for the intent.
func WeightsFor(detected intent.Intent) Weights {
	if w, ok := weightTable[detected]; ok {
		return w
	}
	return weightTable[intent.ProductDiscovery]
}

// Options tune ranking behavior.
type Options struct {
	// StrictPriceFilter excludes products outside the price bounds for
	// price_based queries instead of only penalizing them.
	StrictPriceFilter bool

	// PersonalizationBoost scales the preference component value.
	PersonalizationBoost float64
}

// Ranker assigns a deterministic total order to retrieved products.
type Ranker struct {
	opts Options
}

// NewRanker creates a ranker.
func NewRanker(opts Options) *Ranker {
	if opts.PersonalizationBoost <= 0 {
		opts.PersonalizationBoost = 1.0
	}
	return &Ranker{opts: opts}
}

// Rank scores and orders the retrieved products. Ordering is deterministic:
// final score descending, then raw similarity descending, then retrieval
// order. Hard filters remove out-of-stock products on availability queries
// and, in strict mode, products outside price bounds on price queries.
func (r *Ranker) Rank(retrieved []vectordb.Retrieval, detected intent.Intent, p params.Parameters, prefs personalize.Preferences) []RankedResult {
	weights := WeightsFor(detected)

	results := make([]RankedResult, 0, len(retrieved))
	order := make(map[string]int, len(retrieved))

	for i, ret := range retrieved {
		if r.excluded(ret.Product, detected, p) {
			continue
		}

		sim := float64(ret.Score)
		fit := intentFit(ret.Product, detected, p)
		pers := r.personalization(ret.Product, prefs)

		components := []ScoreComponent{
			{Name: "similarity", Weight: weights.Similarity, Value: sim},
			{Name: "intent_fit", Weight: weights.IntentFit, Value: fit},
			{Name: "personalization", Weight: weights.Personalization, Value: pers},
		}

		final := 0.0
		for _, c := range components {
			final += c.Weight * c.Value
		}

		order[ret.Product.ID] = i
		results = append(results, RankedResult{
			Product:    ret.Product,
			FinalScore: final,
			Similarity: sim,
			Components: components,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return order[results[i].Product.ID] < order[results[j].Product.ID]
	})

	return results
}

// excluded applies the hard filters.
func (r *Ranker) excluded(prod catalog.Product, detected intent.Intent, p params.Parameters) bool {
	if detected == intent.Availability && !prod.InStock {
		return true
	}
	if detected == intent.PriceBased && r.opts.StrictPriceFilter {
		if p.PriceMin != nil && prod.Price < *p.PriceMin {
			return true
		}
		if p.PriceMax != nil && prod.Price > *p.PriceMax {
			return true
		}
	}
	return false
}

// intentFit scores how well the product matches the intent's constraints,
// in [0,1].
func intentFit(prod catalog.Product, detected intent.Intent, p params.Parameters) float64 {
	switch detected {
	case intent.PriceBased:
		return priceFit(prod, p)
	case intent.Availability:
		// Out-of-stock is already excluded; reward stock depth via InStock.
		if prod.InStock {
			return 1.0
		}
		return 0
	case intent.SpecificProduct:
		if p.SpecificProduct != "" &&
			strings.Contains(strings.ToLower(prod.Name), strings.ToLower(p.SpecificProduct)) {
			return 1.0
		}
		return constraintFit(prod, p)
	case intent.Comparison:
		for _, item := range p.ComparisonItems {
			if strings.Contains(strings.ToLower(prod.Name), strings.ToLower(item)) ||
				strings.EqualFold(prod.Brand, item) {
				return 1.0
			}
		}
		return constraintFit(prod, p)
	case intent.AttributeSearch:
		return attributeFit(prod, p)
	default:
		return constraintFit(prod, p)
	}
}

// priceFit rewards products inside the requested bounds and penalizes
// outliers steeply in proportion to their distance from the bound.
func priceFit(prod catalog.Product, p params.Parameters) float64 {
	if p.PriceMin == nil && p.PriceMax == nil {
		return 0.5
	}

	if p.PriceMax != nil && prod.Price > *p.PriceMax {
		over := (prod.Price - *p.PriceMax) / *p.PriceMax
		return clamp(0.3 - over)
	}
	if p.PriceMin != nil && prod.Price < *p.PriceMin {
		under := (*p.PriceMin - prod.Price) / *p.PriceMin
		return clamp(0.3 - under)
	}

	// Inside the bounds. For a max-bounded search, cheaper is better.
	if p.PriceMax != nil && *p.PriceMax > 0 {
		return clamp(1.0 - 0.2*(prod.Price / *p.PriceMax))
	}
	return 1.0
}

// attributeFit is the fraction of wanted attribute values the product has,
// brands counting as one more constraint.
func attributeFit(prod catalog.Product, p params.Parameters) float64 {
	wanted, matched := 0, 0

	for name, values := range p.Attributes {
		for _, v := range values {
			wanted++
			if prod.HasAttribute(name, []string{v}) {
				matched++
			}
		}
	}
	if len(p.Brands) > 0 {
		wanted++
		for _, b := range p.Brands {
			if strings.EqualFold(prod.Brand, b) {
				matched++
				break
			}
		}
	}

	if wanted == 0 {
		return 0.5
	}
	return float64(matched) / float64(wanted)
}

// constraintFit is the generic fit over whatever constraints are present.
func constraintFit(prod catalog.Product, p params.Parameters) float64 {
	wanted, matched := 0, 0

	if p.ProductType != "" {
		wanted++
		lower := strings.ToLower(p.ProductType)
		if strings.Contains(strings.ToLower(prod.Category), lower) ||
			strings.Contains(strings.ToLower(prod.Name), lower) {
			matched++
		}
	}
	if len(p.Brands) > 0 {
		wanted++
		for _, b := range p.Brands {
			if strings.EqualFold(prod.Brand, b) {
				matched++
				break
			}
		}
	}
	if p.PriceMin != nil || p.PriceMax != nil {
		wanted++
		inBounds := true
		if p.PriceMin != nil && prod.Price < *p.PriceMin {
			inBounds = false
		}
		if p.PriceMax != nil && prod.Price > *p.PriceMax {
			inBounds = false
		}
		if inBounds {
			matched++
		}
	}

	if wanted == 0 {
		return 0.5
	}
	return float64(matched) / float64(wanted)
}

// personalization scores preference alignment in [0,1], scaled by the
// configured boost and clamped.
func (r *Ranker) personalization(prod catalog.Product, prefs personalize.Preferences) float64 {
	if prefs.IsEmpty() {
		return 0
	}

	score := 0.0
	if prefs.PrefersBrand(prod.Brand) {
		score += 0.6
	}
	if prefs.PrefersCategory(prod.Category) {
		score += 0.4
	}
	return clamp(score * r.opts.PersonalizationBoost)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
