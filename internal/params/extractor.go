package params

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopsearch/shop-search/internal/intent"
	"github.com/shopsearch/shop-search/internal/llm"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// Extractor pulls structured constraints out of a query, conditioned on the
// detected intent. The language model does the heavy lifting; a rule-based
// pass is the fallback when the model is unavailable or returns junk.
// Extraction never fails hard: any error degrades to empty parameters.
type Extractor struct {
	llm llm.Service
	log *logger.Logger
}

// NewExtractor creates an extractor. llmSvc may be nil for rules-only mode.
func NewExtractor(llmSvc llm.Service, log *logger.Logger) *Extractor {
	return &Extractor{llm: llmSvc, log: log}
}

// rawParameters mirrors the JSON object the extraction prompt asks for.
type rawParameters struct {
	ProductType     string              `json:"product_type"`
	SpecificProduct string              `json:"specific_product"`
	Attributes      map[string][]string `json:"attributes"`
	PriceRange      *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"price_range"`
	Brands          []string `json:"brands"`
	Problems        []string `json:"problems"`
	ComparisonItems []string `json:"comparison_items"`
}

// Extract returns the parameters recognized for the query and intent.
// On any failure it returns empty parameters and the error for the caller's
// error trail; it never propagates a hard failure.
func (e *Extractor) Extract(ctx context.Context, query string, detected intent.Intent) (Parameters, error) {
	if strings.TrimSpace(query) == "" {
		return Parameters{}, nil
	}

	ruleParams := extractByRules(query)

	if e.llm == nil {
		return filterByIntent(ruleParams, detected).Normalize(), nil
	}

	system := fmt.Sprintf(llm.ParameterExtractionPrompt, strings.ToUpper(string(detected)))
	text, err := e.llm.Complete(ctx, system, query)
	if err != nil {
		e.log.Warn("Parameter extraction degraded to rules", "error", err)
		return filterByIntent(ruleParams, detected).Normalize(), err
	}

	parsed, parseErr := parseExtraction(text)
	if parseErr != nil {
		e.log.Warn("Parameter extraction JSON invalid, using rules",
			"error", parseErr, "raw", text)
		return filterByIntent(ruleParams, detected).Normalize(), nil
	}

	// Rule-extracted price bounds win when the model dropped them: price
	// phrasing is mechanical and the rules are exact.
	if parsed.PriceMin == nil && ruleParams.PriceMin != nil {
		parsed.PriceMin = ruleParams.PriceMin
	}
	if parsed.PriceMax == nil && ruleParams.PriceMax != nil {
		parsed.PriceMax = ruleParams.PriceMax
	}

	result := filterByIntent(parsed, detected).Normalize()

	e.log.Debug("Extracted parameters",
		"query", query,
		"intent", detected,
		"count", result.Count())

	return result, nil
}

// parseExtraction decodes the model's JSON, tolerating a markdown code fence.
func parseExtraction(text string) (Parameters, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var raw rawParameters
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Parameters{}, fmt.Errorf("decoding extraction JSON: %w", err)
	}

	p := Parameters{
		ProductType:     raw.ProductType,
		SpecificProduct: raw.SpecificProduct,
		Attributes:      raw.Attributes,
		Brands:          raw.Brands,
		Problems:        raw.Problems,
		ComparisonItems: raw.ComparisonItems,
	}
	if raw.PriceRange != nil {
		p.PriceMin = raw.PriceRange.Min
		p.PriceMax = raw.PriceRange.Max
	}
	return p, nil
}

// filterByIntent keeps only the keys recognized for the intent. Absence means
// "unconstrained", so dropping a key is safe.
func filterByIntent(p Parameters, detected intent.Intent) Parameters {
	switch detected {
	case intent.PriceBased:
		// Price bounds plus the subject of the search.
		p.Problems = nil
		p.ComparisonItems = nil
	case intent.Comparison:
		p.Problems = nil
	case intent.AttributeSearch:
		p.Problems = nil
		p.ComparisonItems = nil
	case intent.ProblemSolution:
		p.ComparisonItems = nil
	case intent.Availability:
		// Availability cares about item identity only.
		p.Problems = nil
		p.ComparisonItems = nil
		p.PriceMin = nil
		p.PriceMax = nil
	case intent.SpecificProduct:
		p.Problems = nil
		p.ComparisonItems = nil
	case intent.ProductDiscovery:
		p.ComparisonItems = nil
	}
	return p
}

var (
	priceUnderRe   = regexp.MustCompile(`(?i)(?:under|below|less than|max(?:imum)?(?: of)?|up to)\s*\$?\s*(\d+(?:\.\d+)?)`)
	priceOverRe    = regexp.MustCompile(`(?i)(?:over|above|more than|at least|min(?:imum)?(?: of)?|starting at)\s*\$?\s*(\d+(?:\.\d+)?)`)
	priceBetweenRe = regexp.MustCompile(`(?i)between\s*\$?\s*(\d+(?:\.\d+)?)\s*(?:and|-|to)\s*\$?\s*(\d+(?:\.\d+)?)`)
	priceRangeRe   = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\s*-\s*\$?\s*(\d+(?:\.\d+)?)`)
	comparisonRe   = regexp.MustCompile(`(?i)(.+?)\s+(?:vs\.?|versus|or)\s+(.+)`)
)

// knownBrands seeds rule-based brand spotting. The model path recognizes
// arbitrary brands; this list only serves degraded mode.
var knownBrands = []string{
	"nike", "adidas", "puma", "reebok", "new balance", "asics",
	"apple", "samsung", "sony", "bose", "dell", "lenovo", "hp",
	"levi's", "zara", "uniqlo", "patagonia", "north face",
}

// extractByRules is the deterministic fallback extractor.
func extractByRules(query string) Parameters {
	var p Parameters
	lower := strings.ToLower(query)

	if m := priceBetweenRe.FindStringSubmatch(query); m != nil {
		p.PriceMin = parsePrice(m[1])
		p.PriceMax = parsePrice(m[2])
	} else if m := priceRangeRe.FindStringSubmatch(query); m != nil {
		p.PriceMin = parsePrice(m[1])
		p.PriceMax = parsePrice(m[2])
	} else {
		if m := priceUnderRe.FindStringSubmatch(query); m != nil {
			p.PriceMax = parsePrice(m[1])
		}
		if m := priceOverRe.FindStringSubmatch(query); m != nil {
			p.PriceMin = parsePrice(m[1])
		}
	}

	for _, brand := range knownBrands {
		if strings.Contains(lower, brand) {
			p.Brands = append(p.Brands, titleCase(brand))
		}
	}

	if strings.Contains(lower, " vs ") || strings.Contains(lower, " versus ") {
		if m := comparisonRe.FindStringSubmatch(query); m != nil {
			p.ComparisonItems = []string{
				strings.TrimSpace(m[1]),
				strings.TrimSpace(m[2]),
			}
		}
	}

	return p
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func parsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
