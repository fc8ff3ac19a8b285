package intent

import (
	"context"
	"sort"
	"strings"

	"github.com/shopsearch/shop-search/internal/llm"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// Classification is the classifier output: exactly one intent plus a
// confidence in [0,1].
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`

	// UsedModel indicates whether the language model produced the label,
	// as opposed to the keyword fallback.
	UsedModel bool `json:"used_model"`
}

// Classifier assigns one of the seven intents to a query. The language model
// does the classification when available; a rule-based keyword pass is both
// the fallback and the confidence cross-check.
type Classifier struct {
	llm             llm.Service
	confidenceFloor float64
	log             *logger.Logger
}

// NewClassifier creates a classifier. llmSvc may be nil, in which case only
// the keyword rules are used.
func NewClassifier(llmSvc llm.Service, confidenceFloor float64, log *logger.Logger) *Classifier {
	if confidenceFloor <= 0 {
		confidenceFloor = 0.3
	}
	return &Classifier{
		llm:             llmSvc,
		confidenceFloor: confidenceFloor,
		log:             log,
	}
}

// Classify returns exactly one intent for the query. It never fails: on any
// external error the result is ProductDiscovery with confidence 0 and the
// error is returned alongside so the caller can record it in the error trail.
func (c *Classifier) Classify(ctx context.Context, query string) (Classification, error) {
	if strings.TrimSpace(query) == "" {
		return Classification{Intent: ProductDiscovery, Confidence: 0}, nil
	}

	ruleIntent, ruleConfidence := classifyByRules(query)

	if c.llm == nil {
		return Classification{Intent: ruleIntent, Confidence: ruleConfidence}, nil
	}

	label, err := c.llm.Complete(ctx, llm.IntentClassificationPrompt, query)
	if err != nil {
		c.log.Warn("Intent classification degraded to default", "error", err)
		return Classification{Intent: ProductDiscovery, Confidence: 0}, err
	}

	modelIntent, known := Parse(label)
	if !known {
		c.log.Warn("Invalid intent label from model, using default", "label", label)
		return Classification{Intent: ProductDiscovery, Confidence: c.confidenceFloor}, nil
	}

	confidence := 0.7
	if modelIntent == ruleIntent {
		// Model and rules agree.
		confidence = 0.95
	} else if ruleConfidence < 0.5 {
		// Rules had no strong signal, trust the model.
		confidence = 0.8
	}

	result := Classification{Intent: modelIntent, Confidence: confidence, UsedModel: true}
	if result.Confidence < c.confidenceFloor {
		result.Intent = ProductDiscovery
	}

	c.log.Debug("Classified intent",
		"query", query,
		"intent", result.Intent,
		"confidence", result.Confidence)

	return result, nil
}

// intentPatterns maps query phrases to intents. Longer patterns win on
// overlap, matching the most specific phrasing first.
var intentPatterns = map[string]Intent{
	"compare":         Comparison,
	" vs ":            Comparison,
	" versus ":        Comparison,
	"difference":      Comparison,
	"or should i":     Comparison,
	"which is better": Comparison,

	"under $":      PriceBased,
	"less than $":  PriceBased,
	"cheaper":      PriceBased,
	"cheapest":     PriceBased,
	"budget":       PriceBased,
	"affordable":   PriceBased,
	"under":        PriceBased,
	"price":        PriceBased,
	"on sale":      PriceBased,
	"deal":         PriceBased,
	"between $":    PriceBased,
	"expensive":    PriceBased,
	"max budget":   PriceBased,
	"best price":   PriceBased,
	"lowest price": PriceBased,

	"in stock":     Availability,
	"available":    Availability,
	"availability": Availability,
	"do you have":  Availability,
	"do you carry": Availability,
	"sold out":     Availability,
	"when will":    Availability,

	"help with":  ProblemSolution,
	"solve":      ProblemSolution,
	"problem":    ProblemSolution,
	"hurts":      ProblemSolution,
	"pain":       ProblemSolution,
	"keeps":      ProblemSolution,
	"my feet":    ProblemSolution,
	"prevent":    ProblemSolution,
	"something ": ProblemSolution,

	"with ":     AttributeSearch,
	"waterproof": AttributeSearch,
	"wireless":   AttributeSearch,
	"in blue":    AttributeSearch,
	"in red":     AttributeSearch,
	"in black":   AttributeSearch,
	"size ":      AttributeSearch,
	"made of":    AttributeSearch,
	"leather":    AttributeSearch,
	"organic":    AttributeSearch,

	"looking for": ProductDiscovery,
	"show me":     ProductDiscovery,
	"browse":      ProductDiscovery,
	"what do you": ProductDiscovery,
	"ideas":       ProductDiscovery,
	"recommend":   ProductDiscovery,
}

// classifyByRules is the rule-based keyword pass. It is deterministic and
// cheap, and doubles as the degraded-mode classifier.
func classifyByRules(query string) (Intent, float64) {
	lower := " " + strings.ToLower(query) + " "

	// Sort patterns by length (longest first) for specificity.
	patterns := make([]string, 0, len(intentPatterns))
	for p := range intentPatterns {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})

	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			confidence := 0.6
			if len(pattern) > 6 {
				confidence = 0.75
			}
			return intentPatterns[pattern], confidence
		}
	}

	// Model-name-looking queries (brand + alphanumeric token) suggest a
	// specific product.
	for _, word := range strings.Fields(lower) {
		if len(word) >= 2 && hasDigit(word) && hasLetter(word) {
			return SpecificProduct, 0.55
		}
	}

	return ProductDiscovery, 0.4
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
