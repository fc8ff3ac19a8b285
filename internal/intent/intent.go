// Package intent provides shopping intent classification.
package intent

import "strings"

// Intent represents the categorized shopping goal behind a query.
type Intent string

const (
	// ProductDiscovery - general browsing or exploring product categories.
	ProductDiscovery Intent = "product_discovery"

	// SpecificProduct - looking for a specific product.
	SpecificProduct Intent = "specific_product"

	// AttributeSearch - searching by specific product attributes.
	AttributeSearch Intent = "attribute_search"

	// ProblemSolution - describing a problem seeking products that solve it.
	ProblemSolution Intent = "problem_solution"

	// Comparison - comparing multiple products or types.
	Comparison Intent = "comparison"

	// PriceBased - search primarily focused on price considerations.
	PriceBased Intent = "price_based"

	// Availability - checking if something is in stock.
	Availability Intent = "availability"
)

// All lists every valid intent.
var All = []Intent{
	ProductDiscovery,
	SpecificProduct,
	AttributeSearch,
	ProblemSolution,
	Comparison,
	PriceBased,
	Availability,
}

// Valid reports whether i is one of the seven known intents.
func (i Intent) Valid() bool {
	for _, v := range All {
		if i == v {
			return true
		}
	}
	return false
}

// Parse maps a classifier label to an Intent. It accepts both the wire form
// ("price_based") and the prompt form ("PRICE_BASED"). Unknown labels map to
// ProductDiscovery, never to an error: the pipeline always continues with a
// default class.
func Parse(label string) (Intent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.Trim(normalized, "\"'.")

	switch normalized {
	case "product_discovery":
		return ProductDiscovery, true
	case "specific_product", "specific_product_search":
		return SpecificProduct, true
	case "attribute_search":
		return AttributeSearch, true
	case "problem_solution":
		return ProblemSolution, true
	case "comparison":
		return Comparison, true
	case "price_based":
		return PriceBased, true
	case "availability":
		return Availability, true
	}
	return ProductDiscovery, false
}
