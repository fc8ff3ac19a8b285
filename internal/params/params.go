// Package params provides structured search parameter extraction.
package params

import (
	"sort"
	"strings"
)

// Parameters holds the structured constraints extracted from a query.
// A nil/empty field means "unconstrained" - absence is meaningful, so
// zero-value placeholders are never written.
type Parameters struct {
	// ProductType is the type or category of product.
	ProductType string `json:"product_type,omitempty"`

	// SpecificProduct is the exact product name when searching for one item.
	SpecificProduct string `json:"specific_product,omitempty"`

	// Attributes maps attribute name to wanted values (color, size, ...).
	Attributes map[string][]string `json:"attributes,omitempty"`

	// PriceMin is the lower price bound, if any.
	PriceMin *float64 `json:"price_min,omitempty"`

	// PriceMax is the upper price bound, if any.
	PriceMax *float64 `json:"price_max,omitempty"`

	// Brands lists brands mentioned in the query.
	Brands []string `json:"brands,omitempty"`

	// Problems lists problems the user wants to solve.
	Problems []string `json:"problems,omitempty"`

	// ComparisonItems lists items being compared.
	ComparisonItems []string `json:"comparison_items,omitempty"`
}

// IsEmpty reports whether no constraint was extracted.
func (p Parameters) IsEmpty() bool {
	return p.ProductType == "" &&
		p.SpecificProduct == "" &&
		len(p.Attributes) == 0 &&
		p.PriceMin == nil &&
		p.PriceMax == nil &&
		len(p.Brands) == 0 &&
		len(p.Problems) == 0 &&
		len(p.ComparisonItems) == 0
}

// Count returns the number of populated constraint fields.
func (p Parameters) Count() int {
	n := 0
	if p.ProductType != "" {
		n++
	}
	if p.SpecificProduct != "" {
		n++
	}
	if len(p.Attributes) > 0 {
		n++
	}
	if p.PriceMin != nil || p.PriceMax != nil {
		n++
	}
	if len(p.Brands) > 0 {
		n++
	}
	if len(p.Problems) > 0 {
		n++
	}
	if len(p.ComparisonItems) > 0 {
		n++
	}
	return n
}

// MergeOver returns base overlaid with p: fields set in p win on collision,
// fields absent in p are carried over from base. Neither receiver nor
// argument is mutated.
func (p Parameters) MergeOver(base Parameters) Parameters {
	merged := base.clone()

	if p.ProductType != "" {
		merged.ProductType = p.ProductType
	}
	if p.SpecificProduct != "" {
		merged.SpecificProduct = p.SpecificProduct
	}
	if p.PriceMin != nil {
		merged.PriceMin = ptr(*p.PriceMin)
	}
	if p.PriceMax != nil {
		merged.PriceMax = ptr(*p.PriceMax)
	}
	if len(p.Brands) > 0 {
		merged.Brands = append([]string(nil), p.Brands...)
	}
	if len(p.Problems) > 0 {
		merged.Problems = append([]string(nil), p.Problems...)
	}
	if len(p.ComparisonItems) > 0 {
		merged.ComparisonItems = append([]string(nil), p.ComparisonItems...)
	}

	// Attributes merge per key, current turn winning per attribute.
	if len(p.Attributes) > 0 {
		if merged.Attributes == nil {
			merged.Attributes = make(map[string][]string)
		}
		for name, values := range p.Attributes {
			merged.Attributes[name] = append([]string(nil), values...)
		}
	}

	return merged
}

// Normalize trims values, drops empties and repairs inverted price bounds
// (min > max is swapped, never an error).
func (p Parameters) Normalize() Parameters {
	out := p.clone()

	out.ProductType = strings.TrimSpace(out.ProductType)
	out.SpecificProduct = strings.TrimSpace(out.SpecificProduct)
	out.Brands = cleanList(out.Brands)
	out.Problems = cleanList(out.Problems)
	out.ComparisonItems = cleanList(out.ComparisonItems)

	if len(out.Attributes) > 0 {
		cleaned := make(map[string][]string, len(out.Attributes))
		for name, values := range out.Attributes {
			name = strings.ToLower(strings.TrimSpace(name))
			values = cleanList(values)
			if name != "" && len(values) > 0 {
				cleaned[name] = values
			}
		}
		if len(cleaned) > 0 {
			out.Attributes = cleaned
		} else {
			out.Attributes = nil
		}
	}

	if out.PriceMin != nil && out.PriceMax != nil && *out.PriceMin > *out.PriceMax {
		out.PriceMin, out.PriceMax = out.PriceMax, out.PriceMin
	}

	return out
}

// Terms returns the constraint values as flat search terms, in a stable
// order, for query enhancement.
func (p Parameters) Terms() []string {
	var terms []string
	if p.ProductType != "" {
		terms = append(terms, p.ProductType)
	}
	if p.SpecificProduct != "" {
		terms = append(terms, p.SpecificProduct)
	}
	terms = append(terms, p.Brands...)

	attrNames := make([]string, 0, len(p.Attributes))
	for name := range p.Attributes {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		terms = append(terms, p.Attributes[name]...)
	}

	terms = append(terms, p.ComparisonItems...)
	return terms
}

func (p Parameters) clone() Parameters {
	out := Parameters{
		ProductType:     p.ProductType,
		SpecificProduct: p.SpecificProduct,
	}
	if p.PriceMin != nil {
		out.PriceMin = ptr(*p.PriceMin)
	}
	if p.PriceMax != nil {
		out.PriceMax = ptr(*p.PriceMax)
	}
	if len(p.Brands) > 0 {
		out.Brands = append([]string(nil), p.Brands...)
	}
	if len(p.Problems) > 0 {
		out.Problems = append([]string(nil), p.Problems...)
	}
	if len(p.ComparisonItems) > 0 {
		out.ComparisonItems = append([]string(nil), p.ComparisonItems...)
	}
	if len(p.Attributes) > 0 {
		out.Attributes = make(map[string][]string, len(p.Attributes))
		for name, values := range p.Attributes {
			out.Attributes[name] = append([]string(nil), values...)
		}
	}
	return out
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
