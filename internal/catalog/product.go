// Package catalog defines the product model shared across the pipeline.
package catalog

// Product is a catalog item returned by retrieval.
type Product struct {
	// ID is the unique product identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Description is the marketing description used for embedding.
	Description string `json:"description,omitempty"`

	// Brand is the product brand.
	Brand string `json:"brand,omitempty"`

	// Category is the product category.
	Category string `json:"category,omitempty"`

	// Price is the current price.
	Price float64 `json:"price"`

	// InStock indicates availability.
	InStock bool `json:"in_stock"`

	// Attributes holds named attribute values (color, size, material, ...).
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// HasAttribute reports whether the product carries any of the wanted values
// for the named attribute. An empty wanted list matches when the attribute
// exists at all.
func (p Product) HasAttribute(name string, wanted []string) bool {
	values, ok := p.Attributes[name]
	if !ok {
		return false
	}
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		for _, v := range values {
			if v == w {
				return true
			}
		}
	}
	return false
}

// EmbeddingText returns the text used to embed the product into the vector
// index. Kept stable so re-indexing is reproducible.
func (p Product) EmbeddingText() string {
	text := p.Name
	if p.Brand != "" {
		text += " " + p.Brand
	}
	if p.Category != "" {
		text += " " + p.Category
	}
	if p.Description != "" {
		text += " " + p.Description
	}
	return text
}
