// Package personalize provides user preference storage and result
// re-weighting based on stored preferences.
package personalize

import "strings"

// PriceSensitivity buckets how strongly a user reacts to price.
type PriceSensitivity string

const (
	SensitivityLow    PriceSensitivity = "low"
	SensitivityMedium PriceSensitivity = "medium"
	SensitivityHigh   PriceSensitivity = "high"
)

// Preferences is the per-user preference snapshot consumed by the ranker.
type Preferences struct {
	// PreferredBrands lists brands the user favors.
	PreferredBrands []string `json:"preferred_brands,omitempty"`

	// PriceSensitivity is the user's price sensitivity bucket.
	PriceSensitivity PriceSensitivity `json:"price_sensitivity,omitempty"`

	// CategoryAffinities lists product categories of interest.
	CategoryAffinities []string `json:"category_affinities,omitempty"`

	// Exposure counts how often a brand or category appeared in the user's
	// top results. Learning promotes entries to the lists above only after
	// repeat exposure.
	Exposure map[string]int `json:"exposure,omitempty"`
}

// Default returns the preferences used for new or unknown users.
func Default() Preferences {
	return Preferences{PriceSensitivity: SensitivityMedium}
}

// IsEmpty reports whether no preference signal is present.
func (p Preferences) IsEmpty() bool {
	return len(p.PreferredBrands) == 0 && len(p.CategoryAffinities) == 0
}

// PrefersBrand reports whether brand is in the preferred list
// (case-insensitive).
func (p Preferences) PrefersBrand(brand string) bool {
	return containsFold(p.PreferredBrands, brand)
}

// PrefersCategory reports whether category is an affinity
// (case-insensitive).
func (p Preferences) PrefersCategory(category string) bool {
	return containsFold(p.CategoryAffinities, category)
}

func containsFold(list []string, value string) bool {
	if value == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
