package params

import "testing"

func TestIsEmptyAndCount(t *testing.T) {
	var p Parameters
	if !p.IsEmpty() {
		t.Error("zero value should be empty")
	}
	if p.Count() != 0 {
		t.Errorf("Count = %d, want 0", p.Count())
	}

	p.ProductType = "shoes"
	p.PriceMax = ptr(100)
	p.Brands = []string{"Nike"}
	if p.IsEmpty() {
		t.Error("populated parameters should not be empty")
	}
	if p.Count() != 3 {
		t.Errorf("Count = %d, want 3", p.Count())
	}
}

func TestMergeOver(t *testing.T) {
	base := Parameters{
		ProductType: "running shoes",
		PriceMax:    ptr(100),
		Brands:      []string{"Nike"},
		Attributes:  map[string][]string{"color": {"red"}},
	}
	current := Parameters{
		Attributes: map[string][]string{"color": {"blue"}},
	}

	merged := current.MergeOver(base)

	if merged.ProductType != "running shoes" {
		t.Errorf("ProductType = %q, want carried over", merged.ProductType)
	}
	if merged.PriceMax == nil || *merged.PriceMax != 100 {
		t.Error("PriceMax should carry over from base")
	}
	if got := merged.Attributes["color"]; len(got) != 1 || got[0] != "blue" {
		t.Errorf("color = %v, want current turn to win", got)
	}
	if len(merged.Brands) != 1 || merged.Brands[0] != "Nike" {
		t.Errorf("Brands = %v, want carried over", merged.Brands)
	}

	// Neither input is mutated.
	if base.Attributes["color"][0] != "red" {
		t.Error("base mutated by merge")
	}
}

func TestMergeOverCurrentWins(t *testing.T) {
	base := Parameters{ProductType: "laptops", PriceMax: ptr(1500)}
	current := Parameters{ProductType: "tablets", PriceMax: ptr(800)}

	merged := current.MergeOver(base)
	if merged.ProductType != "tablets" {
		t.Errorf("ProductType = %q, want tablets", merged.ProductType)
	}
	if *merged.PriceMax != 800 {
		t.Errorf("PriceMax = %f, want 800", *merged.PriceMax)
	}
}

func TestNormalizeSwapsInvertedBounds(t *testing.T) {
	p := Parameters{PriceMin: ptr(200), PriceMax: ptr(50)}

	out := p.Normalize()
	if *out.PriceMin != 50 || *out.PriceMax != 200 {
		t.Errorf("bounds = [%f, %f], want swapped to [50, 200]", *out.PriceMin, *out.PriceMax)
	}
}

func TestNormalizeCleansValues(t *testing.T) {
	p := Parameters{
		ProductType: "  shoes  ",
		Brands:      []string{" Nike ", "", "nike", "Adidas"},
		Attributes:  map[string][]string{" Color ": {" blue ", ""}, "size": {}},
	}

	out := p.Normalize()
	if out.ProductType != "shoes" {
		t.Errorf("ProductType = %q", out.ProductType)
	}
	if len(out.Brands) != 2 {
		t.Errorf("Brands = %v, want dedup to 2", out.Brands)
	}
	if got := out.Attributes["color"]; len(got) != 1 || got[0] != "blue" {
		t.Errorf("Attributes = %v, want lowercased key with trimmed value", out.Attributes)
	}
	if _, ok := out.Attributes["size"]; ok {
		t.Error("empty attribute list should be dropped")
	}
}

func TestTermsStableOrder(t *testing.T) {
	p := Parameters{
		ProductType: "headphones",
		Brands:      []string{"Sony"},
		Attributes:  map[string][]string{"feature": {"wireless"}, "color": {"black"}},
	}

	first := p.Terms()
	for i := 0; i < 10; i++ {
		again := p.Terms()
		if len(again) != len(first) {
			t.Fatalf("Terms length changed: %v vs %v", again, first)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("Terms order changed: %v vs %v", again, first)
			}
		}
	}

	want := []string{"headphones", "Sony", "black", "wireless"}
	for i, w := range want {
		if first[i] != w {
			t.Fatalf("Terms = %v, want %v", first, want)
		}
	}
}
