// Package validate applies quality guardrails to ranked results and
// generated responses.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopsearch/shop-search/internal/params"
	"github.com/shopsearch/shop-search/internal/rank"
)

// Verdict is the validator's decision for a result set.
type Verdict string

const (
	// VerdictPass means the results clear all guardrails.
	VerdictPass Verdict = "PASS"

	// VerdictRetry means the results are fixable by broadened re-retrieval.
	// Issued at most once per request; the caller enforces the bound.
	VerdictRetry Verdict = "RETRY"

	// VerdictReject means the request cannot be answered from the results
	// and a canned fallback must be emitted.
	VerdictReject Verdict = "REJECT"
)

// Report is the validation outcome with the issues found.
type Report struct {
	Verdict Verdict  `json:"verdict"`
	Issues  []string `json:"issues,omitempty"`
}

// Validator checks ranked results against the query's constraints.
type Validator struct {
	topN int
}

// NewValidator creates a validator checking the top n results.
func NewValidator(topN int) *Validator {
	if topN <= 0 {
		topN = 3
	}
	return &Validator{topN: topN}
}

// Validate checks the ranked results. An empty set is a REJECT: the canned
// no-results fallback beats a hallucinated answer. Constraint violations in
// the top results yield RETRY when allowed, REJECT otherwise.
func (v *Validator) Validate(ranked []rank.RankedResult, p params.Parameters, retryAllowed bool) Report {
	if len(ranked) == 0 {
		return Report{
			Verdict: VerdictReject,
			Issues:  []string{"no results to validate"},
		}
	}

	issues := v.checkConstraints(ranked, p)
	if len(issues) == 0 {
		return Report{Verdict: VerdictPass}
	}

	if retryAllowed {
		return Report{Verdict: VerdictRetry, Issues: issues}
	}
	return Report{Verdict: VerdictReject, Issues: issues}
}

// checkConstraints verifies price and brand constraints over the top N.
func (v *Validator) checkConstraints(ranked []rank.RankedResult, p params.Parameters) []string {
	var issues []string

	top := ranked
	if len(top) > v.topN {
		top = top[:v.topN]
	}

	for _, r := range top {
		prod := r.Product
		if p.PriceMax != nil && prod.Price > *p.PriceMax {
			issues = append(issues, fmt.Sprintf(
				"product %q at $%.2f exceeds price_max $%.2f", prod.Name, prod.Price, *p.PriceMax))
		}
		if p.PriceMin != nil && prod.Price < *p.PriceMin {
			issues = append(issues, fmt.Sprintf(
				"product %q at $%.2f below price_min $%.2f", prod.Name, prod.Price, *p.PriceMin))
		}
	}

	if len(p.Brands) > 0 {
		anyBrand := false
		for _, r := range top {
			for _, b := range p.Brands {
				if strings.EqualFold(r.Product.Brand, b) {
					anyBrand = true
				}
			}
		}
		if !anyBrand {
			issues = append(issues, fmt.Sprintf(
				"no top result matches requested brands %v", p.Brands))
		}
	}

	return issues
}

// disallowedMarkers are content patterns a response must never carry.
var disallowedMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bas an ai\b`),
	regexp.MustCompile(`(?i)\blanguage model\b`),
	regexp.MustCompile(`(?i)\bi (?:apologize|am sorry|'m sorry)\b`),
	regexp.MustCompile(`(?i)\bi (?:cannot|can't) help\b`),
	regexp.MustCompile(`(?i)\bunfortunately\b`),
}

// CheckResponse verifies a generated response: no disallowed markers, and
// any product name the response mentions must come from the ranked set.
// A non-empty return means the caller should fall back to the templated
// summary.
func (v *Validator) CheckResponse(response string, ranked []rank.RankedResult) []string {
	var issues []string

	for _, re := range disallowedMarkers {
		if re.MatchString(response) {
			issues = append(issues, "response contains disallowed marker: "+re.String())
		}
	}

	// Hallucination check: quoted product names outside the ranked set.
	for _, name := range quotedNames(response) {
		if !v.inRanked(name, ranked) {
			issues = append(issues, fmt.Sprintf("response references unknown product %q", name))
		}
	}

	return issues
}

var quotedNameRe = regexp.MustCompile(`"([^"]{2,80})"`)

func quotedNames(response string) []string {
	var names []string
	for _, m := range quotedNameRe.FindAllStringSubmatch(response, -1) {
		names = append(names, m[1])
	}
	return names
}

func (v *Validator) inRanked(name string, ranked []rank.RankedResult) bool {
	for _, r := range ranked {
		if strings.EqualFold(r.Product.Name, name) ||
			strings.Contains(strings.ToLower(r.Product.Name), strings.ToLower(name)) {
			return true
		}
	}
	return false
}
