package pipeline

import (
	"regexp"
	"strings"

	"github.com/shopsearch/shop-search/internal/respond"
)

// InputIssue classifies why a query was refused at the door.
type InputIssue string

const (
	InputOK          InputIssue = ""
	InputEmpty       InputIssue = "empty_query"
	InputTooLong     InputIssue = "query_too_long"
	InputHarmful     InputIssue = "harmful_content"
	InputNotShopping InputIssue = "not_shopping"
)

var harmfulPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:hack|exploit|bypass)\b.*\b(?:account|system|security)\b`),
	regexp.MustCompile(`(?i)\bignore\b.*\b(?:instructions|prompt)\b`),
	regexp.MustCompile(`(?i)\b(?:weapon|bomb|explosive)s?\b.*\b(?:make|build|buy)\b`),
	regexp.MustCompile(`(?i)\b(?:make|build|buy)\b.*\b(?:weapon|bomb|explosive)s?\b`),
}

var notShoppingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:what|who|when|where|why|how)\s+(?:is|are|was|were|did|does|do)\b.*\?$`),
	regexp.MustCompile(`(?i)\b(?:weather|news|stock market|translate|math problem)\b`),
	regexp.MustCompile(`(?i)^(?:tell me a joke|write (?:a|an|some)\b)`),
}

// validateInput applies the admission rules to the raw query. A non-empty
// issue short-circuits the pipeline to the matching canned response.
func validateInput(query string, maxLength int) (InputIssue, string) {
	trimmed := strings.TrimSpace(query)

	if trimmed == "" {
		return InputEmpty, respond.EmptyQueryText
	}
	if maxLength > 0 && len(trimmed) > maxLength {
		return InputTooLong, respond.QueryTooLongText
	}
	for _, re := range harmfulPatterns {
		if re.MatchString(trimmed) {
			return InputHarmful, respond.HarmfulContentText
		}
	}
	for _, re := range notShoppingPatterns {
		if re.MatchString(trimmed) {
			return InputNotShopping, respond.NotShoppingText
		}
	}
	return InputOK, ""
}
