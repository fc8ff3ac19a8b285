package respond

// Canned fallback texts for requests the pipeline cannot answer normally.
const (
	// NoResultsText is emitted when validation rejects an empty result set.
	NoResultsText = "I couldn't find any products matching your search. Try different keywords or loosen your filters."

	// RetryExhaustedText is emitted when the single quality retry also fails.
	RetryExhaustedText = "I found some products but they don't match your requirements well. Try adjusting your search terms or filters."

	// EmptyQueryText is emitted for empty input.
	EmptyQueryText = "Please enter a search query to find products."

	// QueryTooLongText is emitted when the query exceeds the length cap.
	QueryTooLongText = "That search is too long. Please shorten it and try again."

	// HarmfulContentText is emitted for unsafe input.
	HarmfulContentText = "I can only help with product searches. Please rephrase your request."

	// NotShoppingText is emitted for queries outside shopping scope.
	NotShoppingText = "I'm a shopping assistant and can help you find products. What are you looking for?"
)
