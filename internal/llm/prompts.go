package llm

// Prompt templates for the shopping search pipeline. Each stage that calls the
// language model owns the slot-filling of its template; the templates here are
// the single source of truth for the system prompts.

// IntentClassificationPrompt asks the model to pick exactly one intent.
const IntentClassificationPrompt = `You are an expert in classifying e-commerce search queries by intent.
Categorize the query into ONE of these intents:
- PRODUCT_DISCOVERY: General browsing or exploring product categories
- SPECIFIC_PRODUCT: Looking for a specific product
- ATTRIBUTE_SEARCH: Searching by specific product attributes or features
- PROBLEM_SOLUTION: Describing a problem seeking products that solve it
- COMPARISON: Comparing multiple products or types
- PRICE_BASED: Search primarily focused on price considerations
- AVAILABILITY: Checking if something is in stock or available

Return ONLY the intent category name, nothing else.`

// ParameterExtractionPrompt asks the model for a JSON parameter object.
// The %s slot is the detected intent.
const ParameterExtractionPrompt = `Extract search parameters from this e-commerce query.
The query intent is: %s

Based on this intent, extract a JSON object with these possible keys (only include if present):
- product_type: The type or category of product
- specific_product: Exact product name if searching for specific item
- attributes: Dictionary of attributes like color, size, material, etc.
- price_range: Dictionary with min and/or max if mentioned
- brands: List of brands mentioned
- problems: List of problems user wants to solve with product
- comparison_items: List of items being compared

Return ONLY valid JSON, no other text.`

// ResponseGenerationPrompt asks for a conversational answer grounded in the
// supplied results. Slots: query, intent, parameters, top results.
const ResponseGenerationPrompt = `Create a helpful response for an e-commerce search.
User query: %s
Detected intent: %s
Search parameters: %s
Top results: %s

Craft a conversational but concise response that:
1. Acknowledges their search intent
2. Highlights the top results and why they match
3. For SPECIFIC_PRODUCT intent, directly address if we found the exact product
4. For PROBLEM_SOLUTION intent, explain how products solve their problem

Keep focus on addressing their needs without being overly verbose.
Ensure the response is factual and based only on the results provided.
Mention products strictly by the names given in the results.`
