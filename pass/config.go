package pass

// Content and completion budgets per pass. Content budgets are in characters
// of document content included in the prompt; completion budgets are in
// output tokens requested from the model.
const (
	summaryContentBudget = 6000
	summaryMaxTokens     = 256

	atomsContentBudget = 12000
	atomsMaxTokens     = 1024

	relatedMaxTokens = 256

	// candidateLimit caps how many candidate documents the relationships pass
	// offers the model, ranked by recency.
	candidateLimit = 20

	// defaultConcurrency is the default permit count for outbound AI calls.
	defaultConcurrency = 1
)
