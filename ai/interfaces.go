package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LanguageModel generates free-text completions from a prompt pair.
// Implementations must be thread-safe for concurrent use.
type LanguageModel interface {
	// Complete sends a system prompt and a user prompt to the model and
	// returns the raw completion text, capped at maxTokens output tokens.
	// The caller owns all parsing and validation of the returned text; this
	// interface makes no promise about its shape.
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and LanguageModel
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// LanguageModel returns the text completion service.
	// The returned LanguageModel is safe for concurrent use.
	LanguageModel() LanguageModel

	// Ping verifies that both underlying services are reachable. A pipeline
	// run calls this once before starting and aborts with the returned error
	// if either service is unavailable.
	Ping(ctx context.Context) error

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
