// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.LanguageModel,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockModel := mock.NewMockLanguageModel(`{"summary": "short"}`)
//	mockModel.CompleteFunc = func(ctx context.Context, system, user string, maxTokens int) (string, error) {
//	    return "", errors.New("model offline")
//	}
//
//	// Check call counts
//	count := mockModel.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockLanguageModel: Returns a canned response string
//   - MockProvider: Aggregates mock embedder and language model
package mock
