package mock

import "context"

// MockLanguageModel is a test double for ai.LanguageModel.
// It allows custom behavior injection via function fields.
type MockLanguageModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Response unchanged.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)

	// Response is the canned completion returned when CompleteFunc is nil.
	Response string

	callCount int
}

// NewMockLanguageModel creates a mock language model that echoes the given
// canned response.
// Note: Returns concrete type to allow test assertions via GetMockLanguageModel().
func NewMockLanguageModel(response string) *MockLanguageModel {
	return &MockLanguageModel{Response: response}
}

// Complete returns the configured response or invokes CompleteFunc.
func (m *MockLanguageModel) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	m.callCount++

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt, maxTokens)
	}

	return m.Response, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockLanguageModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockLanguageModel) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
}
