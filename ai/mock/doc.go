// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ContentGenerator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Make the second quiz call fail
//	gen := mock.NewMockGenerator().FailOn(mock.MethodQuiz, errors.New("rate limited"), 2)
//
//	// Check call counts
//	count := gen.CallCount(mock.MethodQuiz)
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns short content derived from the titles it is given
//   - MockProvider: Aggregates mock embedder and generator
package mock
