// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
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

// ContentGenerator produces course material for one pipeline step at a time.
// Implementations must be safe for concurrent use.
type ContentGenerator interface {
	// GenerateSectionOverview writes a short markdown introduction for a section.
	GenerateSectionOverview(ctx context.Context, section SectionContext) (string, error)

	// GenerateLesson writes the markdown lesson body for a subtopic.
	GenerateLesson(ctx context.Context, subtopic SubtopicContext) (string, error)

	// GenerateQuiz produces count multiple-choice questions for a subtopic.
	// The lesson text is passed so questions stay grounded in what was taught.
	GenerateQuiz(ctx context.Context, subtopic SubtopicContext, lesson string, count int) ([]QuizQuestion, error)

	// GenerateFlashcards produces count flashcards for a subtopic.
	GenerateFlashcards(ctx context.Context, subtopic SubtopicContext, lesson string, count int) ([]Flashcard, error)
}

// AIProvider aggregates the AI services used by the pipeline.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the content generation service.
	// The returned ContentGenerator is safe for concurrent use.
	Generator() ContentGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
