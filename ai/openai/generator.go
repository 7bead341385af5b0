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

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/syllabus/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/xeipuuv/gojsonschema"
)

// maxParseAttempts bounds how often a malformed JSON response is regenerated.
const maxParseAttempts = 3

// ErrEmptyResponse indicates the model returned no choices or only whitespace.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Generator implements ai.ContentGenerator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.ContentGenerator = (*Generator)(nil)

type quizResponse struct {
	Questions []ai.QuizQuestion `json:"questions"`
}

type flashcardResponse struct {
	Flashcards []ai.Flashcard `json:"flashcards"`
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithModel(client), nil
}

func newGeneratorWithModel(client llms.Model) *Generator {
	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new content generator using the provided configuration.
//
// Returns ai.ContentGenerator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.ContentGenerator, error) {
	return newGenerator(config)
}

// GenerateSectionOverview writes the markdown overview of a section.
func (g *Generator) GenerateSectionOverview(ctx context.Context, section ai.SectionContext) (string, error) {
	return g.generateMarkdown(ctx, buildSectionOverviewPrompt(section))
}

// GenerateLesson writes the markdown lesson of a subtopic.
func (g *Generator) GenerateLesson(ctx context.Context, subtopic ai.SubtopicContext) (string, error) {
	return g.generateMarkdown(ctx, buildLessonPrompt(subtopic))
}

// GenerateQuiz produces multiple-choice questions grounded in the lesson.
// Extra questions are dropped; questions whose answer index is out of range fail the attempt.
func (g *Generator) GenerateQuiz(ctx context.Context, subtopic ai.SubtopicContext, lesson string, count int) ([]ai.QuizQuestion, error) {
	var result quizResponse
	err := g.generateJSON(ctx, buildQuizSystemPrompt(count), buildStudyMaterialPrompt(subtopic, lesson), quizSchema, &result, func() error {
		for i, q := range result.Questions {
			if q.AnswerIndex >= len(q.Options) {
				return fmt.Errorf("question %d: answerIndex %d out of range", i, q.AnswerIndex)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Questions) > count {
		result.Questions = result.Questions[:count]
	}
	g.logger.Debug("generated quiz", "subtopic", subtopic.Title, "questions", len(result.Questions))
	return result.Questions, nil
}

// GenerateFlashcards produces flashcards grounded in the lesson.
func (g *Generator) GenerateFlashcards(ctx context.Context, subtopic ai.SubtopicContext, lesson string, count int) ([]ai.Flashcard, error) {
	var result flashcardResponse
	err := g.generateJSON(ctx, buildFlashcardSystemPrompt(count), buildStudyMaterialPrompt(subtopic, lesson), flashcardSchema, &result, nil)
	if err != nil {
		return nil, err
	}

	if len(result.Flashcards) > count {
		result.Flashcards = result.Flashcards[:count]
	}
	g.logger.Debug("generated flashcards", "subtopic", subtopic.Title, "flashcards", len(result.Flashcards))
	return result.Flashcards, nil
}

func (g *Generator) generateMarkdown(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, markdownSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.7))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ErrEmptyResponse
	}

	text := unwrapMarkdown(response.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// generateJSON asks the model for a JSON document, validates it against schema
// and decodes it into out. Malformed or invalid responses are regenerated up to
// maxParseAttempts times; transport errors are returned immediately.
func (g *Generator) generateJSON(ctx context.Context, systemPrompt, userPrompt string, schema *gojsonschema.Schema, out any, check func() error) error {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			g.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			lastErr = ErrEmptyResponse
			continue
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

		if err := validateResponse(schema, responseText); err != nil {
			lastErr = err
			g.logger.Warn("generator response failed validation",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			g.logger.Warn("error parsing generator response",
				"attempt", attempt+1,
				"err", err)
			continue
		}

		if check != nil {
			if err := check(); err != nil {
				lastErr = err
				g.logger.Warn("generator response failed checks", "attempt", attempt+1, "err", err)
				continue
			}
		}

		return nil
	}

	g.logger.Error("failed to parse generator response after retries", "err", lastErr)
	return lastErr
}
