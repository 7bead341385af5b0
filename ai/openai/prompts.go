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
	"fmt"
	"strings"

	"github.com/poiesic/syllabus/ai"
)

const markdownSystemPrompt = `You are an experienced instructor writing material for an online course.
Write in clear, friendly Markdown. Use headings, short paragraphs, lists and fenced code
blocks where they help. Do not include any preamble, explanation of what you are doing,
or closing remarks. Start directly with the content.`

const sectionOverviewTemplate = `Course: %s
%s
Write a short overview (150-250 words) introducing the section "%s".
%s
The section covers these subtopics, in order:
%s
Explain what the learner will be able to do after the section and how the subtopics build on each other.`

const lessonTemplate = `Course: %s
Section: %s
%s
Write the lesson for the subtopic "%s".
%s
Cover the key ideas with at least one worked example. End with a short "Key takeaways" list.`

const quizSystemTemplate = `You write multiple-choice quiz questions for an online course.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Write exactly %d questions.
- Each question has between 2 and 6 options; answerIndex is the zero-based index of the single correct option.
- Questions must be answerable from the lesson text alone. Do not hallucinate.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
{
  "questions": [
    {"question":"Which keyword starts a goroutine?","options":["go","async","spawn"],"answerIndex":0,"explanation":"The go statement runs a function call concurrently."}
  ]
}`

const flashcardSystemTemplate = `You write study flashcards for an online course.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Write exactly %d flashcards.
- The front is a short prompt or term; the back is a one or two sentence answer.
- Flashcards must be grounded in the lesson text. Do not hallucinate.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
{
  "flashcards": [
    {"front":"Zero value of a slice","back":"nil; it has length and capacity 0."}
  ]
}`

const studyMaterialTemplate = `Course: %s
Section: %s
Subtopic: %s
%s
Lesson text:
%s`

func buildSectionOverviewPrompt(section ai.SectionContext) string {
	subtopics := make([]string, len(section.Subtopics))
	for i, s := range section.Subtopics {
		subtopics[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return fmt.Sprintf(sectionOverviewTemplate,
		section.Course.Title,
		section.Course.Description,
		section.Title,
		joinNonEmpty(section.Description, instructionsLine(section.Instructions)),
		strings.Join(subtopics, "\n"))
}

func buildLessonPrompt(subtopic ai.SubtopicContext) string {
	return fmt.Sprintf(lessonTemplate,
		subtopic.Section.Course.Title,
		subtopic.Section.Title,
		subtopic.Section.Description,
		subtopic.Title,
		joinNonEmpty(subtopic.Description, instructionsLine(subtopic.Section.Instructions)))
}

func buildStudyMaterialPrompt(subtopic ai.SubtopicContext, lesson string) string {
	return fmt.Sprintf(studyMaterialTemplate,
		subtopic.Section.Course.Title,
		subtopic.Section.Title,
		subtopic.Title,
		instructionsLine(subtopic.Section.Instructions),
		lesson)
}

func buildQuizSystemPrompt(count int) string {
	return fmt.Sprintf(quizSystemTemplate, quizResponseSchema, count)
}

func buildFlashcardSystemPrompt(count int) string {
	return fmt.Sprintf(flashcardSystemTemplate, flashcardResponseSchema, count)
}

func instructionsLine(instructions string) string {
	if instructions == "" {
		return ""
	}
	return "Additional instructions from the course author: " + instructions
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
