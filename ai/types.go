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

// CourseContext describes the course a piece of content belongs to.
type CourseContext struct {
	Title       string
	Description string
}

// SectionContext is everything a generator needs to write about one section.
type SectionContext struct {
	Course       CourseContext
	Index        int
	Title        string
	Description  string
	Subtopics    []string
	Instructions string // per-section override, may be empty
}

// SubtopicContext is everything a generator needs to write about one subtopic.
type SubtopicContext struct {
	Section     SectionContext
	Index       int
	Title       string
	Description string
}

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
}

// Flashcard is a single front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
