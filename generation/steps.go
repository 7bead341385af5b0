package generation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// Pipeline steps in execution order. The four subtopic steps repeat for every
// subtopic of every section.
const (
	StepCreateFileStructure     = "create_file_structure"
	StepGenerateRoadmapSections = "generate_roadmap_sections"
	StepGenerateSubtopicContent = "generate_subtopic_content"
	StepGenerateQuiz            = "generate_quiz"
	StepGenerateFlashcards      = "generate_flashcards"
	StepGenerateEmbeddings      = "generate_embeddings"
	StepFinalize                = "finalize"
)

// subtopicSteps is the number of steps that make up one unit of progress.
const subtopicSteps = 4

// Backoff computes the delay before retrying a failed step.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff waits 1s, 2s, 4s ... up to 30s.
var DefaultBackoff = Backoff{Base: time.Second, Cap: 30 * time.Second}

// Delay returns min(Base * 2^retries, Cap). Without a cap the delay
// saturates at the largest time.Duration.
func (b Backoff) Delay(retries int) time.Duration {
	if retries < 0 {
		retries = 0
	}
	d := b.Base
	for range retries {
		if b.Cap > 0 && d >= b.Cap {
			break
		}
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
	}
	if b.Cap > 0 && d > b.Cap {
		d = b.Cap
	}
	return d
}

// percentAt is the progress after quarters of the next unit, given done
// finished units out of total. The result is floored.
func percentAt(done, quarters, total int) int {
	if total <= 0 {
		return 100
	}
	return (done*subtopicSteps + quarters) * 100 / (total * subtopicSteps)
}

// Artifact layout below <courseID>/.
const (
	outlineFile    = "outline.md"
	structureFile  = "structure.json"
	courseFile     = "course.json"
	overviewFile   = "overview.md"
	lessonFile     = "lesson.md"
	quizFile       = "quiz.json"
	flashcardsFile = "flashcards.json"
)

func sectionDir(courseID string, section int) string {
	return fmt.Sprintf("%s/section-%02d", courseID, section+1)
}

func subtopicDir(courseID string, section, subtopic int, title string) string {
	return fmt.Sprintf("%s/%02d-%s", sectionDir(courseID, section), subtopic+1, slugify(title))
}

// contentID names a subtopic's lesson in the vector store. It is stable across
// regenerations of the same course.
func contentID(section, subtopic int) string {
	return fmt.Sprintf("section-%02d/subtopic-%02d/lesson", section+1, subtopic+1)
}

const maxSlugLen = 48

func slugify(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
			dash = false
		case sb.Len() > 0 && !dash:
			sb.WriteByte('-')
			dash = true
		}
		if sb.Len() >= maxSlugLen {
			break
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "subtopic"
	}
	return slug
}
