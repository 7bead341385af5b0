// Package generation turns a course request into materialized course content.
//
// The Orchestrator drives a fixed pipeline for each job:
//
//	create_file_structure
//	generate_roadmap_sections            (once per section)
//	generate_subtopic_content            \
//	generate_quiz                         | once per subtopic,
//	generate_flashcards                   | one unit of progress
//	generate_embeddings                  /
//	finalize
//
// Artifacts are written through a Materializer below <courseID>/:
//
//	outline.md
//	structure.json
//	section-01/overview.md
//	section-01/01-goroutines/lesson.md
//	section-01/01-goroutines/quiz.json
//	section-01/01-goroutines/flashcards.json
//	course.json
//
// A failed step is recorded in the job's error log and retried after
// min(base * 2^retries, cap). Completed steps are never rolled back.
package generation
