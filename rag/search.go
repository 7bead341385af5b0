package rag

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

const (
	// DefaultLimit is used when a search does not ask for a limit.
	DefaultLimit = 5

	// MaxLimit caps how many results one search returns.
	MaxLimit = 100

	// DefaultContextResults is the number of hits AssembleContext uses by default.
	DefaultContextResults = 3

	// maxContextRunes bounds the text of each block in an assembled context.
	maxContextRunes = 1200
)

// NoRelevantContent is returned by AssembleContext when nothing matches.
const NoRelevantContent = "No relevant course content was found for this question."

// SearchQuery scopes a similarity search.
type SearchQuery struct {
	CourseID    string           `json:"courseId" validate:"required"`
	Query       string           `json:"query" validate:"required"`
	Limit       int              `json:"limit,omitempty" validate:"gte=0"`
	ContentType core.ContentType `json:"contentType,omitempty" validate:"omitempty,contenttype"`
}

// Hit is the client-facing view of a search result.
type Hit struct {
	ID              core.ID           `json:"id"`
	Content         string            `json:"content"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ContentType     core.ContentType  `json:"contentType"`
	SimilarityScore float64           `json:"similarityScore"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ToHits converts ranked results into client-facing hits.
func ToHits(results []*core.SearchResult) []Hit {
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:              r.Embedding.ID,
			Content:         r.Embedding.ContentText,
			Title:           r.Embedding.Title,
			Description:     r.Embedding.Description,
			ContentType:     r.Embedding.ContentType,
			SimilarityScore: r.Score,
			Metadata:        r.Embedding.Metadata,
		}
	}
	return hits
}

// Search embeds the query and ranks the course's active rows by cosine similarity.
// Results are ordered by score descending, newer rows first on ties.
func (s *Store) Search(ctx context.Context, query SearchQuery) ([]*core.SearchResult, error) {
	if err := core.ValidateStruct(&query); err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	s.monitor.Start(query.CourseID, query.Query)

	vector, err := s.embed(ctx, query.Query)
	if err != nil {
		return nil, err
	}
	s.monitor.AfterQueryEmbedding(len(vector))

	persisted, err := s.repo.Dimension(ctx)
	if err != nil {
		return nil, err
	}
	if persisted > 0 && persisted != len(vector) {
		return nil, &core.EmbeddingDimensionError{Expected: persisted, Actual: len(vector)}
	}

	results, err := s.repo.FindSimilar(ctx, storage.SimilarityQuery{
		CourseID:    query.CourseID,
		ContentType: query.ContentType,
		Vector:      vector,
		Limit:       limit,
	})
	if err != nil {
		s.logger.Error("error querying for similar content", "course_id", query.CourseID, "err", err)
		return nil, err
	}
	s.monitor.AfterSimilaritySearch(results)

	s.logger.Debug("search complete", "course_id", query.CourseID, "hits", len(results))
	s.monitor.Finish(results)
	return results, nil
}

// AssembleContext searches a course and formats the best hits into a text block
// suitable for a generation prompt. It returns NoRelevantContent instead of an
// error when nothing matches.
func (s *Store) AssembleContext(ctx context.Context, courseID, question string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = DefaultContextResults
	}

	results, err := s.Search(ctx, SearchQuery{CourseID: courseID, Query: question, Limit: maxResults})
	if err != nil {
		return "", err
	}
	return FormatContext(results), nil
}

// FormatContext renders ranked results as numbered context blocks.
func FormatContext(results []*core.SearchResult) string {
	if len(results) == 0 {
		return NoRelevantContent
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		e := r.Embedding
		title := e.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&sb, "[%d] %s: %s (relevance %d%%)\n", i+1, contentTypeLabel(e.ContentType), title, relevance(r.Score))
		if e.Description != "" {
			sb.WriteString(e.Description)
			sb.WriteString("\n")
		}
		sb.WriteString(truncateRunes(e.ContentText, maxContextRunes))
	}
	return sb.String()
}

func contentTypeLabel(ct core.ContentType) string {
	if ct == "" {
		return "Content"
	}
	return strings.ToUpper(string(ct[:1])) + string(ct[1:])
}

// relevance converts a cosine score to a whole percentage in [0, 100].
func relevance(score float64) int {
	pct := int(math.Round(score * 100))
	return max(0, min(100, pct))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
