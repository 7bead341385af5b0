package openai

import "strings"

// stripCodeFences removes a surrounding markdown code fence from a JSON response.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// unwrapMarkdown removes a ```markdown wrapper some models put around prose.
// Ordinary code blocks inside the text are left alone.
func unwrapMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```markdown", "```md"} {
		if strings.HasPrefix(s, fence) && strings.HasSuffix(s, "```") {
			s = strings.TrimPrefix(s, fence)
			s = strings.TrimSuffix(s, "```")
			return strings.TrimSpace(s)
		}
	}
	return s
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
