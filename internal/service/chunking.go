package service

import (
	"strings"
	"unicode"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// ChunkingConfig controls how extracted text is split.
type ChunkingConfig struct {
	// MaxChars is the maximum chunk size in runes.
	MaxChars int
	// MinChars is the minimum size before a boundary cut is taken.
	MinChars int
	// Overlap is how many runes consecutive chunks share.
	Overlap int
	// MaxChunks caps chunks per topic; 0 means unlimited.
	MaxChunks int
}

// DefaultChunkingConfig returns sensible defaults for curriculum text.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		MaxChars:  1200,
		MinChars:  400,
		Overlap:   200,
		MaxChunks: 500,
	}
}

func (c ChunkingConfig) sanitized() ChunkingConfig {
	d := DefaultChunkingConfig()
	if c.MaxChars <= 0 {
		c.MaxChars = d.MaxChars
	}
	if c.MinChars <= 0 || c.MinChars >= c.MaxChars {
		c.MinChars = c.MaxChars / 3
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxChars {
		c.Overlap = c.MaxChars / 6
	}
	return c
}

// SplitText splits extracted text into overlapping windows, preferring to
// cut at paragraph breaks, then sentence ends, then whitespace. A chunk is
// cut mid-word only when no boundary exists past MinChars.
func SplitText(text string, cfg ChunkingConfig) []string {
	cfg = cfg.sanitized()

	text = normalizeWhitespace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= cfg.MaxChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := findBoundary(runes, start+cfg.MinChars, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - cfg.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findBoundary picks the best cut point in (min, max]: paragraph break,
// then sentence end, then any whitespace, then max.
func findBoundary(runes []rune, min, max int) int {
	if min < 0 {
		min = 0
	}
	best := -1
	bestSentence := -1
	bestSpace := -1
	for i := max - 1; i > min; i-- {
		r := runes[i]
		if r == '\n' && i > 0 && runes[i-1] == '\n' {
			best = i + 1
			break
		}
		if bestSentence == -1 && isSentenceEnd(runes, i) {
			bestSentence = i + 1
		}
		if bestSpace == -1 && unicode.IsSpace(r) {
			bestSpace = i + 1
		}
	}
	switch {
	case best != -1:
		return best
	case bestSentence != -1:
		return bestSentence
	case bestSpace != -1:
		return bestSpace
	default:
		return max
	}
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
	default:
		return false
	}
	return i+1 < len(runes) && unicode.IsSpace(runes[i+1])
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// BuildChunks materializes split text as domain chunks under the given
// scope and generation. Embeddings are attached later by the indexer.
func BuildChunks(scope domain.TopicScope, texts []string, generation int64, embeddingModel string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, domain.Chunk{
			TopicID:        scope.TopicID,
			SubjectID:      scope.SubjectID,
			CourseID:       scope.CourseID,
			DepartmentID:   scope.DepartmentID,
			InstitutionID:  scope.InstitutionID,
			Text:           t,
			SequenceIndex:  i,
			Generation:     generation,
			EmbeddingModel: embeddingModel,
		})
	}
	return chunks
}
