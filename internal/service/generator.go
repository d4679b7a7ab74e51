package service

import (
	"context"
	"regexp"
	"strconv"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// ChatCompleter is the generation surface the generator needs.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Draft is one generation attempt's output.
type Draft struct {
	Text      string
	Citations []domain.Citation
}

// GenerateInput carries everything one attempt needs.
type GenerateInput struct {
	Query         string
	Intent        domain.Intent
	Chunks        []domain.RetrievedChunk
	Constraints   domain.Constraints
	PrevRejection *domain.Verdict
}

// GeneratorService produces grounded drafts from retrieved chunks.
type GeneratorService struct {
	chat ChatCompleter
}

// NewGeneratorService creates a GeneratorService.
func NewGeneratorService(chat ChatCompleter) *GeneratorService {
	return &GeneratorService{chat: chat}
}

// Generate produces a draft. An empty chunk set short-circuits to the fixed
// insufficient-coverage draft without calling the model. Citations are
// derived from source tags in the draft; tags pointing outside the supplied
// chunk set are preserved so the validator rejects the fabrication.
func (s *GeneratorService) Generate(ctx context.Context, in GenerateInput) (*Draft, error) {
	if len(in.Chunks) == 0 {
		return &Draft{Text: InsufficientCoverageAnswer}, nil
	}

	prompt := BuildUserPrompt(in.Query, in.Intent, in.Chunks, in.Constraints, in.PrevRejection)
	text, err := s.chat.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	return &Draft{Text: text, Citations: deriveCitations(text, in.Chunks)}, nil
}

var sourceTagRe = regexp.MustCompile(`\[S(\d+)\]`)

const excerptMaxRunes = 160

// deriveCitations maps [S#] tags back to chunks. Duplicate tags collapse to
// one citation. Out-of-range tags become citations with a nil chunk ID so
// fabrication is visible downstream. A draft with no tags at all falls back
// to citing every supplied chunk.
func deriveCitations(text string, chunks []domain.RetrievedChunk) []domain.Citation {
	matches := sourceTagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		citations := make([]domain.Citation, 0, len(chunks))
		for _, rc := range chunks {
			citations = append(citations, citationFor(rc))
		}
		return citations
	}

	seen := make(map[int]bool)
	var citations []domain.Citation
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		if n < 1 || n > len(chunks) {
			citations = append(citations, domain.Citation{SourceLabel: m[0]})
			continue
		}
		citations = append(citations, citationFor(chunks[n-1]))
	}
	return citations
}

func citationFor(rc domain.RetrievedChunk) domain.Citation {
	return domain.Citation{
		ChunkID:     rc.Chunk.ID,
		SourceLabel: rc.TopicName,
		Excerpt:     truncateRunes(rc.Chunk.Text, excerptMaxRunes),
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
