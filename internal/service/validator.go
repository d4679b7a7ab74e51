package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// ValidatorService checks drafts against the retrieved set and the intent's
// constraints. Checks run in a fixed order and short-circuit on the first
// failure: fabricated citations, then length, then grounding, then format.
type ValidatorService struct{}

// NewValidatorService creates a ValidatorService.
func NewValidatorService() *ValidatorService {
	return &ValidatorService{}
}

// Validate produces a verdict for one draft. The insufficient-coverage
// draft is accepted verbatim when retrieval was empty; everything else goes
// through the full check order.
func (v *ValidatorService) Validate(draft *Draft, intent domain.Intent, retrieved []domain.RetrievedChunk, constraints domain.Constraints) domain.Verdict {
	if len(retrieved) == 0 && draft.Text == InsufficientCoverageAnswer && len(draft.Citations) == 0 {
		return domain.Accepted()
	}

	if fabricated(draft.Citations, retrieved) {
		return domain.RejectedTerminal(domain.ReasonFabricatedCitation)
	}

	words := countWords(draft.Text)
	if words < constraints.MinWords || words > constraints.MaxWords {
		return domain.RejectedRetryable(domain.ReasonLength, tightenLength(constraints, words))
	}

	if needsCitations(intent.Workflow) && len(retrieved) > 0 && len(draft.Citations) == 0 {
		return domain.RejectedRetryable(domain.ReasonUngrounded, tightenGrounding(constraints))
	}

	if !matchesFormat(draft.Text, constraints.Format) {
		return domain.RejectedRetryable(domain.ReasonFormat, tightenFormat(constraints))
	}

	return domain.Accepted()
}

// fabricated reports whether any citation points outside the retrieved set.
func fabricated(citations []domain.Citation, retrieved []domain.RetrievedChunk) bool {
	if len(citations) == 0 {
		return false
	}
	known := make(map[uuid.UUID]bool, len(retrieved))
	for _, rc := range retrieved {
		known[rc.Chunk.ID] = true
	}
	for _, c := range citations {
		if !known[c.ChunkID] {
			return true
		}
	}
	return false
}

func needsCitations(w domain.Workflow) bool {
	return w == domain.WorkflowQA || w == domain.WorkflowSummarize
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// matchesFormat checks the draft's shape. Bullets require at least two lines
// that start like list items; paragraph requires the opposite.
func matchesFormat(text string, format domain.AnswerFormat) bool {
	bullets := countBulletLines(text)
	switch format {
	case domain.FormatBullets:
		return bullets >= 2
	default:
		return bullets < 2
	}
}

func countBulletLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r := []rune(line)[0]
		switch {
		case r == '-' || r == '*' || r == '•':
			n++
		case unicode.IsDigit(r):
			// Numbered items look like "1. " or "3) ". A sentence that merely
			// starts with a number does not count.
			rest := strings.TrimLeft(line, "0123456789")
			if strings.HasPrefix(rest, ". ") || strings.HasPrefix(rest, ") ") {
				n++
			}
		}
	}
	return n
}

// tightenLength halves the headroom above the band minimum and pins an
// explicit word cap for the next attempt.
func tightenLength(c domain.Constraints, gotWords int) domain.Constraints {
	t := c.Clone()
	headroom := t.MaxWords - t.MinWords
	if headroom > 20 {
		t.MaxWords = t.MinWords + headroom/2
	}
	t.Instructions = append(t.Instructions,
		fmt.Sprintf("your answer MUST be between %d and %d words (the last one was %d)",
			t.MinWords, t.MaxWords, gotWords))
	return t
}

func tightenGrounding(c domain.Constraints) domain.Constraints {
	t := c.Clone()
	t.Instructions = append(t.Instructions,
		"every claim MUST carry a source tag like [S1]; answers without source tags are rejected")
	return t
}

func tightenFormat(c domain.Constraints) domain.Constraints {
	t := c.Clone()
	switch t.Format {
	case domain.FormatBullets:
		t.Instructions = append(t.Instructions,
			"the answer MUST be a bullet list, one point per line starting with '-'")
	default:
		t.Instructions = append(t.Instructions,
			"the answer MUST be flowing paragraphs with no bullet or numbered lists")
	}
	return t
}
