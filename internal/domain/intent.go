package domain

import "strings"

// Workflow is the kind of answer a query asks for.
type Workflow string

const (
	WorkflowQA                Workflow = "qa"
	WorkflowSummarize         Workflow = "summarize"
	WorkflowGenerateQuestions Workflow = "generate_questions"
	WorkflowExamRevision      Workflow = "exam_revision"
)

// ParseWorkflow maps a caller-supplied hint to a workflow. Unrecognized
// values return ok=false so the classifier falls back to heuristics.
func ParseWorkflow(s string) (Workflow, bool) {
	switch Workflow(strings.ToLower(strings.TrimSpace(s))) {
	case WorkflowQA:
		return WorkflowQA, true
	case WorkflowSummarize:
		return WorkflowSummarize, true
	case WorkflowGenerateQuestions:
		return WorkflowGenerateQuestions, true
	case WorkflowExamRevision:
		return WorkflowExamRevision, true
	}
	return "", false
}

// LengthClass buckets the expected answer length.
type LengthClass string

const (
	LengthBrief    LengthClass = "brief"
	LengthStandard LengthClass = "standard"
	LengthExtended LengthClass = "extended"
)

// AnswerFormat is the requested output shape.
type AnswerFormat string

const (
	FormatParagraph AnswerFormat = "paragraph"
	FormatBullets   AnswerFormat = "bullets"
)

// ParseAnswerFormat maps a caller-supplied format. Unrecognized values
// return ok=false and the classifier applies the workflow default.
func ParseAnswerFormat(s string) (AnswerFormat, bool) {
	switch AnswerFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatParagraph:
		return FormatParagraph, true
	case FormatBullets:
		return FormatBullets, true
	}
	return "", false
}

// Intent is the classified shape of a query. Classification is pure: the
// same inputs always produce the same intent.
type Intent struct {
	Workflow    Workflow     `json:"workflow"`
	LengthClass LengthClass  `json:"length_class"`
	Format      AnswerFormat `json:"format"`
}

// LengthBand is the acceptable word-count range for a length class.
type LengthBand struct {
	MinWords int
	MaxWords int
}

// DefaultLengthBands are the validation bands per length class.
var DefaultLengthBands = map[LengthClass]LengthBand{
	LengthBrief:    {MinWords: 20, MaxWords: 140},
	LengthStandard: {MinWords: 60, MaxWords: 350},
	LengthExtended: {MinWords: 150, MaxWords: 800},
}

// Constraints steer a generation attempt. Validator rejections tighten a
// copy of these between attempts; the originals are never mutated.
type Constraints struct {
	MinWords     int
	MaxWords     int
	Format       AnswerFormat
	Instructions []string
}

// ConstraintsFor derives the initial constraints for an intent.
func ConstraintsFor(intent Intent) Constraints {
	band := DefaultLengthBands[intent.LengthClass]
	return Constraints{
		MinWords: band.MinWords,
		MaxWords: band.MaxWords,
		Format:   intent.Format,
	}
}

// Clone returns a copy safe to tighten without aliasing Instructions.
func (c Constraints) Clone() Constraints {
	out := c
	out.Instructions = append([]string(nil), c.Instructions...)
	return out
}
