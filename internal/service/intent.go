package service

import (
	"strings"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// IntentClassifier derives workflow, length class and format from a query.
// Classification is pure keyword matching: the same inputs always yield the
// same intent, and no upstream call is involved.
type IntentClassifier struct {
	defaultLength domain.LengthClass
}

// NewIntentClassifier creates a classifier with the given middle-tier
// default length class.
func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{defaultLength: domain.LengthStandard}
}

// ClassifyInput are the caller-provided signals for classification.
type ClassifyInput struct {
	Query        string
	WorkflowHint string
	Marks        int
	Format       string
}

// Classify resolves the intent. An explicitly recognized workflow hint wins
// over heuristics; unrecognized hints are ignored.
func (c *IntentClassifier) Classify(in ClassifyInput) domain.Intent {
	workflow, ok := domain.ParseWorkflow(in.WorkflowHint)
	if !ok {
		workflow = classifyWorkflow(in.Query)
	}

	format, ok := domain.ParseAnswerFormat(in.Format)
	if !ok {
		format = defaultFormat(workflow)
	}

	return domain.Intent{
		Workflow:    workflow,
		LengthClass: c.lengthClass(in.Marks),
		Format:      format,
	}
}

// lengthClass maps exam mark weights to length classes. Anything outside the
// recognized weights falls to the configured middle tier.
func (c *IntentClassifier) lengthClass(marks int) domain.LengthClass {
	switch marks {
	case 2:
		return domain.LengthBrief
	case 5:
		return domain.LengthStandard
	case 10:
		return domain.LengthExtended
	default:
		return c.defaultLength
	}
}

var workflowKeywords = []struct {
	workflow domain.Workflow
	keywords []string
}{
	{domain.WorkflowGenerateQuestions, []string{
		"generate questions", "practice questions", "quiz", "question bank",
		"test me", "mock questions", "sample questions",
	}},
	{domain.WorkflowExamRevision, []string{
		"revision", "revise", "exam prep", "prepare for exam", "important questions",
		"last minute", "key points for exam",
	}},
	{domain.WorkflowSummarize, []string{
		"summarize", "summarise", "summary", "overview", "brief me", "recap",
		"key points", "main ideas", "tl;dr",
	}},
}

func classifyWorkflow(query string) domain.Workflow {
	q := strings.ToLower(query)
	for _, entry := range workflowKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.workflow
			}
		}
	}
	return domain.WorkflowQA
}

func defaultFormat(workflow domain.Workflow) domain.AnswerFormat {
	switch workflow {
	case domain.WorkflowGenerateQuestions, domain.WorkflowExamRevision:
		return domain.FormatBullets
	default:
		return domain.FormatParagraph
	}
}
