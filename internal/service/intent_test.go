package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syllabiq/syllabiq/internal/domain"
)

func TestIntentClassifier_HintWinsOverHeuristics(t *testing.T) {
	c := NewIntentClassifier()

	// Query text screams summarize, hint says qa.
	intent := c.Classify(ClassifyInput{
		Query:        "summarize the key points of cellular respiration",
		WorkflowHint: "qa",
	})

	assert.Equal(t, domain.WorkflowQA, intent.Workflow)
}

func TestIntentClassifier_UnrecognizedHintFallsBack(t *testing.T) {
	c := NewIntentClassifier()

	intent := c.Classify(ClassifyInput{
		Query:        "summarize the chapter on thermodynamics",
		WorkflowHint: "essay",
	})

	assert.Equal(t, domain.WorkflowSummarize, intent.Workflow)
}

func TestIntentClassifier_KeywordHeuristics(t *testing.T) {
	c := NewIntentClassifier()

	tests := []struct {
		query    string
		expected domain.Workflow
	}{
		{"What is the difference between mitosis and meiosis?", domain.WorkflowQA},
		{"Give me an overview of the French Revolution", domain.WorkflowSummarize},
		{"Generate questions on Newton's laws for practice", domain.WorkflowGenerateQuestions},
		{"Help me with exam prep for organic chemistry", domain.WorkflowExamRevision},
		{"test me on the periodic table", domain.WorkflowGenerateQuestions},
	}
	for _, tt := range tests {
		intent := c.Classify(ClassifyInput{Query: tt.query})
		assert.Equal(t, tt.expected, intent.Workflow, "query: %s", tt.query)
	}
}

func TestIntentClassifier_MarksMapping(t *testing.T) {
	c := NewIntentClassifier()

	assert.Equal(t, domain.LengthBrief, c.Classify(ClassifyInput{Query: "q", Marks: 2}).LengthClass)
	assert.Equal(t, domain.LengthStandard, c.Classify(ClassifyInput{Query: "q", Marks: 5}).LengthClass)
	assert.Equal(t, domain.LengthExtended, c.Classify(ClassifyInput{Query: "q", Marks: 10}).LengthClass)
	// Unset and unrecognized marks fall to the middle tier.
	assert.Equal(t, domain.LengthStandard, c.Classify(ClassifyInput{Query: "q"}).LengthClass)
	assert.Equal(t, domain.LengthStandard, c.Classify(ClassifyInput{Query: "q", Marks: 7}).LengthClass)
}

func TestIntentClassifier_FormatDefaultsByWorkflow(t *testing.T) {
	c := NewIntentClassifier()

	qa := c.Classify(ClassifyInput{Query: "what is entropy?"})
	assert.Equal(t, domain.FormatParagraph, qa.Format)

	revision := c.Classify(ClassifyInput{Query: "revision notes for the exam"})
	assert.Equal(t, domain.FormatBullets, revision.Format)

	explicit := c.Classify(ClassifyInput{Query: "what is entropy?", Format: "bullets"})
	assert.Equal(t, domain.FormatBullets, explicit.Format)
}

func TestIntentClassifier_Idempotent(t *testing.T) {
	c := NewIntentClassifier()
	in := ClassifyInput{Query: "Summarize photosynthesis for a 5 mark answer", Marks: 5}

	first := c.Classify(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(in))
	}
}
