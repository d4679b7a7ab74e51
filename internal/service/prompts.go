package service

import (
	"fmt"
	"strings"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// InsufficientCoverageAnswer is the fixed draft produced when retrieval
// returned nothing. It never goes through the generation model.
const InsufficientCoverageAnswer = "The indexed course material does not cover this question. " +
	"Please ask about a topic from your syllabus, or contact your instructor to have the relevant material uploaded."

const systemPrompt = `You are an academic assistant answering strictly from the course material provided.
Rules:
- Use ONLY the numbered sources below. Never use outside knowledge.
- After every claim drawn from a source, add its tag, e.g. [S1].
- If the sources do not contain the answer, say so plainly.`

var workflowInstructions = map[domain.Workflow]string{
	domain.WorkflowQA:                "Answer the student's question directly and completely.",
	domain.WorkflowSummarize:         "Summarize the relevant material, covering all main points.",
	domain.WorkflowGenerateQuestions: "Write practice questions (with brief model answers) based on the material.",
	domain.WorkflowExamRevision:      "Produce focused exam revision notes: definitions, key facts and likely questions.",
}

// BuildUserPrompt assembles the grounded user prompt from the supplied
// chunks only. prevRejection, when set, carries the previous attempt's
// rejection reason so the model corrects it.
func BuildUserPrompt(query string, intent domain.Intent, chunks []domain.RetrievedChunk, constraints domain.Constraints, prevRejection *domain.Verdict) string {
	var b strings.Builder

	b.WriteString("Sources:\n")
	for i, rc := range chunks {
		fmt.Fprintf(&b, "[S%d] (%s)\n%s\n\n", i+1, rc.TopicName, rc.Chunk.Text)
	}

	fmt.Fprintf(&b, "Task: %s\n", workflowInstructions[intent.Workflow])
	fmt.Fprintf(&b, "Question: %s\n\n", query)

	fmt.Fprintf(&b, "Length: between %d and %d words.\n", constraints.MinWords, constraints.MaxWords)
	switch constraints.Format {
	case domain.FormatBullets:
		b.WriteString("Format: bullet points, one point per line starting with '-'.\n")
	default:
		b.WriteString("Format: flowing paragraphs, no bullet lists.\n")
	}
	for _, instr := range constraints.Instructions {
		fmt.Fprintf(&b, "Additional requirement: %s\n", instr)
	}

	if prevRejection != nil {
		fmt.Fprintf(&b, "\nYour previous answer was rejected (%s). Correct this in your next answer.\n",
			rejectionHint(prevRejection.Reason))
	}

	return b.String()
}

func rejectionHint(reason string) string {
	switch reason {
	case domain.ReasonLength:
		return "it violated the required word count"
	case domain.ReasonUngrounded:
		return "it did not cite the sources"
	case domain.ReasonFormat:
		return "it used the wrong format"
	default:
		return reason
	}
}
