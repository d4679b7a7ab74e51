package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/telemetry"
)

// RefusalMessage is the fixed answer returned on every refusal, regardless
// of reason. The reason category travels in metadata only.
const RefusalMessage = "I can't provide a reliable answer to this question from the indexed course material."

type pipelineState int

const (
	stateClassify pipelineState = iota
	stateRetrieve
	stateGenerate
	stateValidate
	stateRefuse
	stateDone
)

// PipelineConfig bounds the orchestrator.
type PipelineConfig struct {
	// MaxAttempts is the total number of generator invocations per query
	// (first attempt plus retries).
	MaxAttempts int
	// DefaultTopK is the retrieval size when the caller does not set one.
	DefaultTopK int
	// StageTimeout bounds each upstream-calling stage.
	StageTimeout time.Duration
}

func (c PipelineConfig) sanitized() PipelineConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 5
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 30 * time.Second
	}
	return c
}

// Retriever is the retrieval surface the pipeline needs.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string, filter domain.RetrievalFilter, k int) ([]domain.RetrievedChunk, error)
}

// Generator is the generation surface the pipeline needs.
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) (*Draft, error)
}

// Validator is the validation surface the pipeline needs.
type Validator interface {
	Validate(draft *Draft, intent domain.Intent, retrieved []domain.RetrievedChunk, constraints domain.Constraints) domain.Verdict
}

// QueryInput is one query request, already authenticated.
type QueryInput struct {
	InstitutionID uuid.UUID
	Query         string
	WorkflowHint  string
	Marks         int
	Format        string
	TopK          int
	SubjectID     uuid.UUID
	CourseID      uuid.UUID
	TopicID       uuid.UUID
}

// QueryOutput is the pipeline's result. Refused outputs carry the fixed
// refusal message as Answer plus the reason category; they are successful
// responses, not errors.
type QueryOutput struct {
	Answer         string            `json:"answer"`
	Citations      []domain.Citation `json:"citations"`
	Intent         domain.Intent     `json:"intent"`
	Attempts       int               `json:"attempts"`
	ChunksReturned int               `json:"chunks_returned"`
	Refused        bool              `json:"refused"`
	RefusalReason  string            `json:"refusal_reason,omitempty"`
}

// QueryPipeline drives one query through classify, retrieve, generate and
// validate. Retrieval happens exactly once per query; only generation is
// retried, and only on retryable rejections, up to the attempt bound.
type QueryPipeline struct {
	classifier *IntentClassifier
	retriever  Retriever
	generator  Generator
	validator  Validator
	cfg        PipelineConfig
}

// NewQueryPipeline creates a QueryPipeline.
func NewQueryPipeline(classifier *IntentClassifier, retriever Retriever, generator Generator, validator Validator, cfg PipelineConfig) *QueryPipeline {
	return &QueryPipeline{
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		validator:  validator,
		cfg:        cfg.sanitized(),
	}
}

// Run executes the pipeline for one query. Upstream failures and timeouts
// return errors; content rejections never do, they either loop or end in a
// refusal output.
func (p *QueryPipeline) Run(ctx context.Context, in QueryInput) (*QueryOutput, error) {
	span := telemetry.StartSpan(ctx, "pipeline.run", map[string]string{
		"institution_id": in.InstitutionID.String(),
	})
	defer span.Finish()

	var (
		state       = stateClassify
		intent      domain.Intent
		constraints domain.Constraints
		retrieved   []domain.RetrievedChunk
		draft       *Draft
		verdict     domain.Verdict
		attempts    int
		prev        *domain.Verdict
	)
	refusalReason := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case stateClassify:
			intent = p.classifier.Classify(ClassifyInput{
				Query:        in.Query,
				WorkflowHint: in.WorkflowHint,
				Marks:        in.Marks,
				Format:       in.Format,
			})
			constraints = domain.ConstraintsFor(intent)
			state = stateRetrieve

		case stateRetrieve:
			filter := domain.RetrievalFilter{
				InstitutionID: in.InstitutionID,
				SubjectID:     in.SubjectID,
				CourseID:      in.CourseID,
				TopicID:       in.TopicID,
			}
			k := in.TopK
			if k <= 0 {
				k = p.cfg.DefaultTopK
			}
			sctx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
			rspan := telemetry.StartSpan(sctx, "pipeline.retrieve", nil)
			var err error
			retrieved, err = p.retriever.Retrieve(sctx, in.Query, filter, k)
			rspan.Finish()
			cancel()
			if err != nil {
				return nil, err
			}
			state = stateGenerate

		case stateGenerate:
			attempts++
			var err error
			draft, err = p.runDraftStage(ctx, GenerateInput{
				Query:         in.Query,
				Intent:        intent,
				Chunks:        retrieved,
				Constraints:   constraints,
				PrevRejection: prev,
			})
			if err != nil {
				return nil, err
			}
			state = stateValidate

		case stateValidate:
			verdict = p.validator.Validate(draft, intent, retrieved, constraints)
			switch verdict.Kind {
			case domain.VerdictAccepted:
				state = stateDone
			case domain.VerdictRejectedTerminal:
				refusalReason = verdict.Reason
				state = stateRefuse
			case domain.VerdictRejectedRetryable:
				if attempts >= p.cfg.MaxAttempts {
					refusalReason = verdict.Reason
					state = stateRefuse
					break
				}
				constraints = *verdict.Tightened
				v := verdict
				prev = &v
				state = stateGenerate
			}

		case stateRefuse:
			log.Printf("pipeline: refusing after %d attempt(s): %s", attempts, refusalReason)
			return &QueryOutput{
				Answer:         RefusalMessage,
				Citations:      []domain.Citation{},
				Intent:         intent,
				Attempts:       attempts,
				ChunksReturned: len(retrieved),
				Refused:        true,
				RefusalReason:  refusalReason,
			}, nil

		case stateDone:
			citations := draft.Citations
			if citations == nil {
				citations = []domain.Citation{}
			}
			return &QueryOutput{
				Answer:         draft.Text,
				Citations:      citations,
				Intent:         intent,
				Attempts:       attempts,
				ChunksReturned: len(retrieved),
			}, nil
		}
	}
}

func (p *QueryPipeline) runDraftStage(ctx context.Context, in GenerateInput) (*Draft, error) {
	sctx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()
	span := telemetry.StartSpan(sctx, "pipeline.generate", map[string]string{
		"workflow": string(in.Intent.Workflow),
	})
	defer span.Finish()
	return p.generator.Generate(sctx, in)
}
