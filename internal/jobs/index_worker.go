package jobs

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/service"
	"github.com/syllabiq/syllabiq/internal/telemetry"
)

// MaxRetries is how many times a failed index job is retried before it is
// marked failed permanently.
const MaxRetries = 3

// JobQueue is the persistence surface the processor needs.
type JobQueue interface {
	ClaimPending(ctx context.Context) (*domain.IndexJob, error)
	MarkCompleted(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr string, maxRetries int) error
}

// ContentReader fetches a topic's stored extracted text.
type ContentReader interface {
	GetContent(ctx context.Context, topicID uuid.UUID) (string, error)
}

// Indexer runs the actual indexing.
type Indexer interface {
	IndexTopic(ctx context.Context, topicID uuid.UUID, extractedText string) (*service.IndexResult, error)
}

// IndexProcessor drains the index job queue.
type IndexProcessor struct {
	queue    JobQueue
	contents ContentReader
	indexer  Indexer
}

// NewIndexProcessor creates an IndexProcessor.
func NewIndexProcessor(queue JobQueue, contents ContentReader, indexer Indexer) *IndexProcessor {
	return &IndexProcessor{queue: queue, contents: contents, indexer: indexer}
}

// ProcessNext claims and runs one pending job. Returns ok=false when the
// queue is empty.
func (p *IndexProcessor) ProcessNext(ctx context.Context) (bool, error) {
	job, err := p.queue.ClaimPending(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	span := telemetry.StartSpan(ctx, "jobs.index_topic", map[string]string{
		"topic_id": job.TopicID.String(),
	})
	defer span.Finish()

	if err := p.process(ctx, job); err != nil {
		p.handleFailure(ctx, job, err)
		return true, nil
	}

	if err := p.queue.MarkCompleted(ctx, job.ID); err != nil {
		log.Printf("jobs: marking job %s completed: %v", job.ID, err)
	}
	return true, nil
}

func (p *IndexProcessor) process(ctx context.Context, job *domain.IndexJob) error {
	text, err := p.contents.GetContent(ctx, job.TopicID)
	if err != nil {
		return err
	}
	result, err := p.indexer.IndexTopic(ctx, job.TopicID, text)
	if err != nil {
		return err
	}
	log.Printf("jobs: indexed topic %s gen=%d chunks=%d failed=%d",
		job.TopicID, result.Generation, result.IndexedCount, result.FailedCount)
	return nil
}

func (p *IndexProcessor) handleFailure(ctx context.Context, job *domain.IndexJob, jobErr error) {
	log.Printf("jobs: job %s (topic %s) failed: %v", job.ID, job.TopicID, jobErr)
	telemetry.CaptureError(jobErr)
	if err := p.queue.MarkFailed(ctx, job.ID, jobErr.Error(), MaxRetries); err != nil {
		log.Printf("jobs: marking job %s failed: %v", job.ID, err)
	}
}
