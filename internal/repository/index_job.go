package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// IndexJobRepository queues asynchronous topic index work.
type IndexJobRepository struct {
	db DBTX
}

// NewIndexJobRepository creates an IndexJobRepository.
func NewIndexJobRepository(db DBTX) *IndexJobRepository {
	return &IndexJobRepository{db: db}
}

// Enqueue creates a pending index job for a topic.
func (r *IndexJobRepository) Enqueue(ctx context.Context, topicID uuid.UUID) (*domain.IndexJob, error) {
	job := &domain.IndexJob{
		ID:      uuid.New(),
		TopicID: topicID,
		Status:  domain.IndexJobStatusPending,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO index_jobs (id, topic_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		job.ID, job.TopicID, job.Status,
	).Scan(&job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("enqueuing index job: %w", err)
	}
	return job, nil
}

// ClaimPending atomically claims the oldest pending job and marks it
// processing. Uses FOR UPDATE SKIP LOCKED so concurrent workers never claim
// the same job. Returns nil when the queue is empty.
func (r *IndexJobRepository) ClaimPending(ctx context.Context) (*domain.IndexJob, error) {
	var job domain.IndexJob
	var errText pgtype.Text
	var processedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		WITH claimed AS (
			SELECT id FROM index_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE index_jobs j
		SET status = 'processing'
		FROM claimed
		WHERE j.id = claimed.id
		RETURNING j.id, j.topic_id, j.status, j.retries, j.error, j.created_at, j.processed_at`,
	).Scan(&job.ID, &job.TopicID, &job.Status, &job.Retries, &errText, &job.CreatedAt, &processedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming index job: %w", err)
	}
	if errText.Valid {
		job.Error = errText.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		job.ProcessedAt = &t
	}
	return &job, nil
}

// MarkCompleted records a successful job.
func (r *IndexJobRepository) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE index_jobs
		SET status = 'completed', error = NULL, processed_at = NOW()
		WHERE id = $1`,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("marking job completed: %w", err)
	}
	return nil
}

// MarkFailed records a failed attempt. Jobs under the retry limit go back to
// pending; the rest are failed permanently.
func (r *IndexJobRepository) MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr string, maxRetries int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE index_jobs
		SET retries = retries + 1,
		    error = $2,
		    status = CASE WHEN retries + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    processed_at = CASE WHEN retries + 1 >= $3 THEN NOW() ELSE processed_at END
		WHERE id = $1`,
		jobID, jobErr, maxRetries,
	)
	if err != nil {
		return fmt.Errorf("marking job failed: %w", err)
	}
	return nil
}
