package domain

import (
	"time"

	"github.com/google/uuid"
)

// IndexJobStatus represents the lifecycle state of an index job
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob is a queued request to (re)index one topic's extracted text.
// The upload subsystem enqueues these; the polling worker drains them.
type IndexJob struct {
	ID          uuid.UUID
	TopicID     uuid.UUID
	Status      IndexJobStatus
	Retries     int
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
