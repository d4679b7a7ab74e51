package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one indexed passage of a topic's extracted text. Chunks are
// immutable: re-indexing a topic writes a fresh generation and swaps the
// topic's current-generation pointer rather than mutating rows in place.
type Chunk struct {
	ID             uuid.UUID
	TopicID        uuid.UUID
	SubjectID      uuid.UUID
	CourseID       uuid.UUID
	DepartmentID   uuid.UUID
	InstitutionID  uuid.UUID
	Text           string
	SequenceIndex  int
	Generation     int64
	EmbeddingModel string
	Embedding      []float32
	CreatedAt      time.Time
}

// RetrievalFilter scopes a similarity search. InstitutionID is mandatory;
// the optional fields are combined conjunctively.
type RetrievalFilter struct {
	InstitutionID uuid.UUID
	SubjectID     uuid.UUID
	CourseID      uuid.UUID
	TopicID       uuid.UUID
}

// Validate rejects filters that would cross tenant boundaries.
func (f RetrievalFilter) Validate() error {
	if f.InstitutionID == uuid.Nil {
		return ErrMissingInstitution
	}
	return nil
}

// RetrievedChunk is a chunk scored against a query embedding. TopicName and
// TopicOrder come from the topic record and feed citation labels and the
// deterministic ordering tie-break.
type RetrievedChunk struct {
	Chunk      Chunk
	Score      float32
	TopicName  string
	TopicOrder int
}

// Citation points a generated answer back at a retrieved chunk.
type Citation struct {
	ChunkID     uuid.UUID `json:"chunk_id"`
	SourceLabel string    `json:"source_label"`
	Excerpt     string    `json:"excerpt"`
}
