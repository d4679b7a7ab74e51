package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// ChunkIndex is the persistence surface the indexer needs.
type ChunkIndex interface {
	CurrentGeneration(ctx context.Context, topicID uuid.UUID) (int64, error)
	DeleteGeneration(ctx context.Context, topicID uuid.UUID, generation int64) error
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error
	SwapGeneration(ctx context.Context, topicID uuid.UUID, generation int64, embeddingModel string) error
	DeleteSuperseded(ctx context.Context, topicID uuid.UUID, currentGeneration int64) (int64, error)
}

// TopicStore is the topic mirror surface the indexer needs.
type TopicStore interface {
	GetScope(ctx context.Context, topicID uuid.UUID) (*domain.TopicScope, error)
	UpsertContent(ctx context.Context, topicID uuid.UUID, text string) error
}

// SourceArchiver archives raw extracted text before chunking. Optional.
type SourceArchiver interface {
	ArchiveTopicSource(ctx context.Context, topicID uuid.UUID, generation int64, text string) error
}

// ChunkFailure records one chunk that could not be embedded.
type ChunkFailure struct {
	SequenceIndex int    `json:"sequence_index"`
	Error         string `json:"error"`
}

// IndexResult reports the outcome of indexing one topic.
type IndexResult struct {
	TopicID      uuid.UUID      `json:"topic_id"`
	Generation   int64          `json:"generation"`
	IndexedCount int            `json:"indexed_count"`
	FailedCount  int            `json:"failed_count"`
	Failures     []ChunkFailure `json:"failures,omitempty"`
}

// IndexerService chunks and embeds a topic's extracted text and commits it
// as a fresh index generation.
type IndexerService struct {
	embedder Embedder
	index    ChunkIndex
	topics   TopicStore
	archiver SourceArchiver
	chunking ChunkingConfig
}

// NewIndexerService creates an IndexerService. archiver may be nil.
func NewIndexerService(embedder Embedder, index ChunkIndex, topics TopicStore, archiver SourceArchiver, chunking ChunkingConfig) *IndexerService {
	return &IndexerService{
		embedder: embedder,
		index:    index,
		topics:   topics,
		archiver: archiver,
		chunking: chunking,
	}
}

// IndexTopic replaces a topic's indexed chunks with chunks of extractedText.
// Individual embedding failures are recorded in the result and the batch
// continues. The new generation is inserted before the current-generation
// pointer moves, so concurrent readers always see one complete generation.
func (s *IndexerService) IndexTopic(ctx context.Context, topicID uuid.UUID, extractedText string) (*IndexResult, error) {
	if strings.TrimSpace(extractedText) == "" {
		return nil, domain.ErrEmptyTopicContent
	}

	scope, err := s.topics.GetScope(ctx, topicID)
	if err != nil {
		return nil, err
	}

	current, err := s.index.CurrentGeneration(ctx, topicID)
	if err != nil {
		return nil, err
	}
	generation := current + 1

	if err := s.topics.UpsertContent(ctx, topicID, extractedText); err != nil {
		return nil, err
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveTopicSource(ctx, topicID, generation, extractedText); err != nil {
			log.Printf("indexer: archiving source for topic %s: %v", topicID, err)
		}
	}

	texts := SplitText(extractedText, s.chunking)
	if len(texts) == 0 {
		return nil, domain.ErrEmptyTopicContent
	}
	chunks := BuildChunks(*scope, texts, generation, s.embedder.ModelID())

	result := &IndexResult{TopicID: topicID, Generation: generation}
	embedded := chunks[:0]
	for i := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.FailedCount++
			result.Failures = append(result.Failures, ChunkFailure{
				SequenceIndex: chunks[i].SequenceIndex,
				Error:         err.Error(),
			})
			continue
		}
		chunks[i].Embedding = embedding
		embedded = append(embedded, chunks[i])
	}

	if len(embedded) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeUpstream,
			fmt.Sprintf("all %d chunks failed to embed", len(chunks)))
	}

	// A previous run may have died between insert and swap, leaving rows at
	// this generation number. Clear them so the new rows stand alone.
	if err := s.index.DeleteGeneration(ctx, topicID, generation); err != nil {
		return nil, err
	}
	if err := s.index.InsertChunks(ctx, embedded); err != nil {
		return nil, err
	}
	if err := s.index.SwapGeneration(ctx, topicID, generation, s.embedder.ModelID()); err != nil {
		return nil, err
	}

	// Best-effort cleanup; the generation filter keeps stale rows invisible.
	if _, err := s.index.DeleteSuperseded(ctx, topicID, generation); err != nil {
		log.Printf("indexer: deleting superseded chunks for topic %s: %v", topicID, err)
	}

	result.IndexedCount = len(embedded)
	return result, nil
}
