package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// ChunkRepository persists topic chunks and the per-topic generation state
// that makes re-indexing atomic for readers.
type ChunkRepository struct {
	db DBTX
}

// NewChunkRepository creates a ChunkRepository.
func NewChunkRepository(db DBTX) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CurrentGeneration returns the queryable generation for a topic, or 0 when
// the topic has never been indexed.
func (r *ChunkRepository) CurrentGeneration(ctx context.Context, topicID uuid.UUID) (int64, error) {
	var gen int64
	err := r.db.QueryRow(ctx,
		`SELECT current_generation FROM topic_index_state WHERE topic_id = $1`,
		topicID,
	).Scan(&gen)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading index state: %w", err)
	}
	return gen, nil
}

// InsertChunks writes chunks for a not-yet-current generation. Readers never
// see them until SwapGeneration points the topic at this generation.
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		c := &chunks[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		_, err := r.db.Exec(ctx, `
			INSERT INTO topic_chunks (
				id, topic_id, subject_id, course_id, department_id, institution_id,
				chunk_text, sequence_index, generation, embedding_model, embedding
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID, c.TopicID, c.SubjectID, c.CourseID, c.DepartmentID, c.InstitutionID,
			c.Text, c.SequenceIndex, c.Generation, c.EmbeddingModel,
			pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.SequenceIndex, err)
		}
	}
	return nil
}

// DeleteGeneration removes any rows already written under a generation. A
// run that dies between InsertChunks and SwapGeneration leaves rows behind
// at a generation number the next run will reuse; clearing them first keeps
// the fresh insert free of another run's chunks.
func (r *ChunkRepository) DeleteGeneration(ctx context.Context, topicID uuid.UUID, generation int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM topic_chunks WHERE topic_id = $1 AND generation = $2`,
		topicID, generation,
	)
	if err != nil {
		return fmt.Errorf("clearing generation %d: %w", generation, err)
	}
	return nil
}

// SwapGeneration atomically makes generation the queryable one for the topic
// and records the embedding model the generation was built with.
func (r *ChunkRepository) SwapGeneration(ctx context.Context, topicID uuid.UUID, generation int64, embeddingModel string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO topic_index_state (topic_id, current_generation, embedding_model, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (topic_id) DO UPDATE
		SET current_generation = EXCLUDED.current_generation,
		    embedding_model = EXCLUDED.embedding_model,
		    updated_at = NOW()`,
		topicID, generation, embeddingModel,
	)
	if err != nil {
		return fmt.Errorf("swapping generation: %w", err)
	}
	return nil
}

// DeleteSuperseded removes chunk rows older than the current generation.
// Callers treat failures as non-fatal; correctness rests on the generation
// filter in SearchByEmbedding, not on this cleanup.
func (r *ChunkRepository) DeleteSuperseded(ctx context.Context, topicID uuid.UUID, currentGeneration int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM topic_chunks WHERE topic_id = $1 AND generation < $2`,
		topicID, currentGeneration,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting superseded chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountModelMismatch counts indexed topics in scope whose current generation
// was built with a different embedding model than the one configured now.
func (r *ChunkRepository) CountModelMismatch(ctx context.Context, filter domain.RetrievalFilter, embeddingModel string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM topic_index_state s
		JOIN topics t ON t.id = s.topic_id
		WHERE t.institution_id = $1 AND s.embedding_model <> $2`
	args := []any{filter.InstitutionID, embeddingModel}

	if filter.TopicID != uuid.Nil {
		args = append(args, filter.TopicID)
		query += fmt.Sprintf(" AND t.id = $%d", len(args))
	}
	if filter.SubjectID != uuid.Nil {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND t.subject_id = $%d", len(args))
	}
	if filter.CourseID != uuid.Nil {
		args = append(args, filter.CourseID)
		query += fmt.Sprintf(" AND t.course_id = $%d", len(args))
	}

	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting model mismatch: %w", err)
	}
	return n, nil
}

// SearchByEmbedding runs a similarity search over current-generation chunks
// under the conjunctive filter. Ordering is score desc, then topic position,
// then sequence index, so equal scores resolve deterministically.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, filter domain.RetrievalFilter, embeddingModel string, limit int) ([]domain.RetrievedChunk, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.topic_id, c.subject_id, c.course_id, c.department_id,
		       c.institution_id, c.chunk_text, c.sequence_index, c.generation,
		       c.embedding_model, c.created_at,
		       t.name, t.position,
		       1.0 / (1.0 + (c.embedding <=> $1)) AS score
		FROM topic_chunks c
		JOIN topic_index_state s ON s.topic_id = c.topic_id
		    AND s.current_generation = c.generation
		JOIN topics t ON t.id = c.topic_id
		WHERE c.institution_id = $2 AND c.embedding_model = $3`
	args := []any{pgvector.NewVector(embedding), filter.InstitutionID, embeddingModel}

	if filter.TopicID != uuid.Nil {
		args = append(args, filter.TopicID)
		query += fmt.Sprintf(" AND c.topic_id = $%d", len(args))
	}
	if filter.SubjectID != uuid.Nil {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND c.subject_id = $%d", len(args))
	}
	if filter.CourseID != uuid.Nil {
		args = append(args, filter.CourseID)
		query += fmt.Sprintf(" AND c.course_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY score DESC, t.position ASC, c.sequence_index ASC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk
	for rows.Next() {
		var rc domain.RetrievedChunk
		err := rows.Scan(
			&rc.Chunk.ID, &rc.Chunk.TopicID, &rc.Chunk.SubjectID, &rc.Chunk.CourseID,
			&rc.Chunk.DepartmentID, &rc.Chunk.InstitutionID, &rc.Chunk.Text,
			&rc.Chunk.SequenceIndex, &rc.Chunk.Generation, &rc.Chunk.EmbeddingModel,
			&rc.Chunk.CreatedAt, &rc.TopicName, &rc.TopicOrder, &rc.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		results = append(results, rc)
	}
	return results, rows.Err()
}
