package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// TopicRepository reads the topic mirror maintained by the content subsystem
// and stores each topic's latest extracted text.
type TopicRepository struct {
	db DBTX
}

// NewTopicRepository creates a TopicRepository.
func NewTopicRepository(db DBTX) *TopicRepository {
	return &TopicRepository{db: db}
}

// GetScope returns the curriculum placement of a topic.
func (r *TopicRepository) GetScope(ctx context.Context, topicID uuid.UUID) (*domain.TopicScope, error) {
	var s domain.TopicScope
	err := r.db.QueryRow(ctx, `
		SELECT id, name, subject_id, course_id, department_id, institution_id, position
		FROM topics WHERE id = $1`,
		topicID,
	).Scan(&s.TopicID, &s.TopicName, &s.SubjectID, &s.CourseID, &s.DepartmentID,
		&s.InstitutionID, &s.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading topic scope: %w", err)
	}
	return &s, nil
}

// UpsertContent stores the latest extracted text for a topic.
func (r *TopicRepository) UpsertContent(ctx context.Context, topicID uuid.UUID, text string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO topic_contents (topic_id, extracted_text, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (topic_id) DO UPDATE
		SET extracted_text = EXCLUDED.extracted_text, updated_at = NOW()`,
		topicID, text,
	)
	if err != nil {
		return fmt.Errorf("upserting topic content: %w", err)
	}
	return nil
}

// GetContent returns the stored extracted text for a topic.
func (r *TopicRepository) GetContent(ctx context.Context, topicID uuid.UUID) (string, error) {
	var text string
	err := r.db.QueryRow(ctx,
		`SELECT extracted_text FROM topic_contents WHERE topic_id = $1`,
		topicID,
	).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrTopicContentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading topic content: %w", err)
	}
	return text, nil
}

// ListContentTopicIDs returns every topic that has stored extracted text,
// optionally scoped to one institution. Used by the reindex command.
func (r *TopicRepository) ListContentTopicIDs(ctx context.Context, institutionID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT tc.topic_id
		FROM topic_contents tc
		JOIN topics t ON t.id = tc.topic_id`
	var args []any
	if institutionID != uuid.Nil {
		query += ` WHERE t.institution_id = $1`
		args = append(args, institutionID)
	}
	query += ` ORDER BY tc.topic_id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing topic contents: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning topic id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
