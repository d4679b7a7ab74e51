package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// APIKey is a stored institution credential. Only the SHA-256 hash of the
// token is persisted.
type APIKey struct {
	ID            uuid.UUID
	InstitutionID uuid.UUID
	TokenHash     string
	Name          string
	CreatedAt     time.Time
	RevokedAt     *time.Time
}

// Revoked reports whether the key has been revoked.
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// APIKeyRepository persists institution API keys.
type APIKeyRepository struct {
	db DBTX
}

// NewAPIKeyRepository creates an APIKeyRepository.
func NewAPIKeyRepository(db DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a new API key hash for an institution.
func (r *APIKeyRepository) Create(ctx context.Context, institutionID uuid.UUID, tokenHash, name string) (*APIKey, error) {
	key := &APIKey{
		ID:            uuid.New(),
		InstitutionID: institutionID,
		TokenHash:     tokenHash,
		Name:          name,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO api_keys (id, institution_id, token_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		key.ID, key.InstitutionID, key.TokenHash, key.Name,
	).Scan(&key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating api key: %w", err)
	}
	return key, nil
}

// GetByTokenHash looks up a key by the hash of its token.
func (r *APIKeyRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*APIKey, error) {
	var key APIKey
	var revokedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		SELECT id, institution_id, token_hash, name, created_at, revoked_at
		FROM api_keys WHERE token_hash = $1`,
		tokenHash,
	).Scan(&key.ID, &key.InstitutionID, &key.TokenHash, &key.Name, &key.CreatedAt, &revokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading api key: %w", err)
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		key.RevokedAt = &t
	}
	return &key, nil
}

// InstitutionRepository persists institutions (tenants).
type InstitutionRepository struct {
	db DBTX
}

// NewInstitutionRepository creates an InstitutionRepository.
func NewInstitutionRepository(db DBTX) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// Create stores a new institution.
func (r *InstitutionRepository) Create(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx,
		`INSERT INTO institutions (id, name) VALUES ($1, $2)`,
		id, name,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating institution: %w", err)
	}
	return id, nil
}

// GetByName looks up an institution by name.
func (r *InstitutionRepository) GetByName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT id FROM institutions WHERE name = $1`,
		name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrInstitutionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("reading institution: %w", err)
	}
	return id, nil
}
