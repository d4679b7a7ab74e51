package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/testutil"
)

func TestAPIKeyRepository_CreateAndLookup(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)

	created, err := repo.Create(ctx, institutionID, "hash-abc", "ingest key")
	require.NoError(t, err)
	assert.NotZero(t, created.CreatedAt)

	found, err := repo.GetByTokenHash(ctx, "hash-abc")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, institutionID, found.InstitutionID)
	assert.False(t, found.Revoked())
}

func TestAPIKeyRepository_UnknownHash(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewAPIKeyRepository(db)

	_, err := repo.GetByTokenHash(context.Background(), "no-such-hash")

	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestInstitutionRepository_CreateAndGetByName(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewInstitutionRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "Springfield University")
	require.NoError(t, err)

	found, err := repo.GetByName(ctx, "Springfield University")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	_, err = repo.GetByName(ctx, "Shelbyville College")
	assert.ErrorIs(t, err, domain.ErrInstitutionNotFound)
}
