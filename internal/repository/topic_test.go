package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/testutil"
)

func TestTopicRepository_GetScope(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewTopicRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	inserted := insertTopic(t, db, institutionID, "Waves", 3)

	scope, err := repo.GetScope(ctx, inserted.TopicID)
	require.NoError(t, err)
	assert.Equal(t, inserted, *scope)

	_, err = repo.GetScope(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
}

func TestTopicRepository_ContentRoundTrip(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewTopicRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	scope := insertTopic(t, db, institutionID, "Sound", 1)

	_, err := repo.GetContent(ctx, scope.TopicID)
	assert.ErrorIs(t, err, domain.ErrTopicContentNotFound)

	require.NoError(t, repo.UpsertContent(ctx, scope.TopicID, "first version"))
	text, err := repo.GetContent(ctx, scope.TopicID)
	require.NoError(t, err)
	assert.Equal(t, "first version", text)

	require.NoError(t, repo.UpsertContent(ctx, scope.TopicID, "second version"))
	text, err = repo.GetContent(ctx, scope.TopicID)
	require.NoError(t, err)
	assert.Equal(t, "second version", text)
}

func TestTopicRepository_ListContentTopicIDs(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewTopicRepository(db)
	ctx := context.Background()

	instA := insertInstitution(t, db)
	instB := insertInstitution(t, db)
	topicA := insertTopic(t, db, instA, "A", 1)
	topicB := insertTopic(t, db, instB, "B", 1)
	insertTopic(t, db, instA, "No Content", 2)

	require.NoError(t, repo.UpsertContent(ctx, topicA.TopicID, "a"))
	require.NoError(t, repo.UpsertContent(ctx, topicB.TopicID, "b"))

	all, err := repo.ListContentTopicIDs(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := repo.ListContentTopicIDs(ctx, instA)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, topicA.TopicID, onlyA[0])
}
