package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/testutil"
)

const testModel = "text-embedding-3-small"

func insertInstitution(t *testing.T, db *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO institutions (id, name) VALUES ($1, $2)`, id, "inst-"+id.String())
	require.NoError(t, err)
	return id
}

func insertTopic(t *testing.T, db *pgxpool.Pool, institutionID uuid.UUID, name string, position int) domain.TopicScope {
	t.Helper()
	scope := domain.TopicScope{
		TopicID:       uuid.New(),
		TopicName:     name,
		SubjectID:     uuid.New(),
		CourseID:      uuid.New(),
		DepartmentID:  uuid.New(),
		InstitutionID: institutionID,
		Position:      position,
	}
	_, err := db.Exec(context.Background(), `
		INSERT INTO topics (id, name, subject_id, course_id, department_id, institution_id, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		scope.TopicID, scope.TopicName, scope.SubjectID, scope.CourseID,
		scope.DepartmentID, scope.InstitutionID, scope.Position)
	require.NoError(t, err)
	return scope
}

func testEmbedding(seed float32) []float32 {
	vec := make([]float32, 1536)
	vec[0] = seed
	vec[1] = 1 - seed
	return vec
}

func chunkFor(scope domain.TopicScope, text string, seq int, gen int64, embedding []float32) domain.Chunk {
	return domain.Chunk{
		TopicID:        scope.TopicID,
		SubjectID:      scope.SubjectID,
		CourseID:       scope.CourseID,
		DepartmentID:   scope.DepartmentID,
		InstitutionID:  scope.InstitutionID,
		Text:           text,
		SequenceIndex:  seq,
		Generation:     gen,
		EmbeddingModel: testModel,
		Embedding:      embedding,
	}
}

func TestChunkRepository_InsertSwapSearch(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	scope := insertTopic(t, db, institutionID, "Cell Biology", 1)

	gen, err := repo.CurrentGeneration(ctx, scope.TopicID)
	require.NoError(t, err)
	assert.Zero(t, gen)

	chunks := []domain.Chunk{
		chunkFor(scope, "mitochondria produce ATP", 0, 1, testEmbedding(0.9)),
		chunkFor(scope, "the nucleus stores DNA", 1, 1, testEmbedding(0.8)),
	}
	require.NoError(t, repo.InsertChunks(ctx, chunks))

	// Not yet swapped: searches see nothing.
	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.9),
		domain.RetrievalFilter{InstitutionID: institutionID}, testModel, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, repo.SwapGeneration(ctx, scope.TopicID, 1, testModel))

	results, err = repo.SearchByEmbedding(ctx, testEmbedding(0.9),
		domain.RetrievalFilter{InstitutionID: institutionID}, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "mitochondria produce ATP", results[0].Chunk.Text)
	assert.Equal(t, "Cell Biology", results[0].TopicName)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestChunkRepository_SupersededGenerationInvisible(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	scope := insertTopic(t, db, institutionID, "Optics", 1)
	filter := domain.RetrievalFilter{InstitutionID: institutionID}

	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope, "old content", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scope.TopicID, 1, testModel))

	// New generation inserted but not yet swapped: old one still serves.
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope, "new content", 0, 2, testEmbedding(0.5)),
	}))
	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.5), filter, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "old content", results[0].Chunk.Text)

	require.NoError(t, repo.SwapGeneration(ctx, scope.TopicID, 2, testModel))
	results, err = repo.SearchByEmbedding(ctx, testEmbedding(0.5), filter, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new content", results[0].Chunk.Text)

	// Physical cleanup removes only the superseded rows.
	deleted, err := repo.DeleteSuperseded(ctx, scope.TopicID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	results, err = repo.SearchByEmbedding(ctx, testEmbedding(0.5), filter, testModel, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChunkRepository_DeleteGenerationClearsAbortedRows(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	scope := insertTopic(t, db, institutionID, "Acoustics", 1)
	filter := domain.RetrievalFilter{InstitutionID: institutionID}

	// Rows left behind by a run that died before swapping the pointer.
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope, "orphaned row from an aborted run", 0, 1, testEmbedding(0.5)),
	}))

	require.NoError(t, repo.DeleteGeneration(ctx, scope.TopicID, 1))
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope, "fresh row", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scope.TopicID, 1, testModel))

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.5), filter, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh row", results[0].Chunk.Text)
}

func TestChunkRepository_TenantIsolation(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	instA := insertInstitution(t, db)
	instB := insertInstitution(t, db)
	scopeA := insertTopic(t, db, instA, "Shared Topic Name", 1)
	scopeB := insertTopic(t, db, instB, "Shared Topic Name", 1)

	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scopeA, "institution A material", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scopeA.TopicID, 1, testModel))
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scopeB, "institution B material", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scopeB.TopicID, 1, testModel))

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.5),
		domain.RetrievalFilter{InstitutionID: instA}, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "institution A material", results[0].Chunk.Text)
	assert.Equal(t, instA, results[0].Chunk.InstitutionID)
}

func TestChunkRepository_ConjunctiveFilters(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	scope1 := insertTopic(t, db, institutionID, "Topic One", 1)
	scope2 := insertTopic(t, db, institutionID, "Topic Two", 2)

	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope1, "topic one text", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scope1.TopicID, 1, testModel))
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope2, "topic two text", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scope2.TopicID, 1, testModel))

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.5), domain.RetrievalFilter{
		InstitutionID: institutionID,
		TopicID:       scope2.TopicID,
	}, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "topic two text", results[0].Chunk.Text)

	results, err = repo.SearchByEmbedding(ctx, testEmbedding(0.5), domain.RetrievalFilter{
		InstitutionID: institutionID,
		SubjectID:     scope1.SubjectID,
	}, testModel, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "topic one text", results[0].Chunk.Text)
}

func TestChunkRepository_ModelMismatchDetection(t *testing.T) {
	testutil.SkipIfShort(t)
	db := testutil.NewTestPool(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	institutionID := insertInstitution(t, db)
	scope := insertTopic(t, db, institutionID, "History", 1)
	filter := domain.RetrievalFilter{InstitutionID: institutionID}

	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{
		chunkFor(scope, "some text", 0, 1, testEmbedding(0.5)),
	}))
	require.NoError(t, repo.SwapGeneration(ctx, scope.TopicID, 1, "text-embedding-ada-002"))

	n, err := repo.CountModelMismatch(ctx, filter, testModel)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountModelMismatch(ctx, filter, "text-embedding-ada-002")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChunkRepository_SearchRequiresInstitution(t *testing.T) {
	repo := NewChunkRepository(nil)

	_, err := repo.SearchByEmbedding(context.Background(), testEmbedding(0.5),
		domain.RetrievalFilter{}, testModel, 10)

	assert.ErrorIs(t, err, domain.ErrMissingInstitution)
}
