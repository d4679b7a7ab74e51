package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syllabiq/syllabiq/internal/api/middleware"
	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/service"
)

// MockHandlerIndexer mocks the indexer service
type MockHandlerIndexer struct {
	mock.Mock
}

func (m *MockHandlerIndexer) IndexTopic(ctx context.Context, topicID uuid.UUID, extractedText string) (*service.IndexResult, error) {
	args := m.Called(ctx, topicID, extractedText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IndexResult), args.Error(1)
}

// MockHandlerTopics mocks the topic store
type MockHandlerTopics struct {
	mock.Mock
}

func (m *MockHandlerTopics) GetScope(ctx context.Context, topicID uuid.UUID) (*domain.TopicScope, error) {
	args := m.Called(ctx, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TopicScope), args.Error(1)
}

func (m *MockHandlerTopics) UpsertContent(ctx context.Context, topicID uuid.UUID, text string) error {
	return m.Called(ctx, topicID, text).Error(0)
}

// MockJobEnqueuer mocks the index job queue
type MockJobEnqueuer struct {
	mock.Mock
}

func (m *MockJobEnqueuer) Enqueue(ctx context.Context, topicID uuid.UUID) (*domain.IndexJob, error) {
	args := m.Called(ctx, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexJob), args.Error(1)
}

func indexRequestWith(t *testing.T, institutionID, topicID uuid.UUID, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("topicID", topicID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithInstitutionID(ctx, institutionID))
}

func topicScope(topicID, institutionID uuid.UUID) *domain.TopicScope {
	return &domain.TopicScope{
		TopicID:       topicID,
		TopicName:     "Optics",
		SubjectID:     uuid.New(),
		CourseID:      uuid.New(),
		DepartmentID:  uuid.New(),
		InstitutionID: institutionID,
	}
}

func TestIndexHandler_Success(t *testing.T) {
	mockIndexer := new(MockHandlerIndexer)
	mockTopics := new(MockHandlerTopics)
	h := NewIndexHandler(mockIndexer, mockTopics, new(MockJobEnqueuer))

	institutionID := uuid.New()
	topicID := uuid.New()

	mockTopics.On("GetScope", mock.Anything, topicID).Return(topicScope(topicID, institutionID), nil)
	mockIndexer.On("IndexTopic", mock.Anything, topicID, "refraction bends light").
		Return(&service.IndexResult{TopicID: topicID, Generation: 1, IndexedCount: 1}, nil)

	rec := httptest.NewRecorder()
	h.Index(rec, indexRequestWith(t, institutionID, topicID, "/v1/topics/"+topicID.String()+"/index",
		map[string]any{"extracted_text": "refraction bends light"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	mockIndexer.AssertExpectations(t)
}

func TestIndexHandler_CrossTenantTopicIsNotFound(t *testing.T) {
	mockIndexer := new(MockHandlerIndexer)
	mockTopics := new(MockHandlerTopics)
	h := NewIndexHandler(mockIndexer, mockTopics, new(MockJobEnqueuer))

	topicID := uuid.New()
	otherInstitution := uuid.New()

	mockTopics.On("GetScope", mock.Anything, topicID).Return(topicScope(topicID, otherInstitution), nil)

	rec := httptest.NewRecorder()
	h.Index(rec, indexRequestWith(t, uuid.New(), topicID, "/v1/topics/"+topicID.String()+"/index",
		map[string]any{"extracted_text": "text"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockIndexer.AssertNotCalled(t, "IndexTopic")
}

func TestIndexHandler_EmptyTextRejected(t *testing.T) {
	mockIndexer := new(MockHandlerIndexer)
	mockTopics := new(MockHandlerTopics)
	h := NewIndexHandler(mockIndexer, mockTopics, new(MockJobEnqueuer))

	institutionID := uuid.New()
	topicID := uuid.New()

	mockTopics.On("GetScope", mock.Anything, topicID).Return(topicScope(topicID, institutionID), nil)
	mockIndexer.On("IndexTopic", mock.Anything, topicID, "").
		Return(nil, domain.ErrEmptyTopicContent)

	rec := httptest.NewRecorder()
	h.Index(rec, indexRequestWith(t, institutionID, topicID, "/v1/topics/"+topicID.String()+"/index",
		map[string]any{"extracted_text": ""}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexHandler_AsyncEnqueues(t *testing.T) {
	mockTopics := new(MockHandlerTopics)
	mockJobs := new(MockJobEnqueuer)
	h := NewIndexHandler(new(MockHandlerIndexer), mockTopics, mockJobs)

	institutionID := uuid.New()
	topicID := uuid.New()

	mockTopics.On("GetScope", mock.Anything, topicID).Return(topicScope(topicID, institutionID), nil)
	mockTopics.On("UpsertContent", mock.Anything, topicID, "new material").Return(nil)
	mockJobs.On("Enqueue", mock.Anything, topicID).Return(&domain.IndexJob{
		ID:      uuid.New(),
		TopicID: topicID,
		Status:  domain.IndexJobStatusPending,
	}, nil)

	rec := httptest.NewRecorder()
	h.IndexAsync(rec, indexRequestWith(t, institutionID, topicID, "/v1/topics/"+topicID.String()+"/index-async",
		map[string]any{"extracted_text": "new material"}))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	mockJobs.AssertExpectations(t)
}

func TestIndexHandler_InvalidTopicID(t *testing.T) {
	h := NewIndexHandler(new(MockHandlerIndexer), new(MockHandlerTopics), new(MockJobEnqueuer))

	raw := []byte(`{"extracted_text":"text"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/topics/abc/index", bytes.NewReader(raw))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("topicID", "abc")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	req = req.WithContext(middleware.WithInstitutionID(ctx, uuid.New()))

	rec := httptest.NewRecorder()
	h.Index(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
