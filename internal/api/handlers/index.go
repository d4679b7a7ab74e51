package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/api"
	"github.com/syllabiq/syllabiq/internal/api/middleware"
	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/service"
)

// Indexer is the indexing surface the handler needs.
type Indexer interface {
	IndexTopic(ctx context.Context, topicID uuid.UUID, extractedText string) (*service.IndexResult, error)
}

// TopicStore resolves topic ownership and stores extracted text.
type TopicStore interface {
	GetScope(ctx context.Context, topicID uuid.UUID) (*domain.TopicScope, error)
	UpsertContent(ctx context.Context, topicID uuid.UUID, text string) error
}

// JobEnqueuer queues asynchronous index work.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, topicID uuid.UUID) (*domain.IndexJob, error)
}

// IndexHandler serves the topic index endpoints.
type IndexHandler struct {
	indexer Indexer
	topics  TopicStore
	jobs    JobEnqueuer
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(indexer Indexer, topics TopicStore, jobs JobEnqueuer) *IndexHandler {
	return &IndexHandler{indexer: indexer, topics: topics, jobs: jobs}
}

type indexRequest struct {
	ExtractedText string `json:"extracted_text"`
}

// Index handles POST /v1/topics/{topicID}/index synchronously.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	topicID, ok := h.authorizeTopic(w, r)
	if !ok {
		return
	}

	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	result, err := h.indexer.IndexTopic(r.Context(), topicID, req.ExtractedText)
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// IndexAsync handles POST /v1/topics/{topicID}/index-async. The text is
// stored and a job is queued; the worker picks it up.
func (h *IndexHandler) IndexAsync(w http.ResponseWriter, r *http.Request) {
	topicID, ok := h.authorizeTopic(w, r)
	if !ok {
		return
	}

	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}
	if req.ExtractedText == "" {
		api.DomainError(w, domain.ErrEmptyTopicContent)
		return
	}

	if err := h.topics.UpsertContent(r.Context(), topicID, req.ExtractedText); err != nil {
		api.DomainError(w, err)
		return
	}

	job, err := h.jobs.Enqueue(r.Context(), topicID)
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"topic_id": job.TopicID,
		"status":   job.Status,
	})
}

// authorizeTopic parses the topic ID and verifies it belongs to the
// authenticated institution. Cross-tenant topics report not-found, never
// their existence.
func (h *IndexHandler) authorizeTopic(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	institutionID, ok := middleware.GetInstitutionID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing institution scope")
		return uuid.Nil, false
	}
	topicID, err := uuid.Parse(chi.URLParam(r, "topicID"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid topic id")
		return uuid.Nil, false
	}
	scope, err := h.topics.GetScope(r.Context(), topicID)
	if err != nil {
		api.DomainError(w, err)
		return uuid.Nil, false
	}
	if scope.InstitutionID != institutionID {
		api.DomainError(w, domain.ErrTopicNotFound)
		return uuid.Nil, false
	}
	return topicID, true
}
