// Package handlers holds the HTTP handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/api"
	"github.com/syllabiq/syllabiq/internal/api/middleware"
	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/pool"
	"github.com/syllabiq/syllabiq/internal/service"
)

// Pipeline is the query surface the handler needs.
type Pipeline interface {
	Run(ctx context.Context, in service.QueryInput) (*service.QueryOutput, error)
}

// QueryHandler serves POST /v1/query.
type QueryHandler struct {
	pipeline Pipeline
	pool     *pool.Pool
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(pipeline Pipeline, p *pool.Pool) *QueryHandler {
	return &QueryHandler{pipeline: pipeline, pool: p}
}

type queryRequest struct {
	Query       string `json:"query"`
	Workflow    string `json:"workflow,omitempty"`
	Marks       int    `json:"marks,omitempty"`
	Format      string `json:"format,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
	CourseID    string `json:"course_id,omitempty"`
	TopicFilter string `json:"topic_filter,omitempty"`
}

// Submit handles one query. Refusals are 200s with the refusal payload;
// only upstream and configuration failures become error statuses. The pool
// bounds concurrent pipelines: saturation returns 503.
func (h *QueryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	institutionID, ok := middleware.GetInstitutionID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing institution scope")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}
	if req.Query == "" {
		api.DomainError(w, domain.ErrEmptyQuery)
		return
	}

	in := service.QueryInput{
		InstitutionID: institutionID,
		Query:         req.Query,
		WorkflowHint:  req.Workflow,
		Marks:         req.Marks,
		Format:        req.Format,
		TopK:          req.TopK,
	}
	var err error
	if in.SubjectID, err = parseOptionalUUID(req.SubjectID); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid subject_id")
		return
	}
	if in.CourseID, err = parseOptionalUUID(req.CourseID); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid course_id")
		return
	}
	if in.TopicID, err = parseOptionalUUID(req.TopicFilter); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid topic_filter")
		return
	}

	type result struct {
		out *service.QueryOutput
		err error
	}
	done := make(chan result, 1)
	submitErr := h.pool.Submit(func() {
		out, runErr := h.pipeline.Run(r.Context(), in)
		done <- result{out: out, err: runErr}
	})
	if errors.Is(submitErr, pool.ErrOverloaded) {
		api.Error(w, http.StatusServiceUnavailable, domain.ErrCodeUpstream, "server is at capacity, retry later")
		return
	}
	if submitErr != nil {
		api.DomainError(w, submitErr)
		return
	}

	select {
	case res := <-done:
		if res.err != nil {
			api.DomainError(w, res.err)
			return
		}
		api.Success(w, http.StatusOK, res.out)
	case <-r.Context().Done():
		// The pipeline observes the same context and unwinds on its own.
	}
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
