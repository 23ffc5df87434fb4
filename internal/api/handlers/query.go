package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cloo-solutions/ragserve/internal/api"
	"github.com/cloo-solutions/ragserve/internal/api/middleware"
	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/service"
	"github.com/cloo-solutions/ragserve/internal/telemetry"
)

type QueryService interface {
	Answer(ctx context.Context, in service.QueryInput) (*service.QueryOutput, error)
}

type QueryHandler struct {
	svc QueryService
}

func NewQueryHandler(svc QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Query string `json:"query"`
}

type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Query handles POST /query. A body that cannot be decoded is treated the
// same as a missing query, except one cut off by the body limit.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, api.BodyTooLargeMessage)
			return
		}
		api.HandleError(w, domain.ErrQueryMissing)
		return
	}

	out, err := h.svc.Answer(r.Context(), service.QueryInput{
		Query:     req.Query,
		RequestID: middleware.GetRequestID(r.Context()),
	})
	if err != nil {
		if api.DomainErrorToHTTP(err) >= http.StatusInternalServerError {
			log.Printf("query failed (request_id=%s): %v", middleware.GetRequestID(r.Context()), err)
			telemetry.CaptureError(r.Context(), err)
		}
		api.HandleError(w, err)
		return
	}

	sources := out.Sources
	if sources == nil {
		sources = []string{}
	}

	api.JSON(w, http.StatusOK, QueryResponse{
		Answer:  out.Answer,
		Sources: sources,
	})
}
