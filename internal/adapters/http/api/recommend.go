package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
)

// recommendRequest is the body of POST /recommend.
type recommendRequest struct {
	Skills   []string `json:"skills" validate:"required,min=1,max=64,dive,max=128"`
	Budget   *float64 `json:"budget" validate:"omitempty,gte=0"`
	Timeline string   `json:"timeline" validate:"max=64"`
	ClientID string   `json:"client_id" validate:"max=128"`
	Filter   string   `json:"filter" validate:"max=1024"`
}

func (r recommendRequest) query() model.Query {
	return model.Query{
		Skills:   r.Skills,
		Budget:   r.Budget,
		Timeline: r.Timeline,
		ClientID: r.ClientID,
		Filter:   r.Filter,
	}
}

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	deps Recommender
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps Recommender) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandleRecommend handles POST /recommend requests.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"
	var req recommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, "query_error", WrapKind(op, scoring.ErrQuery, err))
		return
	}

	res, err := h.deps.Recommend(r.Context(), req.query())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, scoring.ErrQuery):
		writeError(w, http.StatusBadRequest, "query_error", Wrap(op, err))
	case errors.Is(err, scoring.ErrModelNotReady):
		writeError(w, http.StatusServiceUnavailable, "model_not_ready", Wrap(op, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "timeout", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
