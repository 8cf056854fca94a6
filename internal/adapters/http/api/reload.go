package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/model"
)

// reloadRequest is the body of POST /admin/reload. Empty paths fall back to
// the configured sources.
type reloadRequest struct {
	FreelancersPath  string `json:"freelancers_path" validate:"max=4096"`
	InteractionsPath string `json:"interactions_path" validate:"max=4096"`
}

type reloadResponse struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	FittedAt     time.Time `json:"fitted_at"`
	Freelancers  int       `json:"freelancers"`
	Interactions int       `json:"interactions"`
	Clients      int       `json:"clients"`
	Vocabulary   int       `json:"vocabulary"`
}

// ReloadHandler handles snapshot reload requests.
type ReloadHandler struct {
	deps Reloader
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps Reloader) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

// HandleReload handles POST /admin/reload requests.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	var req reloadRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	info, err := h.deps.Reload(r.Context(), model.Sources{
		FreelancersPath:  strings.TrimSpace(req.FreelancersPath),
		InteractionsPath: strings.TrimSpace(req.InteractionsPath),
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, reloadResponse{
			Status:       "reloaded",
			Version:      info.Version,
			FittedAt:     info.FittedAt,
			Freelancers:  info.Freelancers,
			Interactions: info.Interactions,
			Clients:      info.Clients,
			Vocabulary:   info.Vocabulary,
		})
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, dataset.ErrDataLoad):
		writeError(w, http.StatusUnprocessableEntity, "data_load_error", Wrap(op, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "timeout", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// requireAdmin checks the bearer token when one is configured.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind("api.admin", ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}
