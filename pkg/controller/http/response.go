package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/secmon-lab/echonotes/pkg/domain/model"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/secmon-lab/echonotes/pkg/utils/errutil"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

// ErrPayloadTooLarge is returned when a request body is over the configured limit
var ErrPayloadTooLarge = errors.New("payload too large")

type errorBody struct {
	Message string `json:"message"`
}

// envelope wraps every response body with the request ledger snapshot
type envelope struct {
	Data  any                       `json:"data"`
	Error *errorBody                `json:"error,omitempty"`
	Meta  model.RequestMetaSnapshot `json:"meta"`
}

func snapshot(r *http.Request) model.RequestMetaSnapshot {
	if meta := model.RequestMetaFromContext(r.Context()); meta != nil {
		return meta.Snapshot()
	}
	return model.NewRequestMeta("").Snapshot()
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.From(r.Context()).Warn("failed to write response", "error", err)
	}
}

func respond(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, envelope{Data: data, Meta: snapshot(r)})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	errutil.HandleHTTP(r.Context(), err, status)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, r, status, envelope{Error: &errorBody{Message: msg}, Meta: snapshot(r)})
}
