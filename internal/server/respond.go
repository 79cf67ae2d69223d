package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/schematiq/schematiq/pkg/errors"
)

func now() time.Time { return time.Now() }

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps structured error codes to HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRecord,
		errors.ErrCodeInvalidDirection, errors.ErrCodeInvalidLayout,
		errors.ErrCodeInvalidSpacing, errors.ErrCodeInvalidZoom:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeContainerNotFound,
		errors.ErrCodeSessionNotFound, errors.ErrCodeDiagramNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	case errors.ErrCodeSolverUnavailable:
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}
