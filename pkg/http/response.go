package http

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "carrental/pkg/errors"
)

// ErrorEnvelope is the uniform error shape for every non-2xx response.
// Detail carries the diagnostic cause chain and is only populated outside
// production.
type ErrorEnvelope struct {
	Path      string         `json:"path"`
	Timestamp time.Time      `json:"timestamp"`
	Status    int            `json:"status"`
	Error     string         `json:"error"`
	Details   map[string]any `json:"details,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, r *http.Request, err error, includeDetail bool) error {
	appErr := apperrors.AsAppError(err)

	envelope := ErrorEnvelope{
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
		Status:    appErr.HTTPStatus,
		Error:     appErr.Message,
		Details:   appErr.Details,
	}
	if includeDetail && appErr.Err != nil {
		envelope.Detail = appErr.Err.Error()
	}

	return WriteJSON(w, appErr.HTTPStatus, envelope)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}
