package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"logsearch/internal/domain"
)

// httpStatusFromError maps domain errors to HTTP status codes. A backend
// failure surfaces as 502 so callers can tell local faults from upstream
// ones.
func httpStatusFromError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var upstream *domain.UpstreamError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage picks the user-facing message for an error. Upstream errors
// go through the static code table so raw backend detail never leaks.
func errorMessage(err error) string {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Friendly()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromError(err)
	writeJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": errorMessage(err),
	})
}
