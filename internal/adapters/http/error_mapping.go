package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

const notIngestedMessage = "resume corpus is not ingested; run `resumectl ingest` first"

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsConfigurationError(err):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and a client-safe message. Internal
// failures are logged with the request id and not echoed back.
func writeError(w http.ResponseWriter, r *http.Request, err error) int {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	switch {
	case domain.IsConfigurationError(err):
		message = notIngestedMessage
	case status >= http.StatusInternalServerError:
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
	return status
}
