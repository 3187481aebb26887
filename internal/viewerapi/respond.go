package viewerapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"folio/internal/comic"
	"folio/internal/logging"
	"folio/internal/pagestream"
)

var errSessionNotFound = errors.New("session not found")

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

// writeFailure maps domain errors onto HTTP statuses, carrying the
// human-readable remediation in the body.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: err.Error()}
	switch {
	case errors.Is(err, errSessionNotFound):
	case status < http.StatusInternalServerError || errors.Is(err, comic.ErrDecodeFailed):
		body.Message = comic.UserMessage(err)
	}
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound), errors.Is(err, comic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, comic.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, comic.ErrInvalidFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, comic.ErrNoPages):
		return http.StatusUnprocessableEntity
	case errors.Is(err, comic.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, pagestream.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
