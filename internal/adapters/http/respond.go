package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// envelope is the {success, data} shape used by the enterprise and report routes.
func envelope(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing message and status for err.
func (s *Server) errorMessage(r *http.Request, err error) (int, string) {
	status := statusFor(domain.KindOf(err))
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		if s.development() {
			return status, err.Error()
		}
		return status, "internal server error"
	}
	var appErr *domain.Error
	if errors.As(err, &appErr) {
		return status, appErr.Message
	}
	return status, err.Error()
}

// writeError answers with {"message"}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := s.errorMessage(r, err)
	writeJSON(w, status, map[string]any{"message": msg})
}

// writeEnvelopeError answers with {"success": false, "message"}.
func (s *Server) writeEnvelopeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := s.errorMessage(r, err)
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is required")
		}
		return domain.Validation("invalid JSON body: %v", err)
	}
	return nil
}
