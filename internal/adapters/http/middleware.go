package httpadapter

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"oversight/internal/auth"
	"oversight/internal/domain"
)

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
			"remote":      r.RemoteAddr,
		}).Info("request")
	})
}

// protect requires a valid bearer token and stores the user in the request context.
func (s *Server) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		user, err := s.authn.Authenticate(r.Context(), token)
		if err != nil {
			s.writeEnvelopeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// authorize admits only users holding one of roles.
func (s *Server) authorize(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.HasRole(r.Context(), roles...) {
				u, _ := auth.UserFromContext(r.Context())
				s.writeEnvelopeError(w, r, domain.Forbidden(fmt.Sprintf("role %q is not allowed to access this route", u.Role)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor is the authenticated user; protect guarantees it is set.
func actor(r *http.Request) domain.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}
