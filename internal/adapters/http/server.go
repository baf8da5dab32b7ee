// Package httpadapter exposes the services as a JSON REST API under /api.
package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

// Services groups the application services the router dispatches to.
type Services struct {
	Conventions ports.Conventions
	Enterprises ports.Enterprises
	Documents   ports.Documents
	Indicators  ports.Indicators
	Visits      ports.Visits
	Admin       ports.Admin
	Reports     ports.Reports
	Users       ports.Users
}

// Authenticator resolves a bearer token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type Options struct {
	// Env "development" adds error details to 500 responses.
	Env         string
	CORSOrigins []string
	Log         logrus.FieldLogger
	// Realtime serves /ws when set.
	Realtime http.Handler
	Now      func() time.Time
}

type Server struct {
	svc   Services
	authn Authenticator
	opts  Options
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(svc Services, authn Authenticator, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{svc: svc, authn: authn, opts: opts, log: opts.Log.WithField("component", "http"), now: opts.Now}
}

func (s *Server) development() bool { return s.opts.Env == "development" }

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.accessLog, middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "If-Match"},
		ExposedHeaders: []string{"Content-Disposition", "ETag"},
	}).Handler)

	if s.opts.Realtime != nil {
		r.Method(http.MethodGet, "/ws", s.opts.Realtime)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Group(func(r chi.Router) {
			r.Use(s.protect)
			r.Route("/conventions", s.conventionRoutes)
			r.Route("/entreprises", s.enterpriseRoutes)
			r.Route("/documents", s.documentRoutes)
			r.Route("/kpis", s.indicatorRoutes)
			r.Route("/visites", s.visitRoutes)
			r.Route("/admin", s.adminRoutes)
			r.Route("/reports", s.reportRoutes)
			r.Route("/users", s.userRoutes)
			r.Get("/auth/moi", s.getProfile)
			r.Put("/auth/moi", s.updateProfile)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "timestamp": s.now().UTC()})
}
