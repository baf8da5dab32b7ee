package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"oversight/internal/domain"
)

func (s *Server) adminRoutes(r chi.Router) {
	r.Use(s.authorize(domain.RoleAdmin))
	r.Get("/dashboard", s.dashboard)
	r.Get("/activity", s.activity)
}

func (s *Server) reportRoutes(r chi.Router) {
	r.Get("/types", s.reportTypes)
	r.With(s.authorize(domain.RoleAdmin, domain.RoleInspector)).Post("/", s.generateReport)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Admin.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) activity(w http.ResponseWriter, r *http.Request) {
	// The service applies the default and the cap.
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Admin.Activity(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reportTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope(s.svc.Reports.Types()))
}

type reportRequest struct {
	Type      string              `json:"type"`
	Format    string              `json:"format"`
	DateDebut *openapi_types.Date `json:"dateDebut"`
	DateFin   *openapi_types.Date `json:"dateFin"`
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	in := domain.ReportRequest{Type: req.Type, Format: req.Format}
	if req.DateDebut != nil {
		in.From = req.DateDebut.Time
	}
	if req.DateFin != nil {
		in.To = req.DateFin.Time
	}
	report, err := s.svc.Reports.Generate(r.Context(), in)
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Data)
}
