package httpadapter

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"oversight/internal/domain"
)

func (s *Server) visitRoutes(r chi.Router) {
	r.Post("/request", s.requestVisit)
	r.With(s.authorize(domain.RoleInspector)).Get("/inspector/my-visits", s.myVisits)
	r.Get("/enterprise/{enterpriseId}", s.listVisits)
	r.Get("/enterprise/{enterpriseId}/upcoming", s.upcomingVisits)
	r.Get("/enterprise/{enterpriseId}/past", s.pastVisits)
	r.Get("/{id}", s.getVisit)
	r.Put("/{id}/cancel", s.cancelVisit)
	r.Post("/{id}/report", s.reportVisit)
	r.With(s.authorize(domain.RoleAdmin)).Put("/{id}/assign-inspector", s.assignInspector)
	r.Put("/{id}/status", s.updateVisitStatus)
}

func (s *Server) requestVisit(w http.ResponseWriter, r *http.Request) {
	var in domain.VisitRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.svc.Visits.Request(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) myVisits(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Visits.ListForInspector(r.Context(), actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listVisits(w http.ResponseWriter, r *http.Request) {
	s.visitList(w, r, s.svc.Visits.ListByEnterprise)
}

func (s *Server) upcomingVisits(w http.ResponseWriter, r *http.Request) {
	s.visitList(w, r, s.svc.Visits.Upcoming)
}

func (s *Server) pastVisits(w http.ResponseWriter, r *http.Request) {
	s.visitList(w, r, s.svc.Visits.Past)
}

func (s *Server) visitList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error)) {
	enterpriseID, err := pathUUID(r, "enterpriseId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := list(r.Context(), enterpriseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getVisit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.svc.Visits.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) cancelVisit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.svc.Visits.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) reportVisit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in domain.VisitReportInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.svc.Visits.Report(r.Context(), id, in, actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) assignInspector(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		InspectorID string `json:"inspectorId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	inspectorID, err := parseUUIDField("inspectorId", req.InspectorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.svc.Visits.AssignInspector(r.Context(), id, inspectorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateVisitStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.svc.Visits.UpdateStatus(r.Context(), id, domain.VisitStatus(req.Status), actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
