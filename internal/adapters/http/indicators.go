package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"oversight/internal/domain"
)

func (s *Server) indicatorRoutes(r chi.Router) {
	r.With(s.authorize(domain.RoleAdmin, domain.RoleInspector)).Post("/", s.createIndicator)
	r.Get("/enterprise/{enterpriseId}", s.listIndicators)
	r.Get("/enterprise/{enterpriseId}/overview", s.indicatorOverview)
	r.Post("/{kpiId}/submit", s.submitIndicator)
	r.With(s.authorize(domain.RoleInspector, domain.RoleAdmin)).Put("/{kpiId}/submissions/{submissionId}", s.reviewSubmission)
	r.Get("/{kpiId}/history", s.indicatorHistory)
}

func (s *Server) createIndicator(w http.ResponseWriter, r *http.Request) {
	var in domain.IndicatorInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ind, err := s.svc.Indicators.Create(r.Context(), in, actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ind)
}

func (s *Server) listIndicators(w http.ResponseWriter, r *http.Request) {
	enterpriseID, err := pathUUID(r, "enterpriseId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Indicators.ListByEnterprise(r.Context(), enterpriseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) indicatorOverview(w http.ResponseWriter, r *http.Request) {
	enterpriseID, err := pathUUID(r, "enterpriseId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Indicators.Overview(r.Context(), enterpriseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submitIndicator(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "kpiId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in domain.SubmissionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ind, err := s.svc.Indicators.Submit(r.Context(), id, in, actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ind)
}

func (s *Server) reviewSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "kpiId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	submissionID, err := pathUUID(r, "submissionId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var review domain.Review
	if err := decodeJSON(w, r, &review); err != nil {
		s.writeError(w, r, err)
		return
	}
	ind, err := s.svc.Indicators.ReviewSubmission(r.Context(), id, submissionID, review, actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

func (s *Server) indicatorHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "kpiId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Indicators.History(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
