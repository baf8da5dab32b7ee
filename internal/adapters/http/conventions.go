package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"oversight/internal/domain"
)

func (s *Server) conventionRoutes(r chi.Router) {
	r.Post("/", s.createConvention)
	r.Get("/enterprise/{enterpriseId}", s.listConventions)
	r.Get("/enterprise/{enterpriseId}/active", s.listActiveConventions)
	r.Put("/{id}", s.updateConvention)
	r.Patch("/{id}/status", s.updateConventionStatus)
	r.Post("/{id}/documents", s.addConventionDocument)
	r.Get("/{id}/history", s.conventionHistory)
	r.Get("/{id}/summary", s.conventionSummary)
}

type createConventionRequest struct {
	EnterpriseID string `json:"enterpriseId"`
	SignedDate   string `json:"signedDate"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Type         string `json:"type"`
	Advantages   any    `json:"advantages"`
	Obligations  any    `json:"obligations"`
	Status       string `json:"status"`
}

func (req createConventionRequest) input() (domain.ConventionInput, error) {
	in := domain.ConventionInput{
		Type:        req.Type,
		Advantages:  req.Advantages,
		Obligations: req.Obligations,
		Status:      normalizeStatus(req.Status),
	}
	if strings.TrimSpace(req.EnterpriseID) == "" {
		return in, domain.Validation("enterpriseId is required")
	}
	id, err := parseUUIDField("enterpriseId", req.EnterpriseID)
	if err != nil {
		return in, err
	}
	in.EnterpriseID = id
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"signedDate", req.SignedDate, &in.SignedDate},
		{"startDate", req.StartDate, &in.StartDate},
		{"endDate", req.EndDate, &in.EndDate},
	} {
		if d.raw == "" {
			continue
		}
		t, err := domain.ParseDate(d.raw)
		if err != nil {
			return in, domain.Validation("invalid %s: %v", d.name, err)
		}
		*d.dst = t
	}
	return in, nil
}

// writeConvention answers with the entity and its version as ETag.
// normalizeStatus accepts statuses in any case, e.g. "active".
func normalizeStatus(raw string) domain.Status {
	return domain.Status(strings.ToUpper(strings.TrimSpace(raw)))
}

func writeConvention(w http.ResponseWriter, status int, c domain.Convention) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(c.Version, 10)))
	writeJSON(w, status, c)
}

func (s *Server) createConvention(w http.ResponseWriter, r *http.Request) {
	var req createConventionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Conventions.Create(r.Context(), in, actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeConvention(w, http.StatusCreated, c)
}

func (s *Server) listConventions(w http.ResponseWriter, r *http.Request) {
	enterpriseID, err := pathUUID(r, "enterpriseId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Conventions.ListByEnterprise(r.Context(), enterpriseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listActiveConventions(w http.ResponseWriter, r *http.Request) {
	enterpriseID, err := pathUUID(r, "enterpriseId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Conventions.ListActive(r.Context(), enterpriseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateConvention(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var fields map[string]json.RawMessage
	if err := decodeJSON(w, r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Conventions.Update(r.Context(), id, fields, actor(r).ID, version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeConvention(w, http.StatusOK, c)
}

func (s *Server) updateConventionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	version, err := ifMatch(r)
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
	c, err := s.svc.Conventions.UpdateStatus(r.Context(), id, normalizeStatus(req.Status), actor(r).ID, version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeConvention(w, http.StatusOK, c)
}

func (s *Server) addConventionDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		DocumentID string `json:"documentId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	documentID, err := parseUUIDField("documentId", req.DocumentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Conventions.AddDocument(r.Context(), id, documentID, actor(r).ID, version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeConvention(w, http.StatusOK, c)
}

func (s *Server) conventionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Conventions.GetHistory(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) conventionSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Conventions.GetSummary(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
