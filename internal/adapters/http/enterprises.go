package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oversight/internal/domain"
)

func (s *Server) enterpriseRoutes(r chi.Router) {
	r.Get("/{id}", s.getEnterprise)
	r.With(s.authorize(domain.RoleAdmin)).Post("/", s.createEnterprise)
	r.Put("/{id}", s.updateEnterprise)
	r.With(s.authorize(domain.RoleAdmin)).Delete("/{id}", s.deleteEnterprise)
}

func (s *Server) getEnterprise(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	e, err := s.svc.Enterprises.Get(r.Context(), id)
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createEnterprise(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	e, err := s.svc.Enterprises.Create(r.Context(), body)
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope(e))
}

// updateEnterprise lets admins edit any enterprise and users only their own.
func (s *Server) updateEnterprise(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	if u := actor(r); u.Role == domain.RoleUser && (u.EnterpriseID == nil || *u.EnterpriseID != id) {
		s.writeEnvelopeError(w, r, domain.Forbidden("not allowed to modify this enterprise"))
		return
	}
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	e, err := s.svc.Enterprises.Update(r.Context(), id, body)
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(e))
}

func (s *Server) deleteEnterprise(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	if err := s.svc.Enterprises.Delete(r.Context(), id); err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(map[string]any{}))
}
