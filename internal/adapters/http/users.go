package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"oversight/internal/domain"
)

func (s *Server) userRoutes(r chi.Router) {
	r.With(s.authorize(domain.RoleAdmin)).Get("/", s.listUsers)
	r.With(s.authorize(domain.RoleAdmin)).Post("/", s.createUser)
	r.Get("/{id}", s.getUser)
	r.Put("/{id}", s.updateUser)
	r.With(s.authorize(domain.RoleAdmin)).Delete("/{id}", s.deactivateUser)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Users.List(r.Context())
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(list), "data": list})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	u, err := s.svc.Users.Create(r.Context(), in)
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope(u))
}

// getUser lets admins read any account and everyone else only their own.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	if u := actor(r); u.Role != domain.RoleAdmin && u.ID != id {
		s.writeEnvelopeError(w, r, domain.Forbidden("not allowed to read this account"))
		return
	}
	u, err := s.svc.Users.Get(r.Context(), id)
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(u))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	s.applyUserUpdate(w, r, id)
}

func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	u, err := s.svc.Users.Deactivate(r.Context(), id, actor(r))
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(u))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope(actor(r)))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	s.applyUserUpdate(w, r, actor(r).ID)
}

func (s *Server) applyUserUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var in domain.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	u, err := s.svc.Users.Update(r.Context(), id, in, actor(r))
	if err != nil {
		s.writeEnvelopeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(u))
}
