package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"oversight/internal/domain"
)

func (s *Server) documentRoutes(r chi.Router) {
	r.Get("/types", s.documentTypes)
	r.Get("/company/{companyId}", s.listDocuments)
	r.Post("/company/{companyId}", s.registerDocument)
	r.With(s.authorize(domain.RoleInspector, domain.RoleAdmin)).Put("/{id}/validate", s.validateDocument)
	r.Delete("/{id}", s.deleteDocument)
}

func (s *Server) documentTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Documents.Types())
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	enterpriseID, err := pathUUID(r, "companyId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Documents.ListByEnterprise(r.Context(), enterpriseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) registerDocument(w http.ResponseWriter, r *http.Request) {
	enterpriseID, err := pathUUID(r, "companyId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in domain.DocumentInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.svc.Documents.Register(r.Context(), enterpriseID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) validateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var review domain.Review
	if err := decodeJSON(w, r, &review); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.svc.Documents.Validate(r.Context(), id, review, actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Documents.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "document deleted"})
}
