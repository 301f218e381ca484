package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, newCategoryResponse(c))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	c, err := s.ledger.CreateCategory(r.Context(), Viewer(r), req.toCore(""))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Category created", "id", c.ID, "name", c.Name, "ratio", c.Ratio)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", location("api", "categories", c.ID)).
		JSON(newCategoryResponse(c)).
		Write(w)
}

// handleUpdateCategory renames a category or changes its ratio. Records
// reference categories by id, so history follows the rename.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	c, err := s.ledger.UpdateCategory(r.Context(), req.toCore(r.PathValue("id")))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(newCategoryResponse(c)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Category deleted", "id", id)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.ReorderCategories(r.Context(), req.IDs); err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
