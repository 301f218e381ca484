package http

import (
	"errors"
	"log/slog"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/recurrence"
	"kakeibo/internal/storage"
)

func (s *Server) handleListFixedCosts(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListFixedCosts(r.Context())
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	out := make([]fixedCostResponse, 0, len(list))
	for _, fc := range list {
		out = append(out, newFixedCostResponse(fc))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleCreateFixedCost(w http.ResponseWriter, r *http.Request) {
	var req fixedCostRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.ReflectDate.IsZero() {
		UnprocessableEntityError("reflect_date is only valid when updating").Write(w)
		return
	}

	fc, err := s.ledger.CreateFixedCost(r.Context(), Viewer(r), req.toCore())
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Fixed cost created",
		"id", fc.ID,
		"frequency", fc.Frequency,
		"amount", fc.Amount.Minor)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", location("api", "fixed-costs", fc.ID)).
		JSON(newFixedCostResponse(fc)).
		Write(w)
}

func (s *Server) handleGetFixedCost(w http.ResponseWriter, r *http.Request) {
	fc, err := s.ledger.GetFixedCost(r.Context(), r.PathValue("id"))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(newFixedCostResponse(fc)).Write(w)
}

// handleReviseFixedCost overwrites the definition, or appends a revision when
// reflect_date is set.
func (s *Server) handleReviseFixedCost(w http.ResponseWriter, r *http.Request) {
	var req fixedCostRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	fc, err := s.ledger.ReviseFixedCost(r.Context(), Viewer(r), storage.FixedCostEdit{
		ID:          r.PathValue("id"),
		CategoryID:  sanitizeInput(req.CategoryID),
		Amount:      core.Money{Minor: req.Amount},
		Date:        req.Date,
		Frequency:   req.Frequency,
		ReflectDate: req.ReflectDate,
	})
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Fixed cost revised",
		"id", fc.ID,
		"reflect_date", req.ReflectDate.String(),
		"revisions", len(fc.Revisions))
	NewResponse().JSON(newFixedCostResponse(fc)).Write(w)
}

func (s *Server) handleDeleteFixedCost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteFixedCost(r.Context(), id); err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Fixed cost deleted", "id", id)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleFixedCostOccurrences expands one fixed cost over [from, to], which
// defaults to the current month.
func (s *Server) handleFixedCostOccurrences(w http.ResponseWriter, r *http.Request) {
	win, err := s.window(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	fc, err := s.ledger.GetFixedCost(r.Context(), r.PathValue("id"))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}

	out := []occurrenceResponse{}
	for _, o := range recurrence.Expand(fc, win) {
		if !win.Contains(o.Date) {
			continue
		}
		out = append(out, occurrenceResponse{Date: o.Date, Amount: o.Amount.Minor})
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) window(r *http.Request) (core.Window, error) {
	q := r.URL.Query()
	from, err := ParseDateParam(q, "from")
	if err != nil {
		return core.Window{}, err
	}
	to, err := ParseDateParam(q, "to")
	if err != nil {
		return core.Window{}, err
	}
	today := s.reports.Today()
	if from.IsZero() {
		from = core.NewDate(today.Year, today.Month, 1)
	}
	if to.IsZero() {
		to = core.NewDate(from.Year, from.Month, core.DaysIn(from.Year, from.Month))
	}
	if to.Before(from) {
		return core.Window{}, errors.New("to is before from")
	}
	return core.Window{Start: from, End: to}, nil
}
