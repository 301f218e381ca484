package http

import (
	"log/slog"
	"net/http"

	"kakeibo/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := ParseDateParam(q, "from")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	to, err := ParseDateParam(q, "to")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	filter := storage.TransactionFilter{From: from, To: to, UserID: sanitizeInput(q.Get("user_id"))}

	list, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, newTransactionResponse(t))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	t, err := s.ledger.CreateTransaction(r.Context(), Viewer(r), req.toCore(""))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Transaction created",
		"id", t.ID,
		"kind", t.Kind,
		"category_id", t.CategoryID,
		"amount", t.Amount.Minor)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", location("api", "transactions", t.ID)).
		JSON(newTransactionResponse(t)).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(newTransactionResponse(t)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	t, err := s.ledger.UpdateTransaction(r.Context(), Viewer(r), req.toCore(r.PathValue("id")))
	if err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(newTransactionResponse(t)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		ServiceError(r, err).Write(w)
		return
	}
	slog.InfoContext(r.Context(), "Transaction deleted", "id", id)
	NewResponse().Status(http.StatusNoContent).Write(w)
}
