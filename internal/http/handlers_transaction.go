package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"budgetfriendly/internal/core"
)

type transactionRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
	Amount      string `json:"amount,omitempty"` // decimal string, e.g. "-12.34"
	AmountCents int64  `json:"amount_cents,omitempty"`
	Category    string `json:"category"`
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	BudgetID    string `json:"budget_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Position    int    `json:"position"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

type moveRequest struct {
	BudgetID string `json:"budget_id"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		BudgetID:    t.BudgetID,
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Position:    t.Position,
	}
}

// amountFromRequest accepts either a decimal string or raw cents.
func amountFromRequest(req transactionRequest) (core.Money, error) {
	if req.Amount != "" {
		cents, err := core.ParseDecimalToCents(req.Amount)
		if err != nil {
			return core.Money{}, err
		}
		return core.Money{Cents: cents}, nil
	}
	return core.Money{Cents: req.AmountCents}, nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeBadRequest(w, "invalid date, expected YYYY-MM-DD")
		return
	}
	amount, err := amountFromRequest(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx := core.Transaction{
		BudgetID:    r.PathValue("id"),
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
	}
	if err := tx.Validate(); err != nil {
		writeUnprocessable(w, err)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), uid, tx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateDerived(uid)
	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", created.ID,
		"budget_id", created.BudgetID,
		"amount_cents", created.Amount.Cents)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	tx, err := s.store.GetTransaction(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	existing, err := s.store.GetTransaction(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeBadRequest(w, "invalid date, expected YYYY-MM-DD")
			return
		}
		existing.Date = date
	}
	if req.Description != "" {
		existing.Description = sanitizeInput(req.Description)
	}
	if req.Category != "" {
		existing.Category = sanitizeInput(req.Category)
	}
	if req.Amount != "" || req.AmountCents != 0 {
		amount, err := amountFromRequest(req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		existing.Amount = amount
	}
	if err := existing.Validate(); err != nil {
		writeUnprocessable(w, err)
		return
	}

	if err := s.store.UpdateTransaction(r.Context(), uid, existing); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateDerived(uid)
	writeJSON(w, http.StatusOK, toTransactionResponse(existing))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), uid, id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateDerived(uid)
	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id, "user_id", uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderTransactions(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	budgetID := r.PathValue("id")

	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeBadRequest(w, "ids must not be empty")
		return
	}

	if err := s.store.ReorderTransactions(r.Context(), uid, budgetID, req.IDs); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.BudgetID == "" {
		writeBadRequest(w, "budget_id is required")
		return
	}

	if err := s.store.MoveTransaction(r.Context(), uid, id, req.BudgetID); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateDerived(uid)
	tx, err := s.store.GetTransaction(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}
