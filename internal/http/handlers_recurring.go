package http

import (
	"log/slog"
	"net/http"

	"budgetfriendly/internal/core"
)

type recurringRequest struct {
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date,omitempty"`
	Every       string `json:"every"` // daily, weekly, monthly, yearly
	Description string `json:"description"`
	Amount      string `json:"amount,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Category    string `json:"category"`
}

type recurringResponse struct {
	ID          int64  `json:"id"`
	BudgetID    string `json:"budget_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Every       string `json:"every"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
}

func toRecurringResponse(rt core.RecurringTransaction) recurringResponse {
	resp := recurringResponse{
		ID:          rt.ID,
		BudgetID:    rt.BudgetID,
		StartDate:   rt.StartDate.Format("2006-01-02"),
		Every:       string(rt.Every),
		Description: rt.Description,
		AmountCents: rt.Amount.Cents,
		Category:    rt.Category,
	}
	if !rt.EndDate.IsEmpty() {
		resp.EndDate = rt.EndDate.Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	budgetID := r.PathValue("id")

	if _, err := s.store.GetBudget(r.Context(), uid, budgetID); err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := s.store.ListRecurring(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]recurringResponse, 0)
	for _, e := range entries {
		if e.UserID == uid && e.BudgetID == budgetID {
			out = append(out, toRecurringResponse(e.RecurringTransaction))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	var endDate core.Date
	if req.EndDate != "" {
		endDate, err = parseDate(req.EndDate)
		if err != nil {
			writeBadRequest(w, "invalid end_date, expected YYYY-MM-DD")
			return
		}
	}

	var amount core.Money
	if req.Amount != "" {
		cents, err := core.ParseDecimalToCents(req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		amount = core.Money{Cents: cents}
	} else {
		amount = core.Money{Cents: req.AmountCents}
	}

	rt := core.RecurringTransaction{
		BudgetID:    r.PathValue("id"),
		StartDate:   startDate,
		EndDate:     endDate,
		Every:       core.RepetitionTypes(sanitizeInput(req.Every)),
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
	}
	if err := rt.Validate(); err != nil {
		writeUnprocessable(w, err)
		return
	}

	created, err := s.store.CreateRecurring(r.Context(), uid, rt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Recurring transaction created",
		"recurring_id", created.ID,
		"budget_id", created.BudgetID,
		"every", string(created.Every))
	writeJSON(w, http.StatusCreated, toRecurringResponse(created))
}
