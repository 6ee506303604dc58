package http

import (
	"log/slog"
	"net/http"
	"time"

	"budgetfriendly/internal/core"
)

type ratiosJSON struct {
	Essentials int `json:"essentials"`
	Wants      int `json:"wants"`
	Savings    int `json:"savings"`
}

type budgetRequest struct {
	Name   string      `json:"name"`
	Ratios *ratiosJSON `json:"ratios,omitempty"`
	Color  string      `json:"color,omitempty"`
}

type budgetResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Ratios    ratiosJSON `json:"ratios"`
	Color     string     `json:"color,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:   b.ID,
		Name: b.Name,
		Ratios: ratiosJSON{
			Essentials: b.Ratios.Essentials,
			Wants:      b.Ratios.Wants,
			Savings:    b.Ratios.Savings,
		},
		Color:     b.Color,
		CreatedAt: b.CreatedAt,
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	b := core.Budget{
		UserID: userID(r),
		Name:   sanitizeInput(req.Name),
		Ratios: core.DefaultRatios(),
		Color:  sanitizeInput(req.Color),
	}
	if req.Ratios != nil {
		b.Ratios = core.Ratios{
			Essentials: req.Ratios.Essentials,
			Wants:      req.Ratios.Wants,
			Savings:    req.Ratios.Savings,
		}
	}
	if err := b.Validate(); err != nil {
		writeUnprocessable(w, err)
		return
	}

	created, err := s.store.CreateBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Budget created",
		"budget_id", created.ID,
		"user_id", created.UserID)
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBudget(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	existing, err := s.store.GetBudget(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if req.Name != "" {
		existing.Name = sanitizeInput(req.Name)
	}
	if req.Color != "" {
		existing.Color = sanitizeInput(req.Color)
	}
	if req.Ratios != nil {
		existing.Ratios = core.Ratios{
			Essentials: req.Ratios.Essentials,
			Wants:      req.Ratios.Wants,
			Savings:    req.Ratios.Savings,
		}
	}
	if err := existing.Validate(); err != nil {
		writeUnprocessable(w, err)
		return
	}

	if err := s.store.UpdateBudget(r.Context(), existing); err != nil {
		writeError(w, r, err)
		return
	}

	// Ratio changes shift plan targets.
	s.invalidateDerived(uid)
	writeJSON(w, http.StatusOK, toBudgetResponse(existing))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := r.PathValue("id")

	if err := s.store.DeleteBudget(r.Context(), uid, id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateDerived(uid)
	slog.InfoContext(r.Context(), "Budget deleted", "budget_id", id, "user_id", uid)
	w.WriteHeader(http.StatusNoContent)
}
