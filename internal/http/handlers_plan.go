package http

import (
	"context"
	"log/slog"
	"net/http"

	"budgetfriendly/internal/core"
)

type categoryAmountJSON struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type summaryResponse struct {
	IncomeCents        int64                `json:"income_cents"`
	Income             string               `json:"income"`
	ByCategory         []categoryAmountJSON `json:"by_category"`
	TotalExpensesCents int64                `json:"total_expenses_cents"`
}

type bucketPlanJSON struct {
	Name        string `json:"name"`
	Ratio       int    `json:"ratio"`
	TargetCents int64  `json:"target_cents"`
	ActualCents int64  `json:"actual_cents"`
	DeltaCents  int64  `json:"delta_cents"`
	Overspent   bool   `json:"overspent"`
}

type planResponse struct {
	IncomeCents int64            `json:"income_cents"`
	Buckets     []bucketPlanJSON `json:"buckets"`
	OtherCents  int64            `json:"other_cents"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func toSummaryResponse(sum core.Summary) summaryResponse {
	byCategory := make([]categoryAmountJSON, 0, len(sum.ByCategory))
	for _, ca := range sum.ByCategory {
		byCategory = append(byCategory, categoryAmountJSON{
			Name:        ca.Name,
			AmountCents: ca.Amount.Cents,
			Amount:      ca.Amount.String(),
		})
	}
	return summaryResponse{
		IncomeCents:        sum.Income.Cents,
		Income:             sum.Income.String(),
		ByCategory:         byCategory,
		TotalExpensesCents: sum.TotalExpenses().Cents,
	}
}

func toPlanResponse(p core.Plan) planResponse {
	buckets := make([]bucketPlanJSON, 0, len(p.Buckets))
	for _, b := range p.Buckets {
		buckets = append(buckets, bucketPlanJSON{
			Name:        b.Name,
			Ratio:       b.Ratio,
			TargetCents: b.Target.Cents,
			ActualCents: b.Actual.Cents,
			DeltaCents:  b.Delta.Cents,
			Overspent:   b.Overspent(),
		})
	}
	return planResponse{
		IncomeCents: p.Income.Cents,
		Buckets:     buckets,
		OtherCents:  p.Other.Cents,
	}
}

// getSummary computes (or serves a cached) summary for one budget.
func (s *Server) getSummary(ctx context.Context, uid, budgetID string) (core.Summary, error) {
	key := s.cacheKey(uid, budgetID)
	if sum, found := s.summaryCache.Get(key); found {
		slog.DebugContext(ctx, "Summary cache hit", "budget_id", budgetID)
		return sum, nil
	}

	// Ownership check first so foreign budgets 404 instead of returning an
	// empty summary.
	if _, err := s.store.GetBudget(ctx, uid, budgetID); err != nil {
		return core.Summary{}, err
	}
	txs, err := s.store.ListTransactions(ctx, uid, budgetID)
	if err != nil {
		return core.Summary{}, err
	}

	sum := core.ComputeSummary(txs)
	s.summaryCache.Set(key, sum)
	return sum, nil
}

// getPlan computes (or serves a cached) allocation plan for one budget.
func (s *Server) getPlan(ctx context.Context, uid, budgetID string) (core.Plan, error) {
	key := s.cacheKey(uid, budgetID)
	if plan, found := s.planCache.Get(key); found {
		slog.DebugContext(ctx, "Plan cache hit", "budget_id", budgetID)
		return plan, nil
	}

	b, err := s.store.GetBudget(ctx, uid, budgetID)
	if err != nil {
		return core.Plan{}, err
	}
	sum, err := s.getSummary(ctx, uid, budgetID)
	if err != nil {
		return core.Plan{}, err
	}

	plan := core.ComputePlan(sum, b.Ratios)
	s.planCache.Set(key, plan)
	return plan, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.getSummary(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.getPlan(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	plan, err := s.getPlan(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions: core.ComputeSuggestions(plan),
	})
}
