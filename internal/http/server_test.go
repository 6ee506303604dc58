package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"budgetfriendly/internal/ledger/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(":0", memory.New())
	t.Cleanup(func() { srv.cacheManager.Stop(); srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func createBudget(t *testing.T, srv *Server, user, name string) budgetResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", user, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[budgetResponse](t, rr)
}

func addTransaction(t *testing.T, srv *Server, user, budgetID, desc, amount, category string) transactionResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/budgets/"+budgetID+"/transactions", user, map[string]any{
		"date":        "2026-08-10",
		"description": desc,
		"amount":      amount,
		"category":    category,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[transactionResponse](t, rr)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestBudgetCRUD(t *testing.T) {
	srv := newTestServer(t)

	b := createBudget(t, srv, "alice", "Household")
	require.NotEmpty(t, b.ID)
	require.Equal(t, 50, b.Ratios.Essentials)

	rr := doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Other users cannot see it.
	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID, "bob", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, srv, http.MethodPut, "/api/budgets/"+b.ID, "alice", map[string]any{
		"ratios": map[string]int{"essentials": 60, "wants": 20, "savings": 20},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[budgetResponse](t, rr)
	require.Equal(t, 60, updated.Ratios.Essentials)
	require.Equal(t, "Household", updated.Name)

	rr = doJSON(t, srv, http.MethodDelete, "/api/budgets/"+b.ID, "alice", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID, "alice", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBudgetValidation(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", "alice", map[string]any{"name": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/api/budgets", "alice", map[string]any{
		"name":   "Bad ratios",
		"ratios": map[string]int{"essentials": -1, "wants": 30, "savings": 20},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	b := createBudget(t, srv, "alice", "Household")

	tx := addTransaction(t, srv, "alice", b.ID, "groceries", "-45.50", "Essentials")
	require.Equal(t, int64(-4550), tx.AmountCents)
	require.Equal(t, 1, tx.Position)

	// Invalid amount is rejected.
	rr := doJSON(t, srv, http.MethodPost, "/api/budgets/"+b.ID+"/transactions", "alice", map[string]any{
		"date":        "2026-08-10",
		"description": "junk",
		"amount":      "abc",
		"category":    "Wants",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID), "alice", map[string]any{
		"description": "weekly groceries",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[transactionResponse](t, rr)
	require.Equal(t, "weekly groceries", updated.Description)
	require.Equal(t, int64(-4550), updated.AmountCents)

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), "alice", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), "alice", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReorderAndMove(t *testing.T) {
	srv := newTestServer(t)
	b1 := createBudget(t, srv, "alice", "Household")
	b2 := createBudget(t, srv, "alice", "Vacation")

	t1 := addTransaction(t, srv, "alice", b1.ID, "first", "-10.00", "Wants")
	t2 := addTransaction(t, srv, "alice", b1.ID, "second", "-20.00", "Wants")

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets/"+b1.ID+"/transactions/reorder", "alice", map[string]any{
		"ids": []int64{t2.ID, t1.ID},
	})
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b1.ID+"/transactions", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	listed := decode[[]transactionResponse](t, rr)
	require.Len(t, listed, 2)
	require.Equal(t, "second", listed[0].Description)

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/transactions/%d/move", t1.ID), "alice", map[string]any{
		"budget_id": b2.ID,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	moved := decode[transactionResponse](t, rr)
	require.Equal(t, b2.ID, moved.BudgetID)
}

func TestSummaryPlanAndSuggestions(t *testing.T) {
	srv := newTestServer(t)
	b := createBudget(t, srv, "alice", "Household")

	addTransaction(t, srv, "alice", b.ID, "salary", "3000.00", "Income")
	addTransaction(t, srv, "alice", b.ID, "rent", "-1200.00", "Essentials")
	addTransaction(t, srv, "alice", b.ID, "eating out", "-500.00", "Wants")

	rr := doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sum := decode[summaryResponse](t, rr)
	require.Equal(t, int64(300000), sum.IncomeCents)
	require.Equal(t, int64(170000), sum.TotalExpensesCents)

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/plan", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	plan := decode[planResponse](t, rr)
	require.Len(t, plan.Buckets, 3)
	require.Equal(t, int64(150000), plan.Buckets[0].TargetCents)
	require.Equal(t, int64(120000), plan.Buckets[0].ActualCents)
	require.Equal(t, int64(30000), plan.Buckets[0].DeltaCents)
	require.False(t, plan.Buckets[0].Overspent)

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/suggestions", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sugg := decode[suggestionsResponse](t, rr)
	require.Len(t, sugg.Suggestions, 1)
	require.Contains(t, sugg.Suggestions[0], "Savings")

	// Foreign budgets 404 rather than returning an empty summary.
	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/summary", "bob", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSummaryCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)
	b := createBudget(t, srv, "alice", "Household")

	addTransaction(t, srv, "alice", b.ID, "salary", "2000.00", "Income")

	rr := doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(200000), decode[summaryResponse](t, rr).IncomeCents)

	// A write must drop the cached summary.
	addTransaction(t, srv, "alice", b.ID, "bonus", "500.00", "Income")

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(250000), decode[summaryResponse](t, rr).IncomeCents)
}

func TestRecurringEndpoints(t *testing.T) {
	srv := newTestServer(t)
	b := createBudget(t, srv, "alice", "Household")

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets/"+b.ID+"/recurring", "alice", map[string]any{
		"start_date":  "2026-01-01",
		"every":       "monthly",
		"description": "rent",
		"amount":      "-1200.00",
		"category":    "Essentials",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[recurringResponse](t, rr)
	require.Equal(t, "monthly", created.Every)

	// Unknown repetition types are rejected.
	rr = doJSON(t, srv, http.MethodPost, "/api/budgets/"+b.ID+"/recurring", "alice", map[string]any{
		"start_date":  "2026-01-01",
		"every":       "fortnightly",
		"description": "rent",
		"amount":      "-1200.00",
		"category":    "Essentials",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/recurring", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[[]recurringResponse](t, rr), 1)

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/"+b.ID+"/recurring", "bob", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVoiceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	b := createBudget(t, srv, "alice", "Household")

	// Parse only.
	rr := doJSON(t, srv, http.MethodPost, "/api/voice", "alice", map[string]any{
		"utterance": "add 150 dollars to wants for concert tickets",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	parsed := decode[voiceResponse](t, rr)
	require.Equal(t, "add", parsed.Action)
	require.Equal(t, "Wants", parsed.Category)
	require.Equal(t, int64(-15000), parsed.AmountCents)
	require.Nil(t, parsed.Created)

	// Parse and apply.
	rr = doJSON(t, srv, http.MethodPost, "/api/voice", "alice", map[string]any{
		"utterance": "add 150 dollars to wants for concert tickets",
		"budget_id": b.ID,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	applied := decode[voiceResponse](t, rr)
	require.NotNil(t, applied.Created)
	require.Equal(t, int64(-15000), applied.Created.AmountCents)

	// Unintelligible input.
	rr = doJSON(t, srv, http.MethodPost, "/api/voice", "alice", map[string]any{
		"utterance": "the weather is nice today",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestMethodAndBodyErrors(t *testing.T) {
	srv := newTestServer(t)

	// Unknown field in body.
	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", "alice", map[string]any{"name": "x", "bogus": 1})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Non-numeric transaction id.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions/abc", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
