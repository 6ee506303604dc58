package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"budgetfriendly/internal/core"
	"budgetfriendly/internal/ledger/memory"
)

func TestProcessDueCreatesTransactions(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	b, err := store.CreateBudget(ctx, core.Budget{
		UserID: "alice",
		Name:   "Household",
		Ratios: core.DefaultRatios(),
	})
	require.NoError(t, err)

	_, err = store.CreateRecurring(ctx, "alice", core.RecurringTransaction{
		BudgetID:    b.ID,
		StartDate:   core.NewDate(2026, 1, 15),
		Every:       core.Monthly,
		Description: "rent",
		Amount:      core.Money{Cents: -90000},
		Category:    core.CategoryEssentials,
	})
	require.NoError(t, err)

	p := NewRecurringProcessor(store, store)

	now := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	created, err := p.ProcessDue(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	txs, err := store.ListTransactions(ctx, "alice", b.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "rent", txs[0].Description)
	require.Equal(t, int64(-90000), txs[0].Amount.Cents)

	// Same day again: nothing further is due.
	created, err = p.ProcessDue(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 0, created)

	// Next month on the target day it fires again.
	created, err = p.ProcessDue(ctx, time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, created)
}

func TestProcessDueRespectsWindow(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	b, err := store.CreateBudget(ctx, core.Budget{
		UserID: "alice",
		Name:   "Household",
		Ratios: core.DefaultRatios(),
	})
	require.NoError(t, err)

	_, err = store.CreateRecurring(ctx, "alice", core.RecurringTransaction{
		BudgetID:    b.ID,
		StartDate:   core.NewDate(2026, 9, 1),
		EndDate:     core.NewDate(2026, 12, 31),
		Every:       core.Monthly,
		Description: "gym",
		Amount:      core.Money{Cents: -3000},
		Category:    core.CategoryWants,
	})
	require.NoError(t, err)

	p := NewRecurringProcessor(store, store)

	// Before the start date nothing happens.
	created, err := p.ProcessDue(ctx, time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 0, created)

	// After the end date nothing happens either.
	created, err = p.ProcessDue(ctx, time.Date(2027, 2, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 0, created)
}
