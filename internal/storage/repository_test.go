package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"budgetfriendly/internal/core"
	"budgetfriendly/internal/ledger"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedBudget(t *testing.T, repo *SQLiteRepository, userID, name string) core.Budget {
	t.Helper()
	b, err := repo.CreateBudget(context.Background(), core.Budget{
		UserID: userID,
		Name:   name,
		Ratios: core.DefaultRatios(),
	})
	require.NoError(t, err)
	return b
}

func seedTx(t *testing.T, repo *SQLiteRepository, userID, budgetID, desc string, cents int64) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), userID, core.Transaction{
		BudgetID:    budgetID,
		Date:        core.NewDate(2026, 8, 1),
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    core.CategoryEssentials,
	})
	require.NoError(t, err)
	return tx
}

func TestBudgetLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := seedBudget(t, repo, "alice", "Household")
	require.NotEmpty(t, b.ID)
	require.Equal(t, 50, b.Ratios.Essentials)

	got, err := repo.GetBudget(ctx, "alice", b.ID)
	require.NoError(t, err)
	require.Equal(t, "Household", got.Name)

	_, err = repo.GetBudget(ctx, "bob", b.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	b.Name = "Home"
	b.Ratios = core.Ratios{Essentials: 60, Wants: 20, Savings: 20}
	require.NoError(t, repo.UpdateBudget(ctx, b))
	got, err = repo.GetBudget(ctx, "alice", b.ID)
	require.NoError(t, err)
	require.Equal(t, "Home", got.Name)
	require.Equal(t, 60, got.Ratios.Essentials)

	list, err := repo.ListBudgets(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteBudgetCascade(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := seedBudget(t, repo, "alice", "Household")
	tx := seedTx(t, repo, "alice", b.ID, "rent", -90000)

	_, err := repo.CreateRecurring(ctx, "alice", core.RecurringTransaction{
		BudgetID:    b.ID,
		StartDate:   core.NewDate(2026, 1, 1),
		Every:       core.Monthly,
		Description: "rent",
		Amount:      core.Money{Cents: -90000},
		Category:    core.CategoryEssentials,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBudget(ctx, "alice", b.ID))

	_, err = repo.GetTransaction(ctx, "alice", tx.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	recurring, err := repo.ListRecurring(ctx)
	require.NoError(t, err)
	require.Empty(t, recurring)

	require.ErrorIs(t, repo.DeleteBudget(ctx, "alice", b.ID), ledger.ErrNotFound)
}

func TestTransactionOrderingAndMove(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := seedBudget(t, repo, "alice", "Household")
	other := seedBudget(t, repo, "alice", "Vacation")

	t1 := seedTx(t, repo, "alice", b.ID, "rent", -90000)
	t2 := seedTx(t, repo, "alice", b.ID, "groceries", -30000)
	t3 := seedTx(t, repo, "alice", b.ID, "internet", -5000)

	list, err := repo.ListTransactions(ctx, "alice", b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"rent", "groceries", "internet"}, descriptions(list))

	require.NoError(t, repo.ReorderTransactions(ctx, "alice", b.ID, []int64{t3.ID, t1.ID, t2.ID}))
	list, err = repo.ListTransactions(ctx, "alice", b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"internet", "rent", "groceries"}, descriptions(list))

	err = repo.ReorderTransactions(ctx, "alice", b.ID, []int64{t1.ID, 999})
	require.ErrorIs(t, err, ledger.ErrNotFound)

	require.NoError(t, repo.MoveTransaction(ctx, "alice", t2.ID, other.ID))
	list, err = repo.ListTransactions(ctx, "alice", other.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"groceries"}, descriptions(list))
}

func TestUpdateResetsSyncState(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := seedBudget(t, repo, "alice", "Household")
	tx := seedTx(t, repo, "alice", b.ID, "rent", -90000)

	require.NoError(t, repo.MarkSynced(ctx, tx.ID, "sheet:42"))
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	tx.Description = "rent august"
	require.NoError(t, repo.UpdateTransaction(ctx, "alice", tx))

	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, tx.ID, pending[0].ID)
	require.Equal(t, "alice", pending[0].UserID)
	require.Equal(t, int64(2), pending[0].Version)

	require.NoError(t, repo.MarkSyncError(ctx, tx.ID))
	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRecurringExecutionTracking(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := seedBudget(t, repo, "alice", "Household")
	rt, err := repo.CreateRecurring(ctx, "alice", core.RecurringTransaction{
		BudgetID:    b.ID,
		StartDate:   core.NewDate(2026, 1, 15),
		Every:       core.Monthly,
		Description: "rent",
		Amount:      core.Money{Cents: -90000},
		Category:    core.CategoryEssentials,
	})
	require.NoError(t, err)

	entries, err := repo.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "alice", entries[0].UserID)
	require.Equal(t, 15, entries[0].StartDate.Day())
	require.True(t, entries[0].LastExecution.IsZero())

	ran := time.Date(2026, 8, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRecurringExecuted(ctx, rt.ID, ran))
	entries, err = repo.ListRecurring(ctx)
	require.NoError(t, err)
	require.False(t, entries[0].LastExecution.IsZero())
}

func descriptions(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Description
	}
	return out
}
