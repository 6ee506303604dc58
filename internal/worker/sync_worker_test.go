package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"budgetfriendly/internal/amqp"
	"budgetfriendly/internal/core"
	"budgetfriendly/internal/storage"
)

type fakeExporter struct {
	appended []core.Transaction
	removed  []string
	failNext bool
}

func (f *fakeExporter) Append(_ context.Context, _ string, tx core.Transaction) (string, error) {
	if f.failNext {
		f.failNext = false
		return "", errors.New("backup unavailable")
	}
	f.appended = append(f.appended, tx)
	return fmt.Sprintf("sheet:%d", len(f.appended)), nil
}

func (f *fakeExporter) Remove(_ context.Context, ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

func setup(t *testing.T) (*storage.SQLiteRepository, core.Budget) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	b, err := repo.CreateBudget(context.Background(), core.Budget{
		UserID: "alice",
		Name:   "Household",
		Ratios: core.DefaultRatios(),
	})
	require.NoError(t, err)
	return repo, b
}

func createTx(t *testing.T, repo *storage.SQLiteRepository, budgetID, desc string) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), "alice", core.Transaction{
		BudgetID:    budgetID,
		Date:        core.NewDate(2026, 8, 1),
		Description: desc,
		Amount:      core.Money{Cents: -5000},
		Category:    core.CategoryWants,
	})
	require.NoError(t, err)
	return tx
}

func TestHandleSyncMessage(t *testing.T) {
	repo, b := setup(t)
	exp := &fakeExporter{}
	w := NewSyncWorker(repo, exp, exp, 10)
	ctx := context.Background()

	tx := createTx(t, repo, b.ID, "cinema")

	msg := amqp.NewTransactionSyncMessage(tx.ID, 1)
	require.NoError(t, w.HandleSyncMessage(ctx, msg))
	require.Len(t, exp.appended, 1)
	require.Equal(t, "cinema", exp.appended[0].Description)

	// The transaction is no longer pending.
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	// Unknown ids fail so the message is requeued.
	require.Error(t, w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(999, 1)))
}

func TestHandleSyncMessageMarksError(t *testing.T) {
	repo, b := setup(t)
	exp := &fakeExporter{failNext: true}
	w := NewSyncWorker(repo, exp, exp, 10)
	ctx := context.Background()

	tx := createTx(t, repo, b.ID, "cinema")

	require.Error(t, w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID, 1)))

	// Flagged rows are excluded from the pending scan.
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestStartupSyncCheckDrainsBacklog(t *testing.T) {
	repo, b := setup(t)
	exp := &fakeExporter{}
	w := NewSyncWorker(repo, exp, exp, 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		createTx(t, repo, b.ID, fmt.Sprintf("item %d", i))
	}

	require.NoError(t, w.StartupSyncCheck(ctx))
	require.Len(t, exp.appended, 3)

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestHandleDeleteMessage(t *testing.T) {
	repo, _ := setup(t)
	exp := &fakeExporter{}
	w := NewSyncWorker(repo, exp, exp, 10)
	ctx := context.Background()

	require.NoError(t, w.HandleDeleteMessage(ctx, amqp.NewTransactionDeleteMessage(1, "sheet:1")))
	require.Equal(t, []string{"sheet:1"}, exp.removed)

	// Empty refs are ignored: the row was never exported.
	require.NoError(t, w.HandleDeleteMessage(ctx, amqp.NewTransactionDeleteMessage(2, "")))
	require.Len(t, exp.removed, 1)
}
