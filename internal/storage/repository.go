package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"budgetfriendly/internal/core"
	"budgetfriendly/internal/ledger"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	row, err := r.queries.CreateBudget(ctx, CreateBudgetParams{
		ID:              b.ID,
		UserID:          b.UserID,
		Name:            b.Name,
		RatioEssentials: int64(b.Ratios.Essentials),
		RatioWants:      int64(b.Ratios.Wants),
		RatioSavings:    int64(b.Ratios.Savings),
		Color:           b.Color,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", row.ID,
		"user_id", row.UserID,
		"name", row.Name)

	return toBudget(row), nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return toBudget(row), nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := make([]core.Budget, len(rows))
	for i, row := range rows {
		budgets[i] = toBudget(row)
	}
	return budgets, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	affected, err := r.queries.UpdateBudget(ctx, UpdateBudgetParams{
		Name:            b.Name,
		RatioEssentials: int64(b.Ratios.Essentials),
		RatioWants:      int64(b.Ratios.Wants),
		RatioSavings:    int64(b.Ratios.Savings),
		Color:           b.Color,
		ID:              b.ID,
		UserID:          b.UserID,
	})
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("budget %s: %w", b.ID, ledger.ErrNotFound)
	}
	return nil
}

// DeleteBudget removes the budget together with its transactions and
// recurring templates in a single database transaction.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete budget: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	affected, err := q.DeleteBudget(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("budget %s: %w", id, ledger.ErrNotFound)
	}
	if err := q.DeleteBudgetTransactions(ctx, id); err != nil {
		return fmt.Errorf("delete budget transactions: %w", err)
	}
	if err := q.DeleteBudgetRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete budget recurring: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget deleted", "budget_id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if _, err := r.GetBudget(ctx, userID, t.BudgetID); err != nil {
		return core.Transaction{}, err
	}

	maxPos, err := r.queries.MaxTransactionPosition(ctx, t.BudgetID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("max position: %w", err)
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		BudgetID:    t.BudgetID,
		Date:        t.Date.Format(dateLayout),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		CategoryID:  t.CategoryID,
		Position:    maxPos + 1,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"budget_id", row.BudgetID,
		"description", row.Description,
		"amount_cents", row.AmountCents)

	return toTransaction(row.ID, row.BudgetID, row.Date, row.Description, row.AmountCents, row.Category, row.CategoryID, row.Position), nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID string, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toTransaction(row.ID, row.BudgetID, row.Date, row.Description, row.AmountCents, row.Category, row.CategoryID, row.Position), nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID, budgetID string) ([]core.Transaction, error) {
	if _, err := r.GetBudget(ctx, userID, budgetID); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListTransactions(ctx, budgetID, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = toTransaction(row.ID, row.BudgetID, row.Date, row.Description, row.AmountCents, row.Category, row.CategoryID, row.Position)
	}
	return txs, nil
}

// UpdateTransaction rewrites the mutable fields and resets the sync flags so
// the worker re-exports the new version.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := r.GetTransaction(ctx, userID, t.ID); err != nil {
		return err
	}
	if err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Date:        t.Date.Format(dateLayout),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		CategoryID:  t.CategoryID,
		ID:          t.ID,
	}); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	if _, err := r.GetTransaction(ctx, userID, id); err != nil {
		return err
	}
	if err := r.queries.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReorderTransactions(ctx context.Context, userID, budgetID string, ids []int64) error {
	if _, err := r.GetBudget(ctx, userID, budgetID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, id := range ids {
		row, err := q.GetTransaction(ctx, id, userID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && row.BudgetID != budgetID) {
			return fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
	}
	for pos, id := range ids {
		if err := q.SetTransactionPosition(ctx, int64(pos+1), id); err != nil {
			return fmt.Errorf("set position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MoveTransaction(ctx context.Context, userID string, id int64, toBudgetID string) error {
	if _, err := r.GetTransaction(ctx, userID, id); err != nil {
		return err
	}
	if _, err := r.GetBudget(ctx, userID, toBudgetID); err != nil {
		return err
	}

	maxPos, err := r.queries.MaxTransactionPosition(ctx, toBudgetID)
	if err != nil {
		return fmt.Errorf("max position: %w", err)
	}
	if err := r.queries.MoveTransaction(ctx, toBudgetID, maxPos+1, id); err != nil {
		return fmt.Errorf("move transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, userID string, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := r.GetBudget(ctx, userID, rt.BudgetID); err != nil {
		return core.RecurringTransaction{}, err
	}

	endDate := ""
	if !rt.EndDate.IsEmpty() {
		endDate = rt.EndDate.Format(dateLayout)
	}
	row, err := r.queries.CreateRecurring(ctx, CreateRecurringParams{
		BudgetID:    rt.BudgetID,
		StartDate:   rt.StartDate.Format(dateLayout),
		EndDate:     endDate,
		Every:       string(rt.Every),
		Description: rt.Description,
		AmountCents: rt.Amount.Cents,
		Category:    rt.Category,
	})
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring: %w", err)
	}
	rt.ID = row.ID
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]ledger.RecurringEntry, error) {
	rows, err := r.queries.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring: %w", err)
	}
	entries := make([]ledger.RecurringEntry, len(rows))
	for i, row := range rows {
		entry := ledger.RecurringEntry{
			RecurringTransaction: core.RecurringTransaction{
				ID:          row.ID,
				BudgetID:    row.BudgetID,
				StartDate:   parseDate(row.StartDate),
				Every:       core.RepetitionTypes(row.Every),
				Description: row.Description,
				Amount:      core.Money{Cents: row.AmountCents},
				Category:    row.Category,
			},
			UserID: row.UserID,
		}
		if row.EndDate != "" {
			entry.EndDate = parseDate(row.EndDate)
		}
		if row.LastExecutionDate.Valid {
			entry.LastExecution = row.LastExecutionDate.Time
		}
		entries[i] = entry
	}
	return entries, nil
}

func (r *SQLiteRepository) MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error {
	affected, err := r.queries.UpdateRecurringLastExecution(ctx, at, id)
	if err != nil {
		return fmt.Errorf("mark recurring executed: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// PendingSyncTransaction is the unit of work for the export worker.
type PendingSyncTransaction struct {
	ID          int64
	UserID      string
	Version     int64
	CreatedAt   time.Time
	Transaction core.Transaction
}

// GetPendingSyncTransactions returns transactions not yet exported to the
// backup spreadsheet.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}

	pending := make([]PendingSyncTransaction, len(rows))
	for i, row := range rows {
		pending[i] = PendingSyncTransaction{
			ID:          row.ID,
			UserID:      row.UserID,
			Version:     row.Version,
			CreatedAt:   row.CreatedAt,
			Transaction: toTransaction(row.ID, row.BudgetID, row.Date, row.Description, row.AmountCents, row.Category, row.CategoryID, row.Position),
		}
	}
	return pending, nil
}

// GetTransactionForExport fetches a transaction regardless of user scope,
// together with its owner. Only the export worker uses it.
func (r *SQLiteRepository) GetTransactionForExport(ctx context.Context, id int64) (PendingSyncTransaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return PendingSyncTransaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return PendingSyncTransaction{}, fmt.Errorf("get transaction for export: %w", err)
	}
	return PendingSyncTransaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		Transaction: toTransaction(row.ID, row.BudgetID, row.Date, row.Description, row.AmountCents, row.Category, row.CategoryID, row.Position),
	}, nil
}

// GetSyncState returns the current version and backup row reference for a
// transaction.
func (r *SQLiteRepository) GetSyncState(ctx context.Context, id int64) (version int64, sheetsRef string, err error) {
	s, err := r.queries.GetTransactionSyncState(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return 0, "", fmt.Errorf("get sync state: %w", err)
	}
	return s.Version, s.SheetsRef, nil
}

// MarkSynced marks a transaction as successfully exported
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, sheetsRef string) error {
	if err := r.queries.MarkTransactionSynced(ctx, sheetsRef, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "sheets_ref", sheetsRef)
	return nil
}

// MarkSyncError marks a transaction as having export errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func toBudget(row Budget) core.Budget {
	return core.Budget{
		ID:     row.ID,
		UserID: row.UserID,
		Name:   row.Name,
		Ratios: core.Ratios{
			Essentials: int(row.RatioEssentials),
			Wants:      int(row.RatioWants),
			Savings:    int(row.RatioSavings),
		},
		Color:     row.Color,
		CreatedAt: row.CreatedAt,
	}
}

func toTransaction(id int64, budgetID, date, description string, amountCents int64, category, categoryID string, position int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		BudgetID:    budgetID,
		Date:        parseDate(date),
		Description: description,
		Amount:      core.Money{Cents: amountCents},
		Category:    category,
		CategoryID:  categoryID,
		Position:    int(position),
	}
}

func parseDate(s string) core.Date {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}
