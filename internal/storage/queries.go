package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Budget is a budgets table row.
type Budget struct {
	ID              string
	UserID          string
	Name            string
	RatioEssentials int64
	RatioWants      int64
	RatioSavings    int64
	Color           string
	CreatedAt       time.Time
}

// Transaction is a transactions table row.
type Transaction struct {
	ID          int64
	BudgetID    string
	Date        string
	Description string
	AmountCents int64
	Category    string
	CategoryID  string
	Position    int64
	Synced      int64
	SyncError   int64
	SheetsRef   string
	Version     int64
	CreatedAt   time.Time
}

// RecurringTransaction is a recurring_transactions table row.
type RecurringTransaction struct {
	ID                int64
	BudgetID          string
	StartDate         string
	EndDate           string
	Every             string
	Description       string
	AmountCents       int64
	Category          string
	LastExecutionDate sql.NullTime
	CreatedAt         time.Time
}

const createBudget = `
INSERT INTO budgets (id, user_id, name, ratio_essentials, ratio_wants, ratio_savings, color)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, user_id, name, ratio_essentials, ratio_wants, ratio_savings, color, created_at
`

type CreateBudgetParams struct {
	ID              string
	UserID          string
	Name            string
	RatioEssentials int64
	RatioWants      int64
	RatioSavings    int64
	Color           string
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) (Budget, error) {
	row := q.db.QueryRowContext(ctx, createBudget,
		arg.ID, arg.UserID, arg.Name, arg.RatioEssentials, arg.RatioWants, arg.RatioSavings, arg.Color)
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.RatioEssentials, &b.RatioWants, &b.RatioSavings, &b.Color, &b.CreatedAt)
	return b, err
}

const getBudget = `
SELECT id, user_id, name, ratio_essentials, ratio_wants, ratio_savings, color, created_at
FROM budgets
WHERE id = ? AND user_id = ?
`

func (q *Queries) GetBudget(ctx context.Context, id, userID string) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, id, userID)
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.RatioEssentials, &b.RatioWants, &b.RatioSavings, &b.Color, &b.CreatedAt)
	return b, err
}

const listBudgets = `
SELECT id, user_id, name, ratio_essentials, ratio_wants, ratio_savings, color, created_at
FROM budgets
WHERE user_id = ?
ORDER BY created_at, id
`

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.RatioEssentials, &b.RatioWants, &b.RatioSavings, &b.Color, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const updateBudget = `
UPDATE budgets
SET name = ?, ratio_essentials = ?, ratio_wants = ?, ratio_savings = ?, color = ?
WHERE id = ? AND user_id = ?
`

type UpdateBudgetParams struct {
	Name            string
	RatioEssentials int64
	RatioWants      int64
	RatioSavings    int64
	Color           string
	ID              string
	UserID          string
}

func (q *Queries) UpdateBudget(ctx context.Context, arg UpdateBudgetParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget,
		arg.Name, arg.RatioEssentials, arg.RatioWants, arg.RatioSavings, arg.Color, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudgetTransactions = `DELETE FROM transactions WHERE budget_id = ?`

func (q *Queries) DeleteBudgetTransactions(ctx context.Context, budgetID string) error {
	_, err := q.db.ExecContext(ctx, deleteBudgetTransactions, budgetID)
	return err
}

const deleteBudgetRecurring = `DELETE FROM recurring_transactions WHERE budget_id = ?`

func (q *Queries) DeleteBudgetRecurring(ctx context.Context, budgetID string) error {
	_, err := q.db.ExecContext(ctx, deleteBudgetRecurring, budgetID)
	return err
}

const createTransaction = `
INSERT INTO transactions (budget_id, date, description, amount_cents, category, category_id, position)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, budget_id, date, description, amount_cents, category, category_id, position, synced, sync_error, sheets_ref, version, created_at
`

type CreateTransactionParams struct {
	BudgetID    string
	Date        string
	Description string
	AmountCents int64
	Category    string
	CategoryID  string
	Position    int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.BudgetID, arg.Date, arg.Description, arg.AmountCents, arg.Category, arg.CategoryID, arg.Position)
	return scanTransaction(row)
}

const getTransaction = `
SELECT t.id, t.budget_id, t.date, t.description, t.amount_cents, t.category, t.category_id, t.position, t.synced, t.sync_error, t.sheets_ref, t.version, t.created_at
FROM transactions t
JOIN budgets b ON b.id = t.budget_id
WHERE t.id = ? AND b.user_id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64, userID string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id, userID)
	return scanTransaction(row)
}

const listTransactions = `
SELECT t.id, t.budget_id, t.date, t.description, t.amount_cents, t.category, t.category_id, t.position, t.synced, t.sync_error, t.sheets_ref, t.version, t.created_at
FROM transactions t
JOIN budgets b ON b.id = t.budget_id
WHERE t.budget_id = ? AND b.user_id = ?
ORDER BY t.position, t.id
`

func (q *Queries) ListTransactions(ctx context.Context, budgetID, userID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, budgetID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.BudgetID, &t.Date, &t.Description, &t.AmountCents, &t.Category, &t.CategoryID, &t.Position, &t.Synced, &t.SyncError, &t.SheetsRef, &t.Version, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const updateTransaction = `
UPDATE transactions
SET date = ?, description = ?, amount_cents = ?, category = ?, category_id = ?,
    synced = 0, sync_error = 0, version = version + 1
WHERE id = ?
`

type UpdateTransactionParams struct {
	Date        string
	Description string
	AmountCents int64
	Category    string
	CategoryID  string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Date, arg.Description, arg.AmountCents, arg.Category, arg.CategoryID, arg.ID)
	return err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const setTransactionPosition = `UPDATE transactions SET position = ? WHERE id = ?`

func (q *Queries) SetTransactionPosition(ctx context.Context, position, id int64) error {
	_, err := q.db.ExecContext(ctx, setTransactionPosition, position, id)
	return err
}

const moveTransaction = `UPDATE transactions SET budget_id = ?, position = ? WHERE id = ?`

func (q *Queries) MoveTransaction(ctx context.Context, budgetID string, position, id int64) error {
	_, err := q.db.ExecContext(ctx, moveTransaction, budgetID, position, id)
	return err
}

const maxTransactionPosition = `SELECT COALESCE(MAX(position), 0) FROM transactions WHERE budget_id = ?`

func (q *Queries) MaxTransactionPosition(ctx context.Context, budgetID string) (int64, error) {
	var max int64
	err := q.db.QueryRowContext(ctx, maxTransactionPosition, budgetID).Scan(&max)
	return max, err
}

const getPendingSyncTransactions = `
SELECT t.id, t.budget_id, t.date, t.description, t.amount_cents, t.category, t.category_id, t.position, t.synced, t.sync_error, t.sheets_ref, t.version, t.created_at, b.user_id
FROM transactions t
JOIN budgets b ON b.id = t.budget_id
WHERE t.synced = 0 AND t.sync_error = 0
ORDER BY t.created_at, t.id
LIMIT ?
`

type PendingSyncRow struct {
	Transaction
	UserID string
}

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]PendingSyncRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingSyncRow
	for rows.Next() {
		var t PendingSyncRow
		if err := rows.Scan(&t.ID, &t.BudgetID, &t.Date, &t.Description, &t.AmountCents, &t.Category, &t.CategoryID, &t.Position, &t.Synced, &t.SyncError, &t.SheetsRef, &t.Version, &t.CreatedAt, &t.UserID); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTransactionByID = `
SELECT t.id, t.budget_id, t.date, t.description, t.amount_cents, t.category, t.category_id, t.position, t.synced, t.sync_error, t.sheets_ref, t.version, t.created_at, b.user_id
FROM transactions t
JOIN budgets b ON b.id = t.budget_id
WHERE t.id = ?
`

func (q *Queries) GetTransactionByID(ctx context.Context, id int64) (PendingSyncRow, error) {
	row := q.db.QueryRowContext(ctx, getTransactionByID, id)
	var t PendingSyncRow
	err := row.Scan(&t.ID, &t.BudgetID, &t.Date, &t.Description, &t.AmountCents, &t.Category, &t.CategoryID, &t.Position, &t.Synced, &t.SyncError, &t.SheetsRef, &t.Version, &t.CreatedAt, &t.UserID)
	return t, err
}

const getTransactionSyncState = `SELECT version, sheets_ref FROM transactions WHERE id = ?`

type TransactionSyncState struct {
	Version   int64
	SheetsRef string
}

func (q *Queries) GetTransactionSyncState(ctx context.Context, id int64) (TransactionSyncState, error) {
	var s TransactionSyncState
	err := q.db.QueryRowContext(ctx, getTransactionSyncState, id).Scan(&s.Version, &s.SheetsRef)
	return s, err
}

const markTransactionSynced = `UPDATE transactions SET synced = 1, sync_error = 0, sheets_ref = ? WHERE id = ?`

func (q *Queries) MarkTransactionSynced(ctx context.Context, sheetsRef string, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, sheetsRef, id)
	return err
}

const markTransactionSyncError = `UPDATE transactions SET sync_error = 1 WHERE id = ?`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

const createRecurring = `
INSERT INTO recurring_transactions (budget_id, start_date, end_date, every, description, amount_cents, category)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, budget_id, start_date, end_date, every, description, amount_cents, category, last_execution_date, created_at
`

type CreateRecurringParams struct {
	BudgetID    string
	StartDate   string
	EndDate     string
	Every       string
	Description string
	AmountCents int64
	Category    string
}

func (q *Queries) CreateRecurring(ctx context.Context, arg CreateRecurringParams) (RecurringTransaction, error) {
	row := q.db.QueryRowContext(ctx, createRecurring,
		arg.BudgetID, arg.StartDate, arg.EndDate, arg.Every, arg.Description, arg.AmountCents, arg.Category)
	var rt RecurringTransaction
	err := row.Scan(&rt.ID, &rt.BudgetID, &rt.StartDate, &rt.EndDate, &rt.Every, &rt.Description, &rt.AmountCents, &rt.Category, &rt.LastExecutionDate, &rt.CreatedAt)
	return rt, err
}

const listRecurring = `
SELECT r.id, r.budget_id, r.start_date, r.end_date, r.every, r.description, r.amount_cents, r.category, r.last_execution_date, r.created_at, b.user_id
FROM recurring_transactions r
JOIN budgets b ON b.id = r.budget_id
ORDER BY r.id
`

type ListRecurringRow struct {
	RecurringTransaction
	UserID string
}

func (q *Queries) ListRecurring(ctx context.Context) ([]ListRecurringRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecurring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRecurringRow
	for rows.Next() {
		var r ListRecurringRow
		if err := rows.Scan(&r.ID, &r.BudgetID, &r.StartDate, &r.EndDate, &r.Every, &r.Description, &r.AmountCents, &r.Category, &r.LastExecutionDate, &r.CreatedAt, &r.UserID); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const updateRecurringLastExecution = `UPDATE recurring_transactions SET last_execution_date = ? WHERE id = ?`

func (q *Queries) UpdateRecurringLastExecution(ctx context.Context, at time.Time, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRecurringLastExecution, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanTransaction(row *sql.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.BudgetID, &t.Date, &t.Description, &t.AmountCents, &t.Category, &t.CategoryID, &t.Position, &t.Synced, &t.SyncError, &t.SheetsRef, &t.Version, &t.CreatedAt)
	return t, err
}
