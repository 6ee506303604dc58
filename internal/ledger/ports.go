// Package ledger defines the ports between the application services and the
// persistence adapters (sqlite, memory, google sheets backup).
package ledger

import (
	"context"
	"errors"
	"time"

	"budgetfriendly/internal/core"
)

// RecurringEntry is a recurring template together with its owner and the
// last time it materialized a transaction.
type RecurringEntry struct {
	core.RecurringTransaction
	UserID        string
	LastExecution time.Time
}

// ErrNotFound is returned when a budget or transaction does not exist for the
// requesting user.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	// BudgetStore persists budgets. All operations are scoped to a user;
	// a budget belonging to another user behaves as if it did not exist.
	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		// DeleteBudget removes the budget and all of its transactions.
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	// TransactionStore persists transactions inside a budget.
	TransactionStore interface {
		CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID string, id int64) (core.Transaction, error)
		// ListTransactions returns the budget's transactions ordered by
		// position, then id.
		ListTransactions(ctx context.Context, userID, budgetID string) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID string, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID string, id int64) error
		// ReorderTransactions assigns positions following the order of ids.
		ReorderTransactions(ctx context.Context, userID, budgetID string, ids []int64) error
		// MoveTransaction reassigns a transaction to another budget of the
		// same user, appending it at the end.
		MoveTransaction(ctx context.Context, userID string, id int64, toBudgetID string) error
	}

	// RecurringStore persists recurring transaction templates.
	RecurringStore interface {
		ListRecurring(ctx context.Context) ([]RecurringEntry, error)
		CreateRecurring(ctx context.Context, userID string, rt core.RecurringTransaction) (core.RecurringTransaction, error)
		MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error
	}

	// TransactionExporter appends a transaction to an external backup and
	// returns an opaque row reference.
	TransactionExporter interface {
		Append(ctx context.Context, userID string, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover clears a previously exported row.
	TransactionRemover interface {
		Remove(ctx context.Context, rowRef string) error
	}
)

// Store is the full persistence surface the HTTP layer needs.
type Store interface {
	BudgetStore
	TransactionStore
	Close() error
}
