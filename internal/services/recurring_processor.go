package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetfriendly/internal/core"
	"budgetfriendly/internal/ledger"
)

// TransactionCreator is the write surface the processor needs; satisfied by
// both the ledger stores and the BudgetService.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error)
}

// RecurringProcessor materializes transactions from recurring templates.
type RecurringProcessor struct {
	store  ledger.RecurringStore
	writer TransactionCreator
}

func NewRecurringProcessor(store ledger.RecurringStore, writer TransactionCreator) *RecurringProcessor {
	return &RecurringProcessor{
		store:  store,
		writer: writer,
	}
}

// ProcessDue walks all recurring templates and creates a transaction for each
// one that is due at the given time. It returns the number created; a failure
// on one template does not stop the others.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.writer == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	entries, err := p.store.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total", len(entries),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, entry := range entries {
		due, err := p.isDue(entry, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check if template is due",
				"id", entry.ID,
				"error", err)
			continue
		}
		if !due {
			continue
		}

		tx := core.Transaction{
			BudgetID:    entry.BudgetID,
			Date:        core.Date{Time: now},
			Description: entry.Description,
			Amount:      entry.Amount,
			Category:    entry.Category,
		}
		created, err := p.writer.CreateTransaction(ctx, entry.UserID, tx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"recurring_id", entry.ID,
				"description", entry.Description,
				"error", err)
			continue
		}

		if err := p.store.MarkRecurringExecuted(ctx, entry.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update last execution date",
				"recurring_id", entry.ID,
				"error", err)
			// Continue anyway - the transaction was created
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", entry.ID,
			"transaction_id", created.ID,
			"description", entry.Description,
			"amount_cents", entry.Amount.Cents,
			"frequency", entry.Every)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(entries))

	return processed, nil
}

func (p *RecurringProcessor) isDue(entry ledger.RecurringEntry, now time.Time) (bool, error) {
	// Outside the template's active window, nothing is due.
	if now.Before(entry.StartDate.Time) {
		return false, nil
	}
	if !entry.EndDate.IsEmpty() && now.After(entry.EndDate.Time.AddDate(0, 0, 1)) {
		return false, nil
	}

	checker, err := GetDuenessChecker(entry.Every)
	if err != nil {
		return false, err
	}
	return checker.IsDue(entry.LastExecution, now, entry.StartDate), nil
}
