// Package worker moves locally saved transactions into the Google Sheets
// backup, driven by AMQP messages with a periodic pending scan as the
// catch-all for lost deliveries.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetfriendly/internal/amqp"
	"budgetfriendly/internal/ledger"
	"budgetfriendly/internal/storage"
)

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	exporter  ledger.TransactionExporter
	remover   ledger.TransactionRemover
	batchSize int
}

func NewSyncWorker(repo *storage.SQLiteRepository, exporter ledger.TransactionExporter, remover ledger.TransactionRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		exporter:  exporter,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	pending, err := w.storage.GetTransactionForExport(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.export(ctx, pending); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	return nil
}

// HandleDeleteMessage clears the backup row for a deleted transaction
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message",
		"id", msg.ID,
		"sheets_ref", msg.SheetsRef)

	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping backup deletion",
			"id", msg.ID)
		return nil
	}
	if msg.SheetsRef == "" {
		return nil
	}

	if err := w.remover.Remove(ctx, msg.SheetsRef); err != nil {
		return fmt.Errorf("remove backup row: %w", err)
	}

	slog.InfoContext(ctx, "Cleared backup row",
		"id", msg.ID,
		"sheets_ref", msg.SheetsRef)
	return nil
}

// ProcessPending exports transactions that have not been synced yet. This is
// the backup mechanism for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupSyncCheck drains pending transactions at worker startup, recovering
// from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPendingBatch(ctx context.Context, batchSize int) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if err := w.export(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", p.ID, "error", err)
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", len(pending)-synced)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, p storage.PendingSyncTransaction) error {
	ref, err := w.exporter.Append(ctx, p.UserID, p.Transaction)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, p.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
		}
		return fmt.Errorf("append to backup: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, p.ID, ref); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", p.ID, "error", err)
		// Don't return an error here - the export actually worked
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", p.ID,
		"sheets_ref", ref,
		"description", p.Transaction.Description,
		"amount_cents", p.Transaction.Amount.Cents)
	return nil
}
