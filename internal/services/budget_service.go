package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgetfriendly/internal/amqp"
	"budgetfriendly/internal/core"
	"budgetfriendly/internal/storage"
)

// BudgetService orchestrates transaction writes across SQLite and AMQP.
// Writes always land locally first; the sync message to the export worker is
// best effort and never fails the request.
type BudgetService struct {
	*storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewBudgetService(repo *storage.SQLiteRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		SQLiteRepository: repo,
		amqpClient:       amqpClient,
	}
}

// CreateTransaction saves a transaction locally and publishes a sync message
func (s *BudgetService) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	created, err := s.SQLiteRepository.CreateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSync(ctx, created.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", created.ID, "error", err)
		// Don't fail the request - the transaction is saved locally
	}

	return created, nil
}

// UpdateTransaction rewrites a transaction locally and republishes it
func (s *BudgetService) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	if err := s.SQLiteRepository.UpdateTransaction(ctx, userID, t); err != nil {
		return err
	}

	version, _, err := s.GetSyncState(ctx, t.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read sync state after update",
			"id", t.ID, "error", err)
		return nil
	}
	if err := s.publishSync(ctx, t.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", t.ID, "error", err)
	}
	return nil
}

// DeleteTransaction removes a transaction locally and, when it was already
// exported, asks the worker to clear the backup row.
func (s *BudgetService) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	// Capture the backup reference before the row disappears.
	_, sheetsRef, err := s.GetSyncState(ctx, id)
	if err != nil {
		return err
	}

	if err := s.SQLiteRepository.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}

	if sheetsRef == "" {
		return nil
	}
	if err := s.publishDelete(ctx, id, sheetsRef); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
		// Don't fail the request - the transaction is deleted locally
	}
	return nil
}

func (s *BudgetService) publishSync(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishTransactionSync(ctx, id, version)
}

func (s *BudgetService) publishDelete(ctx context.Context, id int64, sheetsRef string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishTransactionDelete(ctx, id, sheetsRef)
}

// Close closes both storage and AMQP connections
func (s *BudgetService) Close() error {
	var errs []error

	if s.SQLiteRepository != nil {
		if err := s.SQLiteRepository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %v", errs)
	}
	return nil
}
