// Package memory provides the in-process fallback store used when no
// database is configured. Data lives only for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetfriendly/internal/core"
	"budgetfriendly/internal/ledger"
)

type Store struct {
	mu       sync.Mutex
	budgets  map[string]core.Budget
	txs      map[int64]core.Transaction
	nextTxID int64

	recurring []ledger.RecurringEntry
	nextRecID int64

	exported map[string]core.Transaction
	nextRef  int
}

func New() *Store {
	return &Store{
		budgets:  make(map[string]core.Budget),
		txs:      make(map[int64]core.Transaction),
		exported: make(map[string]core.Transaction),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownedBudget(userID, id)
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.ownedBudget(b.UserID, b.ID)
	if err != nil {
		return err
	}
	b.CreatedAt = existing.CreatedAt
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBudget(userID, id); err != nil {
		return err
	}
	delete(s.budgets, id)
	for txID, tx := range s.txs {
		if tx.BudgetID == id {
			delete(s.txs, txID)
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBudget(userID, tx.BudgetID); err != nil {
		return core.Transaction{}, err
	}
	s.nextTxID++
	tx.ID = s.nextTxID
	tx.Position = s.maxPosition(tx.BudgetID) + 1
	s.txs[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, userID string, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownedTransaction(userID, id)
}

func (s *Store) ListTransactions(_ context.Context, userID, budgetID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBudget(userID, budgetID); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		if tx.BudgetID == budgetID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID string, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.ownedTransaction(userID, tx.ID)
	if err != nil {
		return err
	}
	// Budget reassignment goes through MoveTransaction.
	tx.BudgetID = existing.BudgetID
	tx.Position = existing.Position
	s.txs[tx.ID] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedTransaction(userID, id); err != nil {
		return err
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ReorderTransactions(_ context.Context, userID, budgetID string, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBudget(userID, budgetID); err != nil {
		return err
	}
	for _, id := range ids {
		tx, ok := s.txs[id]
		if !ok || tx.BudgetID != budgetID {
			return fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
		}
	}
	for pos, id := range ids {
		tx := s.txs[id]
		tx.Position = pos + 1
		s.txs[id] = tx
	}
	return nil
}

func (s *Store) MoveTransaction(_ context.Context, userID string, id int64, toBudgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ownedTransaction(userID, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedBudget(userID, toBudgetID); err != nil {
		return err
	}
	tx.BudgetID = toBudgetID
	tx.Position = s.maxPosition(toBudgetID) + 1
	s.txs[id] = tx
	return nil
}

func (s *Store) ListRecurring(_ context.Context) ([]ledger.RecurringEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.RecurringEntry(nil), s.recurring...), nil
}

func (s *Store) CreateRecurring(_ context.Context, userID string, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedBudget(userID, rt.BudgetID); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.nextRecID++
	rt.ID = s.nextRecID
	s.recurring = append(s.recurring, ledger.RecurringEntry{
		RecurringTransaction: rt,
		UserID:               userID,
	})
	return rt, nil
}

func (s *Store) MarkRecurringExecuted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring[i].LastExecution = at
			return nil
		}
	}
	return fmt.Errorf("recurring %d: %w", id, ledger.ErrNotFound)
}

// Append stores the transaction in the in-memory backup and returns a
// synthetic row reference.
func (s *Store) Append(_ context.Context, _ string, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRef++
	ref := fmt.Sprintf("mem:%d", s.nextRef)
	s.exported[ref] = tx
	return ref, nil
}

// Remove clears a previously exported row reference.
func (s *Store) Remove(_ context.Context, rowRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exported[rowRef]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.exported, rowRef)
	return nil
}

func (s *Store) ownedBudget(userID, id string) (core.Budget, error) {
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, ledger.ErrNotFound)
	}
	return b, nil
}

func (s *Store) ownedTransaction(userID string, id int64) (core.Transaction, error) {
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	if _, err := s.ownedBudget(userID, tx.BudgetID); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	return tx, nil
}

func (s *Store) maxPosition(budgetID string) int {
	max := 0
	for _, tx := range s.txs {
		if tx.BudgetID == budgetID && tx.Position > max {
			max = tx.Position
		}
	}
	return max
}
