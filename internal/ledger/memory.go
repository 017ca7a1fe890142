package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Ledger used by tests and dry runs. Safe for
// concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]Transaction // by transaction ID
	balances map[int64]float64     // by account ID

	// Calls counts ledger invocations by method name, so tests can assert
	// that a rejected file never reached the store.
	Calls map[string]int
}

// NewMemoryStore returns an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		rows:     make(map[int64]Transaction),
		balances: make(map[int64]float64),
		Calls:    make(map[string]int),
	}
}

func (s *MemoryStore) ListByAccountAndHashes(ctx context.Context, accountID int64, hashes []string) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["ListByAccountAndHashes"]++

	want := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		want[h] = true
	}

	var out []Transaction
	for _, tx := range s.rows {
		if tx.AccountID == accountID && want[tx.ExternalHash] {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByAccountAndDates(ctx context.Context, accountID int64, dates []string) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["ListByAccountAndDates"]++

	want := make(map[string]bool, len(dates))
	for _, d := range dates {
		want[d] = true
	}

	var out []Transaction
	for _, tx := range s.rows {
		if tx.AccountID == accountID && want[tx.Date] {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertBatch(ctx context.Context, accountID int64, rows []Transaction) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["InsertBatch"]++

	inserted := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		row.ID = s.nextID
		row.AccountID = accountID
		s.nextID++
		s.rows[row.ID] = row
		inserted = append(inserted, row)

		delta := row.Amount
		if row.Type == "Expense" {
			delta = -delta
		}
		s.balances[accountID] += delta
	}
	return inserted, nil
}

func (s *MemoryStore) DeleteTransaction(ctx context.Context, accountID, txID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["DeleteTransaction"]++

	row, ok := s.rows[txID]
	if !ok {
		return nil // idempotent
	}
	if row.AccountID != accountID {
		return fmt.Errorf("transaction %d does not belong to account %d", txID, accountID)
	}
	delete(s.rows, txID)

	delta := row.Amount
	if row.Type == "Income" {
		delta = -delta
	}
	s.balances[accountID] += delta
	return nil
}

func (s *MemoryStore) UpdateAccountBalance(ctx context.Context, accountID int64, balance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["UpdateAccountBalance"]++
	s.balances[accountID] = balance
	return nil
}

// Transactions returns a copy of the account's rows, for assertions.
func (s *MemoryStore) Transactions(accountID int64) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Transaction
	for _, tx := range s.rows {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

// Balance returns the account's current balance.
func (s *MemoryStore) Balance(accountID int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[accountID]
}
