package ledger

import (
	"context"
	"testing"
)

func TestMemoryStoreInsertAndBalance(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inserted, err := s.InsertBatch(ctx, 1, []Transaction{
		{Date: "2024-03-01", Amount: 100.00, Type: "Income", Description: "Salary", ExternalHash: "h1"},
		{Date: "2024-03-02", Amount: 40.00, Type: "Expense", Description: "Groceries", ExternalHash: "h2"},
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(inserted))
	}
	if inserted[0].ID == 0 || inserted[1].ID == 0 || inserted[0].ID == inserted[1].ID {
		t.Errorf("IDs not assigned: %d, %d", inserted[0].ID, inserted[1].ID)
	}
	if got := s.Balance(1); got != 60.00 {
		t.Errorf("Balance = %v, want 60.00", got)
	}
}

func TestMemoryStoreDeleteReversesBalance(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows, _ := s.InsertBatch(ctx, 1, []Transaction{
		{Date: "2024-03-01", Amount: 100.00, Type: "Income", ExternalHash: "h1"},
	})

	if err := s.DeleteTransaction(ctx, 1, rows[0].ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if got := s.Balance(1); got != 0 {
		t.Errorf("Balance after delete = %v, want 0", got)
	}

	// Deleting an already deleted row is a no-op.
	if err := s.DeleteTransaction(ctx, 1, rows[0].ID); err != nil {
		t.Errorf("repeated delete: %v", err)
	}
	if got := s.Balance(1); got != 0 {
		t.Errorf("repeated delete changed the balance: %v", got)
	}
}

func TestMemoryStoreDeleteWrongAccount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rows, _ := s.InsertBatch(ctx, 1, []Transaction{
		{Date: "2024-03-01", Amount: 100.00, Type: "Income", ExternalHash: "h1"},
	})

	if err := s.DeleteTransaction(ctx, 2, rows[0].ID); err == nil {
		t.Error("expected error deleting another account's transaction")
	}
	if len(s.Transactions(1)) != 1 {
		t.Error("row was deleted despite the account mismatch")
	}
}

func TestMemoryStoreLookups(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.InsertBatch(ctx, 1, []Transaction{
		{Date: "2024-03-01", Amount: 1, Type: "Expense", ExternalHash: "h1"},
		{Date: "2024-03-02", Amount: 2, Type: "Expense", ExternalHash: "h2"},
	})
	s.InsertBatch(ctx, 2, []Transaction{
		{Date: "2024-03-01", Amount: 3, Type: "Expense", ExternalHash: "h3"},
	})

	byHash, err := s.ListByAccountAndHashes(ctx, 1, []string{"h1", "h3", "nope"})
	if err != nil {
		t.Fatalf("ListByAccountAndHashes: %v", err)
	}
	if len(byHash) != 1 || byHash[0].ExternalHash != "h1" {
		t.Errorf("byHash = %+v", byHash)
	}

	byDate, err := s.ListByAccountAndDates(ctx, 1, []string{"2024-03-01"})
	if err != nil {
		t.Fatalf("ListByAccountAndDates: %v", err)
	}
	if len(byDate) != 1 || byDate[0].Date != "2024-03-01" {
		t.Errorf("byDate = %+v", byDate)
	}
}
