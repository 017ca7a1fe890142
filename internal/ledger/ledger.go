// Package ledger defines the interface to the transaction store this
// subsystem imports into. The store is an external collaborator: the import
// pipeline only ever batch-checks hashes, batch-inserts, lists by date,
// deletes single rows and updates an account balance. Everything else about
// the ledger schema is out of scope here.
package ledger

import "context"

// Transaction is a ledger-owned transaction row, reduced to the fields the
// import path touches.
type Transaction struct {
	ID           int64   `db:"id" json:"id"`
	AccountID    int64   `db:"account_id" json:"accountId"`
	Date         string  `db:"date" json:"date"`
	Amount       float64 `db:"amount" json:"amount"`
	Type         string  `db:"type" json:"type"`
	Description  string  `db:"description" json:"description"`
	ExternalHash string  `db:"external_hash" json:"externalHash"`
}

// Ledger is implemented by the record store. All calls are network
// suspension points and take a context.
type Ledger interface {
	// ListByAccountAndHashes returns the account's transactions whose
	// external hash is in the given set.
	ListByAccountAndHashes(ctx context.Context, accountID int64, hashes []string) ([]Transaction, error)

	// ListByAccountAndDates returns the account's transactions dated on any
	// of the given YYYY-MM-DD dates.
	ListByAccountAndDates(ctx context.Context, accountID int64, dates []string) ([]Transaction, error)

	// InsertBatch persists rows for the account and returns them with their
	// assigned IDs, in insertion order.
	InsertBatch(ctx context.Context, accountID int64, rows []Transaction) ([]Transaction, error)

	// DeleteTransaction removes one transaction and reverses its balance
	// effect on the owning account.
	DeleteTransaction(ctx context.Context, accountID, txID int64) error

	// UpdateAccountBalance sets the account's balance to the given value.
	UpdateAccountBalance(ctx context.Context, accountID int64, balance float64) error
}
