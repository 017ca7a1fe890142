package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MySQLStore is the sqlx-backed Ledger implementation.
type MySQLStore struct {
	db *sqlx.DB
}

// NewMySQLStore wraps an open database handle.
func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) ListByAccountAndHashes(ctx context.Context, accountID int64, hashes []string) ([]Transaction, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, account_id, date, amount, type, description, external_hash
		FROM transactions
		WHERE account_id = ? AND external_hash IN (?)`, accountID, hashes)
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	if err := s.db.SelectContext(ctx, &txs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list by hashes: %w", err)
	}
	return txs, nil
}

func (s *MySQLStore) ListByAccountAndDates(ctx context.Context, accountID int64, dates []string) ([]Transaction, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, account_id, date, amount, type, description, external_hash
		FROM transactions
		WHERE account_id = ? AND date IN (?)`, accountID, dates)
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	if err := s.db.SelectContext(ctx, &txs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list by dates: %w", err)
	}
	return txs, nil
}

func (s *MySQLStore) InsertBatch(ctx context.Context, accountID int64, rows []Transaction) ([]Transaction, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	inserted := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		row.AccountID = accountID
		res, err := tx.NamedExecContext(ctx, `
			INSERT INTO transactions (account_id, date, amount, type, description, external_hash)
			VALUES (:account_id, :date, :amount, :type, :description, :external_hash)`, row)
		if err != nil {
			return nil, fmt.Errorf("insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		row.ID = id
		inserted = append(inserted, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert batch: %w", err)
	}
	return inserted, nil
}

func (s *MySQLStore) DeleteTransaction(ctx context.Context, accountID, txID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var row Transaction
	err = tx.GetContext(ctx, &row, `
		SELECT id, account_id, date, amount, type, description, external_hash
		FROM transactions
		WHERE id = ? AND account_id = ?`, txID, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		// Deleting an already-deleted row is a no-op so resolution actions
		// stay safe to retry.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, row.ID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	// Reverse the row's balance effect.
	delta := row.Amount
	if row.Type == "Income" {
		delta = -delta
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ? WHERE id = ?`, delta, accountID); err != nil {
		return fmt.Errorf("reverse balance effect: %w", err)
	}

	return tx.Commit()
}

func (s *MySQLStore) UpdateAccountBalance(ctx context.Context, accountID int64, balance float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, accountID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Setting the same balance twice affects zero rows on MySQL; only a
		// genuinely unknown account is an error.
		var exists int
		if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM accounts WHERE id = ?`, accountID); err == nil && exists == 0 {
			return fmt.Errorf("account %d not found", accountID)
		}
	}
	return nil
}
