// Package dedup gives every normalized transaction a content-addressed
// fingerprint and filters out candidates the ledger already holds. The hash
// is a pure function of account, date, amount and description — never of
// import time or source file — so re-importing the same statement is a
// no-op by construction.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/insightdelivered/statement-import/internal/ledger"
	"github.com/insightdelivered/statement-import/internal/models"
)

// Hash computes the stable 64-hex-character fingerprint of a transaction.
// The amount is fixed to two decimals so float formatting noise cannot
// change the digest.
func Hash(accountID int64, date string, amount float64, description string) string {
	payload := fmt.Sprintf("%d|%s|%.2f|%s", accountID, date, amount, description)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// FilterNew returns the candidates whose hash is not yet present among the
// account's ledger transactions. Existence is resolved with one batched
// query over the candidate hash set, not a query per row.
func FilterNew(ctx context.Context, store ledger.Ledger, accountID int64, candidates []models.ImportedTransaction) ([]models.ImportedTransaction, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	hashes := make([]string, len(candidates))
	for i, c := range candidates {
		hashes[i] = c.ExternalHash
	}

	existing, err := store.ListByAccountAndHashes(ctx, accountID, hashes)
	if err != nil {
		return nil, fmt.Errorf("hash existence check: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, tx := range existing {
		known[tx.ExternalHash] = true
	}

	fresh := make([]models.ImportedTransaction, 0, len(candidates))
	for _, c := range candidates {
		if !known[c.ExternalHash] {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}
