// Package reconcile finds ledger rows that are suspiciously similar to
// freshly imported ones — same date, near-identical amount, different
// content hash — and exposes them as conflicts a human can resolve. This is
// the safety net behind the content hash: when a provider rewords the same
// underlying event between exports, the hash misses it and this stage
// catches it.
package reconcile

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/statement-import/internal/ledger"
	"github.com/insightdelivered/statement-import/internal/models"
)

// AmountTolerance is the exclusive bound on the amount difference between
// two transactions considered possible duplicates. Two cents absorbs the
// rounding and fee differences seen across provider exports. This is a
// tunable policy constant, not a semantic contract.
const AmountTolerance = 0.02

// FindPossibleDuplicates compares each inserted row against the account's
// pre-existing rows sharing its date. Rows inserted in this same batch are
// excluded by hash membership. A pair is reported when the dates match
// exactly and the amounts differ by strictly less than the tolerance.
// Quadratic in (inserted × same-date existing), which is fine: statement
// batches and same-day transaction counts are tens, not thousands.
func FindPossibleDuplicates(ctx context.Context, store ledger.Ledger, accountID int64, inserted []ledger.Transaction) ([]models.PossibleDuplicate, error) {
	return FindPossibleDuplicatesWithin(ctx, store, accountID, inserted, AmountTolerance)
}

// FindPossibleDuplicatesWithin is FindPossibleDuplicates with an explicit
// tolerance, for deployments that tune the policy constant.
func FindPossibleDuplicatesWithin(ctx context.Context, store ledger.Ledger, accountID int64, inserted []ledger.Transaction, tolerance float64) ([]models.PossibleDuplicate, error) {
	if len(inserted) == 0 {
		return nil, nil
	}

	dateSet := make(map[string]bool)
	batchHashes := make(map[string]bool, len(inserted))
	for _, tx := range inserted {
		dateSet[tx.Date] = true
		batchHashes[tx.ExternalHash] = true
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	existing, err := store.ListByAccountAndDates(ctx, accountID, dates)
	if err != nil {
		return nil, fmt.Errorf("same-date lookup: %w", err)
	}

	var pairs []models.PossibleDuplicate
	for _, in := range inserted {
		for _, ex := range existing {
			if batchHashes[ex.ExternalHash] {
				continue // part of this very batch, not a pre-existing row
			}
			if ex.Date != in.Date {
				continue
			}
			if !withinTolerance(ex.Amount, in.Amount, tolerance) {
				continue
			}
			pairs = append(pairs, models.PossibleDuplicate{
				Incoming: models.TransactionRef{
					ID:           in.ID,
					Date:         in.Date,
					Amount:       in.Amount,
					Description:  in.Description,
					ExternalHash: in.ExternalHash,
				},
				Existing: models.TransactionRef{
					ID:          ex.ID,
					Date:        ex.Date,
					Amount:      ex.Amount,
					Description: ex.Description,
				},
			})
		}
	}
	return pairs, nil
}

// toleranceEpsilon absorbs float64 representation noise at the tolerance
// boundary: 10.02-10.00 evaluates just under 0.02, which would leak an
// exactly-at-tolerance pair through a plain < comparison.
const toleranceEpsilon = 1e-9

// withinTolerance reports whether two amounts differ by strictly less than
// the tolerance. The bound is exclusive: amounts exactly tolerance apart are
// not within it.
func withinTolerance(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance-toleranceEpsilon
}

// Action is what to do with one possible-duplicate pair.
type Action string

const (
	// ActionUndo deletes the incoming (freshly imported) side.
	ActionUndo Action = "undo"
	// ActionRemoveExisting deletes the existing side, treating the import
	// as authoritative.
	ActionRemoveExisting Action = "removeExisting"
	// ActionKeepBoth dismisses the pair with no ledger mutation.
	ActionKeepBoth Action = "keepBoth"
)

// ParseAction validates a wire-format action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionUndo, ActionRemoveExisting, ActionKeepBoth:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown resolution action %q", s)
}

// Resolver applies resolution actions against the ledger. All actions are
// idempotent and independently safe to retry.
type Resolver struct {
	store ledger.Ledger
	log   *logrus.Logger
}

// NewResolver builds a resolver over the given ledger.
func NewResolver(store ledger.Ledger, log *logrus.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// ResolvePair applies one action to one pair.
func (r *Resolver) ResolvePair(ctx context.Context, accountID int64, action Action, pair models.PossibleDuplicate) error {
	switch action {
	case ActionUndo:
		return r.store.DeleteTransaction(ctx, accountID, pair.Incoming.ID)
	case ActionRemoveExisting:
		return r.store.DeleteTransaction(ctx, accountID, pair.Existing.ID)
	case ActionKeepBoth:
		return nil
	}
	return fmt.Errorf("unknown resolution action %q", action)
}

// BulkResult reports a bulk resolution: how many pairs were applied and
// which failed. Per-pair failures do not abort the bulk operation.
type BulkResult struct {
	Resolved int                        `json:"resolved"`
	Failed   int                        `json:"failed"`
	Failures []models.PossibleDuplicate `json:"failures,omitempty"`
}

// ResolveBulk applies the same action to every pair sequentially. A failed
// pair is recorded and the remaining pairs are still attempted;
// already-applied actions stay committed.
func (r *Resolver) ResolveBulk(ctx context.Context, accountID int64, action Action, pairs []models.PossibleDuplicate) BulkResult {
	var res BulkResult
	for _, pair := range pairs {
		if err := r.ResolvePair(ctx, accountID, action, pair); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, pair)
			r.log.WithFields(logrus.Fields{
				"account":  accountID,
				"action":   action,
				"incoming": pair.Incoming.ID,
				"existing": pair.Existing.ID,
			}).WithError(err).Warn("duplicate resolution failed")
			continue
		}
		res.Resolved++
	}
	return res
}
