// Package normalize converts raw extracted table rows into canonical
// ImportedTransaction values: ISO date, positive amount with an explicit
// direction, a human-readable description, and the content hash that makes
// the transaction addressable. A row that cannot produce all four is
// dropped, never half-normalized.
package normalize

import (
	"strings"

	"github.com/insightdelivered/statement-import/internal/dedup"
	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/textutil"
)

// Normalizer rewrites one provider's rows. Instances are stateless and safe
// to share.
type Normalizer struct {
	provider models.Provider
	rules    []rule
}

// New returns the normalizer for a provider.
func New(provider models.Provider) *Normalizer {
	return &Normalizer{provider: provider, rules: rulesFor(provider)}
}

// Normalize converts a raw row into a canonical transaction for the given
// account. Returns false for rows that must be dropped: zero or unparseable
// amount, unparseable date. The returned transaction always has amount > 0,
// a valid YYYY-MM-DD date, a non-empty description and its external hash.
func (n *Normalizer) Normalize(row models.TableRow, accountID int64) (models.ImportedTransaction, bool) {
	date, ok := parseRowDate(row.Date)
	if !ok {
		return models.ImportedTransaction{}, false
	}

	amount, txType, ok := n.amountAndDirection(row)
	if !ok {
		return models.ImportedTransaction{}, false
	}

	tx := models.ImportedTransaction{
		Date:        date,
		Amount:      amount,
		Type:        txType,
		Description: n.describe(row),
	}
	tx.ExternalHash = dedup.Hash(accountID, tx.Date, tx.Amount, tx.Description)
	return tx, true
}

// amountAndDirection reads the money columns. Direction comes from which
// column is populated (PDF path) or from the sign of the single amount
// column (delimited path) — never from sign conventions inside free text.
// The resulting amount is always positive; zero-amount rows are dropped.
func (n *Normalizer) amountAndDirection(row models.TableRow) (float64, models.TransactionType, bool) {
	switch {
	case row.Incoming != "":
		v, err := textutil.ParseAmount(row.Incoming)
		if err != nil || v <= 0 {
			return 0, "", false
		}
		return v, models.TypeIncome, true

	case row.Outgoing != "":
		v, err := textutil.ParseAmount(row.Outgoing)
		if err != nil || v <= 0 {
			return 0, "", false
		}
		return v, models.TypeExpense, true

	case row.Amount != "":
		v, err := textutil.ParseAmount(row.Amount)
		if err != nil {
			return 0, "", false
		}
		// The provider's fee is part of the transaction's effect on the
		// balance, so fold it into the net amount.
		if row.Fee != "" {
			if fee, feeErr := textutil.ParseAmount(row.Fee); feeErr == nil {
				v -= fee
			}
		}
		if v == 0 {
			return 0, "", false
		}
		if v < 0 {
			return -v, models.TypeExpense, true
		}
		return v, models.TypeIncome, true
	}
	return 0, "", false
}

// describe canonicalizes the description: the first matching provider rule
// wins, then title-cased raw text, then the raw type label, then a literal
// placeholder. A transaction is never produced with an empty description.
func (n *Normalizer) describe(row models.TableRow) string {
	raw := strings.TrimSpace(textutil.StripAccents(row.Description))
	for _, r := range n.rules {
		if m := r.pattern.FindStringSubmatch(raw); m != nil {
			if out := strings.TrimSpace(r.render(m)); out != "" {
				return out
			}
		}
	}
	if raw != "" {
		return textutil.Title(raw)
	}
	if label := strings.TrimSpace(row.TypeLabel); label != "" {
		return textutil.Title(textutil.StripAccents(label))
	}
	return "Transaction"
}

// parseRowDate handles date cells that carry extra tokens (the PDF path can
// bucket a movement date and a value date into one cell): the full cell is
// tried first, then leading token prefixes.
func parseRowDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", false
	}
	if iso, err := textutil.ParseDate(cell); err == nil {
		return iso, true
	}

	fields := strings.Fields(cell)
	// Month-name dates span up to three tokens.
	for width := 1; width <= 3 && width <= len(fields); width++ {
		if iso, err := textutil.ParseDate(strings.Join(fields[:width], " ")); err == nil {
			return iso, true
		}
	}
	return "", false
}
