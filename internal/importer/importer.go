// Package importer wires the import pipeline together: extract raw rows
// from the uploaded file, normalize them into canonical transactions, drop
// the ones the ledger already holds, insert the rest in chronological
// order, and report near-duplicates for human resolution. Data flows
// strictly forward; the ledger is the only collaborator consulted.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/statement-import/internal/dedup"
	"github.com/insightdelivered/statement-import/internal/extractor"
	"github.com/insightdelivered/statement-import/internal/layout"
	"github.com/insightdelivered/statement-import/internal/ledger"
	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/normalize"
	"github.com/insightdelivered/statement-import/internal/reconcile"
	"github.com/insightdelivered/statement-import/internal/tabular"
)

// Request describes one file to import.
type Request struct {
	AccountID int64
	// Provider selects the extractor+normalizer pair. Leave empty to detect
	// it from the file content.
	Provider models.Provider
	Filename string
	Data     []byte

	// SubAccounts routes a product sub-stream to its own account. Products
	// without an entry import into AccountID.
	SubAccounts map[string]int64

	// Progress callbacks, invoked synchronously from inside the parse
	// loop. Either may be nil.
	OnProgress func(current, total int)
	OnStatus   func(message string)
}

// Importer runs imports against one ledger.
type Importer struct {
	store     ledger.Ledger
	log       *logrus.Logger
	tolerance float64
}

// New builds an importer with the default reconciliation tolerance.
func New(store ledger.Ledger, log *logrus.Logger) *Importer {
	return &Importer{store: store, log: log, tolerance: reconcile.AmountTolerance}
}

// WithTolerance overrides the possible-duplicate amount tolerance.
func (imp *Importer) WithTolerance(t float64) *Importer {
	imp.tolerance = t
	return imp
}

// IsParseFailure reports whether an import error is a malformed-input
// failure (no header, unmappable header) rather than a ledger failure.
// Parse failures happen before any ledger mutation.
func IsParseFailure(err error) bool {
	return errors.Is(err, layout.ErrNoHeader) ||
		errors.Is(err, tabular.ErrHeaderUnmapped) ||
		errors.Is(err, ErrUnknownProvider)
}

// Import runs the whole pipeline for one file. Rows are inserted in
// ascending date order so a partially failed import leaves a
// chronologically consistent prefix, and the content hash makes retrying
// the whole call safe.
func (imp *Importer) Import(ctx context.Context, req Request) (*models.ImportResult, error) {
	if req.Provider == "" {
		status(req, "Detecting statement provider")
		provider, err := DetectProvider(req.Filename, req.Data)
		if err != nil {
			return nil, err
		}
		req.Provider = provider
	}

	streams, dropped, err := imp.extract(req)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{Provider: req.Provider, Dropped: dropped}

	// Sub-streams import as independent sequential batches; the second
	// stream only starts once the first has fully completed.
	for _, stream := range streams {
		accountID := req.AccountID
		if id, ok := req.SubAccounts[stream.Product]; ok {
			accountID = id
		}

		sr, nDropped, err := imp.importStream(ctx, req, accountID, stream)
		if err != nil {
			return nil, err
		}
		result.Dropped += nDropped
		result.Streams = append(result.Streams, sr)
	}

	return result, nil
}

// extract turns the file bytes into raw row streams, per provider kind.
func (imp *Importer) extract(req Request) ([]tabular.Stream, int, error) {
	if req.Provider.IsPDF() {
		profile, ok := layout.ProfileFor(req.Provider)
		if !ok {
			return nil, 0, fmt.Errorf("no layout profile for provider %q", req.Provider)
		}

		status(req, "Extracting pages")
		pages, err := extractor.ExtractPages(req.Data, extractor.Options{
			FooterBand: profile.FooterBand,
			OnProgress: req.OnProgress,
		})
		if err != nil {
			return nil, 0, err
		}

		status(req, "Detecting table layout")
		res, err := layout.New(profile).Extract(pages)
		if err != nil {
			return nil, 0, err
		}
		return []tabular.Stream{{Rows: res.Rows, FinalBalance: res.FinalBalance}}, 0, nil
	}

	status(req, "Reading export")
	var header []string
	var body [][]string
	var err error
	if tabular.IsWorkbook(req.Filename, req.Data) {
		header, body, err = tabular.ReadWorkbook(req.Data)
	} else {
		header, body, err = tabular.ReadCSV(req.Data)
	}
	if err != nil {
		return nil, 0, err
	}

	status(req, "Mapping columns")
	res, err := tabular.Extract(header, body, req.OnProgress)
	if err != nil {
		return nil, 0, err
	}
	return res.Streams, res.Dropped, nil
}

// importStream normalizes, deduplicates, inserts and reconciles one account
// stream.
func (imp *Importer) importStream(ctx context.Context, req Request, accountID int64, stream tabular.Stream) (models.StreamResult, int, error) {
	norm := normalize.New(req.Provider)

	status(req, "Normalizing transactions")
	candidates := make([]models.ImportedTransaction, 0, len(stream.Rows))
	dropped := 0
	for _, row := range stream.Rows {
		tx, ok := norm.Normalize(row, accountID)
		if !ok {
			dropped++
			continue
		}
		candidates = append(candidates, tx)
	}
	if dropped > 0 {
		imp.log.WithFields(logrus.Fields{
			"account": accountID,
			"dropped": dropped,
		}).Info("rows dropped during normalization")
	}

	// ISO dates sort lexicographically; the stable sort keeps same-day rows
	// in statement order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date < candidates[j].Date
	})

	status(req, "Checking for already imported transactions")
	fresh, err := dedup.FilterNew(ctx, imp.store, accountID, candidates)
	if err != nil {
		return models.StreamResult{}, dropped, err
	}

	sr := models.StreamResult{
		Product:      stream.Product,
		AccountID:    accountID,
		Skipped:      len(candidates) - len(fresh),
		FinalBalance: stream.FinalBalance,
		Transactions: fresh,
	}

	status(req, "Saving transactions")
	inserted, err := imp.store.InsertBatch(ctx, accountID, toLedgerRows(accountID, fresh))
	if err != nil {
		// No rollback here: rows already inserted stay, and the content
		// hash makes retrying the whole import safe.
		return models.StreamResult{}, dropped, fmt.Errorf("insert batch: %w", err)
	}
	sr.Imported = len(inserted)

	if stream.FinalBalance != nil {
		if err := imp.store.UpdateAccountBalance(ctx, accountID, *stream.FinalBalance); err != nil {
			return models.StreamResult{}, dropped, fmt.Errorf("update balance: %w", err)
		}
	}

	status(req, "Looking for possible duplicates")
	pairs, err := reconcile.FindPossibleDuplicatesWithin(ctx, imp.store, accountID, inserted, imp.tolerance)
	if err != nil {
		return models.StreamResult{}, dropped, err
	}
	sr.Duplicates = pairs

	imp.log.WithFields(logrus.Fields{
		"account":    accountID,
		"product":    stream.Product,
		"imported":   sr.Imported,
		"skipped":    sr.Skipped,
		"duplicates": len(pairs),
	}).Info("stream imported")

	return sr, dropped, nil
}

func toLedgerRows(accountID int64, txs []models.ImportedTransaction) []ledger.Transaction {
	rows := make([]ledger.Transaction, len(txs))
	for i, tx := range txs {
		rows[i] = ledger.Transaction{
			AccountID:    accountID,
			Date:         tx.Date,
			Amount:       tx.Amount,
			Type:         string(tx.Type),
			Description:  tx.Description,
			ExternalHash: tx.ExternalHash,
		}
	}
	return rows
}

func status(req Request, msg string) {
	if req.OnStatus != nil {
		req.OnStatus(msg)
	}
}
