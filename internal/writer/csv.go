// Package writer renders import previews. The UI shows the user what a
// statement parsed into before (and after) the rows hit the ledger; this
// CSV form is also what "download parsed transactions" serves.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/insightdelivered/statement-import/internal/models"
)

// CSVWriter writes normalized transactions as CSV.
type CSVWriter struct {
	// IncludeSummary adds provider and count header rows before the data.
	IncludeSummary bool
}

// Write renders one import result to the given writer.
func (w *CSVWriter) Write(out io.Writer, result *models.ImportResult) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeSummary {
		cw.Write([]string{"# Provider", string(result.Provider)})
		cw.Write([]string{"# Streams", strconv.Itoa(len(result.Streams))})
		if result.Dropped > 0 {
			cw.Write([]string{"# Rows skipped", strconv.Itoa(result.Dropped)})
		}
	}

	header := []string{"Product", "Date", "Description", "Type", "Amount", "Hash"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, stream := range result.Streams {
		for _, tx := range stream.Transactions {
			row := []string{
				stream.Product,
				tx.Date,
				tx.Description,
				string(tx.Type),
				strconv.FormatFloat(tx.Amount, 'f', 2, 64),
				tx.ExternalHash,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
	}

	return nil
}
