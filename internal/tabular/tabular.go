// Package tabular converts delimited statement exports (CSV or spreadsheet)
// into raw table rows. Provider header names in any supported locale are
// fuzzy-matched onto canonical fields, corrupted encodings are repaired
// opportunistically, and rows are partitioned into one stream per product
// so that a single export covering several sub-accounts imports cleanly.
package tabular

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/textutil"
)

// ErrHeaderUnmapped means fewer than minCanonicalFields header cells could
// be resolved to canonical fields. Partial mappings are tolerated because
// some providers omit optional columns; a file this unmappable is rejected
// before any row is parsed.
var ErrHeaderUnmapped = errors.New("statement header could not be mapped to canonical columns")

// minCanonicalFields is the smallest number of resolved canonical fields a
// header must yield for the file to be parseable at all.
const minCanonicalFields = 3

// headerDictionary maps folded header names (source locale and English) to
// canonical fields. Folding handles case, accents and separator variants,
// so each entry covers many spellings.
var headerDictionary = map[string]models.CanonicalField{
	"type":             models.FieldType,
	"tipo":             models.FieldType,
	"transaction type": models.FieldType,

	"product": models.FieldProduct,
	"produto": models.FieldProduct,

	"started date":   models.FieldStartDate,
	"start date":     models.FieldStartDate,
	"data de inicio": models.FieldStartDate,
	"data inicio":    models.FieldStartDate,
	"date":           models.FieldStartDate,
	"data":           models.FieldStartDate,

	"completed date":    models.FieldEndDate,
	"data de conclusao": models.FieldEndDate,
	"data conclusao":    models.FieldEndDate,

	"description": models.FieldDescription,
	"descricao":   models.FieldDescription,
	"descritivo":  models.FieldDescription,

	"amount":   models.FieldAmount,
	"montante": models.FieldAmount,
	"valor":    models.FieldAmount,

	"fee":  models.FieldFee,
	"taxa": models.FieldFee,

	"currency": models.FieldCurrency,
	"moeda":    models.FieldCurrency,

	"state":  models.FieldStatus,
	"status": models.FieldStatus,
	"estado": models.FieldStatus,

	"balance": models.FieldBalance,
	"saldo":   models.FieldBalance,
}

// completedStatuses are the status values (folded) of settled transactions.
// Pending and reversed rows are excluded from import entirely.
var completedStatuses = map[string]bool{
	"completed": true,
	"concluido": true,
	"concluida": true,
}

// Stream is the rows belonging to one product sub-account, sorted by date,
// with that product's most recent balance as the trailing balance.
type Stream struct {
	Product      string
	Rows         []models.TableRow
	FinalBalance *float64
}

// Result is the outcome of extracting one delimited file.
type Result struct {
	Mapping models.HeaderMapping
	Streams []Stream
	// Dropped counts rows discarded for unparseable dates or amounts.
	// Dropping is silent per row but observable in aggregate.
	Dropped int
	// Filtered counts rows excluded by status (pending, reversed).
	Filtered int
}

// MapHeader resolves a header row to a canonical field mapping. Every cell
// is folded and looked up in the dictionary; cells that resolve to nothing
// are simply absent from the mapping.
func MapHeader(headerRow []string) (models.HeaderMapping, error) {
	mapping := make(models.HeaderMapping)
	seen := make(map[models.CanonicalField]bool)
	for i, cell := range headerRow {
		folded := textutil.Fold(textutil.FixMojibake(cell))
		if field, ok := headerDictionary[folded]; ok && !seen[field] {
			mapping[i] = field
			seen[field] = true
		}
	}
	if len(seen) < minCanonicalFields {
		return nil, fmt.Errorf("%w: resolved %d of %d required fields", ErrHeaderUnmapped, len(seen), minCanonicalFields)
	}
	return mapping, nil
}

// Extract converts a header row plus body rows into per-product streams.
// onProgress, when set, is invoked synchronously once per body row.
func Extract(headerRow []string, bodyRows [][]string, onProgress func(current, total int)) (Result, error) {
	mapping, err := MapHeader(headerRow)
	if err != nil {
		return Result{}, err
	}

	res := Result{Mapping: mapping}
	byProduct := make(map[string][]models.TableRow)
	var productOrder []string

	for i, cells := range bodyRows {
		if onProgress != nil {
			onProgress(i+1, len(bodyRows))
		}

		row, ok := buildRow(mapping, cells)
		if !ok {
			if !isBlankRow(cells) {
				res.Dropped++
			}
			continue
		}
		if row.Status != "" && !completedStatuses[textutil.Fold(row.Status)] {
			res.Filtered++
			continue
		}

		if _, exists := byProduct[row.Product]; !exists {
			productOrder = append(productOrder, row.Product)
		}
		byProduct[row.Product] = append(byProduct[row.Product], row)
	}

	for _, product := range productOrder {
		rows := byProduct[product]
		// Stable sort keeps same-day rows in file order.
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Date < rows[b].Date })

		stream := Stream{Product: product, Rows: rows}
		if bal := trailingBalance(rows); bal != nil {
			stream.FinalBalance = bal
		}
		res.Streams = append(res.Streams, stream)
	}

	return res, nil
}

// buildRow maps one raw record onto a TableRow. Rows whose date or amount
// cell fails to parse are rejected (trailing blank lines and subtotal rows
// are common in exports and must not kill the import).
func buildRow(mapping models.HeaderMapping, cells []string) (models.TableRow, bool) {
	var row models.TableRow
	for i, cell := range cells {
		field, ok := mapping[i]
		if !ok {
			continue
		}
		cell = strings.TrimSpace(textutil.FixMojibake(cell))
		switch field {
		case models.FieldType:
			row.TypeLabel = cell
		case models.FieldProduct:
			row.Product = cell
		case models.FieldStartDate:
			row.Date = cell
		case models.FieldEndDate:
			// Completion date is informational; the started date keys the
			// transaction.
		case models.FieldDescription:
			row.Description = cell
		case models.FieldAmount:
			row.Amount = cell
		case models.FieldFee:
			row.Fee = cell
		case models.FieldCurrency:
			row.Currency = cell
		case models.FieldStatus:
			row.Status = cell
		case models.FieldBalance:
			row.Balance = cell
		}
	}

	// Spreadsheet engines store dates as day counts; a bare number in the
	// plausible epoch range is a serial date, not a malformed text date.
	if iso, ok := textutil.SerialDate(row.Date); ok {
		row.Date = iso
	} else if iso, err := textutil.ParseDate(row.Date); err == nil {
		row.Date = iso
	} else {
		return row, false
	}

	if _, err := textutil.ParseAmount(row.Amount); err != nil {
		return row, false
	}
	return row, true
}

// trailingBalance is the balance of the most recent row that carries one.
func trailingBalance(rows []models.TableRow) *float64 {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Balance == "" {
			continue
		}
		if v, err := textutil.ParseAmount(rows[i].Balance); err == nil {
			return &v
		}
	}
	return nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
