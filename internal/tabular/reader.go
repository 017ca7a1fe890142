package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadCSV splits raw CSV bytes into a header row and body rows. Records may
// have ragged lengths (trailing blank columns are common in exports) and a
// UTF-8 BOM is tolerated.
func ReadCSV(data []byte) (header []string, body [][]string, err error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	for {
		record, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("read CSV: %w", readErr)
		}
		if header == nil {
			if isBlankRow(record) {
				continue
			}
			header = record
			continue
		}
		body = append(body, record)
	}

	if header == nil {
		return nil, nil, fmt.Errorf("CSV file contains no header row")
	}
	return header, body, nil
}

// ReadWorkbook reads the first sheet of an XLSX workbook into a header row
// and body rows. Cell values arrive as the formatted strings excelize
// produces; date cells formatted as numbers surface as serials and are
// handled downstream.
func ReadWorkbook(data []byte) (header []string, body [][]string, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook contains no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	for _, row := range rows {
		if header == nil {
			if isBlankRow(row) {
				continue
			}
			header = row
			continue
		}
		body = append(body, row)
	}

	if header == nil {
		return nil, nil, fmt.Errorf("workbook contains no header row")
	}
	return header, body, nil
}

// IsWorkbook sniffs whether a file is an XLSX workbook (a ZIP container)
// rather than plain delimited text.
func IsWorkbook(filename string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return true
	}
	return len(data) >= 4 && bytes.Equal(data[:4], []byte{'P', 'K', 0x03, 0x04})
}
