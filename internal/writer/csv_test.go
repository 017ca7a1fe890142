package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-import/internal/models"
)

func sampleResult() *models.ImportResult {
	return &models.ImportResult{
		Provider: models.ProviderRevolut,
		Streams: []models.StreamResult{
			{
				Product: "Actual",
				Transactions: []models.ImportedTransaction{
					{Date: "2024-03-01", Amount: 4.50, Type: models.TypeExpense, Description: "Coffee Shop", ExternalHash: "abc123"},
					{Date: "2024-03-02", Amount: 1200, Type: models.TypeIncome, Description: "Salary", ExternalHash: "def456"},
				},
			},
		},
		Dropped: 2,
	}
}

func TestCSVWriterWrite(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want 3", len(lines))
	}
	if lines[0] != "Product,Date,Description,Type,Amount,Hash" {
		t.Errorf("header: got %q", lines[0])
	}
	if !strings.Contains(lines[1], "2024-03-01,Coffee Shop,Expense,4.50") {
		t.Errorf("row: got %q", lines[1])
	}
}

func TestCSVWriterSummary(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeSummary: true}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"# Provider,revolut", "# Rows skipped,2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
