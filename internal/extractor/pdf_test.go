package extractor

import (
	"strings"
	"testing"

	"github.com/insightdelivered/statement-import/internal/models"
)

func pageOf(texts ...string) models.Page {
	var frags []models.TextFragment
	for i, s := range texts {
		frags = append(frags, models.TextFragment{Text: s, X: float64(i * 50), Y: 700, Width: 40, Height: 10})
	}
	return models.Page{Fragments: frags}
}

func TestIsReadable(t *testing.T) {
	tests := []struct {
		name     string
		pages    []models.Page
		expected bool
	}{
		{
			name: "normal statement text",
			pages: []models.Page{pageOf(
				"Account Statement", "Date", "Description", "Balance",
				"01/02/2024", "CARD PAYMENT COFFEE SHOP", "4.50", "1,234.56",
			)},
			expected: true,
		},
		{
			name: "portuguese statement text",
			pages: []models.Page{pageOf(
				"Extrato de Movimentos", "Data", "Descrição", "Saldo",
				"01.02.2024", "COMPRA CONTINENTE", "23,10", "1.234,56",
			)},
			expected: true,
		},
		{
			name:     "too short",
			pages:    []models.Page{pageOf("Balance")},
			expected: false,
		},
		{
			name: "garbage from identity-encoded font",
			pages: []models.Page{pageOf(
				strings.Repeat("", 30),
			)},
			expected: false,
		},
		{
			name: "readable but no statement words",
			pages: []models.Page{pageOf(
				"lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor",
			)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadable(tt.pages); got != tt.expected {
				t.Errorf("isReadable: got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTextQuality(t *testing.T) {
	if q := textQuality("plain readable text 123"); q < 0.99 {
		t.Errorf("expected high quality for readable text, got %f", q)
	}
	if q := textQuality(""); q != 0 {
		t.Errorf("expected zero quality for control characters, got %f", q)
	}
	if q := textQuality(""); q != 0 {
		t.Errorf("expected zero quality for empty input, got %f", q)
	}
}

func TestExtractPagesRejectsGarbage(t *testing.T) {
	if _, err := ExtractPages([]byte("not a pdf at all"), Options{}); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}
