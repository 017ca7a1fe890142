package normalize

import (
	"testing"

	"github.com/insightdelivered/statement-import/internal/models"
)

func TestNormalizeRevolutCardPayment(t *testing.T) {
	n := New(models.ProviderRevolut)

	tx, ok := n.Normalize(models.TableRow{
		TypeLabel:   "CARD_PAYMENT",
		Product:     "Actual",
		Date:        "2024-03-01",
		Description: "Coffee Shop",
		Amount:      "-4.50",
		Status:      "COMPLETED",
	}, 1)
	if !ok {
		t.Fatal("row was dropped")
	}

	if tx.Date != "2024-03-01" {
		t.Errorf("Date = %q, want 2024-03-01", tx.Date)
	}
	if tx.Amount != 4.50 {
		t.Errorf("Amount = %v, want 4.50", tx.Amount)
	}
	if tx.Type != models.TypeExpense {
		t.Errorf("Type = %q, want Expense", tx.Type)
	}
	if tx.Description != "Coffee Shop" {
		t.Errorf("Description = %q, want Coffee Shop", tx.Description)
	}
	if len(tx.ExternalHash) != 64 {
		t.Errorf("ExternalHash length = %d, want 64", len(tx.ExternalHash))
	}
}

func TestNormalizeDirection(t *testing.T) {
	tests := []struct {
		name       string
		row        models.TableRow
		wantAmount float64
		wantType   models.TransactionType
	}{
		{
			name:       "incoming column",
			row:        models.TableRow{Date: "2024-01-15", Incoming: "1.234,56", Description: "Ordenado"},
			wantAmount: 1234.56,
			wantType:   models.TypeIncome,
		},
		{
			name:       "outgoing column",
			row:        models.TableRow{Date: "2024-01-15", Outgoing: "45,10", Description: "Compra Continente"},
			wantAmount: 45.10,
			wantType:   models.TypeExpense,
		},
		{
			name:       "signed amount negative",
			row:        models.TableRow{Date: "2024-01-15", Amount: "-12.30", Description: "Groceries"},
			wantAmount: 12.30,
			wantType:   models.TypeExpense,
		},
		{
			name:       "signed amount positive",
			row:        models.TableRow{Date: "2024-01-15", Amount: "250.00", Description: "Transfer from Jane"},
			wantAmount: 250.00,
			wantType:   models.TypeIncome,
		},
		{
			name:       "fee folded into net",
			row:        models.TableRow{Date: "2024-01-15", Amount: "-10.00", Fee: "0.50", Description: "Exchange to USD"},
			wantAmount: 10.50,
			wantType:   models.TypeExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(models.ProviderRevolut)
			tx, ok := n.Normalize(tt.row, 1)
			if !ok {
				t.Fatal("row was dropped")
			}
			if tx.Amount != tt.wantAmount {
				t.Errorf("Amount = %v, want %v", tx.Amount, tt.wantAmount)
			}
			if tx.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tx.Type, tt.wantType)
			}
			if tx.Amount <= 0 {
				t.Errorf("Amount must be positive, got %v", tx.Amount)
			}
		})
	}
}

func TestNormalizeDropsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  models.TableRow
	}{
		{"zero amount", models.TableRow{Date: "2024-01-15", Amount: "0.00", Description: "x"}},
		{"unparseable amount", models.TableRow{Date: "2024-01-15", Amount: "n/a", Description: "x"}},
		{"no money columns", models.TableRow{Date: "2024-01-15", Description: "x"}},
		{"missing date", models.TableRow{Amount: "-4.50", Description: "x"}},
		{"invalid calendar date", models.TableRow{Date: "2024-02-31", Amount: "-4.50", Description: "x"}},
		{"garbage date", models.TableRow{Date: "soon", Amount: "-4.50", Description: "x"}},
		{"negative incoming", models.TableRow{Date: "2024-01-15", Incoming: "-5.00", Description: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(models.ProviderRevolut)
			if _, ok := n.Normalize(tt.row, 1); ok {
				t.Error("expected row to be dropped")
			}
		})
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	tests := []struct {
		cell string
		want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"01-03-2024", "2024-03-01"},
		{"01/03/2024", "2024-03-01"},
		{"01.03.2024", "2024-03-01"},
		{"2024-03-01 10:31:12", "2024-03-01"},
		// PDF cells can bucket a movement date and a value date together.
		{"01.03.2024 02.03.2024", "2024-03-01"},
	}

	for _, tt := range tests {
		n := New(models.ProviderRevolut)
		tx, ok := n.Normalize(models.TableRow{Date: tt.cell, Amount: "-4.50", Description: "x"}, 1)
		if !ok {
			t.Errorf("Normalize dropped date %q", tt.cell)
			continue
		}
		if tx.Date != tt.want {
			t.Errorf("date %q normalized to %q, want %q", tt.cell, tx.Date, tt.want)
		}
	}
}

func TestDescribeRules(t *testing.T) {
	tests := []struct {
		name     string
		provider models.Provider
		row      models.TableRow
		want     string
	}{
		{"revolut transfer", models.ProviderRevolut,
			models.TableRow{Description: "Transfer from john doe"}, "Transfer - John Doe"},
		{"revolut merchant noise", models.ProviderRevolut,
			models.TableRow{Description: "Card payment at TESCO STORES 3412"}, "Tesco Stores"},
		{"revolut top up", models.ProviderRevolut,
			models.TableRow{Description: "Top-up via card"}, "Top Up"},
		{"montepio salary", models.ProviderMontepio,
			models.TableRow{Description: "ORDENADO MARCO"}, "Salary"},
		{"montepio transfer accented", models.ProviderMontepio,
			models.TableRow{Description: "TRANSFERÊNCIA PARA MARIA SILVA"}, "Transfer - Maria Silva"},
		{"montepio atm", models.ProviderMontepio,
			models.TableRow{Description: "LEV.ATM CONTINENTE"}, "ATM Withdrawal"},
		{"trade republic interest", models.ProviderTradeRepublic,
			models.TableRow{Description: "Interest Payment March"}, "Interest"},
		{"no rule falls back to title case", models.ProviderRevolut,
			models.TableRow{Description: "some unusual text"}, "Some Unusual Text"},
		{"empty description falls back to label", models.ProviderRevolut,
			models.TableRow{TypeLabel: "TOPUP"}, "Topup"},
		{"nothing at all", models.ProviderRevolut,
			models.TableRow{}, "Transaction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.provider)
			got := n.describe(tt.row)
			if got != tt.want {
				t.Errorf("describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeHashBindsAccount(t *testing.T) {
	n := New(models.ProviderRevolut)
	row := models.TableRow{Date: "2024-03-01", Amount: "-4.50", Description: "Coffee Shop"}

	tx1, _ := n.Normalize(row, 1)
	tx2, _ := n.Normalize(row, 2)
	if tx1.ExternalHash == tx2.ExternalHash {
		t.Error("same row under different accounts must hash differently")
	}

	again, _ := n.Normalize(row, 1)
	if tx1.ExternalHash != again.ExternalHash {
		t.Error("same row under the same account must hash identically")
	}
}
