package models

// Provider identifies the statement format a file was exported from.
type Provider string

const (
	ProviderMontepio      Provider = "montepio"
	ProviderTradeRepublic Provider = "traderepublic"
	ProviderRevolut       Provider = "revolut"
)

// IsPDF reports whether the provider produces PDF statements rather than
// delimited exports.
func (p Provider) IsPDF() bool {
	return p == ProviderMontepio || p == ProviderTradeRepublic
}

// TransactionType is the direction of a transaction. Direction is always
// carried here, never via the sign of the amount.
type TransactionType string

const (
	TypeIncome  TransactionType = "Income"
	TypeExpense TransactionType = "Expense"
)

// TextFragment is a single positioned glyph run from a PDF page.
// Coordinates are in PDF space (Y increases upward).
type TextFragment struct {
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Page is one PDF page worth of fragments. FooterBand is the height from the
// bottom of the page occupied by running footers; fragments inside it are
// not table content.
type Page struct {
	Fragments  []TextFragment
	FooterBand float64
}

// TableRow is a raw extracted row before normalization. The PDF path fills
// the fixed money columns; the delimited path fills whichever cells its
// header mapping resolved, with the signed amount in Amount.
type TableRow struct {
	Date        string
	TypeLabel   string
	Product     string
	Description string
	Incoming    string
	Outgoing    string
	Amount      string
	Fee         string
	Currency    string
	Status      string
	Balance     string
}

// ColumnBoundaries are the x-axis intervals of the detected table columns
// plus the Y of the header line. Everything below HeaderY (smaller Y) is
// table body. Recomputed whenever a later page repeats the header.
type ColumnBoundaries struct {
	Date        Interval
	Type        Interval
	Description Interval
	Incoming    Interval
	Outgoing    Interval
	Balance     Interval
	HeaderY     float64
}

// Interval is a half-open [Start, End) range along the x-axis.
type Interval struct {
	Start float64
	End   float64
}

// Contains reports whether x falls inside the interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Start && x < iv.End
}

// CanonicalField is one of the fixed logical columns a provider-specific
// header name can map onto.
type CanonicalField int

const (
	FieldUnknown CanonicalField = iota
	FieldType
	FieldProduct
	FieldStartDate
	FieldEndDate
	FieldDescription
	FieldAmount
	FieldFee
	FieldCurrency
	FieldStatus
	FieldBalance
)

func (f CanonicalField) String() string {
	switch f {
	case FieldType:
		return "type"
	case FieldProduct:
		return "product"
	case FieldStartDate:
		return "startDate"
	case FieldEndDate:
		return "endDate"
	case FieldDescription:
		return "description"
	case FieldAmount:
		return "amount"
	case FieldFee:
		return "fee"
	case FieldCurrency:
		return "currency"
	case FieldStatus:
		return "status"
	case FieldBalance:
		return "balance"
	}
	return "unknown"
}

// HeaderMapping maps a delimited file's column index to its canonical field.
type HeaderMapping map[int]CanonicalField

// ImportedTransaction is the canonical unit handed to the ledger.
// Amount is always > 0; Date is always a valid YYYY-MM-DD calendar date;
// ExternalHash is the 64-hex-char content hash over
// (accountID, date, amount, description).
type ImportedTransaction struct {
	Date         string          `json:"date"`
	Amount       float64         `json:"amount"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	ExternalHash string          `json:"externalHash"`
}

// TransactionRef is one side of a possible-duplicate pair.
type TransactionRef struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	ExternalHash string  `json:"externalHash,omitempty"`
}

// PossibleDuplicate pairs a freshly inserted transaction with a pre-existing
// ledger row that may refer to the same real-world event. It is a transient
// report scoped to one import session and is never persisted.
type PossibleDuplicate struct {
	Incoming TransactionRef `json:"incoming"`
	Existing TransactionRef `json:"existing"`
}

// StreamResult is the outcome of importing one logical account stream
// (a file yields one stream, or one per product for partitioned exports).
type StreamResult struct {
	Product      string                `json:"product,omitempty"`
	AccountID    int64                 `json:"accountId"`
	Imported     int                   `json:"imported"`
	Skipped      int                   `json:"skipped"`
	FinalBalance *float64              `json:"finalBalance,omitempty"`
	Transactions []ImportedTransaction `json:"transactions"`
	Duplicates   []PossibleDuplicate   `json:"duplicates"`
}

// ImportResult is what an import of a single file produces. Dropped counts
// rows discarded anywhere in the pipeline for row-level defects, so silent
// per-row dropping stays observable in aggregate.
type ImportResult struct {
	Provider Provider       `json:"provider"`
	Streams  []StreamResult `json:"streams"`
	Dropped  int            `json:"dropped"`
}
