package layout

import "github.com/insightdelivered/statement-import/internal/models"

// Profile describes how one provider's PDF statements are laid out: which
// header words identify the table columns, which marker phrases gate the
// transaction section, and where running footers sit. All token lists are
// matched against folded text (lower case, accents stripped), so one entry
// covers every capitalisation and accent variant.
type Profile struct {
	Name string

	// Header tokens. A line is the table header when it contains a date
	// token, a description token and a balance token.
	DateTokens        []string
	TypeTokens        []string
	DescriptionTokens []string
	IncomingTokens    []string
	OutgoingTokens    []string
	// NeutralMoneyTokens name a single header that spans both money columns
	// (e.g. "movimentos"). When present, its centre is the boundary between
	// incoming and outgoing.
	NeutralMoneyTokens []string
	BalanceTokens      []string

	// Section gate markers. Empty SectionStart means the whole body is the
	// transaction table.
	SectionStart []string
	SectionEnd   []string

	// BalanceOverviewMarkers identify a dedicated closing-balance page. The
	// last currency-formatted number on such a page is the statement's final
	// balance.
	BalanceOverviewMarkers []string

	// FooterBand is the height of the running footer, in PDF units.
	FooterBand float64
}

// MontepioProfile matches Portuguese retail statements with the classic
// six-column table (data, tipo, descrição, entradas, saídas, saldo) and a
// header repeated on every page.
var MontepioProfile = Profile{
	Name:              "montepio",
	DateTokens:        []string{"data", "data mov", "date"},
	TypeTokens:        []string{"tipo", "type"},
	DescriptionTokens: []string{"descricao", "descritivo", "description"},
	IncomingTokens:    []string{"entradas", "credito", "paid in", "money in"},
	OutgoingTokens:    []string{"saidas", "debito", "paid out", "money out"},
	BalanceTokens:     []string{"saldo", "balance"},
	FooterBand:        40,
}

// TradeRepublicProfile matches broker statements where the cash table is
// embedded between unrelated securities/crypto sections and the closing
// balance lives on a separate overview page.
var TradeRepublicProfile = Profile{
	Name:               "traderepublic",
	DateTokens:         []string{"date", "datum", "data"},
	DescriptionTokens:  []string{"description", "beschreibung", "descricao"},
	IncomingTokens:     []string{"incoming", "money in", "zufluss"},
	OutgoingTokens:     []string{"outgoing", "money out", "abfluss"},
	NeutralMoneyTokens: []string{"payments", "zahlungen", "movimentos"},
	BalanceTokens:      []string{"balance", "saldo", "kontostand"},
	SectionStart:       []string{"cash account transactions", "kontotransaktionen"},
	SectionEnd: []string{
		"securities transactions", "wertpapierabrechnung",
		"portfolio overview", "depotubersicht",
		"crypto transactions", "kryptotransaktionen",
	},
	BalanceOverviewMarkers: []string{"balance overview", "kontostandsubersicht"},
	FooterBand:             55,
}

// ProfileFor returns the layout profile for a PDF provider.
func ProfileFor(p models.Provider) (Profile, bool) {
	switch p {
	case models.ProviderMontepio:
		return MontepioProfile, true
	case models.ProviderTradeRepublic:
		return TradeRepublicProfile, true
	}
	return Profile{}, false
}
