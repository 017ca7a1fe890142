package normalize

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/textutil"
)

// rule rewrites one provider phrasing into a human-readable description.
// Rules are tried in order; the first match wins.
type rule struct {
	pattern *regexp.Regexp
	render  func(m []string) string
}

func literal(s string) func([]string) string {
	return func([]string) string { return s }
}

func prefixed(prefix string) func([]string) string {
	return func(m []string) string { return prefix + textutil.Title(m[1]) }
}

// merchantNoise strips the store numbers, terminal IDs and masked card
// digits providers append to merchant names.
var merchantNoise = regexp.MustCompile(`[\s*#]*(?:\d{4,}|\*{3,}\d*)[\s*#]*`)

func merchant(m []string) string {
	name := merchantNoise.ReplaceAllString(m[1], " ")
	name = strings.Join(strings.Fields(name), " ")
	return textutil.Title(name)
}

// Revolut phrasing.
var revolutRules = []rule{
	{regexp.MustCompile(`(?i)^transfer (?:from|to) (.+)$`), prefixed("Transfer - ")},
	{regexp.MustCompile(`(?i)^(?:card payment|payment) (?:at|to) (.+)$`), merchant},
	{regexp.MustCompile(`(?i)^top[- ]?up(?:\s.*)?$`), literal("Top Up")},
	{regexp.MustCompile(`(?i)^(?:atm|cash) withdrawal(?:\s.*)?$`), literal("ATM Withdrawal")},
	{regexp.MustCompile(`(?i)^(?:gross )?interest(?:\s.*)?$`), literal("Interest")},
	{regexp.MustCompile(`(?i)^exchanged? (?:to|from) (.+)$`), prefixed("Exchange - ")},
	{regexp.MustCompile(`(?i)^refund (?:from|at) (.+)$`), prefixed("Refund - ")},
}

// Montepio phrasing (Portuguese retail statements). Patterns run against
// accent-stripped text, so "TRANSFERÊNCIA" matches "transferencia".
var montepioRules = []rule{
	{regexp.MustCompile(`(?i)^trf\.?\s*(?:p/|para)\s*(.+)$`), prefixed("Transfer - ")},
	{regexp.MustCompile(`(?i)^trf\.?\s*(?:de|recebida de)\s*(.+)$`), prefixed("Transfer - ")},
	{regexp.MustCompile(`(?i)^transferencia\s+(?:para|de)\s+(.+)$`), prefixed("Transfer - ")},
	{regexp.MustCompile(`(?i)^compra\s+(.+)$`), merchant},
	{regexp.MustCompile(`(?i)^(?:lev\.?\s*atm|levantamento)(?:\s.*)?$`), literal("ATM Withdrawal")},
	{regexp.MustCompile(`(?i)^juros(?:\s.*)?$`), literal("Interest")},
	{regexp.MustCompile(`(?i)^pag(?:amento)?\.?\s*(?:de\s*)?servicos?(?:\s.*)?$`), literal("Bill Payment")},
	{regexp.MustCompile(`(?i)^(?:dd|deb\.?\s*directo)\s+(.+)$`), prefixed("Direct Debit - ")},
	{regexp.MustCompile(`(?i)^ordenado(?:\s.*)?$`), literal("Salary")},
}

// Trade Republic phrasing.
var tradeRepublicRules = []rule{
	{regexp.MustCompile(`(?i)^card transaction (?:at )?(.+)$`), merchant},
	{regexp.MustCompile(`(?i)^interest payment(?:\s.*)?$`), literal("Interest")},
	{regexp.MustCompile(`(?i)^(?:deposit|top[- ]?up)(?:\s.*)?$`), literal("Deposit")},
	{regexp.MustCompile(`(?i)^withdrawal(?:\s.*)?$`), literal("Withdrawal")},
	{regexp.MustCompile(`(?i)^sepa (?:transfer|direct debit) (.+)$`), prefixed("Transfer - ")},
}

func rulesFor(p models.Provider) []rule {
	switch p {
	case models.ProviderRevolut:
		return revolutRules
	case models.ProviderMontepio:
		return montepioRules
	case models.ProviderTradeRepublic:
		return tradeRepublicRules
	}
	return nil
}
