package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-import/internal/extractor"
	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/tabular"
	"github.com/insightdelivered/statement-import/internal/textutil"
)

// ErrUnknownProvider means the file's content matched no supported provider.
var ErrUnknownProvider = errors.New("could not detect statement provider")

// pdfSignatures are folded marker phrases that identify a PDF provider. The
// provider with the most matching phrases wins; order breaks ties.
var pdfSignatures = []struct {
	provider models.Provider
	tokens   []string
}{
	{models.ProviderTradeRepublic, []string{
		"trade republic",
		"cash account transactions", "kontotransaktionen",
		"balance overview", "kontostandsubersicht",
	}},
	{models.ProviderMontepio, []string{
		"montepio",
		"caixa economica montepio geral",
		"extrato de conta",
	}},
}

// DetectProvider infers the statement provider from file content alone. PDF
// bytes are matched against per-provider marker phrases; delimited files are
// accepted as the export provider when their header maps to canonical
// columns. Explicit provider selection always bypasses this.
func DetectProvider(filename string, data []byte) (models.Provider, error) {
	if isPDF(data) {
		pages, err := extractor.ExtractPages(data, extractor.Options{})
		if err != nil {
			return "", err
		}
		if p, ok := matchPDFProvider(foldPages(pages)); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: PDF matches no supported bank", ErrUnknownProvider)
	}

	var header []string
	var err error
	if tabular.IsWorkbook(filename, data) {
		header, _, err = tabular.ReadWorkbook(data)
	} else {
		header, _, err = tabular.ReadCSV(data)
	}
	if err != nil {
		return "", err
	}
	if _, err := tabular.MapHeader(header); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownProvider, err)
	}
	return models.ProviderRevolut, nil
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// matchPDFProvider scores the folded document text against each provider's
// signature phrases.
func matchPDFProvider(folded string) (models.Provider, bool) {
	best := models.Provider("")
	bestScore := 0
	for _, sig := range pdfSignatures {
		score := 0
		for _, tok := range sig.tokens {
			if strings.Contains(folded, tok) {
				score++
			}
		}
		if score > bestScore {
			best = sig.provider
			bestScore = score
		}
	}
	return best, bestScore > 0
}

func foldPages(pages []models.Page) string {
	var b strings.Builder
	for _, p := range pages {
		for _, f := range p.Fragments {
			b.WriteString(f.Text)
			b.WriteByte(' ')
		}
	}
	return textutil.Fold(b.String())
}
