package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-import/internal/models"
)

// Options controls PDF extraction for one document.
type Options struct {
	// FooterBand is the height (in PDF units) from the bottom of each page
	// occupied by running footers. Fragments inside it are dropped.
	FooterBand float64
	// OnProgress, when set, is called synchronously once per processed page.
	OnProgress func(current, total int)
}

// ExtractPages reads a PDF document and returns one models.Page of positioned
// text fragments per physical page. The fragment positions are taken straight
// from the content stream; no ordering or grouping is applied here — that is
// the layout extractor's job.
func ExtractPages(data []byte, opts Options) (pages []models.Page, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			if opts.OnProgress != nil {
				opts.OnProgress(i, numPages)
			}
			continue
		}

		content := page.Content()
		frags := make([]models.TextFragment, 0, len(content.Text))
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			if opts.FooterBand > 0 && t.Y < opts.FooterBand {
				continue
			}
			frags = append(frags, models.TextFragment{
				Text:   t.S,
				X:      t.X,
				Y:      t.Y,
				Width:  t.W,
				Height: t.FontSize,
			})
		}
		pages = append(pages, models.Page{Fragments: frags, FooterBand: opts.FooterBand})

		if opts.OnProgress != nil {
			opts.OnProgress(i, numPages)
		}
	}

	if !isReadable(pages) {
		return nil, fmt.Errorf("no readable text could be extracted from PDF. The file may be image-based/scanned, or uses custom font encodings that cannot be decoded")
	}

	return pages, nil
}

// statementWords appear in virtually all bank statements. If the extracted
// text contains none of these, it's likely garbage from an identity-encoded
// font rather than real content.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction",
	"saldo", "data", "conta", "movimentos", "datum", "umsatz",
}

// isReadable checks that the fragments carry enough text, that it is mostly
// readable characters, and that at least one statement word appears.
// Uses a strict readability check — unicode.IsLetter alone is too broad and
// matches the accented garbage produced by identity-encoded fonts.
func isReadable(pages []models.Page) bool {
	var b strings.Builder
	for _, p := range pages {
		for _, f := range p.Fragments {
			b.WriteString(f.Text)
			b.WriteByte(' ')
		}
	}
	text := b.String()
	if len(strings.TrimSpace(text)) <= 50 {
		return false
	}
	if textQuality(text) <= 0.6 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range statementWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of readable characters (letters, digits,
// common punctuation, whitespace) to total characters.
func textQuality(text string) float64 {
	total := 0
	readable := 0
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
			strings.ContainsRune(".,-/:;()'\"£$€%&@#!?+=*", r) ||
			(r >= 0xC0 && r <= 0xFF) { // Latin-1 letters, common in PT/DE statements
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}
