// Package layout turns pages of absolutely-positioned PDF text fragments
// into table rows. The table structure is inferred geometrically: fragments
// are grouped into visual lines by Y proximity, a header line fixes the
// column boundaries along the X axis, and body fragments are bucketed into
// columns by position. Boundaries and section-gate state survive page
// breaks, so one Extractor instance handles a whole multi-page document
// (and independent instances can parse documents concurrently).
package layout

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/textutil"
)

// Geometry tolerances. These are heuristics; the boundary-value tests in
// layout_test.go pin their exact behaviour.
const (
	// lineYTolerance is the maximum Y distance between two fragments that
	// still belong to the same visual line. Kerning and baseline shifts move
	// glyph runs by a point or two; real line spacing is much larger.
	lineYTolerance = 3.0

	// rowGapFactor scales the average fragment height into the minimum
	// vertical gap that separates two logical rows. Smaller gaps are
	// wrapped description lines inside one row.
	rowGapFactor = 1.5

	// defaultFragmentHeight stands in when the PDF reports no font size.
	defaultFragmentHeight = 10.0
)

// ErrNoHeader means no page of the document contained a recognisable table
// header. This is fatal for the file: without a header there are no column
// boundaries and nothing can be extracted.
var ErrNoHeader = errors.New("no table header detected in document")

// Result is what extracting a whole document produces. FinalBalance is nil
// when the document carries no usable balance figure.
type Result struct {
	Rows         []models.TableRow
	FinalBalance *float64
}

// Extractor carries the cross-page parsing state: column boundaries from the
// most recent header line, the section gate, and accumulated rows. It is not
// safe for concurrent use; parse concurrent documents with separate
// instances.
type Extractor struct {
	profile Profile

	bounds        *models.ColumnBoundaries
	moneyBoundary float64
	moneySplit    bool // explicit or neutral money headers were found
	inSection     bool

	rows            []models.TableRow
	overviewBalance *float64
}

// New returns an extractor for the given provider profile. Profiles without
// section markers start with the gate open.
func New(profile Profile) *Extractor {
	return &Extractor{
		profile:   profile,
		inSection: len(profile.SectionStart) == 0,
	}
}

// Extract processes all pages in order and returns the extracted rows and
// trailing balance. A page without a detectable header contributes no rows
// but does not abort extraction; only a document where no page ever yields a
// header fails, with ErrNoHeader.
func (e *Extractor) Extract(pages []models.Page) (Result, error) {
	for i := range pages {
		e.processPage(pages[i])
	}

	if e.bounds == nil {
		return Result{}, ErrNoHeader
	}

	res := Result{Rows: e.rows}
	switch {
	case e.overviewBalance != nil:
		res.FinalBalance = e.overviewBalance
	case len(e.rows) > 0:
		if v, err := textutil.ParseAmount(e.rows[len(e.rows)-1].Balance); err == nil {
			res.FinalBalance = &v
		}
	}
	return res, nil
}

// visualLine is one horizontal line of fragments, ordered left to right.
type visualLine struct {
	y     float64
	frags []models.TextFragment
}

func (l visualLine) foldedText() string {
	parts := make([]string, len(l.frags))
	for i, f := range l.frags {
		parts[i] = f.Text
	}
	return textutil.Fold(strings.Join(parts, " "))
}

func (e *Extractor) processPage(page models.Page) {
	lines := groupLines(page.Fragments)
	if len(lines) == 0 {
		return
	}

	if e.isBalanceOverviewPage(lines) {
		e.readOverviewBalance(lines)
		return
	}

	// Locate this page's header line (if any) before walking the body, so
	// boundaries are in place for every body line regardless of where the
	// header sits.
	headerIdx := -1
	for i, line := range lines {
		if e.isHeaderLine(line) {
			e.computeBoundaries(line)
			headerIdx = i
			break
		}
	}

	avgHeight := averageFragmentHeight(page.Fragments)
	rowGap := rowGapFactor * avgHeight

	var pending []visualLine
	var prevY float64

	flush := func() {
		if len(pending) > 0 {
			e.flushRow(pending)
			pending = nil
		}
	}

	for i, line := range lines {
		text := line.foldedText()

		if e.toggleSectionGate(text) {
			flush()
			continue
		}
		if i == headerIdx {
			continue
		}
		// Body lines sit below this page's own header. On continuation
		// pages without a header, boundaries persist and the whole page is
		// body.
		if e.bounds == nil || (headerIdx >= 0 && i < headerIdx) {
			continue
		}
		if !e.inSection {
			continue
		}

		if len(pending) > 0 && prevY-line.y > rowGap {
			flush()
		}
		pending = append(pending, line)
		prevY = line.y
	}

	// Rows do not span page breaks.
	flush()
}

// toggleSectionGate updates the gate when the line is a section marker.
// Reports whether the line was a marker.
func (e *Extractor) toggleSectionGate(folded string) bool {
	for _, m := range e.profile.SectionEnd {
		if strings.Contains(folded, m) {
			e.inSection = false
			return true
		}
	}
	for _, m := range e.profile.SectionStart {
		if strings.Contains(folded, m) {
			e.inSection = true
			return true
		}
	}
	return false
}

// isHeaderLine reports whether a line contains date, description and balance
// header tokens. The match is locale-invariant via folding.
func (e *Extractor) isHeaderLine(line visualLine) bool {
	folded := line.foldedText()
	return containsAnyToken(folded, e.profile.DateTokens) &&
		containsAnyToken(folded, e.profile.DescriptionTokens) &&
		containsAnyToken(folded, e.profile.BalanceTokens)
}

// computeBoundaries derives the column intervals from a header line. Each
// boundary is the midpoint between two adjacent header tokens; the money
// boundary is the centre of a neutral "payments" header when one exists,
// otherwise the midpoint between the explicit incoming/outgoing headers.
func (e *Extractor) computeBoundaries(line visualLine) {
	dateFrag := findToken(line, e.profile.DateTokens)
	typeFrag := findToken(line, e.profile.TypeTokens)
	descFrag := findToken(line, e.profile.DescriptionTokens)
	inFrag := findToken(line, e.profile.IncomingTokens)
	outFrag := findToken(line, e.profile.OutgoingTokens)
	neutralFrag := findToken(line, e.profile.NeutralMoneyTokens)
	balFrag := findToken(line, e.profile.BalanceTokens)

	if dateFrag == nil || descFrag == nil || balFrag == nil {
		return
	}

	b := &models.ColumnBoundaries{HeaderY: line.y}

	b.Date.Start = 0
	if typeFrag != nil {
		b.Date.End = midpoint(*dateFrag, *typeFrag)
		b.Type = models.Interval{Start: b.Date.End, End: midpoint(*typeFrag, *descFrag)}
		b.Description.Start = b.Type.End
	} else {
		b.Date.End = midpoint(*dateFrag, *descFrag)
		b.Description.Start = b.Date.End
	}

	// Money region: prefer the explicit pair, then a neutral spanning
	// header. Without either, amounts left of the balance column land in a
	// single signed column and direction is inferred from the sign.
	switch {
	case inFrag != nil && outFrag != nil:
		e.moneySplit = true
		e.moneyBoundary = (center(*inFrag) + center(*outFrag)) / 2
		b.Description.End = midpoint(*descFrag, *inFrag)
		b.Incoming = models.Interval{Start: b.Description.End, End: e.moneyBoundary}
		b.Outgoing = models.Interval{Start: e.moneyBoundary, End: midpoint(*outFrag, *balFrag)}
		b.Balance = models.Interval{Start: b.Outgoing.End, End: math.Inf(1)}
	case neutralFrag != nil:
		e.moneySplit = true
		e.moneyBoundary = center(*neutralFrag)
		b.Description.End = midpoint(*descFrag, *neutralFrag)
		b.Incoming = models.Interval{Start: b.Description.End, End: e.moneyBoundary}
		b.Outgoing = models.Interval{Start: e.moneyBoundary, End: midpoint(*neutralFrag, *balFrag)}
		b.Balance = models.Interval{Start: b.Outgoing.End, End: math.Inf(1)}
	default:
		e.moneySplit = false
		b.Description.End = midpoint(*descFrag, *balFrag)
		b.Incoming = models.Interval{Start: b.Description.End, End: b.Description.End}
		b.Outgoing = b.Incoming
		b.Balance = models.Interval{Start: b.Description.End, End: math.Inf(1)}
	}

	e.bounds = b
}

// flushRow converts the pending visual lines of one logical row into a
// TableRow and appends it, bucketing fragments into columns by X position.
// The money columns are disambiguated right to left: the rightmost
// financial token is the running balance, the rest split at the money
// boundary.
func (e *Extractor) flushRow(rowLines []visualLine) {
	var frags []models.TextFragment
	for _, l := range rowLines {
		frags = append(frags, l.frags...)
	}

	var row models.TableRow
	var dateParts, typeParts, descParts []string
	var money []models.TextFragment

	for _, f := range frags {
		c := center(f)
		switch {
		case e.bounds.Date.Contains(c):
			dateParts = append(dateParts, f.Text)
		case e.bounds.Type.Contains(c):
			typeParts = append(typeParts, f.Text)
		case e.bounds.Description.Contains(c):
			descParts = append(descParts, f.Text)
		default:
			if textutil.IsAmount(f.Text) {
				money = append(money, f)
			} else {
				// Wrapped description text can overhang into the money
				// region; keep it with the description.
				descParts = append(descParts, f.Text)
			}
		}
	}

	if len(money) > 0 {
		sort.Slice(money, func(i, j int) bool { return center(money[i]) < center(money[j]) })
		last := len(money) - 1
		row.Balance = strings.TrimSpace(money[last].Text)
		for _, f := range money[:last] {
			switch {
			case !e.moneySplit:
				row.Amount = strings.TrimSpace(f.Text)
			case center(f) < e.moneyBoundary:
				row.Incoming = strings.TrimSpace(f.Text)
			default:
				row.Outgoing = strings.TrimSpace(f.Text)
			}
		}
	}

	row.Date = strings.TrimSpace(strings.Join(dateParts, " "))
	row.TypeLabel = strings.TrimSpace(strings.Join(typeParts, " "))
	row.Description = strings.TrimSpace(strings.Join(descParts, " "))

	// Decorative lines (addresses, column totals, carried-forward notes)
	// have no date cell and are not rows.
	if row.Date == "" {
		return
	}
	e.rows = append(e.rows, row)
}

func (e *Extractor) isBalanceOverviewPage(lines []visualLine) bool {
	if len(e.profile.BalanceOverviewMarkers) == 0 {
		return false
	}
	for _, l := range lines {
		if containsAnyToken(l.foldedText(), e.profile.BalanceOverviewMarkers) {
			return true
		}
	}
	return false
}

// readOverviewBalance takes the last currency-formatted number on a
// balance-overview page as the statement's final balance.
func (e *Extractor) readOverviewBalance(lines []visualLine) {
	for _, l := range lines {
		for _, f := range l.frags {
			if textutil.IsAmount(f.Text) {
				if v, err := textutil.ParseAmount(f.Text); err == nil {
					bal := v
					e.overviewBalance = &bal
				}
			}
		}
	}
}

// groupLines clusters fragments into visual lines: sort by descending Y then
// ascending X, then fragments within lineYTolerance of the line's anchor Y
// belong to the same line.
func groupLines(frags []models.TextFragment) []visualLine {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]models.TextFragment, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []visualLine
	for _, f := range sorted {
		if len(lines) > 0 && math.Abs(lines[len(lines)-1].y-f.Y) < lineYTolerance {
			cur := &lines[len(lines)-1]
			cur.frags = append(cur.frags, f)
			continue
		}
		lines = append(lines, visualLine{y: f.Y, frags: []models.TextFragment{f}})
	}

	for i := range lines {
		sort.Slice(lines[i].frags, func(a, b int) bool {
			return lines[i].frags[a].X < lines[i].frags[b].X
		})
	}
	return lines
}

func averageFragmentHeight(frags []models.TextFragment) float64 {
	var sum float64
	n := 0
	for _, f := range frags {
		if f.Height > 0 {
			sum += f.Height
			n++
		}
	}
	if n == 0 {
		return defaultFragmentHeight
	}
	return sum / float64(n)
}

func containsAnyToken(folded string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(folded, t) {
			return true
		}
	}
	return false
}

// findToken returns the first fragment in the line whose folded text
// contains one of the tokens, or nil.
func findToken(line visualLine, tokens []string) *models.TextFragment {
	if len(tokens) == 0 {
		return nil
	}
	for i := range line.frags {
		folded := textutil.Fold(line.frags[i].Text)
		for _, t := range tokens {
			if strings.Contains(folded, t) {
				return &line.frags[i]
			}
		}
	}
	return nil
}

func center(f models.TextFragment) float64 {
	return f.X + f.Width/2
}

// midpoint is the X halfway between the centres of two header fragments;
// the boundary between their columns.
func midpoint(a, b models.TextFragment) float64 {
	return (center(a) + center(b)) / 2
}
