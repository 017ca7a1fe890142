package textutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical date layout used throughout the import pipeline.
const ISODate = "2006-01-02"

// Statement date layouts, in match order. Day always precedes month; the
// supported providers are all European exports.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02.01.06",
	"02/01/2006",
	"02/01/06",
	"02-01-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 Jan 06",
	"2 January 2006",
}

// ptMonths translates Portuguese month abbreviations so month-name dates
// parse with the English layouts.
var ptMonths = strings.NewReplacer(
	"jan", "Jan", "fev", "Feb", "mar", "Mar", "abr", "Apr",
	"mai", "May", "jun", "Jun", "jul", "Jul", "ago", "Aug",
	"set", "Sep", "out", "Oct", "nov", "Nov", "dez", "Dec",
)

// ParseDate converts a statement date cell to canonical YYYY-MM-DD form.
// Accepts ISO, numeric-dotted/slashed/dashed and month-name formats; a
// trailing time-of-day component is ignored.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}

	// "2024-03-01 10:23:44" → keep the date part only.
	if i := strings.IndexByte(s, ' '); i > 0 && strings.Count(s, " ") >= 1 {
		if t, err := time.Parse(ISODate, s[:i]); err == nil {
			return t.Format(ISODate), nil
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate), nil
		}
	}

	// Month-name dates in Portuguese ("5 fev 2024").
	translated := ptMonths.Replace(strings.ToLower(s))
	if translated != s {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, translated); err == nil {
				return t.Format(ISODate), nil
			}
		}
	}

	return "", fmt.Errorf("unrecognised date %q", s)
}

// Spreadsheet serial dates count days since 1899-12-30. The plausible range
// gate keeps ordinary numeric cells (amounts, row counters) from being
// mistaken for dates: 20000 ≈ 1954, 80000 ≈ 2119.
const (
	serialDateMin = 20000
	serialDateMax = 80000
)

var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// SerialDate converts a bare spreadsheet serial number to YYYY-MM-DD.
// Returns false when the cell is not a number in the plausible range.
func SerialDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return "", false
	}
	if serial < serialDateMin || serial > serialDateMax {
		return "", false
	}
	return serialEpoch.AddDate(0, 0, int(serial)).Format(ISODate), true
}
