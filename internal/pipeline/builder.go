package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/redot2koinly/internal/layout"
	"github.com/dvloznov/redot2koinly/internal/ledger"
)

// koinlyDateLayout is the timestamp format Koinly's importer expects,
// minus the trailing " UTC" literal.
const koinlyDateLayout = "2006-01-02 15:04"

// buildKoinlyDate combines a date anchor like "Wed, Sep 3" with a normalized
// time and the configured year, interprets the result in the screenshot's
// display timezone, and renders it in UTC for the ledger. The app never shows
// the year, so it has to come from configuration.
func buildKoinlyDate(dateLine, timeText string, year int, loc *time.Location) (string, error) {
	rest := dateLine
	// The weekday prefix ends at the first separator; OCR substitutes ';'
	// or '.' for the comma often enough that all three must be tried.
	for _, sep := range []string{",", ";", "."} {
		if _, after, found := strings.Cut(dateLine, sep); found {
			rest = after
			break
		}
	}

	raw := fmt.Sprintf("%s %d %s", strings.TrimSpace(rest), year, timeText)
	t, err := time.ParseInLocation("Jan 2 2006 15:04:05", raw, loc)
	if err != nil {
		return "", fmt.Errorf("buildKoinlyDate: parsing %q: %w", raw, err)
	}
	return t.UTC().Format(koinlyDateLayout) + " UTC", nil
}

// buildRecord turns a validated candidate into a ledger record. Only the
// date can still fail at this point.
func buildRecord(c layout.Candidate, year int, loc *time.Location) (ledger.Record, *ParseError) {
	koinlyDate, err := buildKoinlyDate(c.DateLine, c.TimeText, year, loc)
	if err != nil {
		return ledger.Record{}, &ParseError{
			Reason:     ReasonInvalidDate,
			SourceFile: c.SourceFile,
			Merchant:   c.Merchant,
			DateLine:   c.DateLine,
			TimeText:   c.TimeText,
			Amount:     c.AmountText,
			Currency:   c.Currency,
		}
	}

	return ledger.Record{
		KoinlyDate: koinlyDate,
		Amount:     c.AmountText,
		Currency:   c.Currency,
		Label:      NormalizeLabel(c.Merchant),
	}, nil
}
