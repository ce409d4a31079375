package pipeline

import (
	"regexp"
	"strings"

	"github.com/dvloznov/redot2koinly/internal/layout"
)

var (
	currencyRe      = regexp.MustCompile(`^[A-Z]{3}$`)
	leadingNonAlnum = regexp.MustCompile(`^[^a-zA-Z0-9]+`)

	// A trailing run of non-alphanumerics is where OCR mangles a truncated
	// name; the character before it is swallowed too and the whole tail
	// becomes an ellipsis, so garbled variants collapse to one label.
	garbledTail = regexp.MustCompile(`[A-Za-z0-9][^A-Za-z0-9]+$`)
)

// validate classifies a scanned candidate. The checks run in a fixed order so
// a candidate missing several fields is always reported under the same
// reason: merchant, then time, amount, currency, alignment.
func validate(c layout.Candidate) *ParseError {
	fail := func(r Reason) *ParseError {
		return &ParseError{
			Reason:     r,
			SourceFile: c.SourceFile,
			Merchant:   c.Merchant,
			DateLine:   c.DateLine,
			TimeText:   c.TimeText,
			Amount:     c.AmountText,
			Currency:   c.Currency,
		}
	}

	if c.Merchant == "" {
		return fail(ReasonUnparsableMerchant)
	}
	if c.TimeText == "" {
		return fail(ReasonMissingTime)
	}
	if c.AmountText == "" {
		return fail(ReasonMissingAmount)
	}
	if !currencyRe.MatchString(c.Currency) {
		return fail(ReasonInvalidCurrency)
	}
	if !c.Aligned {
		return fail(ReasonMisalignedAmount)
	}
	return nil
}

// NormalizeLabel canonicalizes a merchant name for the ledger: leading
// punctuation stripped, upper-cased, and any garbled tail collapsed to "...".
func NormalizeLabel(merchant string) string {
	s := leadingNonAlnum.ReplaceAllString(merchant, "")
	s = strings.ToUpper(strings.TrimSpace(s))
	return garbledTail.ReplaceAllString(s, "...")
}
