package layout

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/dvloznov/redot2koinly/internal/ocr"
)

// File-level rejection reasons. A screenshot that never shows the history
// header, or shows it but never a date group, contributes zero records and is
// counted as ignored by the caller.
var (
	ErrNoHeader     = errors.New("layout: no history header found")
	ErrNoDateAnchor = errors.New("layout: no date anchor found after header")
)

const (
	// headerMarker is the literal the app prints above the transaction log.
	headerMarker = "History"

	// terminatorPrefix ends the history log; matched case-insensitively
	// because OCR casing is unreliable.
	terminatorPrefix = "no more records"

	// merchantYVicinity is how far, vertically, merchant and prefix+time
	// tokens may sit from the amount token and still belong to its record.
	merchantYVicinity = 40
)

var (
	// OCR often misreads the comma after the weekday as ';' or '.'.
	dateAnchorRe = regexp.MustCompile(`^(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s*[,.;]\s+[A-Za-z]{3}\s+\d{1,2}`)

	amountRe = regexp.MustCompile(`[+-]?\d+\.\d+`)

	// Currency must come from the same token as the amount; a match across
	// tokens is almost always a column bleed.
	amountCurrencyRe = regexp.MustCompile(`([+-]?\d+\.\d+)\s*([A-Z]{3})\b`)

	// Prefix (4-digit card suffix or "Wallet") followed by HH MM SS with one
	// or two separator characters; OCR substitutes ';', '.', '*' or a space
	// for ':' routinely.
	timeRe = regexp.MustCompile(`(?:\b\d{4}\b|Wallet)\s+(\d{2}[:.;* ]{1,2}\d{2}[:.;* ]{1,2}\d{2})`)

	fourDigitRe      = regexp.MustCompile(`\b\d{4}\b`)
	walletRe         = regexp.MustCompile(`(?i)\bWallet\b`)
	letterRe         = regexp.MustCompile(`[A-Za-z]`)
	leadingNonAlnum  = regexp.MustCompile(`^[^a-zA-Z0-9]+`)
	timeSeparatorRun = regexp.MustCompile(`[:.;* ]+`)

	// The app renders minus with assorted glyphs; fold them all to '-'.
	signNormalizer = strings.NewReplacer("~", "-", "−", "-", "–", "-")
)

// Candidate is the unvalidated field bundle assembled for one detected record
// row group. Empty fields are legitimate here; classification happens in the
// validator so a truncated record is reported, not silently dropped.
type Candidate struct {
	DateLine   string // active date anchor text, e.g. "Wed, Sep 3"
	Merchant   string // leading punctuation already stripped
	AmountText string // signed decimal as printed
	Currency   string // empty when absent from the amount token
	TimeText   string // normalized HH:MM:SS, empty when not found
	Aligned    bool   // amount column clear of the merchant block
	SourceFile string
}

// Result is one screenshot's scan output.
type Result struct {
	Candidates     []Candidate
	TerminatorSeen bool
}

// Scanner walks grouped lines with a four-state machine (seeking header,
// seeking date, in record group, done) and emits one Candidate per record row
// group found under an active date anchor.
type Scanner struct {
	// MinMerchantConfidence filters merchant-name token candidates.
	MinMerchantConfidence float64
	// MinTimeConfidence filters prefix+time token candidates.
	MinTimeConfidence float64
}

type scanState int

const (
	seekingHeader scanState = iota
	seekingDate
	inRecordGroup
	scanDone
)

// Scan parses one screenshot's lines. It returns ErrNoHeader or
// ErrNoDateAnchor when the screenshot as a whole must be ignored; candidates
// found before the first anchor are never constructed.
func (s *Scanner) Scan(lines []Line, sourceFile string) (*Result, error) {
	all, maxX := flatten(lines)

	res := &Result{}
	state := seekingHeader
	var anchor string

	for _, line := range lines {
		text := strings.TrimSpace(line.Text())
		if text == "" {
			continue
		}

		switch state {
		case seekingHeader:
			if strings.Contains(text, headerMarker) {
				state = seekingDate
			}

		case seekingDate:
			if dateAnchorRe.MatchString(text) {
				anchor = text
				state = inRecordGroup
			}

		case inRecordGroup:
			if strings.HasPrefix(strings.ToLower(text), terminatorPrefix) {
				res.TerminatorSeen = true
				state = scanDone
				continue
			}
			// A new anchor re-points subsequent records; a repeat of the
			// current date simply re-activates it.
			if dateAnchorRe.MatchString(text) {
				anchor = text
				continue
			}
			if c, ok := s.extract(line, all, maxX, anchor, sourceFile); ok {
				res.Candidates = append(res.Candidates, c)
			}

		case scanDone:
			// Absorb the rest of the screenshot.
		}
	}

	switch state {
	case seekingHeader:
		return nil, ErrNoHeader
	case seekingDate:
		return nil, ErrNoDateAnchor
	}
	return res, nil
}

// extract assembles a Candidate from one line that carries an amount token.
// Lines without a right-column amount are not record rows (icons, balance
// labels, UI chrome) and yield ok=false.
func (s *Scanner) extract(line Line, all []ocr.Token, maxX float64, anchor, sourceFile string) (Candidate, bool) {
	var amountTok *ocr.Token
	for i := len(line.Tokens) - 1; i >= 0; i-- {
		t := line.Tokens[i]
		if amountRe.MatchString(signNormalizer.Replace(t.Text)) && t.X > maxX*0.5 {
			amountTok = &line.Tokens[i]
			break
		}
	}
	if amountTok == nil {
		return Candidate{}, false
	}

	normalized := signNormalizer.Replace(amountTok.Text)

	var amountText, currency string
	if m := amountCurrencyRe.FindStringSubmatch(normalized); m != nil {
		amountText, currency = m[1], m[2]
	} else {
		amountText = amountRe.FindString(normalized)
	}

	negative := strings.Contains(normalized, "-")
	positive := strings.Contains(normalized, "+") && !negative

	left := tokensLeftOf(all, *amountTok, merchantYVicinity)
	timeTok, timeText := s.findTime(all, *amountTok, negative, positive)

	merchant := s.findMerchant(left, timeTok, maxX)

	c := Candidate{
		DateLine:   anchor,
		Merchant:   merchant,
		AmountText: amountText,
		Currency:   currency,
		TimeText:   timeText,
		Aligned:    amountAligned(*amountTok, left),
		SourceFile: sourceFile,
	}
	return c, true
}

// findTime scores prefix+time candidates among tokens left of the amount,
// within twice the usual vertical vicinity because the time row sits below
// the merchant row.
func (s *Scanner) findTime(all []ocr.Token, amount ocr.Token, negative, positive bool) (*ocr.Token, string) {
	expanded := tokensLeftOf(all, amount, merchantYVicinity*2)

	type scored struct {
		score int
		idx   int
		tok   ocr.Token
	}
	var candidates []scored

	for idx, lt := range expanded {
		if lt.Confidence < s.MinTimeConfidence {
			continue
		}

		score := 0
		relevant := false
		if timeRe.MatchString(lt.Text) {
			score += 10
			relevant = true
		}
		if negative && fourDigitRe.MatchString(lt.Text) {
			score += 5
			relevant = true
		}
		if positive && walletRe.MatchString(lt.Text) {
			score += 5
			relevant = true
		}
		if !relevant {
			continue
		}

		score += int(math.Round(lt.Confidence * 10))
		candidates = append(candidates, scored{score: score, idx: idx, tok: lt})
	}

	if len(candidates) == 0 {
		return nil, ""
	}

	// Highest score wins; rightmost among equals.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].idx > candidates[j].idx
	})
	best := candidates[0].tok

	m := timeRe.FindStringSubmatch(best.Text)
	if m == nil {
		// Prefix matched without a readable time; the validator reports it.
		return &best, ""
	}
	return &best, timeSeparatorRun.ReplaceAllString(m[1], ":")
}

// findMerchant picks the merchant name among tokens left of the amount and
// above the time row, preferring higher confidence and longer text, merging
// horizontally adjacent fragments of a split name.
func (s *Scanner) findMerchant(left []ocr.Token, timeTok *ocr.Token, maxX float64) string {
	pool := left
	if timeTok != nil {
		pool = nil
		for _, t := range left {
			if t.Y < timeTok.Y {
				pool = append(pool, t)
			}
		}
	}

	iconThresholdX := maxX * 0.1
	var candidates []ocr.Token
	for _, t := range pool {
		if !letterRe.MatchString(t.Text) {
			continue
		}
		// Tokens hugging the left edge are icons and UI glyphs.
		if t.X <= iconThresholdX {
			continue
		}
		if t.Confidence < s.MinMerchantConfidence {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].X < candidates[j].X })

	var combined []ocr.Token
	for _, t := range candidates {
		if len(combined) > 0 {
			prev := combined[len(combined)-1]
			gap := t.Left() - prev.Right()
			sameLine := abs(t.Y-prev.Y) <= 20
			if sameLine && gap >= -10 && gap <= 10 && prev.Confidence > 0.4 && t.Confidence > 0.4 {
				prev.Text = prev.Text + " " + t.Text
				combined[len(combined)-1] = prev
				continue
			}
		}
		combined = append(combined, t)
	}

	best := combined[0]
	for _, t := range combined[1:] {
		br := math.Round(best.Confidence*10) / 10
		tr := math.Round(t.Confidence*10) / 10
		if tr > br || (tr == br && len(t.Text) > len(best.Text)) {
			best = t
		}
	}

	return leadingNonAlnum.ReplaceAllString(strings.TrimSpace(best.Text), "")
}

// amountAligned reports whether the amount token's left edge clears the
// rightmost edge of the merchant/time block. A failed check means the row
// fragments came from different columns.
func amountAligned(amount ocr.Token, left []ocr.Token) bool {
	var leftMaxRight float64
	for _, t := range left {
		if r := t.Right(); r > leftMaxRight {
			leftMaxRight = r
		}
	}
	return amount.Left() > leftMaxRight+5
}

func tokensLeftOf(all []ocr.Token, amount ocr.Token, yVicinity float64) []ocr.Token {
	var out []ocr.Token
	for _, t := range all {
		if abs(t.Y-amount.Y) <= yVicinity && t.X < amount.X {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

func flatten(lines []Line) ([]ocr.Token, float64) {
	var all []ocr.Token
	var maxX float64
	for _, l := range lines {
		for _, t := range l.Tokens {
			all = append(all, t)
			if r := t.Right(); r > maxX {
				maxX = r
			}
		}
	}
	return all, maxX
}
