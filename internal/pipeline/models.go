package pipeline

import (
	"fmt"
	"time"

	"github.com/dvloznov/redot2koinly/internal/ledger"
)

// Reason classifies why one candidate record could not become a ledger row.
type Reason string

const (
	ReasonUnparsableMerchant Reason = "UnparsableMerchant"
	ReasonMissingTime        Reason = "MissingTime"
	ReasonMissingAmount      Reason = "MissingAmount"
	ReasonInvalidCurrency    Reason = "InvalidCurrency"
	ReasonMisalignedAmount   Reason = "MisalignedAmount"
	ReasonInvalidDate        Reason = "InvalidDate"
)

// ParseError describes one rejected candidate with everything that was
// extracted for it, so a run summary can show what the OCR saw.
type ParseError struct {
	Reason     Reason
	SourceFile string
	Merchant   string
	DateLine   string
	TimeText   string
	Amount     string
	Currency   string
}

func (e *ParseError) Error() string {
	merchant := e.Merchant
	if merchant == "" {
		merchant = "<unknown>"
	}
	return fmt.Sprintf("%s - %s (%s, %s, %s, %s)",
		merchant, e.Reason, e.DateLine, e.TimeText, e.Amount, e.Currency)
}

// FileResult is the outcome of converting one screenshot.
type FileResult struct {
	Records        []ledger.Record
	Errors         []*ParseError
	TerminatorSeen bool
	CandidatesRead int
}

// RunStats aggregates one conversion run across all screenshots.
type RunStats struct {
	RunID          string
	FilesProcessed int
	FilesIgnored   int
	RecordsRead    int
	RecordsWritten int
	Duplicates     int
	Errors         int
	TerminatorSeen bool
	ParseErrors    []*ParseError
	StartedAt      time.Time
	Duration       time.Duration
}

// ErrorsByFile groups the run's parse errors by source screenshot for the
// CLI summary.
func (s *RunStats) ErrorsByFile() map[string][]*ParseError {
	if len(s.ParseErrors) == 0 {
		return nil
	}
	out := make(map[string][]*ParseError)
	for _, e := range s.ParseErrors {
		out[e.SourceFile] = append(out[e.SourceFile], e)
	}
	return out
}
