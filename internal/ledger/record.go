package ledger

// Record is one finalized ledger row in the Koinly import format. Records are
// immutable once built.
type Record struct {
	// KoinlyDate is "YYYY-MM-DD HH:MM UTC", or empty when the date could
	// not be established.
	KoinlyDate string
	// Amount is the signed decimal exactly as extracted; precision is
	// never reformatted.
	Amount   string
	Currency string
	// Label is the normalized merchant name.
	Label string
	// TxHash is always empty; the column exists for the import format.
	TxHash string
}

// Key identifies a record for merge purposes. Two records with equal keys are
// interchangeable regardless of which run produced them.
type Key struct {
	KoinlyDate string
	Amount     string
	Currency   string
	Label      string
}

// Key returns the record's dedup key.
func (r Record) Key() Key {
	return Key{
		KoinlyDate: r.KoinlyDate,
		Amount:     r.Amount,
		Currency:   r.Currency,
		Label:      r.Label,
	}
}
