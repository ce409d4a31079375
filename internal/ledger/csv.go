package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Header is the fixed column set of the persisted ledger file.
var Header = []string{"Koinly Date", "Amount", "Currency", "Label", "TxHash"}

// ReadFile loads the persisted ledger rows. A missing file is an empty
// ledger, not an error; any other failure is fatal to the run. A header row
// that does not match the expected one is kept as a data row so no
// hand-edited content is silently lost.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ReadFile: opening ledger %q: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses ledger rows from r.
func Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records []Record
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Read: parsing ledger row: %w", err)
		}

		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		records = append(records, fromRow(row))
	}
	return records, nil
}

// WriteFile rewrites the full ledger atomically: the row set is written to a
// temp file in the target directory and renamed over the old ledger, so a
// failed run never leaves a half-written file behind.
func WriteFile(path string, records []Record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("WriteFile: creating temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("WriteFile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("WriteFile: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("WriteFile: replacing ledger %q: %w", path, err)
	}
	return nil
}

// Write writes the header and rows in CSV format to the given writer.
func Write(out io.Writer, records []Record) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("Write: writing CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{r.KoinlyDate, r.Amount, r.Currency, r.Label, r.TxHash}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("Write: writing CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("Write: flushing CSV: %w", err)
	}
	return nil
}

func isHeader(row []string) bool {
	if len(row) != len(Header) {
		return false
	}
	for i, h := range Header {
		if row[i] != h {
			return false
		}
	}
	return true
}

// fromRow normalizes a raw CSV row to exactly five columns.
func fromRow(row []string) Record {
	cols := make([]string, 5)
	copy(cols, row)
	return Record{
		KoinlyDate: cols[0],
		Amount:     cols[1],
		Currency:   cols[2],
		Label:      cols[3],
		TxHash:     cols[4],
	}
}
