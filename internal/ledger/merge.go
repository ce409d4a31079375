package ledger

import "sort"

// emptyDateSortKey orders records without a date after every dated record.
const emptyDateSortKey = "9999-12-31 23:59 UTC"

// MergeResult is the outcome of combining a run's fresh records with the
// previously persisted rows.
type MergeResult struct {
	// Rows is the full replacement row set: deduplicated and sorted by
	// Koinly date ascending, empty dates last, insertion order preserved
	// among equal keys.
	Rows []Record
	// Written is the number of fresh records that survived dedup.
	Written int
	// Duplicates is the number of fresh records discarded because their
	// key was already present (in the existing rows or earlier this run).
	Duplicates int
}

// Merge combines existing ledger rows with freshly built records. Existing
// rows always win over new duplicates; duplicates among the fresh records
// themselves also count. The result is stable-sorted so repeated runs over
// the same inputs reproduce the file byte for byte.
func Merge(existing, fresh []Record) MergeResult {
	seen := make(map[Key]struct{}, len(existing)+len(fresh))
	rows := make([]Record, 0, len(existing)+len(fresh))

	for _, r := range existing {
		if _, dup := seen[r.Key()]; dup {
			// Pre-existing duplicates (hand-edited files) collapse
			// silently; only fresh ones are counted.
			continue
		}
		seen[r.Key()] = struct{}{}
		rows = append(rows, r)
	}

	res := MergeResult{}
	for _, r := range fresh {
		if _, dup := seen[r.Key()]; dup {
			res.Duplicates++
			continue
		}
		seen[r.Key()] = struct{}{}
		rows = append(rows, r)
		res.Written++
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return sortKey(rows[i]) < sortKey(rows[j])
	})

	res.Rows = rows
	return res
}

func sortKey(r Record) string {
	if r.KoinlyDate == "" {
		return emptyDateSortKey
	}
	return r.KoinlyDate
}
