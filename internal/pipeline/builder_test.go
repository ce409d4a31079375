package pipeline

import (
	"testing"
	"time"
)

func jerusalem(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	return loc
}

func TestBuildKoinlyDateConvertsToUTC(t *testing.T) {
	// 14:30:03 IDT (UTC+3 in September) is 11:30 UTC; seconds are dropped.
	got, err := buildKoinlyDate("Wed, Sep 3", "14:30:03", 2025, jerusalem(t))
	if err != nil {
		t.Fatalf("buildKoinlyDate failed: %v", err)
	}
	if want := "2025-09-03 11:30 UTC"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildKoinlyDateAcceptsOCRSeparators(t *testing.T) {
	for _, dateLine := range []string{"Wed, Sep 3", "Wed; Sep 3", "Wed. Sep 3"} {
		got, err := buildKoinlyDate(dateLine, "14:30:03", 2025, jerusalem(t))
		if err != nil {
			t.Errorf("buildKoinlyDate(%q) failed: %v", dateLine, err)
			continue
		}
		if want := "2025-09-03 11:30 UTC"; got != want {
			t.Errorf("buildKoinlyDate(%q) = %q, want %q", dateLine, got, want)
		}
	}
}

func TestBuildKoinlyDateCrossesMidnight(t *testing.T) {
	// 01:15:00 IDT on Sep 4 is still Sep 3 in UTC.
	got, err := buildKoinlyDate("Thu, Sep 4", "01:15:00", 2025, jerusalem(t))
	if err != nil {
		t.Fatalf("buildKoinlyDate failed: %v", err)
	}
	if want := "2025-09-03 22:15 UTC"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildKoinlyDateRejectsGarbage(t *testing.T) {
	if _, err := buildKoinlyDate("Wed, Xyz 99", "14:30:03", 2025, time.UTC); err == nil {
		t.Error("expected error for unparsable month")
	}
	if _, err := buildKoinlyDate("Wed, Sep 3", "99:99:99", 2025, time.UTC); err == nil {
		t.Error("expected error for impossible time")
	}
}

func TestBuildRecordNormalizesLabel(t *testing.T) {
	c := candidate()
	c.Merchant = "!@#Lush GmbH#"

	rec, perr := buildRecord(c, 2025, jerusalem(t))
	if perr != nil {
		t.Fatalf("buildRecord failed: %v", perr)
	}
	if rec.Label != "LUSH GMB..." {
		t.Errorf("Label = %q, want LUSH GMB...", rec.Label)
	}
	if rec.KoinlyDate != "2025-09-03 11:30 UTC" {
		t.Errorf("KoinlyDate = %q", rec.KoinlyDate)
	}
	if rec.Amount != "-0.06053524" || rec.Currency != "ETH" {
		t.Errorf("Amount/Currency = %q/%q", rec.Amount, rec.Currency)
	}
	if rec.TxHash != "" {
		t.Errorf("TxHash = %q, want empty", rec.TxHash)
	}
}

func TestBuildRecordInvalidDate(t *testing.T) {
	c := candidate()
	c.DateLine = "Wed, ??? 3"

	_, perr := buildRecord(c, 2025, time.UTC)
	if perr == nil {
		t.Fatal("expected a parse error")
	}
	if perr.Reason != ReasonInvalidDate {
		t.Errorf("Reason = %s, want %s", perr.Reason, ReasonInvalidDate)
	}
}
