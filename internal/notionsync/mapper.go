package notionsync

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/redot2koinly/internal/ledger"
	"github.com/jomei/notionapi"
)

// RecordKey renders a ledger record's identity as a single string, stored on
// the Notion page so later syncs can skip rows that already exist.
func RecordKey(rec ledger.Record) string {
	return fmt.Sprintf("%s|%s|%s|%s", rec.KoinlyDate, rec.Amount, rec.Currency, rec.Label)
}

// RecordToNotionProperties converts a ledger record to Notion properties for
// the transactions database: Merchant (title), Date, Amount, Currency,
// TxHash, and the Record Key used for idempotency.
func RecordToNotionProperties(rec ledger.Record) notionapi.Properties {
	props := notionapi.Properties{
		"Merchant": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Label,
					},
				},
			},
		},
		"Record Key": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: RecordKey(rec),
					},
				},
			},
		},
	}

	// Date (records rejected during conversion can carry an empty one)
	if ts, err := parseKoinlyDate(rec.KoinlyDate); err == nil {
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(ts)
					return &d
				}(),
			},
		}
	}

	// Amount
	if amount, err := strconv.ParseFloat(rec.Amount, 64); err == nil {
		props["Amount"] = notionapi.NumberProperty{
			Number: amount,
		}
	}

	// Currency
	if rec.Currency != "" {
		props["Currency"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Currency,
			},
		}
	}

	// TxHash
	if rec.TxHash != "" {
		props["TxHash"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.TxHash,
					},
				},
			},
		}
	}

	return props
}

// parseKoinlyDate parses the ledger timestamp format "2006-01-02 15:04 UTC".
func parseKoinlyDate(s string) (time.Time, error) {
	trimmed := strings.TrimSuffix(s, " UTC")
	return time.ParseInLocation("2006-01-02 15:04", trimmed, time.UTC)
}
