package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/redot2koinly/internal/ledger"
	"github.com/dvloznov/redot2koinly/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of records to process in a single batch
	BatchSize = 100
)

// SyncLedger mirrors ledger records into a Notion database. Pages already
// carrying a record's key are skipped, so the sync is idempotent; pages are
// never updated or deleted because the CSV ledger is the source of truth.
func SyncLedger(ctx context.Context, records []ledger.Record, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("record_count", len(records)).
		Bool("dry_run", dryRun).
		Msg("Starting ledger sync to Notion")

	// Query all existing pages from Notion
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("SyncLedger: querying Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build set of record keys already in Notion
	existingKeys := make(map[string]bool)
	for _, page := range notionPages {
		if key := extractRecordKey(page); key != "" {
			existingKeys[key] = true
		}
	}

	// Process records in batches
	var created, skipped, failed int
	for i := 0; i < len(records); i += BatchSize {
		end := i + BatchSize
		if end > len(records) {
			end = len(records)
		}

		batch := records[i:end]
		log.Debug().
			Int("batch_start", i).
			Int("batch_size", len(batch)).
			Msg("Processing batch")

		for _, rec := range batch {
			key := RecordKey(rec)
			if existingKeys[key] {
				skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("record_key", key).
					Msg("[DRY RUN] Would create Notion page")
				created++
				continue
			}

			props := RecordToNotionProperties(rec)
			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("record_key", key).
					Msg("Failed to create Notion page")
				failed++
				continue
			}

			log.Info().
				Str("record_key", key).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
			// Guard against the same key appearing twice in one run.
			existingKeys[key] = true
		}
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("total", len(records)).
		Msg("Ledger sync completed")

	if failed > 0 {
		return fmt.Errorf("SyncLedger: %d of %d records failed to sync", failed, len(records))
	}
	return nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractRecordKey extracts the record key from a Notion page's properties.
// Returns empty string if not found.
func extractRecordKey(page notionapi.Page) string {
	if prop, ok := page.Properties["Record Key"]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}
