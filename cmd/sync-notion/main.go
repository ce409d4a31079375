package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/redot2koinly/internal/ledger"
	"github.com/dvloznov/redot2koinly/internal/logger"
	"github.com/dvloznov/redot2koinly/internal/notionsync"
)

func main() {
	_ = godotenv.Load()

	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	ledgerPath := flag.String("ledger", "redotpay.csv", "Ledger CSV to sync")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (required)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	records, err := ledger.ReadFile(*ledgerPath)
	if err != nil {
		log.Fatal().Err(err).Str("ledger", *ledgerPath).Msg("Failed to read ledger")
	}
	if len(records) == 0 {
		log.Fatal().Str("ledger", *ledgerPath).Msg("Ledger is empty; run the converter first")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("ledger", *ledgerPath).
		Int("records", len(records)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	if err := notionsync.SyncLedger(ctx, records, notionClient, *notionDBID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
