package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/redot2koinly/internal/config"
	"github.com/dvloznov/redot2koinly/internal/logger"
	"github.com/dvloznov/redot2koinly/internal/ocr"
	"github.com/dvloznov/redot2koinly/internal/pipeline"
	"github.com/dvloznov/redot2koinly/internal/screenshots"
)

func main() {
	// GEMINI_API_KEY can live in a local .env during development.
	_ = godotenv.Load()

	// Parse CLI flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	input := flag.String("input", "", "Screenshot file, directory, or gs://bucket/prefix (overrides config)")
	output := flag.String("output", "", "Ledger CSV path (overrides config)")
	year := flag.Int("year", 0, "Year the screenshots were taken (overrides config)")
	timezone := flag.String("tz", "", "IANA timezone the app displayed times in (overrides config)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	log := logger.New()
	if *verbose {
		log = logger.NewVerbose()
	}

	// Load config and apply flag overrides
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}
	if *input != "" {
		cfg.Input = *input
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *year != 0 {
		cfg.Year = *year
	}
	if *timezone != "" {
		cfg.Timezone = *timezone
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	src, err := screenshots.ForInput(cfg.Input)
	if err != nil {
		log.Fatal().Err(err).Str("input", cfg.Input).Msg("Failed to resolve screenshot source")
	}

	engine, err := ocr.NewGeminiEngine(ctx, cfg.OCR.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize OCR engine")
	}

	stats, err := pipeline.New(engine, cfg).Run(ctx, src, cfg.Output)
	if err != nil {
		log.Fatal().Err(err).Msg("Conversion failed")
	}

	printSummary(stats, cfg.Output)
}

func printSummary(stats *pipeline.RunStats, output string) {
	fmt.Printf("Processed %d files (ignored: %d) in %.2fs\n",
		stats.FilesProcessed, stats.FilesIgnored, stats.Duration.Seconds())
	fmt.Printf("Records read: %d, written: %d, duplicates: %d, errors: %d\n",
		stats.RecordsRead, stats.RecordsWritten, stats.Duplicates, stats.Errors)
	fmt.Printf("Ledger: %s\n", output)

	if !stats.TerminatorSeen {
		fmt.Println("Warning: no screenshot reached the end of history; older records may be missing.")
	}

	byFile := stats.ErrorsByFile()
	if len(byFile) == 0 {
		return
	}
	fmt.Println("\nFiles with errors:")
	for file, errs := range byFile {
		fmt.Printf("\n%s:\n", file)
		for _, e := range errs {
			fmt.Printf("  %s\n", e)
		}
	}
}
