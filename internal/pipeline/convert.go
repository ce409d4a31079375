package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/redot2koinly/internal/config"
	"github.com/dvloznov/redot2koinly/internal/layout"
	"github.com/dvloznov/redot2koinly/internal/ledger"
	"github.com/dvloznov/redot2koinly/internal/logger"
	"github.com/dvloznov/redot2koinly/internal/ocr"
	"github.com/dvloznov/redot2koinly/internal/screenshots"
)

// Converter runs screenshots through token recognition, layout scanning, and
// validation, and merges the surviving records into a ledger CSV.
type Converter struct {
	engine        ocr.Engine
	year          int
	loc           *time.Location
	minConfidence float64
	scanner       layout.Scanner
}

// New wires a Converter from a token engine and the run configuration.
func New(engine ocr.Engine, cfg *config.Config) *Converter {
	return &Converter{
		engine:        engine,
		year:          cfg.Year,
		loc:           cfg.Location(),
		minConfidence: cfg.OCR.MinConfidence,
		scanner: layout.Scanner{
			MinMerchantConfidence: cfg.OCR.MinMerchantConfidence,
			MinTimeConfidence:     cfg.OCR.MinTimeConfidence,
		},
	}
}

// ConvertTokens parses one screenshot's recognized tokens into ledger
// records. Layout errors (no header, no date anchor) propagate so the caller
// can count the file as ignored rather than failed.
func (c *Converter) ConvertTokens(ctx context.Context, tokens []ocr.Token, sourceFile string) (*FileResult, error) {
	log := logger.FromContext(ctx)

	kept := make([]ocr.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Confidence >= c.minConfidence {
			kept = append(kept, t)
		}
	}
	log.Debug().
		Str("file", sourceFile).
		Int("tokens", len(tokens)).
		Int("kept", len(kept)).
		Msg("filtered low-confidence tokens")

	lines := layout.GroupLines(kept, layout.DefaultYTolerance)
	scan, err := c.scanner.Scan(lines, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("ConvertTokens: scanning %s: %w", sourceFile, err)
	}

	res := &FileResult{
		TerminatorSeen: scan.TerminatorSeen,
		CandidatesRead: len(scan.Candidates),
	}
	for _, cand := range scan.Candidates {
		if perr := validate(cand); perr != nil {
			res.Errors = append(res.Errors, perr)
			continue
		}
		rec, perr := buildRecord(cand, c.year, c.loc)
		if perr != nil {
			res.Errors = append(res.Errors, perr)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	log.Debug().
		Str("file", sourceFile).
		Int("candidates", res.CandidatesRead).
		Int("records", len(res.Records)).
		Int("errors", len(res.Errors)).
		Bool("terminator", res.TerminatorSeen).
		Msg("converted screenshot")
	return res, nil
}

// Run processes every screenshot the source lists and rewrites the ledger at
// outputPath with the merged, deduplicated, sorted result. Per-file failures
// are counted and logged; only persistence failures abort the run.
func (c *Converter) Run(ctx context.Context, src screenshots.Source, outputPath string) (*RunStats, error) {
	stats := &RunStats{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	log := logger.WithRun(logger.FromContext(ctx), stats.RunID)
	ctx = logger.WithContext(ctx, log)

	names, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: listing screenshots: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("Run: no screenshots found")
	}
	log.Info().Int("files", len(names)).Msg("starting conversion run")

	var fresh []ledger.Record
	for _, name := range names {
		res, err := c.convertOne(ctx, src, name)
		if err != nil {
			stats.FilesIgnored++
			if errors.Is(err, layout.ErrNoHeader) || errors.Is(err, layout.ErrNoDateAnchor) {
				log.Warn().Str("file", name).Err(err).Msg("screenshot ignored: not a history view")
			} else {
				log.Warn().Str("file", name).Err(err).Msg("screenshot ignored")
			}
			continue
		}

		stats.FilesProcessed++
		stats.RecordsRead += res.CandidatesRead
		stats.Errors += len(res.Errors)
		stats.ParseErrors = append(stats.ParseErrors, res.Errors...)
		if res.TerminatorSeen {
			stats.TerminatorSeen = true
		}
		fresh = append(fresh, res.Records...)
	}

	if !stats.TerminatorSeen {
		log.Warn().Msg("no screenshot showed the end of history; older records may be missing")
	}

	existing, err := ledger.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("Run: reading ledger %s: %w", outputPath, err)
	}

	merged := ledger.Merge(existing, fresh)
	stats.RecordsWritten = merged.Written
	stats.Duplicates = merged.Duplicates

	if err := ledger.WriteFile(outputPath, merged.Rows); err != nil {
		return nil, fmt.Errorf("Run: writing ledger %s: %w", outputPath, err)
	}

	stats.Duration = time.Since(stats.StartedAt)
	log.Info().
		Int("processed", stats.FilesProcessed).
		Int("ignored", stats.FilesIgnored).
		Int("read", stats.RecordsRead).
		Int("written", stats.RecordsWritten).
		Int("duplicates", stats.Duplicates).
		Int("errors", stats.Errors).
		Dur("duration", stats.Duration).
		Msg("conversion run complete")
	return stats, nil
}

func (c *Converter) convertOne(ctx context.Context, src screenshots.Source, name string) (*FileResult, error) {
	image, err := src.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("convertOne: %w", err)
	}

	tokens, err := c.engine.RecognizeTokens(ctx, image, screenshots.MimeType(name))
	if err != nil {
		return nil, fmt.Errorf("convertOne: recognizing %s: %w", name, err)
	}

	return c.ConvertTokens(ctx, tokens, name)
}
