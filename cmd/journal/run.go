package main

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/auto-journal/internal/archive"
	"github.com/dvloznov/auto-journal/internal/categorizer"
	"github.com/dvloznov/auto-journal/internal/config"
	"github.com/dvloznov/auto-journal/internal/llm"
	"github.com/dvloznov/auto-journal/internal/logger"
	"github.com/dvloznov/auto-journal/internal/pipeline"
	"github.com/dvloznov/auto-journal/internal/receipts"
	"github.com/dvloznov/auto-journal/internal/sheets"
	"github.com/dvloznov/auto-journal/internal/sources"
)

func runJournal(log zerolog.Logger, args []string) int {
	var f runFlags
	fs := newRunFlagSet(&f)
	fs.Parse(args)

	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return exitFailure
	}
	applyFlags(cfg, fs, &f)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return exitFailure
	}

	runID := uuid.NewString()
	log = logger.WithRunID(logger.NewWithLevel(os.Stderr, cfg.LogLevel), runID)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("spreadsheet_id", cfg.SpreadsheetID).
		Str("source_sheet", cfg.SourceSheet).
		Str("bank_csv", cfg.BankCSV).
		Str("receipts", cfg.Receipts).
		Str("ocr", cfg.OCREngine).
		Bool("dry_run", cfg.DryRun).
		Msg("Starting journal run")

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Sheets client")
		return exitFailure
	}

	genaiClient, err := llm.NewClient(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Gen AI client")
		return exitFailure
	}

	imageSource, closeSource, err := newImageSource(ctx, cfg.Receipts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open receipt source")
		return exitFailure
	}
	defer closeSource()

	var engine receipts.OCREngine
	switch cfg.OCREngine {
	case "gemini":
		engine = receipts.NewGeminiEngine(genaiClient.Models, cfg.Model)
	default:
		engine = receipts.NewTesseractEngine(cfg.TesseractLangs)
	}

	deps := pipeline.Deps{
		Sheet:    sources.NewSheetReader(sheetsClient, cfg.SpreadsheetID, cfg.SourceSheet),
		Bank:     sources.NewBankCSVReader(cfg.BankCSV, cfg.BankEncoding),
		Receipts: receipts.NewExtractor(imageSource, engine, cfg.OCRWorkers),
		Categorizer: categorizer.New(
			categorizer.NewGeminiClassifier(genaiClient.Models, cfg.Model),
			categorizer.Options{
				Concurrency:    cfg.Concurrency,
				MaxAttempts:    cfg.MaxAttempts,
				RequestTimeout: cfg.RequestTimeout,
				Limiter:        categorizer.NewLimiter(cfg.RPS),
			},
		),
		Writer: sheetsClient,
	}

	if cfg.Archive.Enabled() && !cfg.DryRun {
		bq, err := bigquery.NewClient(ctx, cfg.Archive.Project)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create BigQuery client")
			return exitFailure
		}
		defer bq.Close()

		a := archive.NewBigQueryArchive(bq, cfg.Archive.Dataset, cfg.Archive.Table)
		if err := a.EnsureTable(ctx); err != nil {
			log.Warn().Err(err).Msg("Archive table check failed")
		}
		deps.Archiver = a
	}

	report, err := pipeline.Run(ctx, runID, deps, pipeline.Options{
		AllowMissingSources: cfg.AllowMissingSources,
		Output: pipeline.Output{
			SpreadsheetID: cfg.SpreadsheetID,
			JournalSheet:  cfg.JournalSheet,
			BSSheet:       cfg.BSSheet,
			PLSheet:       cfg.PLSheet,
			Anchor:        cfg.Anchor,
			DryRun:        cfg.DryRun,
		},
	})
	report.Print(os.Stdout)

	code := exitCode(report, err)
	switch code {
	case exitFailure:
		log.Error().Err(err).Msg("Journal run failed")
	case exitPartial:
		log.Warn().Msg("Journal run completed with partial failures")
	default:
		fmt.Println("Journal run completed successfully.")
	}
	return code
}

// exitCode maps the run outcome to the process exit code.
func exitCode(report *pipeline.Report, err error) int {
	if err != nil {
		return exitFailure
	}
	if report != nil && report.Partial() {
		return exitPartial
	}
	return exitOK
}

// newImageSource picks a local or Cloud Storage receipt source. The returned func
// releases any client it created.
func newImageSource(ctx context.Context, location string) (receipts.ImageSource, func(), error) {
	if !receipts.IsGCSURI(location) {
		return receipts.NewDirSource(location), func() {}, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage client: %w", err)
	}
	src, err := receipts.NewGCSSource(client, location)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return src, func() { _ = client.Close() }, nil
}
