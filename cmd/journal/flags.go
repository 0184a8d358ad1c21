package main

import (
	"flag"
	"time"

	"github.com/dvloznov/auto-journal/internal/config"
)

// runFlags mirrors the config fields that can be overridden on the command line.
type runFlags struct {
	configPath          string
	spreadsheetID       string
	sourceSheet         string
	bankCSV             string
	bankEncoding        string
	receipts            string
	ocr                 string
	model               string
	concurrency         int
	maxAttempts         int
	rps                 float64
	dryRun              bool
	allowMissingSources bool
	timeout             time.Duration
	requestTimeout      time.Duration
	logLevel            string
}

func newRunFlagSet(f *runFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&f.spreadsheetID, "spreadsheet-id", "", "Spreadsheet ID for input and output sheets")
	fs.StringVar(&f.sourceSheet, "source-sheet", "", "Worksheet holding the transaction rows")
	fs.StringVar(&f.bankCSV, "bank-csv", "", "Path to the bank statement CSV")
	fs.StringVar(&f.bankEncoding, "bank-encoding", "", "Bank CSV encoding: utf-8 or shift_jis")
	fs.StringVar(&f.receipts, "receipts", "", "Receipt folder: local directory or gs://bucket/prefix")
	fs.StringVar(&f.ocr, "ocr", "", "OCR engine: tesseract or gemini")
	fs.StringVar(&f.model, "model", "", "Gemini model name")
	fs.IntVar(&f.concurrency, "concurrency", 0, "Concurrent classification requests")
	fs.IntVar(&f.maxAttempts, "max-attempts", 0, "Classification attempts per row")
	fs.Float64Var(&f.rps, "rps", 0, "Classification requests per second (0 = unlimited)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Run everything except sheet writes and archiving")
	fs.BoolVar(&f.allowMissingSources, "allow-missing-sources", false, "Continue when a source is unreachable")
	fs.DurationVar(&f.timeout, "timeout", 0, "Overall run timeout")
	fs.DurationVar(&f.requestTimeout, "request-timeout", 0, "Per-request classification timeout")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	return fs
}

// applyFlags copies explicitly set flags onto cfg. Unset flags leave config values alone.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f *runFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "spreadsheet-id":
			cfg.SpreadsheetID = f.spreadsheetID
		case "source-sheet":
			cfg.SourceSheet = f.sourceSheet
		case "bank-csv":
			cfg.BankCSV = f.bankCSV
		case "bank-encoding":
			cfg.BankEncoding = f.bankEncoding
		case "receipts":
			cfg.Receipts = f.receipts
		case "ocr":
			cfg.OCREngine = f.ocr
		case "model":
			cfg.Model = f.model
		case "concurrency":
			cfg.Concurrency = f.concurrency
		case "max-attempts":
			cfg.MaxAttempts = f.maxAttempts
		case "rps":
			cfg.RPS = f.rps
		case "dry-run":
			cfg.DryRun = f.dryRun
		case "allow-missing-sources":
			cfg.AllowMissingSources = f.allowMissingSources
		case "timeout":
			cfg.Timeout = f.timeout
		case "request-timeout":
			cfg.RequestTimeout = f.requestTimeout
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})
}
