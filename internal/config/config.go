// Package config loads settings for the journal command from defaults, an optional
// YAML file, a .env file, and JOURNAL_* environment variables, in that order.
// Command-line flags are applied on top by cmd/journal.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values, matching the sheet layout the bookkeeping spreadsheet is provisioned with.
const (
	DefaultJournalSheet = "Journal"
	DefaultBSSheet      = "BalanceSheet"
	DefaultPLSheet      = "ProfitLoss"
	DefaultAnchor       = "A1"

	// DefaultModelName is the default Gemini model used for classification and OCR.
	DefaultModelName = "gemini-2.5-flash"

	DefaultOCREngine      = "tesseract"
	DefaultTesseractLangs = "jpn+eng"
	DefaultBankEncoding   = "utf-8"

	DefaultArchiveDataset = "bookkeeping"
	DefaultArchiveTable   = "journal_entries"
)

// Config holds everything a pipeline run needs.
type Config struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SourceSheet     string `yaml:"source_sheet"`
	JournalSheet    string `yaml:"journal_sheet"`
	BSSheet         string `yaml:"bs_sheet"`
	PLSheet         string `yaml:"pl_sheet"`
	Anchor          string `yaml:"anchor"`
	CredentialsFile string `yaml:"credentials_file"` // service-account key for Sheets; empty uses ADC

	BankCSV      string `yaml:"bank_csv"`
	BankEncoding string `yaml:"bank_encoding"`

	Receipts       string `yaml:"receipts"` // local directory or gs://bucket/prefix
	OCREngine      string `yaml:"ocr_engine"`
	TesseractLangs string `yaml:"tesseract_langs"`
	OCRWorkers     int    `yaml:"ocr_workers"`

	Model          string        `yaml:"model"`
	Concurrency    int           `yaml:"concurrency"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RPS            float64       `yaml:"rps"` // 0 disables rate limiting
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Archive ArchiveConfig `yaml:"archive"`

	Timeout             time.Duration `yaml:"timeout"`
	LogLevel            string        `yaml:"log_level"`
	DryRun              bool          `yaml:"dry_run"`
	AllowMissingSources bool          `yaml:"allow_missing_sources"`
}

// ArchiveConfig enables the BigQuery archive when Project is set.
type ArchiveConfig struct {
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
	Table   string `yaml:"table"`
}

// Enabled reports whether archiving was requested.
func (a ArchiveConfig) Enabled() bool {
	return a.Project != ""
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		JournalSheet:   DefaultJournalSheet,
		BSSheet:        DefaultBSSheet,
		PLSheet:        DefaultPLSheet,
		Anchor:         DefaultAnchor,
		BankEncoding:   DefaultBankEncoding,
		OCREngine:      DefaultOCREngine,
		TesseractLangs: DefaultTesseractLangs,
		OCRWorkers:     4,
		Model:          DefaultModelName,
		Concurrency:    4,
		MaxAttempts:    3,
		RequestTimeout: 30 * time.Second,
		Archive: ArchiveConfig{
			Dataset: DefaultArchiveDataset,
			Table:   DefaultArchiveTable,
		},
		Timeout:  30 * time.Minute,
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is
// empty), a .env file in the working directory if present, and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"JOURNAL_SPREADSHEET_ID":   &c.SpreadsheetID,
		"JOURNAL_SOURCE_SHEET":     &c.SourceSheet,
		"JOURNAL_JOURNAL_SHEET":    &c.JournalSheet,
		"JOURNAL_BS_SHEET":         &c.BSSheet,
		"JOURNAL_PL_SHEET":         &c.PLSheet,
		"JOURNAL_BANK_CSV":         &c.BankCSV,
		"JOURNAL_BANK_ENCODING":    &c.BankEncoding,
		"JOURNAL_RECEIPTS":         &c.Receipts,
		"JOURNAL_OCR_ENGINE":       &c.OCREngine,
		"JOURNAL_MODEL":            &c.Model,
		"JOURNAL_LOG_LEVEL":        &c.LogLevel,
		"JOURNAL_ARCHIVE_PROJECT":  &c.Archive.Project,
		"JOURNAL_ARCHIVE_DATASET":  &c.Archive.Dataset,
		"JOURNAL_CREDENTIALS_FILE": &c.CredentialsFile,
		"JOURNAL_TESSERACT_LANGS":  &c.TesseractLangs,
		"JOURNAL_ARCHIVE_TABLE":    &c.Archive.Table,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"JOURNAL_TIMEOUT":         &c.Timeout,
		"JOURNAL_REQUEST_TIMEOUT": &c.RequestTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", key, v, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"JOURNAL_CONCURRENCY":  &c.Concurrency,
		"JOURNAL_MAX_ATTEMPTS": &c.MaxAttempts,
		"JOURNAL_OCR_WORKERS":  &c.OCRWorkers,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup("JOURNAL_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: JOURNAL_RPS=%q: %w", v, err)
		}
		c.RPS = f
	}

	return nil
}

// Validate checks the settings needed by a full pipeline run.
func (c *Config) Validate() error {
	var problems []string

	if c.SpreadsheetID == "" {
		problems = append(problems, "spreadsheet_id is required")
	}
	if c.SourceSheet == "" {
		problems = append(problems, "source_sheet is required")
	}
	if c.BankCSV == "" {
		problems = append(problems, "bank_csv is required")
	}
	if c.Receipts == "" {
		problems = append(problems, "receipts is required")
	}
	switch c.OCREngine {
	case "tesseract", "gemini":
	default:
		problems = append(problems, fmt.Sprintf("ocr_engine %q must be tesseract or gemini", c.OCREngine))
	}
	switch strings.ToLower(c.BankEncoding) {
	case "utf-8", "utf8", "shift_jis", "sjis":
	default:
		problems = append(problems, fmt.Sprintf("bank_encoding %q must be utf-8 or shift_jis", c.BankEncoding))
	}
	if c.Concurrency < 1 {
		problems = append(problems, "concurrency must be at least 1")
	}
	if c.OCRWorkers < 1 {
		problems = append(problems, "ocr_workers must be at least 1")
	}
	if c.MaxAttempts < 1 {
		problems = append(problems, "max_attempts must be at least 1")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "request_timeout must be positive")
	}
	if c.RPS < 0 {
		problems = append(problems, "rps must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
