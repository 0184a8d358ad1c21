package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/auto-journal/internal/config"
	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/pipeline"
	"github.com/dvloznov/auto-journal/internal/receipts"
)

func TestApplyFlags_OverridesOnlySetFlags(t *testing.T) {
	cfg := config.Default()
	cfg.SpreadsheetID = "from-config"
	cfg.BankCSV = "config.csv"
	cfg.Concurrency = 6

	var f runFlags
	fs := newRunFlagSet(&f)
	require.NoError(t, fs.Parse([]string{
		"-spreadsheet-id", "from-flag",
		"-ocr", "gemini",
		"-rps", "2.5",
		"-max-attempts", "5",
		"-dry-run",
		"-allow-missing-sources",
		"-timeout", "5m",
		"-request-timeout", "15s",
	}))
	applyFlags(cfg, fs, &f)

	assert.Equal(t, "from-flag", cfg.SpreadsheetID)
	assert.Equal(t, "config.csv", cfg.BankCSV)
	assert.Equal(t, 6, cfg.Concurrency)
	assert.Equal(t, "gemini", cfg.OCREngine)
	assert.Equal(t, 2.5, cfg.RPS)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.AllowMissingSources)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, config.DefaultModelName, cfg.Model)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		report *pipeline.Report
		err    error
		want   int
	}{
		{name: "clean", report: &pipeline.Report{}, want: exitOK},
		{name: "partial", report: &pipeline.Report{Classification: pipeline.ClassificationStats{Unclassified: 1}}, want: exitPartial},
		{name: "failure wins over partial", report: &pipeline.Report{Statements: pipeline.StatementStats{Dropped: 1}}, err: errors.New("sink"), want: exitFailure},
		{name: "nil report", err: errors.New("x"), want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.report, tt.err))
		})
	}
}

func TestRunNormalize(t *testing.T) {
	var buf bytes.Buffer
	runNormalize(&buf, []string{"勘定科目: 旅費交通費\n", "現金または預金", ""})

	assert.Equal(t,
		"\"勘定科目: 旅費交通費\\n\" → 旅費交通費\n"+
			"\"現金または預金\" → 現金\n"+
			"\"\" → unclassified\n",
		buf.String())
}

func TestPrintExtract(t *testing.T) {
	res := receipts.ExtractResult{
		Images: 2,
		Rows: []domain.TransactionRow{
			{Date: "2024-01-01", Description: "payment at CafeX", Amount: decimal.NewFromInt(500), Source: domain.SourceReceipt},
		},
		Failed: []receipts.ImageError{{Image: "b.jpg", Err: domain.ErrExtraction}},
	}

	var buf bytes.Buffer
	printExtract(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "=== Receipts (1 rows, 1 failed) ===")
	assert.Contains(t, out, "1. payment at CafeX")
	assert.Contains(t, out, "Amount: 500")
	assert.Contains(t, out, "FAILED b.jpg: extraction error")
}
