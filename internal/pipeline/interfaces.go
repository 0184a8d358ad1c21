package pipeline

import (
	"context"

	"github.com/dvloznov/auto-journal/internal/categorizer"
	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/receipts"
	"github.com/dvloznov/auto-journal/internal/sources"
)

// RowReader is a tabular transaction source (sheet or bank CSV).
type RowReader interface {
	Name() string
	Read(ctx context.Context) (sources.ReadResult, error)
}

// ReceiptExtractor produces rows from receipt images.
type ReceiptExtractor interface {
	Name() string
	Extract(ctx context.Context) (receipts.ExtractResult, error)
}

// RowCategorizer labels merged rows.
type RowCategorizer interface {
	Categorize(ctx context.Context, rows []domain.TransactionRow) categorizer.Result
}

// TableWriter overwrites a sheet with a table. CheckSheets confirms every target exists
// before anything is written.
type TableWriter interface {
	CheckSheets(ctx context.Context, spreadsheetID string, names ...string) error
	WriteTable(ctx context.Context, spreadsheetID, sheet, anchor string, table domain.Table) (int, error)
}

// JournalArchiver stores the categorized journal outside the spreadsheet.
type JournalArchiver interface {
	ArchiveJournal(ctx context.Context, runID string, rows []domain.CategorizedRow) (int, error)
}
