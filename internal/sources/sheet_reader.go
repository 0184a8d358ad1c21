package sources

import (
	"context"
	"fmt"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
)

// RowStore is the read side of the spreadsheet store.
type RowStore interface {
	ReadValues(ctx context.Context, spreadsheetID, sheet string) ([][]interface{}, error)
}

// SheetReader reads transaction rows from one worksheet. Row 1 is the header.
type SheetReader struct {
	store         RowStore
	spreadsheetID string
	sheet         string
	columns       Columns
}

// NewSheetReader creates a reader over the named sheet using DefaultColumns.
func NewSheetReader(store RowStore, spreadsheetID, sheet string) *SheetReader {
	return &SheetReader{
		store:         store,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		columns:       DefaultColumns,
	}
}

// Name identifies the source in logs and the run report.
func (r *SheetReader) Name() string {
	return "sheet:" + r.sheet
}

// Read fetches the sheet. A missing spreadsheet or sheet returns an error wrapping
// domain.ErrSourceUnavailable; malformed rows are skipped and listed in the result.
func (r *SheetReader) Read(ctx context.Context) (ReadResult, error) {
	log := logger.FromContext(ctx)

	values, err := r.store.ReadValues(ctx, r.spreadsheetID, r.sheet)
	if err != nil {
		return ReadResult{}, fmt.Errorf("SheetReader.Read: %w", err)
	}

	var result ReadResult
	if len(values) == 0 {
		log.Warn().Str("sheet", r.sheet).Msg("Source sheet is empty")
		return result, nil
	}

	for i, raw := range values[1:] {
		line := i + 2
		cells := make([]string, len(raw))
		for j, v := range raw {
			cells[j] = cellString(v)
		}
		if isBlank(cells) {
			continue
		}

		row, err := mapRow(cells, r.columns, domain.SourceSheet)
		if err != nil {
			log.Warn().Err(err).Str("sheet", r.sheet).Int("line", line).Msg("Skipping sheet row")
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	log.Info().
		Str("sheet", r.sheet).
		Int("rows", len(result.Rows)).
		Int("skipped", len(result.Skipped)).
		Msg("Read source sheet")

	return result, nil
}
