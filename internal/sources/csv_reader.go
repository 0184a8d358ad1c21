package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BankCSVReader reads a bank statement export with a header row.
type BankCSVReader struct {
	path     string
	encoding string
	columns  Columns
}

// NewBankCSVReader creates a reader for path. encoding is "utf-8" (a BOM is tolerated)
// or "shift_jis", which most Japanese online banking exports use.
func NewBankCSVReader(path, encoding string) *BankCSVReader {
	return &BankCSVReader{
		path:     path,
		encoding: encoding,
		columns:  DefaultColumns,
	}
}

// Name identifies the source in logs and the run report.
func (r *BankCSVReader) Name() string {
	return "bank:" + r.path
}

// Read parses the whole file. A missing or unreadable file returns an error wrapping
// domain.ErrSourceUnavailable. Malformed rows are skipped and listed in the result;
// they never abort the read.
func (r *BankCSVReader) Read(ctx context.Context) (ReadResult, error) {
	log := logger.FromContext(ctx)

	file, err := os.Open(r.path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("BankCSVReader.Read: open %s: %w: %v", r.path, domain.ErrSourceUnavailable, err)
	}
	defer file.Close()

	decoded, err := r.decoder(file)
	if err != nil {
		return ReadResult{}, err
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result ReadResult

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			log.Warn().Str("path", r.path).Msg("Bank CSV is empty")
			return result, nil
		}
		result.Skipped = append(result.Skipped, RowError{Line: 1, Err: fmt.Errorf("%w: header: %v", domain.ErrParse, err)})
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			rowErr := RowError{Line: line, Err: fmt.Errorf("%w: %v", domain.ErrParse, err)}
			log.Warn().Err(rowErr).Str("path", r.path).Msg("Skipping bank row")
			result.Skipped = append(result.Skipped, rowErr)
			continue
		}
		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row, err := mapRow(record, r.columns, domain.SourceBank)
		if err != nil {
			rowErr := RowError{Line: line, Err: err}
			log.Warn().Err(rowErr).Str("path", r.path).Msg("Skipping bank row")
			result.Skipped = append(result.Skipped, rowErr)
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	log.Info().
		Str("path", r.path).
		Int("rows", len(result.Rows)).
		Int("skipped", len(result.Skipped)).
		Msg("Read bank CSV")

	return result, nil
}

func (r *BankCSVReader) decoder(src io.Reader) (io.Reader, error) {
	switch strings.ToLower(r.encoding) {
	case "", "utf-8", "utf8":
		return transform.NewReader(src, unicode.UTF8BOM.NewDecoder()), nil
	case "shift_jis", "sjis":
		return transform.NewReader(src, japanese.ShiftJIS.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("BankCSVReader.Read: unsupported encoding %q", r.encoding)
	}
}
