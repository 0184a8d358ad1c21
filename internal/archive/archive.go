// Package archive streams the categorized journal into BigQuery for later analysis.
package archive

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
)

// Defaults for the archive location.
const (
	DefaultDataset = "bookkeeping"
	DefaultTable   = "journal_entries"

	batchSize = 500
)

// JournalEntryRow is one archived journal line.
type JournalEntryRow struct {
	RunID    string `bigquery:"run_id"`    // REQUIRED
	RowIndex int64  `bigquery:"row_index"` // REQUIRED, position in the journal
	Source   string `bigquery:"source"`    // sheet | bank | receipt

	DateText  string            `bigquery:"date_text"`  // date as read from the source
	EntryDate bigquery.NullDate `bigquery:"entry_date"` // NULLABLE, set when DateText parses

	Description string   `bigquery:"description"`
	Amount      *big.Rat `bigquery:"amount"` // NUMERIC

	Category    string              `bigquery:"category"`
	Statement   bigquery.NullString `bigquery:"statement"`    // BS | PL | NULL
	RawResponse bigquery.NullString `bigquery:"raw_response"` // model answer before normalization
	Attempts    int64               `bigquery:"attempts"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// rowPutter is satisfied by *bigquery.Inserter.
type rowPutter interface {
	Put(ctx context.Context, src interface{}) error
}

// BigQueryArchive writes journal rows to <project>.<dataset>.<table>.
type BigQueryArchive struct {
	client  *bigquery.Client
	dataset string
	table   string

	putter rowPutter
	now    func() time.Time
}

// NewBigQueryArchive creates an archive using a shared client. Empty dataset or table
// take the defaults.
func NewBigQueryArchive(client *bigquery.Client, dataset, table string) *BigQueryArchive {
	if dataset == "" {
		dataset = DefaultDataset
	}
	if table == "" {
		table = DefaultTable
	}
	return &BigQueryArchive{
		client:  client,
		dataset: dataset,
		table:   table,
		putter:  client.Dataset(dataset).Table(table).Inserter(),
		now:     time.Now,
	}
}

// EnsureTable creates the archive table from JournalEntryRow when it does not exist.
func (a *BigQueryArchive) EnsureTable(ctx context.Context) error {
	t := a.client.Dataset(a.dataset).Table(a.table)
	_, err := t.Metadata(ctx)
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(JournalEntryRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	if err := t.Create(ctx, &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "created_ts"},
	}); err != nil {
		return fmt.Errorf("EnsureTable: create %s.%s: %w", a.dataset, a.table, err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("dataset", a.dataset).Str("table", a.table).Msg("Created archive table")
	return nil
}

// ArchiveJournal streams rows tagged with runID and returns how many were written.
func (a *BigQueryArchive) ArchiveJournal(ctx context.Context, runID string, rows []domain.CategorizedRow) (int, error) {
	entries := ToEntries(runID, rows, a.now())
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		if err := a.putter.Put(ctx, entries[start:end]); err != nil {
			return start, fmt.Errorf("ArchiveJournal: inserting rows %d-%d: %w", start, end-1, err)
		}
	}

	log := logger.FromContext(ctx)
	log.Info().Int("rows", len(entries)).Str("table", a.dataset+"."+a.table).Msg("Journal archived")
	return len(entries), nil
}

// ToEntries converts categorized rows into archive rows.
func ToEntries(runID string, rows []domain.CategorizedRow, created time.Time) []*JournalEntryRow {
	entries := make([]*JournalEntryRow, 0, len(rows))
	for i, r := range rows {
		e := &JournalEntryRow{
			RunID:       runID,
			RowIndex:    int64(i),
			Source:      string(r.Source),
			DateText:    r.Date,
			Description: r.Description,
			Amount:      r.Amount.Rat(),
			Category:    r.Category,
			Attempts:    int64(r.Attempts),
			CreatedTS:   created,
		}
		if d, ok := ParseDate(r.Date); ok {
			e.EntryDate = bigquery.NullDate{Date: d, Valid: true}
		}
		if r.Statement != domain.StatementNone {
			e.Statement = bigquery.NullString{StringVal: string(r.Statement), Valid: true}
		}
		if r.RawResponse != "" {
			e.RawResponse = bigquery.NullString{StringVal: r.RawResponse, Valid: true}
		}
		entries = append(entries, e)
	}
	return entries
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006/1/2", "2006-1-2", "2006年1月2日"}

// ParseDate recognizes the date formats seen in sheets, bank exports and receipts.
func ParseDate(s string) (civil.Date, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}
