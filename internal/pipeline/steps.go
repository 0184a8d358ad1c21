package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
	"github.com/dvloznov/auto-journal/internal/statements"
)

// PipelineStep represents a single step in the journal pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID string

	SheetRows   []domain.TransactionRow
	BankRows    []domain.TransactionRow
	ReceiptRows []domain.TransactionRow

	Merged      []domain.TransactionRow
	Categorized []domain.CategorizedRow
	Statements  statements.Result

	Report *Report
}

// NewPipelineState creates an empty state with a report tagged with runID.
func NewPipelineState(runID string) *PipelineState {
	return &PipelineState{RunID: runID, Report: &Report{RunID: runID}}
}

// sourceFailure decides whether an unreachable source aborts the run.
func sourceFailure(ctx context.Context, name string, err error, allowMissing bool, state *PipelineState) error {
	if allowMissing && errors.Is(err, domain.ErrSourceUnavailable) {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("source", name).Msg("Source unavailable, continuing without it")
		state.Report.Sources = append(state.Report.Sources, StageStats{Name: name, Missing: true, Err: err})
		return nil
	}
	return fmt.Errorf("read %s: %w", name, err)
}

// ReadSourceStep reads one tabular source into the state.
type ReadSourceStep struct {
	Reader       RowReader
	Source       domain.Source
	AllowMissing bool
}

func (s *ReadSourceStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Reader == nil {
		return nil
	}
	res, err := s.Reader.Read(ctx)
	if err != nil {
		return sourceFailure(ctx, s.Reader.Name(), err, s.AllowMissing, state)
	}

	switch s.Source {
	case domain.SourceSheet:
		state.SheetRows = res.Rows
	case domain.SourceBank:
		state.BankRows = res.Rows
	default:
		return fmt.Errorf("read %s: unsupported source %q", s.Reader.Name(), s.Source)
	}
	state.Report.Sources = append(state.Report.Sources, StageStats{
		Name:    s.Reader.Name(),
		Read:    len(res.Rows),
		Skipped: len(res.Skipped),
	})
	return nil
}

// ExtractReceiptsStep OCRs the receipt images.
type ExtractReceiptsStep struct {
	Extractor    ReceiptExtractor
	AllowMissing bool
}

func (s *ExtractReceiptsStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Extractor == nil {
		return nil
	}
	res, err := s.Extractor.Extract(ctx)
	if err != nil {
		return sourceFailure(ctx, s.Extractor.Name(), err, s.AllowMissing, state)
	}
	state.ReceiptRows = res.Rows
	state.Report.Sources = append(state.Report.Sources, StageStats{
		Name:   s.Extractor.Name(),
		Read:   len(res.Rows),
		Failed: len(res.Failed),
	})
	return nil
}

// MergeStep concatenates the sources.
type MergeStep struct{}

func (s *MergeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Merged = Merge(state.SheetRows, state.BankRows, state.ReceiptRows)
	state.Report.Merged = len(state.Merged)
	log := logger.FromContext(ctx)
	log.Info().Int("rows", len(state.Merged)).Msg("Sources merged")
	return nil
}

// CategorizeStep labels every merged row.
type CategorizeStep struct {
	Categorizer RowCategorizer
}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	res := s.Categorizer.Categorize(ctx, state.Merged)
	state.Categorized = res.Rows
	state.Report.Classification = ClassificationStats{
		Classified:   res.Classified,
		Unclassified: res.Unclassified,
		Failed:       len(res.Failed),
	}
	return nil
}

// BuildStatementsStep aggregates the BS and PL tables.
type BuildStatementsStep struct{}

func (s *BuildStatementsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Statements = statements.Build(state.Categorized)
	state.Report.Statements = StatementStats{
		BSLines:           len(state.Statements.BS),
		PLLines:           len(state.Statements.PL),
		Dropped:           state.Statements.Dropped,
		DroppedCategories: state.Statements.DroppedCategories,
	}
	if state.Statements.Dropped > 0 {
		log := logger.FromContext(ctx)
		log.Warn().
			Int("rows", state.Statements.Dropped).
			Strs("categories", state.Statements.DroppedCategories).
			Msg("Rows outside the statement vocabularies were left out of BS/PL")
	}
	return nil
}

// Output names the sheets the tables are written to.
type Output struct {
	SpreadsheetID string
	JournalSheet  string
	BSSheet       string
	PLSheet       string
	Anchor        string
	DryRun        bool
}

// WriteTablesStep writes the journal, BS and PL tables. All three sheets are checked
// first, so a missing sheet aborts before any sheet is modified.
type WriteTablesStep struct {
	Writer TableWriter
	Output Output
}

func (s *WriteTablesStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	if s.Output.DryRun {
		state.Report.Writes.DryRun = true
		log.Info().Msg("Dry run, skipping sheet writes")
		return nil
	}

	writes := []struct {
		sheet string
		table domain.Table
		count *int
	}{
		{s.Output.JournalSheet, statements.JournalTable(state.Categorized), &state.Report.Writes.Journal},
		{s.Output.BSSheet, statements.StatementTable(state.Statements.BS), &state.Report.Writes.BS},
		{s.Output.PLSheet, statements.StatementTable(state.Statements.PL), &state.Report.Writes.PL},
	}
	names := make([]string, 0, len(writes))
	for _, w := range writes {
		names = append(names, w.sheet)
	}
	if err := s.Writer.CheckSheets(ctx, s.Output.SpreadsheetID, names...); err != nil {
		return fmt.Errorf("check output sheets: %w", err)
	}

	for _, w := range writes {
		n, err := s.Writer.WriteTable(ctx, s.Output.SpreadsheetID, w.sheet, s.Output.Anchor, w.table)
		if err != nil {
			return fmt.Errorf("write %s: %w", w.sheet, err)
		}
		*w.count = n
		log.Info().Str("sheet", w.sheet).Int("rows", n).Msg("Sheet written")
	}
	return nil
}

// ArchiveStep copies the journal to the archive. Failures are reported, not returned:
// the sheets have already been written.
type ArchiveStep struct {
	Archiver JournalArchiver
	DryRun   bool
}

func (s *ArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Archiver == nil || s.DryRun {
		return nil
	}
	state.Report.Archive.Enabled = true
	n, err := s.Archiver.ArchiveJournal(ctx, state.RunID, state.Categorized)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Archive failed")
		state.Report.Archive.Err = err
		return nil
	}
	state.Report.Archive.Rows = n
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Deps are the collaborators of the journal pipeline. Nil sources are skipped; a nil
// Archiver disables archiving.
type Deps struct {
	Sheet       RowReader
	Bank        RowReader
	Receipts    ReceiptExtractor
	Categorizer RowCategorizer
	Writer      TableWriter
	Archiver    JournalArchiver
}

// Options control source tolerance and output.
type Options struct {
	AllowMissingSources bool
	Output              Output
}

// NewJournalPipeline creates the standard pipeline: read, extract, merge, categorize,
// build statements, write, archive.
func NewJournalPipeline(deps Deps, opts Options) *Pipeline {
	return NewPipeline(
		&ReadSourceStep{Reader: deps.Sheet, Source: domain.SourceSheet, AllowMissing: opts.AllowMissingSources},
		&ReadSourceStep{Reader: deps.Bank, Source: domain.SourceBank, AllowMissing: opts.AllowMissingSources},
		&ExtractReceiptsStep{Extractor: deps.Receipts, AllowMissing: opts.AllowMissingSources},
		&MergeStep{},
		&CategorizeStep{Categorizer: deps.Categorizer},
		&BuildStatementsStep{},
		&WriteTablesStep{Writer: deps.Writer, Output: opts.Output},
		&ArchiveStep{Archiver: deps.Archiver, DryRun: opts.Output.DryRun},
	)
}

// Run executes the journal pipeline and returns the report. The report is returned even
// when a step fails, holding whatever completed before the failure.
func Run(ctx context.Context, runID string, deps Deps, opts Options) (*Report, error) {
	state := NewPipelineState(runID)
	err := NewJournalPipeline(deps, opts).Execute(ctx, state)
	return state.Report, err
}
