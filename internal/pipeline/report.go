package pipeline

import (
	"fmt"
	"io"
	"strings"
)

// StageStats counts the outcome of reading one source.
type StageStats struct {
	Name    string
	Read    int
	Skipped int // malformed rows
	Failed  int // images that could not be extracted
	// Missing is set when the source was unreachable and the run continued without it.
	Missing bool
	Err     error
}

// ClassificationStats counts categorizer outcomes.
type ClassificationStats struct {
	Classified   int
	Unclassified int
	Failed       int
}

// StatementStats describes the built statements.
type StatementStats struct {
	BSLines           int
	PLLines           int
	Dropped           int
	DroppedCategories []string
}

// WriteStats counts data rows (header excluded) written to each output sheet.
type WriteStats struct {
	DryRun  bool
	Journal int
	BS      int
	PL      int
}

// ArchiveStats records the optional archive step.
type ArchiveStats struct {
	Enabled bool
	Rows    int
	Err     error
}

// Report is the end-of-run summary.
type Report struct {
	RunID          string
	Sources        []StageStats
	Merged         int
	Classification ClassificationStats
	Statements     StatementStats
	Writes         WriteStats
	Archive        ArchiveStats
}

// Partial reports whether the run completed with any skipped, failed, defaulted or dropped work.
func (r *Report) Partial() bool {
	for _, s := range r.Sources {
		if s.Missing || s.Skipped > 0 || s.Failed > 0 {
			return true
		}
	}
	return r.Classification.Unclassified > 0 ||
		r.Classification.Failed > 0 ||
		r.Statements.Dropped > 0 ||
		r.Archive.Err != nil
}

// Print renders the summary for humans.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Run %s ===\n", r.RunID)

	fmt.Fprintln(w, "\nSources:")
	for _, s := range r.Sources {
		if s.Missing {
			fmt.Fprintf(w, "  %-32s MISSING (%v)\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(w, "  %-32s read=%d skipped=%d failed=%d\n", s.Name, s.Read, s.Skipped, s.Failed)
	}
	fmt.Fprintf(w, "  %-32s %d\n", "merged rows", r.Merged)

	c := r.Classification
	fmt.Fprintln(w, "\nClassification:")
	fmt.Fprintf(w, "  classified=%d unclassified=%d failed=%d\n", c.Classified, c.Unclassified, c.Failed)

	st := r.Statements
	fmt.Fprintln(w, "\nStatements:")
	fmt.Fprintf(w, "  BS lines=%d PL lines=%d dropped rows=%d\n", st.BSLines, st.PLLines, st.Dropped)
	if len(st.DroppedCategories) > 0 {
		fmt.Fprintf(w, "  dropped categories: %s\n", strings.Join(st.DroppedCategories, ", "))
	}

	fmt.Fprintln(w, "\nWrites:")
	if r.Writes.DryRun {
		fmt.Fprintln(w, "  dry run, nothing written")
	} else {
		fmt.Fprintf(w, "  journal=%d BS=%d PL=%d\n", r.Writes.Journal, r.Writes.BS, r.Writes.PL)
	}

	if r.Archive.Enabled {
		fmt.Fprintln(w, "\nArchive:")
		if r.Archive.Err != nil {
			fmt.Fprintf(w, "  FAILED: %v\n", r.Archive.Err)
		} else {
			fmt.Fprintf(w, "  rows=%d\n", r.Archive.Rows)
		}
	}

	if r.Partial() {
		fmt.Fprintln(w, "\nWARNING: run completed with partial failures")
	}
}
