package domain

import "errors"

// Error taxonomy shared by every stage. Wrap with fmt.Errorf("...: %w", Err...) and
// test with errors.Is.
var (
	// ErrSourceUnavailable means a whole input (sheet, CSV file, receipt folder) is missing.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParse means a single input row was malformed and skipped.
	ErrParse = errors.New("parse error")

	// ErrExtraction means OCR failed for a single receipt image.
	ErrExtraction = errors.New("extraction error")

	// ErrClassification means the classification service failed for a row after retries.
	ErrClassification = errors.New("classification error")

	// ErrSinkUnavailable means an output sheet does not exist.
	ErrSinkUnavailable = errors.New("sink unavailable")
)
