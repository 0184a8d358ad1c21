package receipts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
)

// DefaultWorkers bounds concurrent OCR calls.
const DefaultWorkers = 4

// ImageError records a receipt that could not be read or recognized.
type ImageError struct {
	Image string
	Err   error
}

func (e ImageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Image, e.Err)
}

func (e ImageError) Unwrap() error { return e.Err }

// ExtractResult holds rows in listing order plus the images that failed.
type ExtractResult struct {
	Images int
	Rows   []domain.TransactionRow
	Failed []ImageError
}

// Extractor runs OCR over every image of a source on a bounded worker pool.
type Extractor struct {
	source  ImageSource
	engine  OCREngine
	workers int
}

// NewExtractor creates an extractor. workers <= 0 uses DefaultWorkers.
func NewExtractor(source ImageSource, engine OCREngine, workers int) *Extractor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Extractor{source: source, engine: engine, workers: workers}
}

// Name identifies the image source in logs and the run report.
func (e *Extractor) Name() string {
	if n, ok := e.source.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "receipts"
}

type outcome struct {
	row domain.TransactionRow
	err error
}

// Extract lists the source and converts each image to a row. A listing failure is returned
// as an error; per-image failures wrap domain.ErrExtraction and land in Failed.
func (e *Extractor) Extract(ctx context.Context) (ExtractResult, error) {
	log := logger.FromContext(ctx)

	images, err := e.source.List(ctx)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("receipts.Extract: %w", err)
	}
	if len(images) == 0 {
		log.Warn().Str("source", e.Name()).Msg("No receipt images found")
	}
	log.Info().Int("images", len(images)).Int("workers", e.workers).Msg("Extracting receipts")

	results := make([]outcome, len(images))
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, img := range images {
		g.Go(func() error {
			row, err := e.extractOne(ctx, img)
			results[i] = outcome{row: row, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := ExtractResult{Images: len(images)}
	for i, r := range results {
		if r.err != nil {
			log.Warn().Err(r.err).Str("file", images[i].Name).Msg("Skipping receipt")
			res.Failed = append(res.Failed, ImageError{Image: images[i].Name, Err: r.err})
			continue
		}
		res.Rows = append(res.Rows, r.row)
	}
	log.Info().Int("rows", len(res.Rows)).Int("failed", len(res.Failed)).Msg("Receipts extracted")
	return res, nil
}

func (e *Extractor) extractOne(ctx context.Context, img Image) (domain.TransactionRow, error) {
	data, err := e.source.Open(ctx, img)
	if err != nil {
		return domain.TransactionRow{}, fmt.Errorf("%w: open: %v", domain.ErrExtraction, err)
	}
	text, err := e.engine.Recognize(ctx, img, data)
	if err != nil {
		return domain.TransactionRow{}, fmt.Errorf("%w: ocr: %v", domain.ErrExtraction, err)
	}

	f := ExtractFields(text)
	if !f.AmountFound {
		log := logger.FromContext(ctx)
		log.Debug().Str("file", img.Name).Msg("No amount found on receipt, using 0")
	}
	return RowFromFields(f), nil
}

// RowFromFields builds the transaction row for a receipt.
func RowFromFields(f Fields) domain.TransactionRow {
	return domain.TransactionRow{
		Date:        f.Date,
		Description: "payment at " + f.Store,
		Amount:      decimal.NewFromInt(f.Amount),
		Source:      domain.SourceReceipt,
	}
}
