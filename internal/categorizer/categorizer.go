// Package categorizer assigns an accounting category to every transaction row using an
// external classifier, with bounded concurrency, retries and rate limiting.
package categorizer

import (
	"context"
	"fmt"
	"time"

	"github.com/googleapis/gax-go/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
	"github.com/dvloznov/auto-journal/internal/statements"
)

const (
	DefaultConcurrency    = 4
	DefaultMaxAttempts    = 3
	DefaultRequestTimeout = 30 * time.Second
)

// DefaultBackoff is the retry schedule between classification attempts.
var DefaultBackoff = gax.Backoff{
	Initial:    500 * time.Millisecond,
	Max:        10 * time.Second,
	Multiplier: 2,
}

// Options tune the Categorizer. Zero values take the defaults.
type Options struct {
	Concurrency    int
	MaxAttempts    int
	RequestTimeout time.Duration
	Backoff        gax.Backoff
	// Limiter caps request rate across all workers. Nil means unlimited.
	Limiter *rate.Limiter
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.Backoff == (gax.Backoff{}) {
		o.Backoff = DefaultBackoff
	}
	return o
}

// NewLimiter returns a limiter for rps requests per second, or nil when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RowFailure records a row that fell back to domain.Unclassified after every attempt failed.
type RowFailure struct {
	Index       int
	Description string
	Err         error
}

func (f RowFailure) Error() string {
	return fmt.Sprintf("row %d (%q): %v", f.Index, f.Description, f.Err)
}

func (f RowFailure) Unwrap() error { return f.Err }

// Result holds the categorized rows in input order plus outcome counts.
type Result struct {
	Rows []domain.CategorizedRow

	// Classified rows received a non-empty label.
	Classified int
	// Unclassified rows got an answer with no usable label.
	Unclassified int
	// Failed rows exhausted their attempts; they are also Unclassified in Rows.
	Failed []RowFailure
}

// Categorizer fans rows out to a Classifier.
type Categorizer struct {
	classifier Classifier
	opts       Options
}

// New creates a Categorizer.
func New(classifier Classifier, opts Options) *Categorizer {
	return &Categorizer{classifier: classifier, opts: opts.withDefaults()}
}

// Categorize classifies every row. It never drops a row and never changes an amount:
// failures become domain.Unclassified and are listed in Result.Failed.
func (c *Categorizer) Categorize(ctx context.Context, rows []domain.TransactionRow) Result {
	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(rows)).
		Int("concurrency", c.opts.Concurrency).
		Int("max_attempts", c.opts.MaxAttempts).
		Msg("Categorizing rows")

	out := make([]domain.CategorizedRow, len(rows))
	errs := make([]error, len(rows))

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, row := range rows {
		g.Go(func() error {
			out[i], errs[i] = c.categorizeOne(ctx, i, row)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Rows: out}
	for i, r := range out {
		switch {
		case errs[i] != nil:
			res.Failed = append(res.Failed, RowFailure{Index: i, Description: r.Description, Err: errs[i]})
		case r.Category == domain.Unclassified:
			res.Unclassified++
		default:
			res.Classified++
		}
	}

	log.Info().
		Int("classified", res.Classified).
		Int("unclassified", res.Unclassified).
		Int("failed", len(res.Failed)).
		Msg("Categorization complete")
	return res
}

func (c *Categorizer) categorizeOne(ctx context.Context, index int, row domain.TransactionRow) (domain.CategorizedRow, error) {
	log := logger.FromContext(ctx).With().Int("row", index).Logger()
	out := domain.CategorizedRow{TransactionRow: row, Category: domain.Unclassified}

	bo := c.opts.Backoff
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if c.opts.Limiter != nil {
			if err := c.opts.Limiter.Wait(ctx); err != nil {
				lastErr = err
				break
			}
		}

		out.Attempts = attempt
		raw, err := c.classify(ctx, row.Description)
		if err == nil {
			out.RawResponse = raw
			out.Category = Normalize(raw)
			out.Statement = statements.StatementOf(out.Category)
			log.Debug().Int("attempt", attempt).Str("category", out.Category).Msg("Row classified")
			return out, nil
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("Classification attempt failed")
		if attempt == c.opts.MaxAttempts || ctx.Err() != nil {
			break
		}
		if err := gax.Sleep(ctx, bo.Pause()); err != nil {
			break
		}
	}

	return out, fmt.Errorf("%w: after %d attempts: %v", domain.ErrClassification, out.Attempts, lastErr)
}

func (c *Categorizer) classify(ctx context.Context, description string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()
	return c.classifier.Classify(reqCtx, description)
}
