package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitehash/internal/model"
)

// DefaultConcurrency is the number of inputs processed at once.
const DefaultConcurrency = 8

// HashFunc produces the result for one input.
type HashFunc func(ctx context.Context, input string) (model.HashResult, error)

// BatchProcessor handles concurrent processing of multiple inputs.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// concurrency is the maximum number of inputs in flight.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent inputs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Process runs fn for every input and returns the results in input order.
// The first error cancels the remaining work and is returned alone.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because each input gets its own goroutine but only 'concurrency' run
// simultaneously, and errgroup already propagates the first failure.
func (bp *BatchProcessor) Process(ctx context.Context, inputs []string, fn HashFunc) ([]model.HashResult, error) {
	if len(inputs) > 1 {
		bp.logger.Debug("starting batch",
			"total", len(inputs),
			"concurrency", bp.concurrency,
		)
	}
	start := time.Now()

	// Each goroutine writes only its own index.
	results := make([]model.HashResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, input)
			if err != nil {
				bp.logger.Debug("batch item failed",
					"input", input,
					"index", i,
					"error", err,
				)
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(inputs) > 1 {
		bp.logger.Debug("batch complete",
			"total", len(inputs),
			"elapsed", time.Since(start),
		)
	}
	return results, nil
}
