package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/deeptext/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConcurrency is the number of analyses run at once by default.
const DefaultConcurrency = 4

// BatchProcessor analyses many URLs concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each URL.
	pipelineFactory func() *Pipeline

	concurrency int

	// limiter throttles fetch starts. nil means unlimited.
	limiter *rate.Limiter

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger for batch progress.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRateLimit allows at most perSecond analyses to start per second.
// Zero or negative disables the limit.
func WithRateLimit(perSecond float64) BatchOption {
	return func(b *BatchProcessor) {
		if perSecond <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyses urls and returns one Analysis per URL in input
// order. Failures of single URLs are recorded in their Analysis and do not
// stop the batch. The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.Analysis, error) {
	// Each goroutine writes only its own index.
	results := make([]*model.Analysis, len(urls))
	err := bp.run(ctx, urls, func(analysis *model.Analysis, index int) {
		results[index] = analysis
	})
	return results, err
}

// ProcessBatchWithCallback analyses urls and calls callback as each one
// finishes. callback runs on worker goroutines and must be safe for
// concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(analysis *model.Analysis, index int),
) error {
	return bp.run(ctx, urls, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, urls []string, done func(*model.Analysis, int)) error {
	bp.logger.Info("starting batch",
		"total", len(urls),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g := new(errgroup.Group)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			analysis := model.NewAnalysis(url)

			if err := bp.wait(ctx); err != nil {
				analysis.Fail(err)
				done(analysis, i)
				return err
			}

			bp.logger.Debug("analyzing",
				"url", url,
				"index", i+1,
				"total", len(urls),
			)

			if err := bp.pipelineFactory().Execute(ctx, analysis); err != nil {
				bp.logger.Info("analysis failed",
					"url", url,
					"outcome", analysis.Outcome,
					"error", err,
				)
			}
			done(analysis, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch complete",
		"total", len(urls),
		"elapsed", time.Since(start),
	)
	return err
}

// wait blocks until ctx allows another analysis to start.
func (bp *BatchProcessor) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bp.limiter == nil {
		return nil
	}
	return bp.limiter.Wait(ctx)
}
