package offerstruct

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// Source is one file of a batch.
type Source struct {
	// ID is the source file ID; empty derives it from Path.
	ID   string
	Path string
}

// BatchOptions configures ExtractBatch.
type BatchOptions struct {
	// Workers bounds concurrent files. Zero uses the CPU count.
	Workers int
	// FileTimeout caps one file's pipeline. Zero means no limit.
	FileTimeout time.Duration
}

// BatchResult is the outcome of one file of a batch. Result is set on
// success and for quarantined files; Err is set on any failure.
type BatchResult struct {
	Source Source
	Result *models.Result
	Err    error
}

// OK reports whether the file was extracted without quarantine.
func (r BatchResult) OK() bool { return r.Err == nil }

// ExtractBatch extracts every source on a bounded worker pool. A failed or
// timed-out file never stops the batch; its error is kept in its
// BatchResult. Results are in source order.
func ExtractBatch(ctx context.Context, sources []Source, opts Options, bopts BatchOptions) []BatchResult {
	results := make([]BatchResult, len(sources))
	if len(sources) == 0 {
		return results
	}

	workers := bopts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.logger()
	logger.Info("processing batch",
		zap.Int("files", len(sources)),
		zap.Int("workers", workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var succeeded, quarantined, failed atomic.Int64

	for i, src := range sources {
		if src.ID == "" {
			src.ID = SourceIDFromPath(src.Path)
		}
		results[i].Source = src

		g.Go(func() error {
			log := logger.With(zap.String("file", src.Path))

			fctx := gctx
			if bopts.FileTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, bopts.FileTimeout)
				defer cancel()
			}

			res, err := extractSource(fctx, src, opts)
			results[i].Result = res
			results[i].Err = err

			switch {
			case err == nil:
				succeeded.Add(1)
			case IsQuarantined(err):
				quarantined.Add(1)
				log.Warn("file quarantined", zap.Error(err))
			default:
				failed.Add(1)
				log.Error("extraction failed", zap.Error(err))
			}
			return nil // don't abort batch on individual failure
		})
	}

	_ = g.Wait()

	logger.Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("quarantined", quarantined.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

func extractSource(ctx context.Context, src Source, opts Options) (*models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readSource(src)
	if err != nil {
		return nil, err
	}
	return Extract(ctx, src.ID, data, opts)
}
