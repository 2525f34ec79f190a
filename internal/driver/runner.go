package driver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cleanmedia/internal/media"
	"github.com/dmitrymomot/cleanmedia/pkg/logger"
)

// Renamer runs the rename transaction for one attachment.
type Renamer interface {
	Rename(ctx context.Context, id int64) (media.Summary, error)
}

// Report counts what a run did.
type Report struct {
	RunID     uuid.UUID `json:"run_id"`
	Processed int       `json:"processed"`
	Renamed   int       `json:"renamed"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
	Errors    int       `json:"errors"`
}

// ResultFunc receives the outcome of every processed attachment.
type ResultFunc func(id int64, summary media.Summary, err error)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithInterval pauses between two transactions.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.interval = d
	}
}

// WithLimit stops the run after n attachments. Zero means no limit.
func WithLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.limit = n
	}
}

// WithStopOnError aborts the run on the first store error.
// By default the failing id is logged and the run continues.
func WithStopOnError() RunnerOption {
	return func(r *Runner) {
		r.stopOnError = true
	}
}

// WithResultFunc registers a callback invoked after every transaction.
func WithResultFunc(fn ResultFunc) RunnerOption {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// Runner drains a Queue sequentially through a Renamer.
type Runner struct {
	queue       Queue
	renamer     Renamer
	logger      *slog.Logger
	interval    time.Duration
	limit       int
	stopOnError bool
	onResult    ResultFunc
}

// NewRunner creates a Runner.
func NewRunner(queue Queue, renamer Renamer, opts ...RunnerOption) (*Runner, error) {
	if queue == nil {
		return nil, ErrQueueNil
	}
	if renamer == nil {
		return nil, ErrRenamerNil
	}
	r := &Runner{
		queue:   queue,
		renamer: renamer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run processes queued ids until the queue is empty, the limit is reached or
// ctx is canceled. Cancellation is checked between transactions only.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.New()}
	log := r.logger.With(logger.Component("driver"), logger.RunID(report.RunID.String()))

	if n, err := r.queue.Len(ctx); err == nil {
		log.InfoContext(ctx, "run started", logger.QueueLength(n))
	}
	start := time.Now()

	for r.limit == 0 || report.Processed < r.limit {
		if err := ctx.Err(); err != nil {
			log.InfoContext(ctx, "run canceled", slog.Int("processed", report.Processed))
			return report, err
		}

		id, ok, err := r.queue.Pop(ctx)
		if errors.Is(err, ErrInvalidQueueID) {
			log.WarnContext(ctx, "skipping queue entry", logger.Error(err))
			continue
		}
		if err != nil {
			return report, err
		}
		if !ok {
			break
		}

		if report.Processed > 0 && r.interval > 0 {
			if err := sleep(ctx, r.interval); err != nil {
				// The popped id goes back, at the tail, so a later run picks it up.
				if perr := r.queue.Push(context.WithoutCancel(ctx), id); perr != nil {
					log.ErrorContext(ctx, "failed to requeue attachment",
						logger.AttachmentID(id),
						logger.Error(perr),
					)
					return report, errors.Join(err, ErrRequeueFailed, perr)
				}
				return report, err
			}
		}

		summary, err := r.renamer.Rename(ctx, id)
		report.Processed++
		if r.onResult != nil {
			r.onResult(id, summary, err)
		}

		if err != nil {
			report.Errors++
			log.ErrorContext(ctx, "attachment failed", logger.AttachmentID(id), logger.Error(err))
			if r.stopOnError {
				return report, errors.Join(ErrRunAborted, err)
			}
			continue
		}

		switch summary.Outcome {
		case media.Success:
			report.Renamed++
		case media.PhysicalFailure:
			report.Failed++
		default:
			report.Unchanged++
		}
	}

	log.InfoContext(ctx, "run finished",
		slog.Int("processed", report.Processed),
		slog.Int("renamed", report.Renamed),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("failed", report.Failed),
		slog.Int("errors", report.Errors),
		logger.Duration(time.Since(start)),
	)
	return report, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
