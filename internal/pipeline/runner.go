// Package pipeline orchestrates ASL detection across the time steps of a
// dataset: fan out one independent unit per month, recover per-month
// failures locally, reduce to a time-sorted table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/domain"
	"github.com/couchcryptid/asl-index-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// FieldSource supplies one pressure field per time step. Implementations
// must be safe for concurrent FieldAt calls; the runner never mutates them.
type FieldSource interface {
	// Times returns the time stamps of the dataset in ascending order.
	Times() []time.Time
	// FieldAt loads the field for time step i in hPa.
	FieldAt(ctx context.Context, i int) (*domain.Grid, error)
}

// Options configures a detection run.
type Options struct {
	Sector      domain.Bounds
	Border      float64              // wider-window margin in degrees
	ContourStep float64              // minimum closed-isobar height above the candidate, hPa
	Workers     int                  // 1 = fully sequential
	StepTimeout time.Duration        // 0 disables per-unit timeouts
	Policy      domain.MissingPolicy // how open troughs are reported
}

func (o Options) validate() error {
	if err := o.Sector.Validate(); err != nil {
		return fmt.Errorf("sector bounds: %w", err)
	}
	if o.Border < 0 {
		return fmt.Errorf("window border %.2f below zero", o.Border)
	}
	if o.ContourStep <= 0 {
		return fmt.Errorf("contour step %.2f not positive", o.ContourStep)
	}
	if o.Workers < 1 {
		return fmt.Errorf("worker count %d below 1", o.Workers)
	}
	if _, err := domain.ParseMissingPolicy(string(o.Policy)); err != nil {
		return err
	}
	return nil
}

// Runner executes detection over a FieldSource with a fixed mask.
type Runner struct {
	source  FieldSource
	mask    *domain.Mask
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	done    atomic.Bool
}

// New creates a Runner. The mask is shared read-only across all workers.
func New(source FieldSource, mask *domain.Mask, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		source:  source,
		mask:    mask,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has produced a complete table.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.done.Load() {
		return errors.New("detection run has not completed yet")
	}
	return nil
}

// Run processes every time step and returns the time-sorted result table,
// one record per step. Configuration and shape errors are fatal; data
// problems local to a month yield a missing-valued record for that month.
func (r *Runner) Run(ctx context.Context) (domain.Table, error) {
	start := time.Now()
	r.metrics.RunActive.Set(1)
	defer r.metrics.RunActive.Set(0)

	if err := r.opts.validate(); err != nil {
		return nil, err
	}

	times := r.source.Times()
	r.logger.Info("detection run starting",
		"timesteps", len(times),
		"workers", r.opts.Workers,
		"policy", string(r.opts.Policy),
		"calculation_version", domain.CalculationVersion,
	)
	if len(times) == 0 {
		r.done.Store(true)
		return domain.Table{}, nil
	}

	// Probe the first field up front so window and alignment problems abort
	// before any fan-out.
	if err := r.checkSetup(ctx); err != nil {
		return nil, err
	}

	// One slot per time step: workers write disjoint indices, so the reduce
	// is deterministic whatever the completion order.
	results := make([]domain.Record, len(times))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range times {
		g.Go(func() error {
			rec, err := r.processStep(gctx, i, times[i])
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := domain.Table(results)
	table.Sort()

	r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	r.done.Store(true)
	r.logger.Info("detection run complete", "rows", len(table), "in", time.Since(start).Round(time.Millisecond))
	return table, nil
}

// checkSetup loads the first field and builds both windows once, surfacing
// OutOfBounds and ShapeMismatch as run-level failures.
func (r *Runner) checkSetup(ctx context.Context) error {
	field, err := r.source.FieldAt(ctx, 0)
	if err != nil {
		return fmt.Errorf("probe first field: %w", err)
	}
	if _, err := domain.NewWindow(field, r.mask, r.opts.Sector); err != nil {
		return fmt.Errorf("sector window: %w", err)
	}
	if _, err := domain.NewWindow(field, r.mask, r.opts.Sector.Expand(r.opts.Border)); err != nil {
		return fmt.Errorf("wider window: %w", err)
	}
	return nil
}

// processStep runs one load-and-detect unit. The returned error is non-nil
// only for failures that must abort the whole run.
func (r *Runner) processStep(ctx context.Context, i int, ts time.Time) (domain.Record, error) {
	unit := time.Now()
	defer func() {
		r.metrics.TimestepsProcessed.Inc()
		r.metrics.StepDuration.Observe(time.Since(unit).Seconds())
	}()

	stepCtx := ctx
	if r.opts.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, r.opts.StepTimeout)
		defer cancel()
	}

	rec, err := r.detect(stepCtx, i, ts)
	if err == nil {
		return rec, nil
	}

	// The run itself was cancelled: propagate. A per-step timeout is local.
	if ctx.Err() != nil {
		return domain.Record{}, ctx.Err()
	}
	if errors.Is(err, domain.ErrShapeMismatch) || errors.Is(err, domain.ErrOutOfBounds) {
		return domain.Record{}, fmt.Errorf("time step %s: %w", ts.Format("2006-01"), err)
	}

	r.logger.Warn("time step yielded no detection",
		"time", ts.Format("2006-01-02"),
		"error", err,
	)
	r.metrics.MissingRecords.Inc()
	return domain.MissingRecord(ts), nil
}

func (r *Runner) detect(ctx context.Context, i int, ts time.Time) (domain.Record, error) {
	field, err := r.source.FieldAt(ctx, i)
	if err != nil {
		return domain.Record{}, err
	}
	// Sources are not obliged to watch ctx; enforce the unit deadline here so
	// a slow load cannot slip a late result past its timeout.
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	if !field.HasData() {
		return domain.Record{}, domain.ErrMissingData
	}

	sector, err := domain.NewWindow(field, r.mask, r.opts.Sector)
	if err != nil {
		return domain.Record{}, err
	}
	wider, err := domain.NewWindow(field, r.mask, r.opts.Sector.Expand(r.opts.Border))
	if err != nil {
		return domain.Record{}, err
	}

	mean, err := domain.SectorMean(sector)
	if err != nil {
		return domain.Record{}, err
	}
	cand, err := domain.FindCandidate(sector, wider, r.opts.ContourStep)
	if err != nil {
		return domain.Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}

	if !cand.Closed {
		r.metrics.OpenLows.Inc()
		if r.opts.Policy == domain.PolicyStrict {
			r.logger.Debug("open trough withheld under strict policy", "time", ts.Format("2006-01-02"))
			return domain.MissingRecord(ts), nil
		}
	}
	return domain.NewRecord(ts, cand, mean), nil
}
