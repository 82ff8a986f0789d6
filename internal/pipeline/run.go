package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bigaward-cli/internal/model"
)

// Summary totals a run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
	Elapsed   time.Duration
}

// Run processes seeds with up to Options.Concurrency in flight. One
// company's failure never stops the run. Seeds not started before ctx is
// done are counted as skipped.
func (r *Runner) Run(ctx context.Context, seeds []model.Seed) Summary {
	start := time.Now()
	zap.L().Info("pipeline: run starting",
		zap.String("run_id", r.runID),
		zap.Int("companies", len(seeds)),
		zap.Int("concurrency", r.opts.Concurrency),
		zap.Bool("validate", r.opts.Validate),
		zap.Bool("dry_run", r.opts.DryRun),
	)

	outcomes := make([]Outcome, len(seeds))
	started := make([]bool, len(seeds))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, seed := range seeds {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			out := r.Process(gctx, seed)
			outcomes[i] = out
			if out.Status == StatusSuccess {
				succeeded.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{
		RunID:     r.runID,
		Total:     len(seeds),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Elapsed:   time.Since(start),
	}
	for i, ok := range started {
		if ok {
			sum.Outcomes = append(sum.Outcomes, outcomes[i])
		} else {
			sum.Skipped++
		}
	}

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", sum.RunID),
		zap.Int("total", sum.Total),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum
}
