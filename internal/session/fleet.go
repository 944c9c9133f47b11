package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/charterbots/internal/journey"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// Summary aggregates the results of a fleet run, in persona order.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// Err joins the failures of every session, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Persona, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Fleet runs one session per persona with bounded concurrency. Sessions are
// independent: one failing never cancels the others.
type Fleet struct {
	runner      *Runner
	concurrency int
	logger      *zap.Logger
}

// NewFleet creates a Fleet. concurrency below 1 runs sessions one at a time.
func NewFleet(runner *Runner, concurrency int, logger *zap.Logger) *Fleet {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fleet{runner: runner, concurrency: concurrency, logger: logger.Named("fleet")}
}

// RunAll runs the stock journey of each persona's role. It fails before
// starting anything if a persona has no journey.
func (f *Fleet) RunAll(ctx context.Context, personas []persona.Persona) (Summary, error) {
	journeys := make([]journey.Journey, len(personas))
	for i, p := range personas {
		j, err := journey.ForRole(p.Role)
		if err != nil {
			return Summary{}, fmt.Errorf("persona %s: %w", p.Name, err)
		}
		journeys[i] = j
	}

	start := time.Now()
	results := make([]Result, len(personas))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i := range personas {
		i := i
		g.Go(func() error {
			results[i] = f.runner.Run(ctx, personas[i], journeys[i])
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Results: results, Elapsed: time.Since(start)}
	for _, r := range results {
		if r.OK() {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	f.logger.Info("Fleet run complete.",
		zap.Int("sessions", len(results)),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, nil
}
