// Public domain.

// Package pzcal calibrates per-filter photometric corrections against a
// catalog of sources with reference redshifts.
//
// Calibration is a fixed point iteration.  Each pass fits every reference
// source at its known redshift under the current corrections, computes
// for each filter the correction that would bring the observed flux onto
// the scaled best-fit model, and aggregates those across sources into the
// next correction map.  A StopCriteria ends the loop.
package pzcal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soniakeys/photoz/internal/pzcat"
	"github.com/soniakeys/photoz/internal/pzfit"
	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzmetrics"
	"github.com/soniakeys/photoz/internal/pzphot"
)

// Errors returned by calibration.
var (
	ErrEmptyCatalog      = errors.New("pzcal: no calibration sources with reference redshift")
	ErrNoCorrectionData  = errors.New("pzcal: no usable data for filter")
	ErrNegativeTolerance = errors.New("pzcal: negative tolerance")
	ErrInvalidIterations = errors.New("pzcal: maximum iterations must be at least 1")
	ErrUnknownAggregator = errors.New("pzcal: unknown aggregator")
)

// Defaults used when Options leaves Stop unset.
const (
	DefaultMaxIterations = 20
	DefaultTolerance     = 1e-4
)

// Options configures a Calculator.
type Options struct {
	Aggregate AggregateFunc // nil means Median
	Stop      StopCriteria  // nil means a new default criteria per run
	Threads   int           // <= 0 means runtime.GOMAXPROCS(0)

	// Progress, if not nil, is called after each iteration.
	Progress func(iter int, m pzphot.CorrectionMap)

	Logger  *slog.Logger
	Metrics *pzmetrics.Metrics
}

// Calculator runs photometric calibration.
type Calculator struct {
	solver *pzfit.Solver
	opts   Options
}

// New creates a Calculator fitting with solver's grid and strategies.
// The corrections already held by solver are not used.
func New(solver *pzfit.Solver, opts Options) *Calculator {
	if opts.Aggregate == nil {
		opts.Aggregate = Median
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Calculator{solver: solver, opts: opts}
}

// Calculate iterates corrections over the sources of cat having reference
// redshifts.
//
// A nil initial map starts every filter of the first catalog source at
// 1.  A non-nil initial map must cover those filters and, if the stop
// criteria implement Seeder, seeds them.
func (c *Calculator) Calculate(ctx context.Context, cat pzphot.Catalog, initial pzphot.CorrectionMap) (pzphot.CorrectionMap, error) {
	refs := cat.WithRef()
	if len(refs) == 0 {
		return nil, ErrEmptyCatalog
	}
	stop := c.opts.Stop
	if stop == nil {
		// parameters are valid constants
		stop, _ = NewDefaultStopCriteria(DefaultMaxIterations, DefaultTolerance)
	}
	var cur pzphot.CorrectionMap
	if initial == nil {
		cur = pzphot.Ones(cat[0].Filters)
	} else {
		if err := initial.Covers(cat[0].Filters); err != nil {
			return nil, err
		}
		cur = initial.Clone()
		if s, ok := stop.(Seeder); ok {
			s.Seed(cur)
		}
	}
	log := c.opts.Logger
	log.InfoContext(ctx, "calibration started",
		"sources", len(refs),
		"filters", len(cur))
	start := time.Now()
	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := c.Iterate(ctx, refs, cur)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}
		c.opts.Metrics.Iteration(next)
		log.DebugContext(ctx, "calibration iteration",
			"iteration", iter,
			"corrections", next)
		if c.opts.Progress != nil {
			c.opts.Progress(iter, next)
		}
		if stop.Stop(next) {
			log.InfoContext(ctx, "calibration finished",
				"iterations", iter,
				"duration", time.Since(start))
			return next, nil
		}
		cur = next
	}
}

// Iterate computes the correction map following cur.  Every source of
// refs must have a reference redshift.
func (c *Calculator) Iterate(ctx context.Context, refs pzphot.Catalog, cur pzphot.CorrectionMap) (pzphot.CorrectionMap, error) {
	fit := c.solver.WithCorrections(cur)
	best, err := c.FindBestFit(ctx, fit, refs)
	if err != nil {
		return nil, err
	}
	alpha, err := ScaleFactors(fit, refs, best)
	if err != nil {
		return nil, err
	}
	return Corrections(fit.Grid().Filters(), cur, refs, best, alpha, c.opts.Aggregate)
}

// FindBestFit fits each source of refs pinned to the grid redshift
// nearest its reference redshift.  Sources are divided among workers as
// by pzcat.Partition; results are in refs order.
func (c *Calculator) FindBestFit(ctx context.Context, fit *pzfit.Solver, refs pzphot.Catalog) ([]*pzgrid.Cursor[pzphot.Photometry], error) {
	ax := fit.Grid().Axes()
	best := make([]*pzgrid.Cursor[pzphot.Photometry], len(refs))
	var g errgroup.Group
	for _, p := range pzcat.Partition(len(refs), c.opts.Threads) {
		p := p
		g.Go(func() error {
			for x := p.Lo; x < p.Hi; x++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				s := refs[x]
				r, err := fit.SolveAtRedshift(s.Photometry, ax.Nearest(pzgrid.Z, s.Ref.Value))
				if err != nil {
					return fmt.Errorf("source %d: %w", s.ID, err)
				}
				best[x] = r.BestFit
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return best, nil
}

// ScaleFactors returns the scale factor between each uncorrected source
// of refs and its best-fit model.
//
// Corrections only select the best fit.  Scaling the observed flux keeps
// the next map independent of the overall level of the current one, so
// iteration has a fixed point.
func ScaleFactors(fit *pzfit.Solver, refs pzphot.Catalog, best []*pzgrid.Cursor[pzphot.Photometry]) ([]float64, error) {
	if len(best) != len(refs) {
		return nil, fmt.Errorf("%w: %d best fits for %d sources",
			ErrNoCorrectionData, len(best), len(refs))
	}
	alpha := make([]float64, len(refs))
	for i, s := range refs {
		var err error
		if alpha[i], err = fit.ScaleFactor(s.Photometry, best[i]); err != nil {
			return nil, fmt.Errorf("source %d: %w", s.ID, err)
		}
	}
	return alpha, nil
}

// Corrections aggregates per-source corrections into a new map.
//
// For source i and filter f the correction is alpha[i]·model/observed,
// with the observed flux uncorrected, weighted by the inverse variance
// propagated from the observed flux error.  Entries with non-positive
// flux, error or correction are skipped.  Filters of cur that the model
// grid lacks keep their current value.  A modeled filter left with no
// entries is an ErrNoCorrectionData error.
func Corrections(modeled []string, cur pzphot.CorrectionMap, refs pzphot.Catalog,
	best []*pzgrid.Cursor[pzphot.Photometry], alpha []float64, agg AggregateFunc) (pzphot.CorrectionMap, error) {
	if len(best) != len(refs) || len(alpha) != len(refs) {
		return nil, fmt.Errorf("%w: %d best fits, %d scale factors for %d sources",
			ErrNoCorrectionData, len(best), len(alpha), len(refs))
	}
	next := make(pzphot.CorrectionMap, len(cur))
	var vals, wts []float64
	for _, f := range cur.Filters() {
		if !slices.Contains(modeled, f) {
			next[f] = cur[f]
			continue
		}
		vals, wts = vals[:0], wts[:0]
		for i, s := range refs {
			j := s.Find(f)
			if j < 0 {
				continue
			}
			obs := s.Values[j]
			m := best[i].Value()
			fm := m.Values[m.Find(f)].Flux
			if obs.Flux <= 0 || obs.Error <= 0 {
				continue
			}
			r := alpha[i] * fm / obs.Flux
			if r <= 0 {
				continue
			}
			sr := r * obs.Error / obs.Flux
			vals = append(vals, r)
			wts = append(wts, 1/(sr*sr))
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("%w %q", ErrNoCorrectionData, f)
		}
		next[f] = agg(vals, wts)
	}
	return next, nil
}
