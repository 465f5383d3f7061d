// Public domain.

// Package pzcat runs the per-source fit over whole catalogs.
package pzcat

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/soniakeys/photoz/internal/pzfit"
	"github.com/soniakeys/photoz/internal/pzmetrics"
	"github.com/soniakeys/photoz/internal/pzphot"
)

// Fitter fits a single source photometry.  *pzfit.Solver implements it.
type Fitter interface {
	Solve(p pzphot.Photometry) (pzfit.Result, error)
}

// OutputHandler receives fit results.  It is called once per source, in
// catalog order, and never concurrently.
type OutputHandler interface {
	HandleSourceOutput(src pzphot.Source, r pzfit.Result) error
}

// ProgressFunc is called periodically with the number of completed
// sources.
type ProgressFunc func(done, total int)

// DefaultProgressInterval is the minimum time between progress calls if
// Handler.ProgressInterval is zero.
const DefaultProgressInterval = time.Second

// Handler applies a Fitter to each source of a catalog.
type Handler struct {
	Fitter Fitter

	// Threads is the number of workers.  One selects the sequential
	// driver.  Zero or less uses runtime.GOMAXPROCS(0).
	Threads int

	Progress         ProgressFunc
	ProgressInterval time.Duration

	Logger  *slog.Logger
	Metrics *pzmetrics.Metrics
}

// Run fits every source of cat and delivers results to out in catalog
// order.
//
// The first error, whether from a fit or from out, stops Run.  With more
// than one worker, a failing source ends only its own worker's partition;
// other workers finish, then the error is returned and nothing is passed
// to out.  The context is checked between sources.
func (h *Handler) Run(ctx context.Context, cat pzphot.Catalog, out OutputHandler) error {
	start := time.Now()
	threads := h.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log := h.logger()
	log.InfoContext(ctx, "processing catalog",
		"sources", len(cat),
		"threads", threads)
	var err error
	if threads == 1 {
		err = h.sequential(ctx, cat, out)
	} else {
		err = h.parallel(ctx, cat, out, threads)
	}
	if err != nil {
		log.ErrorContext(ctx, "catalog processing failed", "error", err)
		return err
	}
	log.InfoContext(ctx, "catalog processed",
		"sources", len(cat),
		"duration", time.Since(start))
	return nil
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) interval() time.Duration {
	if h.ProgressInterval > 0 {
		return h.ProgressInterval
	}
	return DefaultProgressInterval
}

func (h *Handler) solve(s pzphot.Source) (pzfit.Result, error) {
	r, err := h.Fitter.Solve(s.Photometry)
	h.Metrics.SourceDone(err)
	if err != nil {
		return r, fmt.Errorf("source %d: %w", s.ID, err)
	}
	return r, nil
}

func (h *Handler) sequential(ctx context.Context, cat pzphot.Catalog, out OutputHandler) error {
	st := rate.Sometimes{First: 1, Interval: h.interval()}
	for i, s := range cat {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := h.solve(s)
		if err != nil {
			return err
		}
		if err = out.HandleSourceOutput(s, r); err != nil {
			return err
		}
		if h.Progress != nil {
			st.Do(func() { h.Progress(i+1, len(cat)) })
		}
	}
	if h.Progress != nil {
		h.Progress(len(cat), len(cat))
	}
	return nil
}

type item struct {
	x int // catalog index
	r pzfit.Result
}

func (h *Handler) parallel(ctx context.Context, cat pzphot.Catalog, out OutputHandler, threads int) error {
	parts := Partition(len(cat), threads)
	h.logger().DebugContext(ctx, "catalog partitioned", "partitions", len(parts))

	var done atomic.Int64
	sig := make(chan struct{}, len(parts))
	fin := make(chan struct{})
	go h.notify(sig, &done, len(cat), fin)

	// worker results, kept per partition to preserve catalog order
	results := make([][]item, len(parts))
	var g errgroup.Group
	for px, p := range parts {
		px, p := px, p
		g.Go(func() error {
			res := make([]item, 0, p.Hi-p.Lo)
			defer func() { results[px] = res }()
			for x := p.Lo; x < p.Hi; x++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := h.solve(cat[x])
				if err != nil {
					return err
				}
				// the result outlives this iteration, keep a private copy
				res = append(res, item{x, r.Clone()})
				done.Add(1)
				select {
				case sig <- struct{}{}:
				default:
				}
			}
			return nil
		})
	}
	err := g.Wait()
	close(sig)
	<-fin
	if err != nil {
		return err
	}
	if h.Progress != nil {
		h.Progress(len(cat), len(cat))
	}
	for _, res := range results {
		for _, it := range res {
			if err := out.HandleSourceOutput(cat[it.x], it.r); err != nil {
				return err
			}
		}
	}
	return nil
}

// notify calls Progress as workers signal completed sources, no more
// often than the progress interval.  It returns, closing fin, once sig
// is closed.
func (h *Handler) notify(sig <-chan struct{}, done *atomic.Int64, total int, fin chan<- struct{}) {
	defer close(fin)
	st := rate.Sometimes{First: 1, Interval: h.interval()}
	for range sig {
		if h.Progress != nil {
			st.Do(func() { h.Progress(int(done.Load()), total) })
		}
	}
}

// Range is a half open range of catalog indexes.
type Range struct {
	Lo, Hi int
}

// Partition splits n items into at most parts contiguous ranges whose
// lengths differ by at most one.  Earlier ranges get the extra items.
func Partition(n, parts int) []Range {
	if parts > n {
		parts = n
	}
	if parts <= 0 {
		return nil
	}
	r := make([]Range, parts)
	base, extra := n/parts, n%parts
	lo := 0
	for i := range r {
		hi := lo + base
		if i < extra {
			hi++
		}
		r[i] = Range{lo, hi}
		lo = hi
	}
	return r
}
