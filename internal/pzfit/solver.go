// Public domain.

// Package pzfit implements per-source fitting against a model grid.
package pzfit

import (
	"errors"
	"fmt"

	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzphot"
)

// Errors returned by fitting.
var (
	ErrMismatchedFilters = errors.New("pzfit: source photometry lacks a model filter")
	ErrNonNumericAxis    = errors.New("pzfit: marginalization axis must be numeric")
	ErrInvalidPhotometry = errors.New("pzfit: source flux must be finite with positive finite error")
)

// Strategies holds the pluggable parts of the fitting algorithm.
type Strategies struct {
	Scale       ScaleFactorFunc
	Likelihood  LikelihoodFunc
	BestFit     BestFitFunc
	Marginalize MarginalizeFunc
}

// DefaultStrategies returns a minimum chi square scale factor, a gaussian
// likelihood maximized for the best fit, and max-marginalization over Z.
func DefaultStrategies() Strategies {
	m, _ := MaxMarginalization(pzgrid.Z)
	return Strategies{
		Scale:       MinChi2Scale,
		Likelihood:  GaussianLikelihood,
		BestFit:     MaxBestFit,
		Marginalize: m,
	}
}

// Solver contains the model grid, photometric corrections and strategies
// needed to fit sources.  It is read-only once constructed and may be
// used from multiple goroutines.
type Solver struct {
	grid *pzgrid.ModelGrid
	corr pzphot.CorrectionMap
	st   Strategies
	lk   Likelihood
}

// New creates a Solver.  Unset strategies take their defaults.
func New(grid *pzgrid.ModelGrid, corr pzphot.CorrectionMap, st Strategies) *Solver {
	def := DefaultStrategies()
	if st.Scale == nil {
		st.Scale = def.Scale
	}
	if st.Likelihood == nil {
		st.Likelihood = def.Likelihood
	}
	if st.BestFit == nil {
		st.BestFit = def.BestFit
	}
	if st.Marginalize == nil {
		st.Marginalize = def.Marginalize
	}
	return &Solver{
		grid: grid,
		corr: corr,
		st:   st,
		lk:   Likelihood{Scale: st.Scale, Value: st.Likelihood},
	}
}

// WithCorrections returns a Solver sharing s's grid and strategies but
// applying corr.
func (s *Solver) WithCorrections(corr pzphot.CorrectionMap) *Solver {
	c := *s
	c.corr = corr
	return &c
}

// Grid returns the model grid.
func (s *Solver) Grid() *pzgrid.ModelGrid { return s.grid }

// Corrections returns the photometric corrections applied by s.
func (s *Solver) Corrections() pzphot.CorrectionMap { return s.corr }

// Result is the outcome of fitting one source.
type Result struct {
	BestFit    *pzgrid.Cursor[pzphot.Photometry] // cell of the model grid
	Scale      float64                           // scale factor at BestFit
	Likelihood float64                           // likelihood at BestFit
	Pdf        Pdf1D
}

// Clone returns a copy of r that shares nothing mutable with r.
func (r Result) Clone() Result {
	c := r
	if r.BestFit != nil {
		c.BestFit = r.BestFit.Grid().CursorAt(r.BestFit.Index())
	}
	c.Pdf = r.Pdf.Clone()
	return c
}

// Solve fits one source photometry.
//
// The photometry is corrected, a likelihood grid shaped like the model
// grid is filled, the best fit cell is located in the model grid and the
// likelihood grid is marginalized.
func (s *Solver) Solve(p pzphot.Photometry) (Result, error) {
	cp, err := s.corr.Apply(p)
	if err != nil {
		return Result{}, err
	}
	lg := pzgrid.New[float64](s.grid.Axes())
	if err = s.lk.Run(cp, s.grid.Cells(), lg.Cells()); err != nil {
		return Result{}, err
	}
	bx := s.st.BestFit(lg.Cells())
	best := pzgrid.Transfer(lg.CursorAt(bx), s.grid.Grid)
	r := Result{
		BestFit:    best,
		Likelihood: lg.Cells()[bx],
		Pdf:        s.st.Marginalize(lg),
	}
	r.Scale, err = s.scale(cp, best)
	return r, err
}

// SolveAtRedshift fits p using only the models at redshift index iz.
// No pdf is computed.
func (s *Solver) SolveAtRedshift(p pzphot.Photometry, iz int) (Result, error) {
	cp, err := s.corr.Apply(p)
	if err != nil {
		return Result{}, err
	}
	models := s.grid.ZSlice(iz)
	vals := make([]float64, len(models))
	if err = s.lk.Run(cp, models, vals); err != nil {
		return Result{}, err
	}
	bx := s.st.BestFit(vals)
	best := s.grid.CursorAt(iz*s.grid.Stride(pzgrid.Z) + bx)
	r := Result{BestFit: best, Likelihood: vals[bx]}
	r.Scale, err = s.scale(cp, best)
	return r, err
}

// ScaleFactor computes the scale factor between photometry p, taken as
// is, and the model at cursor c.
func (s *Solver) ScaleFactor(p pzphot.Photometry, c *pzgrid.Cursor[pzphot.Photometry]) (float64, error) {
	return s.scale(p, c)
}

func (s *Solver) scale(cp pzphot.Photometry, c *pzgrid.Cursor[pzphot.Photometry]) (float64, error) {
	m := c.Value()
	a, err := Align(cp, m.Filters)
	if err != nil {
		return 0, fmt.Errorf("scale factor: %w", err)
	}
	return s.st.Scale(a, m.Values), nil
}
