// Public domain.

package pzfit

import (
	"fmt"
	"math"

	"github.com/soniakeys/photoz/internal/pzphot"
)

// ScaleFactorFunc computes the factor that best scales model fluxes to
// source fluxes.  src and model are matched by position.
type ScaleFactorFunc func(src, model []pzphot.FluxErr) float64

// LikelihoodFunc computes a likelihood value for a source and a model
// scaled by scale.  Whether lower or higher is better is a property of
// the function and must agree with the BestFitFunc it is used with.
type LikelihoodFunc func(src, model []pzphot.FluxErr, scale float64) float64

// MinChi2Scale is the scale factor minimizing the chi square between
// source and scaled model.
func MinChi2Scale(src, model []pzphot.FluxErr) float64 {
	var num, den float64
	for i, s := range src {
		m := model[i].Flux
		iv := 1 / (s.Error * s.Error)
		num += s.Flux * m * iv
		den += m * m * iv
	}
	return num / den
}

// UnitScale leaves models unscaled.
func UnitScale(src, model []pzphot.FluxErr) float64 { return 1 }

// ChiSquare is the chi square of src against the scaled model.
// Lower is better.
func ChiSquare(src, model []pzphot.FluxErr, scale float64) float64 {
	var c float64
	for i, s := range src {
		d := (s.Flux - scale*model[i].Flux) / s.Error
		c += d * d
	}
	return c
}

// GaussianLikelihood is exp(-chi²/2).  Higher is better.
func GaussianLikelihood(src, model []pzphot.FluxErr, scale float64) float64 {
	return math.Exp(-.5 * ChiSquare(src, model, scale))
}

// Likelihood computes one likelihood value per model photometry.
type Likelihood struct {
	Scale ScaleFactorFunc
	Value LikelihoodFunc
}

// Run evaluates src against each of models, writing values to out.
//
// Filters are matched by name.  It is an error for src to lack a filter
// present in a model; filters present only in src are ignored.  Matching
// is done once for each distinct model filter list, so a grid whose cells
// share filters costs one match.
func (l Likelihood) Run(src pzphot.Photometry, models []pzphot.Photometry, out []float64) error {
	if len(out) < len(models) {
		panic("pzfit: likelihood output shorter than models")
	}
	var m matcher
	for i, mp := range models {
		s, err := m.match(src, mp)
		if err != nil {
			return err
		}
		out[i] = l.Value(s, mp.Values, l.Scale(s, mp.Values))
	}
	return nil
}

// matcher holds the source photometry permuted into a model's filter
// order, along with that model as a key for reuse.
type matcher struct {
	key     pzphot.Photometry
	aligned []pzphot.FluxErr
	valid   bool
}

func (m *matcher) match(src, model pzphot.Photometry) ([]pzphot.FluxErr, error) {
	if m.valid && m.key.SameFilters(model) {
		return m.aligned, nil
	}
	a, err := Align(src, model.Filters)
	if err != nil {
		return nil, err
	}
	m.key, m.aligned, m.valid = model, a, true
	return a, nil
}

// Align returns the values of src in the order of filters.
//
// Every aligned value must have a finite flux and a positive finite
// error.  A missing filter is reported before a bad value.
func Align(src pzphot.Photometry, filters []string) ([]pzphot.FluxErr, error) {
	a := make([]pzphot.FluxErr, len(filters))
	for i, f := range filters {
		x := src.Find(f)
		if x < 0 {
			return nil, fmt.Errorf("%w: source has no %q", ErrMismatchedFilters, f)
		}
		a[i] = src.Values[x]
	}
	for i, v := range a {
		if !finite(v.Flux) || !finite(v.Error) || v.Error <= 0 {
			return nil, fmt.Errorf("%w: %q flux %g error %g",
				ErrInvalidPhotometry, filters[i], v.Flux, v.Error)
		}
	}
	return a, nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
