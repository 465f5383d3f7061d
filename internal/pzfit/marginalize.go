// Public domain.

package pzfit

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/photoz/internal/pzgrid"
)

// BestFitFunc selects the preferred cell among flat likelihood values,
// returning its index.
type BestFitFunc func(values []float64) int

// MaxBestFit picks the highest value.  Ties go to the first cell in
// storage order.
func MaxBestFit(values []float64) int { return floats.MaxIdx(values) }

// MinBestFit picks the lowest value.  Ties go to the first cell in
// storage order.
func MinBestFit(values []float64) int { return floats.MinIdx(values) }

// Pdf1D is a probability density sampled on the values of one grid axis.
type Pdf1D struct {
	Axis string
	X, Y []float64
}

// Clone returns a deep copy of p.
func (p Pdf1D) Clone() Pdf1D {
	return Pdf1D{
		Axis: p.Axis,
		X:    append([]float64(nil), p.X...),
		Y:    append([]float64(nil), p.Y...),
	}
}

// Integral is the trapezoid rule integral of p over X.
func (p Pdf1D) Integral() float64 {
	return trapezoid(p.X, p.Y)
}

// Mode returns the X of the highest density.
func (p Pdf1D) Mode() float64 {
	if len(p.Y) == 0 {
		return 0
	}
	return p.X[floats.MaxIdx(p.Y)]
}

func trapezoid(x, y []float64) (s float64) {
	for i := 1; i < len(x); i++ {
		s += (x[i] - x[i-1]) * (y[i] + y[i-1])
	}
	return s / 2
}

// MarginalizeFunc collapses a likelihood grid to a Pdf1D.
type MarginalizeFunc func(lg *pzgrid.Grid[float64]) Pdf1D

// MaxMarginalization returns a MarginalizeFunc for numeric axis a.
//
// For each value of a, the density is the maximum likelihood over all
// other axes.  The result is then scaled so its trapezoid integral over
// the axis values is 1.  A one-value axis is scaled to sum to 1 instead,
// and an all-zero result is returned unscaled.
func MaxMarginalization(a int) (MarginalizeFunc, error) {
	if a < 0 || a >= pzgrid.NAxes || !pzgrid.Numeric(a) {
		return nil, fmt.Errorf("%w: axis %d", ErrNonNumericAxis, a)
	}
	return func(lg *pzgrid.Grid[float64]) Pdf1D {
		x := lg.Axes().NumericValues(a)
		p := Pdf1D{
			Axis: pzgrid.AxisName(a),
			X:    append([]float64(nil), x...),
			Y:    make([]float64, len(x)),
		}
		seen := make([]bool, len(x))
		for it := lg.Iter(); it.Next(); {
			i := it.AxisIndex(a)
			if v := *it.Value(); !seen[i] || v > p.Y[i] {
				p.Y[i] = v
				seen[i] = true
			}
		}
		norm := p.Integral()
		if len(x) == 1 {
			norm = p.Y[0]
		}
		if norm != 0 {
			floats.Scale(1/norm, p.Y)
		}
		return p
	}, nil
}
