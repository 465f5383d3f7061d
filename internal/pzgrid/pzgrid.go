// Public domain.

// Package pzgrid defines the dense four dimensional grid used for model
// photometries and likelihoods.
//
// The four axes are, in order, redshift (Z), dust extinction (EBV),
// reddening curve and SED template.  This one order is used for
// coordinates, for iteration and for storage.  Storage is flat with Z
// varying slowest, so all cells at a single redshift are contiguous.
package pzgrid

import (
	"errors"
	"fmt"
	"path"
)

// Axis identifiers.  Values index a Coord.
const (
	Z = iota
	EBV
	Reddening
	SED
	NAxes
)

var axisNames = [NAxes]string{"Z", "E(B-V)", "Reddening Curve", "SED"}

// Errors returned by grid construction and compatibility checks.
var (
	ErrEmptyAxis           = errors.New("pzgrid: axis must have at least one value")
	ErrIncompatibleAxes    = errors.New("pzgrid: grid axes differ")
	ErrIncompatibleFilters = errors.New("pzgrid: grid filters differ")
)

// QualifiedName identifies an SED template or reddening curve, as a slash
// separated path of groups ending in a name.
type QualifiedName string

// Base returns the final element of the name.
func (q QualifiedName) Base() string {
	return path.Base(string(q))
}

// Coord holds one index per axis.
type Coord [NAxes]int

// Axes holds the axis values defining the shape of a grid.  Axis values
// should be distinct within each axis.
type Axes struct {
	Z         []float64
	EBV       []float64
	Reddening []QualifiedName
	SED       []QualifiedName
}

// AxisName returns a display name for axis a.
func AxisName(a int) string {
	return axisNames[a]
}

// Numeric reports whether axis a has numeric values.
func Numeric(a int) bool {
	return a == Z || a == EBV
}

// Shape returns the number of values on each axis.
func (ax Axes) Shape() Coord {
	return Coord{len(ax.Z), len(ax.EBV), len(ax.Reddening), len(ax.SED)}
}

// Size is the number of cells in a grid with axes ax.
func (ax Axes) Size() int {
	s := ax.Shape()
	return s[Z] * s[EBV] * s[Reddening] * s[SED]
}

// Validate checks that no axis is empty.
func (ax Axes) Validate() error {
	for a, n := range ax.Shape() {
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyAxis, axisNames[a])
		}
	}
	return nil
}

// NumericValues returns the values of a numeric axis, nil otherwise.
func (ax Axes) NumericValues(a int) []float64 {
	switch a {
	case Z:
		return ax.Z
	case EBV:
		return ax.EBV
	}
	return nil
}

// Equal reports whether ax and o have identical values on all axes.
func (ax Axes) Equal(o Axes) bool {
	return equal(ax.Z, o.Z) && equal(ax.EBV, o.EBV) &&
		equal(ax.Reddening, o.Reddening) && equal(ax.SED, o.SED)
}

func equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Nearest returns the index of the value of numeric axis a closest to v.
// Ties go to the lower index.
func (ax Axes) Nearest(a int, v float64) int {
	vs := ax.NumericValues(a)
	best := 0
	for i, x := range vs {
		if d, bd := x-v, vs[best]-v; d*d < bd*bd {
			best = i
		}
	}
	return best
}
