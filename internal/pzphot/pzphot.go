// Public domain.

// Package pzphot defines the photometry and catalog types shared by the
// photoz packages.
package pzphot

import (
	"github.com/soniakeys/unit"
)

// FluxErr is a flux measurement and its one sigma error.
type FluxErr struct {
	Flux, Error float64
}

// Photometry is an ordered list of fluxes, one per filter.
//
// Values[i] is the measurement through Filters[i].  Filter slices are
// commonly shared between many Photometry values, a model grid for example
// shares one filter list among all its cells, so they must be treated as
// read-only.
type Photometry struct {
	Filters []string
	Values  []FluxErr
}

// Find returns the position of filter f, or -1 if f is not present.
func (p Photometry) Find(f string) int {
	for i, pf := range p.Filters {
		if pf == f {
			return i
		}
	}
	return -1
}

// Clone returns a copy of p with its own Values.  Filters stay shared.
func (p Photometry) Clone() Photometry {
	return Photometry{
		Filters: p.Filters,
		Values:  append([]FluxErr(nil), p.Values...),
	}
}

// SameFilters reports whether p and q list the same filters in the same
// order.  Shared filter slices are detected without comparing names.
func (p Photometry) SameFilters(q Photometry) bool {
	if len(p.Filters) != len(q.Filters) {
		return false
	}
	if len(p.Filters) == 0 || &p.Filters[0] == &q.Filters[0] {
		return true
	}
	for i, f := range p.Filters {
		if q.Filters[i] != f {
			return false
		}
	}
	return true
}

// Redshift is a reference redshift, typically spectroscopic.
type Redshift struct {
	Value, Error float64
}

// Position is a sky position.
type Position struct {
	RA  unit.RA
	Dec unit.Angle
}

// Source is a single catalog object.
//
// Ref is nil for sources without a known redshift and Pos is nil if
// the catalog carries no coordinates.
type Source struct {
	ID  int64
	Photometry
	Ref *Redshift
	Pos *Position
}

// Catalog is an ordered list of sources.
type Catalog []Source

// WithRef returns the sources of c that have a reference redshift,
// in catalog order.
func (c Catalog) WithRef() Catalog {
	var r Catalog
	for _, s := range c {
		if s.Ref != nil {
			r = append(r, s)
		}
	}
	return r
}
