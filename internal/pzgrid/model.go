// Public domain.

package pzgrid

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/soniakeys/photoz/internal/pzphot"
)

// ModelGrid holds a model photometry for each grid cell.  All cells share
// one filter list.
type ModelGrid struct {
	*Grid[pzphot.Photometry]
	filters []string
}

// NewModelGrid allocates a model grid with zero fluxes.
func NewModelGrid(axes Axes, filters []string) *ModelGrid {
	m := &ModelGrid{Grid: New[pzphot.Photometry](axes), filters: filters}
	vals := make([]pzphot.FluxErr, m.Len()*len(filters))
	for i := range m.cells {
		m.cells[i] = pzphot.Photometry{
			Filters: filters,
			Values:  vals[i*len(filters) : (i+1)*len(filters) : (i+1)*len(filters)],
		}
	}
	return m
}

// Filters returns the filter list shared by all cells.
func (m *ModelGrid) Filters() []string { return m.filters }

// Compatible checks that m and o have the same axes and filters.
func (m *ModelGrid) Compatible(o *ModelGrid) error {
	if !m.axes.Equal(o.axes) {
		return ErrIncompatibleAxes
	}
	if !equal(m.filters, o.filters) {
		return fmt.Errorf("%w: %v and %v", ErrIncompatibleFilters,
			m.filters, o.filters)
	}
	return nil
}

// Gfn is the default model grid file name.
const Gfn = "photoz.grid"

// WriteFile writes a model grid in gob format.
func WriteFile(fn string, m *ModelGrid) (err error) {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	enc := gob.NewEncoder(f)
	for _, v := range []interface{}{
		m.axes.Z, m.axes.EBV, m.axes.Reddening, m.axes.SED, m.filters,
	} {
		if err = enc.Encode(v); err != nil {
			return err
		}
	}
	// cell values are contiguous, see NewModelGrid
	flat := make([]pzphot.FluxErr, 0, m.Len()*len(m.filters))
	for _, c := range m.cells {
		flat = append(flat, c.Values...)
	}
	return enc.Encode(flat)
}

// ReadFile reads a model grid written by WriteFile.
func ReadFile(fn string) (*ModelGrid, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	var ax Axes
	var filters []string
	var flat []pzphot.FluxErr
	for _, v := range []interface{}{
		&ax.Z, &ax.EBV, &ax.Reddening, &ax.SED, &filters, &flat,
	} {
		if err = dec.Decode(v); err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
	}
	if err = ax.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	if len(flat) != ax.Size()*len(filters) {
		return nil, fmt.Errorf("%s: %d values, want %d", fn,
			len(flat), ax.Size()*len(filters))
	}
	m := NewModelGrid(ax, filters)
	for i, c := range m.cells {
		copy(c.Values, flat[i*len(filters):])
	}
	return m, nil
}
