// Public domain.

package pzgrid_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzphot"
)

func testAxes() pzgrid.Axes {
	return pzgrid.Axes{
		Z:         []float64{0, .5, 1},
		EBV:       []float64{0, .1},
		Reddening: []pzgrid.QualifiedName{"calzetti", "smc"},
		SED:       []pzgrid.QualifiedName{"cww/ell", "cww/sbc", "cww/irr", "kin/sb"},
	}
}

func ExampleGrid_Iter() {
	g := pzgrid.New[float64](pzgrid.Axes{
		Z:         []float64{.1, .2},
		EBV:       []float64{0},
		Reddening: []pzgrid.QualifiedName{"none"},
		SED:       []pzgrid.QualifiedName{"ell", "sb"},
	})
	for it := g.Iter(); it.Next(); {
		fmt.Println(it.Index(), it.Coord(), it.Z(), it.SED())
	}
	// Output:
	// 0 [0 0 0 0] 0.1 ell
	// 1 [0 0 0 1] 0.1 sb
	// 2 [1 0 0 0] 0.2 ell
	// 3 [1 0 0 1] 0.2 sb
}

func TestIndexCoordRoundTrip(t *testing.T) {
	g := pzgrid.New[int](testAxes())
	require.Equal(t, 3*2*2*4, g.Len())
	seen := make(map[int]bool)
	for it := g.Iter(); it.Next(); {
		x := g.Index(it.Coord())
		assert.Equal(t, it.Index(), x)
		assert.Equal(t, it.Coord(), g.Coord(x))
		seen[x] = true
	}
	assert.Len(t, seen, g.Len())
}

func TestZSlowest(t *testing.T) {
	g := pzgrid.New[int](testAxes())
	assert.Equal(t, 16, g.Stride(pzgrid.Z))
	assert.Equal(t, 8, g.Stride(pzgrid.EBV))
	assert.Equal(t, 4, g.Stride(pzgrid.Reddening))
	assert.Equal(t, 1, g.Stride(pzgrid.SED))
	*g.At(pzgrid.Coord{1, 1, 1, 3}) = 7
	s := g.ZSlice(1)
	require.Len(t, s, 16)
	assert.Equal(t, 7, s[15])
}

func TestIndexOutOfRangePanics(t *testing.T) {
	g := pzgrid.New[int](testAxes())
	assert.Panics(t, func() { g.Index(pzgrid.Coord{3, 0, 0, 0}) })
	assert.Panics(t, func() { g.At(pzgrid.Coord{0, 0, -1, 0}) })
	assert.Panics(t, func() { g.Coord(g.Len()) })
}

func TestIterRestart(t *testing.T) {
	g := pzgrid.New[int](testAxes())
	n := 0
	for it := g.Iter(); it.Next(); {
		n++
	}
	for it := g.Iter(); it.Next(); {
		n--
	}
	assert.Zero(t, n)
	it := g.Iter()
	for it.Next() {
	}
	assert.False(t, it.Next())
}

func TestCursorValues(t *testing.T) {
	ax := testAxes()
	g := pzgrid.New[int](ax)
	it := g.CursorAt(g.Index(pzgrid.Coord{2, 1, 0, 3}))
	assert.Equal(t, 1., it.Z())
	assert.Equal(t, .1, it.EBV())
	assert.Equal(t, pzgrid.QualifiedName("calzetti"), it.Reddening())
	assert.Equal(t, pzgrid.QualifiedName("kin/sb"), it.SED())
	assert.Equal(t, "sb", it.SED().Base())
	assert.Equal(t, 3, it.AxisIndex(pzgrid.SED))
}

func TestTransferRoundTrip(t *testing.T) {
	ax := testAxes()
	lg := pzgrid.New[float64](ax)
	mg := pzgrid.NewModelGrid(ax, []string{"g", "r"})
	for it := lg.Iter(); it.Next(); {
		m := pzgrid.Transfer(it, mg.Grid)
		back := pzgrid.Transfer(m, lg)
		assert.Equal(t, it.Coord(), m.Coord())
		assert.Equal(t, it.Index(), back.Index())
	}
}

func TestValidate(t *testing.T) {
	ax := testAxes()
	require.NoError(t, ax.Validate())
	ax.EBV = nil
	err := ax.Validate()
	assert.True(t, errors.Is(err, pzgrid.ErrEmptyAxis))
	assert.Panics(t, func() { pzgrid.New[int](ax) })
}

func TestNearest(t *testing.T) {
	ax := testAxes()
	assert.Equal(t, 0, ax.Nearest(pzgrid.Z, -1))
	assert.Equal(t, 1, ax.Nearest(pzgrid.Z, .6))
	assert.Equal(t, 0, ax.Nearest(pzgrid.Z, .25))
	assert.Equal(t, 2, ax.Nearest(pzgrid.Z, 7))
	assert.Equal(t, 1, ax.Nearest(pzgrid.EBV, .09))
}

func TestCompatible(t *testing.T) {
	ax := testAxes()
	a := pzgrid.NewModelGrid(ax, []string{"g", "r"})
	b := pzgrid.NewModelGrid(ax, []string{"g", "r"})
	require.NoError(t, a.Compatible(b))

	c := pzgrid.NewModelGrid(ax, []string{"g", "i"})
	assert.True(t, errors.Is(a.Compatible(c), pzgrid.ErrIncompatibleFilters))

	ax2 := testAxes()
	ax2.Z = []float64{0, .5, 1.5}
	d := pzgrid.NewModelGrid(ax2, []string{"g", "r"})
	assert.True(t, errors.Is(a.Compatible(d), pzgrid.ErrIncompatibleAxes))
}

func TestModelGridSharesFilters(t *testing.T) {
	mg := pzgrid.NewModelGrid(testAxes(), []string{"g", "r", "i"})
	cells := mg.Cells()
	assert.True(t, cells[0].SameFilters(cells[len(cells)-1]))
	cells[0].Values[2].Flux = 5
	assert.Zero(t, cells[1].Values[0].Flux)
}

func TestFileRoundTrip(t *testing.T) {
	mg := pzgrid.NewModelGrid(testAxes(), []string{"g", "r"})
	for it := mg.Iter(); it.Next(); {
		p := it.Value()
		p.Values[0] = pzphot.FluxErr{Flux: float64(it.Index()), Error: .1}
		p.Values[1] = pzphot.FluxErr{Flux: it.Z() + it.EBV()}
	}
	fn := filepath.Join(t.TempDir(), pzgrid.Gfn)
	require.NoError(t, pzgrid.WriteFile(fn, mg))
	got, err := pzgrid.ReadFile(fn)
	require.NoError(t, err)
	require.NoError(t, mg.Compatible(got))
	assert.Equal(t, mg.Cells(), got.Cells())
}

func TestReadFileMissing(t *testing.T) {
	_, err := pzgrid.ReadFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
