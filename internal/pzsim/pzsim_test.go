// Public domain.

package pzsim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzsim"
)

func TestGridDefaults(t *testing.T) {
	g := pzsim.Grid(pzsim.GridConfig{})
	assert.Equal(t, pzgrid.Coord{31, 3, 2, 3}, g.Shape())
	assert.Equal(t, []string{"u", "g", "r", "i", "z"}, g.Filters())
	assert.Equal(t, pzgrid.QualifiedName("pl/ell"), g.Axes().SED[0])
	assert.Equal(t, "ell", g.Axes().SED[0].Base())
	for it := g.Iter(); it.Next(); {
		for _, v := range it.Value().Values {
			require.Greater(t, v.Flux, 0.)
			require.Equal(t, 0., v.Error)
		}
	}
}

func TestFlux(t *testing.T) {
	sed := pzsim.SED{Name: "flat", Slope: 0, Break: .5}
	law := pzsim.DefaultLaws()[0]
	red := pzsim.Filter{Name: "r", Lo: 550, Hi: 700}
	blue := pzsim.Filter{Name: "u", Lo: 320, Hi: 400}
	assert.InDelta(t, 1, pzsim.Flux(sed, law, 0, 0, red), 1e-12)
	assert.InDelta(t, .5, pzsim.Flux(sed, law, 0, 0, blue), 1e-12)
	// at z=1 the break has moved redward of the r passband
	assert.InDelta(t, .5, pzsim.Flux(sed, law, 0, 1, red), 1e-12)
	// extinction dims blue more than red
	rr := pzsim.Flux(sed, law, .2, 0, red)
	rb := pzsim.Flux(sed, law, .2, 0, blue) / .5
	assert.Less(t, rb, rr)
	assert.Less(t, rr, 1.)
}

func TestCatalogDeterministic(t *testing.T) {
	g := pzsim.Grid(pzsim.GridConfig{Z: []float64{0, .5, 1}})
	cfg := pzsim.CatalogConfig{N: 30, Seed: 42}
	a := pzsim.Catalog(g, cfg)
	b := pzsim.Catalog(g, cfg)
	assert.Equal(t, a, b)
	cfg.Seed++
	assert.NotEqual(t, a, pzsim.Catalog(g, cfg))

	for i, s := range a {
		assert.Equal(t, int64(i+1), s.ID)
		require.NotNil(t, s.Ref)
		assert.Contains(t, []float64{0, .5, 1}, s.Ref.Value)
		require.NotNil(t, s.Pos)
		assert.True(t, s.Pos.Dec.Deg() >= -90 && s.Pos.Dec.Deg() <= 90)
		assert.True(t, s.SameFilters(a[0].Photometry))
		for _, v := range s.Values {
			assert.InEpsilon(t, 50, math.Abs(v.Flux)/v.Error, .3)
		}
	}
}

func TestCatalogOffsetsAndNoRef(t *testing.T) {
	g := pzsim.Grid(pzsim.GridConfig{Z: []float64{.2}})
	base := pzsim.Catalog(g, pzsim.CatalogConfig{N: 50, Seed: 1})
	off := pzsim.Catalog(g, pzsim.CatalogConfig{
		N:       50,
		Seed:    1,
		Offsets: map[string]float64{"r": 2},
		NoRef:   1,
	})
	for i := range base {
		k := base[i].Find("r")
		assert.InDelta(t, 2*base[i].Values[k].Flux, off[i].Values[k].Flux, 1e-12)
		assert.InDelta(t, 2*base[i].Values[k].Error, off[i].Values[k].Error, 1e-12)
		assert.Equal(t, base[i].Values[0], off[i].Values[0])
		assert.Nil(t, off[i].Ref)
	}
}
