// Public domain.

// Package pzsim makes synthetic model grids and catalogs.
//
// Model spectra are broken power laws: f(λ) ∝ λ^Slope redward of a
// 400nm break and Break times that blueward of it.  Spectra are reddened
// in the rest frame by A(λ) = R·E(B-V)·(550/λ)^Power, redshifted, and
// averaged over top-hat filter passbands.  The break moving through the
// filters is what makes redshift recoverable.
//
// Catalogs are drawn from grid cells with a seeded PCG generator, so a
// given configuration always produces the same catalog.
package pzsim

import (
	"math"

	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzphot"
)

// Filter is a top-hat passband, wavelengths in nm.
type Filter struct {
	Name   string
	Lo, Hi float64
}

// SED is a broken power law spectrum.
type SED struct {
	Name  pzgrid.QualifiedName
	Slope float64 // power law index redward of the break
	Break float64 // flux ratio across the break, blue over red
}

// Law is an extinction curve.
type Law struct {
	Name  pzgrid.QualifiedName
	R     float64 // total to selective extinction at 550nm
	Power float64
}

const breakNM = 400

// DefaultFilters returns ugriz-like passbands.
func DefaultFilters() []Filter {
	return []Filter{
		{"u", 320, 400},
		{"g", 400, 550},
		{"r", 550, 700},
		{"i", 700, 850},
		{"z", 850, 1000},
	}
}

// DefaultSEDs returns an elliptical, a spiral and a starburst shape.
func DefaultSEDs() []SED {
	return []SED{
		{"pl/ell", 2, .2},
		{"pl/sbc", .8, .5},
		{"pl/sb", -.5, .85},
	}
}

// DefaultLaws returns two extinction curves.
func DefaultLaws() []Law {
	return []Law{
		{"ext/calzetti", 4.05, 1},
		{"ext/smc", 2.74, 1.4},
	}
}

// DefaultZ returns 0 to 1.5 by .05.
func DefaultZ() []float64 {
	z := make([]float64, 31)
	for i := range z {
		z[i] = float64(i) * .05
	}
	return z
}

// GridConfig describes a synthetic grid.  Zero fields take defaults.
type GridConfig struct {
	Z       []float64
	EBV     []float64 // default 0, .1, .2
	SEDs    []SED
	Laws    []Law
	Filters []Filter
}

func (cfg *GridConfig) defaults() {
	if len(cfg.Z) == 0 {
		cfg.Z = DefaultZ()
	}
	if len(cfg.EBV) == 0 {
		cfg.EBV = []float64{0, .1, .2}
	}
	if len(cfg.SEDs) == 0 {
		cfg.SEDs = DefaultSEDs()
	}
	if len(cfg.Laws) == 0 {
		cfg.Laws = DefaultLaws()
	}
	if len(cfg.Filters) == 0 {
		cfg.Filters = DefaultFilters()
	}
}

// Grid computes model photometry for every cell.  Model errors are zero.
func Grid(cfg GridConfig) *pzgrid.ModelGrid {
	cfg.defaults()
	ax := pzgrid.Axes{Z: cfg.Z, EBV: cfg.EBV}
	for _, l := range cfg.Laws {
		ax.Reddening = append(ax.Reddening, l.Name)
	}
	for _, s := range cfg.SEDs {
		ax.SED = append(ax.SED, s.Name)
	}
	names := make([]string, len(cfg.Filters))
	for i, f := range cfg.Filters {
		names[i] = f.Name
	}
	g := pzgrid.NewModelGrid(ax, names)
	for it := g.Iter(); it.Next(); {
		s := cfg.SEDs[it.AxisIndex(pzgrid.SED)]
		l := cfg.Laws[it.AxisIndex(pzgrid.Reddening)]
		v := it.Value().Values
		for k, f := range cfg.Filters {
			v[k].Flux = Flux(s, l, it.EBV(), it.Z(), f)
		}
	}
	return g
}

// Flux returns the mean flux density of sed, reddened by law and ebv and
// redshifted to z, over passband f.
func Flux(sed SED, law Law, ebv, z float64, f Filter) float64 {
	const n = 64
	lo, hi := f.Lo/(1+z), f.Hi/(1+z)
	d := (hi - lo) / n
	var sum float64
	for i := 0; i < n; i++ {
		λ := lo + (float64(i)+.5)*d
		v := math.Pow(λ/550, sed.Slope)
		if λ < breakNM {
			v *= sed.Break
		}
		a := law.R * ebv * math.Pow(550/λ, law.Power)
		sum += v * math.Pow(10, -.4*a)
	}
	return sum / n
}

// CatalogConfig describes a synthetic catalog drawn from a grid.
type CatalogConfig struct {
	N    int
	Seed uint64

	// SNR sets flux errors as flux/SNR.  Zero means 50.
	SNR float64

	// Offsets multiplies observed flux by filter, simulating zero point
	// errors.  Calibration should recover 1/offset as the correction.
	Offsets map[string]float64

	// NoRef is the fraction of sources, 0 to 1, left without a reference
	// redshift.
	NoRef float64
}

// Catalog draws cfg.N sources from random cells of g.  Each source is a
// randomly scaled model with gaussian noise, a reference redshift equal
// to its cell redshift and a random sky position.  Source IDs count from
// 1.  Filters are those of g, sharing one slice across sources.
func Catalog(g *pzgrid.ModelGrid, cfg CatalogConfig) pzphot.Catalog {
	snr := cfg.SNR
	if snr == 0 {
		snr = 50
	}
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(cfg.Seed)
	filters := g.Filters()
	cat := make(pzphot.Catalog, cfg.N)
	vals := make([]pzphot.FluxErr, cfg.N*len(filters))
	for i := range cat {
		cur := g.CursorAt(rnd.Intn(g.Len()))
		m := cur.Value()
		a := .5 + 2*rnd.Float64()
		v := vals[i*len(filters) : (i+1)*len(filters) : (i+1)*len(filters)]
		for k, f := range filters {
			fl := a * m.Values[k].Flux
			e := fl / snr
			fl += e * rnd.NormFloat64()
			if o, ok := cfg.Offsets[f]; ok {
				fl *= o
				e *= o
			}
			v[k] = pzphot.FluxErr{Flux: fl, Error: e}
		}
		s := pzphot.Source{
			ID:         int64(i + 1),
			Photometry: pzphot.Photometry{Filters: filters, Values: v},
			Pos: &pzphot.Position{
				RA:  unit.RAFromDeg(360 * rnd.Float64()),
				Dec: unit.AngleFromDeg(math.Asin(2*rnd.Float64()-1) * 180 / math.Pi),
			},
		}
		ref := &pzphot.Redshift{Value: cur.Z(), Error: .001}
		if rnd.Float64() >= cfg.NoRef {
			s.Ref = ref
		}
		cat[i] = s
	}
	return cat
}
