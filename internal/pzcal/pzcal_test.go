// Public domain.

package pzcal_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/photoz/internal/pzcal"
	"github.com/soniakeys/photoz/internal/pzfit"
	"github.com/soniakeys/photoz/internal/pzmetrics"
	"github.com/soniakeys/photoz/internal/pzphot"
	"github.com/soniakeys/photoz/internal/pzsim"
)

func TestNewDefaultStopCriteriaErrors(t *testing.T) {
	_, err := pzcal.NewDefaultStopCriteria(5, -.1)
	assert.True(t, errors.Is(err, pzcal.ErrNegativeTolerance))
	_, err = pzcal.NewDefaultStopCriteria(5, math.NaN())
	assert.True(t, errors.Is(err, pzcal.ErrNegativeTolerance))
	_, err = pzcal.NewDefaultStopCriteria(0, .1)
	assert.True(t, errors.Is(err, pzcal.ErrInvalidIterations))
	s, err := pzcal.NewDefaultStopCriteria(1, 0)
	require.NoError(t, err)
	assert.True(t, s.Stop(pzphot.CorrectionMap{"g": 1}))
}

func TestStopAtMaxIterations(t *testing.T) {
	for _, vary := range []bool{false, true} {
		s, err := pzcal.NewDefaultStopCriteria(5, 0)
		require.NoError(t, err)
		n := 0
		for {
			n++
			v := 1.
			if vary {
				v = float64(n)
			}
			if s.Stop(pzphot.CorrectionMap{"g": v, "r": 2}) {
				break
			}
		}
		assert.Equal(t, 5, n, "vary %t", vary)
		assert.Equal(t, 5, s.Calls())
	}
}

func TestStopOnTolerance(t *testing.T) {
	s, err := pzcal.NewDefaultStopCriteria(10, .1)
	require.NoError(t, err)
	n := 0
	for {
		n++
		v := 1 / float64(n)
		if s.Stop(pzphot.CorrectionMap{"u": v, "g": v, "r": v}) {
			break
		}
	}
	assert.Equal(t, 4, n)
}

func TestStopUnseededFirstCall(t *testing.T) {
	s, _ := pzcal.NewDefaultStopCriteria(3, 100)
	m := pzphot.CorrectionMap{"g": 1}
	assert.False(t, s.Stop(m))
	assert.True(t, s.Stop(m))
}

func TestStopSeeded(t *testing.T) {
	s, _ := pzcal.NewDefaultStopCriteria(3, .01)
	m := pzphot.CorrectionMap{"g": 1.2, "r": .9}
	s.Seed(m)
	m["g"] = 5 // seed is a copy
	assert.True(t, s.Stop(pzphot.CorrectionMap{"g": 1.205, "r": .9}))
}

func TestStopNewFilter(t *testing.T) {
	s, _ := pzcal.NewDefaultStopCriteria(10, .1)
	s.Seed(pzphot.CorrectionMap{"g": 1})
	assert.False(t, s.Stop(pzphot.CorrectionMap{"g": 1, "r": 1}))
	assert.True(t, s.Stop(pzphot.CorrectionMap{"g": 1, "r": 1}))
}

func TestAggregators(t *testing.T) {
	v := []float64{10, 1, 3, 2}
	w := []float64{5, 1, 1, 1}
	assert.InDelta(t, 4, pzcal.Mean(v, w), 1e-12)
	assert.InDelta(t, 2.5, pzcal.Median(v, w), 1e-12)
	assert.InDelta(t, 2, pzcal.Median([]float64{3, 1, 2}, nil), 1e-12)
	assert.InDelta(t, 56./8, pzcal.WeightedMean(v, w), 1e-12)
	assert.Equal(t, 10., pzcal.WeightedMedian(v, w))
	assert.Equal(t, 2., pzcal.WeightedMedian(v, []float64{1, 1, 1, 1}))
	// inputs are not reordered
	assert.Equal(t, []float64{10, 1, 3, 2}, v)
	assert.Equal(t, []float64{5, 1, 1, 1}, w)
}

func TestAggregatorByName(t *testing.T) {
	for _, n := range pzcal.AggregatorNames() {
		f, err := pzcal.AggregatorByName(n)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}
	assert.Equal(t, []string{"mean", "median", "weighted-mean", "weighted-median"},
		pzcal.AggregatorNames())
	_, err := pzcal.AggregatorByName("mode")
	assert.True(t, errors.Is(err, pzcal.ErrUnknownAggregator))
}

var offsets = map[string]float64{"g": 1.08, "i": .93}

func fixture(t *testing.T) (*pzfit.Solver, pzphot.Catalog) {
	t.Helper()
	g := pzsim.Grid(pzsim.GridConfig{})
	cat := pzsim.Catalog(g, pzsim.CatalogConfig{
		N:       200,
		Seed:    11,
		SNR:     100,
		Offsets: offsets,
		NoRef:   .2,
	})
	return pzfit.New(g, pzphot.Ones(g.Filters()), pzfit.Strategies{}), cat
}

func TestCalculateRecoversOffsets(t *testing.T) {
	s, cat := fixture(t)
	stop, err := pzcal.NewDefaultStopCriteria(30, 1e-6)
	require.NoError(t, err)
	m := pzmetrics.New()
	var iters int
	c := pzcal.New(s, pzcal.Options{
		Stop:     stop,
		Threads:  4,
		Metrics:  m,
		Progress: func(iter int, _ pzphot.CorrectionMap) { iters = iter },
	})
	corr, err := c.Calculate(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"g", "i", "r", "u", "z"}, corr.Filters())
	assert.Less(t, iters, 30)
	assert.Equal(t, float64(iters), testutil.ToFloat64(m.Iterations))

	// corrections are determined up to a common factor
	for f, v := range corr {
		want := 1.
		if o, ok := offsets[f]; ok {
			want = 1 / o
		}
		assert.InDelta(t, want, v/corr["r"], .015, "filter %s", f)
	}

	// a converged map ends the next run after one iteration
	stop, _ = pzcal.NewDefaultStopCriteria(10, 1e-3)
	iters = 0
	again, err := pzcal.New(s, pzcal.Options{
		Stop:     stop,
		Progress: func(iter int, _ pzphot.CorrectionMap) { iters = iter },
	}).Calculate(context.Background(), cat, corr)
	require.NoError(t, err)
	assert.Equal(t, 1, iters)
	for f, v := range corr {
		assert.InDelta(t, v, again[f], 1e-3, "filter %s", f)
	}
}

func TestCalculateDefaultStop(t *testing.T) {
	s, cat := fixture(t)
	var iters int
	progress := func(iter int, _ pzphot.CorrectionMap) { iters = iter }
	corr, err := pzcal.New(s, pzcal.Options{Progress: progress}).
		Calculate(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Less(t, iters, pzcal.DefaultMaxIterations)

	iters = 0
	again, err := pzcal.New(s, pzcal.Options{Progress: progress}).
		Calculate(context.Background(), cat, corr)
	require.NoError(t, err)
	assert.Equal(t, 1, iters)
	for f, v := range corr {
		assert.InDelta(t, v, again[f], pzcal.DefaultTolerance, "filter %s", f)
	}
}

func TestCalculateThreadsAgree(t *testing.T) {
	s, cat := fixture(t)
	var got []pzphot.CorrectionMap
	for _, threads := range []int{1, 3, len(cat)} {
		stop, _ := pzcal.NewDefaultStopCriteria(3, 0)
		c := pzcal.New(s, pzcal.Options{
			Aggregate: pzcal.WeightedMedian,
			Stop:      stop,
			Threads:   threads,
		})
		corr, err := c.Calculate(context.Background(), cat, nil)
		require.NoError(t, err)
		got = append(got, corr)
	}
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[0], got[2])
}

func TestCalculateEmpty(t *testing.T) {
	s, cat := fixture(t)
	c := pzcal.New(s, pzcal.Options{})
	_, err := c.Calculate(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, pzcal.ErrEmptyCatalog))
	noRef := append(pzphot.Catalog{}, cat...)
	for i := range noRef {
		noRef[i].Ref = nil
	}
	_, err = c.Calculate(context.Background(), noRef, nil)
	assert.True(t, errors.Is(err, pzcal.ErrEmptyCatalog))
}

func TestCalculateInitialMissingFilter(t *testing.T) {
	s, cat := fixture(t)
	_, err := pzcal.New(s, pzcal.Options{}).Calculate(context.Background(), cat,
		pzphot.CorrectionMap{"u": 1, "g": 1, "r": 1})
	assert.True(t, errors.Is(err, pzphot.ErrMissingCorrection))
}

func TestCalculateSourceFailure(t *testing.T) {
	s, cat := fixture(t)
	cat = cat.WithRef()
	bad := &cat[5]
	bad.Photometry = pzphot.Photometry{
		Filters: bad.Filters[:4],
		Values:  bad.Values[:4],
	}
	_, err := pzcal.New(s, pzcal.Options{Threads: 2}).
		Calculate(context.Background(), cat, nil)
	require.True(t, errors.Is(err, pzfit.ErrMismatchedFilters))
	assert.Contains(t, err.Error(), "iteration 1")
}

func TestCalculateCancelled(t *testing.T) {
	s, cat := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pzcal.New(s, pzcal.Options{}).Calculate(ctx, cat, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCorrections(t *testing.T) {
	s, cat := fixture(t)
	refs := cat.WithRef()[:20]
	cur := pzphot.Ones(s.Grid().Filters())
	cur["y"] = 1.3
	c := pzcal.New(s, pzcal.Options{Threads: 1})
	best, err := c.FindBestFit(context.Background(), s, refs)
	require.NoError(t, err)
	require.Len(t, best, len(refs))
	alpha, err := pzcal.ScaleFactors(s, refs, best)
	require.NoError(t, err)

	next, err := pzcal.Corrections(s.Grid().Filters(), cur, refs, best, alpha, pzcal.Mean)
	require.NoError(t, err)
	assert.Equal(t, 1.3, next["y"])
	assert.Len(t, next, 6)

	// no usable g flux
	neg := make(pzphot.Catalog, len(refs))
	for i, src := range refs {
		neg[i] = src
		neg[i].Photometry = src.Photometry.Clone()
		neg[i].Values[neg[i].Find("g")].Flux = -1
	}
	_, err = pzcal.Corrections(s.Grid().Filters(), cur, neg, best, alpha, pzcal.Mean)
	require.True(t, errors.Is(err, pzcal.ErrNoCorrectionData))
	assert.Contains(t, err.Error(), `"g"`)

	_, err = pzcal.Corrections(s.Grid().Filters(), cur, refs, best[1:], alpha, pzcal.Mean)
	assert.True(t, errors.Is(err, pzcal.ErrNoCorrectionData))
}
