// Public domain.

package pzcal

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AggregateFunc reduces the per-source correction values of one filter to
// a single correction.  weights is parallel to values and holds inverse
// variances; unweighted aggregators ignore it.  values is never empty.
type AggregateFunc func(values, weights []float64) float64

// Mean is the arithmetic mean.
func Mean(values, _ []float64) float64 { return stat.Mean(values, nil) }

// WeightedMean is the inverse variance weighted mean.
func WeightedMean(values, weights []float64) float64 {
	return stat.Mean(values, weights)
}

// Median is the middle value, or the mean of the middle two for an even
// count.
func Median(values, _ []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// WeightedMedian is the smallest value at which the cumulative weight
// reaches half the total.
func WeightedMedian(values, weights []float64) float64 {
	x := make([]int, len(values))
	for i := range x {
		x[i] = i
	}
	sort.SliceStable(x, func(i, j int) bool { return values[x[i]] < values[x[j]] })
	v := make([]float64, len(x))
	w := make([]float64, len(x))
	for i, k := range x {
		v[i], w[i] = values[k], weights[k]
	}
	return stat.Quantile(.5, stat.Empirical, v, w)
}

var aggregators = map[string]AggregateFunc{
	"mean":            Mean,
	"median":          Median,
	"weighted-mean":   WeightedMean,
	"weighted-median": WeightedMedian,
}

// AggregatorNames lists the names accepted by AggregatorByName.
func AggregatorNames() []string {
	n := make([]string, 0, len(aggregators))
	for k := range aggregators {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// AggregatorByName returns one of mean, median, weighted-mean or
// weighted-median.
func AggregatorByName(name string) (AggregateFunc, error) {
	if f, ok := aggregators[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAggregator, name)
}
