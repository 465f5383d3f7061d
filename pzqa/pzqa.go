// Public domain.

package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/soniakeys/exit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/soniakeys/photoz/internal/pzio"
)

const versionString = "pzqa version 0.1"
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()

	flag.Usage = func() {
		os.Stderr.WriteString(
			"Usage: pzqa [options] <photoz-output> ...\n")
		flag.PrintDefaults()
		os.Stderr.WriteString(`
For full documentation:
   go doc github.com/soniakeys/photoz/pzqa
`)
	}
	outlier := flag.Float64("outlier", .15, "outlier threshold on |dz|/(1+z)")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	var recs []pzio.Record
	for _, fn := range flag.Args() {
		f, err := os.Open(fn)
		if err != nil {
			exit.Log(err)
		}
		r, err := pzio.ReadOutput(f)
		f.Close()
		if err != nil {
			exit.Log(fmt.Errorf("%s: %w", fn, err))
		}
		recs = append(recs, r...)
	}
	s := assess(recs, *outlier)
	fmt.Println()
	for _, fn := range flag.Args() {
		fmt.Println("Output file:       ", fn)
	}
	fmt.Println("Total sources:     ", s.total)
	fmt.Println("With reference z:  ", s.n)
	if s.n == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Mean bias:          %+.4f\n", s.bias)
	fmt.Printf("Median bias:        %+.4f\n", s.median)
	fmt.Printf("Sigma NMAD:         %.4f\n", s.nmad)
	fmt.Printf("Outliers:           %d (%.1f%%) at |dz|/(1+z) > %g\n",
		s.outliers, 100*float64(s.outliers)/float64(s.n), *outlier)
}

type stats struct {
	total, n           int
	bias, median, nmad float64
	outliers           int
}

// assess compares best fit and reference redshifts, using
// dz = (z - zref) / (1 + zref).  Medians are empirical: the lower middle
// value for an even count.
func assess(recs []pzio.Record, outlier float64) (s stats) {
	s.total = len(recs)
	var dz []float64
	for _, r := range recs {
		if r.HasRef {
			dz = append(dz, (r.Z-r.Ref)/(1+r.Ref))
		}
	}
	s.n = len(dz)
	if s.n == 0 {
		return
	}
	s.bias = stat.Mean(dz, nil)
	for _, d := range dz {
		if math.Abs(d) > outlier {
			s.outliers++
		}
	}
	sort.Float64s(dz)
	s.median = stat.Quantile(.5, stat.Empirical, dz, nil)
	dev := make([]float64, len(dz))
	copy(dev, dz)
	floats.AddConst(-s.median, dev)
	for i, d := range dev {
		dev[i] = math.Abs(d)
	}
	sort.Float64s(dev)
	s.nmad = 1.4826 * stat.Quantile(.5, stat.Empirical, dev, nil)
	return
}
