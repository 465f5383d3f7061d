// Public domain.

package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzio"
	"github.com/soniakeys/photoz/internal/pzsim"
)

const versionString = "pzmk version 0.1 Go source."
const copyrightString = "Public domain."
const defCatalog = "photoz.cat"

func main() {
	defer exit.Handler()

	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
  pzmk [options]    Write a synthetic model grid and catalog.
  pzmk -v           Display version and copyright.

Options:
`)
		flag.PrintDefaults()
		os.Stderr.WriteString(`
For full documentation:
   go doc github.com/soniakeys/photoz/pzmk
`)
	}
	gridFile := flag.String("g", pzgrid.Gfn, "model grid file to write")
	catFile := flag.String("k", defCatalog, "catalog file to write, empty for none")
	zmax := flag.Float64("zmax", 1.5, "maximum grid redshift")
	dz := flag.Float64("dz", .05, "grid redshift step")
	n := flag.Int("n", 1000, "catalog sources")
	seed := flag.Uint64("s", 1, "random seed")
	snr := flag.Float64("snr", 50, "catalog signal to noise ratio")
	noRef := flag.Float64("noref", 0, "fraction of sources without reference redshift")
	offsets := flag.String("offset", "", "zero point offsets, as g=1.05,i=.97")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() > 0 || *dz <= 0 || *zmax < 0 || *n < 0 {
		flag.Usage()
		os.Exit(1)
	}
	off, err := parseOffsets(*offsets)
	if err != nil {
		exit.Log(err)
	}

	nz := int(math.Floor(*zmax / *dz + 1e-9)) + 1
	z := make([]float64, nz)
	for i := range z {
		z[i] = float64(i) * *dz
	}
	g := pzsim.Grid(pzsim.GridConfig{Z: z})
	fmt.Println("Writing", *gridFile)
	if err = pzgrid.WriteFile(*gridFile, g); err != nil {
		exit.Log(err)
	}
	sh := g.Shape()
	fmt.Printf("%d models: %d redshifts, %d E(B-V), %d reddening curves, %d SEDs\n",
		g.Len(), sh[pzgrid.Z], sh[pzgrid.EBV], sh[pzgrid.Reddening], sh[pzgrid.SED])

	if *catFile == "" || *n == 0 {
		return
	}
	cat := pzsim.Catalog(g, pzsim.CatalogConfig{
		N:       *n,
		Seed:    *seed,
		SNR:     *snr,
		Offsets: off,
		NoRef:   *noRef,
	})
	f, err := os.Create(*catFile)
	if err != nil {
		exit.Log(err)
	}
	defer f.Close()
	fmt.Println("Writing", *catFile)
	if err = pzio.WriteCatalog(f, cat); err != nil {
		exit.Log(err)
	}
	fmt.Println(len(cat), "sources,", len(cat.WithRef()), "with reference redshift")
}

func parseOffsets(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	m := map[string]float64{}
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("offset %q: want filter=value", kv)
		}
		o, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("offset %q: %w", kv, err)
		}
		m[strings.TrimSpace(k)] = o
	}
	return m, nil
}
