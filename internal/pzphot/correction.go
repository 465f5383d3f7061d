// Public domain.

package pzphot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingCorrection is returned when a filter has no entry in a
// CorrectionMap.  There is no implicit default of 1.
var ErrMissingCorrection = errors.New("pzphot: missing photometric correction")

// CorrectionMap holds multiplicative flux corrections by filter name.
//
// A map handed to a fitting pass is never modified; the calibration loop
// builds a new map each iteration.
type CorrectionMap map[string]float64

// Ones returns a map with a correction of 1 for each filter.
func Ones(filters []string) CorrectionMap {
	m := make(CorrectionMap, len(filters))
	for _, f := range filters {
		m[f] = 1
	}
	return m
}

// Clone returns a copy of m.
func (m CorrectionMap) Clone() CorrectionMap {
	c := make(CorrectionMap, len(m))
	for f, v := range m {
		c[f] = v
	}
	return c
}

// Filters returns the filter names of m in sorted order.
func (m CorrectionMap) Filters() []string {
	fs := make([]string, 0, len(m))
	for f := range m {
		fs = append(fs, f)
	}
	sort.Strings(fs)
	return fs
}

// Apply returns a copy of p with every flux multiplied by the correction
// for its filter.  Errors are not corrected.
func (m CorrectionMap) Apply(p Photometry) (Photometry, error) {
	c := Photometry{
		Filters: p.Filters,
		Values:  make([]FluxErr, len(p.Values)),
	}
	for i, v := range p.Values {
		k, ok := m[p.Filters[i]]
		if !ok {
			return Photometry{}, fmt.Errorf("%w: filter %q",
				ErrMissingCorrection, p.Filters[i])
		}
		c.Values[i] = FluxErr{Flux: v.Flux * k, Error: v.Error}
	}
	return c, nil
}

// Covers checks that m has an entry for each of filters.
func (m CorrectionMap) Covers(filters []string) error {
	for _, f := range filters {
		if _, ok := m[f]; !ok {
			return fmt.Errorf("%w: filter %q", ErrMissingCorrection, f)
		}
	}
	return nil
}

// WriteCorrections writes m as two columns, Filter and Correction,
// sorted by filter name.
func WriteCorrections(w io.Writer, m CorrectionMap) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%-24s %s\n", "Filter", "Correction")
	for _, f := range m.Filters() {
		fmt.Fprintf(bw, "%-24s %.10g\n", f, m[f])
	}
	return bw.Flush()
}

// ReadCorrections reads the format written by WriteCorrections.
// Empty lines and lines beginning with # are ignored, as is a header
// line starting with the word Filter.
func ReadCorrections(r io.Reader) (CorrectionMap, error) {
	m := CorrectionMap{}
	sc := bufio.NewScanner(r)
	var ln int
	for sc.Scan() {
		ln++
		l := strings.TrimSpace(sc.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		f := strings.Fields(l)
		if f[0] == "Filter" {
			continue
		}
		if len(f) != 2 {
			return nil, fmt.Errorf("corrections line %d: want 2 columns, got %d",
				ln, len(f))
		}
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, fmt.Errorf("corrections line %d: %w", ln, err)
		}
		m[f[0]] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
