// Public domain.

// Package pzio reads and writes photoz text files.
//
// A catalog file is whitespace separated columns.  Blank lines and lines
// starting with # are ignored.  The first other line is a header:
//
//	ID RA DEC Z <filter> <filter>_err ...
//
// RA and DEC are in degrees, Z is the reference redshift.  Any of the
// three may be - when unknown.  Each following line is one source, with
// flux and flux error for each filter.
package pzio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/photoz/internal/pzphot"
)

// ErrFormat is wrapped by all catalog and output parse errors.
var ErrFormat = errors.New("pzio: format error")

var catalogHeader = []string{"ID", "RA", "DEC", "Z"}

func formatErr(line int, format string, a ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, line, fmt.Sprintf(format, a...))
}

// ReadCatalogFile reads a catalog file.
func ReadCatalogFile(fn string) (pzphot.Catalog, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cat, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return cat, nil
}

// ReadCatalog reads a catalog.  All sources share a single filter slice.
func ReadCatalog(r io.Reader) (pzphot.Catalog, error) {
	var (
		cat     pzphot.Catalog
		filters []string
		ln      int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ln++
		f := strings.Fields(sc.Text())
		if len(f) == 0 || strings.HasPrefix(f[0], "#") {
			continue
		}
		if filters == nil {
			var err error
			if filters, err = parseHeader(f); err != nil {
				return nil, formatErr(ln, "%v", err)
			}
			continue
		}
		if len(f) != 4+2*len(filters) {
			return nil, formatErr(ln, "%d columns, header has %d",
				len(f), 4+2*len(filters))
		}
		s, err := parseSource(f, filters)
		if err != nil {
			return nil, formatErr(ln, "%v", err)
		}
		cat = append(cat, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if filters == nil {
		return nil, fmt.Errorf("%w: no header", ErrFormat)
	}
	return cat, nil
}

func parseHeader(f []string) ([]string, error) {
	if len(f) < 6 || len(f)%2 != 0 {
		return nil, fmt.Errorf("header needs ID RA DEC Z and flux, error pairs")
	}
	for i, h := range catalogHeader {
		if !strings.EqualFold(f[i], h) {
			return nil, fmt.Errorf("header column %d is %q, want %s", i+1, f[i], h)
		}
	}
	var filters []string
	seen := map[string]bool{}
	for i := 4; i < len(f); i += 2 {
		if f[i+1] != f[i]+"_err" {
			return nil, fmt.Errorf("column %q must be followed by %s_err", f[i], f[i])
		}
		if seen[f[i]] {
			return nil, fmt.Errorf("filter %q repeated", f[i])
		}
		seen[f[i]] = true
		filters = append(filters, f[i])
	}
	return filters, nil
}

// optFloat parses s, or returns ok false for "-".
func optFloat(s string) (v float64, ok bool, err error) {
	if s == "-" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	return v, err == nil, err
}

func parseSource(f []string, filters []string) (s pzphot.Source, err error) {
	if s.ID, err = strconv.ParseInt(f[0], 10, 64); err != nil {
		return s, err
	}
	ra, okRA, err := optFloat(f[1])
	if err != nil {
		return s, err
	}
	dec, okDec, err := optFloat(f[2])
	if err != nil {
		return s, err
	}
	if okRA && okDec {
		if dec < -90 || dec > 90 {
			return s, fmt.Errorf("declination %g out of range", dec)
		}
		s.Pos = &pzphot.Position{RA: unit.RAFromDeg(ra), Dec: unit.AngleFromDeg(dec)}
	}
	z, okZ, err := optFloat(f[3])
	if err != nil {
		return s, err
	}
	if okZ {
		s.Ref = &pzphot.Redshift{Value: z}
	}
	s.Filters = filters
	s.Values = make([]pzphot.FluxErr, len(filters))
	for i := range filters {
		v := &s.Values[i]
		if v.Flux, err = strconv.ParseFloat(f[4+2*i], 64); err != nil {
			return s, err
		}
		if v.Error, err = strconv.ParseFloat(f[5+2*i], 64); err != nil {
			return s, err
		}
	}
	return s, nil
}

// WriteCatalog writes cat in the format read by ReadCatalog, using the
// filters of the first source for the header.
func WriteCatalog(w io.Writer, cat pzphot.Catalog) error {
	b := bufio.NewWriter(w)
	if len(cat) == 0 {
		return errors.New("pzio: empty catalog")
	}
	filters := cat[0].Filters
	b.WriteString(strings.Join(catalogHeader, " "))
	for _, f := range filters {
		fmt.Fprintf(b, " %s %s_err", f, f)
	}
	b.WriteByte('\n')
	for _, s := range cat {
		if !s.SameFilters(cat[0].Photometry) {
			return fmt.Errorf("pzio: source %d filters differ from first source", s.ID)
		}
		fmt.Fprintf(b, "%d", s.ID)
		if s.Pos != nil {
			fmt.Fprintf(b, " %.6f %.6f", s.Pos.RA.Deg(), s.Pos.Dec.Deg())
		} else {
			b.WriteString(" - -")
		}
		if s.Ref != nil {
			fmt.Fprintf(b, " %.5f", s.Ref.Value)
		} else {
			b.WriteString(" -")
		}
		for _, v := range s.Values {
			fmt.Fprintf(b, " %.6g %.6g", v.Flux, v.Error)
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}
