// Public domain.

package pzio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	sexa "github.com/soniakeys/sexagesimal"

	"github.com/soniakeys/photoz/internal/pzfit"
	"github.com/soniakeys/photoz/internal/pzphot"
)

// Output column headings.  With pdfs on, pdf values follow Mode.
var Headings = []string{
	"ID", "RA", "Dec", "Zref", "Z", "EBV", "Reddening", "SED",
	"Scale", "Likelihood", "Mode",
}

// Writer writes one line per source.  It implements pzcat.OutputHandler.
// Call Flush when done.
type Writer struct {
	b   *bufio.Writer
	pdf bool
}

// NewWriter returns a Writer on w.  If pdf is true, pdf values are
// written after the fixed columns.
func NewWriter(w io.Writer, pdf bool) *Writer {
	return &Writer{b: bufio.NewWriter(w), pdf: pdf}
}

// WriteHeadings writes a comment line naming the columns.  If pdfs are
// on and x is not nil, a second comment line gives the pdf axis values.
func (w *Writer) WriteHeadings(axis string, x []float64) error {
	fmt.Fprintf(w.b, "# %s\n", strings.Join(Headings, " "))
	if w.pdf && x != nil {
		fmt.Fprintf(w.b, "# pdf %s:", axis)
		for _, v := range x {
			fmt.Fprintf(w.b, " %g", v)
		}
		w.b.WriteByte('\n')
	}
	return w.b.Flush()
}

// HandleSourceOutput writes the line for one source.
func (w *Writer) HandleSourceOutput(s pzphot.Source, r pzfit.Result) error {
	b := w.b
	fmt.Fprintf(b, "%d", s.ID)
	if s.Pos != nil {
		fmt.Fprintf(b, " %.2s %.1s", sexa.FmtRA(s.Pos.RA), sexa.FmtAngle(s.Pos.Dec))
	} else {
		b.WriteString(" - -")
	}
	if s.Ref != nil {
		fmt.Fprintf(b, " %.4f", s.Ref.Value)
	} else {
		b.WriteString(" -")
	}
	c := r.BestFit
	fmt.Fprintf(b, " %.4f %.3f %s %s %.6g %.6g",
		c.Z(), c.EBV(), c.Reddening(), c.SED(), r.Scale, r.Likelihood)
	if r.Pdf.Y != nil {
		fmt.Fprintf(b, " %.4f", r.Pdf.Mode())
	} else {
		b.WriteString(" -")
	}
	if w.pdf {
		for _, y := range r.Pdf.Y {
			fmt.Fprintf(b, " %.4g", y)
		}
	}
	_, err := b.WriteString("\n")
	return err
}

// Flush writes buffered output.
func (w *Writer) Flush() error { return w.b.Flush() }

// CollectOutput keeps sources and results in memory.  It implements
// pzcat.OutputHandler.
type CollectOutput struct {
	Sources []pzphot.Source
	Results []pzfit.Result
}

// HandleSourceOutput appends s and r.
func (c *CollectOutput) HandleSourceOutput(s pzphot.Source, r pzfit.Result) error {
	c.Sources = append(c.Sources, s)
	c.Results = append(c.Results, r)
	return nil
}

// Record is the part of an output line used for quality assessment.
type Record struct {
	ID     int64
	Ref    float64
	HasRef bool
	Z      float64
	EBV    float64
	SED    string
	Mode   float64
}

// ReadOutput reads lines written by Writer.
func ReadOutput(r io.Reader) ([]Record, error) {
	var recs []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1<<20)
	for ln := 1; sc.Scan(); ln++ {
		f := strings.Fields(sc.Text())
		if len(f) == 0 || strings.HasPrefix(f[0], "#") {
			continue
		}
		if len(f) < len(Headings) {
			return nil, formatErr(ln, "%d columns, want at least %d", len(f), len(Headings))
		}
		rec, err := parseRecord(f)
		if err != nil {
			return nil, formatErr(ln, "%v", err)
		}
		recs = append(recs, rec)
	}
	return recs, sc.Err()
}

func parseRecord(f []string) (r Record, err error) {
	if r.ID, err = strconv.ParseInt(f[0], 10, 64); err != nil {
		return
	}
	if r.Ref, r.HasRef, err = optFloat(f[3]); err != nil {
		return
	}
	if r.Z, err = strconv.ParseFloat(f[4], 64); err != nil {
		return
	}
	if r.EBV, err = strconv.ParseFloat(f[5], 64); err != nil {
		return
	}
	r.SED = f[7]
	r.Mode, _, err = optFloat(f[10])
	return
}
