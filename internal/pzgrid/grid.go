// Public domain.

package pzgrid

import "fmt"

// Grid is a dense container holding one T for each combination of axis
// values.
type Grid[T any] struct {
	axes  Axes
	shape Coord
	cells []T
}

// New allocates a grid of zero values shaped by axes.  It panics if an
// axis is empty; use Axes.Validate to check first.
func New[T any](axes Axes) *Grid[T] {
	if err := axes.Validate(); err != nil {
		panic(err)
	}
	return &Grid[T]{
		axes:  axes,
		shape: axes.Shape(),
		cells: make([]T, axes.Size()),
	}
}

// Axes returns the axes of g.  The slices are shared and must not be
// modified.
func (g *Grid[T]) Axes() Axes { return g.axes }

// Shape returns the number of values on each axis.
func (g *Grid[T]) Shape() Coord { return g.shape }

// Len is the number of cells.
func (g *Grid[T]) Len() int { return len(g.cells) }

// Cells returns the flat cell storage.
func (g *Grid[T]) Cells() []T { return g.cells }

// Index computes an index into the flat representation of g.
//
// Coordinates out of range are a programming error and cause a panic.
func (g *Grid[T]) Index(c Coord) int {
	s := g.shape
	for a, i := range c {
		if i < 0 || i >= s[a] {
			panic(fmt.Sprintf("pzgrid: %s index %d out of range [0,%d)",
				axisNames[a], i, s[a]))
		}
	}
	return ((c[Z]*s[EBV]+c[EBV])*s[Reddening]+c[Reddening])*s[SED] + c[SED]
}

// Coord is the inverse of Index.
func (g *Grid[T]) Coord(x int) (c Coord) {
	if x < 0 || x >= len(g.cells) {
		panic(fmt.Sprintf("pzgrid: cell %d out of range [0,%d)", x, len(g.cells)))
	}
	for a := NAxes - 1; a >= 0; a-- {
		c[a] = x % g.shape[a]
		x /= g.shape[a]
	}
	return
}

// At returns a pointer to the cell at c.
func (g *Grid[T]) At(c Coord) *T {
	return &g.cells[g.Index(c)]
}

// Stride returns the flat distance between neighboring cells along axis a.
func (g *Grid[T]) Stride(a int) int {
	n := 1
	for b := a + 1; b < NAxes; b++ {
		n *= g.shape[b]
	}
	return n
}

// ZSlice returns the contiguous cells at redshift index iz.
func (g *Grid[T]) ZSlice(iz int) []T {
	n := g.Stride(Z)
	x := g.Index(Coord{Z: iz})
	return g.cells[x : x+n]
}

// Iter returns a cursor positioned before the first cell.  Each call
// returns an independent cursor, so iteration can be restarted.
func (g *Grid[T]) Iter() *Cursor[T] {
	return &Cursor[T]{g: g, x: -1}
}

// CursorAt returns a cursor positioned on cell x.
func (g *Grid[T]) CursorAt(x int) *Cursor[T] {
	return &Cursor[T]{g: g, x: x, c: g.Coord(x)}
}

// Cursor is a forward iterator over a grid.  It exposes the coordinate
// and the axis values of the current cell.
//
//	for it := g.Iter(); it.Next(); {
//		fmt.Println(it.Z(), it.SED(), *it.Value())
//	}
type Cursor[T any] struct {
	g *Grid[T]
	x int
	c Coord
}

// Next advances to the next cell, returning false after the last one.
func (it *Cursor[T]) Next() bool {
	if it.x+1 >= len(it.g.cells) {
		it.x = len(it.g.cells)
		return false
	}
	it.x++
	if it.x == 0 {
		return true
	}
	// odometer increment, last axis fastest
	for a := NAxes - 1; a >= 0; a-- {
		if it.c[a]++; it.c[a] < it.g.shape[a] {
			break
		}
		it.c[a] = 0
	}
	return true
}

// Grid returns the grid the cursor iterates.
func (it *Cursor[T]) Grid() *Grid[T] { return it.g }

// Index returns the flat index of the current cell.
func (it *Cursor[T]) Index() int { return it.x }

// Coord returns the coordinate of the current cell.
func (it *Cursor[T]) Coord() Coord { return it.c }

// AxisIndex returns the coordinate of the current cell on axis a.
func (it *Cursor[T]) AxisIndex(a int) int { return it.c[a] }

// Z returns the redshift of the current cell.
func (it *Cursor[T]) Z() float64 { return it.g.axes.Z[it.c[Z]] }

// EBV returns the E(B-V) of the current cell.
func (it *Cursor[T]) EBV() float64 { return it.g.axes.EBV[it.c[EBV]] }

// Reddening returns the reddening curve of the current cell.
func (it *Cursor[T]) Reddening() QualifiedName {
	return it.g.axes.Reddening[it.c[Reddening]]
}

// SED returns the SED template of the current cell.
func (it *Cursor[T]) SED() QualifiedName { return it.g.axes.SED[it.c[SED]] }

// Value returns a pointer to the current cell.
func (it *Cursor[T]) Value() *T { return &it.g.cells[it.x] }

// Transfer positions a cursor of dst on the coordinate of src.  The
// grids must have been built from the same Axes.
func Transfer[S, D any](src *Cursor[S], dst *Grid[D]) *Cursor[D] {
	return &Cursor[D]{g: dst, x: dst.Index(src.c), c: src.c}
}
