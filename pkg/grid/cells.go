// Package grid partitions a lattice into the axis-aligned cubes that
// marching cubes classifies one at a time.
package grid

import (
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/internal/models"
	"isovolume/pkg/interpolation"
)

// Cell is one cube of the lattice. Corners follow the usual marching
// cubes numbering:
//
//	0: (x1,y1,z1)  1: (x2,y1,z1)  2: (x2,y2,z1)  3: (x1,y2,z1)
//	4: (x1,y1,z2)  5: (x2,y1,z2)  6: (x2,y2,z2)  7: (x1,y2,z2)
type Cell struct {
	P   [8]r3.Vec
	Val [8]float64

	// X, Y, Z is the integer coordinate of the cell, which is also the
	// lattice coordinate of corner 0
	X, Y, Z int
}

// cornerOffsets gives the lattice offset of each corner from corner 0.
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// CornerOffset returns the lattice offset of corner k from corner 0.
func CornerOffset(k int) (dx, dy, dz int) {
	o := cornerOffsets[k]
	return o[0], o[1], o[2]
}

// Grid is the full array of cells built from one lattice. It is read-only
// once built and is replaced wholesale when the resolution changes.
type Grid struct {
	Cells []Cell

	dims [3]int
}

// Build creates one cell per lattice cube, (Dims-1) per axis.
func Build(l *interpolation.Lattice) (*Grid, error) {
	for axis, n := range l.Dims {
		if n < 2 {
			return nil, models.Degenerate("lattice axis %d has %d points, need at least 2", axis, n)
		}
	}

	cx, cy, cz := l.Dims[0]-1, l.Dims[1]-1, l.Dims[2]-1
	g := &Grid{
		Cells: make([]Cell, cx*cy*cz),
		dims:  [3]int{cx, cy, cz},
	}

	for z := 0; z < cz; z++ {
		for y := 0; y < cy; y++ {
			for x := 0; x < cx; x++ {
				c := &g.Cells[g.index(x, y, z)]
				c.X, c.Y, c.Z = x, y, z

				for k, o := range cornerOffsets {
					c.P[k] = l.Position(x+o[0], y+o[1], z+o[2])
					c.Val[k] = l.At(x+o[0], y+o[1], z+o[2])
				}
			}
		}
	}

	return g, nil
}

func (g *Grid) index(x, y, z int) int {
	return z*g.dims[0]*g.dims[1] + y*g.dims[0] + x
}

// Dims returns the number of cells along each axis.
func (g *Grid) Dims() [3]int {
	return g.dims
}

// PointDims returns the number of lattice points along each axis.
func (g *Grid) PointDims() [3]int {
	return [3]int{g.dims[0] + 1, g.dims[1] + 1, g.dims[2] + 1}
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return len(g.Cells)
}

// Cell returns the cell at integer coordinate (x, y, z).
func (g *Grid) Cell(x, y, z int) *Cell {
	return &g.Cells[g.index(x, y, z)]
}
