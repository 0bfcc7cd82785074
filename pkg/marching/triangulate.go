// Package marching extracts an isosurface from a cell grid with the
// marching cubes algorithm. Vertices on grid edges are shared between the
// cells touching them, so the result is an indexed mesh rather than a
// triangle soup.
package marching

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/internal/models"
	"isovolume/pkg/grid"
)

// Iso-levels are clamped into this range so the surface never sits exactly
// on the bounds of the normalized intensity range.
const (
	MinLevel = 0.01
	MaxLevel = 0.99
)

// ClampLevel limits level to [MinLevel, MaxLevel]. NaN and infinite levels
// are rejected.
func ClampLevel(level float64) (float64, error) {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return 0, models.Degenerate("iso-level %v is not a finite number", level)
	}
	return math.Max(MinLevel, math.Min(MaxLevel, level)), nil
}

// fragment is a triangle found while marching a cell, before its vertices
// are resolved through the intersection cache.
type fragment struct {
	keys [3]int
	pos  [3]r3.Vec
}

// Configuration returns the 8-bit corner code of a cell: bit k is set when
// corner k lies strictly below level.
func Configuration(c *grid.Cell, level float64) int {
	code := 0
	for k := 0; k < 8; k++ {
		if c.Val[k] < level {
			code |= 1 << k
		}
	}
	return code
}

// crossing interpolates the point where the field reaches level along a
// local edge. Equal or non-numeric corner values leave no crossing to
// interpolate and are reported as a degenerate configuration.
func crossing(c *grid.Cell, edge int, level float64) (r3.Vec, error) {
	p1, p2 := EdgeCorners[edge][0], EdgeCorners[edge][1]
	d := c.Val[p2] - c.Val[p1]
	t := (level - c.Val[p1]) / d
	if d == 0 || math.IsNaN(t) {
		return r3.Vec{}, models.Degenerate("cell (%d,%d,%d) edge %d: no crossing between %v and %v",
			c.X, c.Y, c.Z, edge, c.Val[p1], c.Val[p2])
	}
	t = math.Max(0, math.Min(1, t))
	return r3.Add(c.P[p1], r3.Scale(t, r3.Sub(c.P[p2], c.P[p1]))), nil
}

// marchCells classifies cells and returns the triangles they emit, in cell
// order.
func marchCells(ctx context.Context, pointDims [3]int, cells []grid.Cell, level float64) ([]fragment, error) {
	var frags []fragment
	var verts [12]r3.Vec

	for i := range cells {
		if i%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c := &cells[i]
		code := Configuration(c, level)
		mask := EdgeTable[code]
		if mask == 0 {
			continue
		}

		for e := 0; e < 12; e++ {
			if mask&(1<<e) == 0 {
				continue
			}
			v, err := crossing(c, e, level)
			if err != nil {
				return nil, err
			}
			verts[e] = v
		}

		row := &TriTable[code]
		for k := 0; row[k] != -1; k += 3 {
			var f fragment
			for j := 0; j < 3; j++ {
				e := int(row[k+j])
				f.keys[j] = EdgeKey(pointDims, c.X, c.Y, c.Z, e)
				f.pos[j] = verts[e]
			}
			frags = append(frags, f)
		}
	}

	return frags, nil
}

// Triangulate extracts the isosurface at level from every cell of g. The
// level is clamped first. Vertex positions are scaled elementwise by scale
// once all triangles are emitted; pass the inverse field dimensions to map
// the surface into the unit cube.
func Triangulate(g *grid.Grid, level float64, scale r3.Vec) (*Mesh, error) {
	return TriangulateParallel(context.Background(), g, level, scale, 1)
}

// TriangulateParallel marches slabs of cells along z concurrently and
// merges their triangles in cell order. The cache is only touched during
// the serial merge, so the mesh is identical to the one Triangulate builds,
// down to vertex and triangle order.
func TriangulateParallel(ctx context.Context, g *grid.Grid, level float64, scale r3.Vec, workers int) (*Mesh, error) {
	level, err := ClampLevel(level)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := g.Dims()
	pointDims := g.PointDims()
	layer := dims[0] * dims[1]

	if workers < 1 {
		workers = 1
	}
	if workers > dims[2] {
		workers = dims[2]
	}

	results := make([][]fragment, workers)
	if workers == 1 {
		results[0], err = marchCells(ctx, pointDims, g.Cells, level)
		if err != nil {
			return nil, err
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			lo := dims[2] * w / workers * layer
			hi := dims[2] * (w + 1) / workers * layer
			eg.Go(func() error {
				frags, err := marchCells(egCtx, pointDims, g.Cells[lo:hi], level)
				results[w] = frags
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	m := newMesh(level)
	for _, frags := range results {
		for _, f := range frags {
			m.addTriangle(f)
		}
	}
	m.finalize(scale)

	return m, nil
}
