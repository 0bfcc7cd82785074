// Package engine ties the volume, resampling, cell grid and marching cubes
// stages together behind the small stateful API a renderer drives: load a
// volume, pick a resolution, triangulate at a level, release the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/grid"
	"isovolume/pkg/interpolation"
	"isovolume/pkg/marching"
	"isovolume/pkg/volume"
)

var (
	// ErrNoField is returned when an operation needs a loaded volume.
	ErrNoField = errors.New("engine: no volume loaded")

	// ErrNoGrid is returned by Triangulate before a resolution is chosen.
	ErrNoGrid = errors.New("engine: no resolution set")
)

// ProgressCallback is a function that reports progress of the pipeline.
// A non-empty message should be shown to the user; otherwise completed and
// total describe a progress indicator.
type ProgressCallback func(completed, total int, message string)

// Params holds the engine configuration.
type Params struct {
	// Workers is the number of goroutines marching cells concurrently.
	// Values below 2 run the serial pass.
	Workers int

	// Border selects how resampled lattices treat the volume boundary.
	// The zero value leaves surfaces open where they meet the boundary.
	// Native grids have no halo and ignore it: their surfaces are always
	// open at the boundary.
	Border interpolation.Border

	// Verbose prints pipeline messages to stdout when no Progress callback
	// is set.
	Verbose bool

	// Progress, when set, receives every pipeline message.
	Progress ProgressCallback
}

// resolution records how the current grid was derived from the field.
type resolution struct {
	set    bool
	native bool
	cuts   int
}

// Engine owns one field, the cell grid built from it and the mesh of the
// last triangulation. It is not safe for concurrent use; callers serialize
// LoadModel, SetResolution and Triangulate.
//
// Typical use:
//
//	e := engine.New(&engine.Params{Workers: runtime.NumCPU()})
//	if err := e.LoadModel("models/Bucky_32_32_32.raw", 32, 32, 32); err != nil { ... }
//	if err := e.SetResolution(64); err != nil { ... }
//	mesh, err := e.Triangulate(ctx, 0.1)
//	...
//	e.Release()
type Engine struct {
	params *Params

	field *volume.Field
	grid  *grid.Grid
	res   resolution

	// mesh is the result of the last Triangulate, nil after Release
	mesh *marching.Mesh
}

// New creates an engine with the provided parameters. A nil params uses
// the zero configuration.
func New(params *Params) *Engine {
	if params == nil {
		params = &Params{}
	}
	return &Engine{params: params}
}

// LoadModel reads a raw volume of nx*ny*nz bytes from path and makes it
// the current field. On failure the engine keeps its previous state.
func (e *Engine) LoadModel(path string, nx, ny, nz int) error {
	e.report(fmt.Sprintf("Loading %s (%dx%dx%d)...", path, nx, ny, nz))

	f, err := volume.Load(path, nx, ny, nz)
	if err != nil {
		return err
	}
	return e.LoadField(f)
}

// LoadField makes f the current field. The previous cell grid and mesh are
// discarded; when a resolution was already chosen the grid is rebuilt for
// the new field at the same resolution. If that rebuild fails the engine
// keeps its previous state.
func (e *Engine) LoadField(f *volume.Field) error {
	if f == nil {
		return ErrNoField
	}

	var g *grid.Grid
	if e.res.set {
		var err error
		g, err = e.buildGrid(f, e.res)
		if err != nil {
			return err
		}
	}

	e.Release()
	e.field = f
	e.grid = g
	return nil
}

// SetResolution resamples the field onto cuts points per axis (plus the
// border halo) and replaces the cell grid. cuts must be at least
// interpolation.MinCuts.
func (e *Engine) SetResolution(cuts int) error {
	return e.setResolution(resolution{set: true, cuts: cuts})
}

// UseNativeResolution builds cells directly on the field samples, without
// resampling or halo.
func (e *Engine) UseNativeResolution() error {
	return e.setResolution(resolution{set: true, native: true})
}

func (e *Engine) setResolution(res resolution) error {
	if e.field == nil {
		return ErrNoField
	}

	g, err := e.buildGrid(e.field, res)
	if err != nil {
		return err
	}

	e.Release()
	e.grid = g
	e.res = res
	return nil
}

// buildGrid derives a lattice from f at res and partitions it into cells.
func (e *Engine) buildGrid(f *volume.Field, res resolution) (*grid.Grid, error) {
	start := time.Now()

	var l *interpolation.Lattice
	if res.native {
		l = interpolation.FromField(f)
	} else {
		var err error
		l, err = interpolation.Resample(f, res.cuts, e.params.Border)
		if err != nil {
			return nil, err
		}
	}

	g, err := grid.Build(l)
	if err != nil {
		return nil, err
	}

	d := g.Dims()
	e.report(fmt.Sprintf("Built %dx%dx%d cells in %v", d[0], d[1], d[2], time.Since(start).Round(time.Millisecond)))
	return g, nil
}

// Triangulate extracts the isosurface at level from the current grid. The
// level is clamped to [marching.MinLevel, marching.MaxLevel] and vertex
// positions are mapped into the unit cube by the field dimensions.
//
// The previous mesh is released first, so a mesh returned by an earlier
// call must not be used afterwards. A level with no crossings yields an
// empty mesh, not an error.
func (e *Engine) Triangulate(ctx context.Context, level float64) (*marching.Mesh, error) {
	if e.field == nil {
		return nil, ErrNoField
	}
	if e.grid == nil {
		return nil, ErrNoGrid
	}

	e.Release()

	start := time.Now()
	nx, ny, nz := e.field.Dims()
	scale := r3.Vec{X: 1 / float64(nx), Y: 1 / float64(ny), Z: 1 / float64(nz)}

	m, err := marching.TriangulateParallel(ctx, e.grid, level, scale, e.params.Workers)
	if err != nil {
		return nil, fmt.Errorf("triangulate at level %v: %w", level, err)
	}

	e.mesh = m
	e.report(fmt.Sprintf("Extracted %d triangles, %d vertices at level %.3f in %v",
		len(m.Triangles), len(m.Vertices), m.Level, time.Since(start).Round(time.Millisecond)))
	return m, nil
}

// Release frees the mesh of the last triangulation and its edge cache.
// It is safe to call at any time.
func (e *Engine) Release() {
	if e.mesh != nil {
		e.mesh.Release()
		e.mesh = nil
	}
}

// Mesh returns the mesh of the last triangulation, or nil.
func (e *Engine) Mesh() *marching.Mesh {
	return e.mesh
}

// Field returns the current field, or nil.
func (e *Engine) Field() *volume.Field {
	return e.field
}

// Grid returns the current cell grid, or nil.
func (e *Engine) Grid() *grid.Grid {
	return e.grid
}

// Resolution reports the configured resolution. ok is false until
// SetResolution or UseNativeResolution succeeds; native is true for the
// raw-sample grid, in which case cuts is zero.
func (e *Engine) Resolution() (cuts int, native, ok bool) {
	return e.res.cuts, e.res.native, e.res.set
}

func (e *Engine) report(message string) {
	switch {
	case e.params.Progress != nil:
		e.params.Progress(0, 0, message)
	case e.params.Verbose:
		fmt.Println(message)
	}
}
