// Package stl exports extracted isosurfaces as STL files for printing and
// inspection in external viewers.
package stl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	solid "github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/marching"
)

// DefaultName is the solid name used when Options.Name is empty.
const DefaultName = "isosurface"

// Options controls how a mesh is written.
type Options struct {
	// Scale multiplies every vertex position. Meshes come out of the
	// engine in the unit cube; pass the field dimensions times the voxel
	// size to get millimetres. A zero component means 1.
	Scale r3.Vec

	// ASCII selects the text format instead of binary
	ASCII bool

	// Name is stored as the solid name
	Name string
}

func (o Options) scale() r3.Vec {
	s := o.Scale
	if s.X == 0 {
		s.X = 1
	}
	if s.Y == 0 {
		s.Y = 1
	}
	if s.Z == 0 {
		s.Z = 1
	}
	return s
}

func vec3(v r3.Vec) solid.Vec3 {
	return solid.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// ToSolid converts the mesh into an STL solid. Facet normals are taken
// from the scaled vertices so they stay perpendicular under non-uniform
// scaling.
func ToSolid(m *marching.Mesh, opts Options) *solid.Solid {
	s := opts.scale()
	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	out := &solid.Solid{
		Name:      name,
		IsAscii:   opts.ASCII,
		Triangles: make([]solid.Triangle, len(m.Triangles)),
	}

	for i := range m.Triangles {
		var p [3]r3.Vec
		for j, v := range m.Corners(i) {
			p[j] = r3.Vec{X: v.Position.X * s.X, Y: v.Position.Y * s.Y, Z: v.Position.Z * s.Z}
		}

		n := r3.Cross(r3.Sub(p[1], p[0]), r3.Sub(p[2], p[0]))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}

		out.Triangles[i] = solid.Triangle{
			Normal:   vec3(n),
			Vertices: [3]solid.Vec3{vec3(p[0]), vec3(p[1]), vec3(p[2])},
		}
	}

	return out
}

// WriteSTL writes the mesh to w.
func WriteSTL(w io.Writer, m *marching.Mesh, opts Options) error {
	if err := ToSolid(m, opts).WriteAll(w); err != nil {
		return fmt.Errorf("error writing STL: %w", err)
	}
	return nil
}

// SaveToSTL writes the mesh to the file at path, creating parent
// directories as needed.
func SaveToSTL(path string, m *marching.Mesh, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating STL file: %w", err)
	}

	if err := WriteSTL(f, m, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
