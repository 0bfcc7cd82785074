package marching

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Stats summarizes an extracted mesh.
type Stats struct {
	Triangles int
	Vertices  int

	// Area is the total surface area in the mesh's final coordinates
	Area float64

	// Min and Max bound every vertex position
	Min, Max r3.Vec
}

// Stats computes counts, area and bounds of the mesh.
func (m *Mesh) Stats() Stats {
	s := Stats{
		Triangles: len(m.Triangles),
		Vertices:  len(m.Vertices),
	}
	if len(m.Vertices) == 0 {
		return s
	}

	s.Min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	s.Max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Vertices {
		p := v.Position
		s.Min = r3.Vec{X: math.Min(s.Min.X, p.X), Y: math.Min(s.Min.Y, p.Y), Z: math.Min(s.Min.Z, p.Z)}
		s.Max = r3.Vec{X: math.Max(s.Max.X, p.X), Y: math.Max(s.Max.Y, p.Y), Z: math.Max(s.Max.Z, p.Z)}
	}

	for i := range m.Triangles {
		c := m.Corners(i)
		s.Area += 0.5 * r3.Norm(r3.Cross(r3.Sub(c[1].Position, c[0].Position), r3.Sub(c[2].Position, c[0].Position)))
	}

	return s
}
