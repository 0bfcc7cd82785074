package marching

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Intersection is a surface vertex on a grid edge, shared by every
// triangle that touches that edge.
type Intersection struct {
	// Key is the canonical edge identity, see EdgeKey
	Key int

	Position r3.Vec

	// Normal is the unit sum of incident face normals. It is only
	// meaningful once the pass that built the mesh has returned.
	Normal r3.Vec

	// Faces indexes the triangles referencing this vertex
	Faces []int32
}

// Triangle references three intersections by arena index.
type Triangle struct {
	V [3]int32

	// Normal is the unit face normal, cross(v1-v0, v2-v0), computed before
	// positions are scaled. Degenerate faces have a zero normal.
	Normal r3.Vec
}

// Mesh is the arena produced by one triangulation pass. Vertices and
// triangles refer to each other by index, and the whole arena is dropped
// at once by Release.
type Mesh struct {
	Vertices  []Intersection
	Triangles []Triangle

	// Level is the clamped iso-level the mesh was extracted at
	Level float64

	cache map[int]int32
}

func newMesh(level float64) *Mesh {
	return &Mesh{
		Level: level,
		cache: make(map[int]int32),
	}
}

// intersection returns the arena index for key, creating the vertex at pos
// on first reference.
func (m *Mesh) intersection(key int, pos r3.Vec) int32 {
	if idx, ok := m.cache[key]; ok {
		return idx
	}
	idx := int32(len(m.Vertices))
	m.Vertices = append(m.Vertices, Intersection{Key: key, Position: pos})
	m.cache[key] = idx
	return idx
}

// addTriangle resolves a fragment through the cache and appends it.
func (m *Mesh) addTriangle(f fragment) {
	face := int32(len(m.Triangles))

	var tri Triangle
	for j := 0; j < 3; j++ {
		idx := m.intersection(f.keys[j], f.pos[j])
		m.Vertices[idx].Faces = append(m.Vertices[idx].Faces, face)
		tri.V[j] = idx
	}

	p0 := m.Vertices[tri.V[0]].Position
	p1 := m.Vertices[tri.V[1]].Position
	p2 := m.Vertices[tri.V[2]].Position
	tri.Normal = unit(r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0)))

	m.Triangles = append(m.Triangles, tri)
}

// finalize accumulates vertex normals and maps positions by scale.
func (m *Mesh) finalize(scale r3.Vec) {
	for i := range m.Vertices {
		v := &m.Vertices[i]
		var sum r3.Vec
		for _, face := range v.Faces {
			sum = r3.Add(sum, m.Triangles[face].Normal)
		}
		v.Normal = unit(sum)
		v.Position = r3.Vec{
			X: v.Position.X * scale.X,
			Y: v.Position.Y * scale.Y,
			Z: v.Position.Z * scale.Z,
		}
	}
}

// unit normalizes v, leaving the zero vector unchanged.
func unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// Lookup returns the arena index of the vertex on the given edge key.
func (m *Mesh) Lookup(key int) (int32, bool) {
	idx, ok := m.cache[key]
	return idx, ok
}

// Len returns the number of triangles.
func (m *Mesh) Len() int {
	return len(m.Triangles)
}

// Corners returns the three vertices of triangle i.
func (m *Mesh) Corners(i int) [3]*Intersection {
	t := m.Triangles[i]
	return [3]*Intersection{&m.Vertices[t.V[0]], &m.Vertices[t.V[1]], &m.Vertices[t.V[2]]}
}

// Release drops the arena and the edge cache. The mesh is empty afterwards.
func (m *Mesh) Release() {
	m.Vertices = nil
	m.Triangles = nil
	m.cache = nil
}
