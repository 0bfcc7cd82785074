// Package meshbuf flattens extracted meshes into the float32 buffers a GPU
// renderer uploads: position and normal interleaved per vertex.
package meshbuf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/marching"
)

// Stride is the number of float32 values per interleaved vertex:
// position x, y, z followed by normal x, y, z.
const Stride = 6

func vec3(v r3.Vec) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Interleave expands the mesh into a triangle list with three vertices per
// triangle and no index buffer. Shared vertices are repeated.
func Interleave(m *marching.Mesh) []float32 {
	buf := make([]float32, 0, len(m.Triangles)*3*Stride)
	for i := range m.Triangles {
		for _, v := range m.Corners(i) {
			p, n := vec3(v.Position), vec3(v.Normal)
			buf = append(buf, p[:]...)
			buf = append(buf, n[:]...)
		}
	}
	return buf
}

// Indexed returns one interleaved vertex per mesh intersection and three
// indices per triangle.
func Indexed(m *marching.Mesh) (vertices []float32, indices []uint32) {
	vertices = make([]float32, 0, len(m.Vertices)*Stride)
	for _, v := range m.Vertices {
		p, n := vec3(v.Position), vec3(v.Normal)
		vertices = append(vertices, p[:]...)
		vertices = append(vertices, n[:]...)
	}

	indices = make([]uint32, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		indices = append(indices, uint32(t.V[0]), uint32(t.V[1]), uint32(t.V[2]))
	}
	return vertices, indices
}

// Vertex returns the position and normal of interleaved vertex i.
func Vertex(buf []float32, i int) (pos, normal mgl32.Vec3) {
	o := i * Stride
	return mgl32.Vec3{buf[o], buf[o+1], buf[o+2]}, mgl32.Vec3{buf[o+3], buf[o+4], buf[o+5]}
}

// Validate checks that buf holds whole vertices and no NaN or infinite
// values.
func Validate(buf []float32) error {
	if len(buf)%Stride != 0 {
		return fmt.Errorf("buffer length %d is not a multiple of %d", len(buf), Stride)
	}
	for i, f := range buf {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			what := "position"
			if i%Stride >= 3 {
				what = "normal"
			}
			return fmt.Errorf("vertex %d: non-finite %s component %v", i/Stride, what, f)
		}
	}
	return nil
}

// Bounds returns the smallest box containing every vertex position.
func Bounds(buf []float32) (lo, hi mgl32.Vec3) {
	if len(buf) < Stride {
		return lo, hi
	}
	lo, _ = Vertex(buf, 0)
	hi = lo
	for i := 1; i < len(buf)/Stride; i++ {
		p, _ := Vertex(buf, i)
		for k := 0; k < 3; k++ {
			lo[k] = math32.Min(lo[k], p[k])
			hi[k] = math32.Max(hi[k], p[k])
		}
	}
	return lo, hi
}

// UnitToClip maps the unit cube the engine emits onto the [-1, 1] cube.
func UnitToClip() mgl32.Mat4 {
	return mgl32.Scale3D(2, 2, 2).Mul4(mgl32.Translate3D(-0.5, -0.5, -0.5))
}

// Transform applies model matrix m to every vertex in place. Normals use
// the inverse transpose of the upper 3x3 block and are renormalized.
func Transform(buf []float32, m mgl32.Mat4) {
	nm := m.Mat3().Inv().Transpose()
	for i := 0; i < len(buf)/Stride; i++ {
		p, n := Vertex(buf, i)
		p = m.Mul4x1(p.Vec4(1)).Vec3()
		if n.Len() > 0 {
			n = nm.Mul3x1(n).Normalize()
		}
		o := i * Stride
		copy(buf[o:o+3], p[:])
		copy(buf[o+3:o+6], n[:])
	}
}

// Write stores buf as little-endian float32 values, ready for a direct
// vertex buffer upload.
func Write(w io.Writer, buf []float32) error {
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("write vertex buffer: %w", err)
	}
	return nil
}
