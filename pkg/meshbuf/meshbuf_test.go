package meshbuf

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/grid"
	"isovolume/pkg/interpolation"
	"isovolume/pkg/marching"
	"isovolume/pkg/volume"
)

// cornerMesh extracts the single triangle cutting off corner 0 of a 2x2x2
// field
func cornerMesh(t *testing.T) *marching.Mesh {
	data := make([]byte, 8)
	data[0] = 255
	f, err := volume.New(data, 2, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create field: %v", err)
	}
	g, err := grid.Build(interpolation.FromField(f))
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	m, err := marching.Triangulate(g, 0.5, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	return m
}

func near(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-6)
}

func TestInterleave(t *testing.T) {
	m := cornerMesh(t)
	buf := Interleave(m)

	if len(buf) != 3*Stride {
		t.Fatalf("Expected %d floats, got %d", 3*Stride, len(buf))
	}
	if err := Validate(buf); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	n := float32(1 / math.Sqrt(3))
	want := []mgl32.Vec3{{0.25, 0, 0}, {0, 0.25, 0}, {0, 0, 0.25}}
	for i, w := range want {
		p, normal := Vertex(buf, i)
		if !near(p, w) {
			t.Errorf("Vertex %d position %v, want %v", i, p, w)
		}
		if !near(normal, mgl32.Vec3{n, n, n}) {
			t.Errorf("Vertex %d normal %v, want (%v,%v,%v)", i, normal, n, n, n)
		}
	}
}

func TestIndexed(t *testing.T) {
	m := cornerMesh(t)
	vertices, indices := Indexed(m)

	if len(vertices) != len(m.Vertices)*Stride {
		t.Fatalf("Expected %d floats, got %d", len(m.Vertices)*Stride, len(vertices))
	}
	if len(indices) != 3 {
		t.Fatalf("Expected 3 indices, got %d", len(indices))
	}

	// Resolving the indices reproduces the flat triangle list
	flat := Interleave(m)
	for i, idx := range indices {
		p, n := Vertex(vertices, int(idx))
		fp, fn := Vertex(flat, i)
		if p != fp || n != fn {
			t.Errorf("Index %d resolves to %v/%v, flat list has %v/%v", i, p, n, fp, fn)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		buf     []float32
		wantErr bool
	}{
		{"empty", nil, false},
		{"one vertex", []float32{0, 0, 0, 0, 0, 1}, false},
		{"short", []float32{0, 0, 0, 0, 0}, true},
		{"nan position", []float32{math32.NaN(), 0, 0, 0, 0, 1}, true},
		{"inf normal", []float32{0, 0, 0, 0, math32.Inf(1), 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds(Interleave(cornerMesh(t)))
	if !near(lo, mgl32.Vec3{0, 0, 0}) || !near(hi, mgl32.Vec3{0.25, 0.25, 0.25}) {
		t.Errorf("Bounds = %v..%v", lo, hi)
	}

	lo, hi = Bounds(nil)
	if lo != (mgl32.Vec3{}) || hi != (mgl32.Vec3{}) {
		t.Errorf("Empty buffer bounds = %v..%v", lo, hi)
	}
}

func TestTransformUnitToClip(t *testing.T) {
	buf := Interleave(cornerMesh(t))
	Transform(buf, UnitToClip())

	p, n := Vertex(buf, 0)
	if !near(p, mgl32.Vec3{-0.5, -1, -1}) {
		t.Errorf("Transformed position %v, want (-0.5,-1,-1)", p)
	}
	if math32.Abs(n.Len()-1) > 1e-6 {
		t.Errorf("Transformed normal %v is not unit length", n)
	}

	// Non-uniform scale bends normals by the inverse transpose
	buf = []float32{0, 0, 0, 1, 1, 0}
	Transform(buf, mgl32.Scale3D(2, 1, 1))
	_, n = Vertex(buf, 0)
	want := mgl32.Vec3{0.5, 1, 0}.Normalize()
	if !near(n, want) {
		t.Errorf("Scaled normal %v, want %v", n, want)
	}
}

func TestWrite(t *testing.T) {
	buf := Interleave(cornerMesh(t))

	var out bytes.Buffer
	if err := Write(&out, buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if out.Len() != 4*len(buf) {
		t.Fatalf("Expected %d bytes, got %d", 4*len(buf), out.Len())
	}

	back := make([]float32, len(buf))
	if err := binary.Read(&out, binary.LittleEndian, back); err != nil {
		t.Fatalf("Read back failed: %v", err)
	}
	for i := range buf {
		if back[i] != buf[i] {
			t.Fatalf("Value %d: wrote %v, read %v", i, buf[i], back[i])
		}
	}
}
