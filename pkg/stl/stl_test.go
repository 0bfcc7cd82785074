package stl

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	solid "github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/grid"
	"isovolume/pkg/interpolation"
	"isovolume/pkg/marching"
	"isovolume/pkg/volume"
)

// extract runs marching cubes on a native grid and maps the surface into
// the unit cube
func extract(t testing.TB, data []byte, nx, ny, nz int, level float64) *marching.Mesh {
	f, err := volume.New(data, nx, ny, nz)
	if err != nil {
		t.Fatalf("Failed to create field: %v", err)
	}
	g, err := grid.Build(interpolation.FromField(f))
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	scale := r3.Vec{X: 1 / float64(nx), Y: 1 / float64(ny), Z: 1 / float64(nz)}
	m, err := marching.Triangulate(g, level, scale)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	return m
}

// sphereVolume creates a binary sphere in a size^3 volume
func sphereVolume(size int) []byte {
	data := make([]byte, size*size*size)

	radius := float64(size) / 4.0
	center := float64(size) / 2.0

	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx := float64(x) - center
				dy := float64(y) - center
				dz := float64(z) - center
				if math.Sqrt(dx*dx+dy*dy+dz*dz) < radius {
					data[z*size*size+y*size+x] = 255
				}
			}
		}
	}
	return data
}

// cornerVolume is a 2x2x2 volume with only the first sample set
func cornerVolume() []byte {
	return []byte{
		255, 0,
		0, 0,

		0, 0,
		0, 0,
	}
}

// TestSphereNormals verifies facet normals of a sphere point outward
func TestSphereNormals(t *testing.T) {
	size := 20
	m := extract(t, sphereVolume(size), size, size, size, 0.5)

	// Scale back to voxel units so the sphere centre is known
	s := ToSolid(m, Options{Scale: r3.Vec{X: float64(size), Y: float64(size), Z: float64(size)}})

	// A sphere with this resolution should have at least 100 triangles
	if len(s.Triangles) < 100 {
		t.Fatalf("Expected at least 100 triangles for sphere, got %d", len(s.Triangles))
	}

	center := float32(size) / 2
	for i, tri := range s.Triangles {
		var c [3]float32
		for _, v := range tri.Vertices {
			c[0] += v[0] / 3
			c[1] += v[1] / 3
			c[2] += v[2] / 3
		}

		vx, vy, vz := c[0]-center, c[1]-center, c[2]-center
		mag := float32(math.Sqrt(float64(vx*vx + vy*vy + vz*vz)))
		if mag > 0 {
			vx /= mag
			vy /= mag
			vz /= mag
		}

		// Dot product with normal should be positive for outward-facing normals
		dot := vx*tri.Normal[0] + vy*tri.Normal[1] + vz*tri.Normal[2]
		if dot < -0.5 {
			t.Errorf("Triangle %d normal appears to point inward, dot product: %f", i, dot)
		}
	}
}

// TestScale verifies that the scale option is applied per axis
func TestScale(t *testing.T) {
	m := extract(t, cornerVolume(), 2, 2, 2, 0.5)

	plain := ToSolid(m, Options{})
	scaled := ToSolid(m, Options{Scale: r3.Vec{X: 2.5, Y: 1.5, Z: 3.0}})

	if len(plain.Triangles) != 1 || len(scaled.Triangles) != 1 {
		t.Fatalf("Expected one triangle, got %d and %d", len(plain.Triangles), len(scaled.Triangles))
	}

	factors := [3]float32{2.5, 1.5, 3.0}
	for j := 0; j < 3; j++ {
		for k := 0; k < 3; k++ {
			want := plain.Triangles[0].Vertices[j][k] * factors[k]
			got := scaled.Triangles[0].Vertices[j][k]
			if math.Abs(float64(got-want)) > 1e-6 {
				t.Errorf("Vertex %d axis %d = %f, want %f", j, k, got, want)
			}
		}
	}

	// The facet normal follows the scaled geometry and stays unit length
	n := scaled.Triangles[0].Normal
	if l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])); math.Abs(l-1) > 1e-6 {
		t.Errorf("Scaled normal %v has length %f", n, l)
	}
	if n[0] == n[1] {
		t.Errorf("Non-uniform scale should bend the normal, got %v", n)
	}
}

// TestSaveToSTL verifies that the binary STL file can be written
func TestSaveToSTL(t *testing.T) {
	m := extract(t, cornerVolume(), 2, 2, 2, 0.5)

	path := filepath.Join(t.TempDir(), "out", "corner.stl")
	if err := SaveToSTL(path, m, Options{}); err != nil {
		t.Fatalf("Failed to save STL: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat output file: %v", err)
	}

	// STL header: 80 bytes
	// Number of triangles: 4 bytes
	// Triangle: 50 bytes (12 bytes per vertex, 12 bytes per normal, 2 bytes attribute)
	wantSize := int64(80 + 4 + 50*m.Len())
	if info.Size() != wantSize {
		t.Errorf("Expected %d bytes, got %d", wantSize, info.Size())
	}

	back, err := solid.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read STL back: %v", err)
	}
	if len(back.Triangles) != m.Len() {
		t.Errorf("Read %d triangles, wrote %d", len(back.Triangles), m.Len())
	}
}

// TestWriteSTLASCII verifies the text format round trip
func TestWriteSTLASCII(t *testing.T) {
	size := 12
	m := extract(t, sphereVolume(size), size, size, size, 0.5)

	var buf bytes.Buffer
	if err := WriteSTL(&buf, m, Options{ASCII: true, Name: "sphere"}); err != nil {
		t.Fatalf("WriteSTL failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "solid sphere") {
		t.Errorf("ASCII output should start with the solid name, got %q", buf.String()[:20])
	}
	if got := strings.Count(buf.String(), "facet normal"); got != m.Len() {
		t.Errorf("Expected %d facets, got %d", m.Len(), got)
	}

	back, err := solid.ReadAll(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Failed to parse ASCII STL: %v", err)
	}
	if back.Name != "sphere" || len(back.Triangles) != m.Len() {
		t.Errorf("Read back %q with %d triangles", back.Name, len(back.Triangles))
	}
}

// TestTriangleInterpolation verifies vertices land between samples
func TestTriangleInterpolation(t *testing.T) {
	m := extract(t, cornerVolume(), 2, 2, 2, 0.5)
	s := ToSolid(m, Options{Scale: r3.Vec{X: 2, Y: 2, Z: 2}})

	if len(s.Triangles) == 0 {
		t.Fatal("No triangles generated, cannot test interpolation")
	}
	tri := s.Triangles[0]

	// In voxel units every vertex sits halfway along an edge from the origin
	hasInterpolatedVertex := false
	for _, v := range tri.Vertices {
		if !isIntegerCoordinate(v[0]) || !isIntegerCoordinate(v[1]) || !isIntegerCoordinate(v[2]) {
			hasInterpolatedVertex = true
		}
	}
	if !hasInterpolatedVertex {
		t.Error("No interpolated vertices found in the triangle")
	}

	if tri.Normal[0] == 0 && tri.Normal[1] == 0 && tri.Normal[2] == 0 {
		t.Error("Triangle normal is zero")
	}
}

// TestEmptyMesh verifies a mesh without triangles still writes a valid file
func TestEmptyMesh(t *testing.T) {
	m := extract(t, make([]byte, 8), 2, 2, 2, 0.5)

	var buf bytes.Buffer
	if err := WriteSTL(&buf, m, Options{}); err != nil {
		t.Fatalf("WriteSTL failed: %v", err)
	}
	if buf.Len() != 84 {
		t.Errorf("Expected header only (84 bytes), got %d", buf.Len())
	}
}

// isIntegerCoordinate checks if a coordinate is very close to an integer value
func isIntegerCoordinate(coord float32) bool {
	return math.Abs(float64(coord)-math.Round(float64(coord))) < 0.001
}

// BenchmarkWriteSTL benchmarks binary export of a sphere surface
func BenchmarkWriteSTL(b *testing.B) {
	size := 32
	m := extract(b, sphereVolume(size), size, size, size, 0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := WriteSTL(&buf, m, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
