package marching

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/grid"
	"isovolume/pkg/interpolation"
	"isovolume/pkg/volume"
)

// createTestField creates a field whose sample at (x,y,z) is given by pattern
func createTestField(t testing.TB, nx, ny, nz int, pattern func(x, y, z int) byte) *volume.Field {
	data := make([]byte, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				data[z*nx*ny+y*nx+x] = pattern(x, y, z)
			}
		}
	}
	f, err := volume.New(data, nx, ny, nz)
	if err != nil {
		t.Fatalf("Failed to create test field: %v", err)
	}
	return f
}

// sphereField is bright inside a ball of the given radius around the centre
func sphereField(t testing.TB, size int, radius float64) *volume.Field {
	center := float64(size-1) / 2
	return createTestField(t, size, size, size, func(x, y, z int) byte {
		dx := float64(x) - center
		dy := float64(y) - center
		dz := float64(z) - center
		d := math.Sqrt(dx*dx + dy*dy + dz*dz)
		v := 255 * (1 - d/(2*radius))
		return byte(math.Max(0, math.Min(255, v)))
	})
}

func nativeGrid(t testing.TB, f *volume.Field) *grid.Grid {
	g, err := grid.Build(interpolation.FromField(f))
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	return g
}

func resampledGrid(t testing.TB, f *volume.Field, cuts int, border interpolation.Border) *grid.Grid {
	l, err := interpolation.Resample(f, cuts, border)
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	g, err := grid.Build(l)
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	return g
}

func fieldScale(f *volume.Field) r3.Vec {
	nx, ny, nz := f.Dims()
	return r3.Vec{X: 1 / float64(nx), Y: 1 / float64(ny), Z: 1 / float64(nz)}
}
