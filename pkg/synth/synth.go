// Package synth generates phantom volumes from signed distance functions,
// for exercising the extraction pipeline without a scanned dataset.
package synth

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"isovolume/internal/models"
)

// Phantom shapes fit inside the [-1,1] cube.
var shapes = map[string]func() (sdf.SDF3, error){
	"sphere": func() (sdf.SDF3, error) {
		return sdf.Sphere3D(0.6)
	},
	"box": func() (sdf.SDF3, error) {
		return sdf.Box3D(v3.Vec{X: 1.2, Y: 0.9, Z: 0.6}, 0.1)
	},
	"cylinder": func() (sdf.SDF3, error) {
		return sdf.Cylinder3D(1.4, 0.5, 0.05)
	},
	"hollow": func() (sdf.SDF3, error) {
		outer, err := sdf.Box3D(v3.Vec{X: 1.4, Y: 1.4, Z: 1.4}, 0.1)
		if err != nil {
			return nil, err
		}
		inner, err := sdf.Sphere3D(0.55)
		if err != nil {
			return nil, err
		}
		return sdf.Difference3D(outer, inner), nil
	},
}

// Shapes returns the names Shape accepts, sorted.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shape returns the named phantom.
func Shape(name string) (sdf.SDF3, error) {
	build, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q (must be one of %v)", name, Shapes())
	}
	s, err := build()
	if err != nil {
		return nil, fmt.Errorf("error building %s: %w", name, err)
	}
	return s, nil
}

// Sample evaluates s on an nx*ny*nz grid spanning [-1,1] per axis and maps
// signed distance to intensity: 255 deep inside, 0 far outside, and 127.5
// on the surface, blending linearly over about two voxels.
func Sample(s sdf.SDF3, nx, ny, nz int) []byte {
	coord := func(i, n int) float64 {
		return 2*float64(i)/float64(n-1) - 1
	}
	falloff := 4 / float64(min(nx, ny, nz)-1)

	data := make([]byte, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				d := s.Evaluate(v3.Vec{X: coord(x, nx), Y: coord(y, ny), Z: coord(z, nz)})
				v := 255 * (0.5 - d/falloff)
				data[z*nx*ny+y*nx+x] = byte(math.Round(math.Max(0, math.Min(255, v))))
			}
		}
	}
	return data
}

// WriteRaw stores data in dir under the Name_X_Y_Z.raw convention and
// returns the file path.
func WriteRaw(dir, name string, data []byte, nx, ny, nz int) (string, error) {
	if len(data) != nx*ny*nz {
		return "", fmt.Errorf("data has %d bytes, want %d", len(data), nx*ny*nz)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}

	m := models.ModelName{Name: name, X: nx, Y: ny, Z: nz}
	path := filepath.Join(dir, m.Filename())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &models.IOError{Path: path, Err: err}
	}
	return path, nil
}
