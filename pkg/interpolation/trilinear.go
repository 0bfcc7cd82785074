// Package interpolation resamples a raw scalar field onto a regular lattice
// at a caller-chosen resolution.
package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/internal/models"
	"isovolume/pkg/volume"
)

// MinCuts is the smallest resolution Resample accepts. One cut would put
// every lattice point on the same field coordinate.
const MinCuts = 2

// Border selects what the halo around a resampled lattice holds.
type Border int

const (
	// BorderOpen copies the nearest interior value into the halo, so no
	// surface is created across the volume border.
	BorderOpen Border = iota

	// BorderClosed fills the halo with zeros, closing every surface that
	// reaches the volume border.
	BorderClosed
)

func (b Border) String() string {
	switch b {
	case BorderOpen:
		return "open"
	case BorderClosed:
		return "closed"
	default:
		return fmt.Sprintf("Border(%d)", int(b))
	}
}

// ParseBorder parses "open" or "closed".
func ParseBorder(s string) (Border, error) {
	switch s {
	case "open", "":
		return BorderOpen, nil
	case "closed":
		return BorderClosed, nil
	default:
		return BorderOpen, fmt.Errorf("unknown border %q (must be open or closed)", s)
	}
}

// Lattice is a regular grid of normalized scalar values in [0,1], stored
// x-fastest like the raw field.
type Lattice struct {
	// Values holds Dims[0]*Dims[1]*Dims[2] samples
	Values []float64

	// Dims is the number of lattice points along each axis
	Dims [3]int

	// Spacing is the physical distance between neighbouring points, in
	// field voxel units
	Spacing r3.Vec
}

// Index returns the flat index of lattice point (x, y, z).
func (l *Lattice) Index(x, y, z int) int {
	return z*l.Dims[0]*l.Dims[1] + y*l.Dims[0] + x
}

// At returns the value at lattice point (x, y, z).
func (l *Lattice) At(x, y, z int) float64 {
	return l.Values[l.Index(x, y, z)]
}

// Position returns the physical position of lattice point (x, y, z).
func (l *Lattice) Position(x, y, z int) r3.Vec {
	return r3.Vec{
		X: float64(x) * l.Spacing.X,
		Y: float64(y) * l.Spacing.Y,
		Z: float64(z) * l.Spacing.Z,
	}
}

// Resample builds a lattice with cuts+2 points per axis. Points 1..cuts
// sample the field evenly from its first to its last voxel; points 0 and
// cuts+1 form a halo filled according to border. Points are spaced
// N/(cuts+1) apart, so the lattice spans [0, N] per axis. Relative to field
// coordinates, resampled output is therefore scaled about the volume
// centre by (cuts-1)N/((cuts+1)(N-1)): a surface extracted from it comes
// out slightly smaller than one extracted at native resolution.
func Resample(f *volume.Field, cuts int, border Border) (*Lattice, error) {
	if cuts < MinCuts {
		return nil, models.Degenerate("resolution %d: cuts must be at least %d", cuts, MinCuts)
	}

	nx, ny, nz := f.Dims()
	size := cuts + 2
	l := &Lattice{
		Values: make([]float64, size*size*size),
		Dims:   [3]int{size, size, size},
		Spacing: r3.Vec{
			X: float64(nx) / float64(cuts+1),
			Y: float64(ny) / float64(cuts+1),
			Z: float64(nz) / float64(cuts+1),
		},
	}

	// Field-space step between consecutive interior samples
	xd := float64(nx-1) / float64(cuts-1)
	yd := float64(ny-1) / float64(cuts-1)
	zd := float64(nz-1) / float64(cuts-1)

	for z := 1; z <= cuts; z++ {
		for y := 1; y <= cuts; y++ {
			for x := 1; x <= cuts; x++ {
				l.Values[l.Index(x, y, z)] = Trilinear(f, xd*float64(x-1), yd*float64(y-1), zd*float64(z-1))
			}
		}
	}

	if border == BorderOpen {
		l.fillHalo(cuts)
	}

	return l, nil
}

// fillHalo copies the nearest interior value into every halo point.
func (l *Lattice) fillHalo(cuts int) {
	clamp := func(i int) int {
		if i < 1 {
			return 1
		}
		if i > cuts {
			return cuts
		}
		return i
	}

	last := cuts + 1
	for z := 0; z <= last; z++ {
		for y := 0; y <= last; y++ {
			for x := 0; x <= last; x++ {
				if x > 0 && x < last && y > 0 && y < last && z > 0 && z < last {
					continue
				}
				l.Values[l.Index(x, y, z)] = l.At(clamp(x), clamp(y), clamp(z))
			}
		}
	}
}

// FromField wraps the raw field as a lattice without resampling or halo.
// Points sit one voxel apart.
func FromField(f *volume.Field) *Lattice {
	nx, ny, nz := f.Dims()
	l := &Lattice{
		Values:  make([]float64, nx*ny*nz),
		Dims:    [3]int{nx, ny, nz},
		Spacing: r3.Vec{X: 1, Y: 1, Z: 1},
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				l.Values[l.Index(x, y, z)] = f.Normalized(x, y, z)
			}
		}
	}
	return l
}

// Trilinear interpolates the field at a continuous coordinate and maps the
// result to [0,1]. The floor corner is clamped to N-2 on each axis so the
// opposite corner stays inside the field; coordinates below zero clamp to 0.
func Trilinear(f *volume.Field, x, y, z float64) float64 {
	nx, ny, nz := f.Dims()
	x0 := floorClamp(x, nx)
	y0 := floorClamp(y, ny)
	z0 := floorClamp(z, nz)

	lx := x - float64(x0)
	ly := y - float64(y0)
	lz := z - float64(z0)

	v000 := float64(f.Sample(x0, y0, z0))
	v100 := float64(f.Sample(x0+1, y0, z0))
	v010 := float64(f.Sample(x0, y0+1, z0))
	v110 := float64(f.Sample(x0+1, y0+1, z0))
	v001 := float64(f.Sample(x0, y0, z0+1))
	v101 := float64(f.Sample(x0+1, y0, z0+1))
	v011 := float64(f.Sample(x0, y0+1, z0+1))
	v111 := float64(f.Sample(x0+1, y0+1, z0+1))

	v := v000*(1-lx)*(1-ly)*(1-lz) +
		v100*lx*(1-ly)*(1-lz) +
		v010*(1-lx)*ly*(1-lz) +
		v110*lx*ly*(1-lz) +
		v001*(1-lx)*(1-ly)*lz +
		v101*lx*(1-ly)*lz +
		v011*(1-lx)*ly*lz +
		v111*lx*ly*lz

	return v / 255
}

// floorClamp returns floor(c) limited to [0, n-2].
func floorClamp(c float64, n int) int {
	i := int(math.Floor(c))
	if i > n-2 {
		i = n - 2
	}
	if i < 0 {
		i = 0
	}
	return i
}
