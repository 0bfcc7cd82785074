// Package volume stores the raw 8-bit scalar field that isosurfaces are
// extracted from.
package volume

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"isovolume/internal/models"
)

// Field is an immutable dense grid of unsigned byte samples addressed as
// z*Nx*Ny + y*Nx + x.
type Field struct {
	data       []byte
	nx, ny, nz int
}

// Load reads exactly nx*ny*nz bytes from a headerless raw file.
func Load(path string, nx, ny, nz int) (*Field, error) {
	if err := checkDims(nx, ny, nz); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &models.IOError{Path: path, Err: errors.Wrap(err, "open raw volume")}
	}
	defer file.Close()

	f, err := Read(file, nx, ny, nz)
	if err != nil {
		if ioErr, ok := err.(*models.IOError); ok {
			ioErr.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Read consumes nx*ny*nz bytes from r. A short read is an IOError; bytes
// past the expected size are left unread.
func Read(r io.Reader, nx, ny, nz int) (*Field, error) {
	if err := checkDims(nx, ny, nz); err != nil {
		return nil, err
	}

	size := nx * ny * nz
	data := make([]byte, size)
	n, err := io.ReadFull(r, data)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &models.IOError{Err: errors.Wrapf(err, "read raw volume: got %d of %d bytes", n, size)}
	}

	return &Field{data: data, nx: nx, ny: ny, nz: nz}, nil
}

// New builds a field from samples already in memory. The slice is copied.
func New(data []byte, nx, ny, nz int) (*Field, error) {
	if err := checkDims(nx, ny, nz); err != nil {
		return nil, err
	}
	if len(data) != nx*ny*nz {
		return nil, &models.IOError{Err: errors.Errorf("expected %d samples, got %d", nx*ny*nz, len(data))}
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	return &Field{data: owned, nx: nx, ny: ny, nz: nz}, nil
}

// checkDims rejects axes too short to interpolate across.
func checkDims(nx, ny, nz int) error {
	if nx < 2 || ny < 2 || nz < 2 {
		return models.Degenerate("field dimensions %dx%dx%d: every axis needs at least 2 samples", nx, ny, nz)
	}
	return nil
}

// Dims returns the sample counts along x, y and z.
func (f *Field) Dims() (nx, ny, nz int) {
	return f.nx, f.ny, f.nz
}

// Len returns the total number of samples.
func (f *Field) Len() int {
	return len(f.data)
}

// Sample returns the raw byte at integer coordinates. Coordinates must lie
// inside the field; callers clamp before sampling.
func (f *Field) Sample(x, y, z int) byte {
	return f.data[z*f.nx*f.ny+y*f.nx+x]
}

// Normalized returns the sample at integer coordinates mapped to [0,1].
func (f *Field) Normalized(x, y, z int) float64 {
	return float64(f.Sample(x, y, z)) / 255
}
