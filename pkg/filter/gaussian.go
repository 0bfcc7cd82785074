// Package filter smooths scalar fields before extraction. Noisy scans
// produce ragged isosurfaces full of tiny islands; a light low-pass pass
// removes most of them.
package filter

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"isovolume/internal/models"
	"isovolume/pkg/volume"
)

// Gaussian blurs f with a Gaussian of standard deviation sigma voxels. The
// filter is separable: every line along x, then y, then z is transformed
// with a real FFT, multiplied by the Gaussian transfer function and
// transformed back. Lines are mirrored to twice their length first so the
// periodic transform does not wrap one border into the other.
//
// A sigma of zero returns f unchanged.
func Gaussian(f *volume.Field, sigma float64) (*volume.Field, error) {
	if sigma < 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, models.Degenerate("smoothing sigma %v must be a finite non-negative number", sigma)
	}
	if sigma == 0 {
		return f, nil
	}

	nx, ny, nz := f.Dims()
	data := make([]float64, f.Len())
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				data[z*nx*ny+y*nx+x] = float64(f.Sample(x, y, z))
			}
		}
	}

	// Stride and count of lines along each axis
	smoothAxis(data, nx, 1, ny*nz, func(l int) int { return l * nx }, sigma)
	smoothAxis(data, ny, nx, nx*nz, func(l int) int { return (l/nx)*nx*ny + l%nx }, sigma)
	smoothAxis(data, nz, nx*ny, nx*ny, func(l int) int { return l }, sigma)

	out := make([]byte, len(data))
	for i, v := range data {
		out[i] = byte(math.Round(math.Max(0, math.Min(255, v))))
	}
	return volume.New(out, nx, ny, nz)
}

// smoothAxis filters lines of n samples spaced stride apart. start maps a
// line number to the index of its first sample.
func smoothAxis(data []float64, n, stride, lines int, start func(l int) int, sigma float64) {
	m := 2 * n
	fft := fourier.NewFFT(m)
	seq := make([]float64, m)
	coeff := make([]complex128, m/2+1)

	// Gaussian transfer function at each frequency k/m
	gain := make([]float64, len(coeff))
	for k := range gain {
		f := float64(k) / float64(m)
		gain[k] = math.Exp(-2 * math.Pi * math.Pi * sigma * sigma * f * f)
	}

	for l := 0; l < lines; l++ {
		s := start(l)
		for i := 0; i < n; i++ {
			v := data[s+i*stride]
			seq[i] = v
			seq[m-1-i] = v
		}

		fft.Coefficients(coeff, seq)
		for k := range coeff {
			coeff[k] *= complex(gain[k], 0)
		}
		fft.Sequence(seq, coeff)

		// Sequence is not normalized
		for i := 0; i < n; i++ {
			data[s+i*stride] = seq[i] / float64(m)
		}
	}
}
