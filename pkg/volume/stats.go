package volume

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the intensity distribution of a field.
type Stats struct {
	Min, Max byte
	Mean     float64
	StdDev   float64
	Median   float64

	// Entropy is the Shannon entropy of the intensity histogram in bits.
	Entropy float64
}

// intensities holds the 256 possible sample values, in order.
var intensities = func() []float64 {
	x := make([]float64, 256)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}()

// Histogram returns the number of samples at each of the 256 intensities.
func (f *Field) Histogram() []float64 {
	hist := make([]float64, 256)
	for _, v := range f.data {
		hist[v]++
	}
	return hist
}

// Stats computes the intensity statistics of the field from its histogram,
// so no per-sample float copy of the volume is made.
func (f *Field) Stats() Stats {
	hist := f.Histogram()

	var s Stats
	for i := 0; i < 256; i++ {
		if hist[i] > 0 {
			s.Min = byte(i)
			break
		}
	}
	for i := 255; i >= 0; i-- {
		if hist[i] > 0 {
			s.Max = byte(i)
			break
		}
	}

	s.Mean, s.StdDev = stat.MeanStdDev(intensities, hist)
	s.Median = stat.Quantile(0.5, stat.Empirical, intensities, hist)

	total := float64(len(f.data))
	p := make([]float64, 256)
	for i, c := range hist {
		p[i] = c / total
	}
	s.Entropy = stat.Entropy(p) / math.Ln2

	return s
}

// OtsuLevel suggests an iso-level in [0,1] that best separates the
// histogram into two classes (Otsu's method). The level sits halfway
// between the threshold intensity and the next one.
func (f *Field) OtsuLevel() float64 {
	hist := f.Histogram()
	total := float64(len(f.data))

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * c
	}

	var (
		weightBelow, sumBelow float64
		best                  float64
		threshold             int
	)
	for t := 0; t < 255; t++ {
		weightBelow += hist[t]
		if weightBelow == 0 {
			continue
		}
		weightAbove := total - weightBelow
		if weightAbove == 0 {
			break
		}
		sumBelow += float64(t) * hist[t]

		meanBelow := sumBelow / weightBelow
		meanAbove := (sumAll - sumBelow) / weightAbove
		between := weightBelow * weightAbove * (meanBelow - meanAbove) * (meanBelow - meanAbove)
		if between > best {
			best = between
			threshold = t
		}
	}

	return (float64(threshold) + 0.5) / 255
}
