package visualization

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"isovolume/pkg/volume"
)

// SaveHistogram plots the intensity distribution of f into path. The file
// format follows the extension (png, svg, pdf, ...). A level in (0,1]
// is drawn as a dashed vertical marker at the matching intensity.
func SaveHistogram(f *volume.Field, path string, bins int, level float64) error {
	if bins < 1 || bins > 256 {
		return fmt.Errorf("bins must be in [1, 256], got %d", bins)
	}

	counts := f.Histogram()
	xys := make(plotter.XYs, len(counts))
	peak := 0.0
	for i, c := range counts {
		xys[i].X = float64(i) + 0.5
		xys[i].Y = c
		peak = max(peak, c)
	}

	p := plot.New()
	p.Title.Text = "Intensity histogram"
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Voxels"
	p.X.Min, p.X.Max = 0, 256

	h, err := plotter.NewHistogram(xys, bins)
	if err != nil {
		return fmt.Errorf("error building histogram: %w", err)
	}
	h.FillColor = color.Gray{Y: 160}
	p.Add(h)

	if level > 0 && level <= 1 {
		x := level * 255
		marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: peak}})
		if err != nil {
			return fmt.Errorf("error building level marker: %w", err)
		}
		marker.Color = color.RGBA{R: 200, A: 255}
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("level %.3f", level), marker)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving histogram: %w", err)
	}
	return nil
}
