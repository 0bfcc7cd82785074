// Package visualization renders volumes and extracted surfaces to images:
// axis-aligned slices for inspecting the raw field, intensity histograms
// for choosing an iso-level, and shaded previews of the mesh.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/volume"
)

// Viewer extracts 2D views from a scalar field.
type Viewer struct {
	field *volume.Field

	// voxel is the physical size of one sample along each axis. Slices of
	// anisotropic volumes are stretched to this aspect when saved.
	voxel r3.Vec
}

// NewViewer creates a viewer over f. A zero voxel component means 1.
func NewViewer(f *volume.Field, voxel r3.Vec) *Viewer {
	if voxel.X <= 0 {
		voxel.X = 1
	}
	if voxel.Y <= 0 {
		voxel.Y = 1
	}
	if voxel.Z <= 0 {
		voxel.Z = 1
	}
	return &Viewer{field: f, voxel: voxel}
}

// sliceAxes validates axis and position and returns the image size and a
// function mapping image pixels to field coordinates.
func (v *Viewer) sliceAxes(axis string, position int) (w, h int, at func(i, j int) (x, y, z int), err error) {
	if position < 0 {
		return 0, 0, nil, fmt.Errorf("position must be non-negative")
	}

	nx, ny, nz := v.field.Dims()
	switch axis {
	case "x", "X":
		// YZ plane, z across
		if position >= nx {
			return 0, 0, nil, fmt.Errorf("position %d exceeds width %d", position, nx)
		}
		return nz, ny, func(i, j int) (int, int, int) { return position, j, i }, nil

	case "y", "Y":
		// XZ plane, z down
		if position >= ny {
			return 0, 0, nil, fmt.Errorf("position %d exceeds height %d", position, ny)
		}
		return nx, nz, func(i, j int) (int, int, int) { return i, position, j }, nil

	case "z", "Z":
		// XY plane
		if position >= nz {
			return 0, 0, nil, fmt.Errorf("position %d exceeds depth %d", position, nz)
		}
		return nx, ny, func(i, j int) (int, int, int) { return i, j, position }, nil

	default:
		return 0, 0, nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice extracts a 2D slice of raw intensities along the specified
// axis.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray, error) {
	w, h, at, err := v.sliceAxes(axis, position)
	if err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			img.SetGray(i, j, color.Gray{Y: v.field.Sample(at(i, j))})
		}
	}
	return img, nil
}

// ExtractMask extracts a slice where samples at or above level (in [0,1])
// are white and the rest black, showing which side of the isosurface each
// voxel falls on.
func (v *Viewer) ExtractMask(axis string, position int, level float64) (*image.Gray, error) {
	w, h, at, err := v.sliceAxes(axis, position)
	if err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			if v.field.Normalized(at(i, j)) >= level {
				img.SetGray(i, j, color.Gray{Y: 255})
			}
		}
	}
	return img, nil
}

// ExtractRegion copies a 3D subregion of the field into a new field.
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*volume.Field, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	nx, ny, nz := v.field.Dims()
	if startX+sizeX > nx || startY+sizeY > ny || startZ+sizeZ > nz {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]byte, 0, sizeX*sizeY*sizeZ)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				region = append(region, v.field.Sample(startX+x, startY+y, startZ+z))
			}
		}
	}

	return volume.New(region, sizeX, sizeY, sizeZ)
}

// aspect returns the physical spacing of the image columns and rows of a
// slice along axis.
func (v *Viewer) aspect(axis string) (float64, float64) {
	switch axis {
	case "x", "X":
		return v.voxel.Z, v.voxel.Y
	case "y", "Y":
		return v.voxel.X, v.voxel.Z
	default:
		return v.voxel.X, v.voxel.Y
	}
}

// Physical stretches a slice so one pixel covers the same distance in both
// directions. Isotropic slices are returned unchanged.
func (v *Viewer) Physical(img image.Image, axis string) image.Image {
	sw, sh := v.aspect(axis)
	if sw == sh {
		return img
	}

	b := img.Bounds()
	unit := math.Min(sw, sh)
	w := uint(math.Round(float64(b.Dx()) * sw / unit))
	h := uint(math.Round(float64(b.Dy()) * sh / unit))
	return resize.Resize(w, h, img, resize.Bilinear)
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified
// axis, corrected to the physical voxel aspect.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	nx, ny, nz := v.field.Dims()
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = nx
	case "y", "Y":
		maxPos = ny
	case "z", "Z":
		maxPos = nz
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(v.Physical(img, axis), filename); err != nil {
			return err
		}
	}

	return nil
}
