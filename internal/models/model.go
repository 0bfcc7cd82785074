package models

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ModelName describes a headerless raw volume on disk together with the
// dimensions needed to read it. Raw files carry no header, so the sample
// counts travel with the path.
type ModelName struct {
	// Name is the dataset name, e.g. "Bonsai"
	Name string `yaml:"name"`

	// Path is where the raw samples live
	Path string `yaml:"path"`

	// X, Y, Z are the sample counts along each axis
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Volume holds the physical description of a loaded dataset.
type Volume struct {
	Model ModelName

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}
}

// Size returns the number of samples the raw file must contain.
func (m ModelName) Size() int {
	return m.X * m.Y * m.Z
}

// Filename returns the conventional file name Name_X_Y_Z.raw.
func (m ModelName) Filename() string {
	return fmt.Sprintf("%s_%d_%d_%d.raw", m.Name, m.X, m.Y, m.Z)
}

func (m ModelName) String() string {
	return fmt.Sprintf("%s (%dx%dx%d)", m.Name, m.X, m.Y, m.Z)
}

// ParseModelFilename extracts the dataset name and dimensions from a path
// following the Name_X_Y_Z.raw convention. The name itself may contain
// underscores; only the last three fields are read as dimensions.
func ParseModelFilename(path string) (ModelName, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "_")
	if len(parts) < 4 {
		return ModelName{}, fmt.Errorf("file name %q does not follow Name_X_Y_Z.raw", base)
	}

	var dims [3]int
	for i, field := range parts[len(parts)-3:] {
		n, err := strconv.Atoi(field)
		if err != nil {
			return ModelName{}, fmt.Errorf("file name %q: invalid dimension %q: %w", base, field, err)
		}
		if n <= 0 {
			return ModelName{}, fmt.Errorf("file name %q: dimension %d must be positive", base, n)
		}
		dims[i] = n
	}

	return ModelName{
		Name: strings.Join(parts[:len(parts)-3], "_"),
		Path: path,
		X:    dims[0],
		Y:    dims[1],
		Z:    dims[2],
	}, nil
}

// Catalog lists the datasets the viewer ships with.
var Catalog = []ModelName{
	{Name: "BostonTeapot", Path: "models/BostonTeapot_256_256_178.raw", X: 256, Y: 256, Z: 178},
	{Name: "Bonsai", Path: "models/Bonsai_512_512_154.raw", X: 512, Y: 512, Z: 154},
	{Name: "Bucky", Path: "models/Bucky_32_32_32.raw", X: 32, Y: 32, Z: 32},
	{Name: "Head", Path: "models/Head_256_256_225.raw", X: 256, Y: 256, Z: 225},
}

// LookupModel finds a catalog entry by name, ignoring case.
func LookupModel(name string) (ModelName, bool) {
	return lo.Find(Catalog, func(m ModelName) bool {
		return strings.EqualFold(m.Name, name)
	})
}

// CatalogNames returns the names of all catalog entries in order.
func CatalogNames() []string {
	return lo.Map(Catalog, func(m ModelName, _ int) string {
		return m.Name
	})
}
