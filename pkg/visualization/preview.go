package visualization

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"

	"isovolume/pkg/marching"
)

// PreviewOptions controls RenderPreview.
type PreviewOptions struct {
	// Width and Height of the output image in pixels
	Width, Height int

	// Supersample renders at this multiple of the output size before
	// downsampling, for antialiasing. Values below 1 mean 1.
	Supersample int

	// Eye is the camera position around the mesh, which is fitted into
	// the [-1,1] cube centered at the origin
	Eye r3.Vec

	// Color and Background are hex colors such as "#468966"
	Color, Background string
}

// DefaultPreviewOptions returns a three-quarter view at 800x600.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{
		Width:       800,
		Height:      600,
		Supersample: 2,
		Eye:         r3.Vec{X: 3, Y: 2, Z: 4},
		Color:       "#468966",
		Background:  "#FFF8E3",
	}
}

// ErrEmptyMesh is returned when there is nothing to render.
var ErrEmptyMesh = errors.New("mesh has no triangles")

func vector(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}

// PreviewMesh converts the mesh into a fauxgl mesh with smooth vertex
// normals.
func PreviewMesh(m *marching.Mesh) *fauxgl.Mesh {
	tris := make([]*fauxgl.Triangle, len(m.Triangles))
	for i := range m.Triangles {
		var v [3]fauxgl.Vertex
		for j, c := range m.Corners(i) {
			v[j] = fauxgl.Vertex{Position: vector(c.Position), Normal: vector(c.Normal)}
		}
		tris[i] = fauxgl.NewTriangle(v[0], v[1], v[2])
	}
	return fauxgl.NewTriangleMesh(tris)
}

// RenderPreview shades the mesh with a Phong shader and returns the image.
func RenderPreview(m *marching.Mesh, opts PreviewOptions) (image.Image, error) {
	if m.Len() == 0 {
		return nil, ErrEmptyMesh
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", opts.Width, opts.Height)
	}

	const (
		fovy = 30 // vertical field of view in degrees
		near = 1
		far  = 20
	)
	scale := max(opts.Supersample, 1)

	var (
		eye    = vector(opts.Eye)
		center = fauxgl.V(0, 0, 0)
		up     = fauxgl.V(0, 1, 0)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)

	mesh := PreviewMesh(m)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	context := fauxgl.NewContext(opts.Width*scale, opts.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(opts.Background))

	aspect := float64(opts.Width) / float64(opts.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, near, far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(opts.Color)
	context.Shader = shader
	context.DrawMesh(mesh)

	// downsample image for antialiasing
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePreview renders the mesh and writes it as a PNG file.
func SavePreview(m *marching.Mesh, path string, opts PreviewOptions) error {
	img, err := RenderPreview(m, opts)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}
