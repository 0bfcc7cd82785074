package visualization

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"

	"isovolume/pkg/grid"
	"isovolume/pkg/interpolation"
	"isovolume/pkg/marching"
)

func sphereMesh(t *testing.T, size int) *marching.Mesh {
	c := float64(size-1) / 2
	f := createTestField(t, size, size, size, func(x, y, z int) byte {
		d := math.Sqrt((float64(x)-c)*(float64(x)-c) + (float64(y)-c)*(float64(y)-c) + (float64(z)-c)*(float64(z)-c))
		return byte(math.Max(0, 255-d*255/float64(size)*2))
	})
	g, err := grid.Build(interpolation.FromField(f))
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	s := 1 / float64(size)
	m, err := marching.Triangulate(g, 0.5, r3.Vec{X: s, Y: s, Z: s})
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if m.Len() == 0 {
		t.Fatal("Expected a sphere surface")
	}
	return m
}

func TestPreviewMesh(t *testing.T) {
	m := sphereMesh(t, 12)
	mesh := PreviewMesh(m)
	if len(mesh.Triangles) != m.Len() {
		t.Errorf("Expected %d triangles, got %d", m.Len(), len(mesh.Triangles))
	}
}

func TestRenderPreview(t *testing.T) {
	m := sphereMesh(t, 12)

	opts := DefaultPreviewOptions()
	opts.Width, opts.Height = 160, 120

	img, err := RenderPreview(m, opts)
	if err != nil {
		t.Fatalf("RenderPreview failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
		t.Fatalf("Expected 160x120 image, got %dx%d", b.Dx(), b.Dy())
	}

	// The sphere covers the image centre, the corner stays background
	cr, cg, cb, _ := img.At(80, 60).RGBA()
	br, bg, bb, _ := img.At(0, 0).RGBA()
	if cr == br && cg == bg && cb == bb {
		t.Error("Image centre has the background color, mesh was not drawn")
	}

	// Rendering is deterministic
	again, err := RenderPreview(m, opts)
	if err != nil {
		t.Fatalf("RenderPreview failed: %v", err)
	}
	var b1, b2 bytes.Buffer
	if err := png.Encode(&b1, img); err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(&b2, again); err != nil {
		t.Fatal(err)
	}
	equal, err := cmpimg.EqualApprox("png", b1.Bytes(), b2.Bytes(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("Two renders of the same mesh differ")
	}
}

func TestRenderPreviewErrors(t *testing.T) {
	empty := &marching.Mesh{}
	if _, err := RenderPreview(empty, DefaultPreviewOptions()); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Expected ErrEmptyMesh, got %v", err)
	}

	opts := DefaultPreviewOptions()
	opts.Width = 0
	if _, err := RenderPreview(sphereMesh(t, 8), opts); err == nil {
		t.Error("Expected error for zero width")
	}
}

func TestSavePreview(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	opts := DefaultPreviewOptions()
	opts.Width, opts.Height, opts.Supersample = 64, 48, 1

	path := filepath.Join(t.TempDir(), "preview.png")
	if err := SavePreview(sphereMesh(t, 10), path, opts); err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}
	assertImageSize(t, path, 64, 48)
}
