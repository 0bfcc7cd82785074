package volume

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"isovolume/internal/models"
)

// writeRaw writes a raw volume to a temporary directory and returns its path
func writeRaw(t *testing.T, data []byte) string {
	path := filepath.Join(t.TempDir(), "Test_2_2_2.raw")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write raw file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	path := writeRaw(t, data)

	f, err := Load(path, 2, 2, 2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	nx, ny, nz := f.Dims()
	if nx != 2 || ny != 2 || nz != 2 {
		t.Errorf("Expected dims 2x2x2, got %dx%dx%d", nx, ny, nz)
	}
	if f.Len() != 8 {
		t.Errorf("Expected 8 samples, got %d", f.Len())
	}

	// index = z*Nx*Ny + y*Nx + x
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				want := byte(z*4 + y*2 + x)
				if got := f.Sample(x, y, z); got != want {
					t.Errorf("Sample(%d,%d,%d) = %d, want %d", x, y, z, got, want)
				}
			}
		}
	}

	if got := f.Normalized(1, 1, 1); math.Abs(got-7.0/255) > 1e-12 {
		t.Errorf("Normalized(1,1,1) = %f, want %f", got, 7.0/255)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.raw"), 2, 2, 2)
	var ioErr *models.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IOError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected the cause to be os.ErrNotExist, got %v", err)
	}
}

func TestLoadShortFile(t *testing.T) {
	path := writeRaw(t, []byte{1, 2, 3})

	f, err := Load(path, 2, 2, 2)
	if f != nil {
		t.Error("Short read must not return a partial field")
	}
	var ioErr *models.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IOError, got %v", err)
	}
	if ioErr.Path != path {
		t.Errorf("Expected path %q in error, got %q", path, ioErr.Path)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected io.ErrUnexpectedEOF cause, got %v", err)
	}
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(bytes.NewReader(nil), 2, 2, 2)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected io.ErrUnexpectedEOF for empty input, got %v", err)
	}
}

func TestReadIgnoresTrailingBytes(t *testing.T) {
	data := append(bytes.Repeat([]byte{9}, 8), 1, 2, 3)
	f, err := Read(bytes.NewReader(data), 2, 2, 2)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if f.Len() != 8 {
		t.Errorf("Expected 8 samples, got %d", f.Len())
	}
}

func TestDegenerateDims(t *testing.T) {
	for _, dims := range [][3]int{{1, 2, 2}, {2, 0, 2}, {2, 2, -3}} {
		_, err := New(make([]byte, 8), dims[0], dims[1], dims[2])
		var degenerate *models.DegenerateConfigurationError
		if !errors.As(err, &degenerate) {
			t.Errorf("New with dims %v: expected DegenerateConfigurationError, got %v", dims, err)
		}
	}
}

func TestNewCopiesAndValidates(t *testing.T) {
	data := make([]byte, 8)
	f, err := New(data, 2, 2, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	data[0] = 255
	if f.Sample(0, 0, 0) != 0 {
		t.Error("Field must not alias the caller's slice")
	}

	if _, err := New(make([]byte, 7), 2, 2, 2); err == nil {
		t.Error("Expected error for a sample count mismatch")
	}
}
