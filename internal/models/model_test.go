package models

import (
	"errors"
	"io"
	"testing"
)

func TestParseModelFilename(t *testing.T) {
	tests := []struct {
		path    string
		want    ModelName
		wantErr bool
	}{
		{"models/Bonsai_512_512_154.raw", ModelName{Name: "Bonsai", Path: "models/Bonsai_512_512_154.raw", X: 512, Y: 512, Z: 154}, false},
		{"Boston_Teapot_256_256_178.raw", ModelName{Name: "Boston_Teapot", Path: "Boston_Teapot_256_256_178.raw", X: 256, Y: 256, Z: 178}, false},
		{"head.raw", ModelName{}, true},
		{"Head_256_x_225.raw", ModelName{}, true},
		{"Head_256_0_225.raw", ModelName{}, true},
	}

	for _, tt := range tests {
		got, err := ParseModelFilename(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseModelFilename(%q) expected error, got %v", tt.path, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseModelFilename(%q) unexpected error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModelFilename(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	m := ModelName{Name: "Bucky", X: 32, Y: 32, Z: 32}
	if m.Filename() != "Bucky_32_32_32.raw" {
		t.Fatalf("unexpected file name %q", m.Filename())
	}
	parsed, err := ParseModelFilename(m.Filename())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.X != m.X || parsed.Y != m.Y || parsed.Z != m.Z || parsed.Name != m.Name {
		t.Errorf("round trip mismatch: %+v vs %+v", parsed, m)
	}
	if m.Size() != 32*32*32 {
		t.Errorf("expected size %d, got %d", 32*32*32, m.Size())
	}
}

func TestLookupModel(t *testing.T) {
	m, ok := LookupModel("bucky")
	if !ok {
		t.Fatal("expected to find Bucky in the catalog")
	}
	if m.X != 32 || m.Y != 32 || m.Z != 32 {
		t.Errorf("unexpected Bucky dimensions %+v", m)
	}

	if _, ok := LookupModel("Sponge"); ok {
		t.Error("did not expect to find an unknown model")
	}

	names := CatalogNames()
	if len(names) != len(Catalog) || names[0] != "BostonTeapot" {
		t.Errorf("unexpected catalog names %v", names)
	}
}

func TestErrorKinds(t *testing.T) {
	err := error(&IOError{Path: "a.raw", Err: io.ErrUnexpectedEOF})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("IOError should unwrap to its cause")
	}

	var degenerate *DegenerateConfigurationError
	if !errors.As(Degenerate("cuts must be at least %d", 2), &degenerate) {
		t.Fatal("Degenerate should build a DegenerateConfigurationError")
	}
	if degenerate.Reason != "cuts must be at least 2" {
		t.Errorf("unexpected reason %q", degenerate.Reason)
	}
}
