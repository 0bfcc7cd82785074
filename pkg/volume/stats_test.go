package volume

import (
	"math"
	"testing"
)

func TestStats(t *testing.T) {
	// Half the samples at 0, half at 200
	data := make([]byte, 4*4*4)
	for i := len(data) / 2; i < len(data); i++ {
		data[i] = 200
	}
	f, err := New(data, 4, 4, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s := f.Stats()
	if s.Min != 0 || s.Max != 200 {
		t.Errorf("Expected min 0 and max 200, got %d and %d", s.Min, s.Max)
	}
	if math.Abs(s.Mean-100) > 1e-9 {
		t.Errorf("Expected mean 100, got %f", s.Mean)
	}
	if math.Abs(s.Entropy-1) > 1e-9 {
		t.Errorf("Expected one bit of entropy, got %f", s.Entropy)
	}
	if s.StdDev <= 0 {
		t.Errorf("Expected positive standard deviation, got %f", s.StdDev)
	}

	hist := f.Histogram()
	if hist[0] != 32 || hist[200] != 32 {
		t.Errorf("Unexpected histogram counts %f and %f", hist[0], hist[200])
	}
}

func TestOtsuLevelSeparatesClasses(t *testing.T) {
	data := make([]byte, 8*8*8)
	for i := range data {
		if i%3 == 0 {
			data[i] = 180
		} else {
			data[i] = 20
		}
	}
	f, err := New(data, 8, 8, 8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	level := f.OtsuLevel()
	if level <= 20.0/255 || level >= 180.0/255 {
		t.Errorf("Expected a level between the two classes, got %f", level)
	}
}

func TestOtsuLevelUniformField(t *testing.T) {
	f, err := New(make([]byte, 8), 2, 2, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	level := f.OtsuLevel()
	if level < 0 || level > 1 {
		t.Errorf("Level out of range: %f", level)
	}
}
