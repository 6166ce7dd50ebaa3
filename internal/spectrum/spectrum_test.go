package spectrum

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestScalingClamp(t *testing.T) {
	s := New([]float64{1, 2}, []float64{10, 20})
	s.SetScaling(-3)
	if got := s.Scaling(); got != 0 {
		t.Errorf("Scaling() = %v, want 0 after negative set", got)
	}
	s.SetScaling(2)
	if got := s.Scaling(); got != 2 {
		t.Errorf("Scaling() = %v, want 2", got)
	}
}

func TestDataScalingAndOffset(t *testing.T) {
	s := New([]float64{1, 2, 3}, []float64{10, 20, 30})
	s.SetScaling(2)
	s.Offset = 5

	_, y, err := s.Data()
	if err != nil {
		t.Fatalf("Data() error: %v", err)
	}
	want := []float64{25, 45, 65}
	for i := range want {
		if y[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}

	// stored data must be untouched
	if s.RawY()[0] != 10 {
		t.Errorf("raw data mutated: %v", s.RawY())
	}
}

func TestBackgroundSameGrid(t *testing.T) {
	s := New([]float64{1, 2, 3}, []float64{10, 20, 30})
	s.Background = New([]float64{1, 2, 3}, []float64{1, 2, 3})

	_, y, err := s.Data()
	if err != nil {
		t.Fatalf("Data() error: %v", err)
	}
	want := []float64{9, 18, 27}
	for i := range want {
		if y[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}
}

func TestBackgroundInterpolated(t *testing.T) {
	s := New([]float64{1, 2, 3, 4}, []float64{10, 10, 10, 10})
	// background covers [1.5, 3.5] with constant 4
	s.Background = New([]float64{1.5, 3.5}, []float64{4, 4})

	x, y, err := s.Data()
	if err != nil {
		t.Fatalf("Data() error: %v", err)
	}
	if len(x) != 2 {
		t.Fatalf("len(x) = %d, want 2 (overlap region only)", len(x))
	}
	for i := range y {
		if !almostEqual(y[i], 6, 1e-12) {
			t.Errorf("y[%d] = %v, want 6", i, y[i])
		}
	}
}

func TestBackgroundNoOverlap(t *testing.T) {
	s := New([]float64{1, 2, 3}, []float64{10, 10, 10})
	s.Background = New([]float64{100, 200}, []float64{1, 1})

	_, _, err := s.Data()
	if !errors.Is(err, ErrBackgroundRange) {
		t.Errorf("Data() error = %v, want ErrBackgroundRange", err)
	}
}

func TestMaskedData(t *testing.T) {
	s := New([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
	s.Mask = []bool{true, false, true, false}

	x, y, err := s.MaskedData()
	if err != nil {
		t.Fatalf("MaskedData() error: %v", err)
	}
	if len(x) != 2 || x[0] != 1 || x[1] != 3 {
		t.Errorf("x = %v, want [1 3]", x)
	}
	if y[0] != 10 || y[1] != 30 {
		t.Errorf("y = %v, want [10 30]", y)
	}
}

func TestSmoothingPreservesConstant(t *testing.T) {
	n := 64
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
		y[i] = 7
	}
	s := New(x, y)
	s.Smoothing = 2.5

	_, sy, err := s.Data()
	if err != nil {
		t.Fatalf("Data() error: %v", err)
	}
	for i := range sy {
		if !almostEqual(sy[i], 7, 1e-9) {
			t.Fatalf("sy[%d] = %v, want 7 (constant must survive smoothing)", i, sy[i])
		}
	}
}

func TestSubInterpolatesOtherGrid(t *testing.T) {
	a := New([]float64{1, 2, 3}, []float64{10, 10, 10})
	b := New([]float64{0, 4}, []float64{2, 2})

	d, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub() error: %v", err)
	}
	_, y, err := d.Data()
	if err != nil {
		t.Fatalf("Data() error: %v", err)
	}
	for i := range y {
		if !almostEqual(y[i], 8, 1e-12) {
			t.Errorf("y[%d] = %v, want 8", i, y[i])
		}
	}
}

func TestReadDelimiters(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"comma", "500,12.5\n501,13.5\n"},
		{"semicolon", "500;12.5\n501;13.5\n"},
		{"tab", "500\t12.5\n501\t13.5\n"},
		{"space", "500 12.5\n501 13.5\n"},
		{"header", "# wavelength intensity\n500 12.5\n501 13.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Read(strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if s.Len() != 2 {
				t.Fatalf("Len() = %d, want 2", s.Len())
			}
			x, y := s.OriginalData()
			if x[0] != 500 || x[1] != 501 {
				t.Errorf("x = %v, want [500 501]", x)
			}
			if y[0] != 12.5 || y[1] != 13.5 {
				t.Errorf("y = %v, want [12.5 13.5]", y)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamp.txt")
	s := New([]float64{500, 600, 700}, []float64{1.5, 2.25, 3.125})
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	gx, gy := got.OriginalData()
	sx, sy := s.OriginalData()
	for i := range sx {
		if gx[i] != sx[i] || gy[i] != sy[i] {
			t.Errorf("sample %d = (%v, %v), want (%v, %v)", i, gx[i], gy[i], sx[i], sy[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("Load() of missing file succeeded, want error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want wrapped os.ErrNotExist", err)
	}
}
