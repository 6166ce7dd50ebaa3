package frame

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
)

func writeTestFITS(t *testing.T, path string, width, height, frames int, cards []fitsio.Card, pixel func(f, y, x int) int16) {
	t.Helper()

	w, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test file: %v", err)
	}
	defer w.Close()

	fits, err := fitsio.Create(w)
	if err != nil {
		t.Fatalf("creating FITS: %v", err)
	}
	defer fits.Close()

	dims := []int{width, height}
	if frames > 1 {
		dims = append(dims, frames)
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	if err := im.Header().Append(cards...); err != nil {
		t.Fatalf("appending cards: %v", err)
	}

	data := make([]int16, width*height*frames)
	for f := 0; f < frames; f++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[(f*height+y)*width+x] = pixel(f, y, x)
			}
		}
	}
	if err := im.Write(data); err != nil {
		t.Fatalf("writing pixels: %v", err)
	}
	if err := fits.Write(im); err != nil {
		t.Fatalf("writing HDU: %v", err)
	}
}

func TestLoadFITS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.fits")
	cards := []fitsio.Card{
		{Name: "DETECTOR", Value: "PIXIS-256"},
		{Name: "EXPTIME", Value: 0.25},
		{Name: "GAIN", Value: 2},
		{Name: "CRVAL1", Value: 500.0},
		{Name: "CDELT1", Value: 0.5},
		{Name: "CRPIX1", Value: 1.0},
	}
	writeTestFITS(t, path, 8, 4, 1, cards, func(f, y, x int) int16 {
		return int16(100*y + x)
	})

	got, err := LoadFITS(path)
	if err != nil {
		t.Fatalf("LoadFITS() error: %v", err)
	}

	if got.NumFrames() != 1 {
		t.Errorf("NumFrames() = %d, want 1", got.NumFrames())
	}
	if w, h := got.Dimension(); w != 8 || h != 4 {
		t.Errorf("Dimension() = %dx%d, want 8x4", w, h)
	}
	if got.Detector != "PIXIS-256" {
		t.Errorf("Detector = %q, want PIXIS-256", got.Detector)
	}
	if got.ExposureTime != 0.25 {
		t.Errorf("ExposureTime = %v, want 0.25", got.ExposureTime)
	}
	if got.Gain != 2 {
		t.Errorf("Gain = %v, want 2", got.Gain)
	}

	if got.Planes[0][2][3] != 203 {
		t.Errorf("pixel (2,3) = %v, want 203", got.Planes[0][2][3])
	}

	// wavelength: 500 nm at the first column, 0.5 nm per column
	if math.Abs(got.Wavelength[0]-500) > 1e-12 || math.Abs(got.Wavelength[7]-503.5) > 1e-12 {
		t.Errorf("wavelength = [%v ... %v], want [500 ... 503.5]", got.Wavelength[0], got.Wavelength[7])
	}
}

func TestLoadFITSMultiFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.fits")
	writeTestFITS(t, path, 4, 3, 5, nil, func(f, y, x int) int16 {
		return int16(1000*f + 10*y + x)
	})

	got, err := LoadFITS(path)
	if err != nil {
		t.Fatalf("LoadFITS() error: %v", err)
	}
	if got.NumFrames() != 5 {
		t.Fatalf("NumFrames() = %d, want 5", got.NumFrames())
	}
	if got.Planes[3][1][2] != 3012 {
		t.Errorf("frame 3 pixel (1,2) = %v, want 3012", got.Planes[3][1][2])
	}

	// no WCS cards: wavelength falls back to pixel indices
	if got.Wavelength[0] != 0 || got.Wavelength[3] != 3 {
		t.Errorf("wavelength = %v, want pixel indices", got.Wavelength)
	}
}

func TestPlaneClamping(t *testing.T) {
	f := &Frame{Planes: [][][]float64{{{1}}, {{2}}, {{3}}}}
	if got := f.Plane(-1)[0][0]; got != 1 {
		t.Errorf("Plane(-1) = %v, want first plane", got)
	}
	if got := f.Plane(99)[0][0]; got != 3 {
		t.Errorf("Plane(99) = %v, want last plane", got)
	}
}

func TestCalibrationSourceSingleFrame(t *testing.T) {
	f := &Frame{Planes: [][][]float64{
		{{1, 1}, {1, 1}},
		{{5, 5}, {5, 5}},
	}}

	img := SingleFrame(f, 1).Resolve()
	if img[0][0] != 5 {
		t.Errorf("resolved pixel = %v, want 5", img[0][0])
	}
}

func TestCalibrationSourceRangeAverages(t *testing.T) {
	f := &Frame{Planes: [][][]float64{
		{{2, 4}},
		{{4, 8}},
		{{6, 12}},
		{{100, 100}},
	}}

	img := FrameRange(f, 0, 2).Resolve()
	if img[0][0] != 4 || img[0][1] != 8 {
		t.Errorf("averaged row = %v, want [4 8]", img[0])
	}

	// reversed bounds normalize
	img = FrameRange(f, 2, 0).Resolve()
	if img[0][0] != 4 {
		t.Errorf("averaged pixel = %v, want 4 with reversed bounds", img[0][0])
	}

	// out-of-range bounds clamp
	img = FrameRange(f, -5, 99).Resolve()
	if img[0][0] != 28 {
		t.Errorf("averaged pixel = %v, want 28 with clamped bounds", img[0][0])
	}
}

func TestCalibrationSourceZeroValue(t *testing.T) {
	var s CalibrationSource
	if img := s.Resolve(); img != nil {
		t.Errorf("zero source resolved to %v, want nil", img)
	}
}
