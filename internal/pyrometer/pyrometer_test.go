package pyrometer

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/radiant-lab/pyrometry/internal/frame"
	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/roi"
	"github.com/radiant-lab/pyrometry/internal/spectrum"
	"gonum.org/v1/gonum/floats"
)

const (
	testWidth  = 300
	testHeight = 60
)

// synthetic detector geometry: signal rows 20..39, background rows 0..19
var (
	testSignalRoi     = [4]int{0, testWidth - 1, 20, 39}
	testBackgroundRoi = [4]int{0, testWidth - 1, 0, 19}
)

func testWavelength() []float64 {
	wl := make([]float64, testWidth)
	floats.Span(wl, 500, 900)
	return wl
}

func testResponse(wl []float64) []float64 {
	out := make([]float64, len(wl))
	for i, w := range wl {
		out[i] = 0.6 + 0.3*math.Sin(w/50)
	}
	return out
}

// emissionImage builds a detector readout: the signal rows carry a black
// body at temp seen through the instrument response, all rows carry a
// constant offset of 5 counts.
func emissionImage(wl []float64, temp float64) [][]float64 {
	resp := testResponse(wl)
	bb := radiometry.BlackBody(wl, temp, 1e-11)

	img := make([][]float64, testHeight)
	for y := range img {
		img[y] = make([]float64, testWidth)
		for x := range img[y] {
			img[y][x] = 5
			if y >= 20 && y <= 39 {
				img[y][x] += bb[x] * resp[x] / 20
			}
		}
	}
	return img
}

// lampImage builds the matching calibration readout: the signal rows carry
// the default 2000 K lamp through the same response.
func lampImage(wl []float64) [][]float64 {
	resp := testResponse(wl)
	lamp := radiometry.NewCalibrationParameter().LampY(wl)

	img := make([][]float64, testHeight)
	for y := range img {
		img[y] = make([]float64, testWidth)
		for x := range img[y] {
			img[y][x] = 5
			if y >= 20 && y <= 39 {
				// scaled to a few thousand counts like a real lamp exposure
				img[y][x] += 5000 * lamp[x] * resp[x] / 20
			}
		}
	}
	return img
}

func newTestChannel() *Channel {
	rois := roi.NewManager(testWidth, testHeight)
	rois.SetRoi(roi.Downstream, roi.NewRoi(testSignalRoi))
	rois.SetRoi(roi.DownstreamBackground, roi.NewRoi(testBackgroundRoi))
	return NewChannel(roi.Downstream, rois)
}

func TestChannelRecoversTemperature(t *testing.T) {
	const temp = 2800.0
	wl := testWavelength()

	c := newTestChannel()
	c.SetCorrection(CorrectionConfig{UseDataBackground: true, UseCalibrationBackground: true})
	c.SetData(emissionImage(wl, temp), wl)
	c.SetCalibrationImage(lampImage(wl), wl)
	c.Refresh()

	res := c.Result()
	if !res.Attempted() || res.Failed() {
		t.Fatalf("fit state attempted=%v failed=%v, want successful fit", res.Attempted(), res.Failed())
	}
	if math.Abs(res.Temperature-temp) > 10 {
		t.Errorf("T = %v, want %v +- 10", res.Temperature, temp)
	}
	if c.TotalCounts() <= 0 {
		t.Errorf("TotalCounts = %v, want positive", c.TotalCounts())
	}
	if c.Response().Len() != testWidth {
		t.Errorf("response length = %d, want %d", c.Response().Len(), testWidth)
	}
}

func TestChannelWithoutCalibrationFitsRawSpectrum(t *testing.T) {
	wl := testWavelength()

	c := newTestChannel()
	c.SetCorrection(CorrectionConfig{UseDataBackground: true})
	c.SetData(emissionImage(wl, 2800), wl)
	c.Refresh()

	if c.Response().Len() != 0 {
		t.Errorf("response length = %d, want 0 without calibration", c.Response().Len())
	}
	// corrected equals the reduced data spectrum
	if c.CorrectedSpectrum().Len() != c.DataSpectrum().Len() {
		t.Errorf("corrected length = %d, want %d", c.CorrectedSpectrum().Len(), c.DataSpectrum().Len())
	}
	cy := c.CorrectedSpectrum().RawY()
	dy := c.DataSpectrum().RawY()
	for i := range cy {
		if cy[i] != dy[i] {
			t.Fatalf("corrected[%d] = %v, want raw %v", i, cy[i], dy[i])
		}
	}
}

func TestChannelMismatchedCalibrationFitsNothing(t *testing.T) {
	wl := testWavelength()

	// a calibration image narrower than the data reduces to a spectrum on a
	// different grid; the channel must refuse to fit rather than silently
	// fall back to the uncorrected reduction
	narrow := make([][]float64, testHeight)
	for y := range narrow {
		narrow[y] = make([]float64, testWidth/2)
		for x := range narrow[y] {
			narrow[y][x] = 100
		}
	}

	c := newTestChannel()
	c.SetData(emissionImage(wl, 2800), wl)
	c.SetCalibrationImage(narrow, wl[:testWidth/2])
	c.Refresh()

	if c.CorrectedSpectrum().Len() != 0 {
		t.Errorf("corrected length = %d, want 0 on mismatched calibration grid", c.CorrectedSpectrum().Len())
	}
	if res := c.Result(); res.Attempted() {
		t.Errorf("fit attempted on mismatched calibration grid, result = %+v", res)
	}
}

func TestChannelBackgroundSubtraction(t *testing.T) {
	wl := testWavelength()

	c := newTestChannel()
	c.SetData(emissionImage(wl, 2800), wl)

	c.SetCorrection(CorrectionConfig{})
	c.Refresh()
	withOffset := c.DataSpectrum().RawY()[0]

	c.SetCorrection(CorrectionConfig{UseDataBackground: true})
	c.Refresh()
	subtracted := c.DataSpectrum().RawY()[0]

	// 20 signal rows carry a 5-count offset, 20 background rows measure it
	if math.Abs(withOffset-subtracted-100) > 1e-9 {
		t.Errorf("offset difference = %v, want 100", withOffset-subtracted)
	}
}

func TestChannelSaturationMask(t *testing.T) {
	wl := testWavelength()
	img := emissionImage(wl, 2800)
	img[25][150] = roi.SaturationLimit + 10

	c := newTestChannel()
	c.SetData(img, wl)
	c.Refresh()

	mask := c.DataSpectrum().Mask
	if mask == nil {
		t.Fatal("no saturation mask")
	}
	if mask[150] {
		t.Error("saturated column 150 not masked")
	}
	if !mask[149] || !mask[151] {
		t.Error("unsaturated neighbor columns masked")
	}
}

func TestChannelTwoColor(t *testing.T) {
	wl := testWavelength()

	c := newTestChannel()
	c.SetCorrection(CorrectionConfig{UseDataBackground: true, UseCalibrationBackground: true})
	c.SetData(emissionImage(wl, 2800), wl)
	c.SetCalibrationImage(lampImage(wl), wl)
	c.Refresh()

	lambda, temps := c.TwoColor()
	if len(lambda) != 1024-150 {
		t.Fatalf("series length = %d, want %d", len(lambda), 1024-150)
	}
	// the central region must sit near the true temperature; edges may
	// suffer from interpolation of the response division
	mid := temps[len(temps)/2]
	if math.Abs(mid-2800)/2800 > 0.05 {
		t.Errorf("central two-color T = %v, want within 5%% of 2800", mid)
	}
}

func newTestExperiment(planes ...[][]float64) *Experiment {
	wl := testWavelength()
	e := NewExperiment(testWidth, testHeight)
	e.Rois.SetRoi(roi.Downstream, roi.NewRoi(testSignalRoi))
	e.Rois.SetRoi(roi.DownstreamBackground, roi.NewRoi(testBackgroundRoi))
	e.Rois.SetRoi(roi.Upstream, roi.NewRoi(testSignalRoi))
	e.Rois.SetRoi(roi.UpstreamBackground, roi.NewRoi(testBackgroundRoi))

	e.SetCorrection(CorrectionConfig{UseDataBackground: true, UseCalibrationBackground: true})
	cal := lampImage(wl)
	for _, c := range e.Channels() {
		c.SetCalibrationImage(cal, wl)
	}

	e.SetFrame(&frame.Frame{
		Planes:       planes,
		Wavelength:   wl,
		Detector:     "PIXIS-256",
		ExposureTime: 0.5,
		Gain:         2,
		Filename:     filepath.Join("/data/heating", "run_0042.fits"),
	})
	return e
}

func TestExperimentRecord(t *testing.T) {
	wl := testWavelength()
	e := newTestExperiment(emissionImage(wl, 2800))
	e.Refresh()

	r := e.Record()
	if r.File != "run_0042.fits" || r.Path != "/data/heating" {
		t.Errorf("file/path = %q/%q", r.File, r.Path)
	}
	if r.Detector != "PIXIS-256" || r.ExposureTime != 0.5 || r.Gain != 2 {
		t.Errorf("metadata = %+v", r)
	}
	if math.Abs(r.TDS-2800) > 10 || math.Abs(r.TUS-2800) > 10 {
		t.Errorf("temperatures = %v/%v, want ~2800", r.TDS, r.TUS)
	}
	if r.CountsDS <= 0 || r.CountsUS <= 0 {
		t.Errorf("counts = %v/%v, want positive", r.CountsDS, r.CountsUS)
	}
}

func TestFitAllFrames(t *testing.T) {
	wl := testWavelength()
	dark := make([][]float64, testHeight)
	for y := range dark {
		dark[y] = make([]float64, testWidth)
	}

	e := newTestExperiment(emissionImage(wl, 2800), dark, emissionImage(wl, 3000))
	e.SetFrameIndex(2)

	var calls int
	series, err := e.FitAllFrames(context.Background(), func(done, total int) {
		calls++
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("FitAllFrames() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("progress calls = %d, want 3", calls)
	}

	if math.Abs(series.TDS[0]-2800) > 10 {
		t.Errorf("frame 0 TDS = %v, want ~2800", series.TDS[0])
	}
	if series.TDS[1] != 0 || series.TDSError[1] != 0 {
		t.Errorf("dark frame = %v/%v, want 0/0 (count gate)", series.TDS[1], series.TDSError[1])
	}
	if math.Abs(series.TDS[2]-3000) > 10 {
		t.Errorf("frame 2 TDS = %v, want ~3000", series.TDS[2])
	}

	if e.FrameIndex() != 2 {
		t.Errorf("frame index = %d, want restored 2", e.FrameIndex())
	}
}

func TestFitAllFramesCancellation(t *testing.T) {
	wl := testWavelength()
	e := newTestExperiment(emissionImage(wl, 2800), emissionImage(wl, 2900))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.FitAllFrames(ctx, nil)
	if err != context.Canceled {
		t.Errorf("FitAllFrames() error = %v, want context.Canceled", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	wl := testWavelength()
	e := newTestExperiment(emissionImage(wl, 2800))
	e.SetFitFunction(FitWien)
	e.SetErrorLimit(321)
	e.Downstream.CalibrationFilename = "lamp_ds.fits"
	e.Upstream.Calibration.SetModus(radiometry.ModusStandard)
	e.Upstream.Calibration.SetTemperature(1973)
	e.Upstream.Calibration.SetStandardSpectrum(spectrum.New([]float64{500, 700}, []float64{1, 2}))
	e.Upstream.Calibration.StandardFileName = "w_lamp.txt"
	e.Refresh()

	path := filepath.Join(t.TempDir(), "settings.json")
	if err := e.SaveSettings(path); err != nil {
		t.Fatalf("SaveSettings() error: %v", err)
	}

	got := NewExperiment(testWidth, testHeight)
	if err := got.LoadSettings(path); err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}

	if got.Downstream.FitFunction() != FitWien {
		t.Errorf("fit function = %v, want wien", got.Downstream.FitFunction())
	}
	if got.ErrorLimit() != 321 {
		t.Errorf("error limit = %v, want 321", got.ErrorLimit())
	}
	if got.Rois.List() != e.Rois.List() {
		t.Errorf("rois = %v, want %v", got.Rois.List(), e.Rois.List())
	}
	if got.Downstream.CalibrationFilename != "lamp_ds.fits" {
		t.Errorf("calibration file = %q", got.Downstream.CalibrationFilename)
	}
	if got.Upstream.Calibration.Modus() != radiometry.ModusStandard {
		t.Errorf("modus = %v, want standard", got.Upstream.Calibration.Modus())
	}
	if got.Upstream.Calibration.Temperature() != 1973 {
		t.Errorf("temperature = %v, want 1973", got.Upstream.Calibration.Temperature())
	}
	sx, sy := got.Upstream.Calibration.StandardSpectrum().OriginalData()
	if len(sx) != 2 || sx[1] != 700 || sy[1] != 2 {
		t.Errorf("standard spectrum = %v/%v", sx, sy)
	}
	if !got.Downstream.Correction().UseDataBackground {
		t.Error("data background flag lost")
	}

	// the embedded calibration image must make the restored experiment
	// reproduce the original fit
	got.SetFrame(e.Frame())
	got.Refresh()
	want := e.Downstream.Result()
	if gotRes := got.Downstream.Result(); math.Abs(gotRes.Temperature-want.Temperature) > 1e-6 {
		t.Errorf("restored T = %v, want %v", gotRes.Temperature, want.Temperature)
	}
}

func TestSetWavelengthRange(t *testing.T) {
	wl := testWavelength()
	e := newTestExperiment(emissionImage(wl, 2800))

	e.SetWavelengthRange(600, 800)
	min, max := e.WavelengthRange()
	if math.Abs(min-600) > 1.5 || math.Abs(max-800) > 1.5 {
		t.Errorf("range = [%v, %v], want ~[600, 800]", min, max)
	}

	// all four regions share the new bounds
	limits := e.Rois.List()
	for slot, l := range limits {
		if l[0] != limits[0][0] || l[1] != limits[0][1] {
			t.Errorf("slot %d bounds = %v, want shared x bounds", slot, l)
		}
	}
}

func TestWavelengthRangeShortAxis(t *testing.T) {
	// a wavelength axis shorter than the image width must clamp, not panic
	short := make([]float64, 100)
	floats.Span(short, 500, 700)

	e := NewExperiment(testWidth, testHeight)
	e.Rois.SetRoi(roi.Downstream, roi.NewRoi([4]int{150, testWidth - 1, 20, 39}))
	e.SetFrame(&frame.Frame{
		Planes:     [][][]float64{emissionImage(testWavelength(), 2800)},
		Wavelength: short,
	})

	min, max := e.WavelengthRange()
	if min != short[99] || max != short[99] {
		t.Errorf("range = [%v, %v], want both clamped to %v", min, max, short[99])
	}
}
