// Package pyrometer assembles the full inference pipeline: per-channel
// reduction, calibration and fitting, and the two-channel experiment that
// produces run log records and bulk per-frame temperature series.
package pyrometer

import (
	"fmt"

	"github.com/radiant-lab/pyrometry/internal/fit"
	"github.com/radiant-lab/pyrometry/internal/frame"
	"github.com/radiant-lab/pyrometry/internal/oscfilter"
	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/roi"
	"github.com/radiant-lab/pyrometry/internal/spectrum"
)

// CorrectionConfig selects which in-situ corrections are applied when a
// channel recomputes its spectra.
type CorrectionConfig struct {
	// UseDataBackground subtracts the background region spectrum from the
	// measurement.
	UseDataBackground bool

	// UseCalibrationBackground subtracts the background region spectrum from
	// the calibration image.
	UseCalibrationBackground bool

	// FilterOscillation band-stop filters etalon fringes out of the
	// corrected spectrum.
	FilterOscillation bool
}

// FitFunction selects the temperature estimator.
type FitFunction int

const (
	FitPlanck FitFunction = iota
	FitWien
)

func (f FitFunction) String() string {
	switch f {
	case FitWien:
		return "wien"
	default:
		return "planck"
	}
}

// ParseFitFunction maps a configuration string to a FitFunction.
func ParseFitFunction(s string) (FitFunction, error) {
	switch s {
	case "planck", "":
		return FitPlanck, nil
	case "wien":
		return FitWien, nil
	default:
		return 0, fmt.Errorf("unknown fit function %q", s)
	}
}

// Channel is one spectrometer channel (downstream or upstream): a signal and
// background region on the detector, a calibration lamp model, and the
// derived spectra and fit result. State changes are cheap; Refresh runs the
// pipeline.
type Channel struct {
	slot int
	rois *roi.Manager

	// Calibration models the lamp of this channel.
	Calibration *radiometry.CalibrationParameter

	// CalibrationFilename remembers where the calibration image came from,
	// for settings round-trips and display.
	CalibrationFilename string

	correction CorrectionConfig
	fitFunc    FitFunction
	filter     *oscfilter.Filter

	dataImg        [][]float64
	dataWavelength []float64

	calImg        [][]float64
	calWavelength []float64

	data      *spectrum.Spectrum
	cal       *spectrum.Spectrum
	corrected *spectrum.Spectrum
	response  *spectrum.Spectrum

	roiMax      float64
	totalCounts float64
	result      fit.Result
	filterBand  oscfilter.Band
	filterErr   error
}

// NewChannel creates a channel reading the signal region in the given
// manager slot (roi.Downstream or roi.Upstream); the background region lives
// two slots above.
func NewChannel(slot int, rois *roi.Manager) *Channel {
	return &Channel{
		slot:        slot,
		rois:        rois,
		Calibration: radiometry.NewCalibrationParameter(),
		filter:      oscfilter.New(oscfilter.DefaultConfig()),
		data:        spectrum.New(nil, nil),
		cal:         spectrum.New(nil, nil),
		corrected:   spectrum.New(nil, nil),
		response:    spectrum.New(nil, nil),
		result:      fit.NotAttempted(),
	}
}

// SetData replaces the measurement image and its wavelength axis.
func (c *Channel) SetData(img [][]float64, wavelength []float64) {
	c.dataImg = img
	c.dataWavelength = wavelength
}

// SetCalibration resolves the calibration source into an image and stores it
// with its wavelength axis.
func (c *Channel) SetCalibration(src frame.CalibrationSource, wavelength []float64) {
	c.calImg = src.Resolve()
	c.calWavelength = wavelength
}

// SetCalibrationImage stores an already resolved calibration image and its
// wavelength axis.
func (c *Channel) SetCalibrationImage(img [][]float64, wavelength []float64) {
	c.calImg = img
	c.calWavelength = wavelength
}

// CalibrationImage returns the resolved calibration image and its axis.
func (c *Channel) CalibrationImage() ([][]float64, []float64) {
	return c.calImg, c.calWavelength
}

// ResetCalibration drops the calibration image; the channel then fits raw
// reduced spectra without response correction.
func (c *Channel) ResetCalibration() {
	c.calImg = nil
	c.calWavelength = nil
	c.CalibrationFilename = ""
}

// SetCorrection selects the in-situ corrections applied on the next Refresh.
func (c *Channel) SetCorrection(cfg CorrectionConfig) { c.correction = cfg }

// Correction returns the active correction configuration.
func (c *Channel) Correction() CorrectionConfig { return c.correction }

// SetFitFunction selects the temperature estimator.
func (c *Channel) SetFitFunction(f FitFunction) { c.fitFunc = f }

// FitFunction returns the active estimator.
func (c *Channel) FitFunction() FitFunction { return c.fitFunc }

// DataSpectrum returns the reduced measurement spectrum of the last Refresh.
func (c *Channel) DataSpectrum() *spectrum.Spectrum { return c.data }

// CalibrationSpectrum returns the reduced calibration spectrum of the last
// Refresh.
func (c *Channel) CalibrationSpectrum() *spectrum.Spectrum { return c.cal }

// CorrectedSpectrum returns the response-corrected spectrum of the last
// Refresh.
func (c *Channel) CorrectedSpectrum() *spectrum.Spectrum { return c.corrected }

// Response returns the instrument response of the last Refresh.
func (c *Channel) Response() *spectrum.Spectrum { return c.response }

// Result returns the fit outcome of the last Refresh.
func (c *Channel) Result() fit.Result { return c.result }

// RoiMax returns the largest pixel value inside the signal region.
func (c *Channel) RoiMax() float64 { return c.roiMax }

// TotalCounts returns the integrated measurement spectrum.
func (c *Channel) TotalCounts() float64 { return c.totalCounts }

// FilterBand returns the stop band of the last oscillation filtering, and
// the error if filtering was requested but failed. A failed filter leaves
// the corrected spectrum unfiltered.
func (c *Channel) FilterBand() (oscfilter.Band, error) { return c.filterBand, c.filterErr }

// Refresh recomputes the pipeline from the stored images: measurement
// reduction, calibration reduction, response correction, optional fringe
// filtering, and the temperature fit.
func (c *Channel) Refresh() {
	c.refreshData()
	c.refreshCalibration()
	c.refreshCorrected()
	c.refreshFit()
}

func (c *Channel) refreshData() {
	c.data, c.roiMax = c.reduce(c.dataImg, c.dataWavelength, c.correction.UseDataBackground)
	c.totalCounts = c.data.Counts()
}

func (c *Channel) refreshCalibration() {
	c.cal, _ = c.reduce(c.calImg, c.calWavelength, c.correction.UseCalibrationBackground)
}

// reduce collapses an image to the signal-region spectrum, with the
// saturation mask, and optionally subtracts the background-region spectrum.
// The background region borrows the signal region wavelength bounds so both
// reductions align column by column.
func (c *Channel) reduce(img [][]float64, wavelength []float64, subtractBackground bool) (*spectrum.Spectrum, float64) {
	if len(img) == 0 || len(img[0]) == 0 || len(wavelength) < len(img[0]) {
		return spectrum.New(nil, nil), 0
	}
	width, height := len(img[0]), len(img)

	signal := c.rois.Roi(c.slot, width, height)
	y := roi.ColumnSum(img, signal)
	if len(y) == 0 {
		return spectrum.New(nil, nil), 0
	}

	if subtractBackground {
		bg := c.rois.Roi(c.slot+2, width, height)
		bg.XMin, bg.XMax = signal.XMin, signal.XMax
		if by := roi.ColumnSum(img, bg); len(by) == len(y) {
			for i := range y {
				y[i] -= by[i]
			}
		}
	}

	x := append([]float64(nil), wavelength[signal.XMin:signal.XMax+1]...)
	s := spectrum.New(x, y)
	s.Mask = roi.ColumnsWithinLimit(img, signal, roi.SaturationLimit)
	return s, roi.Max(img, signal)
}

func (c *Channel) refreshCorrected() {
	c.filterErr = nil
	c.filterBand = oscfilter.Band{}

	if c.data.Len() == 0 {
		c.corrected = spectrum.New(nil, nil)
		c.response = spectrum.New(nil, nil)
		return
	}

	switch {
	case len(c.calImg) == 0:
		// no calibration configured: fit the raw reduction
		x, y := c.data.OriginalData()
		c.corrected = spectrum.New(x, y)
		c.corrected.Mask = c.data.Mask
		c.response = spectrum.New(nil, nil)
	case c.cal.Len() != c.data.Len():
		// a calibration is configured but its grid does not match the
		// data; an uncorrected fit would report a wrong temperature as
		// valid, so nothing is fit
		c.corrected = spectrum.New(nil, nil)
		c.response = spectrum.New(nil, nil)
		return
	default:
		lamp := c.Calibration.LampSpectrum(c.data.RawX())
		c.corrected, c.response = radiometry.Correct(c.data, c.cal, lamp)
		c.corrected.Mask = c.data.Mask
	}

	if c.correction.FilterOscillation {
		filtered, band, err := c.filter.Apply(c.corrected.RawX(), c.corrected.RawY())
		if err != nil {
			c.filterErr = err
			return
		}
		s := spectrum.New(c.corrected.RawX(), filtered)
		s.Mask = c.corrected.Mask
		c.corrected = s
		c.filterBand = band
	}
}

func (c *Channel) refreshFit() {
	if !fit.Fittable(c.corrected, c.data.RawY()) {
		c.result = fit.NotAttempted()
		return
	}
	switch c.fitFunc {
	case FitWien:
		c.result = fit.Wien(c.corrected)
	default:
		c.result = fit.Planck(c.corrected)
	}
}

// TwoColor computes the wavelength-resolved two-color temperature of the
// corrected spectrum. It returns nil series when the spectrum is below the
// fitting thresholds.
func (c *Channel) TwoColor() (lambdaNm, tempK []float64) {
	if !fit.Fittable(c.corrected, c.data.RawY()) {
		return nil, nil
	}
	return fit.TwoColor(c.corrected.RawX(), c.corrected.RawY())
}
