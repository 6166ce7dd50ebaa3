// Package fit estimates sample temperatures from corrected thermal emission
// spectra: a nonlinear Planck fit, a linearized Wien fit, and the wavelength-
// resolved two-color estimator.
package fit

import (
	"math"

	"github.com/radiant-lab/pyrometry/internal/spectrum"
)

// Quality thresholds below which a spectrum is not worth fitting.
const (
	minValidSamples = 20
	minMeanCounts   = 3.0
)

// Result is the outcome of one temperature fit.
//
// Three states are distinguished: a successful fit carries finite values and
// the fitted model curve; a failed fit carries NaN temperatures and an empty
// curve; a fit that was never attempted (input below the quality thresholds)
// carries zero temperatures and an empty curve.
type Result struct {
	// Temperature and its one-sigma (Planck) or 95% confidence (Wien)
	// uncertainty, in kelvin.
	Temperature      float64
	TemperatureError float64

	// Spectrum is the fitted model curve on the data wavelength axis.
	Spectrum *spectrum.Spectrum

	// Scaling is the fitted black-body scale factor. NaN for fits without a
	// scale parameter.
	Scaling float64
}

// NotAttempted returns the sentinel result for spectra that never reached
// the fitting stage.
func NotAttempted() Result {
	return Result{Spectrum: spectrum.New(nil, nil), Scaling: math.NaN()}
}

func failed() Result {
	return Result{
		Temperature:      math.NaN(),
		TemperatureError: math.NaN(),
		Spectrum:         spectrum.New(nil, nil),
		Scaling:          math.NaN(),
	}
}

// Attempted reports whether a fit was actually run (successfully or not).
func (r Result) Attempted() bool {
	return r.Temperature != 0 || r.TemperatureError != 0 || r.Spectrum.Len() > 0 ||
		math.IsNaN(r.Temperature)
}

// Failed reports whether the fit ran and did not converge.
func (r Result) Failed() bool {
	return math.IsNaN(r.Temperature)
}

// Fittable decides whether a corrected spectrum carries enough signal to fit:
// more than minValidSamples unmasked wavelength columns and a mean raw
// intensity above minMeanCounts. Spectra without a saturation mask are never
// fit, since the mask is produced by the same reduction that produced the
// data.
func Fittable(corrected *spectrum.Spectrum, rawY []float64) bool {
	if corrected == nil || corrected.Len() == 0 || corrected.Mask == nil {
		return false
	}

	valid := 0
	for _, keep := range corrected.Mask {
		if keep {
			valid++
		}
	}
	if valid <= minValidSamples {
		return false
	}

	if len(rawY) == 0 {
		return false
	}
	var sum float64
	for _, v := range rawY {
		sum += v
	}
	return sum/float64(len(rawY)) > minMeanCounts
}
