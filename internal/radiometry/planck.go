// Package radiometry implements the radiation physics of two-color pyrometry:
// Planck and Wien thermal emission, the linearizing Wien transform and its
// regression statistics, and the lamp calibration model used to correct
// measured spectra for the instrument response.
package radiometry

import (
	"math"
)

// Physical constants (SI).
const (
	PlanckConstant    = 6.62607015e-34 // J s
	SpeedOfLight      = 299792458.0    // m/s
	BoltzmannConstant = 1.380649e-23   // J/K
)

// First and second radiation constants of the black-body form used for lamp
// spectra and fitting.
const (
	c1 = 3.7418e-16
	c2 = 0.014388
)

// Planck evaluates the Planck law spectral radiance at the given wavelengths
// (meters) and temperature (kelvin).
func Planck(wavelengthM []float64, tempK float64) []float64 {
	out := make([]float64, len(wavelengthM))
	for i, wl := range wavelengthM {
		a := 2 * PlanckConstant * SpeedOfLight * SpeedOfLight / math.Pow(wl, 5)
		out[i] = a / (math.Exp(PlanckConstant*SpeedOfLight/(wl*BoltzmannConstant*tempK)) - 1)
	}
	return out
}

// WienApproximation evaluates the Wien limit of the Planck law at the given
// wavelengths (meters) and temperature (kelvin).
func WienApproximation(wavelengthM []float64, tempK float64) []float64 {
	out := make([]float64, len(wavelengthM))
	for i, wl := range wavelengthM {
		a := 2 * PlanckConstant * SpeedOfLight * SpeedOfLight / math.Pow(wl, 5)
		out[i] = a * math.Exp(-PlanckConstant*SpeedOfLight/(wl*BoltzmannConstant*tempK))
	}
	return out
}

// BlackBodyAt evaluates the scaled black-body radiance at a single wavelength
// given in nanometers.
func BlackBodyAt(wavelengthNm, tempK, scaling float64) float64 {
	wl := wavelengthNm * 1e-9
	return scaling * c1 * math.Pow(wl, -5) / (math.Exp(c2/(wl*tempK)) - 1)
}

// BlackBody evaluates the scaled black-body radiance over a wavelength axis
// given in nanometers. This is the model function of the nonlinear
// temperature fit and of temperature-modus lamp spectra.
func BlackBody(wavelengthNm []float64, tempK, scaling float64) []float64 {
	out := make([]float64, len(wavelengthNm))
	for i, wl := range wavelengthNm {
		out[i] = BlackBodyAt(wl, tempK, scaling)
	}
	return out
}
