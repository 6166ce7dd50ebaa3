package fit

import (
	"math"

	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/spectrum"
	"gonum.org/v1/gonum/floats"
)

const (
	// twoColorPoints is the uniform grid the spectrum is resampled onto.
	twoColorPoints = 1024

	// twoColorDelta is the separation, in grid rows, of the wavelength pairs
	// each local estimate is computed from.
	twoColorDelta = 150
)

// TwoColor computes the wavelength-resolved two-color temperature of a
// corrected spectrum (wavelengths in nanometers). The spectrum is resampled
// onto a 1024-point uniform grid; every estimate pairs a grid row with the
// row 150 steps above it through the Wien two-color relation. The returned
// axis holds the lower wavelength of each pair. Non-physical intensities
// propagate as NaN.
func TwoColor(wavelengthNm, intensity []float64) (lambdaNm, tempK []float64) {
	if len(wavelengthNm) < 2 || len(wavelengthNm) != len(intensity) {
		return nil, nil
	}

	pred, err := spectrum.Interpolant(wavelengthNm, intensity)
	if err != nil {
		return nil, nil
	}

	grid := make([]float64, twoColorPoints)
	floats.Span(grid, wavelengthNm[0], wavelengthNm[len(wavelengthNm)-1])

	theta := make([]float64, twoColorPoints)
	for i, wl := range grid {
		theta[i] = wienTheta(wl*1e-9, pred(wl))
	}

	n := twoColorPoints - twoColorDelta
	lambdaNm = append([]float64(nil), grid[:n]...)
	tempK = make([]float64, n)
	for i := 0; i < n; i++ {
		l1 := grid[i] * 1e-9
		l2 := grid[i+twoColorDelta] * 1e-9
		tempK[i] = (1/l2 - 1/l1) / (theta[i+twoColorDelta] - theta[i])
	}
	return lambdaNm, tempK
}

// wienTheta maps one (wavelength, intensity) sample into the Wien ordinate
// whose pairwise differences encode temperature.
func wienTheta(wlM, intensity float64) float64 {
	h := radiometry.PlanckConstant
	c := radiometry.SpeedOfLight
	k := radiometry.BoltzmannConstant
	return -(k / (h * c)) * math.Log(intensity*math.Pow(wlM, 5)/(2*h*c*c))
}
