package fit

import (
	"math"

	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/spectrum"
)

// Intensities at or below zero have no logarithm; they are floored to a
// small positive count before the Wien transform.
const wienFloor = 0.1

// Wien estimates the temperature by linear regression in Wien coordinates:
// the spectrum is transformed, fitted with a straight line, and the slope
// converted to T = -1/m with a 95% confidence deviation. The fitted curve is
// reconstructed on a fixed 50-point grid spanning the spectrum. Wavelengths
// are in nanometers.
func Wien(s *spectrum.Spectrum) Result {
	x, y, err := s.MaskedData()
	if err != nil {
		return failed()
	}
	x, y = finiteSamples(x, y)
	if len(x) < 3 {
		return failed()
	}

	wlM := make([]float64, len(x))
	floored := make([]float64, len(y))
	for i := range x {
		wlM[i] = x[i] * 1e-9
		if y[i] <= 0 {
			floored[i] = wienFloor
		} else {
			floored[i] = y[i]
		}
	}

	tx, ty := radiometry.WienTransform(wlM, floored)
	m, b, mDev := radiometry.FitLinear(tx, ty)
	if m == 0 || !isFinite(m) {
		return failed()
	}

	temp, tempErr := radiometry.SlopeToTemperature(m, mDev)

	fullM := make([]float64, s.Len())
	for i, wl := range s.RawX() {
		fullM[i] = wl * 1e-9
	}
	cw, cy := radiometry.WienCurve(fullM, m, b)
	curveX := make([]float64, len(cw))
	for i, wl := range cw {
		curveX[i] = wl * 1e9
	}

	return Result{
		Temperature:      temp,
		TemperatureError: tempErr,
		Spectrum:         spectrum.New(curveX, cy),
		Scaling:          math.NaN(),
	}
}
