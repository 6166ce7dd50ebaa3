package radiometry

import (
	"math"

	"github.com/radiant-lab/pyrometry/internal/spectrum"
)

// Correct removes the instrument response from a measured spectrum. The
// response is the ratio of the measured calibration spectrum to the expected
// lamp emission; the data is divided by that response and rescaled so its
// maximum matches the raw data maximum, keeping corrected intensities on the
// familiar counts scale. Wavelength columns where the lamp model is zero
// carry no response information and become NaN.
//
// All three spectra must share one wavelength grid; Correct operates on the
// raw stored arrays of each.
func Correct(data, calibration, lamp *spectrum.Spectrum) (corrected, response *spectrum.Spectrum) {
	x := append([]float64(nil), data.RawX()...)
	dataY := data.RawY()
	calY := calibration.RawY()
	lampY := lamp.RawY()

	respY := make([]float64, len(dataY))
	corrY := make([]float64, len(dataY))
	for i := range respY {
		if lampY[i] == 0 {
			respY[i] = math.NaN()
		} else {
			respY[i] = calY[i] / lampY[i]
		}
		if respY[i] == 0 {
			respY[i] = math.NaN()
		}
		corrY[i] = dataY[i] / respY[i]
	}

	if scale := nanMax(dataY) / nanMax(corrY); !math.IsNaN(scale) && !math.IsInf(scale, 0) {
		for i := range corrY {
			corrY[i] *= scale
		}
	}

	respX := append([]float64(nil), x...)
	return spectrum.New(x, corrY), spectrum.New(respX, respY)
}

func nanMax(v []float64) float64 {
	max := math.NaN()
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(max) || x > max {
			max = x
		}
	}
	return max
}
