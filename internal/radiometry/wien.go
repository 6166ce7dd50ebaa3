package radiometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Constants of the linearizing Wien transform. A Wien-limit spectrum becomes
// a straight line y = m*x + b with slope m = -1/T.
const (
	wienC2     = 0.0143878
	wienOffset = 36.6666
)

// wienCurvePoints is the resolution of the reconstructed fit curve.
const wienCurvePoints = 50

// WienTransform maps a spectrum (wavelength in meters) into the linearized
// Wien coordinates x = c2/lambda, y = offset + 5 ln lambda + ln I.
// Non-positive intensities produce NaN; callers floor them beforehand.
func WienTransform(wavelengthM, radiance []float64) (x, y []float64) {
	x = make([]float64, len(wavelengthM))
	y = make([]float64, len(wavelengthM))
	for i, wl := range wavelengthM {
		x[i] = wienC2 / wl
		y[i] = wienOffset + 5*math.Log(wl) + math.Log(radiance[i])
	}
	return x, y
}

// InverseWienTransform maps linearized ordinates back to spectral radiance on
// the given wavelength axis (meters).
func InverseWienTransform(wavelengthM, y []float64) []float64 {
	out := make([]float64, len(wavelengthM))
	for i, wl := range wavelengthM {
		out[i] = math.Exp(y[i] - wienOffset - 5*math.Log(wl))
	}
	return out
}

// FitLinear fits y = m*x + b by ordinary least squares and returns the slope,
// intercept and the 95% confidence deviation of the slope (standard error of
// the slope scaled by the two-tailed Student-t critical value for n-2 degrees
// of freedom).
func FitLinear(x, y []float64) (m, b, mDev float64) {
	n := len(x)
	b, m = stat.LinearRegression(x, y, nil, false)
	if n <= 2 {
		return m, b, math.NaN()
	}

	var ssr, sxx float64
	xMean := stat.Mean(x, nil)
	for i := range x {
		r := y[i] - (m*x[i] + b)
		ssr += r * r
		d := x[i] - xMean
		sxx += d * d
	}
	if sxx == 0 {
		return m, b, math.NaN()
	}

	se := math.Sqrt(ssr/float64(n-2)) / math.Sqrt(sxx)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}.Quantile(0.975)
	return m, b, se * t
}

// SlopeToTemperature converts a Wien slope and its deviation into a
// temperature and temperature deviation: T = -1/m, dT = |1/m^2| dm.
func SlopeToTemperature(m, mDev float64) (tempK, tempDev float64) {
	return -1 / m, math.Abs(1/(m*m)) * mDev
}

// WienCurve reconstructs the fitted spectrum from Wien line parameters on a
// fixed-resolution wavelength grid spanning the input axis (meters). It
// returns the grid and the radiance on it.
func WienCurve(wavelengthM []float64, m, b float64) (wl, radiance []float64) {
	if len(wavelengthM) == 0 {
		return nil, nil
	}
	wl = make([]float64, wienCurvePoints)
	floats.Span(wl, floats.Min(wavelengthM), floats.Max(wavelengthM))

	y := make([]float64, len(wl))
	for i, w := range wl {
		y[i] = m*(wienC2/w) + b
	}
	return wl, InverseWienTransform(wl, y)
}
