package fit

import (
	"math"

	"github.com/maorshutman/lm"

	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/spectrum"
)

// Starting point of the nonlinear fit: a plausible heating temperature and a
// black-body scale matching corrected count levels.
var planckInit = []float64{2500, 1e-11}

// Planck fits a scaled black body to the unmasked, finite samples of the
// spectrum (wavelengths in nanometers) by Levenberg-Marquardt and returns
// the temperature, its standard error, the fitted curve on the full
// wavelength axis and the fitted scale. A fit that cannot run or does not
// converge returns NaN temperatures and an empty curve.
func Planck(s *spectrum.Spectrum) Result {
	x, y, err := s.MaskedData()
	if err != nil {
		return failed()
	}
	x, y = finiteSamples(x, y)
	if len(x) <= len(planckInit) {
		return failed()
	}

	residuals := func(dst, p []float64) {
		for i := range x {
			dst[i] = radiometry.BlackBodyAt(x[i], p[0], p[1]) - y[i]
		}
	}

	jac := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        2,
		Size:       len(x),
		Func:       residuals,
		Jac:        jac.Jac,
		InitParams: append([]float64(nil), planckInit...),
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := lm.LM(problem, &lm.Settings{Iterations: 100, ObjectiveTol: 1e-16})
	if err != nil {
		return failed()
	}

	temp, scale := results.X[0], results.X[1]
	if !isFinite(temp) || !isFinite(scale) {
		return failed()
	}

	tempErr := math.Sqrt(temperatureVariance(residuals, results.X, len(x)))

	curveX := append([]float64(nil), s.RawX()...)
	curve := spectrum.New(curveX, radiometry.BlackBody(curveX, temp, scale))

	return Result{
		Temperature:      temp,
		TemperatureError: tempErr,
		Spectrum:         curve,
		Scaling:          scale,
	}
}

// temperatureVariance estimates the variance of the fitted temperature as
// the leading diagonal entry of s^2 (J^T J)^-1, with the Jacobian taken by
// central differences at the solution.
func temperatureVariance(residuals func(dst, p []float64), p []float64, m int) float64 {
	dof := m - len(p)
	if dof <= 0 {
		return math.NaN()
	}

	base := make([]float64, m)
	residuals(base, p)
	var ssr float64
	for _, r := range base {
		ssr += r * r
	}
	s2 := ssr / float64(dof)

	cols := make([][]float64, len(p))
	fp := make([]float64, m)
	fm := make([]float64, m)
	for j := range p {
		h := 1e-6 * math.Max(math.Abs(p[j]), 1e-12)
		pj := append([]float64(nil), p...)

		pj[j] = p[j] + h
		residuals(fp, pj)
		pj[j] = p[j] - h
		residuals(fm, pj)

		col := make([]float64, m)
		for i := range col {
			col[i] = (fp[i] - fm[i]) / (2 * h)
		}
		cols[j] = col
	}

	// 2x2 normal matrix
	var a, b, d float64
	for i := 0; i < m; i++ {
		a += cols[0][i] * cols[0][i]
		b += cols[0][i] * cols[1][i]
		d += cols[1][i] * cols[1][i]
	}
	det := a*d - b*b
	if det == 0 {
		return math.NaN()
	}
	return s2 * d / det
}

func finiteSamples(x, y []float64) ([]float64, []float64) {
	ox := make([]float64, 0, len(x))
	oy := make([]float64, 0, len(y))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			ox = append(ox, x[i])
			oy = append(oy, y[i])
		}
	}
	return ox, oy
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
