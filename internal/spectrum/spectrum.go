// Package spectrum provides the one-dimensional spectrum container shared by
// every stage of the temperature inference pipeline: raw detector readouts,
// lamp calibration curves, corrected spectra and fitted model curves.
package spectrum

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// ErrBackgroundRange is returned by Data when the attached background spectrum
// does not overlap the spectrum wavelength range at all.
var ErrBackgroundRange = errors.New("spectrum: background does not overlap spectrum range")

// Spectrum is a pair of equally sized wavelength and intensity arrays together
// with the presentation transforms applied on read: linear scaling and offset,
// background subtraction and Gaussian smoothing. The stored arrays are never
// mutated by reads; Data returns derived copies.
type Spectrum struct {
	x []float64
	y []float64

	// Offset is added to the intensity after scaling.
	Offset float64

	// Smoothing is the Gaussian kernel sigma in samples. Zero disables
	// smoothing.
	Smoothing float64

	// Background, when set, is interpolated onto this spectrum's wavelength
	// grid and subtracted by Data.
	Background *Spectrum

	// Mask flags wavelength columns that are safe to fit (true) versus
	// saturated ones (false). It is optional and, when present, has the same
	// length as the data arrays.
	Mask []bool

	scaling float64
}

// New creates a spectrum over the given wavelength and intensity arrays with
// unit scaling and no offset. The slices are retained, not copied.
func New(x, y []float64) *Spectrum {
	return &Spectrum{x: x, y: y, scaling: 1}
}

// Len returns the number of samples.
func (s *Spectrum) Len() int { return len(s.y) }

// Scaling returns the current linear scaling factor.
func (s *Spectrum) Scaling() float64 { return s.scaling }

// SetScaling sets the linear scaling factor, clamping negative values to zero.
func (s *Spectrum) SetScaling(v float64) {
	if v < 0 {
		v = 0
	}
	s.scaling = v
}

// SetData replaces the stored arrays and resets scaling and offset to their
// neutral values.
func (s *Spectrum) SetData(x, y []float64) {
	s.x = x
	s.y = y
	s.scaling = 1
	s.Offset = 0
}

// OriginalData returns copies of the stored arrays with scaling and offset
// applied but without background subtraction or smoothing.
func (s *Spectrum) OriginalData() (x, y []float64) {
	x = append([]float64(nil), s.x...)
	y = make([]float64, len(s.y))
	for i, v := range s.y {
		y[i] = v*s.scaling + s.Offset
	}
	return x, y
}

// RawY returns the stored intensity array without any transform. The returned
// slice aliases the spectrum and must not be modified.
func (s *Spectrum) RawY() []float64 { return s.y }

// RawX returns the stored wavelength array without any transform. The
// returned slice aliases the spectrum and must not be modified.
func (s *Spectrum) RawX() []float64 { return s.x }

// Counts returns the integrated raw intensity.
func (s *Spectrum) Counts() float64 {
	if len(s.y) == 0 {
		return 0
	}
	return floats.Sum(s.y)
}

// XLimits returns the smallest and largest wavelength.
func (s *Spectrum) XLimits() (min, max float64) {
	if len(s.x) == 0 {
		return 0, 0
	}
	return floats.Min(s.x), floats.Max(s.x)
}

// Data returns the spectrum with all read transforms applied, in order:
// scaling and offset, background subtraction, Gaussian smoothing. When the
// background is defined on a different wavelength grid it is linearly
// interpolated onto the overlapping region and only that region is returned.
func (s *Spectrum) Data() (x, y []float64, err error) {
	x, y = s.OriginalData()

	if s.Background != nil && s.Background.Len() > 0 {
		bx, by, err := s.Background.Data()
		if err != nil {
			return nil, nil, err
		}

		if sameGrid(x, bx) {
			floats.Sub(y, by)
		} else {
			x, y, err = subtractInterpolated(x, y, bx, by)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if s.Smoothing > 0 {
		y = gaussianSmooth(y, s.Smoothing)
	}
	return x, y, nil
}

// MaskedData returns Data restricted to unmasked samples. Without a mask, or
// with a mask whose length disagrees with the data, it is identical to Data.
func (s *Spectrum) MaskedData() (x, y []float64, err error) {
	x, y, err = s.Data()
	if err != nil {
		return nil, nil, err
	}
	if s.Mask == nil || len(s.Mask) != len(x) {
		return x, y, nil
	}

	mx := make([]float64, 0, len(x))
	my := make([]float64, 0, len(y))
	for i, keep := range s.Mask {
		if keep {
			mx = append(mx, x[i])
			my = append(my, y[i])
		}
	}
	return mx, my, nil
}

// Sub returns a new spectrum holding the pointwise difference s - other on
// s's wavelength grid, interpolating other when the grids differ.
func (s *Spectrum) Sub(other *Spectrum) (*Spectrum, error) {
	return s.combine(other, func(a, b float64) float64 { return a - b })
}

// Add returns a new spectrum holding the pointwise sum s + other on s's
// wavelength grid, interpolating other when the grids differ.
func (s *Spectrum) Add(other *Spectrum) (*Spectrum, error) {
	return s.combine(other, func(a, b float64) float64 { return a + b })
}

// Scale returns a new spectrum with the intensity multiplied by f.
func (s *Spectrum) Scale(f float64) *Spectrum {
	x, y := s.OriginalData()
	floats.Scale(f, y)
	return New(x, y)
}

func (s *Spectrum) combine(other *Spectrum, op func(a, b float64) float64) (*Spectrum, error) {
	x, y, err := s.Data()
	if err != nil {
		return nil, err
	}
	ox, oy, err := other.Data()
	if err != nil {
		return nil, err
	}

	var ov []float64
	if sameGrid(x, ox) {
		ov = oy
	} else {
		pred, err := interpolant(ox, oy)
		if err != nil {
			return nil, err
		}
		ov = make([]float64, len(x))
		for i, xv := range x {
			ov[i] = pred(xv)
		}
	}

	out := make([]float64, len(y))
	for i := range y {
		out[i] = op(y[i], ov[i])
	}
	return New(x, out), nil
}

func subtractInterpolated(x, y, bx, by []float64) ([]float64, []float64, error) {
	bMin, bMax := floats.Min(bx), floats.Max(bx)

	ox := make([]float64, 0, len(x))
	oy := make([]float64, 0, len(y))
	pred, err := interpolant(bx, by)
	if err != nil {
		return nil, nil, err
	}
	for i, xv := range x {
		if xv < bMin || xv > bMax {
			continue
		}
		ox = append(ox, xv)
		oy = append(oy, y[i]-pred(xv))
	}
	if len(ox) == 0 {
		return nil, nil, ErrBackgroundRange
	}
	return ox, oy, nil
}

// Interpolant fits a piecewise-linear predictor over (xs, ys) that clamps to
// the endpoint values outside the sampled domain. xs must be strictly
// increasing and hold at least two samples.
func Interpolant(xs, ys []float64) (func(float64) float64, error) {
	return interpolant(xs, ys)
}

// interpolant fits a piecewise-linear predictor over (xs, ys) that clamps to
// the endpoint values outside the sampled domain.
func interpolant(xs, ys []float64) (func(float64) float64, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	lo, hi := xs[0], xs[len(xs)-1]
	return func(x float64) float64 {
		return pl.Predict(math.Min(math.Max(x, lo), hi))
	}, nil
}

func sameGrid(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// gaussianSmooth convolves y with a normalized Gaussian kernel of the given
// sigma, reflecting the signal at both edges.
func gaussianSmooth(y []float64, sigma float64) []float64 {
	n := len(y)
	if n == 0 || sigma <= 0 {
		return y
	}

	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	out := make([]float64, n)
	for i := range y {
		var acc float64
		for k, w := range kernel {
			j := i + k - radius
			for j < 0 || j >= n {
				if j < 0 {
					j = -j - 1
				}
				if j >= n {
					j = 2*n - j - 1
				}
			}
			acc += w * y[j]
		}
		out[i] = acc
	}
	return out
}
