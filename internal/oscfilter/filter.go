// Package oscfilter removes narrow-band oscillatory components, typically
// etalon fringes, from spectra by zeroing a symmetric frequency band in the
// Fourier domain. The band is located automatically from the side peaks of
// the power spectrum, with a documented fallback band when no peaks are
// found.
package oscfilter

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrTooShort is returned when the input has too few samples for the
// configured padding and detrend window.
var ErrTooShort = errors.New("oscfilter: spectrum too short for filtering")

// Config holds the tunable parameters of the filter. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// EdgeK is the number of samples on each end used to fit the linear
	// detrend.
	EdgeK int

	// PadWidth is the reflection padding length on each end.
	PadWidth int

	// ProminenceRatio is the minimum peak prominence relative to the largest
	// power sample.
	ProminenceRatio float64

	// MinPeakFreq and MaxPeakFreq bound the absolute frequency range, in
	// cycles per x-unit, searched for fringe peaks.
	MinPeakFreq float64
	MaxPeakFreq float64

	// CutScaleLeft and CutScaleRight stretch the stop band below and above
	// the detected peak frequency, in units of the peak FWHM.
	CutScaleLeft  float64
	CutScaleRight float64

	// FWHMExpand scales the measured peak width before the stop band is
	// derived from it.
	FWHMExpand float64

	// FallbackBand is the stop band, in cycles per x-unit, applied when no
	// usable side peaks are detected.
	FallbackBand [2]float64
}

// DefaultConfig returns the parameter set tuned for etalon fringes on
// laser-heating spectrometers.
func DefaultConfig() Config {
	return Config{
		EdgeK:           3,
		PadWidth:        20,
		ProminenceRatio: 0.005,
		MinPeakFreq:     0.08,
		MaxPeakFreq:     0.5,
		CutScaleLeft:    2.5,
		CutScaleRight:   3.0,
		FWHMExpand:      1.0,
		FallbackBand:    [2]float64{0.06, 0.17},
	}
}

// Filter applies the band-stop oscillation filter. It is stateless and safe
// for concurrent use.
type Filter struct {
	cfg Config
}

// New creates a filter with the given configuration.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Band is the stop band in cycles per x-unit chosen for one Apply call.
type Band struct {
	Min, Max float64

	// Fallback reports whether the band came from FallbackBand rather than
	// detected peaks.
	Fallback bool
}

// Apply filters the oscillatory component out of y sampled on the uniform
// axis x and returns the filtered intensities together with the stop band
// used. The input slices are not modified.
func (f *Filter) Apply(x, y []float64) ([]float64, Band, error) {
	n := len(y)
	if len(x) != n {
		return nil, Band{}, fmt.Errorf("oscfilter: axis length %d does not match data length %d", len(x), n)
	}
	if n < 2*(f.cfg.EdgeK+f.cfg.PadWidth) {
		return nil, Band{}, ErrTooShort
	}

	dx := (x[n-1] - x[0]) / float64(n-1)
	if dx == 0 {
		return nil, Band{}, fmt.Errorf("oscfilter: degenerate wavelength axis")
	}

	padded := reflectPad(y, f.cfg.PadWidth)
	np := len(padded)

	trend := edgeTrend(padded, f.cfg.PadWidth, n, f.cfg.EdgeK)
	detrended := make([]complex128, np)
	for i := range padded {
		detrended[i] = complex(padded[i]-trend[i], 0)
	}

	fft := fourier.NewCmplxFFT(np)
	coeff := fft.Coefficients(nil, detrended)

	band := f.stopBand(fft, coeff, dx)

	for i := range coeff {
		freq := math.Abs(fft.Freq(i) / dx)
		if freq >= band.Min && freq <= band.Max {
			coeff[i] = 0
		}
	}

	seq := fft.Sequence(nil, coeff)
	out := make([]float64, n)
	for i := range out {
		j := i + f.cfg.PadWidth
		// inverse transform is unnormalized
		out[i] = real(seq[j])/float64(np) + trend[j]
	}
	return out, band, nil
}

// stopBand locates the fringe band from the two-sided power spectrum. The
// innermost sufficiently prominent peak on each side of zero frequency sets
// the band center, the interpolated FWHM of those peaks its width. Missing
// peaks on either side select the fallback band.
func (f *Filter) stopBand(fft *fourier.CmplxFFT, coeff []complex128, dx float64) Band {
	np := len(coeff)

	// power spectrum in frequency-ascending order; the sign flip of
	// CmplxFFT.Freq sits at (np+1)/2, not np/2, for odd lengths
	half := (np + 1) / 2
	order := make([]int, 0, np)
	for i := half; i < np; i++ {
		order = append(order, i)
	}
	for i := 0; i < half; i++ {
		order = append(order, i)
	}
	power := make([]float64, np)
	freq := make([]float64, np)
	for k, i := range order {
		power[k] = math.Pow(cmplx.Abs(coeff[i]), 2)
		freq[k] = fft.Freq(i) / dx
	}

	var maxPower float64
	for _, p := range power {
		if p > maxPower {
			maxPower = p
		}
	}
	minProminence := f.cfg.ProminenceRatio * maxPower

	var left, right []int
	for _, k := range findPeaks(power, minProminence) {
		af := math.Abs(freq[k])
		if af < f.cfg.MinPeakFreq || af > f.cfg.MaxPeakFreq {
			continue
		}
		if freq[k] < 0 {
			left = append(left, k)
		} else if freq[k] > 0 {
			right = append(right, k)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return Band{Min: f.cfg.FallbackBand[0], Max: f.cfg.FallbackBand[1], Fallback: true}
	}

	// innermost side lobes
	l := left[0]
	for _, k := range left {
		if math.Abs(freq[k]) < math.Abs(freq[l]) {
			l = k
		}
	}
	r := right[0]
	for _, k := range right {
		if math.Abs(freq[k]) < math.Abs(freq[r]) {
			r = k
		}
	}

	df := 1 / (float64(np) * dx)
	fwhm := 0.5 * (halfWidth(power, l, df) + halfWidth(power, r, df)) * f.cfg.FWHMExpand
	center := 0.5 * (math.Abs(freq[l]) + math.Abs(freq[r]))

	return Band{
		Min: center - f.cfg.CutScaleLeft*fwhm,
		Max: center + f.cfg.CutScaleRight*fwhm,
	}
}

// reflectPad extends y by pad samples on both ends, mirroring the signal
// including the edge sample.
func reflectPad(y []float64, pad int) []float64 {
	n := len(y)
	out := make([]float64, 0, n+2*pad)
	for i := pad - 1; i >= 0; i-- {
		out = append(out, y[i])
	}
	out = append(out, y...)
	for i := n - 1; i >= n-pad; i-- {
		out = append(out, y[i])
	}
	return out
}

// edgeTrend fits a straight line through the first and last edgeK samples of
// the original (unpadded) segment and evaluates it over the whole padded
// axis. Subtracting it suppresses the step the periodic transform would see
// between the two ends of the spectrum.
func edgeTrend(padded []float64, pad, n, edgeK int) []float64 {
	var sx, sy, sxx, sxy float64
	count := 0
	accumulate := func(i int) {
		xi := float64(i)
		sx += xi
		sy += padded[i]
		sxx += xi * xi
		sxy += xi * padded[i]
		count++
	}
	for i := pad; i < pad+edgeK; i++ {
		accumulate(i)
	}
	for i := pad + n - edgeK; i < pad+n; i++ {
		accumulate(i)
	}

	c := float64(count)
	det := c*sxx - sx*sx
	var m, b float64
	if det != 0 {
		m = (c*sxy - sx*sy) / det
		b = (sy*sxx - sx*sxy) / det
	}

	out := make([]float64, len(padded))
	for i := range out {
		out[i] = m*float64(i) + b
	}
	return out
}
