package radiometry

import (
	"fmt"

	"github.com/radiant-lab/pyrometry/internal/spectrum"
	"gonum.org/v1/gonum/floats"
)

// Modus selects how the expected lamp emission is modelled during
// calibration.
type Modus int

const (
	// ModusTemperature models the lamp as a normalized black body at a known
	// temperature.
	ModusTemperature Modus = 0

	// ModusStandard interpolates a measured standard lamp spectrum.
	ModusStandard Modus = 1
)

// defaultLampTemperature is the black-body temperature assumed for the
// calibration lamp until configured otherwise.
const defaultLampTemperature = 2000

// CalibrationParameter describes the calibration lamp of one channel: either
// a black-body temperature or a standard spectrum loaded from disk.
type CalibrationParameter struct {
	modus       Modus
	temperature float64
	standard    *spectrum.Spectrum

	// StandardFileName remembers where the standard spectrum came from, for
	// settings round-trips and display.
	StandardFileName string
}

// NewCalibrationParameter creates a parameter set in temperature modus at the
// default lamp temperature.
func NewCalibrationParameter() *CalibrationParameter {
	return &CalibrationParameter{
		modus:       ModusTemperature,
		temperature: defaultLampTemperature,
		standard:    spectrum.New(nil, nil),
	}
}

// Modus returns the active lamp model.
func (c *CalibrationParameter) Modus() Modus { return c.modus }

// SetModus selects the lamp model.
func (c *CalibrationParameter) SetModus(m Modus) { c.modus = m }

// Temperature returns the assumed lamp temperature in kelvin.
func (c *CalibrationParameter) Temperature() float64 { return c.temperature }

// SetTemperature sets the assumed lamp temperature in kelvin.
func (c *CalibrationParameter) SetTemperature(t float64) { c.temperature = t }

// StandardSpectrum returns the loaded standard lamp spectrum. It is empty
// until LoadStandard or SetStandardSpectrum is called.
func (c *CalibrationParameter) StandardSpectrum() *spectrum.Spectrum { return c.standard }

// SetStandardSpectrum replaces the standard lamp spectrum.
func (c *CalibrationParameter) SetStandardSpectrum(s *spectrum.Spectrum) {
	if s == nil {
		s = spectrum.New(nil, nil)
	}
	c.standard = s
}

// LoadStandard reads a standard lamp spectrum from a two-column text file and
// remembers the file name.
func (c *CalibrationParameter) LoadStandard(path string) error {
	s, err := spectrum.Load(path)
	if err != nil {
		return fmt.Errorf("loading standard spectrum: %w", err)
	}
	c.standard = s
	c.StandardFileName = path
	return nil
}

// SaveStandard writes the standard lamp spectrum to a two-column text file.
func (c *CalibrationParameter) SaveStandard(path string) error {
	if err := c.standard.Save(path); err != nil {
		return fmt.Errorf("saving standard spectrum: %w", err)
	}
	return nil
}

// LampY evaluates the expected lamp emission on the given wavelength axis
// (nanometers). In temperature modus this is a black body normalized to unit
// maximum. In standard modus the standard spectrum is linearly interpolated
// with endpoint clamping; an empty standard yields all ones so that a missing
// file degrades to no correction rather than a dead channel.
func (c *CalibrationParameter) LampY(wavelengthNm []float64) []float64 {
	switch c.modus {
	case ModusStandard:
		out := make([]float64, len(wavelengthNm))
		sx, sy := c.standard.OriginalData()
		if len(sx) == 0 {
			for i := range out {
				out[i] = 1
			}
			return out
		}
		pred := clampedInterpolant(sx, sy)
		for i, wl := range wavelengthNm {
			out[i] = pred(wl)
		}
		return out

	default:
		out := BlackBody(wavelengthNm, c.temperature, 1)
		if len(out) > 0 {
			if max := floats.Max(out); max > 0 {
				floats.Scale(1/max, out)
			}
		}
		return out
	}
}

// LampSpectrum wraps LampY in a Spectrum on the given axis.
func (c *CalibrationParameter) LampSpectrum(wavelengthNm []float64) *spectrum.Spectrum {
	x := append([]float64(nil), wavelengthNm...)
	return spectrum.New(x, c.LampY(wavelengthNm))
}

func clampedInterpolant(xs, ys []float64) func(float64) float64 {
	if len(xs) == 1 {
		v := ys[0]
		return func(float64) float64 { return v }
	}
	pred, err := spectrum.Interpolant(xs, ys)
	if err != nil {
		// unsorted or degenerate standard: no usable response model
		return func(float64) float64 { return 1 }
	}
	return pred
}
