package pyrometer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/roi"
	"github.com/radiant-lab/pyrometry/internal/spectrum"
)

// settingsBlob is the on-disk shape of an experiment configuration. The
// calibration images themselves are embedded so a settings file alone
// restores a working experiment on a machine without the original
// calibration files.
type settingsBlob struct {
	FitFunction string          `json:"fit_function"`
	ErrorLimit  float64         `json:"error_limit"`
	Downstream  channelSettings `json:"downstream"`
	Upstream    channelSettings `json:"upstream"`
}

type channelSettings struct {
	CalibrationFile  string      `json:"calibration_file,omitempty"`
	CalibrationImage [][]float64 `json:"calibration_image,omitempty"`
	Wavelength       []float64   `json:"wavelength,omitempty"`

	Roi           [4]int `json:"roi"`
	BackgroundRoi [4]int `json:"background_roi"`

	SubtractDataBackground        bool `json:"subtract_data_background"`
	SubtractCalibrationBackground bool `json:"subtract_calibration_background"`
	FilterOscillation             bool `json:"filter_oscillation"`

	Modus        int       `json:"modus"`
	Temperature  float64   `json:"temperature"`
	StandardX    []float64 `json:"standard_x,omitempty"`
	StandardY    []float64 `json:"standard_y,omitempty"`
	StandardFile string    `json:"standard_file,omitempty"`
}

// SaveSettings writes the full experiment configuration to a JSON file.
func (e *Experiment) SaveSettings(path string) error {
	blob := settingsBlob{
		FitFunction: e.Downstream.FitFunction().String(),
		ErrorLimit:  e.errorLimit,
		Downstream:  e.channelBlob(e.Downstream, roi.Downstream, roi.DownstreamBackground),
		Upstream:    e.channelBlob(e.Upstream, roi.Upstream, roi.UpstreamBackground),
	}

	p, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(path, p, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func (e *Experiment) channelBlob(c *Channel, signalSlot, backgroundSlot int) channelSettings {
	limits := e.Rois.List()
	img, wl := c.CalibrationImage()
	sx, sy := c.Calibration.StandardSpectrum().OriginalData()

	cfg := c.Correction()
	return channelSettings{
		CalibrationFile:               c.CalibrationFilename,
		CalibrationImage:              img,
		Wavelength:                    wl,
		Roi:                           limits[signalSlot],
		BackgroundRoi:                 limits[backgroundSlot],
		SubtractDataBackground:        cfg.UseDataBackground,
		SubtractCalibrationBackground: cfg.UseCalibrationBackground,
		FilterOscillation:             cfg.FilterOscillation,
		Modus:                         int(c.Calibration.Modus()),
		Temperature:                   c.Calibration.Temperature(),
		StandardX:                     sx,
		StandardY:                     sy,
		StandardFile:                  c.Calibration.StandardFileName,
	}
}

// LoadSettings restores an experiment configuration from a JSON file and
// refreshes both channels.
func (e *Experiment) LoadSettings(path string) error {
	p, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	var blob settingsBlob
	if err := json.Unmarshal(p, &blob); err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}

	fitFunc, err := ParseFitFunction(blob.FitFunction)
	if err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}
	e.SetFitFunction(fitFunc)
	if blob.ErrorLimit > 0 {
		e.errorLimit = blob.ErrorLimit
	}

	e.applyChannelBlob(e.Downstream, blob.Downstream, roi.Downstream, roi.DownstreamBackground)
	e.applyChannelBlob(e.Upstream, blob.Upstream, roi.Upstream, roi.UpstreamBackground)
	e.Refresh()
	return nil
}

func (e *Experiment) applyChannelBlob(c *Channel, s channelSettings, signalSlot, backgroundSlot int) {
	e.Rois.SetRoi(signalSlot, roi.NewRoi(s.Roi))
	e.Rois.SetRoi(backgroundSlot, roi.NewRoi(s.BackgroundRoi))

	c.SetCorrection(CorrectionConfig{
		UseDataBackground:        s.SubtractDataBackground,
		UseCalibrationBackground: s.SubtractCalibrationBackground,
		FilterOscillation:        s.FilterOscillation,
	})

	c.SetCalibrationImage(s.CalibrationImage, s.Wavelength)
	c.CalibrationFilename = s.CalibrationFile

	c.Calibration.SetModus(radiometry.Modus(s.Modus))
	c.Calibration.SetTemperature(s.Temperature)
	c.Calibration.SetStandardSpectrum(spectrum.New(s.StandardX, s.StandardY))
	c.Calibration.StandardFileName = s.StandardFile
}
