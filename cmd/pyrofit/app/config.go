package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/radiant-lab/pyrometry/internal/pyrometer"
)

// Config represents the main application configuration
type Config struct {
	Settings   Settings         `yaml:"settings"`
	Data       DataConfig       `yaml:"data"`
	Correction CorrectionConfig `yaml:"correction"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Output     OutputConfig     `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel    string  `yaml:"logLevel"`
	FitFunction string  `yaml:"fitFunction"`
	ErrorLimit  float64 `yaml:"errorLimit"`
}

// Level maps the configured log level name to a slog level, defaulting to
// info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DataConfig selects the measurement files to process
type DataConfig struct {
	// Files are glob patterns of FITS files, processed in sorted order.
	Files []string `yaml:"files"`

	// SettingsFile optionally restores a saved experiment configuration
	// before the per-channel sections are applied.
	SettingsFile string `yaml:"settingsFile"`
}

// CorrectionConfig represents the in-situ correction switches
type CorrectionConfig struct {
	DataBackground        bool `yaml:"dataBackground"`
	CalibrationBackground bool `yaml:"calibrationBackground"`
	FilterOscillation     bool `yaml:"filterOscillation"`
}

// ChannelsConfig represents both spectrometer channels
type ChannelsConfig struct {
	Downstream ChannelConfig `yaml:"downstream"`
	Upstream   ChannelConfig `yaml:"upstream"`
}

// ChannelConfig represents a single channel configuration
type ChannelConfig struct {
	Roi           []int             `yaml:"roi"`
	BackgroundRoi []int             `yaml:"backgroundRoi"`
	Calibration   CalibrationConfig `yaml:"calibration"`
}

// CalibrationConfig represents a channel's lamp calibration
type CalibrationConfig struct {
	// Image is the lamp exposure FITS file.
	Image string `yaml:"image"`

	// Frames optionally selects an inclusive [start, end] frame range of the
	// image to average; all frames are averaged when absent.
	Frames []int `yaml:"frames"`

	// Modus is "temperature" (default) or "standard".
	Modus string `yaml:"modus"`

	// Temperature is the lamp temperature in kelvin for temperature modus.
	Temperature float64 `yaml:"temperature"`

	// StandardSpectrum is a two-column text file for standard modus.
	StandardSpectrum string `yaml:"standardSpectrum"`
}

// OutputConfig represents output settings
type OutputConfig struct {
	// Directory receives the run log. Defaults to the working directory.
	Directory string `yaml:"directory"`

	// Database optionally archives records to a sqlite file.
	Database string `yaml:"database"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(p, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.Output.Directory == "" {
		c.Output.Directory = "."
	}
	if c.Settings.ErrorLimit == 0 {
		c.Settings.ErrorLimit = pyrometer.DefaultErrorLimit
	}
	return &c, nil
}

// Validate checks the configuration for errors that would only surface mid-run.
func (c *Config) Validate() error {
	if len(c.Data.Files) == 0 {
		return errors.New("no data files configured")
	}
	if _, err := pyrometer.ParseFitFunction(c.Settings.FitFunction); err != nil {
		return err
	}
	if c.Settings.ErrorLimit < 0 {
		return errors.New("error limit must not be negative")
	}

	for name, ch := range map[string]ChannelConfig{"downstream": c.Channels.Downstream, "upstream": c.Channels.Upstream} {
		if err := ch.validate(); err != nil {
			return fmt.Errorf("channel %s: %w", name, err)
		}
	}
	return nil
}

func (ch ChannelConfig) validate() error {
	if n := len(ch.Roi); n != 0 && n != 4 {
		return fmt.Errorf("roi has %d limits, want 4", n)
	}
	if n := len(ch.BackgroundRoi); n != 0 && n != 4 {
		return fmt.Errorf("background roi has %d limits, want 4", n)
	}
	if n := len(ch.Calibration.Frames); n != 0 && n != 2 {
		return fmt.Errorf("calibration frames has %d bounds, want 2", n)
	}
	switch ch.Calibration.Modus {
	case "", "temperature", "standard":
	default:
		return fmt.Errorf("unknown calibration modus %q", ch.Calibration.Modus)
	}
	if ch.Calibration.Modus == "standard" && ch.Calibration.StandardSpectrum == "" {
		return errors.New("standard modus requires a standard spectrum file")
	}
	return nil
}
