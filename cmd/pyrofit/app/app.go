// Package app wires the configuration into a batch processing run: load
// frames, fit every plane on both channels, and stream records to the run
// log and the optional sqlite archive.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/radiant-lab/pyrometry/internal/frame"
	"github.com/radiant-lab/pyrometry/internal/pyrometer"
	"github.com/radiant-lab/pyrometry/internal/radiometry"
	"github.com/radiant-lab/pyrometry/internal/roi"
	"github.com/radiant-lab/pyrometry/internal/runlog"
	"github.com/radiant-lab/pyrometry/internal/storage"
)

// Run executes one batch processing run and blocks until all files are
// processed, ctx is cancelled, or a fatal error occurs.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	files, err := expandFiles(config.Data.Files)
	if err != nil {
		return err
	}
	logger.Info("starting run", slog.Int("files", len(files)))

	first, err := frame.LoadFITS(files[0])
	if err != nil {
		return fmt.Errorf("loading first frame: %w", err)
	}
	width, height := first.Dimension()

	exp := pyrometer.NewExperiment(width, height)
	if err := configure(exp, config, logger); err != nil {
		return err
	}

	writer, err := runlog.NewWriter(config.Output.Directory)
	if err != nil {
		return err
	}
	defer writer.Close()
	writer.SetErrorLimit(config.Settings.ErrorLimit)

	var store storage.Store
	var sessionID int64
	if config.Output.Database != "" {
		s := storage.NewSqliteStore(config.Output.Database)
		defer s.Close()

		if sessionID, err = s.CreateSession(ctx, first.Detector, config); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		store = s
	}

	var records int
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		f := first
		if i > 0 {
			if f, err = frame.LoadFITS(path); err != nil {
				logger.Warn("skipping unreadable file", slog.String("file", path), slog.String("error", err.Error()))
				continue
			}
		}

		n, err := processFile(ctx, exp, f, writer, store, sessionID, logger)
		if err != nil {
			return err
		}
		records += n
	}

	logger.Info("run complete",
		slog.Int("files", len(files)),
		slog.String("records", humanize.Comma(int64(records))),
		slog.String("log", writer.Path()),
	)
	return nil
}

func processFile(ctx context.Context, exp *pyrometer.Experiment, f *frame.Frame, writer *runlog.Writer, store storage.Store, sessionID int64, logger *slog.Logger) (int, error) {
	exp.SetFrame(f)

	batch := make([]runlog.Record, 0, f.NumFrames())
	for i := 0; i < f.NumFrames(); i++ {
		if err := ctx.Err(); err != nil {
			return len(batch), err
		}

		exp.SetFrameIndex(i)
		exp.Refresh()

		for _, c := range []struct {
			name string
			ch   *pyrometer.Channel
		}{{"downstream", exp.Downstream}, {"upstream", exp.Upstream}} {
			if _, err := c.ch.FilterBand(); err != nil {
				logger.Warn("oscillation filter failed",
					slog.String("channel", c.name),
					slog.String("file", f.Filename),
					slog.Int("frame", i+1),
					slog.String("error", err.Error()),
				)
			}
		}

		rec := exp.Record()
		if err := writer.Append(rec); err != nil {
			return len(batch), err
		}
		batch = append(batch, rec)

		logger.Debug("frame fitted",
			slog.String("file", filepath.Base(f.Filename)),
			slog.Int("frame", i+1),
			slog.Float64("t_ds", rec.TDS),
			slog.Float64("t_us", rec.TUS),
		)
	}

	if store != nil {
		if err := store.StoreRecords(ctx, sessionID, batch); err != nil {
			return len(batch), fmt.Errorf("archiving %s: %w", f.Filename, err)
		}
	}

	logger.Info("file processed",
		slog.String("file", filepath.Base(f.Filename)),
		slog.Int("frames", f.NumFrames()),
	)
	return len(batch), nil
}

// configure applies the static experiment configuration: saved settings
// first, then the per-channel config sections on top.
func configure(exp *pyrometer.Experiment, config *Config, logger *slog.Logger) error {
	if config.Data.SettingsFile != "" {
		if err := exp.LoadSettings(config.Data.SettingsFile); err != nil {
			return err
		}
		logger.Info("settings restored", slog.String("file", config.Data.SettingsFile))
	}

	fitFunc, err := pyrometer.ParseFitFunction(config.Settings.FitFunction)
	if err != nil {
		return err
	}
	exp.SetFitFunction(fitFunc)
	exp.SetErrorLimit(config.Settings.ErrorLimit)
	exp.SetCorrection(pyrometer.CorrectionConfig{
		UseDataBackground:        config.Correction.DataBackground,
		UseCalibrationBackground: config.Correction.CalibrationBackground,
		FilterOscillation:        config.Correction.FilterOscillation,
	})

	channels := []struct {
		cfg            ChannelConfig
		ch             *pyrometer.Channel
		signalSlot     int
		backgroundSlot int
	}{
		{config.Channels.Downstream, exp.Downstream, roi.Downstream, roi.DownstreamBackground},
		{config.Channels.Upstream, exp.Upstream, roi.Upstream, roi.UpstreamBackground},
	}
	for _, c := range channels {
		if err := configureChannel(exp, c.cfg, c.ch, c.signalSlot, c.backgroundSlot); err != nil {
			return err
		}
	}
	return nil
}

func configureChannel(exp *pyrometer.Experiment, cfg ChannelConfig, ch *pyrometer.Channel, signalSlot, backgroundSlot int) error {
	if len(cfg.Roi) == 4 {
		exp.Rois.SetRoi(signalSlot, roi.NewRoi([4]int{cfg.Roi[0], cfg.Roi[1], cfg.Roi[2], cfg.Roi[3]}))
	}
	if len(cfg.BackgroundRoi) == 4 {
		exp.Rois.SetRoi(backgroundSlot, roi.NewRoi([4]int{cfg.BackgroundRoi[0], cfg.BackgroundRoi[1], cfg.BackgroundRoi[2], cfg.BackgroundRoi[3]}))
	}

	if cfg.Calibration.Image != "" {
		cal, err := frame.LoadFITS(cfg.Calibration.Image)
		if err != nil {
			return fmt.Errorf("loading calibration image: %w", err)
		}
		src := frame.FrameRange(cal, 0, cal.NumFrames()-1)
		if len(cfg.Calibration.Frames) == 2 {
			src = frame.FrameRange(cal, cfg.Calibration.Frames[0], cfg.Calibration.Frames[1])
		}
		ch.SetCalibration(src, cal.Wavelength)
		ch.CalibrationFilename = cfg.Calibration.Image
	}

	if cfg.Calibration.Modus == "standard" {
		ch.Calibration.SetModus(radiometry.ModusStandard)
		if err := ch.Calibration.LoadStandard(cfg.Calibration.StandardSpectrum); err != nil {
			return err
		}
	} else if cfg.Calibration.Temperature > 0 {
		ch.Calibration.SetTemperature(cfg.Calibration.Temperature)
	}
	return nil
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match the configured patterns")
	}
	sort.Strings(files)
	return files, nil
}
