package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/radiant-lab/pyrometry/internal/frame"
	"github.com/radiant-lab/pyrometry/internal/pyrometer"
	"github.com/radiant-lab/pyrometry/internal/runlog"
)

func TestProcessFileLogsFilterFailuresPerChannel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// an image too narrow to filter makes the oscillation filter fail on
	// both channels
	const width, height = 10, 4
	img := make([][]float64, height)
	wl := make([]float64, width)
	for y := range img {
		img[y] = make([]float64, width)
		for x := range img[y] {
			img[y][x] = 100
		}
	}
	for x := range wl {
		wl[x] = 500 + float64(x)
	}

	f := frame.New(img, wl)
	f.Filename = "run.fits"

	exp := pyrometer.NewExperiment(width, height)
	exp.SetCorrection(pyrometer.CorrectionConfig{FilterOscillation: true})

	writer, err := runlog.NewWriter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()

	if _, err := processFile(context.Background(), exp, f, writer, nil, 0, logger); err != nil {
		t.Fatalf("processFile() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"channel=downstream", "channel=upstream"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing filter warning for %s:\n%s", want, out)
		}
	}
}
