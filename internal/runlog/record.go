// Package runlog persists per-frame fit outcomes: an append-only
// tab-separated log file shared between runs, bounded tail loading for
// recent-history views, and a static per-file record table for batch
// experiments.
package runlog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FileName is the fixed name of the run log inside a working directory.
const FileName = "T_log.txt"

// header defines the column order of the log. It never changes; readers key
// on it to skip repeated headers from appended runs.
const header = "# File\tFrame\tPath\tT_DS\tT_US\tT_DS_error\tT_US_error\tDetector\tExposure Time [sec]\tGain\tscaling_DS\tscaling_US\tcounts_DS\tcounts_US"

const numColumns = 14

// Record is one fit outcome for one frame of one file. Frame is zero-based
// in memory and one-based in the log.
type Record struct {
	File  string
	Frame int
	Path  string

	TDS, TUS           float64
	TDSError, TUSError float64

	Detector     string
	ExposureTime float64
	Gain         float64

	ScalingDS, ScalingUS float64
	CountsDS, CountsUS   float64

	// Timestamp orders records in the static table. It is not written to
	// the log.
	Timestamp time.Time
}

// encode renders the record as a log line. Temperatures are truncated to
// whole kelvin; NaN renders as 0. A channel whose fit error exceeds
// errorLimit is written as 0/0 so downstream plots never show garbage fits.
func (r Record) encode(errorLimit float64) string {
	tds, tdsErr := r.TDS, r.TDSError
	if tdsErr > errorLimit {
		tds, tdsErr = 0, 0
	}
	tus, tusErr := r.TUS, r.TUSError
	if tusErr > errorLimit {
		tus, tusErr = 0, 0
	}

	cols := []string{
		r.File,
		strconv.Itoa(r.Frame + 1),
		r.Path,
		tempString(tds),
		tempString(tus),
		tempString(tdsErr),
		tempString(tusErr),
		r.Detector,
		floatString(r.ExposureTime),
		floatString(r.Gain),
		expString(r.ScalingDS),
		expString(r.ScalingUS),
		expString(r.CountsDS),
		expString(r.CountsUS),
	}
	return strings.Join(cols, "\t")
}

func parseRecord(line string) (Record, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != numColumns {
		return Record{}, fmt.Errorf("runlog: %d columns, want %d", len(cols), numColumns)
	}

	frame, err := strconv.Atoi(cols[1])
	if err != nil {
		return Record{}, fmt.Errorf("runlog: parsing frame: %w", err)
	}

	r := Record{
		File:     cols[0],
		Frame:    frame - 1,
		Path:     cols[2],
		Detector: cols[7],
	}
	fields := []struct {
		dst *float64
		col int
	}{
		{&r.TDS, 3}, {&r.TUS, 4}, {&r.TDSError, 5}, {&r.TUSError, 6},
		{&r.ExposureTime, 8}, {&r.Gain, 9},
		{&r.ScalingDS, 10}, {&r.ScalingUS, 11},
		{&r.CountsDS, 12}, {&r.CountsUS, 13},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(cols[f.col], 64)
		if err != nil {
			return Record{}, fmt.Errorf("runlog: parsing column %d: %w", f.col, err)
		}
		*f.dst = v
	}
	return r, nil
}

func tempString(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.Itoa(int(v))
}

func expString(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'e', 3, 64)
}

func floatString(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "File\t")
}
