package storage

import (
	"database/sql"
	"math"

	"github.com/radiant-lab/pyrometry/internal/runlog"
)

// recordData mirrors one fit_records row. NaN temperatures and scalings are
// stored as NULL so that SQL aggregates over the archive stay meaningful.
type recordData struct {
	File         string
	Frame        int
	Path         string
	TDS          sql.NullFloat64
	TUS          sql.NullFloat64
	TDSError     sql.NullFloat64
	TUSError     sql.NullFloat64
	Detector     sql.NullString
	ExposureTime float64
	Gain         float64
	ScalingDS    sql.NullFloat64
	ScalingUS    sql.NullFloat64
	CountsDS     float64
	CountsUS     float64
}

func toRecordData(r runlog.Record) recordData {
	return recordData{
		File:         r.File,
		Frame:        r.Frame,
		Path:         r.Path,
		TDS:          toNullFloat(r.TDS),
		TUS:          toNullFloat(r.TUS),
		TDSError:     toNullFloat(r.TDSError),
		TUSError:     toNullFloat(r.TUSError),
		Detector:     sql.NullString{String: r.Detector, Valid: r.Detector != ""},
		ExposureTime: r.ExposureTime,
		Gain:         r.Gain,
		ScalingDS:    toNullFloat(r.ScalingDS),
		ScalingUS:    toNullFloat(r.ScalingUS),
		CountsDS:     r.CountsDS,
		CountsUS:     r.CountsUS,
	}
}

func (d recordData) toRecord() runlog.Record {
	return runlog.Record{
		File:         d.File,
		Frame:        d.Frame,
		Path:         d.Path,
		TDS:          fromNullFloat(d.TDS),
		TUS:          fromNullFloat(d.TUS),
		TDSError:     fromNullFloat(d.TDSError),
		TUSError:     fromNullFloat(d.TUSError),
		Detector:     d.Detector.String,
		ExposureTime: d.ExposureTime,
		Gain:         d.Gain,
		ScalingDS:    fromNullFloat(d.ScalingDS),
		ScalingUS:    fromNullFloat(d.ScalingUS),
		CountsDS:     d.CountsDS,
		CountsUS:     d.CountsUS,
	}
}

func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
