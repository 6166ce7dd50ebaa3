package pyrometer

import (
	"context"
	"math"
	"path/filepath"

	"github.com/radiant-lab/pyrometry/internal/frame"
	"github.com/radiant-lab/pyrometry/internal/roi"
	"github.com/radiant-lab/pyrometry/internal/runlog"
)

// DefaultErrorLimit is the fit error, in kelvin, above which a channel's
// result is reported as 0 in records and frame series.
const DefaultErrorLimit = 200

// bulkCountsGate is the fraction of the maximum integrated counts, across
// both channels and all frames, a frame must reach to be fit during
// FitAllFrames.
const bulkCountsGate = 0.075

// Experiment is the two-channel pyrometer: a downstream and an upstream
// channel sharing one region manager and one measurement frame. It is the
// unit batch runs and settings files operate on.
type Experiment struct {
	Rois       *roi.Manager
	Downstream *Channel
	Upstream   *Channel

	frm        *frame.Frame
	frameIndex int
	errorLimit float64
}

// NewExperiment creates an experiment over a detector of the given
// dimension.
func NewExperiment(width, height int) *Experiment {
	rois := roi.NewManager(width, height)
	return &Experiment{
		Rois:       rois,
		Downstream: NewChannel(roi.Downstream, rois),
		Upstream:   NewChannel(roi.Upstream, rois),
		errorLimit: DefaultErrorLimit,
	}
}

// Channels returns both channels, downstream first.
func (e *Experiment) Channels() [2]*Channel {
	return [2]*Channel{e.Downstream, e.Upstream}
}

// SetFrame loads a measurement readout and rewinds to its first frame.
func (e *Experiment) SetFrame(f *frame.Frame) {
	e.frm = f
	e.frameIndex = 0
	e.applyFrame()
}

// Frame returns the current measurement readout, nil before the first
// SetFrame.
func (e *Experiment) Frame() *frame.Frame { return e.frm }

// FrameIndex returns the zero-based index of the selected plane.
func (e *Experiment) FrameIndex() int { return e.frameIndex }

// SetFrameIndex selects a plane of the current readout. It reports whether
// the index was in range; out-of-range indices are clamped.
func (e *Experiment) SetFrameIndex(i int) bool {
	if e.frm == nil {
		return false
	}
	ok := i >= 0 && i < e.frm.NumFrames()
	if i < 0 {
		i = 0
	}
	if i > e.frm.NumFrames()-1 {
		i = e.frm.NumFrames() - 1
	}
	e.frameIndex = i
	e.applyFrame()
	return ok
}

func (e *Experiment) applyFrame() {
	if e.frm == nil {
		return
	}
	img := e.frm.Plane(e.frameIndex)
	for _, c := range e.Channels() {
		c.SetData(img, e.frm.Wavelength)
	}
}

// SetCorrection applies one correction configuration to both channels.
func (e *Experiment) SetCorrection(cfg CorrectionConfig) {
	for _, c := range e.Channels() {
		c.SetCorrection(cfg)
	}
}

// SetFitFunction selects the estimator on both channels.
func (e *Experiment) SetFitFunction(f FitFunction) {
	for _, c := range e.Channels() {
		c.SetFitFunction(f)
	}
}

// ErrorLimit returns the active fit error limit in kelvin.
func (e *Experiment) ErrorLimit() float64 { return e.errorLimit }

// SetErrorLimit changes the fit error limit.
func (e *Experiment) SetErrorLimit(limit float64) { e.errorLimit = limit }

// Refresh recomputes both channels against the selected frame.
func (e *Experiment) Refresh() {
	for _, c := range e.Channels() {
		c.Refresh()
	}
}

// WavelengthRange returns the wavelength bounds of the downstream signal
// region on the current axis.
func (e *Experiment) WavelengthRange() (lo, hi float64) {
	if e.frm == nil || len(e.frm.Wavelength) == 0 {
		return 0, 0
	}
	wl := e.frm.Wavelength
	w, h := e.frm.Dimension()
	r := e.Rois.Roi(roi.Downstream, w, h)
	// the region is clamped to the image, which may be wider than the axis
	return wl[min(r.XMin, len(wl)-1)], wl[min(r.XMax, len(wl)-1)]
}

// SetWavelengthRange moves the wavelength bounds of all four regions to the
// columns nearest the given bounds on the current axis.
func (e *Experiment) SetWavelengthRange(minNm, maxNm float64) {
	if e.frm == nil || len(e.frm.Wavelength) == 0 {
		return
	}
	lo := nearestColumn(e.frm.Wavelength, minNm)
	hi := nearestColumn(e.frm.Wavelength, maxNm)
	if hi < lo {
		lo, hi = hi, lo
	}
	for slot, limits := range e.Rois.List() {
		e.Rois.SetRoi(slot, roi.NewRoi([4]int{lo, hi, limits[2], limits[3]}))
	}
}

func nearestColumn(wl []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, w := range wl {
		if d := math.Abs(w - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Record summarizes the current fit state of both channels as a run log
// record for the selected frame.
func (e *Experiment) Record() runlog.Record {
	ds := e.Downstream.Result()
	us := e.Upstream.Result()

	r := runlog.Record{
		Frame:     e.frameIndex,
		TDS:       ds.Temperature,
		TUS:       us.Temperature,
		TDSError:  ds.TemperatureError,
		TUSError:  us.TemperatureError,
		ScalingDS: ds.Scaling,
		ScalingUS: us.Scaling,
		CountsDS:  e.Downstream.TotalCounts(),
		CountsUS:  e.Upstream.TotalCounts(),
	}
	if e.frm != nil {
		r.File = filepath.Base(e.frm.Filename)
		r.Path = filepath.Dir(e.frm.Filename)
		r.Detector = e.frm.Detector
		r.ExposureTime = e.frm.ExposureTime
		r.Gain = e.frm.Gain
	}
	return r
}

// FrameSeries is the per-frame temperature history of one readout produced
// by FitAllFrames. Slices are indexed by frame.
type FrameSeries struct {
	TDS, TUS           []float64
	TDSError, TUSError []float64
}

// FitAllFrames fits every plane of the current readout and returns the
// per-frame temperature series. Frames whose integrated counts fall below
// 7.5% of the maximum over both channels and all frames are skipped, and
// results with errors over the limit are zeroed, so cooling tails and failed
// fits never pollute the series. The scan honors ctx and reports progress
// after each frame when progress is non-nil. The experiment is restored to
// its previously selected frame before returning.
func (e *Experiment) FitAllFrames(ctx context.Context, progress func(done, total int)) (FrameSeries, error) {
	var out FrameSeries
	if e.frm == nil {
		return out, nil
	}
	total := e.frm.NumFrames()
	restore := e.frameIndex
	defer func() {
		e.SetFrameIndex(restore)
		e.Refresh()
	}()

	// first pass: integrated counts per frame and channel
	countsDS := make([]float64, total)
	countsUS := make([]float64, total)
	maxCounts := 0.0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		e.SetFrameIndex(i)
		for _, c := range e.Channels() {
			c.refreshData()
		}
		countsDS[i] = e.Downstream.TotalCounts()
		countsUS[i] = e.Upstream.TotalCounts()
		maxCounts = math.Max(maxCounts, math.Max(countsDS[i], countsUS[i]))
	}
	gate := bulkCountsGate * maxCounts

	out.TDS = make([]float64, total)
	out.TUS = make([]float64, total)
	out.TDSError = make([]float64, total)
	out.TUSError = make([]float64, total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if countsDS[i] > gate || countsUS[i] > gate {
			e.SetFrameIndex(i)
			e.Refresh()

			if countsDS[i] > gate {
				ds := e.Downstream.Result()
				out.TDS[i], out.TDSError[i] = gated(ds.Temperature, ds.TemperatureError, e.errorLimit)
			}
			if countsUS[i] > gate {
				us := e.Upstream.Result()
				out.TUS[i], out.TUSError[i] = gated(us.Temperature, us.TemperatureError, e.errorLimit)
			}
		}

		if progress != nil {
			progress(i+1, total)
		}
	}
	return out, nil
}

// gated zeroes non-finite results and results with errors over the limit.
func gated(temp, tempErr, limit float64) (float64, float64) {
	if math.IsNaN(temp) || math.IsInf(temp, 0) || math.IsNaN(tempErr) || tempErr > limit {
		return 0, 0
	}
	return temp, tempErr
}
