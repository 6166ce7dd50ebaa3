package frame

// CalibrationSource selects which planes of a calibration readout define the
// lamp measurement: a single frame, or a contiguous frame range averaged
// pixel by pixel. Construct values with SingleFrame or FrameRange.
type CalibrationSource struct {
	frame *Frame
	start int
	end   int
}

// SingleFrame selects one plane.
func SingleFrame(f *Frame, index int) CalibrationSource {
	return CalibrationSource{frame: f, start: index, end: index}
}

// FrameRange selects the inclusive plane range [start, end]. The bounds are
// normalized and clamped on resolution.
func FrameRange(f *Frame, start, end int) CalibrationSource {
	if end < start {
		start, end = end, start
	}
	return CalibrationSource{frame: f, start: start, end: end}
}

// Frame returns the underlying readout, nil for the zero source.
func (s CalibrationSource) Frame() *Frame { return s.frame }

// Bounds returns the selected inclusive plane range.
func (s CalibrationSource) Bounds() (start, end int) { return s.start, s.end }

// Resolve averages the selected planes into a single calibration image. A
// zero source resolves to nil.
func (s CalibrationSource) Resolve() [][]float64 {
	if s.frame == nil || s.frame.NumFrames() == 0 {
		return nil
	}

	start, end := s.start, s.end
	if start < 0 {
		start = 0
	}
	if end > s.frame.NumFrames()-1 {
		end = s.frame.NumFrames() - 1
	}
	if start > end {
		return nil
	}

	if start == end {
		return s.frame.Plane(start)
	}

	width, height := s.frame.Dimension()
	out := make([][]float64, height)
	for y := range out {
		out[y] = make([]float64, width)
	}
	for fi := start; fi <= end; fi++ {
		plane := s.frame.Planes[fi]
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				out[y][x] += plane[y][x]
			}
		}
	}
	n := float64(end - start + 1)
	for y := range out {
		for x := range out[y] {
			out[y][x] /= n
		}
	}
	return out
}
