// Package frame models detector readouts: one or more two-dimensional image
// planes sharing a wavelength axis, plus the acquisition metadata carried in
// the container file. It loads FITS files and resolves calibration frame
// selections into single images.
package frame

// Frame is a detector readout. Planes holds one image per acquisition frame
// in row-major layout (Planes[f][row][column]); columns index wavelength.
type Frame struct {
	Planes     [][][]float64
	Wavelength []float64

	Detector     string
	ExposureTime float64 // seconds
	Gain         float64

	// Filename is the path the frame was loaded from, empty for synthetic
	// frames.
	Filename string
}

// New creates a single-plane frame over an image and wavelength axis.
func New(img [][]float64, wavelength []float64) *Frame {
	return &Frame{Planes: [][][]float64{img}, Wavelength: wavelength}
}

// NumFrames returns the number of image planes.
func (f *Frame) NumFrames() int { return len(f.Planes) }

// Plane returns the image plane at index i, clamped into the valid range so
// that stale frame indices from a previous file never panic.
func (f *Frame) Plane(i int) [][]float64 {
	if len(f.Planes) == 0 {
		return nil
	}
	if i < 0 {
		i = 0
	}
	if i >= len(f.Planes) {
		i = len(f.Planes) - 1
	}
	return f.Planes[i]
}

// Dimension returns the width (wavelength columns) and height (detector
// rows) of the image planes.
func (f *Frame) Dimension() (width, height int) {
	if len(f.Planes) == 0 || len(f.Planes[0]) == 0 {
		return 0, 0
	}
	return len(f.Planes[0][0]), len(f.Planes[0])
}
