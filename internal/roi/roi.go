// Package roi tracks the rectangular detector regions the pipeline reduces to
// one-dimensional spectra, and provides the reductions themselves.
package roi

// SaturationLimit is the largest column maximum still considered unsaturated
// on the 16-bit detectors this pipeline targets.
const SaturationLimit = 65534

// Manager slot indices. Slots 0 and 1 hold the downstream and upstream signal
// regions; slots 2 and 3 hold the matching background regions.
const (
	Downstream = iota
	Upstream
	DownstreamBackground
	UpstreamBackground

	numSlots
)

// Roi is a rectangular region of a detector image, inclusive on all four
// bounds. X indexes wavelength columns, Y detector rows.
type Roi struct {
	XMin, XMax int
	YMin, YMax int
}

// NewRoi builds a region from [xMin, xMax, yMin, yMax] limits.
func NewRoi(limits [4]int) Roi {
	return Roi{XMin: limits[0], XMax: limits[1], YMin: limits[2], YMax: limits[3]}
}

// Limits returns the region as [xMin, xMax, yMin, yMax].
func (r Roi) Limits() [4]int {
	return [4]int{r.XMin, r.XMax, r.YMin, r.YMax}
}

// Width returns the number of wavelength columns covered.
func (r Roi) Width() int {
	if r.XMax < r.XMin {
		return 0
	}
	return r.XMax - r.XMin + 1
}

// clamp intersects the region with a width x height image. ok is false when
// the intersection is empty.
func (r Roi) clamp(width, height int) (Roi, bool) {
	if r.XMin < 0 {
		r.XMin = 0
	}
	if r.YMin < 0 {
		r.YMin = 0
	}
	if r.XMax > width-1 {
		r.XMax = width - 1
	}
	if r.YMax > height-1 {
		r.YMax = height - 1
	}
	if r.XMin > r.XMax || r.YMin > r.YMax || width <= 0 || height <= 0 {
		return r, false
	}
	return r, true
}

// Manager holds the four regions of a two-channel experiment. Regions are
// stored as given; they are intersected with the image dimension on every
// access so that a change of detector never invalidates saved limits.
type Manager struct {
	rois [numSlots]Roi
}

// NewManager creates a manager with all four regions spanning the given
// image dimension.
func NewManager(width, height int) *Manager {
	m := &Manager{}
	full := Roi{XMax: width - 1, YMax: height - 1}
	for i := range m.rois {
		m.rois[i] = full
	}
	return m
}

// Roi returns the region in the given slot intersected with a width x height
// image.
func (m *Manager) Roi(slot, width, height int) Roi {
	r, _ := m.rois[slot].clamp(width, height)
	return r
}

// SetRoi stores new limits for the given slot.
func (m *Manager) SetRoi(slot int, r Roi) {
	m.rois[slot] = r
}

// List returns the limits of all four regions in slot order.
func (m *Manager) List() [numSlots][4]int {
	var out [numSlots][4]int
	for i, r := range m.rois {
		out[i] = r.Limits()
	}
	return out
}
