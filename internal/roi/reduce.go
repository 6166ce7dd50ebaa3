package roi

// dimension returns width and height of a row-major image.
func dimension(img [][]float64) (width, height int) {
	if len(img) == 0 {
		return 0, 0
	}
	return len(img[0]), len(img)
}

// ColumnSum reduces the region to a spectrum: for every wavelength column in
// the region, the sum of the covered detector rows. A region with no overlap
// with the image yields an empty slice.
func ColumnSum(img [][]float64, r Roi) []float64 {
	w, h := dimension(img)
	r, ok := r.clamp(w, h)
	if !ok {
		return nil
	}

	out := make([]float64, r.XMax-r.XMin+1)
	for y := r.YMin; y <= r.YMax; y++ {
		row := img[y]
		for x := r.XMin; x <= r.XMax; x++ {
			out[x-r.XMin] += row[x]
		}
	}
	return out
}

// Max returns the largest single pixel value inside the region, or 0 when the
// region does not overlap the image.
func Max(img [][]float64, r Roi) float64 {
	w, h := dimension(img)
	r, ok := r.clamp(w, h)
	if !ok {
		return 0
	}

	max := img[r.YMin][r.XMin]
	for y := r.YMin; y <= r.YMax; y++ {
		for x := r.XMin; x <= r.XMax; x++ {
			if img[y][x] > max {
				max = img[y][x]
			}
		}
	}
	return max
}

// ColumnsWithinLimit reports, for every wavelength column in the region,
// whether all covered pixels stay at or below limit. The result aligns with
// ColumnSum and is used as the saturation mask of the reduced spectrum.
func ColumnsWithinLimit(img [][]float64, r Roi, limit float64) []bool {
	w, h := dimension(img)
	r, ok := r.clamp(w, h)
	if !ok {
		return nil
	}

	out := make([]bool, r.XMax-r.XMin+1)
	for i := range out {
		out[i] = true
	}
	for y := r.YMin; y <= r.YMax; y++ {
		row := img[y]
		for x := r.XMin; x <= r.XMax; x++ {
			if row[x] > limit {
				out[x-r.XMin] = false
			}
		}
	}
	return out
}
