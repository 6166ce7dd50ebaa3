package frame

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
)

// LoadFITS reads a detector readout from a FITS file. The primary HDU must
// be a 2-D or 3-D image; the third axis, when present, counts acquisition
// frames. Signed 16-bit, 32-bit integer and 32/64-bit float pixels are
// supported, with BZERO/BSCALE applied when present. The wavelength axis
// comes from the linear CRVAL1/CDELT1/CRPIX1 solution and falls back to
// plain pixel indices when no solution is recorded.
func LoadFITS(path string) (*Frame, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer f.Close()

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%s: primary HDU is not an image", path)
	}

	hdr := img.Header()
	axes := hdr.Axes()

	var width, height, frames int
	switch len(axes) {
	case 2:
		width, height, frames = axes[0], axes[1], 1
	case 3:
		width, height, frames = axes[0], axes[1], axes[2]
	default:
		return nil, fmt.Errorf("%s: unsupported image dimensionality %d", path, len(axes))
	}
	if width <= 0 || height <= 0 || frames <= 0 {
		return nil, fmt.Errorf("%s: degenerate image axes %v", path, axes)
	}

	pixels, err := readPixels(img, hdr.Bitpix(), width*height*frames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bzero, bscale := cardFloat(hdr, "BZERO", 0), cardFloat(hdr, "BSCALE", 1)
	if bzero != 0 || bscale != 1 {
		for i := range pixels {
			pixels[i] = bzero + bscale*pixels[i]
		}
	}

	out := &Frame{
		Planes:       make([][][]float64, frames),
		Wavelength:   wavelengthAxis(hdr, width),
		Detector:     cardString(hdr, "DETECTOR", cardString(hdr, "INSTRUME", "")),
		ExposureTime: cardFloat(hdr, "EXPTIME", 0),
		Gain:         cardFloat(hdr, "GAIN", 0),
		Filename:     path,
	}
	for fi := 0; fi < frames; fi++ {
		plane := make([][]float64, height)
		for y := 0; y < height; y++ {
			start := (fi*height + y) * width
			plane[y] = pixels[start : start+width : start+width]
		}
		out.Planes[fi] = plane
	}
	return out, nil
}

func readPixels(img fitsio.Image, bitpix, n int) ([]float64, error) {
	out := make([]float64, n)

	switch bitpix {
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("reading int16 pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("reading int32 pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("reading float32 pixels: %w", err)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -64:
		if err := img.Read(&out); err != nil {
			return nil, fmt.Errorf("reading float64 pixels: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	return out, nil
}

// wavelengthAxis evaluates the linear spectral WCS of the first image axis.
// FITS pixel coordinates are one-based.
func wavelengthAxis(hdr *fitsio.Header, width int) []float64 {
	out := make([]float64, width)

	crval := cardFloat(hdr, "CRVAL1", 0)
	cdelt := cardFloat(hdr, "CDELT1", 0)
	crpix := cardFloat(hdr, "CRPIX1", 1)
	if cdelt == 0 {
		for i := range out {
			out[i] = float64(i)
		}
		return out
	}

	for i := range out {
		out[i] = crval + (float64(i+1)-crpix)*cdelt
	}
	return out
}

func cardFloat(hdr *fitsio.Header, name string, def float64) float64 {
	card := hdr.Get(name)
	if card == nil {
		return def
	}
	switch v := card.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

func cardString(hdr *fitsio.Header, name, def string) string {
	card := hdr.Get(name)
	if card == nil {
		return def
	}
	if s, ok := card.Value.(string); ok {
		return s
	}
	return def
}
