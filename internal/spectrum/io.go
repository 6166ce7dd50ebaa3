package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// candidate column delimiters, tried in order. An empty delimiter means any
// run of whitespace.
var delimiters = []string{",", ";", "\t", ""}

// Load reads a two-column text spectrum from path. Lines starting with '#'
// and blank lines are skipped. The column delimiter is detected automatically
// among comma, semicolon, tab and whitespace; the first delimiter that splits
// every data line into two or more numeric columns wins.
func Load(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening spectrum file: %w", err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

// Read parses a two-column text spectrum from r. See Load.
func Read(r io.Reader) (*Spectrum, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no data lines")
	}

	for _, delim := range delimiters {
		x, y, ok := parseColumns(lines, delim)
		if ok {
			return New(x, y), nil
		}
	}
	return nil, fmt.Errorf("unrecognized column format")
}

func parseColumns(lines []string, delim string) (x, y []float64, ok bool) {
	x = make([]float64, 0, len(lines))
	y = make([]float64, 0, len(lines))
	for _, line := range lines {
		var cols []string
		if delim == "" {
			cols = strings.Fields(line)
		} else {
			cols = strings.Split(line, delim)
		}
		if len(cols) < 2 {
			return nil, nil, false
		}
		xv, err := strconv.ParseFloat(strings.TrimSpace(cols[0]), 64)
		if err != nil {
			return nil, nil, false
		}
		yv, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64)
		if err != nil {
			return nil, nil, false
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	return x, y, true
}

// Save writes the spectrum to path as two whitespace-separated columns with a
// '#' comment header. The raw stored arrays are written, not the transformed
// view.
func (s *Spectrum) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating spectrum file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# wavelength intensity")
	for i := range s.y {
		fmt.Fprintf(w, "%.18e %.18e\n", s.x[i], s.y[i])
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing spectrum file: %w", err)
	}
	return nil
}
