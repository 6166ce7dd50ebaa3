package runlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultErrorLimit is the fit error, in kelvin, above which temperatures
// are logged as 0.
const DefaultErrorLimit = 200

// Writer appends fit records to the run log of a working directory. Records
// are flushed to disk one by one, so a crashed run loses at most the record
// being written. Writer is not safe for concurrent use.
type Writer struct {
	f          *os.File
	path       string
	errorLimit float64
}

// NewWriter opens (or creates) the run log in dir. The column header is
// written only when the file is new or empty, so logs survive across runs.
func NewWriter(dir string) (*Writer, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat run log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := fmt.Fprintln(f, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing run log header: %w", err)
		}
	}

	return &Writer{f: f, path: path, errorLimit: DefaultErrorLimit}, nil
}

// Path returns the location of the log file.
func (w *Writer) Path() string { return w.path }

// ErrorLimit returns the active fit error limit in kelvin.
func (w *Writer) ErrorLimit() float64 { return w.errorLimit }

// SetErrorLimit changes the fit error limit applied to subsequent appends.
func (w *Writer) SetErrorLimit(limit float64) { w.errorLimit = limit }

// Append writes one record to the log.
func (w *Writer) Append(r Record) error {
	if _, err := fmt.Fprintln(w.f, r.encode(w.errorLimit)); err != nil {
		return fmt.Errorf("appending run log record: %w", err)
	}
	return nil
}

// Clear truncates the log back to just the header.
func (w *Writer) Clear() error {
	if err := w.f.Truncate(0); err != nil {
		return fmt.Errorf("truncating run log: %w", err)
	}
	if _, err := w.f.Seek(0, 0); err != nil {
		return fmt.Errorf("rewinding run log: %w", err)
	}
	if _, err := fmt.Fprintln(w.f, header); err != nil {
		return fmt.Errorf("writing run log header: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}
