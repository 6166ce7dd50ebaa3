package runlog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TailRecords loads the most recent n records from the log at path. Header
// lines, including headers repeated mid-file by appended runs, and unparsable
// lines are skipped. Memory stays bounded by n regardless of log size.
func TailRecords(path string, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	ring := make([]Record, 0, min(n, 1024))
	next := 0

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" || isHeader(line) {
			continue
		}
		r, err := parseRecord(line)
		if err != nil {
			continue
		}
		if len(ring) < n {
			ring = append(ring, r)
		} else {
			ring[next] = r
			next = (next + 1) % n
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}

	// unwrap the ring into chronological order
	if len(ring) == n && next != 0 {
		out := make([]Record, 0, n)
		out = append(out, ring[next:]...)
		out = append(out, ring[:next]...)
		return out, nil
	}
	return ring, nil
}

// History is a bounded in-memory record buffer for recent-result views. The
// oldest record is dropped once capacity is reached.
type History struct {
	cap     int
	records []Record
}

// NewHistory creates a buffer holding at most n records.
func NewHistory(n int) *History {
	return &History{cap: n}
}

// Append adds a record, evicting the oldest when full.
func (h *History) Append(r Record) {
	if h.cap <= 0 {
		return
	}
	if len(h.records) == h.cap {
		copy(h.records, h.records[1:])
		h.records[len(h.records)-1] = r
		return
	}
	h.records = append(h.records, r)
}

// Len returns the number of buffered records.
func (h *History) Len() int { return len(h.records) }

// Records returns the buffered records, oldest first. The returned slice is
// a copy.
func (h *History) Records() []Record {
	return append([]Record(nil), h.records...)
}

// Temperatures returns the downstream and upstream temperature series of the
// buffered records, oldest first.
func (h *History) Temperatures() (ds, us []float64) {
	ds = make([]float64, len(h.records))
	us = make([]float64, len(h.records))
	for i, r := range h.records {
		ds[i] = r.TDS
		us[i] = r.TUS
	}
	return ds, us
}
