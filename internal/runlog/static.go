package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// StaticRecordManager keeps one record per data file, ordered by file
// modification time. It backs batch experiments where every file in a
// directory maps to one fit outcome that may be refined as frames are
// re-processed.
type StaticRecordManager struct {
	records map[string]Record
}

// NewStaticRecordManager creates an empty manager.
func NewStaticRecordManager() *StaticRecordManager {
	return &StaticRecordManager{records: make(map[string]Record)}
}

// InitializeDir seeds the table with one empty record per file in dir
// matching ext (e.g. ".fits"), timestamped with the file modification time.
// Existing entries for the same file names are kept.
func (m *StaticRecordManager) InitializeDir(dir, ext string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading data directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		if _, ok := m.records[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		m.records[e.Name()] = Record{
			File:      e.Name(),
			Path:      dir,
			Timestamp: info.ModTime(),
		}
	}
	return nil
}

// Update stores a record under its file name, preserving the timestamp of an
// existing entry so that re-fitting a file never reorders the table. Records
// for unknown files are timestamped now.
func (m *StaticRecordManager) Update(r Record) {
	if prev, ok := m.records[r.File]; ok && !prev.Timestamp.IsZero() {
		r.Timestamp = prev.Timestamp
	} else if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	m.records[r.File] = r
}

// UpdateFromLog folds every parsable record of the log at path into the
// table. Later log lines for the same file win.
func (m *StaticRecordManager) UpdateFromLog(path string) error {
	records, err := TailRecords(path, 1<<31-1)
	if err != nil {
		return err
	}
	for _, r := range records {
		m.Update(r)
	}
	return nil
}

// Record returns the entry for a file name.
func (m *StaticRecordManager) Record(file string) (Record, bool) {
	r, ok := m.records[file]
	return r, ok
}

// Len returns the number of tracked files.
func (m *StaticRecordManager) Len() int { return len(m.records) }

// Records returns all entries ordered by timestamp, oldest first; ties break
// by file name for a stable order.
func (m *StaticRecordManager) Records() []Record {
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].File < out[j].File
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// LastN returns the n most recent entries in chronological order.
func (m *StaticRecordManager) LastN(n int) []Record {
	all := m.Records()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Index returns the position of a file in the chronological order.
func (m *StaticRecordManager) Index(file string) (int, bool) {
	for i, r := range m.Records() {
		if r.File == file {
			return i, true
		}
	}
	return 0, false
}
