// Package storage archives fit outcomes in a sqlite database, one session
// per processing run. It complements the plain-text run log with a queryable
// history across runs.
package storage

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/radiant-lab/pyrometry/internal/runlog"
)

// Session is one processing run: a batch of files fit with a fixed
// experiment configuration.
type Session struct {
	ID        int64
	StartTime time.Time

	// Detector identifies the camera the session's frames came from.
	Detector string

	// Config is the JSON experiment configuration the session ran with, nil
	// when none was recorded.
	Config *string
}

// Store provides an interface for archiving and retrieving fit results.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateSession opens a new processing session and returns its unique
	// identifier. config may be a string, []byte, or any JSON-serializable
	// value; nil records no configuration.
	CreateSession(ctx context.Context, detector string, config any) (sessionID int64, err error)

	// Session retrieves one session by ID, nil when not found.
	Session(ctx context.Context, id int64) (*Session, error)

	// Sessions returns all sessions ordered by start time.
	Sessions(ctx context.Context) ([]*Session, error)

	// StoreRecords appends fit records to a session in a single transaction.
	StoreRecords(ctx context.Context, sessionID int64, records []runlog.Record) error

	// Records returns the fit records of a session in insertion order.
	Records(ctx context.Context, sessionID int64) ([]runlog.Record, error)

	// Close releases all database connections. It is safe to call multiple
	// times.
	Close() error
}
