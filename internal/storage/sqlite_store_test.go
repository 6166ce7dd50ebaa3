package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/radiant-lab/pyrometry/internal/runlog"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s := NewSqliteStore(filepath.Join(t.TempDir(), "archive.db"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndReadSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, "PIXIS-256", map[string]any{"fit_function": "planck"})
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}
	if id <= 0 {
		t.Fatalf("session ID = %d, want positive", id)
	}

	sess, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	if sess.Detector != "PIXIS-256" {
		t.Errorf("detector = %q, want PIXIS-256", sess.Detector)
	}
	if sess.Config == nil || *sess.Config != `{"fit_function":"planck"}` {
		t.Errorf("config = %v, want recorded JSON", sess.Config)
	}

	all, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() error: %v", err)
	}
	if len(all) != 1 || all[0].ID != id {
		t.Errorf("Sessions() = %v, want the created session", all)
	}
}

func TestStoreAndReadRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, "PIXIS-256", nil)
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	records := []runlog.Record{
		{
			File: "a.fits", Frame: 0, Path: "/data",
			TDS: 2500.5, TUS: 2601.2, TDSError: 12, TUSError: 15,
			Detector: "PIXIS-256", ExposureTime: 0.5, Gain: 2,
			ScalingDS: 1.2e-11, ScalingUS: 3.4e-11,
			CountsDS: 1e5, CountsUS: 2e5,
		},
		{
			File: "a.fits", Frame: 1, Path: "/data",
			TDS: math.NaN(), TUS: 2602, TDSError: math.NaN(), TUSError: 16,
			CountsDS: 10, CountsUS: 2e5,
		},
	}
	if err := s.StoreRecords(ctx, id, records); err != nil {
		t.Fatalf("StoreRecords() error: %v", err)
	}

	got, err := s.Records(ctx, id)
	if err != nil {
		t.Fatalf("Records() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	if got[0].TDS != 2500.5 || got[0].Frame != 0 || got[0].File != "a.fits" {
		t.Errorf("record 0 = %+v", got[0])
	}
	if got[0].ScalingDS != 1.2e-11 {
		t.Errorf("scaling = %v, want 1.2e-11", got[0].ScalingDS)
	}

	// NaN round-trips through NULL
	if !math.IsNaN(got[1].TDS) || !math.IsNaN(got[1].TDSError) {
		t.Errorf("record 1 = %+v, want NaN temperatures", got[1])
	}
	if got[1].TUS != 2602 {
		t.Errorf("record 1 TUS = %v, want 2602", got[1].TUS)
	}
}

func TestStoreRecordsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.StoreRecords(context.Background(), 1, nil); err != nil {
		t.Errorf("StoreRecords(nil) error: %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateSession(context.Background(), "d", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
