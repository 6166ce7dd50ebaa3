package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time    DATETIME DEFAULT CURRENT_TIMESTAMP,
    detector      TEXT NOT NULL,
    config        TEXT
);

CREATE TABLE IF NOT EXISTS fit_records (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    INTEGER NOT NULL REFERENCES sessions(id),
    file          TEXT NOT NULL,
    frame         INTEGER NOT NULL,
    path          TEXT NOT NULL,
    t_ds          REAL,
    t_us          REAL,
    t_ds_error    REAL,
    t_us_error    REAL,
    detector      TEXT,
    exposure_time REAL,
    gain          REAL,
    scaling_ds    REAL,
    scaling_us    REAL,
    counts_ds     REAL,
    counts_us     REAL
);
`

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_fit_records_session ON fit_records(session_id);
CREATE INDEX IF NOT EXISTS idx_fit_records_file ON fit_records(session_id, file, frame);
`

const insertSessionSQL = `
INSERT INTO sessions (detector, config) VALUES (?, ?)`

const selectSessionSQL = `
SELECT id, start_time, detector, config FROM sessions WHERE id = ?`

const selectSessionsSQL = `
SELECT id, start_time, detector, config FROM sessions ORDER BY start_time`

const insertRecordSQL = `
    INSERT INTO fit_records (
        session_id,
        file,
        frame,
        path,
        t_ds,
        t_us,
        t_ds_error,
        t_us_error,
        detector,
        exposure_time,
        gain,
        scaling_ds,
        scaling_us,
        counts_ds,
        counts_us
    )
    VALUES `

const selectRecordsSQL = `
SELECT file, frame, path, t_ds, t_us, t_ds_error, t_us_error,
       detector, exposure_time, gain, scaling_ds, scaling_us, counts_ds, counts_us
FROM fit_records WHERE session_id = ? ORDER BY id`
