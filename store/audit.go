package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lattice-fix/fixengine/wire"
)

// Audit is a secondary, human-queryable record of session lifecycle
// events: connects, logons, rejects, disconnects. It supplements
// Persistent rather than replacing it — Persistent is what a resend
// request is served from; Audit is what an operator runs ad hoc SQL
// against. The database runs in WAL mode for concurrent-reader safety,
// and a single prepared insert statement, shared by every event kind, is
// reused across the session's lifetime.
type Audit struct {
	db *sql.DB

	stmtEvent *sql.Stmt
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS session_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	seq INTEGER,
	kind TEXT NOT NULL,
	detail TEXT,
	ts_nanos INTEGER NOT NULL
);
`

const insertEventQuery = `
INSERT INTO session_events (session_id, seq, kind, detail, ts_nanos)
VALUES (?, ?, ?, ?, ?);
`

// OpenAudit opens (creating if absent) a WAL-mode SQLite database at
// dbPath for session event logging.
func OpenAudit(dbPath string) (*Audit, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("store: open audit db: %w", err)
	}
	if _, err := db.Exec(createEventsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init audit schema: %w", err)
	}
	stmt, err := db.Prepare(insertEventQuery)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: prepare audit insert: %w", err)
	}
	return &Audit{db: db, stmtEvent: stmt}, nil
}

// RecordEvent appends a lifecycle event. seq is the associated sequence
// number, or 0 for events with no sequence association (e.g. Connect).
func (a *Audit) RecordEvent(sessionID string, seq wire.SeqNum, kind, detail string, tsNanos int64) error {
	_, err := a.stmtEvent.Exec(sessionID, int64(seq), kind, detail, tsNanos)
	return err
}

// Events returns every recorded event for sessionID in chronological
// order, for operator queries and tests.
func (a *Audit) Events(sessionID string) ([]AuditEvent, error) {
	rows, err := a.db.Query(
		`SELECT seq, kind, detail, ts_nanos FROM session_events WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.Seq, &e.Kind, &e.Detail, &e.TimestampNanos); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AuditEvent is one recorded session lifecycle event.
type AuditEvent struct {
	Seq            wire.SeqNum
	Kind           string
	Detail         string
	TimestampNanos int64
}

// Close closes the prepared statement and the database handle.
func (a *Audit) Close() error {
	if a.stmtEvent != nil {
		_ = a.stmtEvent.Close()
	}
	return a.db.Close()
}
