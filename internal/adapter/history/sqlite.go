// Package history persists completed-session transcripts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mockview/internal/domain"
)

// SQLiteArchiver implements domain.TranscriptArchiver using SQLite.
// Turns are stored as a JSON column; the transcript is written once at
// session completion and only ever read whole, so relational turn rows
// would buy nothing.
type SQLiteArchiver struct {
	db *sql.DB
}

// NewSQLiteArchiver opens (or creates) a SQLite database at dbPath and
// runs the schema migration.
func NewSQLiteArchiver(dbPath string) (*SQLiteArchiver, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate transcript db: %w", err)
	}
	return &SQLiteArchiver{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			session_id   TEXT PRIMARY KEY,
			started_at   TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			phase        TEXT NOT NULL,
			turns        TEXT NOT NULL DEFAULT '[]',
			summary      TEXT NOT NULL DEFAULT '',
			total_cost   REAL NOT NULL DEFAULT 0
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteArchiver) Close() error {
	return s.db.Close()
}

// Archive implements domain.TranscriptArchiver. Re-archiving a session
// replaces the previous record; the reaper and an explicit end request
// can race on the same session.
func (s *SQLiteArchiver) Archive(ctx context.Context, rec domain.TranscriptRecord) error {
	turnsJSON, err := json.Marshal(rec.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transcripts
			(session_id, started_at, completed_at, phase, turns, summary, total_cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
		string(rec.Phase),
		string(turnsJSON),
		rec.Summary,
		rec.TotalCost,
	)
	if err != nil {
		return domain.NewDomainError("SQLiteArchiver.Archive", domain.ErrArchiveWrite, err.Error())
	}
	return nil
}

// Get implements domain.TranscriptArchiver.
func (s *SQLiteArchiver) Get(ctx context.Context, sessionID string) (*domain.TranscriptRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT session_id, started_at, completed_at, phase, turns, summary, total_cost FROM transcripts WHERE session_id = ?",
		sessionID,
	)
	rec, err := scanTranscript(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.NewDomainError("SQLiteArchiver.Get", domain.ErrSessionNotFound, sessionID)
	}
	return rec, err
}

// List implements domain.TranscriptArchiver. Records come back newest
// first.
func (s *SQLiteArchiver) List(ctx context.Context, limit int) ([]domain.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, started_at, completed_at, phase, turns, summary, total_cost FROM transcripts ORDER BY completed_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TranscriptRecord
	for rows.Next() {
		rec, err := scanTranscript(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanTranscript(scan func(dest ...any) error) (*domain.TranscriptRecord, error) {
	var rec domain.TranscriptRecord
	var phase, turnsStr, startedStr, completedStr string
	if err := scan(&rec.SessionID, &startedStr, &completedStr, &phase, &turnsStr, &rec.Summary, &rec.TotalCost); err != nil {
		return nil, err
	}
	rec.Phase = domain.InterviewPhase(phase)
	if err := json.Unmarshal([]byte(turnsStr), &rec.Turns); err != nil {
		return nil, fmt.Errorf("unmarshal turns: %w", err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedStr)
	return &rec, nil
}

var _ domain.TranscriptArchiver = (*SQLiteArchiver)(nil)
