// Package trail persists navigation sessions and their per-cycle
// diagnostic events to SQLite for later inspection and replay capture.
package trail

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/fusion"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/signals"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS nav_sessions (
	session_id   TEXT PRIMARY KEY,
	target       TEXT NOT NULL,
	outcome      TEXT,
	reason       TEXT,
	attempts     INTEGER NOT NULL DEFAULT 0,
	max_tier     INTEGER NOT NULL DEFAULT 0,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE TABLE IF NOT EXISTS nav_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	cycle         INTEGER NOT NULL,
	context       TEXT NOT NULL,
	tier          TEXT NOT NULL,
	confidence    REAL NOT NULL,
	state         TEXT NOT NULL,
	reason        TEXT,
	recovery_tier INTEGER NOT NULL DEFAULT 0,
	recals        INTEGER NOT NULL DEFAULT 0,
	signals_json  TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES nav_sessions(session_id)
);
`

// #endregion schema

// #region records

// SessionRecord summarizes one navigation session.
type SessionRecord struct {
	SessionID  string
	Target     string
	Outcome    string
	Reason     string
	Attempts   int
	MaxTier    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// EventRecord is one perception cycle as stored.
type EventRecord struct {
	SessionID    string
	Cycle        int
	Context      string
	Tier         fusion.Tier
	Confidence   float64
	State        nav.State
	Reason       string
	RecoveryTier int
	Recals       int
	Signals      []signals.Result
	CreatedAt    time.Time
}

// #endregion records

// #region store

// Store manages the navigation trail in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region sessions

// CreateSession registers a session at its start.
func (s *Store) CreateSession(sessionID, target string, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO nav_sessions (session_id, target, started_at) VALUES (?, ?, ?)`,
		sessionID, target, startedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FinishSession records the terminal outcome of a session.
func (s *Store) FinishSession(sessionID, outcome, reason string, attempts, maxTier int) error {
	_, err := s.db.Exec(
		`UPDATE nav_sessions SET outcome = ?, reason = ?, attempts = ?, max_tier = ?, finished_at = ?
		 WHERE session_id = ?`,
		outcome, reason, attempts, maxTier, time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// RecentSessions returns the most recently started sessions.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, target, outcome, reason, attempts, max_tier, started_at, finished_at
		 FROM nav_sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var outcome, reason, finished sql.NullString
		var started string
		if err := rows.Scan(&rec.SessionID, &rec.Target, &outcome, &reason,
			&rec.Attempts, &rec.MaxTier, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Outcome = outcome.String
		rec.Reason = reason.String
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion sessions

// #region events

// RecordEvent appends one perception cycle to the trail.
func (s *Store) RecordEvent(rec EventRecord) error {
	var signalsPtr interface{}
	if len(rec.Signals) > 0 {
		blob, err := json.Marshal(rec.Signals)
		if err != nil {
			return fmt.Errorf("marshal signals: %w", err)
		}
		signalsPtr = string(blob)
	}

	_, err := s.db.Exec(
		`INSERT INTO nav_events (session_id, cycle, context, tier, confidence, state, reason, recovery_tier, recals, signals_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Cycle, rec.Context, string(rec.Tier), rec.Confidence,
		string(rec.State), rec.Reason, rec.RecoveryTier, rec.Recals, signalsPtr,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns a session's trail in cycle order.
func (s *Store) ListEvents(sessionID string) ([]EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, cycle, context, tier, confidence, state, reason, recovery_tier, recals, signals_json, created_at
		 FROM nav_events WHERE session_id = ? ORDER BY cycle ASC, id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var rec EventRecord
		var tier, state, created string
		var reason, signalsJSON sql.NullString
		if err := rows.Scan(&rec.SessionID, &rec.Cycle, &rec.Context, &tier, &rec.Confidence,
			&state, &reason, &rec.RecoveryTier, &rec.Recals, &signalsJSON, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Tier = fusion.Tier(tier)
		rec.State = nav.State(state)
		rec.Reason = reason.String
		if signalsJSON.Valid {
			if err := json.Unmarshal([]byte(signalsJSON.String), &rec.Signals); err != nil {
				return nil, fmt.Errorf("unmarshal signals: %w", err)
			}
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion events
