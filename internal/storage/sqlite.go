package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id    INTEGER PRIMARY KEY,
    username   TEXT,
    first_name TEXT,
    last_name  TEXT
);
CREATE TABLE IF NOT EXISTS logs (
    log_id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id        INTEGER,
    timestamp      INTEGER NOT NULL,
    question       TEXT NOT NULL,
    answer         TEXT NOT NULL,
    execution_time REAL NOT NULL,
    error          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_logs_user_ts ON logs(user_id, timestamp);
`

// SQLiteRecorder persists exchanges in a local SQLite database. Connections
// come from the database/sql pool per call; SQLite allows one writer at a
// time, so the pool is capped at a single connection.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteRecorder(path string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return &SQLiteRecorder{db: db, logger: logger}, nil
}

// UpsertUser records the user once; repeated calls for the same id are no-ops.
func (r *SQLiteRecorder) UpsertUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO users (user_id, username, first_name, last_name)
        VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordExchange(ctx context.Context, e Exchange) error {
	errFlag := 0
	if e.Error {
		errFlag = 1
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO logs (user_id, timestamp, question, answer, execution_time, error)
        VALUES (?, ?, ?, ?, ?, ?)`,
		e.User.ID, e.Timestamp.Unix(), e.Question, e.Answer, e.ExecutionTime, errFlag)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	r.logger.Debug("exchange recorded",
		zap.Int64("user_id", e.User.ID),
		zap.Bool("error", e.Error),
		zap.Float64("execution_time", e.ExecutionTime))
	return nil
}

func (r *SQLiteRecorder) LastContact(ctx context.Context, userID int64) (time.Time, error) {
	var ts sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(timestamp) FROM logs WHERE user_id = ?`, userID).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("last contact: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0), nil
}

func (r *SQLiteRecorder) Stats(ctx context.Context, since time.Time) (Stats, error) {
	var s Stats
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COUNT(DISTINCT user_id), COALESCE(SUM(error), 0), AVG(execution_time)
        FROM logs WHERE timestamp >= ?`, since.Unix()).
		Scan(&s.Exchanges, &s.DistinctUsers, &s.Errors, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	if avg.Valid {
		s.AvgExecution = avg.Float64
	}
	return s, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
