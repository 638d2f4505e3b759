package storage

import (
	"context"
	"time"
)

// User identifies the Telegram sender of a question. One row per distinct
// user id; the first observed identity wins.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Exchange is a single completed question/answer pair. Appended exactly once
// per exchange, success or failure, and never mutated afterwards.
type Exchange struct {
	User          User
	Question      string
	Answer        string
	ExecutionTime float64 // seconds
	Error         bool
	Timestamp     time.Time
}

// Stats aggregates exchanges for the daily admin report.
type Stats struct {
	Exchanges     int
	DistinctUsers int
	Errors        int
	AvgExecution  float64 // seconds
}

// Recorder abstracts persistence of exchanges.
// Implementations must be safe for concurrent use; each call acquires its
// own connection, so no connection is held across an in-flight generation.
type Recorder interface {
	UpsertUser(ctx context.Context, u User) error
	RecordExchange(ctx context.Context, e Exchange) error
	// LastContact returns the timestamp of the user's most recent exchange,
	// or the zero time when the user has never been seen.
	LastContact(ctx context.Context, userID int64) (time.Time, error)
	Stats(ctx context.Context, since time.Time) (Stats, error)
	Close() error
}
