// Package activity records account activity events
// every event is logged; when clickhouse is configured it is also stored in activity_events
package activity

import (
	"context"
	"time"

	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"
)

// Event names
const (
	AccountDeleted = "account.deleted"
)

// Inserter is the columnar write the sink needs
type Inserter interface {
	Insert(ctx context.Context, table string, rows [][]any) error
}

// Event is one activity record
type Event struct {
	UID    string
	Event  string
	Reason string
	At     time.Time
}

// Logger writes activity events
type Logger struct {
	ch  Inserter
	log *logger.Logger
	now func() time.Time
}

// New returns a Logger; ch may be nil
func New(ch Inserter) *Logger {
	return &Logger{ch: ch, log: logger.Named("activity"), now: time.Now}
}

// Record logs e and stores it when a sink is configured
// a storage failure is returned so the caller decides whether it matters
func (l *Logger) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = l.now().UTC()
	}
	l.log.Info().
		Str("event", e.Event).
		Str("uid", e.UID).
		Str("reason", e.Reason).
		Time("at", e.At).
		Msg("activity")
	if l.ch == nil {
		return nil
	}
	if err := l.ch.Insert(ctx, "activity_events", [][]any{{e.At, e.UID, e.Event, e.Reason}}); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "activity: insert event")
	}
	return nil
}
