// internal/attendance/service.go
package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for the attendance ledger.
type Service interface {
	// Open creates a session with the current time as check-in and arms
	// its auto-expiry timer.
	Open(ctx context.Context, memberID uuid.UUID) (*Session, error)
	// OpenAt creates a session with an explicit check-in time (backfill
	// path). A check-in already past the cap is written closed.
	OpenAt(ctx context.Context, memberID uuid.UUID, checkin time.Time) (*Session, error)
	// Close sets the checkout time on an open session. Closing a closed
	// session returns ErrAlreadyClosed with the row unchanged.
	Close(ctx context.Context, sessionID uuid.UUID, at time.Time) (*Session, error)
	// OpenFor returns the member's open session, or nil when none exists.
	OpenFor(ctx context.Context, memberID uuid.UUID) (*Session, error)
	// ListToday returns today's sessions, most recent first.
	ListToday(ctx context.Context, page, size int) ([]Session, int, error)
	// ListForMonth returns a member's sessions for a calendar month.
	ListForMonth(ctx context.Context, memberID uuid.UUID, year, month int) ([]Session, error)
	// CloseStale force-closes every open session past the cap, returning
	// how many it closed. Per-row failures are logged, not fatal.
	CloseStale(ctx context.Context) (int, error)
	// RearmTimers re-arms auto-expiry timers for sessions that were open
	// when the process last stopped.
	RearmTimers(ctx context.Context) error
}
