// internal/attendance/domain.go
package attendance

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyCheckedIn = errors.New("member already has an open session")
	ErrAlreadyClosed    = errors.New("session already closed")
	ErrNotFound         = errors.New("session not found")
)

// Session is one attendance ledger row. A session is open while
// CheckoutTime is nil; closing it is the only mutation it ever sees.
type Session struct {
	ID           uuid.UUID  `json:"session_id"`
	MemberID     uuid.UUID  `json:"member_id"`
	CheckinTime  time.Time  `json:"checkin_time"`
	CheckoutTime *time.Time `json:"checkout_time,omitempty"`
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.CheckoutTime == nil
}

// CloseAt transitions the session to closed. Closed is terminal: closing
// twice returns ErrAlreadyClosed and leaves the first checkout time
// untouched. The checkout time never precedes the check-in time.
func (s *Session) CloseAt(at time.Time) error {
	if s.CheckoutTime != nil {
		return ErrAlreadyClosed
	}
	if at.Before(s.CheckinTime) {
		at = s.CheckinTime
	}
	s.CheckoutTime = &at
	return nil
}

// Duration is the closed session's length, zero while open.
func (s *Session) Duration() time.Duration {
	if s.CheckoutTime == nil {
		return 0
	}
	return s.CheckoutTime.Sub(s.CheckinTime)
}

// staleBy reports whether a session checked in at checkin has exceeded
// cap as of now.
func staleBy(checkin, now time.Time, cap time.Duration) bool {
	return now.Sub(checkin) >= cap
}

// initialCheckout returns the checkout time a new ledger row must be
// created with. A check-in recorded with a timestamp already past the
// cap is written closed, never left open.
func initialCheckout(checkin, now time.Time, cap time.Duration) *time.Time {
	if staleBy(checkin, now, cap) {
		return &now
	}
	return nil
}
