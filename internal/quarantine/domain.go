// internal/quarantine/domain.go
package quarantine

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no quarantine record exists for the member.
var ErrNotFound = errors.New("quarantined member not found")

// Record is the snapshot taken of a member at soft-delete time. It keeps
// the member's identity, so a member is either live or quarantined but
// never has two quarantine rows.
type Record struct {
	MemberID        uuid.UUID  `json:"member_id"`
	Name            string     `json:"name"`
	PhoneNumber     string     `json:"phone_number"`
	Gender          string     `json:"gender,omitempty"`
	MembershipType  string     `json:"membership_type"`
	MembershipStart time.Time  `json:"membership_start_date"`
	MembershipEnd   time.Time  `json:"membership_end_date"`
	LockerNumber    *int       `json:"locker_number,omitempty"`
	LockerType      *string    `json:"locker_type,omitempty"`
	LockerStart     *time.Time `json:"locker_start_date,omitempty"`
	LockerEnd       *time.Time `json:"locker_end_date,omitempty"`
	UniformType     *string    `json:"uniform_type,omitempty"`
	UniformStart    *time.Time `json:"uniform_start_date,omitempty"`
	UniformEnd      *time.Time `json:"uniform_end_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       time.Time  `json:"deleted_at"`
}

// expired reports whether the record has reached the retention window.
// A record deleted exactly retention ago is already purgeable.
func expired(deletedAt, now time.Time, retention time.Duration) bool {
	return now.Sub(deletedAt) >= retention
}
