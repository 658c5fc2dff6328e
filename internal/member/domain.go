// internal/member/domain.go
package member

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("member not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
	ErrInvalidPhone   = errors.New("invalid phone number")
)

// Member represents a gym member. CheckinTime and CheckoutTime mirror the
// member's most recent attendance session for O(1) status reads; they are
// written in the same transaction as the ledger row they reflect.
type Member struct {
	ID              uuid.UUID  `json:"member_id"`
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
	Active          bool       `json:"active"`
	CheckinTime     *time.Time `json:"checkin_time,omitempty"`
	CheckoutTime    *time.Time `json:"checkout_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateParams carries the fields needed to register a member. The
// membership end date is derived from the start date and duration.
type CreateParams struct {
	Name            string    `json:"name"`
	PhoneNumber     string    `json:"phone_number"`
	Gender          string    `json:"gender"`
	MembershipType  string    `json:"membership_type"`
	MembershipStart time.Time `json:"membership_start_date"`
	DurationMonths  int       `json:"duration_months"`
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Name            *string    `json:"name,omitempty"`
	PhoneNumber     *string    `json:"phone_number,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	MembershipType  *string    `json:"membership_type,omitempty"`
	MembershipStart *time.Time `json:"membership_start_date,omitempty"`
	MembershipEnd   *time.Time `json:"membership_end_date,omitempty"`
}

// ListParams filters and paginates the admin member list.
type ListParams struct {
	Page   int
	Size   int
	Search string
	Status string // "", "active", "inactive", "expiring_soon"
}

// MembershipEndDate is the last covered day: start plus the term, minus
// one day.
func MembershipEndDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, -1)
}
