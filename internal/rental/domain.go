// internal/rental/domain.go
package rental

import (
	"errors"
	"time"
)

var (
	ErrAlreadyRenting      = errors.New("member already has an active rental")
	ErrLockerTaken         = errors.New("locker is already in use")
	ErrInvalidLockerNumber = errors.New("locker number out of range")
	ErrInvalidTerm         = errors.New("invalid rental term")
	ErrNoRental            = errors.New("member has no active rental")
)

const (
	minLockerNumber = 1
	maxLockerNumber = 100
)

var termMonths = map[int]bool{1: true, 3: true, 6: true, 12: true}

// Locker is a member's locker rental, stored on the member row.
type Locker struct {
	LockerNumber int       `json:"locker_number"`
	LockerType   string    `json:"locker_type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

// Uniform is a member's uniform rental.
type Uniform struct {
	UniformType string    `json:"uniform_type"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func validLockerNumber(n int) bool {
	return n >= minLockerNumber && n <= maxLockerNumber
}

func validTerm(months int) bool {
	return termMonths[months]
}

// rentalEndDate is the last covered day of a rental term.
func rentalEndDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, -1)
}
