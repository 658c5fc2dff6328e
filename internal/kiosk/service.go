// internal/kiosk/service.go
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"gymgate/internal/attendance"
	"gymgate/internal/member"
	"gymgate/internal/quarantine"
)

var (
	ErrMemberSuspended   = errors.New("member is suspended, ask at the front desk")
	ErrMembershipExpired = errors.New("membership has expired")
	ErrNotCheckedIn      = errors.New("no open session for member")
	ErrInvalidPhoneTail  = errors.New("enter exactly the last 4 digits of the phone number")
	ErrStoreUnavailable  = errors.New("service temporarily unavailable")
)

// Warning is attached to a successful check-in result.
type Warning struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	DaysRemaining int    `json:"days_remaining"`
}

// CheckInResult is what the kiosk displays after a successful check-in.
type CheckInResult struct {
	Status        string    `json:"status"`
	MemberName    string    `json:"member_name"`
	MembershipEnd string    `json:"membership_end_date"`
	SessionID     uuid.UUID `json:"session_id"`
	CheckinTime   string    `json:"checkin_time"`
	Warnings      []Warning `json:"warnings"`
}

// CheckOutResult reports the closed session and its length.
type CheckOutResult struct {
	Status          string    `json:"status"`
	MemberName      string    `json:"member_name"`
	SessionID       uuid.UUID `json:"session_id"`
	CheckinTime     string    `json:"checkin_time"`
	CheckoutTime    string    `json:"checkout_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Candidate is one row of a phone-tail search result.
type Candidate struct {
	MemberID    uuid.UUID  `json:"member_id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	CheckinTime *time.Time `json:"checkin_time,omitempty"`
}

// Facade orchestrates kiosk check-in and checkout across the member
// store, the attendance ledger and the quarantine lifecycle. Store access
// runs behind a circuit breaker so a dead database fails fast at the
// kiosk instead of queueing taps.
type Facade struct {
	members    member.Service
	ledger     attendance.Service
	quarantine quarantine.Service
	warnDays   int
	breaker    *gobreaker.CircuitBreaker
	location   *time.Location
	now        func() time.Time
}

func NewFacade(members member.Service, ledger attendance.Service, q quarantine.Service,
	warnDays int, location *time.Location) *Facade {
	return &Facade{
		members:    members,
		ledger:     ledger,
		quarantine: q,
		warnDays:   warnDays,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "kiosk-store",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// Domain rejections are not store failures.
				return err == nil || !errors.Is(err, errStore)
			},
		}),
		location: location,
		now:      time.Now,
	}
}

// errStore marks infrastructure failures for the breaker.
var errStore = errors.New("store failure")

func (f *Facade) CheckIn(ctx context.Context, memberID uuid.UUID) (*CheckInResult, error) {
	result, err := f.execute(func() (any, error) {
		return f.checkIn(ctx, memberID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*CheckInResult), nil
}

func (f *Facade) checkIn(ctx context.Context, memberID uuid.UUID) (*CheckInResult, error) {
	suspended, err := f.quarantine.IsQuarantined(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	if suspended {
		return nil, ErrMemberSuspended
	}

	m, err := f.members.Get(ctx, memberID)
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	if !m.Active {
		return nil, ErrMemberSuspended
	}

	open, err := f.ledger.OpenFor(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	if open != nil {
		return nil, attendance.ErrAlreadyCheckedIn
	}

	today := dateOnly(f.now())
	if dateOnly(m.MembershipEnd).Before(today) {
		return nil, ErrMembershipExpired
	}

	session, err := f.ledger.Open(ctx, memberID)
	if err != nil {
		// Two kiosk taps within milliseconds land here: the partial
		// unique index let exactly one insert through.
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}

	result := &CheckInResult{
		Status:        "success",
		MemberName:    m.Name,
		MembershipEnd: dateOnly(m.MembershipEnd).Format("2006-01-02"),
		SessionID:     session.ID,
		CheckinTime:   f.formatTime(session.CheckinTime),
		Warnings:      []Warning{},
	}

	if days := int(dateOnly(m.MembershipEnd).Sub(today).Hours() / 24); days >= 0 && days <= f.warnDays {
		result.Warnings = append(result.Warnings, Warning{
			Type:          "membership_expiring",
			Message:       fmt.Sprintf("membership expires in %d days", days),
			DaysRemaining: days,
		})
	}
	return result, nil
}

// CheckOut closes the member's open session.
func (f *Facade) CheckOut(ctx context.Context, memberID uuid.UUID) (*CheckOutResult, error) {
	result, err := f.execute(func() (any, error) {
		return f.checkOut(ctx, memberID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*CheckOutResult), nil
}

func (f *Facade) checkOut(ctx context.Context, memberID uuid.UUID) (*CheckOutResult, error) {
	suspended, err := f.quarantine.IsQuarantined(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	if suspended {
		return nil, ErrMemberSuspended
	}

	m, err := f.members.Get(ctx, memberID)
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}

	open, err := f.ledger.OpenFor(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	if open == nil {
		return nil, ErrNotCheckedIn
	}

	closed, err := f.ledger.Close(ctx, open.ID, f.now())
	if err != nil {
		// An auto-expiry racing this tap counts as a completed checkout.
		if errors.Is(err, attendance.ErrAlreadyClosed) || errors.Is(err, attendance.ErrNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}

	return &CheckOutResult{
		Status:          "success",
		MemberName:      m.Name,
		SessionID:       closed.ID,
		CheckinTime:     f.formatTime(closed.CheckinTime),
		CheckoutTime:    f.formatTime(*closed.CheckoutTime),
		DurationMinutes: int(closed.Duration().Minutes()),
	}, nil
}

// SearchByPhoneTail looks up active members by the last four digits of
// their phone number. Ambiguity is returned as a candidate list, never
// resolved by guessing.
func (f *Facade) SearchByPhoneTail(ctx context.Context, tail string) ([]Candidate, error) {
	if !validTail(tail) {
		return nil, ErrInvalidPhoneTail
	}

	result, err := f.execute(func() (any, error) {
		suspended, err := f.quarantine.PhoneTailQuarantined(ctx, tail)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errStore, err)
		}
		if suspended {
			return nil, ErrMemberSuspended
		}

		members, err := f.members.SearchByPhoneTail(ctx, tail)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errStore, err)
		}

		candidates := make([]Candidate, 0, len(members))
		for _, m := range members {
			candidates = append(candidates, Candidate{
				MemberID:    m.ID,
				Name:        m.Name,
				PhoneNumber: m.PhoneNumber,
				CheckinTime: m.CheckinTime,
			})
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Candidate), nil
}

func (f *Facade) execute(fn func() (any, error)) (any, error) {
	result, err := f.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrStoreUnavailable
	}
	return result, err
}

func (f *Facade) formatTime(t time.Time) string {
	return t.In(f.location).Format("2006-01-02 15:04:05")
}

func validTail(tail string) bool {
	if len(tail) != 4 {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
