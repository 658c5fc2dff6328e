// internal/rental/implementation.go
package rental

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymgate/internal/member"
	"gymgate/pkg/store"
)

// service implements rentals over the members table's rental columns.
type service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates a new rental service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db, now: time.Now}
}

func (s *service) RentLocker(ctx context.Context, memberID uuid.UUID, lockerNumber int, lockerType string, months int) (*Locker, error) {
	if !validLockerNumber(lockerNumber) {
		return nil, ErrInvalidLockerNumber
	}
	if !validTerm(months) {
		return nil, ErrInvalidTerm
	}

	start := s.now()
	locker := &Locker{
		LockerNumber: lockerNumber,
		LockerType:   lockerType,
		StartDate:    start,
		EndDate:      rentalEndDate(start, months),
	}

	err := store.WithTx(ctx, s.db, "rental.rent_locker", func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT locker_number FROM members WHERE member_id = $1 AND active FOR UPDATE`,
			memberID).Scan(&current)
		if err == sql.ErrNoRows {
			return member.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get member locker: %w", err)
		}
		if current.Valid {
			return ErrAlreadyRenting
		}

		var taken bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM members WHERE locker_number = $1 AND active)`,
			lockerNumber).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check locker availability: %w", err)
		}
		if taken {
			return ErrLockerTaken
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE members
			SET locker_number = $2, locker_type = $3, locker_start_date = $4, locker_end_date = $5
			WHERE member_id = $1
		`, memberID, locker.LockerNumber, locker.LockerType, locker.StartDate, locker.EndDate)
		if err != nil {
			return fmt.Errorf("assign locker: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locker, nil
}

func (s *service) ReturnLocker(ctx context.Context, memberID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET locker_number = NULL, locker_type = NULL, locker_start_date = NULL, locker_end_date = NULL
		WHERE member_id = $1 AND locker_number IS NOT NULL
	`, memberID)
	if err != nil {
		return fmt.Errorf("release locker: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNoRental
	}
	return nil
}

func (s *service) RentUniform(ctx context.Context, memberID uuid.UUID, uniformType string, months int) (*Uniform, error) {
	if !validTerm(months) {
		return nil, ErrInvalidTerm
	}

	start := s.now()
	uniform := &Uniform{
		UniformType: uniformType,
		StartDate:   start,
		EndDate:     rentalEndDate(start, months),
	}

	err := store.WithTx(ctx, s.db, "rental.rent_uniform", func(tx *sql.Tx) error {
		var current sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT uniform_type FROM members WHERE member_id = $1 AND active FOR UPDATE`,
			memberID).Scan(&current)
		if err == sql.ErrNoRows {
			return member.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get member uniform: %w", err)
		}
		if current.Valid {
			return ErrAlreadyRenting
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE members
			SET uniform_type = $2, uniform_start_date = $3, uniform_end_date = $4
			WHERE member_id = $1
		`, memberID, uniform.UniformType, uniform.StartDate, uniform.EndDate)
		if err != nil {
			return fmt.Errorf("assign uniform: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uniform, nil
}

func (s *service) ReturnUniform(ctx context.Context, memberID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET uniform_type = NULL, uniform_start_date = NULL, uniform_end_date = NULL
		WHERE member_id = $1 AND uniform_type IS NOT NULL
	`, memberID)
	if err != nil {
		return fmt.Errorf("release uniform: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNoRental
	}
	return nil
}

func (s *service) AvailableLockers(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT locker_number FROM members WHERE locker_number IS NOT NULL AND active`)
	if err != nil {
		return nil, fmt.Errorf("query used lockers: %w", err)
	}
	defer rows.Close()

	used := map[int]bool{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan used locker: %w", err)
		}
		used[n] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate used lockers: %w", err)
	}

	available := []int{}
	for n := minLockerNumber; n <= maxLockerNumber; n++ {
		if !used[n] {
			available = append(available, n)
		}
	}
	return available, nil
}
