// internal/attendance/implementation.go
package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gymgate/internal/member"
	"gymgate/pkg/schedule"
	"gymgate/pkg/store"
)

const staleBatchSize = 500

// service implements the attendance ledger over PostgreSQL. The database
// is the authority for the open-session uniqueness invariant, enforced by
// the uq_open_session partial unique index; this code only translates
// constraint violations into domain errors.
type service struct {
	db       *sql.DB
	cap      time.Duration
	timers   *schedule.Timers
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

// NewService creates a new attendance ledger instance. The timers
// registry may be shared with other components; it is used to arm one
// auto-expiry timer per open session. Calendar-month windows are
// computed in location.
func NewService(db *sql.DB, cap time.Duration, timers *schedule.Timers, logger *slog.Logger, location *time.Location) Service {
	return &service{
		db:       db,
		cap:      cap,
		timers:   timers,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

func (s *service) Open(ctx context.Context, memberID uuid.UUID) (*Session, error) {
	return s.OpenAt(ctx, memberID, s.now())
}

func (s *service) OpenAt(ctx context.Context, memberID uuid.UUID, checkin time.Time) (*Session, error) {
	session := &Session{
		ID:           uuid.New(),
		MemberID:     memberID,
		CheckinTime:  checkin,
		CheckoutTime: initialCheckout(checkin, s.now(), s.cap),
	}

	err := store.WithTx(ctx, s.db, "attendance.open", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_sessions (session_id, member_id, checkin_time, checkout_time)
			VALUES ($1, $2, $3, $4)
		`, session.ID, session.MemberID, session.CheckinTime, nullTime(session.CheckoutTime))
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return s.mirrorCache(ctx, tx, session)
	})
	if err != nil {
		if store.IsUniqueViolation(err, "uq_open_session") {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}

	if session.Open() {
		s.armTimer(session.ID, session.CheckinTime)
	}
	return session, nil
}

func (s *service) Close(ctx context.Context, sessionID uuid.UUID, at time.Time) (*Session, error) {
	var session Session
	err := store.WithTx(ctx, s.db, "attendance.close", func(tx *sql.Tx) error {
		// Conditional close: the manual path, the per-session timer and
		// the sweep all race here, and the affected row decides the
		// winner. A zero-row update means another path already closed it.
		err := tx.QueryRowContext(ctx, `
			UPDATE attendance_sessions
			SET checkout_time = GREATEST($2, checkin_time)
			WHERE session_id = $1 AND checkout_time IS NULL
			RETURNING session_id, member_id, checkin_time, checkout_time
		`, sessionID, at).Scan(&session.ID, &session.MemberID, &session.CheckinTime, &session.CheckoutTime)
		if err == sql.ErrNoRows {
			return s.classifyClosedOrMissing(ctx, tx, sessionID)
		}
		if err != nil {
			return fmt.Errorf("close session: %w", err)
		}
		return s.mirrorCache(ctx, tx, &session)
	})
	if err != nil {
		return nil, err
	}

	s.timers.Cancel(sessionID.String())
	return &session, nil
}

// classifyClosedOrMissing distinguishes a lost close race from a bogus
// session ID.
func (s *service) classifyClosedOrMissing(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance_sessions WHERE session_id = $1)`,
		sessionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("look up session %s: %w", sessionID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyClosed
}

// mirrorCache keeps the member row's denormalized attendance fields in
// step with the ledger, inside the same transaction as the ledger write.
func (s *service) mirrorCache(ctx context.Context, tx *sql.Tx, session *Session) error {
	var result sql.Result
	var err error
	if session.Open() {
		result, err = tx.ExecContext(ctx, `
			UPDATE members SET checkin_time = $2, checkout_time = NULL
			WHERE member_id = $1
		`, session.MemberID, session.CheckinTime)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE members SET checkin_time = NULL, checkout_time = $2
			WHERE member_id = $1
		`, session.MemberID, *session.CheckoutTime)
	}
	if err != nil {
		return fmt.Errorf("mirror attendance cache: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("mirror attendance cache: %w", member.ErrNotFound)
	}
	return nil
}

func (s *service) OpenFor(ctx context.Context, memberID uuid.UUID) (*Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT session_id, member_id, checkin_time, checkout_time
		FROM attendance_sessions
		WHERE member_id = $1 AND checkout_time IS NULL
	`, memberID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return session, nil
}

func (s *service) ListToday(ctx context.Context, page, size int) ([]Session, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_sessions WHERE checkin_time::date = CURRENT_DATE`,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count today's sessions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, member_id, checkin_time, checkout_time
		FROM attendance_sessions
		WHERE checkin_time::date = CURRENT_DATE
		ORDER BY checkin_time DESC
		LIMIT $1 OFFSET $2
	`, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list today's sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (s *service) ListForMonth(ctx context.Context, memberID uuid.UUID, year, month int) ([]Session, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, member_id, checkin_time, checkout_time
		FROM attendance_sessions
		WHERE member_id = $1 AND checkin_time >= $2 AND checkin_time < $3
		ORDER BY checkin_time DESC
	`, memberID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list member sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (s *service) CloseStale(ctx context.Context) (int, error) {
	closed := 0
	for {
		ids, err := s.staleBatch(ctx)
		if err != nil {
			return closed, err
		}
		if len(ids) == 0 {
			return closed, nil
		}
		for _, id := range ids {
			if _, err := s.Close(ctx, id, s.now()); err != nil {
				// Lost the race against a manual checkout or the
				// per-session timer; the invariant holds either way.
				if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrNotFound) {
					continue
				}
				s.logger.Error("sweep failed to close session", "session_id", id, "err", err)
				continue
			}
			closed++
		}
		if len(ids) < staleBatchSize {
			return closed, nil
		}
	}
}

// staleBatch returns up to staleBatchSize open sessions past the cap.
func (s *service) staleBatch(ctx context.Context) ([]uuid.UUID, error) {
	cutoff := s.now().Add(-s.cap)
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id FROM attendance_sessions
		WHERE checkout_time IS NULL AND checkin_time <= $1
		ORDER BY checkin_time
		LIMIT $2
	`, cutoff, staleBatchSize)
	if err != nil {
		return nil, fmt.Errorf("query stale sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *service) RearmTimers(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, checkin_time FROM attendance_sessions
		WHERE checkout_time IS NULL
	`)
	if err != nil {
		return fmt.Errorf("query open sessions: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id uuid.UUID
		var checkin time.Time
		if err := rows.Scan(&id, &checkin); err != nil {
			return fmt.Errorf("scan open session: %w", err)
		}
		s.armTimer(id, checkin)
		count++
	}
	if count > 0 {
		s.logger.Info("re-armed auto-expiry timers", "count", count)
	}
	return rows.Err()
}

// armTimer schedules the session's forced checkout. Arming is
// best-effort: on failure the check-in still stands and the sweep closes
// the session instead.
func (s *service) armTimer(sessionID uuid.UUID, checkin time.Time) {
	err := s.timers.Arm(sessionID.String(), checkin.Add(s.cap), func() {
		s.expire(sessionID)
	})
	if err != nil {
		s.logger.Warn("could not arm auto-expiry timer, sweep will cover it",
			"session_id", sessionID, "err", err)
	}
}

func (s *service) expire(sessionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.Close(ctx, sessionID, s.now())
	switch {
	case err == nil:
		s.logger.Info("session auto-closed by timer", "session_id", sessionID)
	case errors.Is(err, ErrAlreadyClosed), errors.Is(err, ErrNotFound):
		// Manual checkout or the sweep got there first.
	default:
		s.logger.Error("auto-expiry close failed, sweep will retry",
			"session_id", sessionID, "err", err)
	}
}

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var session Session
	var checkout sql.NullTime
	err := row.Scan(&session.ID, &session.MemberID, &session.CheckinTime, &checkout)
	if err != nil {
		return nil, err
	}
	if checkout.Valid {
		t := checkout.Time
		session.CheckoutTime = &t
	}
	return &session, nil
}

func collectSessions(rows *sql.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
