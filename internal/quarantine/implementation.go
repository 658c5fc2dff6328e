// internal/quarantine/implementation.go
package quarantine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymgate/internal/member"
	"gymgate/pkg/store"
)

const recordColumns = `member_id, name, phone_number, gender, membership_type,
	membership_start_date, membership_end_date,
	locker_number, locker_type, locker_start_date, locker_end_date,
	uniform_type, uniform_start_date, uniform_end_date,
	created_at, deleted_at`

// service implements the soft-delete lifecycle over PostgreSQL.
type service struct {
	db        *sql.DB
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new quarantine lifecycle instance.
func NewService(db *sql.DB, retention time.Duration, logger *slog.Logger) Service {
	return &service{
		db:        db,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) SoftDelete(ctx context.Context, memberID uuid.UUID) error {
	return store.WithTx(ctx, s.db, "quarantine.soft_delete", func(tx *sql.Tx) error {
		// Snapshot-and-deactivate. The upsert refreshes deleted_at when
		// the member is already quarantined.
		result, err := tx.ExecContext(ctx, `
			INSERT INTO deleted_members (member_id, name, phone_number, gender,
				membership_type, membership_start_date, membership_end_date,
				locker_number, locker_type, locker_start_date, locker_end_date,
				uniform_type, uniform_start_date, uniform_end_date,
				created_at, deleted_at)
			SELECT member_id, name, phone_number, gender,
				membership_type, membership_start_date, membership_end_date,
				locker_number, locker_type, locker_start_date, locker_end_date,
				uniform_type, uniform_start_date, uniform_end_date,
				created_at, $2
			FROM members WHERE member_id = $1
			ON CONFLICT (member_id) DO UPDATE SET deleted_at = EXCLUDED.deleted_at
		`, memberID, s.now())
		if err != nil {
			return fmt.Errorf("snapshot member: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return member.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET active = FALSE WHERE member_id = $1`, memberID); err != nil {
			return fmt.Errorf("deactivate member: %w", err)
		}
		return nil
	})
}

func (s *service) Restore(ctx context.Context, memberID uuid.UUID) error {
	return store.WithTx(ctx, s.db, "quarantine.restore", func(tx *sql.Tx) error {
		record, err := s.getRecord(ctx, tx, memberID)
		if err != nil {
			return err
		}

		// Reconcile the member row from the snapshot and reactivate. The
		// upsert covers the case where the member row is gone.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO members (member_id, name, phone_number, gender,
				membership_type, membership_start_date, membership_end_date,
				locker_number, locker_type, locker_start_date, locker_end_date,
				uniform_type, uniform_start_date, uniform_end_date,
				active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE, $15)
			ON CONFLICT (member_id) DO UPDATE SET
				active = TRUE,
				name = EXCLUDED.name,
				phone_number = EXCLUDED.phone_number,
				gender = EXCLUDED.gender,
				membership_type = EXCLUDED.membership_type,
				membership_start_date = EXCLUDED.membership_start_date,
				membership_end_date = EXCLUDED.membership_end_date,
				locker_number = EXCLUDED.locker_number,
				locker_type = EXCLUDED.locker_type,
				locker_start_date = EXCLUDED.locker_start_date,
				locker_end_date = EXCLUDED.locker_end_date,
				uniform_type = EXCLUDED.uniform_type,
				uniform_start_date = EXCLUDED.uniform_start_date,
				uniform_end_date = EXCLUDED.uniform_end_date
		`, record.MemberID, record.Name, record.PhoneNumber, nullString(record.Gender),
			record.MembershipType, record.MembershipStart, record.MembershipEnd,
			record.LockerNumber, record.LockerType, record.LockerStart, record.LockerEnd,
			record.UniformType, record.UniformStart, record.UniformEnd, record.CreatedAt)
		if store.IsUniqueViolation(err, "uq_members_active_phone") {
			// Someone re-registered with this phone number while the member
			// sat in quarantine.
			return fmt.Errorf("restore member row: %w", member.ErrDuplicatePhone)
		}
		if err != nil {
			return fmt.Errorf("restore member row: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM deleted_members WHERE member_id = $1`, memberID); err != nil {
			return fmt.Errorf("remove quarantine row: %w", err)
		}
		return nil
	})
}

func (s *service) Purge(ctx context.Context, memberID uuid.UUID) error {
	return store.WithTx(ctx, s.db, "quarantine.purge", func(tx *sql.Tx) error {
		quarantined, err := tx.ExecContext(ctx,
			`DELETE FROM deleted_members WHERE member_id = $1`, memberID)
		if err != nil {
			return fmt.Errorf("purge quarantine row: %w", err)
		}
		live, err := tx.ExecContext(ctx,
			`DELETE FROM members WHERE member_id = $1`, memberID)
		if err != nil {
			return fmt.Errorf("purge member row: %w", err)
		}

		q, _ := quarantined.RowsAffected()
		l, _ := live.RowsAffected()
		if q == 0 && l == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *service) RestoreAll(ctx context.Context) (int, error) {
	ids, err := s.allIDs(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if err := s.Restore(ctx, id); err != nil {
			s.logger.Error("restore failed", "member_id", id, "err", err)
			continue
		}
		count++
	}
	return count, nil
}

func (s *service) PurgeExpired(ctx context.Context) (int, error) {
	now := s.now()
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id, deleted_at FROM deleted_members`)
	if err != nil {
		return 0, fmt.Errorf("query quarantine rows: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var (
			id        uuid.UUID
			deletedAt time.Time
		)
		if err := rows.Scan(&id, &deletedAt); err != nil {
			return 0, fmt.Errorf("scan quarantine row: %w", err)
		}
		if !expired(deletedAt, now, s.retention) {
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate quarantine rows: %w", err)
	}

	count := 0
	for _, id := range ids {
		if err := s.Purge(ctx, id); err != nil {
			// One bad row must not block retention for the rest; the next
			// cycle retries it.
			s.logger.Error("purge failed", "member_id", id, "err", err)
			continue
		}
		count++
	}
	return count, nil
}

func (s *service) List(ctx context.Context, page, size int, search string) ([]Record, int, error) {
	conditions := []string{"1=1"}
	args := []any{}
	if search != "" {
		args = append(args, "%"+strings.ReplaceAll(search, " ", "")+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(REPLACE(name, ' ', '') ILIKE $%d OR REPLACE(phone_number, '-', '') LIKE $%d)", n, n))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM deleted_members WHERE %s`, where), args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quarantine rows: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(
		`SELECT %s FROM deleted_members WHERE %s ORDER BY deleted_at DESC LIMIT $%d OFFSET $%d`,
		recordColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quarantine rows: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quarantine row: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate quarantine rows: %w", err)
	}
	return records, total, nil
}

func (s *service) IsQuarantined(ctx context.Context, memberID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM deleted_members WHERE member_id = $1)`,
		memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quarantine: %w", err)
	}
	return exists, nil
}

func (s *service) PhoneTailQuarantined(ctx context.Context, lastFour string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM deleted_members
			WHERE RIGHT(REPLACE(phone_number, '-', ''), 4) = $1
		)`, lastFour).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quarantine by phone tail: %w", err)
	}
	return exists, nil
}

func (s *service) getRecord(ctx context.Context, tx *sql.Tx, memberID uuid.UUID) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM deleted_members WHERE member_id = $1`, recordColumns)
	record, err := scanRecord(tx.QueryRowContext(ctx, query, memberID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quarantine row: %w", err)
	}
	return record, nil
}

func (s *service) allIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member_id FROM deleted_members`)
	if err != nil {
		return nil, fmt.Errorf("query quarantine rows: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan quarantine row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var (
		record       Record
		gender       sql.NullString
		lockerNumber sql.NullInt64
		lockerType   sql.NullString
		lockerStart  sql.NullTime
		lockerEnd    sql.NullTime
		uniformType  sql.NullString
		uniformStart sql.NullTime
		uniformEnd   sql.NullTime
	)
	err := row.Scan(&record.MemberID, &record.Name, &record.PhoneNumber, &gender,
		&record.MembershipType, &record.MembershipStart, &record.MembershipEnd,
		&lockerNumber, &lockerType, &lockerStart, &lockerEnd,
		&uniformType, &uniformStart, &uniformEnd,
		&record.CreatedAt, &record.DeletedAt)
	if err != nil {
		return nil, err
	}

	record.Gender = strings.TrimSpace(gender.String)
	if lockerNumber.Valid {
		n := int(lockerNumber.Int64)
		record.LockerNumber = &n
	}
	if lockerType.Valid {
		v := lockerType.String
		record.LockerType = &v
	}
	if lockerStart.Valid {
		v := lockerStart.Time
		record.LockerStart = &v
	}
	if lockerEnd.Valid {
		v := lockerEnd.Time
		record.LockerEnd = &v
	}
	if uniformType.Valid {
		v := uniformType.String
		record.UniformType = &v
	}
	if uniformStart.Valid {
		v := uniformStart.Time
		record.UniformStart = &v
	}
	if uniformEnd.Valid {
		v := uniformEnd.Time
		record.UniformEnd = &v
	}
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
