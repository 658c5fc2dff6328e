// internal/member/implementation.go
package member

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymgate/pkg/store"
)

var phonePattern = regexp.MustCompile(`^\d{2,3}-?\d{3,4}-?\d{4}$`)

const memberColumns = `member_id, name, phone_number, gender, membership_type,
	membership_start_date, membership_end_date,
	locker_number, locker_type, locker_start_date, locker_end_date,
	uniform_type, uniform_start_date, uniform_end_date,
	active, checkin_time, checkout_time, created_at`

// service implements the Service interface over PostgreSQL.
type service struct {
	db       *sql.DB
	warnDays int
	now      func() time.Time
}

// NewService creates a new member store instance. expiringSoonDays is
// the window the expiring_soon list filter covers.
func NewService(db *sql.DB, expiringSoonDays int) Service {
	return &service{db: db, warnDays: expiringSoonDays, now: time.Now}
}

func (s *service) Create(ctx context.Context, params CreateParams) (*Member, error) {
	phone := strings.TrimSpace(params.PhoneNumber)
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}
	if params.DurationMonths <= 0 {
		return nil, fmt.Errorf("invalid membership duration: %d months", params.DurationMonths)
	}

	m := &Member{
		ID:              uuid.New(),
		Name:            params.Name,
		PhoneNumber:     phone,
		Gender:          params.Gender,
		MembershipType:  params.MembershipType,
		MembershipStart: params.MembershipStart,
		MembershipEnd:   MembershipEndDate(params.MembershipStart, params.DurationMonths),
		Active:          true,
		CreatedAt:       s.now(),
	}

	query := `
		INSERT INTO members (member_id, name, phone_number, gender, membership_type,
			membership_start_date, membership_end_date, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
	`
	_, err := s.db.ExecContext(ctx, query, m.ID, m.Name, m.PhoneNumber, nullString(m.Gender),
		m.MembershipType, m.MembershipStart, m.MembershipEnd, m.CreatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, "uq_members_active_phone") {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE member_id = $1`, memberColumns)
	m, err := scanMember(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Member, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.PhoneNumber != nil {
		phone := strings.TrimSpace(*params.PhoneNumber)
		if !phonePattern.MatchString(phone) {
			return nil, ErrInvalidPhone
		}
		add("phone_number", phone)
	}
	if params.Gender != nil {
		add("gender", *params.Gender)
	}
	if params.MembershipType != nil {
		add("membership_type", *params.MembershipType)
	}
	if params.MembershipStart != nil {
		add("membership_start_date", *params.MembershipStart)
	}
	if params.MembershipEnd != nil {
		add("membership_end_date", *params.MembershipEnd)
	}

	if len(sets) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE members SET %s WHERE member_id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if store.IsUniqueViolation(err, "uq_members_active_phone") {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("update member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) ([]Member, int, error) {
	conditions := []string{"1=1"}
	args := []any{}

	if params.Search != "" {
		args = append(args, "%"+strings.ReplaceAll(params.Search, " ", "")+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(REPLACE(name, ' ', '') ILIKE $%d OR REPLACE(phone_number, '-', '') LIKE $%d)", n, n))
	}

	switch params.Status {
	case "active":
		conditions = append(conditions, "active")
	case "inactive":
		conditions = append(conditions, "NOT active")
	case "expiring_soon":
		args = append(args, s.warnDays)
		conditions = append(conditions,
			"active",
			"membership_end_date >= CURRENT_DATE",
			fmt.Sprintf("membership_end_date <= CURRENT_DATE + $%d * INTERVAL '1 day'", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM members WHERE %s`, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Size < 1 {
		params.Size = 20
	}
	args = append(args, params.Size, (params.Page-1)*params.Size)
	query := fmt.Sprintf(`SELECT %s FROM members WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		memberColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members, err := collectMembers(rows)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (s *service) SearchByPhoneTail(ctx context.Context, lastFour string) ([]Member, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM members WHERE RIGHT(REPLACE(phone_number, '-', ''), 4) = $1 AND active`,
		memberColumns)
	rows, err := s.db.QueryContext(ctx, query, lastFour)
	if err != nil {
		return nil, fmt.Errorf("search members by phone tail: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE members SET active = $2 WHERE member_id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set member active flag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*Member, error) {
	var (
		m            Member
		gender       sql.NullString
		lockerNumber sql.NullInt64
		lockerType   sql.NullString
		lockerStart  sql.NullTime
		lockerEnd    sql.NullTime
		uniformType  sql.NullString
		uniformStart sql.NullTime
		uniformEnd   sql.NullTime
		checkin      sql.NullTime
		checkout     sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Name, &m.PhoneNumber, &gender, &m.MembershipType,
		&m.MembershipStart, &m.MembershipEnd,
		&lockerNumber, &lockerType, &lockerStart, &lockerEnd,
		&uniformType, &uniformStart, &uniformEnd,
		&m.Active, &checkin, &checkout, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.Gender = strings.TrimSpace(gender.String)
	if lockerNumber.Valid {
		n := int(lockerNumber.Int64)
		m.LockerNumber = &n
	}
	m.LockerType = nullStringPtr(lockerType)
	m.LockerStart = nullTimePtr(lockerStart)
	m.LockerEnd = nullTimePtr(lockerEnd)
	m.UniformType = nullStringPtr(uniformType)
	m.UniformStart = nullTimePtr(uniformStart)
	m.UniformEnd = nullTimePtr(uniformEnd)
	m.CheckinTime = nullTimePtr(checkin)
	m.CheckoutTime = nullTimePtr(checkout)
	return &m, nil
}

func collectMembers(rows *sql.Rows) ([]Member, error) {
	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
