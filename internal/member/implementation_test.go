// internal/member/implementation_test.go
package member

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, now time.Time) (*service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &service{db: db, warnDays: 7, now: func() time.Time { return now }}, mock
}

func TestListExpiringSoonUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	svc.warnDays = 14

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(14).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM members WHERE").
		WithArgs(14, 20, 0).
		WillReturnRows(memberRows())

	members, total, err := svc.List(context.Background(), ListParams{Status: "expiring_soon"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, members)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMember(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO members").
		WithArgs(sqlmock.AnyArg(), "Kim Minsoo", "010-1234-5678", "male", "regular",
			start, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := svc.Create(context.Background(), CreateParams{
		Name:            "Kim Minsoo",
		PhoneNumber:     "010-1234-5678",
		Gender:          "male",
		MembershipType:  "regular",
		MembershipStart: start,
		DurationMonths:  3,
	})
	require.NoError(t, err)
	assert.True(t, m.Active)
	assert.Equal(t, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), m.MembershipEnd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsBadPhoneNumbers(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	for _, phone := range []string{"", "12345", "phone", "010-12345-678", "010 1234 5678"} {
		_, err := svc.Create(context.Background(), CreateParams{
			Name:            "Kim Minsoo",
			PhoneNumber:     phone,
			MembershipStart: now,
			DurationMonths:  1,
		})
		assert.ErrorIs(t, err, ErrInvalidPhone, "phone %q", phone)
	}
}

func TestCreateAcceptsCommonPhoneShapes(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, phone := range []string{"010-1234-5678", "01012345678", "02-123-4567"} {
		svc, mock := newTestService(t, now)
		mock.ExpectExec("INSERT INTO members").WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := svc.Create(context.Background(), CreateParams{
			Name:            "Kim Minsoo",
			PhoneNumber:     phone,
			MembershipStart: now,
			DurationMonths:  1,
		})
		assert.NoError(t, err, "phone %q", phone)
	}
}

func TestCreateDuplicatePhone(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)

	mock.ExpectExec("INSERT INTO members").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_members_active_phone"})

	_, err := svc.Create(context.Background(), CreateParams{
		Name:            "Kim Minsoo",
		PhoneNumber:     "010-1234-5678",
		MembershipStart: now,
		DurationMonths:  1,
	})
	assert.ErrorIs(t, err, ErrDuplicatePhone)
}

func TestGetMember(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	id := uuid.New()
	checkin := now.Add(-time.Hour)

	mock.ExpectQuery("FROM members WHERE member_id").
		WithArgs(id).
		WillReturnRows(memberRows().AddRow(
			id.String(), "Kim Minsoo", "010-1234-5678", "male", "regular",
			now.AddDate(0, -1, 0), now.AddDate(0, 2, 0),
			42, "medium", now.AddDate(0, -1, 0), now.AddDate(0, 2, 0),
			nil, nil, nil,
			true, checkin, nil, now.AddDate(0, -1, 0)))

	m, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Kim Minsoo", m.Name)
	require.NotNil(t, m.LockerNumber)
	assert.Equal(t, 42, *m.LockerNumber)
	require.NotNil(t, m.CheckinTime)
	assert.Equal(t, checkin, *m.CheckinTime)
	assert.Nil(t, m.UniformType)
	assert.Nil(t, m.CheckoutTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownMember(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	id := uuid.New()

	mock.ExpectQuery("FROM members WHERE member_id").
		WithArgs(id).
		WillReturnRows(memberRows())

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBuildsPartialSet(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	id := uuid.New()
	name := "Kim Minsu"

	mock.ExpectExec("UPDATE members SET name").
		WithArgs(name, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM members WHERE member_id").
		WithArgs(id).
		WillReturnRows(memberRows().AddRow(
			id.String(), name, "010-1234-5678", nil, "regular",
			now, now.AddDate(0, 1, -1),
			nil, nil, nil, nil,
			nil, nil, nil,
			true, nil, nil, now))

	m, err := svc.Update(context.Background(), id, UpdateParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, m.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownMember(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	id := uuid.New()
	name := "Kim Minsu"

	mock.ExpectExec("UPDATE members SET name").
		WithArgs(name, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.Update(context.Background(), id, UpdateParams{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchByPhoneTail(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestService(t, now)
	id := uuid.New()

	mock.ExpectQuery("FROM members WHERE RIGHT").
		WithArgs("5678").
		WillReturnRows(memberRows().AddRow(
			id.String(), "Kim Minsoo", "010-1234-5678", nil, "regular",
			now, now.AddDate(0, 1, -1),
			nil, nil, nil, nil,
			nil, nil, nil,
			true, nil, nil, now))

	members, err := svc.SearchByPhoneTail(context.Background(), "5678")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, id, members[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func memberRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"member_id", "name", "phone_number", "gender", "membership_type",
		"membership_start_date", "membership_end_date",
		"locker_number", "locker_type", "locker_start_date", "locker_end_date",
		"uniform_type", "uniform_start_date", "uniform_end_date",
		"active", "checkin_time", "checkout_time", "created_at"})
}
