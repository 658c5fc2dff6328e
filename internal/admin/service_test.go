// internal/admin/service_test.go
package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, salt, err := hashPassword("1234")
	require.NoError(t, err)

	ok, err := verifyPassword("1234", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("wrong", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, _, err := hashPassword("1234")
	require.NoError(t, err)
	second, _, err := hashPassword("1234")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, "test-secret", 24*time.Hour, logger), mock
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, mock := newTestService(t)
	hash, salt, err := hashPassword("1234")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, password_hash, salt FROM admins").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "salt"}).
			AddRow(1, hash, salt))

	token, err := svc.Login(context.Background(), "1234")
	require.NoError(t, err)
	assert.NoError(t, svc.Verify(token))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, mock := newTestService(t)
	hash, salt, err := hashPassword("1234")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, password_hash, salt FROM admins").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "salt"}).
			AddRow(1, hash, salt))

	_, err = svc.Login(context.Background(), "4321")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestLoginWithoutAdminAccount(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT id, password_hash, salt FROM admins").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "salt"}))

	_, err := svc.Login(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrNoAdmin)
}

func TestVerifyRejectsForgedTokens(t *testing.T) {
	svc, _ := newTestService(t)

	assert.ErrorIs(t, svc.Verify("not-a-token"), ErrInvalidToken)
	assert.ErrorIs(t, svc.Verify(""), ErrInvalidToken)

	// A token signed with a different secret must not verify.
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	other := NewService(db, "other-secret", 24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	hash, salt, err := hashPassword("1234")
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, password_hash, salt FROM admins").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "salt"}).
			AddRow(1, hash, salt))

	token, err := other.Login(context.Background(), "1234")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(token), ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc, mock := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	hash, salt, err := hashPassword("1234")
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, password_hash, salt FROM admins").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "salt"}).
			AddRow(1, hash, salt))

	token, err := svc.Login(context.Background(), "1234")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(token), ErrInvalidToken)
}

func TestEnsureAdminCreatesAccountOnce(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO admins").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, svc.EnsureAdmin(context.Background(), "1234"))

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, svc.EnsureAdmin(context.Background(), "1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireAuth(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := handler.RequireAuth(next)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		hash, salt, err := hashPassword("1234")
		require.NoError(t, err)
		mock.ExpectQuery("SELECT id, password_hash, salt FROM admins").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "salt"}).
				AddRow(1, hash, salt))

		token, err := svc.Login(context.Background(), "1234")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
