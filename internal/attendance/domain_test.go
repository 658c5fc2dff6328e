// internal/attendance/domain_test.go
package attendance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSessionCloseAt(t *testing.T) {
	checkin := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("closes an open session", func(t *testing.T) {
		s := Session{ID: uuid.New(), MemberID: uuid.New(), CheckinTime: checkin}
		require.True(t, s.Open())

		at := checkin.Add(45 * time.Minute)
		require.NoError(t, s.CloseAt(at))
		assert.False(t, s.Open())
		assert.Equal(t, at, *s.CheckoutTime)
		assert.Equal(t, 45*time.Minute, s.Duration())
	})

	t.Run("closed is terminal", func(t *testing.T) {
		s := Session{ID: uuid.New(), MemberID: uuid.New(), CheckinTime: checkin}
		first := checkin.Add(time.Hour)
		require.NoError(t, s.CloseAt(first))

		err := s.CloseAt(checkin.Add(2 * time.Hour))
		assert.ErrorIs(t, err, ErrAlreadyClosed)
		assert.Equal(t, first, *s.CheckoutTime)
	})

	t.Run("checkout never precedes checkin", func(t *testing.T) {
		s := Session{ID: uuid.New(), MemberID: uuid.New(), CheckinTime: checkin}
		require.NoError(t, s.CloseAt(checkin.Add(-time.Minute)))
		assert.Equal(t, checkin, *s.CheckoutTime)
		assert.Equal(t, time.Duration(0), s.Duration())
	})
}

func TestSessionCloseAtProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		checkin := base.Add(time.Duration(rapid.Int64Range(0, 1<<40).Draw(t, "checkin")))
		offset := time.Duration(rapid.Int64Range(-1<<38, 1<<40).Draw(t, "offset"))

		s := Session{ID: uuid.New(), MemberID: uuid.New(), CheckinTime: checkin}
		require.NoError(t, s.CloseAt(checkin.Add(offset)))

		// The stored checkout is never before the check-in.
		assert.False(t, s.CheckoutTime.Before(s.CheckinTime))
		assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))

		// Any further close attempt fails and changes nothing.
		recorded := *s.CheckoutTime
		assert.ErrorIs(t, s.CloseAt(checkin.Add(offset*2)), ErrAlreadyClosed)
		assert.Equal(t, recorded, *s.CheckoutTime)
	})
}

func TestInitialCheckout(t *testing.T) {
	cap := 3 * time.Hour
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh checkin stays open", func(t *testing.T) {
		assert.Nil(t, initialCheckout(now, now, cap))
		assert.Nil(t, initialCheckout(now.Add(-cap+time.Second), now, cap))
	})

	t.Run("checkin past the cap is born closed", func(t *testing.T) {
		got := initialCheckout(now.Add(-cap), now, cap)
		require.NotNil(t, got)
		assert.Equal(t, now, *got)

		got = initialCheckout(now.Add(-26*time.Hour), now, cap)
		require.NotNil(t, got)
		assert.Equal(t, now, *got)
	})
}

func TestStaleByProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(rapid.Int64Range(0, 1<<41).Draw(t, "now")))
		age := time.Duration(rapid.Int64Range(0, 1<<41).Draw(t, "age"))
		cap := time.Duration(rapid.Int64Range(1, 1<<38).Draw(t, "cap"))

		checkin := now.Add(-age)
		assert.Equal(t, age >= cap, staleBy(checkin, now, cap))

		// staleBy and initialCheckout agree: a stale check-in is born
		// closed at now, a fresh one is born open.
		checkout := initialCheckout(checkin, now, cap)
		if staleBy(checkin, now, cap) {
			require.NotNil(t, checkout)
			assert.Equal(t, now, *checkout)
		} else {
			assert.Nil(t, checkout)
		}
	})
}
