package booking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cafe/src/clock"
	"cafe/src/db"
	"cafe/src/discounts"
	"cafe/src/rewards"
	"cafe/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLifecycle(gormDB *gorm.DB, clk clock.Clock) *Lifecycle {
	re := rewards.NewEngine(gormDB)
	dl := discounts.NewLedger(gormDB, clk, re)
	return NewLifecycle(gormDB, clk, nil, re, dl, nil)
}

func reservationRows(status types.PaymentStatus, expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "user_id", "session_id", "number_of_people", "payment_status", "expires_at"}).
		AddRow(1, 7, 3, 2, string(status), expiresAt)
}

func sessionRows(current uint, max uint) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "hall_id", "price", "max_participants", "current_participants", "status"}).
		AddRow(3, 1, 150000, max, current, string(types.SESSION_UPCOMING))
}

func TestCreateCapacityRaceRollsBack(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	// two spots free when the session is read, gone by the time the
	// conditional update runs; nothing else may be written
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sessions"`)).
		WillReturnRows(sessionRows(18, 20))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sessions" SET "current_participants"=current_participants + $1`)).
		WithArgs(2, sqlmock.AnyArg(), 3, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := lc.Create(context.Background(), 7, &types.CreateReservationRequestBody{
		SessionID:      3,
		NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFreeTicketAlreadyClaimed(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sessions"`)).
		WillReturnRows(sessionRows(0, 20))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "free_tickets"`)).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "is_used", "is_valid"}).
			AddRow(1, 7, false, true))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sessions" SET "current_participants"=current_participants + $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the ticket read above was stale; another reservation claimed it first
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "free_tickets"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := lc.Create(context.Background(), 7, &types.CreateReservationRequestBody{
		SessionID:      3,
		NumberOfPeople: 2,
		UseFreeTicket:  true,
	})
	assert.ErrorIs(t, err, ErrFreeTicketUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireBeforeDeadline(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(reservationRows(types.PAYMENT_PENDING, testNow.Add(5*time.Minute)))
	mock.ExpectRollback()

	err := lc.Expire(1)
	assert.ErrorIs(t, err, ErrDeadlineNotReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireReleasesCapacity(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(reservationRows(types.PAYMENT_PENDING, testNow.Add(-time.Minute)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sessions" SET "current_participants"=GREATEST(current_participants - $1, 0)`)).
		WithArgs(2, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := lc.Expire(1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireReturnsFreeTicket(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	rows := sqlmock.
		NewRows([]string{"id", "user_id", "session_id", "number_of_people", "payment_status", "expires_at", "free_ticket_id"}).
		AddRow(1, 7, 3, 2, string(types.PAYMENT_PENDING), testNow.Add(-time.Minute), 1)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sessions" SET "current_participants"=GREATEST(current_participants - $1, 0)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "free_tickets"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := lc.Expire(1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireTwiceIsNoop(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	expiredAt := testNow.Add(-time.Hour)
	rows := sqlmock.
		NewRows([]string{"id", "user_id", "session_id", "number_of_people", "payment_status", "expires_at", "expired_at"}).
		AddRow(1, 7, 3, 2, string(types.PAYMENT_FAILED), testNow.Add(-2*time.Hour), expiredAt)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(rows)
	mock.ExpectCommit()

	err := lc.Expire(1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentAfterDeadline(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(reservationRows(types.PAYMENT_PENDING, testNow.Add(-time.Second)))
	mock.ExpectRollback()

	err := lc.ConfirmPayment(1, "cs_test_1", nil)
	assert.ErrorIs(t, err, ErrReservationExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(reservationRows(types.PAYMENT_PAID, testNow.Add(10*time.Minute)))
	mock.ExpectCommit()

	err := lc.ConfirmPayment(1, "cs_test_1", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAfterDeadline(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	lc := newTestLifecycle(gormDB, clock.Fixed(testNow))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
		WillReturnRows(reservationRows(types.PAYMENT_PENDING, testNow))
	mock.ExpectRollback()

	err := lc.Cancel(1)
	assert.ErrorIs(t, err, ErrReservationExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
