package booking

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/ptr"
)

func newRepo(t *testing.T) (*Repository, *dbmetrics.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := dbmetrics.Wrap(sqlDB, nil)
	return NewRepository(db), db, mock
}

func bookingRow(id int64, status domain.BookingStatus) *sqlmock.Rows {
	now := time.Date(2025, time.November, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(bookingColumns).AddRow(
		id, int64(7), time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC), "10:00:00", 90,
		"city_driving", string(status), "1.50", "evt-1", nil, nil, nil, false,
		"5b7f2f8e-8f0e-4f43-9a55-6d1f1d0c1a11", now, now,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, _, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(7), "2025-11-20", "10:00", 90, "city_driving", "confirmed", "1.5", nil, nil, true, "key-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	created, err := repo.Create(context.Background(), &domain.Booking{
		UserID:              7,
		LessonDate:          civil.Date{Year: 2025, Month: time.November, Day: 20},
		StartTime:           "10:00",
		DurationMinutes:     90,
		LessonType:          "city_driving",
		Status:              domain.StatusConfirmed,
		HoursConsumed:       decimal.RequireFromString("1.5"),
		CalendarSyncPending: true,
		IdempotencyKey:      ptr.Ptr("key-1"),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: constraintConfirmedSlot, want: ErrSlotNotAvailable},
		{constraint: constraintIdempotencyKey, want: ErrDuplicateIdempotencyKey},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, _, mock := newRepo(t)

			mock.ExpectQuery(`INSERT INTO bookings`).
				WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: tt.constraint})

			_, err := repo.Create(context.Background(), &domain.Booking{
				LessonDate: civil.Date{Year: 2025, Month: time.November, Day: 20},
				StartTime:  "10:00",
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1$`).
		WithArgs(int64(11)).
		WillReturnRows(bookingRow(11, domain.StatusConfirmed))

	b, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, civil.Date{Year: 2025, Month: time.November, Day: 20}, b.LessonDate)
	assert.Equal(t, "10:00", b.StartTime.String())
	assert.True(t, decimal.RequireFromString("1.5").Equal(b.HoursConsumed))
	assert.Equal(t, "evt-1", *b.ExternalEventID)
	assert.Nil(t, b.Notes)
	require.NotNil(t, b.IdempotencyKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(`FROM bookings`).WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRepository_GetConfirmedForPeriod_LocksInTransaction(t *testing.T) {
	repo, db, mock := newRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE status = \$1 AND lesson_date >= \$2 AND lesson_date <= \$3 ORDER BY lesson_date ASC, start_time ASC FOR UPDATE`).
		WithArgs("confirmed", "2025-11-19", "2025-11-21").
		WillReturnRows(bookingRow(1, domain.StatusConfirmed).AddRow(
			int64(2), int64(8), time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC), "12:00:00", 60,
			"parking", "confirmed", "1", nil, nil, nil, nil, true, nil, time.Now(), time.Now(),
		))

	bookings, err := repo.GetConfirmedForPeriod(dbmetrics.WithTx(ctx, tx),
		civil.Date{Year: 2025, Month: time.November, Day: 19},
		civil.Date{Year: 2025, Month: time.November, Day: 21},
	)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Nil(t, bookings[1].IdempotencyKey)
	assert.True(t, bookings[1].CalendarSyncPending)

	mock.ExpectRollback()
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Cancel(t *testing.T) {
	repo, _, mock := newRepo(t)
	cancelledAt := time.Now()

	mock.ExpectQuery(`UPDATE bookings SET status = \$1, cancellation_reason = \$2, cancelled_at = NOW\(\), notes = \$3, calendar_sync_pending = \$4, updated_at = NOW\(\) WHERE id = \$5 AND status <> \$6 RETURNING cancelled_at`).
		WithArgs("cancelled", "заболел, не смогу прийти", "audit", true, int64(11), "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"cancelled_at"}).AddRow(cancelledAt))

	got, err := repo.Cancel(context.Background(), 11, "заболел, не смогу прийти", ptr.Ptr("audit"), true)
	require.NoError(t, err)
	assert.Equal(t, cancelledAt, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Cancel_AlreadyCancelled(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(`UPDATE bookings`).WillReturnRows(sqlmock.NewRows([]string{"cancelled_at"}))

	_, err := repo.Cancel(context.Background(), 11, "reason long enough", nil, false)
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestRepository_SetExternalEvent(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectExec(`UPDATE bookings SET external_event_id = \$1, calendar_sync_pending = \$2`).
		WithArgs("evt-9", false, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetExternalEvent(context.Background(), 11, "evt-9"))

	mock.ExpectExec(`UPDATE bookings SET calendar_sync_pending = \$1`).
		WithArgs(false, int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkCalendarSynced(context.Background(), 12), ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
