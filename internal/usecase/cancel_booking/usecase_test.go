package cancel_booking

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/calendar"
	"github.com/m04kA/DrivingSchool-BookingService/internal/notification"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/ptr"
)

type bookingRepoMock struct{ mock.Mock }

func (m *bookingRepoMock) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *bookingRepoMock) Cancel(ctx context.Context, id int64, reason string, notes *string, syncPending bool) (time.Time, error) {
	args := m.Called(ctx, id, reason, notes, syncPending)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *bookingRepoMock) MarkCalendarSynced(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type quotaRepoMock struct{ mock.Mock }

func (m *quotaRepoMock) LockBalance(ctx context.Context, userID int64) (*domain.UserQuota, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*domain.UserQuota), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *quotaRepoMock) AppendEntry(ctx context.Context, entry *domain.QuotaLedgerEntry) (decimal.Decimal, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type calendarMock struct{ mock.Mock }

func (m *calendarMock) DeleteEvent(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

type notifierSpy struct {
	kinds    []notification.Kind
	payloads []notification.Payload
}

func (n *notifierSpy) Notify(_ context.Context, kind notification.Kind, payload notification.Payload) {
	n.kinds = append(n.kinds, kind)
	n.payloads = append(n.payloads, payload)
}

type txStub struct{}

func (txStub) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

const validReason = "заболел, не смогу прийти"

var cancelledAt = time.Date(2025, 11, 18, 12, 0, 0, 0, time.UTC)

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:              101,
		UserID:          7,
		LessonDate:      civil.Date{Year: 2025, Month: time.November, Day: 20},
		StartTime:       "10:00",
		DurationMinutes: 90,
		LessonType:      "city",
		Status:          domain.StatusConfirmed,
		HoursConsumed:   decimal.RequireFromString("1.5"),
		ExternalEventID: ptr.Ptr("evt-1"),
		Notes:           ptr.Ptr("первый урок"),
	}
}

func newUseCase(b *bookingRepoMock, q *quotaRepoMock, c *calendarMock, n *notifierSpy) *UseCase {
	uc := NewUseCase(b, q, c, n, txStub{}, logger.NewNop())
	uc.timeProvider = fixedTime{now: cancelledAt}
	return uc
}

func TestUseCase_Execute_Success(t *testing.T) {
	b, q, c, n := &bookingRepoMock{}, &quotaRepoMock{}, &calendarMock{}, &notifierSpy{}

	b.On("GetByID", mock.Anything, int64(101)).Return(confirmedBooking(), nil)
	q.On("LockBalance", mock.Anything, int64(7)).
		Return(&domain.UserQuota{UserID: 7, AvailableHours: decimal.RequireFromString("2")}, nil)
	q.On("AppendEntry", mock.Anything, mock.MatchedBy(func(e *domain.QuotaLedgerEntry) bool {
		return e.TransactionType == domain.TransactionRefund &&
			e.HoursChange.Equal(decimal.RequireFromString("1.5")) &&
			e.BookingID != nil && *e.BookingID == 101
	})).Return(decimal.RequireFromString("3.5"), nil)
	b.On("Cancel", mock.Anything, int64(101), validReason, mock.MatchedBy(func(notes *string) bool {
		return notes != nil &&
			*notes == "первый урок\n[2025-11-18T12:00:00Z] отменено пользователем 7: "+validReason
	}), true).Return(cancelledAt, nil)
	c.On("DeleteEvent", mock.Anything, "evt-1").Return(nil)
	b.On("MarkCalendarSynced", mock.Anything, int64(101)).Return(nil)

	resp, err := newUseCase(b, q, c, n).Execute(context.Background(), &Request{
		BookingID:          101,
		UserID:             7,
		CancellationReason: "  " + validReason + " ",
	})
	require.NoError(t, err)

	assert.True(t, resp.HoursRefunded.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, resp.NewBalance.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, cancelledAt, resp.CancelledAt)

	require.Len(t, n.kinds, 1)
	assert.Equal(t, notification.KindBookingCancelled, n.kinds[0])
	assert.Equal(t, "1.50", n.payloads[0].HoursRefunded)

	b.AssertExpectations(t)
	q.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestUseCase_Execute_AdminCancelsForeignBooking(t *testing.T) {
	b, q, c, n := &bookingRepoMock{}, &quotaRepoMock{}, &calendarMock{}, &notifierSpy{}

	booking := confirmedBooking()
	booking.ExternalEventID = nil
	booking.Notes = nil

	b.On("GetByID", mock.Anything, int64(101)).Return(booking, nil)
	q.On("LockBalance", mock.Anything, int64(7)).Return(&domain.UserQuota{UserID: 7}, nil)
	q.On("AppendEntry", mock.Anything, mock.Anything).Return(decimal.RequireFromString("1.5"), nil)
	b.On("Cancel", mock.Anything, int64(101), validReason, mock.MatchedBy(func(notes *string) bool {
		return notes != nil && *notes == "[2025-11-18T12:00:00Z] отменено администратором 1: "+validReason
	}), false).Return(cancelledAt, nil)

	_, err := newUseCase(b, q, c, n).Execute(context.Background(), &Request{
		BookingID:          101,
		UserID:             1,
		IsAdmin:            true,
		CancellationReason: validReason,
	})
	require.NoError(t, err)

	c.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything)
}

func TestUseCase_Execute_CalendarFailureKeepsCancellation(t *testing.T) {
	b, q, c, n := &bookingRepoMock{}, &quotaRepoMock{}, &calendarMock{}, &notifierSpy{}

	b.On("GetByID", mock.Anything, int64(101)).Return(confirmedBooking(), nil)
	q.On("LockBalance", mock.Anything, int64(7)).Return(&domain.UserQuota{UserID: 7}, nil)
	q.On("AppendEntry", mock.Anything, mock.Anything).Return(decimal.RequireFromString("1.5"), nil)
	b.On("Cancel", mock.Anything, int64(101), validReason, mock.Anything, true).Return(cancelledAt, nil)
	c.On("DeleteEvent", mock.Anything, "evt-1").Return(calendar.ErrUnavailable)

	resp, err := newUseCase(b, q, c, n).Execute(context.Background(), &Request{
		BookingID:          101,
		UserID:             7,
		CancellationReason: validReason,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), resp.BookingID)

	b.AssertNotCalled(t, "MarkCalendarSynced", mock.Anything, mock.Anything)
	assert.Len(t, n.kinds, 1)
}

func TestUseCase_Execute_Rejections(t *testing.T) {
	cancelled := confirmedBooking()
	cancelled.Status = domain.StatusCancelled

	tests := []struct {
		name    string
		req     *Request
		booking *domain.Booking
		repoErr error
		wantErr error
	}{
		{
			name:    "short reason",
			req:     &Request{BookingID: 101, UserID: 7, CancellationReason: "  передумал "},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "not found",
			req:     &Request{BookingID: 101, UserID: 7, CancellationReason: validReason},
			repoErr: bookingRepo.ErrBookingNotFound,
			wantErr: ErrBookingNotFound,
		},
		{
			name:    "foreign booking",
			req:     &Request{BookingID: 101, UserID: 8, CancellationReason: validReason},
			booking: confirmedBooking(),
			wantErr: ErrAccessDenied,
		},
		{
			name:    "already cancelled",
			req:     &Request{BookingID: 101, UserID: 7, CancellationReason: validReason},
			booking: cancelled,
			wantErr: ErrAlreadyCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, q, c, n := &bookingRepoMock{}, &quotaRepoMock{}, &calendarMock{}, &notifierSpy{}
			if tt.booking != nil || tt.repoErr != nil {
				b.On("GetByID", mock.Anything, int64(101)).Return(tt.booking, tt.repoErr)
			}

			_, err := newUseCase(b, q, c, n).Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			// Никаких записей в журнале и уведомлений
			q.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything)
			b.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, n.kinds)
		})
	}
}

func TestUseCase_Execute_CancelledConcurrently(t *testing.T) {
	b, q, c, n := &bookingRepoMock{}, &quotaRepoMock{}, &calendarMock{}, &notifierSpy{}

	b.On("GetByID", mock.Anything, int64(101)).Return(confirmedBooking(), nil)
	q.On("LockBalance", mock.Anything, int64(7)).Return(&domain.UserQuota{UserID: 7}, nil)
	q.On("AppendEntry", mock.Anything, mock.Anything).Return(decimal.RequireFromString("1.5"), nil)
	b.On("Cancel", mock.Anything, int64(101), validReason, mock.Anything, true).
		Return(time.Time{}, bookingRepo.ErrCannotCancel)

	_, err := newUseCase(b, q, c, n).Execute(context.Background(), &Request{
		BookingID:          101,
		UserID:             7,
		CancellationReason: validReason,
	})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Empty(t, n.kinds)
}

// memoryLedger журнал в памяти: баланс всегда равен сумме записей
type memoryLedger struct {
	entries []domain.QuotaLedgerEntry
}

func (l *memoryLedger) balance() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range l.entries {
		sum = sum.Add(e.HoursChange)
	}
	return sum
}

func (l *memoryLedger) LockBalance(_ context.Context, userID int64) (*domain.UserQuota, error) {
	return &domain.UserQuota{UserID: userID, AvailableHours: l.balance()}, nil
}

func (l *memoryLedger) AppendEntry(_ context.Context, entry *domain.QuotaLedgerEntry) (decimal.Decimal, error) {
	l.entries = append(l.entries, *entry)
	return l.balance(), nil
}

func TestUseCase_Execute_RefundRestoresBalance(t *testing.T) {
	booking := confirmedBooking()
	booking.ExternalEventID = nil

	// Покупка 10 часов и списание за урок, как их пишет создание бронирования
	ledger := &memoryLedger{entries: []domain.QuotaLedgerEntry{
		{UserID: 7, HoursChange: decimal.NewFromInt(10), TransactionType: domain.TransactionPurchase},
		{UserID: 7, HoursChange: booking.HoursConsumed.Neg(), TransactionType: domain.TransactionBooking, BookingID: ptr.Ptr(booking.ID)},
	}}

	b := &bookingRepoMock{}
	b.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)
	b.On("Cancel", mock.Anything, booking.ID, validReason, mock.Anything, false).Return(cancelledAt, nil)

	uc := NewUseCase(b, ledger, &calendarMock{}, &notifierSpy{}, txStub{}, logger.NewNop())
	uc.timeProvider = fixedTime{now: cancelledAt}

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID:          booking.ID,
		UserID:             7,
		CancellationReason: validReason,
	})
	require.NoError(t, err)

	assert.True(t, resp.NewBalance.Equal(decimal.NewFromInt(10)))

	lessonSum := decimal.Zero
	lessonEntries := 0
	for _, e := range ledger.entries {
		if e.BookingID != nil && *e.BookingID == booking.ID {
			lessonSum = lessonSum.Add(e.HoursChange)
			lessonEntries++
		}
	}
	assert.Equal(t, 2, lessonEntries)
	assert.True(t, lessonSum.IsZero())
}
