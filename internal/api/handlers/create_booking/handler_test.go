package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	createBooking "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/create_booking"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
)

const requestKey = "0b7e2f4c-3a1d-4c5e-9f1a-2b3c4d5e6f70"

type useCaseMock struct{ mock.Mock }

func (m *useCaseMock) Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*createBooking.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func booking() *domain.Booking {
	return &domain.Booking{
		ID:              101,
		UserID:          7,
		LessonDate:      civil.Date{Year: 2025, Month: time.November, Day: 20},
		StartTime:       "10:00",
		DurationMinutes: 60,
		LessonType:      "city",
		Status:          domain.StatusConfirmed,
		HoursConsumed:   decimal.NewFromInt(1),
	}
}

func doRequest(h *Handler, body string, headers map[string]string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if authed {
		req = req.WithContext(middleware.WithUser(req.Context(), 7, false))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

const validBody = `{"date":"2025-11-20","time":"10:00","durationMinutes":60,"lessonType":"city"}`

func TestHandler_Handle_Created(t *testing.T) {
	uc := &useCaseMock{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(r *createBooking.Request) bool {
		return r.UserID == 7 && r.StartTime == "10:00" && r.IdempotencyKey != nil && *r.IdempotencyKey == requestKey
	})).Return(&createBooking.Response{Booking: booking()}, nil)

	rec := doRequest(NewHandler(uc, logger.NewNop()), validBody, map[string]string{IdempotencyKeyHeader: requestKey}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2025-11-20", body["lessonDate"])
	assert.Equal(t, "10:00", body["startTime"])
	assert.Equal(t, "11:00", body["endTime"])
	assert.Equal(t, "confirmed", body["status"])
}

func TestHandler_Handle_ReplayFromBodyKey(t *testing.T) {
	uc := &useCaseMock{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(r *createBooking.Request) bool {
		return r.IdempotencyKey != nil && *r.IdempotencyKey == requestKey
	})).Return(&createBooking.Response{Booking: booking(), Replayed: true}, nil)

	body := fmt.Sprintf(`{"date":"2025-11-20","time":"10:00","durationMinutes":60,"lessonType":"city","requestKey":%q}`, requestKey)
	rec := doRequest(NewHandler(uc, logger.NewNop()), body, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Handle_InsufficientQuota(t *testing.T) {
	uc := &useCaseMock{}
	uc.On("Execute", mock.Anything, mock.Anything).Return(nil, &createBooking.InsufficientQuotaError{
		Available: decimal.RequireFromString("0.5"),
		Required:  decimal.RequireFromString("1"),
	})

	rec := doRequest(NewHandler(uc, logger.NewNop()), validBody, nil, true)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body InsufficientQuotaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.AvailableHours.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, body.RequiredHours.Equal(decimal.RequireFromString("1")))
}

func TestHandler_Handle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: createBooking.ErrSlotNotAvailable, status: http.StatusConflict},
		{err: createBooking.ErrConcurrentRequest, status: http.StatusConflict},
		{err: createBooking.ErrIdempotencyKeyReused, status: http.StatusConflict},
		{err: createBooking.ErrInvalidTimeSlot, status: http.StatusBadRequest},
		{err: createBooking.ErrInvalidInput, status: http.StatusBadRequest},
		{err: createBooking.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			uc := &useCaseMock{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: detail", tt.err))

			rec := doRequest(NewHandler(uc, logger.NewNop()), validBody, nil, true)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandler_Handle_BadInput(t *testing.T) {
	h := NewHandler(&useCaseMock{}, logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, doRequest(h, validBody, nil, false).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"date":`, nil, true).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"date":"2025-11-20","time":"25:00","durationMinutes":60,"lessonType":"city"}`, nil, true).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"date":"20.11.2025","time":"10:00","durationMinutes":60,"lessonType":"city"}`, nil, true).Code)
}
