package cancel_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	cancelBooking "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
)

type useCaseMock struct{ mock.Mock }

func (m *useCaseMock) Execute(ctx context.Context, req *cancelBooking.Request) (*cancelBooking.Response, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*cancelBooking.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(h *Handler, path, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/bookings/{bookingId}/cancel", h.Handle).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), 7, false))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Handle(t *testing.T) {
	uc := &useCaseMock{}
	uc.On("Execute", mock.Anything, &cancelBooking.Request{
		BookingID:          101,
		UserID:             7,
		CancellationReason: "заболел, не смогу прийти",
	}).Return(&cancelBooking.Response{
		BookingID:     101,
		HoursRefunded: decimal.RequireFromString("1.5"),
		NewBalance:    decimal.RequireFromString("3.5"),
		CancelledAt:   time.Date(2025, 11, 18, 12, 0, 0, 0, time.UTC),
	}, nil)

	rec := serve(NewHandler(uc, logger.NewNop()), "/bookings/101/cancel", `{"cancellationReason":"заболел, не смогу прийти"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.5", body["hoursRefunded"])
	assert.Equal(t, "3.5", body["newBalance"])
	assert.Equal(t, "2025-11-18T12:00:00Z", body["cancelledAt"])
}

func TestHandler_Handle_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: cancelBooking.ErrInvalidInput, status: http.StatusBadRequest},
		{err: cancelBooking.ErrBookingNotFound, status: http.StatusNotFound},
		{err: cancelBooking.ErrAccessDenied, status: http.StatusForbidden},
		{err: cancelBooking.ErrAlreadyCancelled, status: http.StatusConflict},
		{err: cancelBooking.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			uc := &useCaseMock{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(NewHandler(uc, logger.NewNop()), "/bookings/101/cancel", `{"cancellationReason":"причина отмены урока"}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := serve(NewHandler(&useCaseMock{}, logger.NewNop()), "/bookings/abc/cancel", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
