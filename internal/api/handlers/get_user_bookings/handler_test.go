package get_user_bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings/models"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
)

type serviceMock struct{ mock.Mock }

func (m *serviceMock) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*models.BookingListResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func get(h *Handler, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), 7, false))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandler_Handle(t *testing.T) {
	svc := &serviceMock{}
	svc.On("GetUserBookings", mock.Anything, mock.MatchedBy(func(r *models.GetUserBookingsRequest) bool {
		return r.UserID == 7 && r.Status != nil && *r.Status == "confirmed"
	})).Return(&models.BookingListResponse{Bookings: []models.BookingResponse{{ID: 1}, {ID: 2}}}, nil)

	rec := get(NewHandler(svc, logger.NewNop()), "/api/v1/users/me/bookings?status=confirmed")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []models.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)
}

func TestHandler_Handle_InvalidStatus(t *testing.T) {
	svc := &serviceMock{}
	svc.On("GetUserBookings", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: invalid status", bookings.ErrInvalidInput))

	rec := get(NewHandler(svc, logger.NewNop()), "/api/v1/users/me/bookings?status=done")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
