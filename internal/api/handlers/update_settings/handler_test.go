package update_settings

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/settings"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/settings/models"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
)

type serviceMock struct{ mock.Mock }

func (m *serviceMock) Update(ctx context.Context, req *models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*models.SettingsResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func put(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/settings", strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), 1, true))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandler_Handle(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Update", mock.Anything, mock.MatchedBy(func(r *models.UpdateSettingsRequest) bool {
		return r.BufferMinutes != nil && *r.BufferMinutes == 30 && r.Timezone == nil
	})).Return(&models.SettingsResponse{BufferMinutes: 30, Timezone: "Europe/Moscow"}, nil)

	rec := put(NewHandler(svc, logger.NewNop()), `{"bufferMinutes":30}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bufferMinutes":30`)
	svc.AssertExpectations(t)
}

func TestHandler_Handle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{name: "malformed json", body: `{"bufferMinutes":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"slotSize":30}`, wantStatus: http.StatusBadRequest},
		{name: "invalid data", body: `{"timezone":"Mars/Base"}`, serviceErr: fmt.Errorf("%w: bad timezone", settings.ErrInvalidInput), wantStatus: http.StatusBadRequest},
		{name: "internal", body: `{"bufferMinutes":10}`, serviceErr: fmt.Errorf("%w: db", settings.ErrInternal), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &serviceMock{}
			if tt.serviceErr != nil {
				svc.On("Update", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}

			rec := put(NewHandler(svc, logger.NewNop()), tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
