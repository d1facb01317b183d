package get_settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/service/settings/models"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
)

type serviceMock struct{ mock.Mock }

func (m *serviceMock) GetResponse(ctx context.Context) (*models.SettingsResponse, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*models.SettingsResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandler_Handle(t *testing.T) {
	svc := &serviceMock{}
	svc.On("GetResponse", mock.Anything).Return(&models.SettingsResponse{
		WorkingDays:         []int{1, 2, 3, 4, 5},
		WorkingHours:        map[string]models.DayHours{"monday": {Start: "09:00", End: "18:00"}},
		SlotDurationMinutes: 60,
		BufferMinutes:       15,
		VacationDays:        []models.VacationDay{},
		Timezone:            "Europe/Moscow",
	}, nil)

	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Europe/Moscow", body["timezone"])
	assert.EqualValues(t, 15, body["bufferMinutes"])
}

func TestHandler_Handle_Error(t *testing.T) {
	svc := &serviceMock{}
	svc.On("GetResponse", mock.Anything).Return(nil, errors.New("db down"))

	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
