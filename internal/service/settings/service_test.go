package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	settingsRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/settings"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/settings/models"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/ptr"
)

type repoMock struct{ mock.Mock }

func (m *repoMock) Get(ctx context.Context) (*domain.CalendarSettings, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*domain.CalendarSettings), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *repoMock) CreateIfMissing(ctx context.Context, s *domain.CalendarSettings) error {
	return m.Called(ctx, s).Error(0)
}

func (m *repoMock) Update(ctx context.Context, s *domain.CalendarSettings) (time.Time, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *repoMock) ReplaceVacationDays(ctx context.Context, days []domain.VacationDay) error {
	return m.Called(ctx, days).Error(0)
}

// inlineTx выполняет функцию без настоящей транзакции
type inlineTx struct{}

func (inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestService_Get_CreatesDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &repoMock{}
	repo.On("Get", ctx).Return(nil, settingsRepo.ErrSettingsNotFound).Once()
	repo.On("CreateIfMissing", ctx, mock.AnythingOfType("*domain.CalendarSettings")).Return(nil)
	repo.On("Get", ctx).Return(domain.DefaultCalendarSettings(), nil).Once()

	got, err := NewService(repo, inlineTx{}, logger.NewNop()).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSlotDurationMinutes, got.SlotDurationMinutes)
	repo.AssertExpectations(t)
}

func TestService_Get_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := &repoMock{}
	repo.On("Get", ctx).Return(nil, errors.New("db down"))

	_, err := NewService(repo, inlineTx{}, logger.NewNop()).Get(ctx)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestService_Update_Partial(t *testing.T) {
	ctx := context.Background()
	updatedAt := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

	repo := &repoMock{}
	repo.On("Get", ctx).Return(domain.DefaultCalendarSettings(), nil)
	repo.On("Update", ctx, mock.MatchedBy(func(s *domain.CalendarSettings) bool {
		return s.BufferMinutes == 30 && s.SlotDurationMinutes == domain.DefaultSlotDurationMinutes
	})).Return(updatedAt, nil)
	repo.On("ReplaceVacationDays", ctx, mock.MatchedBy(func(days []domain.VacationDay) bool {
		return len(days) == 2 && days[0].Date.String() == "2025-12-30"
	})).Return(nil)

	resp, err := NewService(repo, inlineTx{}, logger.NewNop()).Update(ctx, &models.UpdateSettingsRequest{
		BufferMinutes: ptr.Ptr(30),
		VacationDays: &[]models.VacationDay{
			{Date: "2025-12-31"},
			{Date: "2025-12-30", Reason: ptr.Ptr("праздники")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, resp.BufferMinutes)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, resp.WorkingDays)
	assert.Equal(t, "09:00", resp.WorkingHours["monday"].Start)
	assert.Equal(t, updatedAt, *resp.UpdatedAt)
	repo.AssertExpectations(t)
}

func TestService_Update_WithoutVacationsKeepsThem(t *testing.T) {
	ctx := context.Background()
	repo := &repoMock{}
	repo.On("Get", ctx).Return(domain.DefaultCalendarSettings(), nil)
	repo.On("Update", ctx, mock.Anything).Return(time.Now(), nil)

	_, err := NewService(repo, inlineTx{}, logger.NewNop()).Update(ctx, &models.UpdateSettingsRequest{
		Timezone: ptr.Ptr("Asia/Tokyo"),
	})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "ReplaceVacationDays", mock.Anything, mock.Anything)
}

func TestService_Update_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  *models.UpdateSettingsRequest
	}{
		{name: "negative buffer", req: &models.UpdateSettingsRequest{BufferMinutes: ptr.Ptr(-5)}},
		{name: "tiny slot", req: &models.UpdateSettingsRequest{SlotDurationMinutes: ptr.Ptr(1)}},
		{name: "unknown timezone", req: &models.UpdateSettingsRequest{Timezone: ptr.Ptr("Nowhere/City")}},
		{name: "weekday out of range", req: &models.UpdateSettingsRequest{WorkingDays: &[]int{1, 7}}},
		{name: "saturday without hours", req: &models.UpdateSettingsRequest{WorkingDays: &[]int{6}}},
		{name: "end before start", req: &models.UpdateSettingsRequest{
			WorkingHours: map[string]models.DayHours{"monday": {Start: "18:00", End: "09:00"}},
		}},
		{name: "bad weekday name", req: &models.UpdateSettingsRequest{
			WorkingHours: map[string]models.DayHours{"funday": {Start: "09:00", End: "18:00"}},
		}},
		{name: "bad vacation date", req: &models.UpdateSettingsRequest{
			VacationDays: &[]models.VacationDay{{Date: "31.12.2025"}},
		}},
		{name: "duplicate vacation", req: &models.UpdateSettingsRequest{
			VacationDays: &[]models.VacationDay{{Date: "2025-12-31"}, {Date: "2025-12-31"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := &repoMock{}
			repo.On("Get", ctx).Return(domain.DefaultCalendarSettings(), nil)

			_, err := NewService(repo, inlineTx{}, logger.NewNop()).Update(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}
