package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	settingsRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/settings"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/settings/models"
)

// Service сервис настроек календаря инструктора
type Service struct {
	repo      SettingsRepository
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса настроек
func NewService(repo SettingsRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// Get возвращает текущие настройки в виде доменной модели
// При первом обращении создаёт строку с настройками по умолчанию
func (s *Service) Get(ctx context.Context) (*domain.CalendarSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, settingsRepo.ErrSettingsNotFound) {
		s.logger.Error("Settings.Get: repository error: %v", err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Settings.Get: settings not found, creating defaults")
	if err := s.repo.CreateIfMissing(ctx, domain.DefaultCalendarSettings()); err != nil {
		s.logger.Error("Settings.Get: failed to create defaults: %v", err)
		return nil, fmt.Errorf("%w: Get - create defaults: %v", ErrInternal, err)
	}

	// Перечитываем: строку мог вставить параллельный запрос
	settings, err = s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("Settings.Get: failed to reread settings: %v", err)
		return nil, fmt.Errorf("%w: Get - reread: %v", ErrInternal, err)
	}
	return settings, nil
}

// GetResponse возвращает настройки для API
func (s *Service) GetResponse(ctx context.Context) (*models.SettingsResponse, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return models.FromDomainSettings(settings), nil
}

// Update частично обновляет настройки (только переданные поля)
// Список дней отпуска, если передан, заменяется целиком
func (s *Service) Update(ctx context.Context, req *models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
	s.logger.Info("Settings.Update: updating calendar settings")

	var result *domain.CalendarSettings

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Читаем текущие настройки (создаём при отсутствии)
		current, err := s.Get(txCtx)
		if err != nil {
			return err
		}

		// 2. Применяем изменения
		if err := req.ApplyTo(current); err != nil {
			s.logger.Warn("Settings.Update: invalid request: %v", err)
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		// 3. Проверяем инварианты
		if err := current.Validate(); err != nil {
			s.logger.Warn("Settings.Update: validation failed: %v", err)
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		// 4. Сохраняем
		updatedAt, err := s.repo.Update(txCtx, current)
		if err != nil {
			s.logger.Error("Settings.Update: repository error: %v", err)
			return fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
		}
		current.UpdatedAt = updatedAt

		if req.VacationDays != nil {
			if err := s.repo.ReplaceVacationDays(txCtx, current.VacationDays); err != nil {
				s.logger.Error("Settings.Update: failed to replace vacation days: %v", err)
				return fmt.Errorf("%w: Update - vacation days: %v", ErrInternal, err)
			}
		}

		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Settings.Update: settings updated (slot=%d, buffer=%d, tz=%s, vacation days=%d)",
		result.SlotDurationMinutes, result.BufferMinutes, result.Timezone, len(result.VacationDays))
	return models.FromDomainSettings(result), nil
}
