package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings/models"
)

// maxPeriodDays максимальная длина периода в выборке администратора
const maxPeriodDays = 366

// Service сервис для чтения бронирований
type Service struct {
	bookingRepo BookingRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(bookingRepo BookingRepository, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Ученик видит только свои бронирования, администратор - любые
func (s *Service) GetByID(ctx context.Context, id int64, userID int64, isAdmin bool) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	// Проверяем права доступа
	if !isAdmin && !booking.IsOwnedBy(userID) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	// Конвертируем статус из строки в domain.BookingStatus
	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetBookings получает бронирования школы с фильтрацией
// Доступно только администратору (проверяется в middleware)
//
// Примеры использования:
// - Все бронирования на дату: StartDate и EndDate указывают на одну дату
// - Только подтвержденные за период: Status = "confirmed"
// - Бронирования конкретного ученика: UserID
func (s *Service) GetBookings(ctx context.Context, req *models.GetBookingsRequest) (*models.BookingListResponse, error) {
	logMsg := "GetBookings: fetching bookings"
	if req.StartDate != nil && req.EndDate != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.StartDate, req.EndDate)
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	if req.UserID != nil {
		logMsg += fmt.Sprintf(", user=%d", *req.UserID)
	}
	s.logger.Info(logMsg)

	// Проверяем период
	if req.StartDate != nil && req.EndDate != nil {
		if req.EndDate.Before(*req.StartDate) {
			s.logger.Warn("GetBookings: end date %s is before start date %s", req.EndDate, req.StartDate)
			return nil, ErrInvalidTimeRange
		}
		if req.EndDate.DaysSince(*req.StartDate) > maxPeriodDays {
			s.logger.Warn("GetBookings: period %s..%s is longer than %d days", req.StartDate, req.EndDate, maxPeriodDays)
			return nil, ErrInvalidTimeRange
		}
	}

	// Конвертируем request в domain фильтр
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetBookings: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetBookings: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetBookings: successfully fetched %d bookings", len(bookings))
	return models.FromDomainBookingList(bookings), nil
}
