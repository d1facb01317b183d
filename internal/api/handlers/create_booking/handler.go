package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/create_booking"
)

// IdempotencyKeyHeader заголовок с клиентским ключом запроса
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректная дата (YYYY-MM-DD) или время (HH:MM)"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidInput       = "некорректные данные бронирования"
	msgSlotNotAvailable   = "выбранное время недоступно"
	msgInvalidTimeSlot    = "время не совпадает с сеткой слотов или выходит за рабочие часы"
	msgInsufficientQuota  = "недостаточно часов на балансе"
	msgConcurrentRequest  = "другое бронирование уже оформляется, повторите позже"
	msgKeyReused          = "ключ запроса уже использован"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest(userID, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var quotaErr *createBooking.InsufficientQuotaError

		switch {
		case errors.As(err, &quotaErr):
			h.logger.Warn("POST /bookings - Insufficient quota: user_id=%d, available=%s, required=%s",
				userID, quotaErr.Available, quotaErr.Required)
			handlers.RespondJSON(w, http.StatusPaymentRequired, InsufficientQuotaResponse{
				Code:           http.StatusPaymentRequired,
				Message:        msgInsufficientQuota,
				AvailableHours: quotaErr.Available,
				RequiredHours:  quotaErr.Required,
			})

		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: user_id=%d, date=%s, time=%s", userID, req.Date, req.Time)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrConcurrentRequest):
			h.logger.Warn("POST /bookings - Concurrent request: user_id=%d", userID)
			handlers.RespondConflict(w, msgConcurrentRequest)

		case errors.Is(err, createBooking.ErrIdempotencyKeyReused):
			h.logger.Warn("POST /bookings - Idempotency key reused: user_id=%d", userID)
			handlers.RespondConflict(w, msgKeyReused)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings - Invalid time slot: user_id=%d, date=%s, time=%s", userID, req.Date, req.Time)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, user_id=%d, replayed=%t",
		result.Booking.ID, userID, result.Replayed)
	handlers.RespondJSON(w, status, models.FromDomainBooking(result.Booking))
}
