package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/get_available_slots"
)

const (
	msgMissingDate   = "дата обязательна"
	msgInvalidParams = "некорректный формат даты (YYYY-MM-DD) или буфера"
	msgInvalidInput  = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability
// Query params: date (required, YYYY-MM-DD), bufferMinutes (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /availability - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	// Формируем запрос к use case (с парсингом даты)
	useCaseReq, err := ToUseCaseRequest(dateStr, r.URL.Query().Get("bufferMinutes"))
	if err != nil {
		h.logger.Warn("GET /availability - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /availability - Invalid input: date=%s, error=%v", dateStr, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /availability - Failed to get slots: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - Slots retrieved successfully: date=%s, slots_count=%d, calendar_degraded=%t",
		dateStr, len(result.Slots), result.CalendarDegraded)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
