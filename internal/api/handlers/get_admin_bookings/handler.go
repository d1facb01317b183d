package get_admin_bookings

import (
	"errors"
	"net/http"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings"
)

const (
	msgInvalidParams    = "некорректные параметры запроса"
	msgInvalidTimeRange = "некорректный период: to раньше from или длиннее года"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/admin/bookings
// Query params: from, to, status, userId (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.GetUserID(r.Context())

	// Получаем опциональные query параметры
	query := r.URL.Query()
	serviceReq, err := ToServiceRequest(query.Get("from"), query.Get("to"), query.Get("status"), query.Get("userId"))
	if err != nil {
		h.logger.Warn("GET /admin/bookings - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.GetBookings(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidTimeRange):
			h.logger.Warn("GET /admin/bookings - Invalid time range: from=%s, to=%s",
				query.Get("from"), query.Get("to"))
			handlers.RespondBadRequest(w, msgInvalidTimeRange)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /admin/bookings - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("GET /admin/bookings - Failed to get bookings: admin_id=%d, error=%v", adminID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /admin/bookings - Bookings retrieved successfully: admin_id=%d, count=%d",
		adminID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result.Bookings)
}
