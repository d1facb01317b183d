package get_quota

import (
	"net/http"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
)

const (
	msgMissingUserID = "отсутствует ID пользователя"
)

type Handler struct {
	service QuotaService
	logger  Logger
}

func NewHandler(service QuotaService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/quota
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /quota - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.GetQuota(r.Context(), userID)
	if err != nil {
		h.logger.Error("GET /quota - Failed to get quota: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /quota - Quota retrieved successfully: user_id=%d, available=%s",
		userID, result.AvailableHours.StringFixed(2))
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(result))
}
