package get_settings

import (
	"net/http"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
)

type Handler struct {
	service SettingsService
	logger  Logger
}

func NewHandler(service SettingsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/settings
// Публичный endpoint - без авторизации
// Если настройки еще не сохранялись, сервис вернет значения по умолчанию
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetResponse(r.Context())
	if err != nil {
		h.logger.Error("GET /settings - Failed to get settings: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /settings - Settings retrieved successfully: timezone=%s, slot_duration=%d",
		result.Timezone, result.SlotDurationMinutes)
	handlers.RespondJSON(w, http.StatusOK, result)
}
