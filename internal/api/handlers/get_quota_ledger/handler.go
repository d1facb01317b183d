package get_quota_ledger

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

// Handle GET /api/v1/quota/ledger
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /quota/ledger - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.GetLedger(r.Context(), userID)
	if err != nil {
		h.logger.Error("GET /quota/ledger - Failed to get ledger: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /quota/ledger - Ledger retrieved successfully: user_id=%d, count=%d",
		userID, len(result.Entries))
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(result))
}
