package credit_quota

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota"
)

const (
	msgInvalidUserID      = "некорректный ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidData        = "некорректные данные начисления"
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

// Handle POST /api/v1/admin/users/{userId}/quota
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.GetUserID(r.Context())

	// Извлекаем userId из URL
	vars := mux.Vars(r)
	userID, err := strconv.ParseInt(vars["userId"], 10, 64)
	if err != nil || userID <= 0 {
		h.logger.Warn("POST /admin/users/{id}/quota - Invalid user ID: %s", vars["userId"])
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	// Декодируем body
	var req CreditQuotaRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/users/{id}/quota - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Credit(r.Context(), req.ToServiceRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrInvalidInput):
			h.logger.Warn("POST /admin/users/{id}/quota - Invalid data: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			h.logger.Error("POST /admin/users/{id}/quota - Failed to credit: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/users/{id}/quota - Quota credited: admin_id=%d, user_id=%d, hours=%s, balance=%s",
		adminID, userID, req.Hours.StringFixed(2), result.AvailableHours.StringFixed(2))
	handlers.RespondJSON(w, http.StatusOK, &CreditQuotaResponse{
		UserID:         result.UserID,
		AvailableHours: result.AvailableHours.StringFixed(2),
	})
}
