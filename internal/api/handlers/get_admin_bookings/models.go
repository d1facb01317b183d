package get_admin_bookings

import (
	"fmt"
	"strconv"

	"github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings/models"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(fromStr, toStr, statusStr, userIDStr string) (*models.GetBookingsRequest, error) {
	req := &models.GetBookingsRequest{}

	// Парсим from если указан
	if fromStr != "" {
		from, err := types.ParseDate(fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid from: %w", err)
		}
		req.StartDate = &from
	}

	// Парсим to если указан
	if toStr != "" {
		to, err := types.ParseDate(toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid to: %w", err)
		}
		req.EndDate = &to
	}

	// Парсим status если указан
	if statusStr != "" {
		req.Status = &statusStr
	}

	// Парсим userId если указан
	if userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID <= 0 {
			return nil, fmt.Errorf("invalid userId %q", userIDStr)
		}
		req.UserID = &userID
	}

	return req, nil
}
