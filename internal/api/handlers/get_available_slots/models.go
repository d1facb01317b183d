package get_available_slots

import (
	"strconv"
	"time"

	getAvailableSlots "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/get_available_slots"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date             string          `json:"date"`
	Timezone         string          `json:"timezone"`
	CalendarDegraded bool            `json:"calendarDegraded"`
	Slots            []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"` // настенное время в часовом поясе школы
	EndTime   string `json:"endTime"`
	Start     string `json:"start"` // RFC 3339 со смещением пояса школы
	End       string `json:"end"`
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			Date:      slot.Date.String(),
			StartTime: slot.StartTime.String(),
			EndTime:   slot.EndTime.String(),
			Start:     slot.Start.Format(time.RFC3339),
			End:       slot.End.Format(time.RFC3339),
			Available: slot.Available,
			Reason:    string(slot.Reason),
		}
	}

	return &AvailableSlotsResponse{
		Date:             resp.Date.String(),
		Timezone:         resp.Timezone,
		CalendarDegraded: resp.CalendarDegraded,
		Slots:            slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(dateStr, bufferStr string) (*getAvailableSlots.Request, error) {
	date, err := types.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	req := &getAvailableSlots.Request{Date: date}

	if bufferStr != "" {
		buffer, err := strconv.Atoi(bufferStr)
		if err != nil {
			return nil, err
		}
		req.BufferMinutes = &buffer
	}

	return req, nil
}
