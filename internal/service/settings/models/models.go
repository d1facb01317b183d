package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// DayHours рабочие часы одного дня недели
type DayHours struct {
	Start string `json:"start"` // "09:00"
	End   string `json:"end"`   // "18:00"
}

// VacationDay день отпуска
type VacationDay struct {
	Date   string  `json:"date"` // "2025-12-31"
	Reason *string `json:"reason,omitempty"`
}

// Request модели

// UpdateSettingsRequest запрос на обновление настроек
// Все поля опциональны - обновляются только переданные значения
type UpdateSettingsRequest struct {
	WorkingDays                 *[]int              `json:"workingDays,omitempty"`  // 0 = воскресенье ... 6 = суббота
	WorkingHours                map[string]DayHours `json:"workingHours,omitempty"` // ключ: "monday".."sunday"
	SlotDurationMinutes         *int                `json:"slotDurationMinutes,omitempty"`
	BufferMinutes               *int                `json:"bufferMinutes,omitempty"`
	VacationDays                *[]VacationDay      `json:"vacationDays,omitempty"` // заменяет список целиком
	Timezone                    *string             `json:"timezone,omitempty"`
	BlockFullDayOnExternalEvent *bool               `json:"blockFullDayOnExternalEvent,omitempty"`
}

// Response модели

// SettingsResponse ответ с настройками календаря
type SettingsResponse struct {
	WorkingDays                 []int               `json:"workingDays"`
	WorkingHours                map[string]DayHours `json:"workingHours"`
	SlotDurationMinutes         int                 `json:"slotDurationMinutes"`
	BufferMinutes               int                 `json:"bufferMinutes"`
	VacationDays                []VacationDay       `json:"vacationDays"`
	Timezone                    string              `json:"timezone"`
	BlockFullDayOnExternalEvent bool                `json:"blockFullDayOnExternalEvent"`
	UpdatedAt                   *time.Time          `json:"updatedAt,omitempty"`
}

// Методы конвертации

// ApplyTo переносит переданные поля запроса в настройки
func (r *UpdateSettingsRequest) ApplyTo(s *domain.CalendarSettings) error {
	if r.WorkingDays != nil {
		days := make([]int64, len(*r.WorkingDays))
		for i, d := range *r.WorkingDays {
			days[i] = int64(d)
		}
		set, err := domain.WeekdaySetFromInts(days)
		if err != nil {
			return err
		}
		s.WorkingDays = set
	}

	if r.WorkingHours != nil {
		hours := make(domain.WorkingHours, len(r.WorkingHours))
		for name, h := range r.WorkingHours {
			day, err := ParseWeekday(name)
			if err != nil {
				return err
			}
			start, err := types.NewTimeStringFromString(h.Start)
			if err != nil {
				return fmt.Errorf("%s start: %w", name, err)
			}
			end, err := types.NewTimeStringFromString(h.End)
			if err != nil {
				return fmt.Errorf("%s end: %w", name, err)
			}
			hours[day] = domain.DayHours{Start: start, End: end}
		}
		s.WorkingHours = hours
	}

	if r.SlotDurationMinutes != nil {
		s.SlotDurationMinutes = *r.SlotDurationMinutes
	}
	if r.BufferMinutes != nil {
		s.BufferMinutes = *r.BufferMinutes
	}
	if r.Timezone != nil {
		s.Timezone = strings.TrimSpace(*r.Timezone)
	}
	if r.BlockFullDayOnExternalEvent != nil {
		s.BlockFullDayOnExternalEvent = *r.BlockFullDayOnExternalEvent
	}

	if r.VacationDays != nil {
		days := make([]domain.VacationDay, 0, len(*r.VacationDays))
		for _, v := range *r.VacationDays {
			date, err := types.ParseDate(v.Date)
			if err != nil {
				return err
			}
			if v.Reason != nil && utf8.RuneCountInString(*v.Reason) > domain.MaxVacationReasonLength {
				return fmt.Errorf("vacation reason for %s is longer than %d characters", v.Date, domain.MaxVacationReasonLength)
			}
			days = append(days, domain.VacationDay{Date: date, Reason: v.Reason})
		}
		s.VacationDays = days
		s.SortVacationDays()
	}

	return nil
}

// FromDomainSettings конвертирует domain модель в DTO
func FromDomainSettings(s *domain.CalendarSettings) *SettingsResponse {
	if s == nil {
		return nil
	}

	days := make([]int, 0, 7)
	for _, d := range s.WorkingDays.Days() {
		days = append(days, int(d))
	}

	hours := make(map[string]DayHours, len(s.WorkingHours))
	for d, h := range s.WorkingHours {
		hours[WeekdayName(d)] = DayHours{Start: h.Start.String(), End: h.End.String()}
	}

	vacations := make([]VacationDay, 0, len(s.VacationDays))
	for _, v := range s.VacationDays {
		vacations = append(vacations, VacationDay{Date: v.Date.String(), Reason: v.Reason})
	}

	resp := &SettingsResponse{
		WorkingDays:                 days,
		WorkingHours:                hours,
		SlotDurationMinutes:         s.SlotDurationMinutes,
		BufferMinutes:               s.BufferMinutes,
		VacationDays:                vacations,
		Timezone:                    s.Timezone,
		BlockFullDayOnExternalEvent: s.BlockFullDayOnExternalEvent,
	}
	if !s.UpdatedAt.IsZero() {
		updatedAt := s.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// WeekdayName имя дня недели в нижнем регистре ("monday")
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ParseWeekday парсит имя дня недели без учёта регистра
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
