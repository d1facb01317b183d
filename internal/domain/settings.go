package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// ErrInvalidSettings is returned when calendar settings violate their invariants
var ErrInvalidSettings = errors.New("domain: invalid calendar settings")

// WeekdaySet is a set of weekdays stored as a bitmask (bit 0 = Sunday)
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns a copy of the set including d
func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

// Contains reports whether d is in the set
func (s WeekdaySet) Contains(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Days returns the weekdays in ascending order
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Ints returns the weekdays as numbers 0..6
func (s WeekdaySet) Ints() []int64 {
	days := s.Days()
	out := make([]int64, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

// WeekdaySetFromInts builds a set from numbers 0..6
func WeekdaySetFromInts(values []int64) (WeekdaySet, error) {
	var s WeekdaySet
	for _, v := range values {
		if v < 0 || v > 6 {
			return 0, fmt.Errorf("%w: weekday %d out of range 0..6", ErrInvalidSettings, v)
		}
		s = s.With(time.Weekday(v))
	}
	return s, nil
}

// MarshalJSON encodes the set as an array of weekday numbers
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ints())
}

// UnmarshalJSON decodes an array of weekday numbers
func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var values []int64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	parsed, err := WeekdaySetFromInts(values)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DayHours local wall-clock working hours of one weekday
type DayHours struct {
	Start types.TimeString `json:"start"`
	End   types.TimeString `json:"end"`
}

// Validate checks the format and start < end
func (h DayHours) Validate() error {
	if err := h.Start.Validate(); err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidSettings, err)
	}
	if err := h.End.Validate(); err != nil {
		return fmt.Errorf("%w: end: %v", ErrInvalidSettings, err)
	}
	if !h.Start.IsBefore(h.End) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidSettings, h.Start, h.End)
	}
	return nil
}

// WorkingHours per-weekday working hours, stored as JSONB
type WorkingHours map[time.Weekday]DayHours

// Scan implements sql.Scanner
func (w *WorkingHours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*w = WorkingHours{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("working hours: unsupported type %T", src)
	}

	hours := WorkingHours{}
	if err := json.Unmarshal(data, &hours); err != nil {
		return fmt.Errorf("working hours: %w", err)
	}
	*w = hours
	return nil
}

// Value implements driver.Valuer
func (w WorkingHours) Value() (driver.Value, error) {
	if w == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[time.Weekday]DayHours(w))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VacationDay a local date on which no lessons are given
type VacationDay struct {
	Date   civil.Date `json:"date"`
	Reason *string    `json:"reason,omitempty"`
}

// CalendarSettings instructor schedule configuration (singleton)
type CalendarSettings struct {
	WorkingDays         WeekdaySet
	WorkingHours        WorkingHours
	SlotDurationMinutes int
	BufferMinutes       int
	VacationDays        []VacationDay
	Timezone            string

	// BlockFullDayOnExternalEvent makes any external calendar event block the whole local day
	BlockFullDayOnExternalEvent bool

	UpdatedAt time.Time
}

// DefaultCalendarSettings settings used until the admin changes them
func DefaultCalendarSettings() *CalendarSettings {
	hours := DayHours{Start: DefaultWorkingStart, End: DefaultWorkingEnd}
	return &CalendarSettings{
		WorkingDays: NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		WorkingHours: WorkingHours{
			time.Monday:    hours,
			time.Tuesday:   hours,
			time.Wednesday: hours,
			time.Thursday:  hours,
			time.Friday:    hours,
		},
		SlotDurationMinutes:         DefaultSlotDurationMinutes,
		BufferMinutes:               DefaultBufferMinutes,
		VacationDays:                []VacationDay{},
		Timezone:                    DefaultTimezone,
		BlockFullDayOnExternalEvent: true,
	}
}

// Location loads the business timezone
func (s *CalendarSettings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidSettings, s.Timezone, err)
	}
	return loc, nil
}

// HoursFor returns the working hours of a weekday, false if the day is off
func (s *CalendarSettings) HoursFor(d time.Weekday) (DayHours, bool) {
	if !s.WorkingDays.Contains(d) {
		return DayHours{}, false
	}
	h, ok := s.WorkingHours[d]
	return h, ok
}

// VacationOn returns the vacation record for the date, if any
func (s *CalendarSettings) VacationOn(date civil.Date) (VacationDay, bool) {
	for _, v := range s.VacationDays {
		if v.Date == date {
			return v, true
		}
	}
	return VacationDay{}, false
}

// SortVacationDays orders vacation days by date
func (s *CalendarSettings) SortVacationDays() {
	sort.Slice(s.VacationDays, func(i, j int) bool {
		return s.VacationDays[i].Date.Before(s.VacationDays[j].Date)
	})
}

// Validate checks the settings invariants
func (s *CalendarSettings) Validate() error {
	if s.SlotDurationMinutes < MinSlotDurationMinutes || s.SlotDurationMinutes > MaxSlotDurationMinutes {
		return fmt.Errorf("%w: slot duration must be between %d and %d minutes",
			ErrInvalidSettings, MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	if s.BufferMinutes < 0 || s.BufferMinutes > MaxBufferMinutes {
		return fmt.Errorf("%w: buffer must be between 0 and %d minutes", ErrInvalidSettings, MaxBufferMinutes)
	}
	if _, err := s.Location(); err != nil {
		return err
	}

	for _, d := range s.WorkingDays.Days() {
		h, ok := s.WorkingHours[d]
		if !ok {
			return fmt.Errorf("%w: working day %s has no working hours", ErrInvalidSettings, d)
		}
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	for d, h := range s.WorkingHours {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range 0..6", ErrInvalidSettings, d)
		}
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}

	seen := make(map[civil.Date]struct{}, len(s.VacationDays))
	for _, v := range s.VacationDays {
		if !v.Date.IsValid() {
			return fmt.Errorf("%w: invalid vacation date %s", ErrInvalidSettings, v.Date)
		}
		if _, dup := seen[v.Date]; dup {
			return fmt.Errorf("%w: duplicate vacation date %s", ErrInvalidSettings, v.Date)
		}
		seen[v.Date] = struct{}{}
	}

	return nil
}
