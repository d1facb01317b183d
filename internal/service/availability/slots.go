package availability

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// GenerateSlots строит слоты на локальную дату date
//
// Отпуск и нерабочий день дают один слот на весь день с соответствующей причиной.
// В рабочий день слоты идут с шагом SlotDurationMinutes от начала рабочих часов,
// пока конец слота не выходит за конец рабочих часов.
// Функция детерминирована и не делает ввода-вывода.
func GenerateSlots(settings *domain.CalendarSettings, busy []domain.BusyInterval, date civil.Date, now time.Time) ([]domain.TimeSlot, error) {
	loc, err := settings.Location()
	if err != nil {
		return nil, err
	}

	if _, ok := settings.VacationOn(date); ok {
		return []domain.TimeSlot{wholeDay(date, loc, domain.ReasonVacationDay)}, nil
	}

	hours, ok := settings.HoursFor(weekday(date))
	if !ok {
		return []domain.TimeSlot{wholeDay(date, loc, domain.ReasonOutsideWorkingHours)}, nil
	}

	startMin, endMin := hours.Start.Minutes(), hours.End.Minutes()
	if startMin < 0 || endMin < 0 {
		return nil, fmt.Errorf("%w: working hours %s-%s", domain.ErrInvalidSettings, hours.Start, hours.End)
	}

	step := settings.SlotDurationMinutes
	if step <= 0 {
		return nil, fmt.Errorf("%w: slot duration %d", domain.ErrInvalidSettings, step)
	}

	dayBlocked := externalBlocksDay(settings, busy, date, loc)
	buffer := time.Duration(settings.BufferMinutes) * time.Minute

	slots := make([]domain.TimeSlot, 0, (endMin-startMin)/step)
	for m := startMin; m+step <= endMin; m += step {
		slot := newSlot(date, m, step, loc)
		slot.Reason = evaluate(slot.Start, slot.End, busy, buffer, now, dayBlocked)
		slot.Available = slot.Reason == domain.ReasonNone
		slots = append(slots, slot)
	}

	return slots, nil
}

// CheckSlot оценивает урок длительностью durationMinutes, начинающийся в start
// Применяются те же правила, что и в GenerateSlots.
// Начало вне сетки слотов или конец за пределами рабочих часов дают ErrInvalidTimeSlot.
func CheckSlot(
	settings *domain.CalendarSettings,
	busy []domain.BusyInterval,
	date civil.Date,
	start types.TimeString,
	durationMinutes int,
	now time.Time,
) (domain.TimeSlot, error) {
	loc, err := settings.Location()
	if err != nil {
		return domain.TimeSlot{}, err
	}

	startMin := start.Minutes()
	if startMin < 0 || durationMinutes <= 0 {
		return domain.TimeSlot{}, fmt.Errorf("%w: start=%s duration=%d", ErrInvalidTimeSlot, start, durationMinutes)
	}

	if _, ok := settings.VacationOn(date); ok {
		return wholeDay(date, loc, domain.ReasonVacationDay), nil
	}

	hours, ok := settings.HoursFor(weekday(date))
	if !ok {
		return wholeDay(date, loc, domain.ReasonOutsideWorkingHours), nil
	}

	dayStart, dayEnd := hours.Start.Minutes(), hours.End.Minutes()
	if startMin < dayStart || startMin+durationMinutes > dayEnd {
		return domain.TimeSlot{}, fmt.Errorf("%w: %s+%dm is outside working hours %s-%s",
			ErrInvalidTimeSlot, start, durationMinutes, hours.Start, hours.End)
	}
	if settings.SlotDurationMinutes > 0 && (startMin-dayStart)%settings.SlotDurationMinutes != 0 {
		return domain.TimeSlot{}, fmt.Errorf("%w: %s is not aligned to %d-minute slots from %s",
			ErrInvalidTimeSlot, start, settings.SlotDurationMinutes, hours.Start)
	}

	slot := newSlot(date, startMin, durationMinutes, loc)
	buffer := time.Duration(settings.BufferMinutes) * time.Minute
	slot.Reason = evaluate(slot.Start, slot.End, busy, buffer, now, externalBlocksDay(settings, busy, date, loc))
	slot.Available = slot.Reason == domain.ReasonNone

	return slot, nil
}

// evaluate причина недоступности интервала [start, end) или ReasonNone
func evaluate(start, end time.Time, busy []domain.BusyInterval, buffer time.Duration, now time.Time, dayBlocked bool) domain.SlotReason {
	if start.Before(now) {
		return domain.ReasonInThePast
	}
	if dayBlocked {
		return domain.ReasonOverlapsBusyInterval
	}

	// Буфер расширяет слот с обеих сторон; касание границ после расширения допустимо
	paddedStart, paddedEnd := start.Add(-buffer), end.Add(buffer)
	for _, b := range busy {
		if b.Overlaps(paddedStart, paddedEnd) {
			return domain.ReasonOverlapsBusyInterval
		}
	}
	return domain.ReasonNone
}

// externalBlocksDay true, если любое внешнее событие пересекает локальные сутки date
func externalBlocksDay(settings *domain.CalendarSettings, busy []domain.BusyInterval, date civil.Date, loc *time.Location) bool {
	if !settings.BlockFullDayOnExternalEvent {
		return false
	}
	dayStart, dayEnd := types.DayBounds(date, loc)
	for _, b := range busy {
		if b.Source == domain.BusySourceExternal && b.Overlaps(dayStart, dayEnd) {
			return true
		}
	}
	return false
}

func newSlot(date civil.Date, startMin, durationMin int, loc *time.Location) domain.TimeSlot {
	start := types.ComposeInstant(date, startMin, loc)
	end := start.Add(time.Duration(durationMin) * time.Minute)

	// Время на стене берём из сетки, а не из момента: так переход на летнее время не сдвигает подписи
	startTime, _ := types.NewTimeStringFromMinutes(startMin)
	endTime, err := types.NewTimeStringFromMinutes(startMin + durationMin)
	if err != nil {
		endTime = types.EndOfDay
	}

	return domain.TimeSlot{
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Start:     start,
		End:       end,
	}
}

func wholeDay(date civil.Date, loc *time.Location, reason domain.SlotReason) domain.TimeSlot {
	start, end := types.DayBounds(date, loc)
	return domain.TimeSlot{
		Date:      date,
		StartTime: "00:00",
		EndTime:   types.EndOfDay,
		Start:     start,
		End:       end,
		Available: false,
		Reason:    reason,
	}
}

// weekday день недели календарной даты (не зависит от часового пояса)
func weekday(date civil.Date) time.Weekday {
	return date.In(time.UTC).Weekday()
}
