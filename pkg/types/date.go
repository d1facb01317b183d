package types

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DateFormat формат календарной даты
const DateFormat = "2006-01-02"

// ParseDate парсит "YYYY-MM-DD" в календарную дату без привязки к часовому поясу
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ComposeInstant собирает момент времени из полей даты и минут от полуночи
// прямо в локации loc. Дата никогда не проходит через полночь UTC,
// поэтому календарный день не сдвигается в поясах восточнее UTC.
// minutes = 1440 даёт полночь следующего дня.
func ComposeInstant(date civil.Date, minutes int, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, minutes/minutesPerHour, minutes%minutesPerHour, 0, 0, loc)
}

// DayBounds возвращает [полночь даты, полночь следующей даты) в локации loc
func DayBounds(date civil.Date, loc *time.Location) (time.Time, time.Time) {
	start := ComposeInstant(date, 0, loc)
	end := ComposeInstant(date.AddDays(1), 0, loc)
	return start, end
}

// LocalDate возвращает календарную дату момента t в локации loc
func LocalDate(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(t.In(loc))
}

// DateFromDB переводит значение DATE из драйвера в civil.Date
// lib/pq отдаёт DATE как time.Time на полночь UTC: берём поля как есть, без конвертации
func DateFromDB(t time.Time) civil.Date {
	return civil.DateOf(t)
}
