package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

var (
	// ErrInvalidTimeString возвращается при некорректном формате времени
	ErrInvalidTimeString = errors.New("invalid time string format")

	// ErrTimeOverflow возвращается, когда результат выходит за пределы суток
	ErrTimeOverflow = errors.New("time string overflows the day")
)

// EndOfDay граница конца суток, допустима только как конец интервала
const EndOfDay TimeString = "24:00"

// TimeString время суток в формате "HH:MM" (настенные часы, без часового пояса)
type TimeString string

// NewTimeString берёт часы и минуты из t в его собственной локации
func NewTimeString(t time.Time) TimeString {
	return TimeString(fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()))
}

// NewTimeStringFromString парсит и валидирует строку "HH:MM"
// Формат "HH:MM:SS" (так PostgreSQL отдаёт TIME) тоже принимается, секунды отбрасываются
func NewTimeStringFromString(s string) (TimeString, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && s[5] == ':' {
		s = s[:5]
	}
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// NewTimeStringFromMinutes строит время из количества минут от полуночи
func NewTimeStringFromMinutes(minutes int) (TimeString, error) {
	if minutes < 0 || minutes > minutesPerDay {
		return "", fmt.Errorf("%w: %d minutes", ErrTimeOverflow, minutes)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", minutes/minutesPerHour, minutes%minutesPerHour)), nil
}

// String возвращает строковое представление
func (t TimeString) String() string {
	return string(t)
}

// IsZero true, если время не задано
func (t TimeString) IsZero() bool {
	return t == ""
}

// Validate проверяет формат "HH:MM" в диапазоне 00:00..24:00
func (t TimeString) Validate() error {
	s := string(t)
	if len(s) != 5 || s[2] != ':' {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}

	var hours, minutes int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hours, &minutes); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}

	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	if hours == 24 && minutes != 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}

	return nil
}

// Minutes количество минут от полуночи
// Для невалидной строки возвращает -1
func (t TimeString) Minutes() int {
	if t.Validate() != nil {
		return -1
	}
	var hours, minutes int
	_, _ = fmt.Sscanf(string(t), "%02d:%02d", &hours, &minutes)
	return hours*minutesPerHour + minutes
}

// AddMinutes сдвигает время на n минут; результат обязан остаться в пределах 00:00..24:00
func (t TimeString) AddMinutes(n int) (TimeString, error) {
	base := t.Minutes()
	if base < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	return NewTimeStringFromMinutes(base + n)
}

// IsBefore true, если t строго раньше other
func (t TimeString) IsBefore(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}

// IsAfter true, если t строго позже other
func (t TimeString) IsAfter(other TimeString) bool {
	return t.Minutes() > other.Minutes()
}

// On собирает абсолютный момент из календарной даты и времени суток в указанной локации
func (t TimeString) On(date civil.Date, loc *time.Location) (time.Time, error) {
	minutes := t.Minutes()
	if minutes < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	return ComposeInstant(date, minutes, loc), nil
}

// Scan реализует sql.Scanner (TIME из PostgreSQL приходит как "HH:MM:SS")
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case string:
		parsed, err := NewTimeStringFromString(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := NewTimeStringFromString(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeString, src)
	}
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return string(t), nil
}
