package domain

import "github.com/m04kA/DrivingSchool-BookingService/pkg/types"

// Default configuration values
const (
	DefaultSlotDurationMinutes = 60
	DefaultBufferMinutes       = 15
	DefaultTimezone            = "Europe/Moscow"

	DefaultWorkingStart types.TimeString = "09:00"
	DefaultWorkingEnd   types.TimeString = "18:00"
)

// Business validation constants
const (
	MinSlotDurationMinutes      = 5
	MaxSlotDurationMinutes      = 480 // 8 hours
	MaxBufferMinutes            = 240
	MaxLessonDurationMinutes    = 240
	MaxLessonTypeLength         = 50
	MaxNotesLength              = 500
	MinCancellationReasonLength = 10
	MaxCancellationReasonLength = 500
	MaxVacationReasonLength     = 200
	MaxLedgerCommentLength      = 200
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
