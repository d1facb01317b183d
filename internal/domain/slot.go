package domain

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// SlotReason explains why a slot is (un)available
type SlotReason string

const (
	ReasonNone                 SlotReason = "none"
	ReasonOutsideWorkingHours  SlotReason = "outside_working_hours"
	ReasonVacationDay          SlotReason = "vacation_day"
	ReasonOverlapsBusyInterval SlotReason = "overlaps_busy_interval"
	ReasonInThePast            SlotReason = "in_the_past"
)

// TimeSlot a candidate lesson time computed from working hours
type TimeSlot struct {
	Date      civil.Date
	StartTime types.TimeString
	EndTime   types.TimeString
	Start     time.Time // absolute start in the business timezone
	End       time.Time
	Available bool
	Reason    SlotReason
}
