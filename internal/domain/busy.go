package domain

import "time"

// BusySource identifies where a busy interval comes from
type BusySource string

const (
	BusySourceBooking  BusySource = "booking"
	BusySourceExternal BusySource = "external"
)

// BusyInterval an absolute time range during which the instructor is unavailable
type BusyInterval struct {
	Start  time.Time
	End    time.Time
	ID     *string
	Source BusySource
}

// Overlaps reports whether [start, end) intersects the interval; touching boundaries do not overlap
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}
