package models

import "time"

// DateLayout is the wire format for all calendar dates.
const DateLayout = "2006-01-02"

// Weekday keys as they appear in staffing configuration and schedules.
const (
	Monday    = "Mon"
	Tuesday   = "Tue"
	Wednesday = "Wed"
	Thursday  = "Thu"
	Friday    = "Fri"
	Saturday  = "Sat"
	Sunday    = "Sun"
)

// WeekdayOrder lists weekday keys in calendar order.
var WeekdayOrder = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayKeys = map[time.Weekday]string{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayKey returns the canonical key for a point in time.
func WeekdayKey(t time.Time) string {
	return weekdayKeys[t.Weekday()]
}

// WeekdayIndex returns the calendar position of a weekday key, or -1 for an
// unknown key.
func WeekdayIndex(key string) int {
	for i, k := range WeekdayOrder {
		if k == key {
			return i
		}
	}
	return -1
}

// IsWeekdayKey reports whether raw is one of the canonical weekday keys.
func IsWeekdayKey(raw string) bool {
	for _, key := range WeekdayOrder {
		if key == raw {
			return true
		}
	}
	return false
}
