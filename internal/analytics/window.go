package analytics

import (
	"strings"
	"time"

	"github.com/sadopc/inkwell/internal/errs"
)

// Window is how far back a summary looks from today.
type Window string

const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
	Year  Window = "year"
)

var Windows = []Window{Day, Week, Month, Year}

// ParseWindow accepts a window name case-insensitively. An empty string
// means Week.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Week, nil
	}
	for _, w := range Windows {
		if string(w) == s {
			return w, nil
		}
	}
	return "", errs.Validation("unknown window %q (want day, week, month or year)", s)
}

// Range returns [start of the day one window before now, end of today], both
// in loc. end is the last nanosecond of the day.
func (w Window) Range(now time.Time, loc *time.Location) (start, end time.Time) {
	now = now.In(loc)
	var from time.Time
	switch w {
	case Day:
		from = now.AddDate(0, 0, -1)
	case Month:
		from = addMonths(now, -1)
	case Year:
		from = addMonths(now, -12)
	default:
		from = now.AddDate(0, 0, -7)
	}
	return startOfDay(from), startOfDay(now).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month instead of rolling over (Mar 31 minus a month is Feb 28).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, last)-1)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayNumber counts calendar days since the epoch for t's local date.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
