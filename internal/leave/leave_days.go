package leave

import (
	"time"

	leaveerrors "go-hrms/internal/leave/errors"
)

const dateLayout = "2006-01-02"

// BusinessDays counts the Monday to Friday dates in [start, end], both ends
// included. Only the calendar date of each argument is used.
func BusinessDays(start, end time.Time) (int, error) {
	start = truncateDate(start)
	end = truncateDate(end)
	if end.Before(start) {
		return 0, leaveerrors.ErrInvalidDateRange
	}

	const secondsPerDay = 24 * 60 * 60
	total := (end.Unix()-start.Unix())/secondsPerDay + 1

	// Any seven consecutive dates hold exactly five weekdays.
	days := int(total/7) * 5
	first := int(start.Weekday())
	for i := 0; i < int(total%7); i++ {
		switch time.Weekday((first + i) % 7) {
		case time.Saturday, time.Sunday:
			continue
		}
		days++
	}
	return days, nil
}

// ParseDate reads a YYYY-MM-DD date as midnight UTC.
func ParseDate(v string) (time.Time, error) {
	return time.Parse(dateLayout, v)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
