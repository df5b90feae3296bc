package service

import (
	"time"

	"github.com/ritualhq/ritual/backend/internal/models"
)

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}

func formatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

func addDays(date string, n int) string {
	t, err := parseDate(date)
	if err != nil {
		return date
	}
	return formatDate(t.AddDate(0, 0, n))
}

// daysBetween returns the whole calendar days from a to b (b - a).
func daysBetween(a, b string) int {
	ta, err1 := parseDate(a)
	tb, err2 := parseDate(b)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// mondayOnOrBefore returns the Monday of the week containing t.
func mondayOnOrBefore(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func maxDate(a, b string) string {
	if a > b {
		return a
	}
	return b
}

// todayFunc is swapped out in tests.
var todayFunc = func() time.Time { return time.Now() }

func today() string {
	return formatDate(todayFunc())
}
