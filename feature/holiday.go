package feature

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var usCalendar = &cal.Calendar{
	Name:      "us-federal",
	Holidays:  us.Holidays,
	Cacheable: true,
}

// IsHoliday reports whether the timestamp falls on a US federal holiday,
// either the actual day or the observed day.
func IsHoliday(t time.Time) bool {
	actual, observed, _ := usCalendar.IsHoliday(t)
	return actual || observed
}
