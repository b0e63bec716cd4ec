// Package feature derives per-event calendar and vessel features from a lift
// event. Derivation is pure; the same event always yields the same features.
package feature

import (
	"strings"
	"time"

	"bridgelift/liftlog"
)

// Time-of-day buckets label the ETA hour into four right-open intervals:
// [0,6) night, [6,12) morning, [12,18) afternoon, [18,24) evening.
const (
	BucketNight = iota + 1
	BucketMorning
	BucketAfternoon
	BucketEvening
)

// Daylight window bounds, hours inclusive.
const (
	daylightStartHour = 6
	daylightEndHour   = 20
)

// Derived holds the engineered features for one lift event. IsHoliday is not
// part of the model feature vector; it feeds exploratory reporting only.
type Derived struct {
	DayOfWeek       int // Monday=0 .. Sunday=6
	TimeOfDayBucket int // 1..4
	StartMinutes    int // minutes past midnight of lift start
	EndMinutes      int // minutes past midnight of lift end
	VesselCount     int
	HasBarge        bool
	HasTanker       bool
	Hour            int // ETA hour, 0..23
	IsDaylight      bool
	IsHoliday       bool
}

// Derive computes the feature set for a lift event.
func Derive(ev liftlog.LiftEvent) Derived {
	hour := ev.ETA.Hour()
	return Derived{
		DayOfWeek:       dayOfWeek(ev.ETA),
		TimeOfDayBucket: TimeOfDayBucket(hour),
		StartMinutes:    minutesOfDay(ev.Start),
		EndMinutes:      minutesOfDay(ev.End),
		VesselCount:     VesselCount(ev.Vessels),
		HasBarge:        containsFold(ev.Vessels, "barge"),
		HasTanker:       containsFold(ev.Vessels, "tanker"),
		Hour:            hour,
		IsDaylight:      hour >= daylightStartHour && hour <= daylightEndHour,
		IsHoliday:       IsHoliday(ev.ETA),
	}
}

// TimeOfDayBucket maps an hour to its bucket with boundaries at 6, 12, and 18.
func TimeOfDayBucket(hour int) int {
	return hour/6 + 1
}

// VesselCount counts comma separated vessel tokens. A single unnamed vessel
// still counts as one.
func VesselCount(vessels string) int {
	return len(strings.Split(vessels, ","))
}

func dayOfWeek(t time.Time) int {
	// time.Weekday has Sunday=0; the log convention is Monday=0
	return (int(t.Weekday()) + 6) % 7
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
