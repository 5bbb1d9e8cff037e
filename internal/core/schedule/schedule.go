// Package schedule maps frequency tokens to concrete date deltas.
//
// Unknown tokens never error: they fall back to weekly. Stored data written by
// older clients relies on this lenient parsing.
package schedule

import (
	"strings"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Frequency tokens understood by NextDate.
const (
	Daily        = "daily"
	EveryTwoDays = "every-2-days"
	Weekly       = "weekly"
	BiWeekly     = "bi-weekly"
	Monthly      = "monthly"
	Seasonal     = "seasonal"
	Annually     = "annually"
)

type delta struct{ years, months, days int }

var deltas = map[string]delta{
	Daily:        {days: 1},
	EveryTwoDays: {days: 2},
	Weekly:       {days: 7},
	BiWeekly:     {days: 14},
	Monthly:      {months: 1},
	Seasonal:     {months: 3},
	Annually:     {years: 1},
}

// Normalize lowercases and trims a token and maps unknown values to weekly.
func Normalize(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	if _, ok := deltas[t]; ok {
		return t
	}
	return Weekly
}

// Known reports whether token is one of the recognised frequency tokens.
func Known(token string) bool {
	_, ok := deltas[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// NextDate returns last advanced by the delta for token. Month and year steps are
// calendar steps (time.AddDate semantics).
func NextDate(last time.Time, token string) time.Time {
	d := deltas[Normalize(token)]
	return last.AddDate(d.years, d.months, d.days)
}

// IsDue reports whether the next occurrence after last is at or before now.
func IsDue(last time.Time, token string, now time.Time) bool {
	return !NextDate(last, token).After(now)
}

// ReminderInterval maps a frequency token onto the reminder's recurring interval.
// every-2-days is tracked with daily granularity; annually is kept as is.
func ReminderInterval(token string) string {
	switch t := Normalize(token); t {
	case EveryTwoDays:
		return Daily
	default:
		return t
	}
}

// ReminderIntervals lists the values accepted as a reminder's recurring interval.
var ReminderIntervals = []string{Daily, Weekly, BiWeekly, Monthly, Seasonal, Annually}

// ReminderTypeFor returns the reminder type for a care activity.
func ReminderTypeFor(t model.CareType) model.ReminderType {
	switch t {
	case model.CareWatering:
		return model.ReminderWatering
	case model.CareFertilizing:
		return model.ReminderFertilizing
	case model.CarePruning:
		return model.ReminderPruning
	}
	return model.ReminderCustom
}
