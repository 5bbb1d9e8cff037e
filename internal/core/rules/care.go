package rules

import (
	"fmt"
	"slices"
	"time"

	"github.com/leaflove/care-service/internal/core/schedule"
	"github.com/leaflove/care-service/internal/model"
)

// Watering escalation thresholds, in whole days since the plant was last watered.
const (
	WateringHighAfterDays   = 7
	WateringUrgentAfterDays = 14
)

var careRecType = map[model.CareType]model.RecommendationType{
	model.CareWatering:    model.RecWatering,
	model.CareFertilizing: model.RecFertilizing,
	model.CarePruning:     model.RecPruning,
}

var careVerb = map[model.CareType]string{
	model.CareWatering:    "Water",
	model.CareFertilizing: "Fertilize",
	model.CarePruning:     "Prune",
}

var careBasePriority = map[model.CareType]model.Priority{
	model.CareWatering:    model.PriorityMedium,
	model.CareFertilizing: model.PriorityMedium,
	model.CarePruning:     model.PriorityLow,
}

// CareSchedule emits one reminder candidate per care activity that is due at now.
// A care type is only considered when the catalog defines instructions for it.
// The user's override frequency wins over the catalog default; the anchor is the
// override's last-performed date, falling back to the planted date. Plants with
// neither date produce nothing for that care type.
func CareSchedule(profile *model.PlantCareProfile, up *model.UserPlant, now time.Time) []Candidate {
	if profile == nil || up == nil {
		return nil
	}
	name := up.DisplayName(profile)
	var out []Candidate
	for _, ct := range model.CareTypes {
		item := profile.Care(ct)
		if item.Instructions == "" {
			continue
		}
		ov := up.Override(ct)
		freq := item.Frequency
		if ov.Frequency != "" {
			freq = ov.Frequency
		}
		anchor := up.PlantedDate
		if ov.LastPerformed != nil && !ov.LastPerformed.IsZero() {
			anchor = *ov.LastPerformed
		}
		if anchor.IsZero() {
			continue
		}
		next := schedule.NextDate(anchor, freq)
		if next.After(now) {
			continue
		}
		days := DaysBetween(anchor, now)
		prio := careBasePriority[ct]
		if ct == model.CareWatering {
			prio = WateringPriority(days)
		}
		out = append(out, forPlant(Candidate{
			Type:     careRecType[ct],
			Tag:      string(ct) + "-due",
			Title:    fmt.Sprintf("%s %s", careVerb[ct], name),
			Message:  fmt.Sprintf("%s is due for %s (%s). %s", name, ct, schedule.Normalize(freq), item.Instructions),
			Priority: prio,
			DueDate:  next,
			Source:   SourceCare,
			Reminder: &ReminderSpec{
				Type:              schedule.ReminderTypeFor(ct),
				IsRecurring:       true,
				RecurringInterval: schedule.ReminderInterval(freq),
				Frequency:         schedule.Normalize(freq),
				DaysSince:         days,
			},
		}, up))
	}
	if c, ok := harvest(profile, up, name, now); ok {
		out = append(out, c)
	}
	return out
}

// WateringPriority escalates medium to high past 7 days and to urgent past 14 days.
func WateringPriority(daysSinceWatered int) model.Priority {
	switch {
	case daysSinceWatered > WateringUrgentAfterDays:
		return model.PriorityUrgent
	case daysSinceWatered > WateringHighAfterDays:
		return model.PriorityHigh
	default:
		return model.PriorityMedium
	}
}

// DaysBetween returns the number of whole days from a to b, floored.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

func harvest(profile *model.PlantCareProfile, up *model.UserPlant, name string, now time.Time) (Candidate, bool) {
	if !slices.Contains(profile.HarvestMonths, int(now.Month())) {
		return Candidate{}, false
	}
	start := harvestWindowStart(profile.HarvestMonths, now)
	return forPlant(Candidate{
		Type:     model.RecHarvest,
		Tag:      TagHarvestWindow,
		Title:    "Harvest " + name,
		Message:  fmt.Sprintf("%s is in its harvest window. Check for ripe produce.", name),
		Priority: model.PriorityLow,
		DueDate:  now,
		Source:   SourceCare,
		Reminder: &ReminderSpec{Type: model.ReminderHarvesting, WindowStart: &start},
	}, up), true
}

// harvestWindowStart returns the first instant of the run of consecutive harvest
// months containing now. A catalog listing all twelve months yields a window that
// starts eleven months back.
func harvestWindowStart(months []int, now time.Time) time.Time {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < 11; i++ {
		prev := start.AddDate(0, -1, 0)
		if !slices.Contains(months, int(prev.Month())) {
			break
		}
		start = prev
	}
	return start
}
