// Package recurrence completes reminders and produces their successors.
package recurrence

import (
	"time"

	"github.com/google/uuid"

	"github.com/leaflove/care-service/internal/core/schedule"
	"github.com/leaflove/care-service/internal/model"
)

// Result describes the outcome of completing one reminder.
type Result struct {
	Completed model.Reminder  `json:"completed"`
	Successor *model.Reminder `json:"successor,omitempty"`
	// AlreadyCompleted is set when the reminder was completed before; nothing changed.
	AlreadyCompleted bool `json:"alreadyCompleted"`
}

// Complete marks r completed at `at`. A recurring reminder yields exactly one
// successor whose due date is advanced from the old due date by the interval.
// Completing an already completed reminder is a no-op.
func Complete(r model.Reminder, at time.Time) Result {
	if r.IsCompleted {
		return Result{Completed: r, AlreadyCompleted: true}
	}
	r.IsCompleted = true
	done := at
	r.CompletedDate = &done
	res := Result{Completed: r}
	if r.IsRecurring {
		next := Successor(r, at)
		res.Successor = &next
	}
	return res
}

// Successor builds the next occurrence of a recurring reminder.
func Successor(r model.Reminder, at time.Time) model.Reminder {
	return model.Reminder{
		ReminderID:        uuid.NewString(),
		UserPlantID:       r.UserPlantID,
		UserID:            r.UserID,
		Type:              r.Type,
		Title:             r.Title,
		Description:       r.Description,
		DueDate:           schedule.NextDate(r.DueDate, r.RecurringInterval),
		IsRecurring:       true,
		RecurringInterval: r.RecurringInterval,
		PreviousID:        r.ReminderID,
		CreatedAt:         at,
	}
}

// CompleteReminder applies Complete to the reminder with reminderID inside up,
// appending the successor to up.Reminders.
func CompleteReminder(up *model.UserPlant, reminderID string, at time.Time) (Result, error) {
	idx := -1
	for i := range up.Reminders {
		if up.Reminders[i].ReminderID == reminderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, model.NewNotFoundError("reminderId", "reminder "+reminderID+" not found")
	}
	res := Complete(up.Reminders[idx], at)
	if res.AlreadyCompleted {
		return res, nil
	}
	up.Reminders[idx] = res.Completed
	if res.Successor != nil {
		up.Reminders = append(up.Reminders, *res.Successor)
	}
	return res, nil
}

// CareTypeFor maps a reminder type back to the catalog care activity, if any.
func CareTypeFor(t model.ReminderType) (model.CareType, bool) {
	switch t {
	case model.ReminderWatering:
		return model.CareWatering, true
	case model.ReminderFertilizing:
		return model.CareFertilizing, true
	case model.ReminderPruning:
		return model.CarePruning, true
	}
	return "", false
}

// RecordCare updates up's override for the completed reminder's care type and
// returns the care-history event for it. catalogFrequency is used for nextDue
// when the user has no override frequency.
func RecordCare(up *model.UserPlant, r model.Reminder, at time.Time, catalogFrequency, notes string) model.CareEvent {
	ev := model.CareEvent{
		EventID:     uuid.NewString(),
		UserPlantID: up.UserPlantID,
		Action:      string(r.Type),
		Notes:       notes,
		ReminderID:  r.ReminderID,
		PerformedAt: at,
	}
	ct, ok := CareTypeFor(r.Type)
	if !ok {
		return ev
	}
	if up.Care == nil {
		up.Care = map[model.CareType]model.CareOverride{}
	}
	ov := up.Care[ct]
	freq := catalogFrequency
	if ov.Frequency != "" {
		freq = ov.Frequency
	}
	last := at
	next := schedule.NextDate(at, freq)
	ov.LastPerformed = &last
	ov.NextDue = &next
	up.Care[ct] = ov
	return ev
}
