package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/core/recurrence"
	"github.com/leaflove/care-service/internal/core/schedule"
	"github.com/leaflove/care-service/internal/keyedmutex"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// ReminderService creates and completes reminders.
type ReminderService struct {
	store store.Store
	clock clock.Clock
	locks *keyedmutex.Map
	log   zerolog.Logger
}

func NewReminderService(s store.Store, clk clock.Clock, locks *keyedmutex.Map, log zerolog.Logger) *ReminderService {
	if clk == nil {
		clk = clock.System{}
	}
	if locks == nil {
		locks = keyedmutex.New()
	}
	return &ReminderService{store: s, clock: clk, locks: locks, log: log}
}

// CreateReminderRequest is the input for CreateReminder.
type CreateReminderRequest struct {
	Type              model.ReminderType
	Title             string
	Description       string
	DueDate           time.Time
	IsRecurring       bool
	RecurringInterval string
}

var reminderTypes = map[model.ReminderType]bool{
	model.ReminderWatering:    true,
	model.ReminderFertilizing: true,
	model.ReminderPruning:     true,
	model.ReminderHarvesting:  true,
	model.ReminderCustom:      true,
}

const maxTitleLen = 200

func validateReminder(req CreateReminderRequest) error {
	if !reminderTypes[req.Type] {
		return model.NewValidationError("type", "type must be one of watering, fertilizing, pruning, harvesting, custom")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.NewValidationError("title", "title is required")
	}
	if len(title) > maxTitleLen {
		return model.NewValidationError("title", "title must be at most 200 characters")
	}
	if req.DueDate.IsZero() {
		return model.NewValidationError("dueDate", "dueDate is required")
	}
	if req.IsRecurring {
		ok := false
		for _, iv := range schedule.ReminderIntervals {
			if strings.EqualFold(req.RecurringInterval, iv) {
				ok = true
				break
			}
		}
		if !ok {
			return model.NewValidationError("recurringInterval", "recurringInterval must be one of daily, weekly, bi-weekly, monthly, seasonal, annually")
		}
	}
	return nil
}

// CreateReminder adds a reminder to a plant the user owns.
func (s *ReminderService) CreateReminder(ctx context.Context, userID, userPlantID string, req CreateReminderRequest) (*model.Reminder, error) {
	if err := validateReminder(req); err != nil {
		return nil, err
	}
	if _, err := s.store.UserPlants().Get(ctx, userID, userPlantID); err != nil {
		return nil, plantNotFound(err, userPlantID)
	}
	r := &model.Reminder{
		UserPlantID: userPlantID,
		UserID:      userID,
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		IsRecurring: req.IsRecurring,
		CreatedAt:   s.clock.Now(),
	}
	if req.IsRecurring {
		r.RecurringInterval = strings.ToLower(req.RecurringInterval)
	}
	return s.store.Reminders().Create(ctx, r)
}

// ListPlantReminders lists every reminder of a plant the user owns.
func (s *ReminderService) ListPlantReminders(ctx context.Context, userID, userPlantID string) ([]model.Reminder, error) {
	if _, err := s.store.UserPlants().Get(ctx, userID, userPlantID); err != nil {
		return nil, plantNotFound(err, userPlantID)
	}
	return s.store.Reminders().ListByUserPlant(ctx, userPlantID)
}

// ListOpenReminders lists the user's uncompleted reminders.
func (s *ReminderService) ListOpenReminders(ctx context.Context, userID string) ([]model.Reminder, error) {
	return s.store.Reminders().ListOpenForUser(ctx, userID)
}

// CompleteReminder completes a reminder, stores its successor when it recurs,
// updates the plant's care override and appends a care-history entry, all in one
// store transaction.
// Completing an already completed reminder returns it unchanged with no successor.
func (s *ReminderService) CompleteReminder(ctx context.Context, userID, reminderID, notes string) (*recurrence.Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	rem, err := s.store.Reminders().Get(ctx, userID, reminderID)
	if err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.NewNotFoundError("reminderId", "reminder "+reminderID+" not found")
		}
		return nil, err
	}
	up, err := s.store.UserPlants().Get(ctx, userID, rem.UserPlantID)
	if err != nil {
		return nil, plantNotFound(err, rem.UserPlantID)
	}
	if up.Reminders, err = s.store.Reminders().ListByUserPlant(ctx, up.UserPlantID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	res, err := recurrence.CompleteReminder(up, reminderID, now)
	if err != nil || res.AlreadyCompleted {
		return &res, err
	}
	var catalogFreq string
	if profile, err := s.store.Catalog().GetCareProfile(ctx, up.PlantID); err == nil {
		if ct, ok := recurrence.CareTypeFor(rem.Type); ok {
			catalogFreq = profile.Care(ct).Frequency
		}
	} else if !model.IsNotFoundError(err) {
		return nil, err
	}
	ev := recurrence.RecordCare(up, res.Completed, now, catalogFreq, notes)
	ok, err := s.store.Reminders().Complete(ctx, store.Completion{
		ReminderID:  reminderID,
		CompletedAt: now,
		Successor:   res.Successor,
		Plant:       up,
		Event:       &ev,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, err := s.store.Reminders().Get(ctx, userID, reminderID)
		if err != nil {
			return nil, err
		}
		return &recurrence.Result{Completed: *cur, AlreadyCompleted: true}, nil
	}
	s.log.Info().Str("user_id", userID).Str("reminder_id", reminderID).Bool("successor", res.Successor != nil).Msg("reminder completed")
	return &res, nil
}
