package store

import (
	"context"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (memstore, postgres, sqlite).
// Missing rows are reported as model.ErrNotFound; driver failures as model.PersistenceError.
type Store interface {
	Users() Users
	Catalog() Catalog
	UserPlants() UserPlants
	Reminders() Reminders
	CareHistory() CareHistory
	AutoRecommendations() AutoRecommendations
	Recommendations() Recommendations
	Observations() Observations
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// Catalog is the read side of the plant catalog. Put exists for seeding.
type Catalog interface {
	GetCareProfile(ctx context.Context, plantID string) (*model.PlantCareProfile, error)
	Put(ctx context.Context, p *model.PlantCareProfile) error
}

// UserPlants stores plant instances and their care overrides. Reminders and care
// history are separate record sets referencing the plant by id.
type UserPlants interface {
	Create(ctx context.Context, up *model.UserPlant) (*model.UserPlant, error)
	Get(ctx context.Context, userID, userPlantID string) (*model.UserPlant, error)
	ListActiveForUser(ctx context.Context, userID string) ([]*model.UserPlant, error)
	Save(ctx context.Context, up *model.UserPlant) error
}

type Reminders interface {
	Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error)
	Get(ctx context.Context, userID, reminderID string) (*model.Reminder, error)
	ListByUserPlant(ctx context.Context, userPlantID string) ([]model.Reminder, error)
	ListOpenForUser(ctx context.Context, userID string) ([]model.Reminder, error)
	// Complete applies every write of c in one transaction.
	// It returns false without writing when the reminder was already completed.
	Complete(ctx context.Context, c Completion) (bool, error)
}

// Completion is one reminder completion. Successor, Plant and Event are optional.
// Plant replaces the stored plant's care overrides; a missing or foreign plant
// aborts the whole completion with model.ErrNotFound.
type Completion struct {
	ReminderID  string
	CompletedAt time.Time
	Successor   *model.Reminder
	Plant       *model.UserPlant
	Event       *model.CareEvent
}

type CareHistory interface {
	Append(ctx context.Context, ev *model.CareEvent) error
	List(ctx context.Context, userPlantID string, limit int) ([]model.CareEvent, error)
}

type AutoRecommendations interface {
	Create(ctx context.Context, r *model.AutoRecommendation) (*model.AutoRecommendation, error)
	Get(ctx context.Context, recommendationID string) (*model.AutoRecommendation, error)
	// FindByKey returns the newest row for (user, userPlant, type, tag) that is
	// scheduled by now, not yet expired and not flagged expired, whatever its status.
	FindByKey(ctx context.Context, userID, userPlantID string, t model.RecommendationType, tag string, now time.Time) (*model.AutoRecommendation, error)
	// Refresh rewrites the content fields of an existing row (title, message, priority,
	// due date, expiry, weather).
	Refresh(ctx context.Context, r *model.AutoRecommendation) error
	// Transition persists a status change only if the stored row is still active.
	Transition(ctx context.Context, r *model.AutoRecommendation) (bool, error)
	// List returns one page ordered by priority rank desc then date asc, plus the total match count.
	List(ctx context.Context, f model.AutoRecommendationFilter) ([]*model.AutoRecommendation, int, error)
	// ExpireBefore flags active rows with expiresAt <= now as expired.
	ExpireBefore(ctx context.Context, now time.Time) (int, error)
}

// Recommendations stores supervisor-authored recommendations.
type Recommendations interface {
	Create(ctx context.Context, r *model.Recommendation) (*model.Recommendation, error)
	Get(ctx context.Context, recommendationID string) (*model.Recommendation, error)
	Update(ctx context.Context, r *model.Recommendation) error
	ListForUser(ctx context.Context, userID string) ([]*model.Recommendation, error)
}

// Observations serves user-owned and garden-embedded plants through one OwnerRef key.
type Observations interface {
	Create(ctx context.Context, o *model.Observation) (*model.Observation, error)
	List(ctx context.Context, owner model.OwnerRef) ([]model.Observation, error)
}
