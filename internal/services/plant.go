package services

import (
	"context"
	"strings"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/core/schedule"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// PlantService handles the small amount of user, catalog and plant bookkeeping the
// engine needs to have something to evaluate.
type PlantService struct {
	store store.Store
	clock clock.Clock
}

func NewPlantService(s store.Store, clk clock.Clock) *PlantService {
	return &PlantService{store: s, clock: clk}
}

func (s *PlantService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if strings.TrimSpace(u.UserID) == "" {
		return nil, model.NewValidationError("userId", "userId is required")
	}
	if h := strings.ToLower(u.Hemisphere); h != "" && h != "north" && h != "south" {
		return nil, model.NewValidationError("hemisphere", "hemisphere must be north or south")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.clock.Now()
	}
	return s.store.Users().Create(ctx, u)
}

func (s *PlantService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// PutCareProfile upserts a catalog entry.
func (s *PlantService) PutCareProfile(ctx context.Context, p *model.PlantCareProfile) error {
	if strings.TrimSpace(p.PlantID) == "" {
		return model.NewValidationError("plantId", "plantId is required")
	}
	for _, m := range append(append([]int{}, p.PlantingMonths...), p.HarvestMonths...) {
		if m < 1 || m > 12 {
			return model.NewValidationError("harvestMonths", "months must be between 1 and 12")
		}
	}
	return s.store.Catalog().Put(ctx, p)
}

func (s *PlantService) GetCareProfile(ctx context.Context, plantID string) (*model.PlantCareProfile, error) {
	return s.store.Catalog().GetCareProfile(ctx, plantID)
}

// AddPlant registers a user's instance of a catalog plant.
func (s *PlantService) AddPlant(ctx context.Context, up *model.UserPlant) (*model.UserPlant, error) {
	if _, err := s.store.Catalog().GetCareProfile(ctx, up.PlantID); err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.NewValidationError("plantId", "unknown plant "+up.PlantID)
		}
		return nil, err
	}
	for ct, ov := range up.Care {
		if ov.Frequency != "" && !schedule.Known(ov.Frequency) {
			return nil, model.NewValidationError("care."+string(ct)+".frequency", "unknown frequency "+ov.Frequency)
		}
	}
	now := s.clock.Now()
	if up.PlantedDate.IsZero() {
		up.PlantedDate = now
	}
	up.CreatedAt = now
	up.IsActive = true
	return s.store.UserPlants().Create(ctx, up)
}

// GetPlant returns the plant with its reminders and recent care history attached.
func (s *PlantService) GetPlant(ctx context.Context, userID, userPlantID string) (*model.UserPlant, error) {
	up, err := s.store.UserPlants().Get(ctx, userID, userPlantID)
	if err != nil {
		return nil, plantNotFound(err, userPlantID)
	}
	if up.Reminders, err = s.store.Reminders().ListByUserPlant(ctx, userPlantID); err != nil {
		return nil, err
	}
	if up.CareHistory, err = s.store.CareHistory().List(ctx, userPlantID, historyLimit); err != nil {
		return nil, err
	}
	return up, nil
}

// CareHistory lists the newest care events for a plant the user owns.
func (s *PlantService) CareHistory(ctx context.Context, userID, userPlantID string, limit int) ([]model.CareEvent, error) {
	if _, err := s.store.UserPlants().Get(ctx, userID, userPlantID); err != nil {
		return nil, plantNotFound(err, userPlantID)
	}
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	return s.store.CareHistory().List(ctx, userPlantID, limit)
}

const historyLimit = 50

func plantNotFound(err error, userPlantID string) error {
	if model.IsNotFoundError(err) {
		return model.NewNotFoundError("userPlantId", "plant "+userPlantID+" not found")
	}
	return err
}
