package services

import (
	"context"
	"strings"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// ObservationService records notes about plants owned directly by a user or
// embedded in a garden. Both are addressed through one OwnerRef.
type ObservationService struct {
	store store.Store
	clock clock.Clock
}

func NewObservationService(s store.Store, clk clock.Clock) *ObservationService {
	if clk == nil {
		clk = clock.System{}
	}
	return &ObservationService{store: s, clock: clk}
}

func validateOwner(o model.OwnerRef) error {
	switch o.Kind {
	case model.OwnerUserPlant, model.OwnerGarden:
	default:
		return model.NewValidationError("ownerKind", "ownerKind must be user_plant or garden")
	}
	if strings.TrimSpace(o.OwnerID) == "" {
		return model.NewValidationError("ownerId", "ownerId is required")
	}
	if strings.TrimSpace(o.PlantRef) == "" {
		return model.NewValidationError("plantRef", "plantRef is required")
	}
	return nil
}

// Record stores an observation. For user-owned plants the plant must belong to the user.
func (s *ObservationService) Record(ctx context.Context, o *model.Observation) (*model.Observation, error) {
	if err := validateOwner(o.Owner); err != nil {
		return nil, err
	}
	if strings.TrimSpace(o.Note) == "" {
		return nil, model.NewValidationError("note", "note is required")
	}
	if o.Owner.Kind == model.OwnerUserPlant {
		if _, err := s.store.UserPlants().Get(ctx, o.UserID, o.Owner.OwnerID); err != nil {
			return nil, plantNotFound(err, o.Owner.OwnerID)
		}
	}
	if o.ObservedAt.IsZero() {
		o.ObservedAt = s.clock.Now()
	}
	return s.store.Observations().Create(ctx, o)
}

// List returns observations for owner, filtered to the requesting user.
func (s *ObservationService) List(ctx context.Context, userID string, owner model.OwnerRef) ([]model.Observation, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	all, err := s.store.Observations().List(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Observation, 0, len(all))
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}
