package services

import (
	"context"
	"strings"
	"time"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/core/lifecycle"
	"github.com/leaflove/care-service/internal/core/ranking"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// SupervisorService manages human-authored recommendations.
type SupervisorService struct {
	store store.Store
	clock clock.Clock
}

func NewSupervisorService(s store.Store, clk clock.Clock) *SupervisorService {
	if clk == nil {
		clk = clock.System{}
	}
	return &SupervisorService{store: s, clock: clk}
}

// CreateRecommendation stores a pending recommendation authored by a supervisor.
func (s *SupervisorService) CreateRecommendation(ctx context.Context, r *model.Recommendation) (*model.Recommendation, error) {
	switch {
	case strings.TrimSpace(r.SupervisorID) == "":
		return nil, model.NewValidationError("supervisorId", "supervisorId is required")
	case strings.TrimSpace(r.UserID) == "":
		return nil, model.NewValidationError("userId", "userId is required")
	case strings.TrimSpace(r.Title) == "":
		return nil, model.NewValidationError("title", "title is required")
	case strings.TrimSpace(r.Message) == "":
		return nil, model.NewValidationError("message", "message is required")
	}
	if r.Priority == "" {
		r.Priority = model.PriorityMedium
	}
	if !r.Priority.Valid() {
		return nil, model.NewValidationError("priority", "unknown priority "+string(r.Priority))
	}
	if r.UserPlantID != "" {
		if _, err := s.store.UserPlants().Get(ctx, r.UserID, r.UserPlantID); err != nil {
			return nil, plantNotFound(err, r.UserPlantID)
		}
	}
	now := s.clock.Now()
	r.Status = model.SupervisorPending
	r.CreatedAt = now
	r.UpdatedAt = now
	return s.store.Recommendations().Create(ctx, r)
}

// ListForUser returns every supervisor recommendation addressed to the user, ranked.
func (s *SupervisorService) ListForUser(ctx context.Context, userID string) ([]*model.Recommendation, error) {
	recs, err := s.store.Recommendations().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]supervisorItem, len(recs))
	for i, r := range recs {
		items[i] = supervisorItem{r}
	}
	ranking.Sort(items)
	for i := range items {
		recs[i] = items[i].Recommendation
	}
	return recs, nil
}

// Respond records the user's response and moves the recommendation forward.
func (s *SupervisorService) Respond(ctx context.Context, userID, recommendationID string, status model.SupervisorStatus, response string) (*model.Recommendation, error) {
	rec, err := s.store.Recommendations().Get(ctx, recommendationID)
	if err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.NewNotFoundError("recommendationId", "recommendation not found")
		}
		return nil, err
	}
	if err := lifecycle.Respond(rec, userID, status, response, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.store.Recommendations().Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type supervisorItem struct{ *model.Recommendation }

func (s supervisorItem) RankPriority() model.Priority { return s.Priority }
func (s supervisorItem) RankDate() time.Time {
	if s.FollowUp != nil {
		return *s.FollowUp
	}
	return s.CreatedAt
}
