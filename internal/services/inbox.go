package services

import (
	"context"
	"time"

	"github.com/leaflove/care-service/internal/core/lifecycle"
	"github.com/leaflove/care-service/internal/core/ranking"
	"github.com/leaflove/care-service/internal/model"
)

// Inbox item kinds.
const (
	InboxAuto       = "auto"
	InboxSupervisor = "supervisor"
)

// InboxItem presents an AutoRecommendation or a supervisor Recommendation in one shape.
type InboxItem struct {
	Kind             string         `json:"kind"`
	RecommendationID string         `json:"recommendationId"`
	UserPlantID      string         `json:"userPlantId,omitempty"`
	Type             string         `json:"type"`
	Title            string         `json:"title"`
	Message          string         `json:"message"`
	Priority         model.Priority `json:"priority"`
	Status           string         `json:"status"`
	Date             time.Time      `json:"date"`
	SupervisorID     string         `json:"supervisorId,omitempty"`
}

func (i InboxItem) RankPriority() model.Priority { return i.Priority }
func (i InboxItem) RankDate() time.Time          { return i.Date }

// Inbox merges the user's visible AutoRecommendations with supervisor
// recommendations that are still pending or viewed.
func (s *RecommendationService) Inbox(ctx context.Context, userID string) ([]InboxItem, error) {
	now := s.clock.Now()
	autos, _, err := s.store.AutoRecommendations().List(ctx, model.AutoRecommendationFilter{
		UserID:       userID,
		VisibleAt:    &now,
		NotExpiredAt: &now,
	})
	if err != nil {
		return nil, err
	}
	sups, err := s.store.Recommendations().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]InboxItem, 0, len(autos)+len(sups))
	for _, r := range autos {
		items = append(items, InboxItem{
			Kind:             InboxAuto,
			RecommendationID: r.RecommendationID,
			UserPlantID:      r.UserPlantID,
			Type:             string(r.Type),
			Title:            r.Title,
			Message:          r.Message,
			Priority:         r.Priority,
			Status:           string(r.Status),
			Date:             r.SortDate(),
		})
	}
	for _, r := range sups {
		if !lifecycle.Open(r) {
			continue
		}
		items = append(items, InboxItem{
			Kind:             InboxSupervisor,
			RecommendationID: r.RecommendationID,
			UserPlantID:      r.UserPlantID,
			Type:             r.Type,
			Title:            r.Title,
			Message:          r.Message,
			Priority:         r.Priority,
			Status:           string(r.Status),
			Date:             supervisorItem{r}.RankDate(),
			SupervisorID:     r.SupervisorID,
		})
	}
	ranking.Sort(items)
	return items, nil
}
