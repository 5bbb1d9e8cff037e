// Package lifecycle holds the status state machines for AutoRecommendations and
// supervisor Recommendations.
//
// AutoRecommendation:
//
//	active -> acknowledged (terminal)
//	active -> dismissed    (terminal)
//	active -> expired      (implicit, now >= expiresAt)
//
// Repeating the transition a row already went through is a no-op. Any other move
// out of a terminal or expired row is a ConflictError. Rows owned by another user
// are reported as not found.
package lifecycle

import (
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Action is a user-initiated AutoRecommendation transition.
type Action string

const (
	Acknowledge Action = "acknowledge"
	Dismiss     Action = "dismiss"
)

// Target returns the status an action moves a row into.
func (a Action) Target() model.RecommendationStatus {
	if a == Dismiss {
		return model.StatusDismissed
	}
	return model.StatusAcknowledged
}

// Apply performs action on r for userID at now. It returns changed=false for an
// idempotent repeat.
func Apply(r *model.AutoRecommendation, userID string, action Action, notes string, now time.Time) (bool, error) {
	if err := Check(r, userID, action, now); err != nil {
		return false, err
	}
	if r.Status == action.Target() {
		return false, nil
	}
	at := now
	r.Status = action.Target()
	r.ActionTaken = true
	r.ActionDate = &at
	if notes != "" {
		r.UserNotes = notes
	}
	r.UpdatedAt = now
	return true, nil
}

// Check validates the transition without mutating r.
func Check(r *model.AutoRecommendation, userID string, action Action, now time.Time) error {
	if r == nil || r.UserID != userID {
		return model.NewNotFoundError("recommendationId", "recommendation not found")
	}
	if action != Acknowledge && action != Dismiss {
		return model.NewValidationError("action", "unknown action "+string(action))
	}
	switch {
	case r.Status == action.Target():
		return nil
	case r.Status != model.StatusActive:
		return model.NewConflictError("status", "recommendation is already "+string(r.Status))
	case !now.Before(r.ExpiresAt):
		return model.NewConflictError("status", "recommendation has expired")
	}
	return nil
}

// Expired reports whether r is past its visibility window, regardless of status.
func Expired(r *model.AutoRecommendation, now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Visible filters rs down to rows visible at now.
func Visible(rs []model.AutoRecommendation, now time.Time) []model.AutoRecommendation {
	out := make([]model.AutoRecommendation, 0, len(rs))
	for i := range rs {
		if rs[i].Visible(now) {
			out = append(out, rs[i])
		}
	}
	return out
}
