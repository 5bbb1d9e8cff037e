package lifecycle

import (
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// supervisor statuses only move forward.
var supervisorOrder = map[model.SupervisorStatus]int{
	model.SupervisorPending:     0,
	model.SupervisorViewed:      1,
	model.SupervisorImplemented: 2,
	model.SupervisorDismissed:   2,
}

// Respond moves a supervisor recommendation forward on behalf of its target user.
// Same-status responses only update the response text.
func Respond(rec *model.Recommendation, userID string, status model.SupervisorStatus, response string, now time.Time) error {
	if rec == nil || rec.UserID != userID {
		return model.NewNotFoundError("recommendationId", "recommendation not found")
	}
	next, ok := supervisorOrder[status]
	if !ok || status == model.SupervisorPending {
		return model.NewValidationError("status", "status must be one of viewed, implemented, dismissed")
	}
	cur := supervisorOrder[rec.Status]
	if rec.Status != status && next <= cur {
		return model.NewConflictError("status", "cannot move from "+string(rec.Status)+" to "+string(status))
	}
	rec.Status = status
	if response != "" {
		rec.UserResponse = response
	}
	at := now
	rec.RespondedAt = &at
	rec.UpdatedAt = now
	return nil
}

// Open reports whether a supervisor recommendation still belongs in the inbox.
func Open(rec *model.Recommendation) bool {
	return rec.Status == model.SupervisorPending || rec.Status == model.SupervisorViewed
}
