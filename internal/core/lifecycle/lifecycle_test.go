package lifecycle

import (
	"testing"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func activeRec() *model.AutoRecommendation {
	return &model.AutoRecommendation{
		RecommendationID: "a1",
		UserID:           "u1",
		Status:           model.StatusActive,
		ScheduledFor:     now.Add(-time.Hour),
		ExpiresAt:        now.Add(48 * time.Hour),
	}
}

func TestApply_ActiveToTerminal(t *testing.T) {
	for _, action := range []Action{Acknowledge, Dismiss} {
		r := activeRec()
		changed, err := Apply(r, "u1", action, "done", now)
		if err != nil || !changed {
			t.Fatalf("%s: changed=%v err=%v", action, changed, err)
		}
		if r.Status != action.Target() || !r.ActionTaken || r.ActionDate == nil || !r.ActionDate.Equal(now) || r.UserNotes != "done" {
			t.Fatalf("%s: unexpected row %+v", action, r)
		}
	}
}

func TestApply_RepeatIsNoop(t *testing.T) {
	r := activeRec()
	if _, err := Apply(r, "u1", Dismiss, "", now); err != nil {
		t.Fatal(err)
	}
	later := now.Add(time.Hour)
	changed, err := Apply(r, "u1", Dismiss, "again", later)
	if err != nil || changed {
		t.Fatalf("repeat dismiss: changed=%v err=%v", changed, err)
	}
	if !r.ActionDate.Equal(now) || r.UserNotes != "" {
		t.Fatalf("repeat must not touch the row: %+v", r)
	}
}

func TestApply_AcknowledgeDismissedIsConflict(t *testing.T) {
	r := activeRec()
	if _, err := Apply(r, "u1", Dismiss, "", now); err != nil {
		t.Fatal(err)
	}
	_, err := Apply(r, "u1", Acknowledge, "", now)
	if !model.IsConflictError(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if r.Status != model.StatusDismissed {
		t.Fatalf("status changed on rejected transition: %s", r.Status)
	}
}

func TestApply_NotOwnedIsNotFound(t *testing.T) {
	r := activeRec()
	_, err := Apply(r, "someone-else", Acknowledge, "", now)
	if !model.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if r.Status != model.StatusActive {
		t.Fatalf("row mutated by non-owner")
	}
	if _, err := Apply(nil, "u1", Acknowledge, "", now); !model.IsNotFoundError(err) {
		t.Fatalf("nil row should be not found, got %v", err)
	}
}

func TestApply_ExpiredIsConflict(t *testing.T) {
	r := activeRec()
	r.ExpiresAt = now
	if _, err := Apply(r, "u1", Acknowledge, "", now); !model.IsConflictError(err) {
		t.Fatalf("expected ConflictError at expiresAt == now, got %v", err)
	}
	r.Status = model.StatusExpired
	if _, err := Apply(r, "u1", Dismiss, "", now.Add(-time.Hour)); !model.IsConflictError(err) {
		t.Fatalf("expected ConflictError for stored expired status, got %v", err)
	}
}

func TestVisible(t *testing.T) {
	future := activeRec()
	future.ScheduledFor = now.Add(time.Minute)
	expired := activeRec()
	expired.ExpiresAt = now
	dismissed := activeRec()
	dismissed.Status = model.StatusDismissed
	ok := activeRec()
	out := Visible([]model.AutoRecommendation{*future, *expired, *dismissed, *ok}, now)
	if len(out) != 1 || out[0].RecommendationID != "a1" || out[0].Status != model.StatusActive {
		t.Fatalf("unexpected visible set %+v", out)
	}
}

func TestRespond_ForwardOnly(t *testing.T) {
	rec := &model.Recommendation{UserID: "u1", Status: model.SupervisorPending}
	if err := Respond(rec, "u1", model.SupervisorViewed, "", now); err != nil {
		t.Fatal(err)
	}
	if err := Respond(rec, "u1", model.SupervisorImplemented, "repotted", now); err != nil {
		t.Fatal(err)
	}
	if rec.UserResponse != "repotted" || rec.RespondedAt == nil {
		t.Fatalf("response not recorded: %+v", rec)
	}
	if err := Respond(rec, "u1", model.SupervisorViewed, "", now); !model.IsConflictError(err) {
		t.Fatalf("backward move must conflict, got %v", err)
	}
	if err := Respond(rec, "u1", model.SupervisorDismissed, "", now); !model.IsConflictError(err) {
		t.Fatalf("implemented -> dismissed must conflict, got %v", err)
	}
	if err := Respond(rec, "u1", model.SupervisorImplemented, "", now); err != nil {
		t.Fatalf("same status should be accepted, got %v", err)
	}
	if err := Respond(rec, "u2", model.SupervisorImplemented, "", now); !model.IsNotFoundError(err) {
		t.Fatalf("other user must get not found, got %v", err)
	}
	if err := Respond(rec, "u1", model.SupervisorPending, "", now); !model.IsValidationError(err) {
		t.Fatalf("pending is not a valid response, got %v", err)
	}
	if Open(rec) {
		t.Fatalf("implemented recommendation must leave the inbox")
	}
}
