package storetest

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
// Identifiers are unique per run so a shared database can be reused.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	userID := "u-" + uuid.NewString()

	t.Run("users", func(t *testing.T) { users(t, ctx, s, userID, now) })
	t.Run("catalog", func(t *testing.T) { catalog(t, ctx, s) })
	up := userPlants(t, ctx, s, userID, now)
	t.Run("reminders", func(t *testing.T) { reminders(t, ctx, s, up, now) })
	t.Run("care history", func(t *testing.T) { careHistory(t, ctx, s, up, now) })
	t.Run("auto recommendations", func(t *testing.T) { autoRecs(t, ctx, s, up, now) })
	t.Run("supervisor recommendations", func(t *testing.T) { supervisorRecs(t, ctx, s, up, now) })
	t.Run("observations", func(t *testing.T) { observations(t, ctx, s, up, now) })
}

func users(t *testing.T, ctx context.Context, s store.Store, userID string, now time.Time) {
	if _, err := s.Users().Create(ctx, &model.User{UserID: userID, Location: "Phoenix, AZ", Hemisphere: "north", CreatedAt: now}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := s.Users().Get(ctx, userID)
	if err != nil || got.Location != "Phoenix, AZ" || !got.CreatedAt.Equal(now) {
		t.Fatalf("GetUser: got=%+v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "missing-"+userID); !model.IsNotFoundError(err) {
		t.Fatalf("GetUser missing: want not found, got %v", err)
	}
	ids, err := s.Users().ListIDs(ctx)
	if err != nil || !slices.Contains(ids, userID) {
		t.Fatalf("ListIDs: ids=%v err=%v", ids, err)
	}
}

func catalog(t *testing.T, ctx context.Context, s store.Store) {
	id := "plant-" + uuid.NewString()
	p := &model.PlantCareProfile{
		PlantID:       id,
		CommonName:    "Tomato",
		Watering:      model.CareItem{Frequency: "daily", Instructions: "Keep evenly moist."},
		HarvestMonths: []int{7, 8, 9},
	}
	if err := s.Catalog().Put(ctx, p); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	p.CommonName = "Cherry tomato"
	if err := s.Catalog().Put(ctx, p); err != nil {
		t.Fatalf("PutProfile update: %v", err)
	}
	got, err := s.Catalog().GetCareProfile(ctx, id)
	if err != nil || got.CommonName != "Cherry tomato" || got.Watering.Frequency != "daily" || len(got.HarvestMonths) != 3 {
		t.Fatalf("GetCareProfile: got=%+v err=%v", got, err)
	}
	if _, err := s.Catalog().GetCareProfile(ctx, "missing-"+id); !model.IsNotFoundError(err) {
		t.Fatalf("GetCareProfile missing: want not found, got %v", err)
	}
}

func userPlants(t *testing.T, ctx context.Context, s store.Store, userID string, now time.Time) *model.UserPlant {
	t.Helper()
	planted := now.AddDate(0, -2, 0)
	up, err := s.UserPlants().Create(ctx, &model.UserPlant{
		UserID: userID, PlantID: "monstera", CustomName: "Monty", PlantedDate: planted, IsActive: true, CreatedAt: now,
	})
	if err != nil || up.UserPlantID == "" {
		t.Fatalf("CreateUserPlant: up=%+v err=%v", up, err)
	}
	if _, err := s.UserPlants().Create(ctx, &model.UserPlant{UserID: userID, PlantID: "fern", IsActive: false, CreatedAt: now}); err != nil {
		t.Fatalf("CreateUserPlant inactive: %v", err)
	}

	last := now.AddDate(0, 0, -3)
	up.Care = map[model.CareType]model.CareOverride{model.CareWatering: {Frequency: "every-2-days", LastPerformed: &last}}
	up.Location = "balcony"
	if err := s.UserPlants().Save(ctx, up); err != nil {
		t.Fatalf("SaveUserPlant: %v", err)
	}
	got, err := s.UserPlants().Get(ctx, userID, up.UserPlantID)
	if err != nil {
		t.Fatalf("GetUserPlant: %v", err)
	}
	ov := got.Override(model.CareWatering)
	if got.Location != "balcony" || ov.Frequency != "every-2-days" || ov.LastPerformed == nil || !ov.LastPerformed.Equal(last) {
		t.Fatalf("GetUserPlant: overrides not persisted: %+v", got)
	}
	if !got.PlantedDate.Equal(planted) {
		t.Fatalf("GetUserPlant: planted=%v want %v", got.PlantedDate, planted)
	}
	if _, err := s.UserPlants().Get(ctx, "someone-else", up.UserPlantID); !model.IsNotFoundError(err) {
		t.Fatalf("GetUserPlant other user: want not found, got %v", err)
	}

	active, err := s.UserPlants().ListActiveForUser(ctx, userID)
	if err != nil || len(active) != 1 || active[0].UserPlantID != up.UserPlantID {
		t.Fatalf("ListActiveForUser: n=%d err=%v", len(active), err)
	}
	return got
}

func reminders(t *testing.T, ctx context.Context, s store.Store, up *model.UserPlant, now time.Time) {
	r, err := s.Reminders().Create(ctx, &model.Reminder{
		UserPlantID: up.UserPlantID, UserID: up.UserID, Type: model.ReminderWatering, Title: "Water Monty",
		DueDate: now, IsRecurring: true, RecurringInterval: "weekly", CreatedAt: now,
	})
	if err != nil || r.ReminderID == "" {
		t.Fatalf("CreateReminder: r=%+v err=%v", r, err)
	}
	if _, err := s.Reminders().Get(ctx, "someone-else", r.ReminderID); !model.IsNotFoundError(err) {
		t.Fatalf("GetReminder other user: want not found, got %v", err)
	}

	succ := &model.Reminder{
		ReminderID: uuid.NewString(), UserPlantID: up.UserPlantID, UserID: up.UserID, Type: model.ReminderWatering,
		Title: "Water Monty", DueDate: now.AddDate(0, 0, 7), IsRecurring: true, RecurringInterval: "weekly",
		PreviousID: r.ReminderID, CreatedAt: now,
	}
	ev := &model.CareEvent{UserPlantID: up.UserPlantID, Action: "watering", ReminderID: r.ReminderID, PerformedAt: now}

	foreign := *up
	foreign.UserID = "someone-else"
	if _, err := s.Reminders().Complete(ctx, store.Completion{
		ReminderID: r.ReminderID, CompletedAt: now, Successor: succ, Plant: &foreign, Event: ev,
	}); !model.IsNotFoundError(err) {
		t.Fatalf("CompleteReminder foreign plant: want not found, got %v", err)
	}
	if got, err := s.Reminders().Get(ctx, up.UserID, r.ReminderID); err != nil || got.IsCompleted {
		t.Fatalf("aborted completion must leave the reminder open: %+v err=%v", got, err)
	}
	if evs, err := s.CareHistory().List(ctx, up.UserPlantID, 0); err != nil || len(evs) != 0 {
		t.Fatalf("aborted completion must not append history: n=%d err=%v", len(evs), err)
	}
	if all, err := s.Reminders().ListByUserPlant(ctx, up.UserPlantID); err != nil || len(all) != 1 {
		t.Fatalf("aborted completion must not insert a successor: n=%d err=%v", len(all), err)
	}

	watered := *up
	last := now
	watered.Care = map[model.CareType]model.CareOverride{model.CareWatering: {LastPerformed: &last}}
	done, err := s.Reminders().Complete(ctx, store.Completion{
		ReminderID: r.ReminderID, CompletedAt: now, Successor: succ, Plant: &watered, Event: ev,
	})
	if err != nil || !done {
		t.Fatalf("CompleteReminder: done=%v err=%v", done, err)
	}
	again, err := s.Reminders().Complete(ctx, store.Completion{ReminderID: r.ReminderID, CompletedAt: now.Add(time.Hour), Successor: succ})
	if err != nil || again {
		t.Fatalf("CompleteReminder twice: done=%v err=%v", again, err)
	}
	if _, err := s.Reminders().Complete(ctx, store.Completion{ReminderID: "missing-" + r.ReminderID, CompletedAt: now}); !model.IsNotFoundError(err) {
		t.Fatalf("CompleteReminder missing: want not found, got %v", err)
	}
	if evs, err := s.CareHistory().List(ctx, up.UserPlantID, 0); err != nil || len(evs) != 1 || evs[0].ReminderID != r.ReminderID {
		t.Fatalf("completion history: %+v err=%v", evs, err)
	}
	if got, err := s.UserPlants().Get(ctx, up.UserID, up.UserPlantID); err != nil || !got.Override(model.CareWatering).LastPerformed.Equal(now) {
		t.Fatalf("completion override: %+v err=%v", got, err)
	}

	all, err := s.Reminders().ListByUserPlant(ctx, up.UserPlantID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByUserPlant: n=%d err=%v", len(all), err)
	}
	if !all[0].IsCompleted || all[0].CompletedDate == nil || !all[0].CompletedDate.Equal(now) {
		t.Fatalf("completed reminder not persisted: %+v", all[0])
	}
	if all[1].ReminderID != succ.ReminderID || all[1].IsCompleted || all[1].PreviousID != r.ReminderID {
		t.Fatalf("successor not persisted: %+v", all[1])
	}
	open, err := s.Reminders().ListOpenForUser(ctx, up.UserID)
	if err != nil || len(open) != 1 || open[0].ReminderID != succ.ReminderID {
		t.Fatalf("ListOpenForUser: %+v err=%v", open, err)
	}
}

func careHistory(t *testing.T, ctx context.Context, s store.Store, up *model.UserPlant, now time.Time) {
	for i := 0; i < 3; i++ {
		ev := &model.CareEvent{UserPlantID: up.UserPlantID, Action: "watering", PerformedAt: now.AddDate(0, 0, i)}
		if err := s.CareHistory().Append(ctx, ev); err != nil {
			t.Fatalf("AppendCareHistory: %v", err)
		}
	}
	evs, err := s.CareHistory().List(ctx, up.UserPlantID, 2)
	if err != nil || len(evs) != 2 {
		t.Fatalf("ListCareHistory: n=%d err=%v", len(evs), err)
	}
	if !evs[0].PerformedAt.Equal(now.AddDate(0, 0, 2)) {
		t.Fatalf("ListCareHistory must be newest first, got %v", evs[0].PerformedAt)
	}
}

func autoRec(up *model.UserPlant, tag string, p model.Priority, now time.Time) *model.AutoRecommendation {
	return &model.AutoRecommendation{
		UserID: up.UserID, UserPlantID: up.UserPlantID, PlantID: up.PlantID, Type: model.RecWeatherAlert, Tag: tag,
		Title: tag, Message: tag, Priority: p, Status: model.StatusActive, DueDate: now,
		ScheduledFor: now, ExpiresAt: now.Add(24 * time.Hour), CreatedAt: now, UpdatedAt: now,
	}
}

func autoRecs(t *testing.T, ctx context.Context, s store.Store, up *model.UserPlant, now time.Time) {
	ar := s.AutoRecommendations()
	cold := autoRec(up, "cold-protection", model.PriorityHigh, now)
	cold.WeatherData = &model.WeatherSnapshot{Temperature: 2, Humidity: 50, Description: "clear"}
	cold, err := ar.Create(ctx, cold)
	if err != nil {
		t.Fatalf("CreateAutoRec: %v", err)
	}
	got, err := ar.Get(ctx, cold.RecommendationID)
	if err != nil || got.WeatherData == nil || got.WeatherData.Temperature != 2 || !got.ExpiresAt.Equal(cold.ExpiresAt) {
		t.Fatalf("GetAutoRec: got=%+v err=%v", got, err)
	}

	low := autoRec(up, "low-humidity", model.PriorityMedium, now)
	low.DueDate = now.Add(-time.Hour)
	if _, err := ar.Create(ctx, low); err != nil {
		t.Fatalf("CreateAutoRec low: %v", err)
	}
	future := autoRec(up, "wind-protection", model.PriorityUrgent, now)
	future.ScheduledFor = now.Add(time.Hour)
	future.DueDate = now.Add(2 * time.Hour)
	future, err = ar.Create(ctx, future)
	if err != nil {
		t.Fatalf("CreateAutoRec future: %v", err)
	}
	expired := autoRec(up, "heat-stress-prevention", model.PriorityUrgent, now.Add(-48*time.Hour))
	expired, err = ar.Create(ctx, expired)
	if err != nil {
		t.Fatalf("CreateAutoRec expired: %v", err)
	}

	found, err := ar.FindByKey(ctx, up.UserID, up.UserPlantID, model.RecWeatherAlert, "cold-protection", now)
	if err != nil || found.RecommendationID != cold.RecommendationID {
		t.Fatalf("FindByKey: got=%+v err=%v", found, err)
	}
	if _, err := ar.FindByKey(ctx, up.UserID, up.UserPlantID, model.RecWeatherAlert, "wind-protection", now); !model.IsNotFoundError(err) {
		t.Fatalf("FindByKey future row: want not found, got %v", err)
	}

	found.Message = "still cold"
	found.Priority = model.PriorityUrgent
	found.ExpiresAt = now.Add(36 * time.Hour)
	if err := ar.Refresh(ctx, found); err != nil {
		t.Fatalf("RefreshAutoRec: %v", err)
	}

	visible, total, err := ar.List(ctx, model.AutoRecommendationFilter{UserID: up.UserID, VisibleAt: &now})
	if err != nil || total != 2 || len(visible) != 2 {
		t.Fatalf("List visible: n=%d total=%d err=%v", len(visible), total, err)
	}
	if visible[0].RecommendationID != cold.RecommendationID || visible[0].Message != "still cold" || visible[0].Priority != model.PriorityUrgent {
		t.Fatalf("List visible: refreshed urgent row must rank first, got %+v", visible[0])
	}

	page, total, err := ar.List(ctx, model.AutoRecommendationFilter{UserID: up.UserID, NotExpiredAt: &now, Offset: 1, Limit: 1})
	if err != nil || total != 3 || len(page) != 1 {
		t.Fatalf("List page: n=%d total=%d err=%v", len(page), total, err)
	}
	if page[0].RecommendationID != future.RecommendationID {
		t.Fatalf("List page: urgent rows ordered by date, got %s", page[0].Tag)
	}

	cold.Status = model.StatusDismissed
	cold.ActionTaken = true
	cold.ActionDate = &now
	cold.UserNotes = "covered it"
	cold.UpdatedAt = now
	if ok, err := ar.Transition(ctx, cold); err != nil || !ok {
		t.Fatalf("Transition: ok=%v err=%v", ok, err)
	}
	cold.Status = model.StatusAcknowledged
	if ok, err := ar.Transition(ctx, cold); err != nil || ok {
		t.Fatalf("Transition on terminal row must not apply: ok=%v err=%v", ok, err)
	}
	got, _ = ar.Get(ctx, cold.RecommendationID)
	if got.Status != model.StatusDismissed || !got.ActionTaken || got.UserNotes != "covered it" {
		t.Fatalf("Transition not persisted: %+v", got)
	}
	if byKey, err := ar.FindByKey(ctx, up.UserID, up.UserPlantID, model.RecWeatherAlert, "cold-protection", now); err != nil || byKey.Status != model.StatusDismissed {
		t.Fatalf("FindByKey dismissed row: got=%+v err=%v", byKey, err)
	}
	missing := *cold
	missing.RecommendationID = uuid.NewString()
	if _, err := ar.Transition(ctx, &missing); !model.IsNotFoundError(err) {
		t.Fatalf("Transition missing: want not found, got %v", err)
	}

	n, err := ar.ExpireBefore(ctx, now)
	if err != nil || n < 1 {
		t.Fatalf("ExpireBefore: n=%d err=%v", n, err)
	}
	got, _ = ar.Get(ctx, expired.RecommendationID)
	if got.Status != model.StatusExpired {
		t.Fatalf("ExpireBefore: status=%s", got.Status)
	}
	byStatus, total, err := ar.List(ctx, model.AutoRecommendationFilter{UserID: up.UserID, Status: model.StatusExpired})
	if err != nil || total != 1 || byStatus[0].RecommendationID != expired.RecommendationID {
		t.Fatalf("List by status: total=%d err=%v", total, err)
	}
}

func supervisorRecs(t *testing.T, ctx context.Context, s store.Store, up *model.UserPlant, now time.Time) {
	rec, err := s.Recommendations().Create(ctx, &model.Recommendation{
		SupervisorID: "sup-1", UserID: up.UserID, UserPlantID: up.UserPlantID, Type: "repotting",
		Title: "Repot", Message: "Roots are circling", Priority: model.PriorityMedium,
		Status: model.SupervisorPending, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}
	rec.Status = model.SupervisorImplemented
	rec.UserResponse = "done"
	rec.RespondedAt = &now
	if err := s.Recommendations().Update(ctx, rec); err != nil {
		t.Fatalf("UpdateRecommendation: %v", err)
	}
	lst, err := s.Recommendations().ListForUser(ctx, up.UserID)
	if err != nil || len(lst) != 1 || lst[0].Status != model.SupervisorImplemented || lst[0].UserResponse != "done" {
		t.Fatalf("ListForUser: %+v err=%v", lst, err)
	}
	if _, err := s.Recommendations().Get(ctx, uuid.NewString()); !model.IsNotFoundError(err) {
		t.Fatalf("GetRecommendation missing: want not found, got %v", err)
	}
}

func observations(t *testing.T, ctx context.Context, s store.Store, up *model.UserPlant, now time.Time) {
	direct := model.OwnerRef{Kind: model.OwnerUserPlant, OwnerID: up.UserPlantID, PlantRef: up.UserPlantID}
	garden := model.OwnerRef{Kind: model.OwnerGarden, OwnerID: "garden-" + up.UserPlantID, PlantRef: "bed-1"}
	for i, ref := range []model.OwnerRef{direct, garden, garden} {
		if _, err := s.Observations().Create(ctx, &model.Observation{
			UserID: up.UserID, Owner: ref, Note: "yellow leaves", ObservedAt: now.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("CreateObservation: %v", err)
		}
	}
	got, err := s.Observations().List(ctx, garden)
	if err != nil || len(got) != 2 || got[0].Owner != garden {
		t.Fatalf("ListObservations garden: %+v err=%v", got, err)
	}
	got, err = s.Observations().List(ctx, direct)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListObservations direct: %+v err=%v", got, err)
	}
}
