package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflove/care-service/internal/core/ranking"
	"github.com/leaflove/care-service/internal/core/rules"
	"github.com/leaflove/care-service/internal/model"
)

func findCandidate(cs []rules.Candidate, tag string) (rules.Candidate, bool) {
	for _, c := range cs {
		if c.Tag == tag {
			return c, true
		}
	}
	return rules.Candidate{}, false
}

func TestListReminders_WateringEscalation(t *testing.T) {
	cases := []struct {
		daysAgo int
		want    model.Priority
	}{
		{10, model.PriorityHigh},
		{15, model.PriorityUrgent},
		{7, model.PriorityMedium},
	}
	for _, tc := range cases {
		e := newEnv(t, nil, nil)
		e.seedUser(t, "u1", tc.daysAgo)
		got, err := e.recs.ListReminders(context.Background(), "u1", EvalOptions{})
		require.NoError(t, err)
		c, ok := findCandidate(got, "watering-due")
		require.True(t, ok, "daysAgo=%d: no watering candidate in %+v", tc.daysAgo, got)
		assert.Equal(t, tc.want, c.Priority, "daysAgo=%d", tc.daysAgo)
		assert.NotEmpty(t, c.UserPlantID)
		assert.Equal(t, "tomato", c.PlantID)
	}
}

func TestListReminders_WeatherUnavailableDegrades(t *testing.T) {
	e := newEnv(t, nil, &fakeWeather{err: model.UpstreamUnavailableError{Upstream: "weather", Err: errors.New("timeout")}})
	e.seedUser(t, "u1", 10)

	got, err := e.recs.ListReminders(context.Background(), "u1", EvalOptions{IncludeWeather: true, IncludeSeasonal: true})
	require.NoError(t, err)
	sentinel, ok := findCandidate(got, rules.TagWeatherUnavailable)
	require.True(t, ok)
	assert.Equal(t, model.PriorityLow, sentinel.Priority)

	n := 0
	for _, c := range got {
		if c.Tag == rules.TagWeatherUnavailable {
			n++
		}
	}
	assert.Equal(t, 1, n)
	for i := 1; i < len(got); i++ {
		assert.False(t, ranking.Less(got[i], got[i-1]), "not ranked at %d", i)
	}
}

func TestListReminders_WeatherLookedUpOncePerLocation(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.seedUser(t, "u1", 1)
	_, err := e.plants.AddPlant(context.Background(), &model.UserPlant{UserID: "u1", PlantID: "tomato"})
	require.NoError(t, err)

	_, err = e.recs.ListReminders(context.Background(), "u1", EvalOptions{IncludeWeather: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.weather.calls.Load())
}

func TestListReminders_CapsAtTwenty(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.seedUser(t, "u1", 10)
	for i := 0; i < 25; i++ {
		watered := testNow.AddDate(0, 0, -9)
		_, err := e.plants.AddPlant(context.Background(), &model.UserPlant{
			UserID: "u1", PlantID: "tomato", PlantedDate: testNow.AddDate(0, -2, 0),
			Care: map[model.CareType]model.CareOverride{model.CareWatering: {LastPerformed: &watered}},
		})
		require.NoError(t, err)
	}
	got, err := e.recs.ListReminders(context.Background(), "u1", EvalOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestGenerate_UpsertsInsteadOfDuplicating(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.seedUser(t, "u1", 10)
	ctx := context.Background()

	first, err := e.recs.Generate(ctx, "u1")
	require.NoError(t, err)
	// watering, summer seasonal care, climate note
	assert.Equal(t, 3, first.Created)
	assert.Equal(t, 0, first.Refreshed)
	assert.Equal(t, 1, first.Reminders)

	e.clock.Advance(time.Hour)
	second, err := e.recs.Generate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Refreshed)
	assert.Equal(t, 0, second.Reminders)

	page, err := e.recs.ListFeed(ctx, "u1", ListFeedRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	for _, r := range page.Items {
		assert.False(t, r.ScheduledFor.After(r.ExpiresAt))
	}
	open, err := e.reminders.ListOpenReminders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].IsRecurring)
	assert.Equal(t, "weekly", open[0].RecurringInterval)
}

func TestGenerate_UnknownUserIsNotFound(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()
	_, err := e.recs.Generate(ctx, "nobody")
	assert.True(t, model.IsNotFoundError(err), "got %v", err)
	rows, total, err := e.store.AutoRecommendations().List(ctx, model.AutoRecommendationFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestGenerate_DismissedRowSuppressesUntilExpiry(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.seedUser(t, "u1", 10)
	ctx := context.Background()
	_, err := e.recs.Generate(ctx, "u1")
	require.NoError(t, err)

	seasonal, err := e.recs.ListFeed(ctx, "u1", ListFeedRequest{Type: model.RecSeasonalCare})
	require.NoError(t, err)
	require.Len(t, seasonal.Items, 1)
	dismissed := seasonal.Items[0]
	_, err = e.recs.Dismiss(ctx, "u1", dismissed.RecommendationID, "not now")
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	res, err := e.recs.Generate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Suppressed)
	seasonal, err = e.recs.ListFeed(ctx, "u1", ListFeedRequest{Type: model.RecSeasonalCare})
	require.NoError(t, err)
	assert.Empty(t, seasonal.Items)

	e.clock.Set(dismissed.ExpiresAt.Add(time.Hour))
	_, err = e.recs.Generate(ctx, "u1")
	require.NoError(t, err)
	seasonal, err = e.recs.ListFeed(ctx, "u1", ListFeedRequest{Type: model.RecSeasonalCare})
	require.NoError(t, err)
	require.Len(t, seasonal.Items, 1)
	assert.NotEqual(t, dismissed.RecommendationID, seasonal.Items[0].RecommendationID)
}

func TestGenerate_HarvestReminderOncePerWindow(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 1)
	ctx := context.Background()
	harvests := func() []model.Reminder {
		all, err := e.reminders.ListPlantReminders(ctx, "u1", up.UserPlantID)
		require.NoError(t, err)
		var out []model.Reminder
		for _, r := range all {
			if r.Type == model.ReminderHarvesting {
				out = append(out, r)
			}
		}
		return out
	}

	e.clock.Set(time.Date(2024, 8, 5, 12, 0, 0, 0, time.UTC))
	_, err := e.recs.Generate(ctx, "u1")
	require.NoError(t, err)
	got := harvests()
	require.Len(t, got, 1)
	res, err := e.reminders.CompleteReminder(ctx, "u1", got[0].ReminderID, "two baskets")
	require.NoError(t, err)
	assert.Nil(t, res.Successor)

	for _, at := range []time.Time{
		time.Date(2024, 8, 5, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 20, 12, 0, 0, 0, time.UTC),
	} {
		e.clock.Set(at)
		_, err = e.recs.Generate(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, harvests(), 1, "at %s", at)
	}

	e.clock.Set(time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC))
	_, err = e.recs.Generate(ctx, "u1")
	require.NoError(t, err)
	got = harvests()
	require.Len(t, got, 2)
	open := 0
	for _, r := range got {
		if !r.IsCompleted {
			open++
		}
	}
	assert.Equal(t, 1, open)
}

func TestGenerate_SkipsWeatherSentinel(t *testing.T) {
	e := newEnv(t, nil, &fakeWeather{err: errors.New("down")})
	e.seedUser(t, "u1", 1)
	res, err := e.recs.Generate(context.Background(), "u1")
	require.NoError(t, err)

	rows, _, err := e.store.AutoRecommendations().List(context.Background(), model.AutoRecommendationFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, rows, res.Persisted())
	for _, r := range rows {
		assert.NotEqual(t, rules.TagWeatherUnavailable, r.Tag)
	}
}

func TestGenerate_PersistsColdAlert(t *testing.T) {
	wp := &fakeWeather{snap: &model.WeatherSnapshot{Temperature: 2, Humidity: 60, WindSpeed: 25, Description: "clear"}}
	e := newEnv(t, nil, wp)
	e.seedUser(t, "u1", 1)
	_, err := e.recs.Generate(context.Background(), "u1")
	require.NoError(t, err)

	page, err := e.recs.ListFeed(context.Background(), "u1", ListFeedRequest{Type: model.RecWeatherAlert})
	require.NoError(t, err)
	tags := map[string]model.Priority{}
	for _, r := range page.Items {
		tags[r.Tag] = r.Priority
		require.NotNil(t, r.WeatherData)
		assert.Equal(t, testNow.Add(24*time.Hour), r.ExpiresAt)
	}
	assert.Equal(t, model.PriorityHigh, tags[rules.TagColdProtection])
	assert.Contains(t, tags, rules.TagWindProtection)
}

func TestGenerateAll_IsolatesFailures(t *testing.T) {
	base := newEnv(t, nil, nil)
	for _, id := range []string{"a", "b", "bad", "c"} {
		base.seedUser(t, id, 10)
	}
	e := newEnv(t, failingStore{Store: base.store, badUser: "bad"}, nil)

	res, err := e.recs.GenerateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Results, 3)
	require.Contains(t, res.Errors, "bad")
	assert.Contains(t, res.Errors["bad"], "disk on fire")
	for _, id := range []string{"a", "b", "c"} {
		require.Contains(t, res.Results, id)
		assert.Equal(t, 3, res.Results[id].Created)
	}
}

func TestGenerateAll_CancelledContext(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.seedUser(t, "a", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.recs.GenerateAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListFeed_VisibilityWindow(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()
	recs := e.store.AutoRecommendations()
	visible, err := recs.Create(ctx, storedRec("u1", nil))
	require.NoError(t, err)
	_, err = recs.Create(ctx, storedRec("u1", func(r *model.AutoRecommendation) {
		r.Tag = "future"
		r.ScheduledFor = testNow.Add(time.Hour)
		r.ExpiresAt = testNow.Add(72 * time.Hour)
	}))
	require.NoError(t, err)
	_, err = recs.Create(ctx, storedRec("u1", func(r *model.AutoRecommendation) {
		r.Tag = "stale"
		r.ExpiresAt = testNow
	}))
	require.NoError(t, err)
	_, err = recs.Create(ctx, storedRec("u1", func(r *model.AutoRecommendation) {
		r.Tag = "done"
		r.Status = model.StatusDismissed
	}))
	require.NoError(t, err)

	page, err := e.recs.ListFeed(ctx, "u1", ListFeedRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, visible.RecommendationID, page.Items[0].RecommendationID)

	// An explicit status lifts the visibility window but never returns expired rows.
	page, err = e.recs.ListFeed(ctx, "u1", ListFeedRequest{Status: model.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, r := range page.Items {
		assert.NotEqual(t, "stale", r.Tag)
	}

	page, err = e.recs.ListFeed(ctx, "u1", ListFeedRequest{Status: model.StatusDismissed})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestListFeed_Pagination(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()
	prios := []model.Priority{model.PriorityLow, model.PriorityUrgent, model.PriorityMedium, model.PriorityHigh}
	for i, p := range prios {
		_, err := e.store.AutoRecommendations().Create(ctx, storedRec("u1", func(r *model.AutoRecommendation) {
			r.Tag = string(p)
			r.Priority = p
			r.DueDate = testNow.Add(time.Duration(i) * time.Hour)
		}))
		require.NoError(t, err)
	}
	page, err := e.recs.ListFeed(ctx, "u1", ListFeedRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.PriorityMedium, page.Items[0].Priority)
	assert.Equal(t, model.PriorityLow, page.Items[1].Priority)

	far, err := e.recs.ListFeed(ctx, "u1", ListFeedRequest{Page: 500000000000000000, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 4, far.Total)
	assert.Empty(t, far.Items)
}

func TestListFeed_RejectsUnknownFilters(t *testing.T) {
	e := newEnv(t, nil, nil)
	for _, req := range []ListFeedRequest{
		{Type: "compost"},
		{Status: "snoozed"},
		{Priority: "critical"},
		{Page: -1},
	} {
		_, err := e.recs.ListFeed(context.Background(), "u1", req)
		assert.True(t, model.IsValidationError(err), "%+v: %v", req, err)
	}
}

func TestAcknowledgeAndDismiss(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()
	create := func(mut func(*model.AutoRecommendation)) string {
		r, err := e.store.AutoRecommendations().Create(ctx, storedRec("owner", mut))
		require.NoError(t, err)
		return r.RecommendationID
	}

	t.Run("acknowledge sets action fields", func(t *testing.T) {
		id := create(nil)
		got, err := e.recs.Acknowledge(ctx, "owner", id, "done")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAcknowledged, got.Status)
		assert.True(t, got.ActionTaken)
		require.NotNil(t, got.ActionDate)
		assert.Equal(t, testNow, *got.ActionDate)
		assert.Equal(t, "done", got.UserNotes)

		again, err := e.recs.Acknowledge(ctx, "owner", id, "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAcknowledged, again.Status)
		assert.Equal(t, "done", again.UserNotes)
	})

	t.Run("dismissing an acknowledged row conflicts", func(t *testing.T) {
		id := create(nil)
		_, err := e.recs.Acknowledge(ctx, "owner", id, "")
		require.NoError(t, err)
		_, err = e.recs.Dismiss(ctx, "owner", id, "")
		assert.True(t, model.IsConflictError(err), "got %v", err)
	})

	t.Run("acknowledging a dismissed row conflicts", func(t *testing.T) {
		id := create(nil)
		_, err := e.recs.Dismiss(ctx, "owner", id, "not relevant")
		require.NoError(t, err)
		_, err = e.recs.Acknowledge(ctx, "owner", id, "")
		assert.True(t, model.IsConflictError(err), "got %v", err)
		stored, err := e.store.AutoRecommendations().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDismissed, stored.Status)
	})

	t.Run("other users see not found", func(t *testing.T) {
		id := create(nil)
		_, err := e.recs.Acknowledge(ctx, "intruder", id, "")
		assert.True(t, model.IsNotFoundError(err), "got %v", err)
		_, err = e.recs.Dismiss(ctx, "owner", "missing", "")
		assert.True(t, model.IsNotFoundError(err), "got %v", err)
	})

	t.Run("expired rows conflict", func(t *testing.T) {
		id := create(func(r *model.AutoRecommendation) { r.ExpiresAt = testNow })
		_, err := e.recs.Dismiss(ctx, "owner", id, "")
		assert.True(t, model.IsConflictError(err), "got %v", err)
	})
}

func TestDashboardSummary(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()
	rows := []func(*model.AutoRecommendation){
		func(r *model.AutoRecommendation) { r.Tag = "a"; r.Priority = model.PriorityUrgent; r.Type = model.RecWatering },
		func(r *model.AutoRecommendation) {
			r.Tag = "b"
			r.Priority = model.PriorityHigh
			r.Type = model.RecWeatherAlert
			r.ExpiresAt = testNow.Add(6 * time.Hour)
		},
		func(r *model.AutoRecommendation) {
			r.Tag = "c"
			r.Priority = model.PriorityLow
			r.DueDate = testNow.Add(5 * 24 * time.Hour)
			r.ExpiresAt = testNow.Add(6 * 24 * time.Hour)
		},
		func(r *model.AutoRecommendation) { r.Tag = "d"; r.Status = model.StatusDismissed },
	}
	for _, mut := range rows {
		_, err := e.store.AutoRecommendations().Create(ctx, storedRec("u1", mut))
		require.NoError(t, err)
	}
	sum, err := e.recs.DashboardSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.UrgentCount)
	assert.Equal(t, 1, sum.ExpiringSoonCount)
	assert.Equal(t, 1, sum.ByType[model.RecWatering])
	assert.Equal(t, 1, sum.ByPriority[model.PriorityLow])
	require.Len(t, sum.RecentTop5, 3)
	assert.Equal(t, "a", sum.RecentTop5[0].Tag)
	assert.Equal(t, "c", sum.RecentTop5[2].Tag)
}

func TestBuildFeed_PrefersStoredRows(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.seedUser(t, "u1", 10)
	ctx := context.Background()
	_, err := e.recs.Generate(ctx, "u1")
	require.NoError(t, err)

	items, err := e.recs.BuildFeed(ctx, "u1", FeedOptions{EvalOptions: EvalOptions{IncludeWeather: true, IncludeSeasonal: true}})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.True(t, it.Stored, "%s should come from the store", it.Tag)
		assert.NotEmpty(t, it.RecommendationID)
	}
	assert.Equal(t, "watering-due", items[0].Tag)

	page, err := e.recs.BuildFeed(ctx, "u1", FeedOptions{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	far, err := e.recs.BuildFeed(ctx, "u1", FeedOptions{Page: 500000000000000000, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, far)
}

func TestInbox_MergesSupervisorRecommendations(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()
	_, err := e.store.AutoRecommendations().Create(ctx, storedRec("u1", func(r *model.AutoRecommendation) { r.Priority = model.PriorityLow }))
	require.NoError(t, err)
	open, err := e.sup.CreateRecommendation(ctx, &model.Recommendation{SupervisorID: "sv", UserID: "u1", Title: "Repot", Message: "Roots are crowded", Priority: model.PriorityHigh})
	require.NoError(t, err)
	closed, err := e.sup.CreateRecommendation(ctx, &model.Recommendation{SupervisorID: "sv", UserID: "u1", Title: "Mulch", Message: "Add mulch"})
	require.NoError(t, err)
	_, err = e.sup.Respond(ctx, "u1", closed.RecommendationID, model.SupervisorImplemented, "done")
	require.NoError(t, err)

	items, err := e.recs.Inbox(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, InboxSupervisor, items[0].Kind)
	assert.Equal(t, open.RecommendationID, items[0].RecommendationID)
	assert.Equal(t, InboxAuto, items[1].Kind)
}
