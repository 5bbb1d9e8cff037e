package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store/memstore"
)

func TestCompleteReminder_RecurringProducesOneSuccessor(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 10)
	ctx := context.Background()
	due := testNow.AddDate(0, 0, -3)
	r, err := e.reminders.CreateReminder(ctx, "u1", up.UserPlantID, CreateReminderRequest{
		Type: model.ReminderWatering, Title: "Water tomato", DueDate: due, IsRecurring: true, RecurringInterval: "weekly",
	})
	require.NoError(t, err)

	res, err := e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "soaked")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.True(t, res.Completed.IsCompleted)
	require.NotNil(t, res.Successor)
	assert.Equal(t, due.AddDate(0, 0, 7), res.Successor.DueDate)
	assert.Equal(t, r.ReminderID, res.Successor.PreviousID)

	all, err := e.reminders.ListPlantReminders(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	plant, err := e.plants.GetPlant(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	ov := plant.Care[model.CareWatering]
	require.NotNil(t, ov.LastPerformed)
	assert.Equal(t, testNow, *ov.LastPerformed)
	require.NotNil(t, ov.NextDue)
	assert.Equal(t, testNow.AddDate(0, 0, 7), *ov.NextDue)
	require.Len(t, plant.CareHistory, 1)
	assert.Equal(t, "soaked", plant.CareHistory[0].Notes)
	assert.Equal(t, r.ReminderID, plant.CareHistory[0].ReminderID)

	// The watering candidate is no longer due.
	got, err := e.recs.ListReminders(ctx, "u1", EvalOptions{})
	require.NoError(t, err)
	_, due2 := findCandidate(got, "watering-due")
	assert.False(t, due2)
}

func TestCompleteReminder_Idempotent(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 1)
	ctx := context.Background()
	r, err := e.reminders.CreateReminder(ctx, "u1", up.UserPlantID, CreateReminderRequest{
		Type: model.ReminderFertilizing, Title: "Feed", DueDate: testNow, IsRecurring: true, RecurringInterval: "monthly",
	})
	require.NoError(t, err)

	_, err = e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "")
	require.NoError(t, err)
	e.clock.Advance(time.Hour)
	again, err := e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Nil(t, again.Successor)
	assert.Equal(t, testNow, *again.Completed.CompletedDate)

	all, err := e.reminders.ListPlantReminders(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	hist, err := e.plants.CareHistory(ctx, "u1", up.UserPlantID, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestCompleteReminder_NonRecurringIsTerminal(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 1)
	ctx := context.Background()
	r, err := e.reminders.CreateReminder(ctx, "u1", up.UserPlantID, CreateReminderRequest{
		Type: model.ReminderCustom, Title: "Check stakes", DueDate: testNow,
	})
	require.NoError(t, err)
	res, err := e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "")
	require.NoError(t, err)
	assert.Nil(t, res.Successor)

	plant, err := e.plants.GetPlant(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	_, touched := plant.Care[model.CareFertilizing]
	assert.False(t, touched)
	assert.Len(t, plant.CareHistory, 1)
}

func TestCompleteReminder_FailedWriteCanBeRetried(t *testing.T) {
	failures := &atomic.Int32{}
	failures.Store(1)
	e := newEnv(t, flakyCompletions{Store: memstore.New(), failures: failures}, nil)
	up := e.seedUser(t, "u1", 10)
	ctx := context.Background()
	r, err := e.reminders.CreateReminder(ctx, "u1", up.UserPlantID, CreateReminderRequest{
		Type: model.ReminderWatering, Title: "Water tomato", DueDate: testNow, IsRecurring: true, RecurringInterval: "weekly",
	})
	require.NoError(t, err)

	_, err = e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "soaked")
	require.Error(t, err)
	plant, err := e.plants.GetPlant(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	assert.Empty(t, plant.CareHistory)
	assert.Equal(t, testNow.AddDate(0, 0, -10), *plant.Care[model.CareWatering].LastPerformed)
	open, err := e.reminders.ListOpenReminders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, r.ReminderID, open[0].ReminderID)

	res, err := e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "soaked")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	require.NotNil(t, res.Successor)
	plant, err = e.plants.GetPlant(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	require.Len(t, plant.CareHistory, 1)
	assert.Equal(t, "soaked", plant.CareHistory[0].Notes)
	assert.Equal(t, testNow, *plant.Care[model.CareWatering].LastPerformed)
}

func TestCompleteReminder_NotFound(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 1)
	ctx := context.Background()
	_, err := e.reminders.CompleteReminder(ctx, "u1", "nope", "")
	assert.True(t, model.IsNotFoundError(err))

	r, err := e.reminders.CreateReminder(ctx, "u1", up.UserPlantID, CreateReminderRequest{Type: model.ReminderCustom, Title: "x", DueDate: testNow})
	require.NoError(t, err)
	_, err = e.reminders.CompleteReminder(ctx, "someone-else", r.ReminderID, "")
	assert.True(t, model.IsNotFoundError(err))
}

func TestCompleteReminder_ConcurrentCallsYieldOneSuccessor(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 1)
	ctx := context.Background()
	r, err := e.reminders.CreateReminder(ctx, "u1", up.UserPlantID, CreateReminderRequest{
		Type: model.ReminderWatering, Title: "Water", DueDate: testNow, IsRecurring: true, RecurringInterval: "daily",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.reminders.CompleteReminder(ctx, "u1", r.ReminderID, "")
			if err != nil {
				t.Errorf("complete: %v", err)
				return
			}
			if !res.AlreadyCompleted {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fresh)
	all, err := e.reminders.ListPlantReminders(ctx, "u1", up.UserPlantID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateReminder_Validation(t *testing.T) {
	e := newEnv(t, nil, nil)
	up := e.seedUser(t, "u1", 1)
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	cases := []struct {
		name  string
		req   CreateReminderRequest
		field string
	}{
		{"type", CreateReminderRequest{Type: "mist", Title: "x", DueDate: testNow}, "type"},
		{"title", CreateReminderRequest{Type: model.ReminderCustom, Title: "  ", DueDate: testNow}, "title"},
		{"title length", CreateReminderRequest{Type: model.ReminderCustom, Title: string(long), DueDate: testNow}, "title"},
		{"due date", CreateReminderRequest{Type: model.ReminderCustom, Title: "x"}, "dueDate"},
		{"interval", CreateReminderRequest{Type: model.ReminderCustom, Title: "x", DueDate: testNow, IsRecurring: true, RecurringInterval: "hourly"}, "recurringInterval"},
	}
	for _, tc := range cases {
		_, err := e.reminders.CreateReminder(context.Background(), "u1", up.UserPlantID, tc.req)
		var ve model.ValidationError
		require.ErrorAs(t, err, &ve, tc.name)
		assert.Equal(t, tc.field, ve.Field, tc.name)
	}

	_, err := e.reminders.CreateReminder(context.Background(), "u1", "missing", CreateReminderRequest{Type: model.ReminderCustom, Title: "x", DueDate: testNow})
	assert.True(t, model.IsNotFoundError(err))
}
