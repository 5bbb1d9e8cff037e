package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/keyedmutex"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
	"github.com/leaflove/care-service/internal/store/memstore"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type fakeWeather struct {
	snap  *model.WeatherSnapshot
	err   error
	calls atomic.Int32
}

func (f *fakeWeather) Current(_ context.Context, _ string) (*model.WeatherSnapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	s := *f.snap
	return &s, nil
}

func mildWeather() *fakeWeather {
	return &fakeWeather{snap: &model.WeatherSnapshot{Temperature: 20, Humidity: 55, WindSpeed: 5, Description: "clear sky", Timestamp: testNow}}
}

type env struct {
	store     store.Store
	clock     *clock.Fixed
	weather   *fakeWeather
	recs      *RecommendationService
	reminders *ReminderService
	sup       *SupervisorService
	obs       *ObservationService
	plants    *PlantService
}

func newEnv(t *testing.T, s store.Store, wp *fakeWeather) *env {
	t.Helper()
	if s == nil {
		s = memstore.New()
	}
	if wp == nil {
		wp = mildWeather()
	}
	clk := clock.NewFixed(testNow)
	locks := keyedmutex.New()
	log := zerolog.Nop()
	return &env{
		store:     s,
		clock:     clk,
		weather:   wp,
		recs:      NewRecommendationService(s, wp, clk, locks, log, Options{Concurrency: 2}),
		reminders: NewReminderService(s, clk, locks, log),
		sup:       NewSupervisorService(s, clk),
		obs:       NewObservationService(s, clk),
		plants:    NewPlantService(s, clk),
	}
}

// seedUser creates a user with one tomato plant watered daysAgo days before testNow.
func (e *env) seedUser(t *testing.T, userID string, daysAgo int) *model.UserPlant {
	t.Helper()
	ctx := context.Background()
	_, err := e.plants.CreateUser(ctx, &model.User{UserID: userID, Location: "Portland", Hemisphere: "north"})
	require.NoError(t, err)
	require.NoError(t, e.plants.PutCareProfile(ctx, &model.PlantCareProfile{
		PlantID:       "tomato",
		CommonName:    "Tomato",
		Watering:      model.CareItem{Frequency: "weekly", Instructions: "Water at the base."},
		Fertilizing:   model.CareItem{Frequency: "monthly", Instructions: "Feed with balanced fertilizer."},
		HarvestMonths: []int{8, 9},
	}))
	watered := testNow.AddDate(0, 0, -daysAgo)
	up, err := e.plants.AddPlant(ctx, &model.UserPlant{
		UserID:      userID,
		PlantID:     "tomato",
		CustomName:  "Balcony tomato",
		PlantedDate: testNow.AddDate(0, 0, -3),
		Care:        map[model.CareType]model.CareOverride{model.CareWatering: {LastPerformed: &watered}},
	})
	require.NoError(t, err)
	return up
}

// failingStore breaks ListActiveForUser for one user.
type failingStore struct {
	store.Store
	badUser string
}

func (f failingStore) UserPlants() store.UserPlants {
	return failingPlants{UserPlants: f.Store.UserPlants(), badUser: f.badUser}
}

type failingPlants struct {
	store.UserPlants
	badUser string
}

func (f failingPlants) ListActiveForUser(ctx context.Context, userID string) ([]*model.UserPlant, error) {
	if userID == f.badUser {
		return nil, model.PersistenceError{Op: "list plants", Err: errors.New("disk on fire")}
	}
	return f.UserPlants.ListActiveForUser(ctx, userID)
}

func storedRec(userID string, mut func(*model.AutoRecommendation)) *model.AutoRecommendation {
	r := &model.AutoRecommendation{
		UserID:       userID,
		Type:         model.RecGeneral,
		Tag:          "manual",
		Title:        "Check the trellis",
		Message:      "Tie in new growth.",
		Priority:     model.PriorityMedium,
		Status:       model.StatusActive,
		DueDate:      testNow,
		ScheduledFor: testNow.Add(-time.Hour),
		ExpiresAt:    testNow.Add(48 * time.Hour),
		CreatedAt:    testNow.Add(-time.Hour),
		UpdatedAt:    testNow.Add(-time.Hour),
	}
	if mut != nil {
		mut(r)
	}
	return r
}

// flakyCompletions fails the first n reminder completions without writing anything.
type flakyCompletions struct {
	store.Store
	failures *atomic.Int32
}

func (f flakyCompletions) Reminders() store.Reminders {
	return flakyReminders{Reminders: f.Store.Reminders(), failures: f.failures}
}

type flakyReminders struct {
	store.Reminders
	failures *atomic.Int32
}

func (f flakyReminders) Complete(ctx context.Context, c store.Completion) (bool, error) {
	if f.failures.Add(-1) >= 0 {
		return false, model.PersistenceError{Op: "reminders.complete", Err: errors.New("connection reset")}
	}
	return f.Reminders.Complete(ctx, c)
}
