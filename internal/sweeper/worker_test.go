package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store/memstore"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func seedRec(t *testing.T, st *memstore.Store, expires time.Time) string {
	t.Helper()
	r, err := st.AutoRecommendations().Create(context.Background(), &model.AutoRecommendation{
		UserID:       "u1",
		Type:         model.RecWatering,
		Tag:          "watering-due",
		Title:        "Water",
		Message:      "Water it",
		Priority:     model.PriorityMedium,
		Status:       model.StatusActive,
		DueDate:      now,
		ScheduledFor: now.Add(-time.Hour),
		ExpiresAt:    expires,
	})
	require.NoError(t, err)
	return r.RecommendationID
}

func TestProcessOnce_ExpiresOnlyStaleRows(t *testing.T) {
	st := memstore.New()
	stale := seedRec(t, st, now.Add(-time.Minute))
	fresh := seedRec(t, st, now.Add(time.Hour))

	w := NewWorker(st, clock.NewFixed(now), Config{}, zerolog.Nop())
	n, err := w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.AutoRecommendations().Get(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
	got, err = st.AutoRecommendations().Get(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)

	n, err = w.processOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRun_SweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	st := memstore.New()
	id := seedRec(t, st, now.Add(-time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(st, clock.NewFixed(now), Config{Interval: time.Hour}, zerolog.Nop()).Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := st.AutoRecommendations().Get(context.Background(), id)
		return err == nil && got.Status == model.StatusExpired
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop")
	}
}
