package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leaflove/care-service/internal/core/rules"
	"github.com/leaflove/care-service/internal/model"
)

// Visibility window length per recommendation type, measured from max(due, now).
var expiryTTL = map[model.RecommendationType]time.Duration{
	model.RecWatering:     3 * 24 * time.Hour,
	model.RecFertilizing:  7 * 24 * time.Hour,
	model.RecPruning:      14 * 24 * time.Hour,
	model.RecPestControl:  3 * 24 * time.Hour,
	model.RecWeatherAlert: 24 * time.Hour,
	model.RecSeasonalCare: 30 * 24 * time.Hour,
	model.RecHarvest:      14 * 24 * time.Hour,
	model.RecGeneral:      30 * 24 * time.Hour,
}

// ExpiryFor returns the expiry of a recommendation of type t due at due, generated at now.
func ExpiryFor(t model.RecommendationType, due, now time.Time) time.Time {
	ttl, ok := expiryTTL[t]
	if !ok {
		ttl = 7 * 24 * time.Hour
	}
	start := now
	if due.After(now) {
		start = due
	}
	return start.Add(ttl)
}

// GenerateResult reports what one Generate call wrote.
type GenerateResult struct {
	UserID     string `json:"userId"`
	Created    int    `json:"created"`
	Refreshed  int    `json:"refreshed"`
	Suppressed int    `json:"suppressed"`
	Reminders  int    `json:"reminders"`
}

// Persisted is the number of recommendation rows written.
func (r GenerateResult) Persisted() int { return r.Created + r.Refreshed }

type upsertOutcome int

const (
	upsertCreated upsertOutcome = iota
	upsertRefreshed
	upsertSuppressed
)

// Generate evaluates every rule for the user and persists the candidates. A
// visible row with the same (plant, type, tag) is refreshed in place instead of
// duplicated, and an acknowledged or dismissed row suppresses the candidate until
// it expires. Due care candidates also get an open reminder when the plant has none
// of that type. The weather sentinel is never persisted. Unknown users are NotFound.
func (s *RecommendationService) Generate(ctx context.Context, userID string) (*GenerateResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.NewNotFoundError("userId", "user "+userID+" not found")
		}
		return nil, err
	}
	ev, err := s.evaluate(ctx, userID, EvalOptions{IncludeWeather: true, IncludeSeasonal: true})
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	res := &GenerateResult{UserID: userID}
	for _, c := range ev.candidates {
		if c.Tag == rules.TagWeatherUnavailable {
			continue
		}
		outcome, err := s.upsert(ctx, userID, c, now)
		if err != nil {
			return res, err
		}
		switch outcome {
		case upsertCreated:
			res.Created++
		case upsertRefreshed:
			res.Refreshed++
		case upsertSuppressed:
			res.Suppressed++
		}
		if c.Reminder != nil && c.UserPlantID != "" {
			made, err := s.ensureReminder(ctx, userID, c, now)
			if err != nil {
				return res, err
			}
			if made {
				res.Reminders++
			}
		}
	}
	s.log.Info().Str("user_id", userID).Int("created", res.Created).Int("refreshed", res.Refreshed).Int("suppressed", res.Suppressed).Int("reminders", res.Reminders).Msg("recommendations generated")
	return res, nil
}

func (s *RecommendationService) upsert(ctx context.Context, userID string, c rules.Candidate, now time.Time) (upsertOutcome, error) {
	recs := s.store.AutoRecommendations()
	exp := ExpiryFor(c.Type, c.DueDate, now)
	cur, err := recs.FindByKey(ctx, userID, c.UserPlantID, c.Type, c.Tag, now)
	switch {
	case err == nil && cur.Status != model.StatusActive:
		return upsertSuppressed, nil
	case err == nil:
		cur.Title = c.Title
		cur.Message = c.Message
		cur.Priority = c.Priority
		cur.DueDate = c.DueDate
		cur.WeatherData = c.Weather
		if exp.After(cur.ExpiresAt) {
			cur.ExpiresAt = exp
		}
		cur.UpdatedAt = now
		return upsertRefreshed, recs.Refresh(ctx, cur)
	case !model.IsNotFoundError(err):
		return upsertCreated, err
	}
	rec := &model.AutoRecommendation{
		UserID:       userID,
		UserPlantID:  c.UserPlantID,
		PlantID:      c.PlantID,
		GardenID:     c.GardenID,
		Type:         c.Type,
		Tag:          c.Tag,
		Title:        c.Title,
		Message:      c.Message,
		Priority:     c.Priority,
		Status:       model.StatusActive,
		DueDate:      c.DueDate,
		ScheduledFor: now,
		ExpiresAt:    exp,
		WeatherData:  c.Weather,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if c.Reminder != nil && c.Reminder.IsRecurring {
		rec.IsRecurring = true
		rec.RecurringPattern = c.Reminder.RecurringInterval
	}
	_, err = recs.Create(ctx, rec)
	return upsertCreated, err
}

func (s *RecommendationService) ensureReminder(ctx context.Context, userID string, c rules.Candidate, now time.Time) (bool, error) {
	existing, err := s.store.Reminders().ListByUserPlant(ctx, c.UserPlantID)
	if err != nil {
		return false, err
	}
	for _, r := range existing {
		if r.Type != c.Reminder.Type {
			continue
		}
		if !r.IsCompleted {
			return false, nil
		}
		if ws := c.Reminder.WindowStart; ws != nil && r.CompletedDate != nil && !r.CompletedDate.Before(*ws) {
			return false, nil
		}
	}
	_, err = s.store.Reminders().Create(ctx, &model.Reminder{
		UserPlantID:       c.UserPlantID,
		UserID:            userID,
		Type:              c.Reminder.Type,
		Title:             c.Title,
		Description:       c.Message,
		DueDate:           c.DueDate,
		IsRecurring:       c.Reminder.IsRecurring,
		RecurringInterval: c.Reminder.RecurringInterval,
		CreatedAt:         now,
	})
	return err == nil, err
}

// BatchResult is the outcome of GenerateAll, keyed by user id.
type BatchResult struct {
	Results map[string]*GenerateResult `json:"results"`
	Errors  map[string]string          `json:"errors"`
}

// GenerateAll runs Generate for every user with bounded parallelism. A failure for
// one user is recorded and does not stop the others; only listing users or a
// cancelled context fails the batch.
func (s *RecommendationService) GenerateAll(ctx context.Context) (*BatchResult, error) {
	ids, err := s.store.Users().ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := &BatchResult{Results: map[string]*GenerateResult{}, Errors: map[string]string{}}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Generate(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Error().Stack().Err(err).Str("user_id", id).Msg("generate failed for user")
				out.Errors[id] = err.Error()
				return nil
			}
			out.Results[id] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	s.log.Info().Int("users", len(ids)).Int("failed", len(out.Errors)).Msg("batch generation finished")
	return out, nil
}
