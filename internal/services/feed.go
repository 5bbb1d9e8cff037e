package services

import (
	"context"
	"strings"
	"time"

	"github.com/leaflove/care-service/internal/core/ranking"
	"github.com/leaflove/care-service/internal/core/rules"
	"github.com/leaflove/care-service/internal/model"
)

// EvalOptions selects which evaluators contribute to a read-path result.
type EvalOptions struct {
	IncludeWeather  bool
	IncludeSeasonal bool
}

// FeedOptions configures BuildFeed. Page is 1-based.
type FeedOptions struct {
	EvalOptions
	Page  int
	Limit int
}

// FeedItem is a ranked entry of the merged feed: either a fresh candidate or a
// stored recommendation that is still visible.
type FeedItem struct {
	RecommendationID string                   `json:"recommendationId,omitempty"`
	Stored           bool                     `json:"stored"`
	Type             model.RecommendationType `json:"type"`
	Tag              string                   `json:"tag"`
	Title            string                   `json:"title"`
	Message          string                   `json:"message"`
	Priority         model.Priority           `json:"priority"`
	DueDate          time.Time                `json:"dueDate"`
	ExpiresAt        *time.Time               `json:"expiresAt,omitempty"`
	UserPlantID      string                   `json:"userPlantId,omitempty"`
	PlantID          string                   `json:"plantId,omitempty"`
	Source           rules.Source             `json:"source,omitempty"`
	Reminder         *rules.ReminderSpec      `json:"reminder,omitempty"`
	Weather          *model.WeatherSnapshot   `json:"weather,omitempty"`
}

func (f FeedItem) RankPriority() model.Priority { return f.Priority }
func (f FeedItem) RankDate() time.Time          { return f.DueDate }

// evaluation is the raw result of running every evaluator for one user.
type evaluation struct {
	user       *model.User
	candidates []rules.Candidate
}

// evaluate runs the care, weather and seasonal evaluators over the user's active
// plants. Weather failures degrade to the sentinel candidate and never error.
func (s *RecommendationService) evaluate(ctx context.Context, userID string, opts EvalOptions) (*evaluation, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		if !model.IsNotFoundError(err) {
			return nil, err
		}
		user = &model.User{UserID: userID}
	}
	plants, err := s.store.UserPlants().ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	snaps := map[string]*model.WeatherSnapshot{}
	var out []rules.Candidate
	for _, up := range plants {
		profile, err := s.store.Catalog().GetCareProfile(ctx, up.PlantID)
		if err != nil {
			if !model.IsNotFoundError(err) {
				return nil, err
			}
			s.log.Warn().Str("user_id", userID).Str("plant_id", up.PlantID).Msg("catalog entry missing; skipping care schedule")
		}
		out = append(out, rules.CareSchedule(profile, up, now)...)
		if opts.IncludeWeather {
			loc := firstNonEmpty(up.Location, user.Location, s.opts.DefaultLocation)
			snap, seen := snaps[locKey(loc)]
			if !seen {
				snap = s.currentWeather(ctx, loc)
				snaps[locKey(loc)] = snap
			}
			out = append(out, rules.Weather(profile, up, snap, now)...)
		}
	}
	if opts.IncludeSeasonal {
		out = append(out, rules.Seasonal(now, s.hemisphere(user))...)
		out = append(out, rules.Location(user.Location, now)...)
	}
	return &evaluation{user: user, candidates: dedupCandidates(out)}, nil
}

// currentWeather returns nil when the provider fails or times out.
func (s *RecommendationService) currentWeather(ctx context.Context, location string) *model.WeatherSnapshot {
	wctx, cancel := context.WithTimeout(ctx, s.opts.WeatherTimeout)
	defer cancel()
	snap, err := s.weather.Current(wctx, location)
	if err != nil {
		s.log.Warn().Err(err).Str("location", location).Msg("weather unavailable; using sentinel")
		return nil
	}
	return snap
}

func (s *RecommendationService) hemisphere(u *model.User) string {
	if u != nil && u.Hemisphere != "" {
		return u.Hemisphere
	}
	return s.opts.Hemisphere
}

// dedupCandidates keeps the first candidate for each key. The weather sentinel is
// produced once per plant but is not plant specific.
func dedupCandidates(cs []rules.Candidate) []rules.Candidate {
	seen := make(map[string]struct{}, len(cs))
	out := cs[:0]
	for _, c := range cs {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ListReminders returns the top ranked candidates for the user without persisting
// anything.
func (s *RecommendationService) ListReminders(ctx context.Context, userID string, opts EvalOptions) ([]rules.Candidate, error) {
	ev, err := s.evaluate(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	ranking.Sort(ev.candidates)
	out := ranking.Top(ev.candidates, reminderFeedLimit)
	if out == nil {
		out = []rules.Candidate{}
	}
	return out, nil
}

// BuildFeed evaluates the user's plants, merges the result with stored rows that
// are still visible, ranks everything and returns the requested page. A stored row
// wins over a fresh candidate with the same key because it can be acted on.
func (s *RecommendationService) BuildFeed(ctx context.Context, userID string, opts FeedOptions) ([]FeedItem, error) {
	ev, err := s.evaluate(ctx, userID, opts.EvalOptions)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	stored, _, err := s.store.AutoRecommendations().List(ctx, model.AutoRecommendationFilter{
		UserID:       userID,
		VisibleAt:    &now,
		NotExpiredAt: &now,
	})
	if err != nil {
		return nil, err
	}
	items := make([]FeedItem, 0, len(stored)+len(ev.candidates))
	keys := make(map[string]struct{}, len(stored))
	for _, r := range stored {
		keys[rules.DedupKey(r.UserPlantID, r.Type, r.Tag)] = struct{}{}
		items = append(items, storedItem(r))
	}
	for _, c := range ev.candidates {
		if _, dup := keys[c.Key()]; dup {
			continue
		}
		items = append(items, candidateItem(c))
	}
	ranking.Sort(items)
	page, limit := s.pageBounds(opts.Page, opts.Limit)
	return ranking.Page(items, page, limit), nil
}

func storedItem(r *model.AutoRecommendation) FeedItem {
	exp := r.ExpiresAt
	return FeedItem{
		RecommendationID: r.RecommendationID,
		Stored:           true,
		Type:             r.Type,
		Tag:              r.Tag,
		Title:            r.Title,
		Message:          r.Message,
		Priority:         r.Priority,
		DueDate:          r.SortDate(),
		ExpiresAt:        &exp,
		UserPlantID:      r.UserPlantID,
		PlantID:          r.PlantID,
		Weather:          r.WeatherData,
	}
}

func candidateItem(c rules.Candidate) FeedItem {
	return FeedItem{
		Type:        c.Type,
		Tag:         c.Tag,
		Title:       c.Title,
		Message:     c.Message,
		Priority:    c.Priority,
		DueDate:     c.DueDate,
		UserPlantID: c.UserPlantID,
		PlantID:     c.PlantID,
		Source:      c.Source,
		Reminder:    c.Reminder,
		Weather:     c.Weather,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func locKey(loc string) string { return strings.ToLower(strings.TrimSpace(loc)) }
