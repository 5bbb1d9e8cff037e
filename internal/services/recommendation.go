package services

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/core/lifecycle"
	"github.com/leaflove/care-service/internal/core/ranking"
	"github.com/leaflove/care-service/internal/keyedmutex"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
	"github.com/leaflove/care-service/internal/weather"
)

// Options tunes the RecommendationService.
type Options struct {
	// Hemisphere is used for users that do not carry their own.
	Hemisphere string
	// DefaultLocation is the weather query for plants and users without a location.
	DefaultLocation string
	// FeedLimit is the page size when the caller does not pass one.
	FeedLimit int
	// Concurrency bounds GenerateAll.
	Concurrency int
	// WeatherTimeout bounds each weather lookup.
	WeatherTimeout time.Duration
}

const (
	maxFeedLimit      = 100
	reminderFeedLimit = 20
	dashboardRecent   = 5
	expiringSoon      = 24 * time.Hour
)

// RecommendationService evaluates care rules for a user's plants and manages the
// persisted AutoRecommendations.
type RecommendationService struct {
	store   store.Store
	weather weather.Provider
	clock   clock.Clock
	locks   *keyedmutex.Map
	log     zerolog.Logger
	opts    Options
}

// NewRecommendationService wires the service. locks serialises per-user writes and
// should be shared with the ReminderService.
func NewRecommendationService(s store.Store, wp weather.Provider, clk clock.Clock, locks *keyedmutex.Map, log zerolog.Logger, opts Options) *RecommendationService {
	if wp == nil {
		wp = weather.Unavailable{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	if locks == nil {
		locks = keyedmutex.New()
	}
	if opts.Hemisphere == "" {
		opts.Hemisphere = "north"
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = 20
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.WeatherTimeout <= 0 {
		opts.WeatherTimeout = 5 * time.Second
	}
	return &RecommendationService{store: s, weather: wp, clock: clk, locks: locks, log: log, opts: opts}
}

// ListFeedRequest filters the stored recommendation feed. Page is 1-based.
type ListFeedRequest struct {
	Type     model.RecommendationType
	Status   model.RecommendationStatus
	Priority model.Priority
	Page     int
	Limit    int
}

// FeedPage is one page of stored recommendations.
type FeedPage struct {
	Items []*model.AutoRecommendation `json:"items"`
	Total int                         `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}

// ListFeed returns the user's stored recommendations. Without an explicit status
// only visible rows are returned; expired rows are never returned.
func (s *RecommendationService) ListFeed(ctx context.Context, userID string, req ListFeedRequest) (*FeedPage, error) {
	if err := validateFeedRequest(req); err != nil {
		return nil, err
	}
	page, limit := s.pageBounds(req.Page, req.Limit)
	now := s.clock.Now()
	f := model.AutoRecommendationFilter{
		UserID:       userID,
		Type:         req.Type,
		Status:       req.Status,
		Priority:     req.Priority,
		NotExpiredAt: &now,
		Offset:       (page - 1) * limit,
		Limit:        limit,
	}
	if req.Status == "" {
		f.VisibleAt = &now
	}
	items, total, err := s.store.AutoRecommendations().List(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.AutoRecommendation{}
	}
	return &FeedPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func validateFeedRequest(req ListFeedRequest) error {
	if req.Type != "" && !validRecType(req.Type) {
		return model.NewValidationError("type", "unknown recommendation type "+string(req.Type))
	}
	switch req.Status {
	case "", model.StatusActive, model.StatusAcknowledged, model.StatusDismissed, model.StatusExpired:
	default:
		return model.NewValidationError("status", "unknown status "+string(req.Status))
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return model.NewValidationError("priority", "unknown priority "+string(req.Priority))
	}
	if req.Page < 0 || req.Limit < 0 {
		return model.NewValidationError("page", "page and limit must not be negative")
	}
	return nil
}

func validRecType(t model.RecommendationType) bool {
	for _, k := range model.RecommendationTypes {
		if k == t {
			return true
		}
	}
	return false
}

func (s *RecommendationService) pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.opts.FeedLimit
	}
	limit = min(limit, maxFeedLimit)
	// keeps (page-1)*limit from overflowing
	return min(page, math.MaxInt/limit), limit
}

// DashboardSummary aggregates the user's visible recommendations.
type DashboardSummary struct {
	Total             int                              `json:"total"`
	ByType            map[model.RecommendationType]int `json:"byType"`
	ByPriority        map[model.Priority]int           `json:"byPriority"`
	UrgentCount       int                              `json:"urgentCount"`
	ExpiringSoonCount int                              `json:"expiringSoonCount"`
	RecentTop5        []*model.AutoRecommendation      `json:"recentTop5"`
}

// DashboardSummary counts visible rows by type and priority. RecentTop5 is ordered
// by urgency score, then by the regular ranking.
func (s *RecommendationService) DashboardSummary(ctx context.Context, userID string) (*DashboardSummary, error) {
	now := s.clock.Now()
	rows, _, err := s.store.AutoRecommendations().List(ctx, model.AutoRecommendationFilter{
		UserID:       userID,
		VisibleAt:    &now,
		NotExpiredAt: &now,
	})
	if err != nil {
		return nil, err
	}
	sum := &DashboardSummary{
		Total:      len(rows),
		ByType:     map[model.RecommendationType]int{},
		ByPriority: map[model.Priority]int{},
	}
	items := make([]ranking.Stored, 0, len(rows))
	for _, r := range rows {
		sum.ByType[r.Type]++
		sum.ByPriority[r.Priority]++
		if r.Priority == model.PriorityUrgent {
			sum.UrgentCount++
		}
		if r.ExpiresAt.Sub(now) <= expiringSoon {
			sum.ExpiringSoonCount++
		}
		items = append(items, ranking.Stored{AutoRecommendation: r})
	}
	ranking.SortByUrgency(items, now)
	sum.RecentTop5 = make([]*model.AutoRecommendation, 0, dashboardRecent)
	for _, it := range ranking.Top(items, dashboardRecent) {
		sum.RecentTop5 = append(sum.RecentTop5, it.AutoRecommendation)
	}
	return sum, nil
}

// Acknowledge marks a recommendation acknowledged on behalf of its owner.
func (s *RecommendationService) Acknowledge(ctx context.Context, userID, recommendationID, notes string) (*model.AutoRecommendation, error) {
	return s.transition(ctx, userID, recommendationID, lifecycle.Acknowledge, notes)
}

// Dismiss marks a recommendation dismissed on behalf of its owner.
func (s *RecommendationService) Dismiss(ctx context.Context, userID, recommendationID, notes string) (*model.AutoRecommendation, error) {
	return s.transition(ctx, userID, recommendationID, lifecycle.Dismiss, notes)
}

func (s *RecommendationService) transition(ctx context.Context, userID, id string, action lifecycle.Action, notes string) (*model.AutoRecommendation, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.store.AutoRecommendations().Get(ctx, id)
	if err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.NewNotFoundError("recommendationId", "recommendation not found")
		}
		return nil, err
	}
	changed, err := lifecycle.Apply(rec, userID, action, notes, s.clock.Now())
	if err != nil || !changed {
		return rec, err
	}
	ok, err := s.store.AutoRecommendations().Transition(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another writer moved the row first; report against what is stored now.
		cur, gerr := s.store.AutoRecommendations().Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if _, cerr := lifecycle.Apply(cur, userID, action, notes, s.clock.Now()); cerr != nil {
			return nil, cerr
		}
		return cur, nil
	}
	s.log.Debug().Str("user_id", userID).Str("recommendation_id", id).Str("status", string(rec.Status)).Msg("recommendation transitioned")
	return rec, nil
}
