// Package memstore is an in-process store.Store used by tests and the "memory" driver.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leaflove/care-service/internal/core/ranking"
	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// Store keeps every record set in maps guarded by one RWMutex.
type Store struct {
	mu           sync.RWMutex
	users        map[string]model.User
	catalog      map[string]model.PlantCareProfile
	plants       map[string]model.UserPlant
	reminders    map[string]model.Reminder
	history      []model.CareEvent
	autoRecs     map[string]model.AutoRecommendation
	supervisor   map[string]model.Recommendation
	observations []model.Observation
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      map[string]model.User{},
		catalog:    map[string]model.PlantCareProfile{},
		plants:     map[string]model.UserPlant{},
		reminders:  map[string]model.Reminder{},
		autoRecs:   map[string]model.AutoRecommendation{},
		supervisor: map[string]model.Recommendation{},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Users() store.Users                             { return users{s} }
func (s *Store) Catalog() store.Catalog                         { return catalog{s} }
func (s *Store) UserPlants() store.UserPlants                   { return userPlants{s} }
func (s *Store) Reminders() store.Reminders                     { return reminders{s} }
func (s *Store) CareHistory() store.CareHistory                 { return careHistory{s} }
func (s *Store) AutoRecommendations() store.AutoRecommendations { return autoRecs{s} }
func (s *Store) Recommendations() store.Recommendations         { return supervisorRecs{s} }
func (s *Store) Observations() store.Observations               { return observations{s} }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error { return ctx.Err() }

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// --- Users ---
type users struct{ s *Store }

func (u users) Create(_ context.Context, m *model.User) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	out := *m
	out.UserID = newID(out.UserID)
	if _, ok := u.s.users[out.UserID]; ok {
		return nil, model.NewConflictError("userId", "user already exists")
	}
	u.s.users[out.UserID] = out
	return &out, nil
}

func (u users) Get(_ context.Context, userID string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	m, ok := u.s.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (u users) ListIDs(context.Context) ([]string, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return slices.Sorted(maps.Keys(u.s.users)), nil
}

// --- Catalog ---
type catalog struct{ s *Store }

func (c catalog) GetCareProfile(_ context.Context, plantID string) (*model.PlantCareProfile, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	p, ok := c.s.catalog[plantID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (c catalog) Put(_ context.Context, p *model.PlantCareProfile) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.catalog[p.PlantID] = *p
	return nil
}

// --- UserPlants ---
type userPlants struct{ s *Store }

func clonePlant(up model.UserPlant) model.UserPlant {
	up.Care = maps.Clone(up.Care)
	up.Reminders = nil
	up.CareHistory = nil
	return up
}

func (p userPlants) Create(_ context.Context, up *model.UserPlant) (*model.UserPlant, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	out := clonePlant(*up)
	out.UserPlantID = newID(out.UserPlantID)
	p.s.plants[out.UserPlantID] = out
	return &out, nil
}

func (p userPlants) Get(_ context.Context, userID, userPlantID string) (*model.UserPlant, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	up, ok := p.s.plants[userPlantID]
	if !ok || up.UserID != userID {
		return nil, model.ErrNotFound
	}
	out := clonePlant(up)
	return &out, nil
}

func (p userPlants) ListActiveForUser(_ context.Context, userID string) ([]*model.UserPlant, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	var out []*model.UserPlant
	for _, up := range p.s.plants {
		if up.UserID == userID && up.IsActive {
			c := clonePlant(up)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserPlantID < out[j].UserPlantID })
	return out, nil
}

func (p userPlants) Save(_ context.Context, up *model.UserPlant) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cur, ok := p.s.plants[up.UserPlantID]
	if !ok || cur.UserID != up.UserID {
		return model.ErrNotFound
	}
	p.s.plants[up.UserPlantID] = clonePlant(*up)
	return nil
}

// --- Reminders ---
type reminders struct{ s *Store }

func (r reminders) Create(_ context.Context, m *model.Reminder) (*model.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *m
	out.ReminderID = newID(out.ReminderID)
	r.s.reminders[out.ReminderID] = out
	return &out, nil
}

func (r reminders) Get(_ context.Context, userID, reminderID string) (*model.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.reminders[reminderID]
	if !ok || m.UserID != userID {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (r reminders) list(keep func(model.Reminder) bool) []model.Reminder {
	var out []model.Reminder
	for _, m := range r.s.reminders {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ReminderID < out[j].ReminderID
	})
	return out
}

func (r reminders) ListByUserPlant(_ context.Context, userPlantID string) ([]model.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(m model.Reminder) bool { return m.UserPlantID == userPlantID }), nil
}

func (r reminders) ListOpenForUser(_ context.Context, userID string) ([]model.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(m model.Reminder) bool { return m.UserID == userID && !m.IsCompleted }), nil
}

func (r reminders) Complete(_ context.Context, c store.Completion) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.reminders[c.ReminderID]
	if !ok {
		return false, model.ErrNotFound
	}
	if m.IsCompleted {
		return false, nil
	}
	if c.Plant != nil {
		cur, ok := r.s.plants[c.Plant.UserPlantID]
		if !ok || cur.UserID != c.Plant.UserID {
			return false, model.ErrNotFound
		}
	}
	at := c.CompletedAt
	m.IsCompleted = true
	m.CompletedDate = &at
	r.s.reminders[c.ReminderID] = m
	if c.Successor != nil {
		next := *c.Successor
		next.ReminderID = newID(next.ReminderID)
		r.s.reminders[next.ReminderID] = next
	}
	if c.Plant != nil {
		r.s.plants[c.Plant.UserPlantID] = clonePlant(*c.Plant)
	}
	if c.Event != nil {
		e := *c.Event
		e.EventID = newID(e.EventID)
		r.s.history = append(r.s.history, e)
	}
	return true, nil
}

// --- CareHistory ---
type careHistory struct{ s *Store }

func (h careHistory) Append(_ context.Context, ev *model.CareEvent) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	e := *ev
	e.EventID = newID(e.EventID)
	h.s.history = append(h.s.history, e)
	return nil
}

// List returns newest first.
func (h careHistory) List(_ context.Context, userPlantID string, limit int) ([]model.CareEvent, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	var out []model.CareEvent
	for i := len(h.s.history) - 1; i >= 0; i-- {
		if h.s.history[i].UserPlantID == userPlantID {
			out = append(out, h.s.history[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.After(out[j].PerformedAt) })
	return ranking.Top(out, limit), nil
}

// --- AutoRecommendations ---
type autoRecs struct{ s *Store }

func (a autoRecs) Create(_ context.Context, r *model.AutoRecommendation) (*model.AutoRecommendation, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := *r
	out.RecommendationID = newID(out.RecommendationID)
	a.s.autoRecs[out.RecommendationID] = out
	return &out, nil
}

func (a autoRecs) Get(_ context.Context, id string) (*model.AutoRecommendation, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	r, ok := a.s.autoRecs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

func (a autoRecs) FindByKey(_ context.Context, userID, userPlantID string, t model.RecommendationType, tag string, now time.Time) (*model.AutoRecommendation, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var best *model.AutoRecommendation
	for _, r := range a.s.autoRecs {
		if r.UserID != userID || r.UserPlantID != userPlantID || r.Type != t || r.Tag != tag {
			continue
		}
		if r.Status == model.StatusExpired || r.ScheduledFor.After(now) || !now.Before(r.ExpiresAt) {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			c := r
			best = &c
		}
	}
	if best == nil {
		return nil, model.ErrNotFound
	}
	return best, nil
}

func (a autoRecs) Refresh(_ context.Context, r *model.AutoRecommendation) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	cur, ok := a.s.autoRecs[r.RecommendationID]
	if !ok {
		return model.ErrNotFound
	}
	cur.Title = r.Title
	cur.Message = r.Message
	cur.Priority = r.Priority
	cur.DueDate = r.DueDate
	cur.ExpiresAt = r.ExpiresAt
	cur.WeatherData = r.WeatherData
	cur.UpdatedAt = r.UpdatedAt
	a.s.autoRecs[r.RecommendationID] = cur
	return nil
}

func (a autoRecs) Transition(_ context.Context, r *model.AutoRecommendation) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	cur, ok := a.s.autoRecs[r.RecommendationID]
	if !ok {
		return false, model.ErrNotFound
	}
	if cur.Status != model.StatusActive {
		return false, nil
	}
	cur.Status = r.Status
	cur.ActionTaken = r.ActionTaken
	cur.ActionDate = r.ActionDate
	cur.UserNotes = r.UserNotes
	cur.UpdatedAt = r.UpdatedAt
	a.s.autoRecs[r.RecommendationID] = cur
	return true, nil
}

func matches(r *model.AutoRecommendation, f model.AutoRecommendationFilter) bool {
	switch {
	case f.UserID != "" && r.UserID != f.UserID:
		return false
	case f.Type != "" && r.Type != f.Type:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.Priority != "" && r.Priority != f.Priority:
		return false
	case f.VisibleAt != nil && !r.Visible(*f.VisibleAt):
		return false
	case f.NotExpiredAt != nil && !f.NotExpiredAt.Before(r.ExpiresAt):
		return false
	}
	return true
}

func (a autoRecs) List(_ context.Context, f model.AutoRecommendationFilter) ([]*model.AutoRecommendation, int, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var hits []ranking.Stored
	for _, r := range a.s.autoRecs {
		c := r
		if matches(&c, f) {
			hits = append(hits, ranking.Stored{AutoRecommendation: &c})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].RecommendationID < hits[j].RecommendationID })
	ranking.Sort(hits)
	total := len(hits)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	out := make([]*model.AutoRecommendation, 0, end-start)
	for _, h := range hits[start:end] {
		out = append(out, h.AutoRecommendation)
	}
	return out, total, nil
}

func (a autoRecs) ExpireBefore(_ context.Context, now time.Time) (int, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	n := 0
	for id, r := range a.s.autoRecs {
		if r.Status == model.StatusActive && !now.Before(r.ExpiresAt) {
			r.Status = model.StatusExpired
			r.UpdatedAt = now
			a.s.autoRecs[id] = r
			n++
		}
	}
	return n, nil
}

// --- supervisor Recommendations ---
type supervisorRecs struct{ s *Store }

func (r supervisorRecs) Create(_ context.Context, m *model.Recommendation) (*model.Recommendation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := *m
	out.RecommendationID = newID(out.RecommendationID)
	r.s.supervisor[out.RecommendationID] = out
	return &out, nil
}

func (r supervisorRecs) Get(_ context.Context, id string) (*model.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.supervisor[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (r supervisorRecs) Update(_ context.Context, m *model.Recommendation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.supervisor[m.RecommendationID]; !ok {
		return model.ErrNotFound
	}
	r.s.supervisor[m.RecommendationID] = *m
	return nil
}

func (r supervisorRecs) ListForUser(_ context.Context, userID string) ([]*model.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Recommendation
	for _, m := range r.s.supervisor {
		if m.UserID == userID {
			c := m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Observations ---
type observations struct{ s *Store }

func (o observations) Create(_ context.Context, m *model.Observation) (*model.Observation, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	out := *m
	out.ObservationID = newID(out.ObservationID)
	o.s.observations = append(o.s.observations, out)
	return &out, nil
}

func (o observations) List(_ context.Context, owner model.OwnerRef) ([]model.Observation, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	var out []model.Observation
	for _, m := range o.s.observations {
		if m.Owner == owner {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	return out, nil
}
