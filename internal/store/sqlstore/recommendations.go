package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// --- AutoRecommendations ---
type autoRecs struct{ s *Store }

const autoRecCols = `recommendation_id, user_id, user_plant_id, plant_id, garden_id, type, tag, title, message,
        priority, status, due_at, scheduled_for, expires_at, weather, is_recurring, recurring_pattern,
        action_taken, action_at, user_notes, created_at, updated_at`

func scanAutoRec(sc interface{ Scan(...any) error }) (*model.AutoRecommendation, error) {
	var r model.AutoRecommendation
	var due, sched, exp, action, created, updated sql.NullInt64
	var weather sql.NullString
	if err := sc.Scan(&r.RecommendationID, &r.UserID, &r.UserPlantID, &r.PlantID, &r.GardenID, &r.Type, &r.Tag,
		&r.Title, &r.Message, &r.Priority, &r.Status, &due, &sched, &exp, &weather, &r.IsRecurring,
		&r.RecurringPattern, &r.ActionTaken, &action, &r.UserNotes, &created, &updated); err != nil {
		return nil, err
	}
	r.DueDate = fromMillis(due)
	r.ScheduledFor = fromMillis(sched)
	r.ExpiresAt = fromMillis(exp)
	r.ActionDate = fromMillisPtr(action)
	r.CreatedAt = fromMillis(created)
	r.UpdatedAt = fromMillis(updated)
	if weather.Valid && weather.String != "" {
		var snap model.WeatherSnapshot
		if err := json.Unmarshal([]byte(weather.String), &snap); err != nil {
			return nil, err
		}
		r.WeatherData = &snap
	}
	return &r, nil
}

func encodeWeather(w *model.WeatherSnapshot) (sql.NullString, error) {
	if w == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func (a *autoRecs) Create(ctx context.Context, r *model.AutoRecommendation) (*model.AutoRecommendation, error) {
	out := *r
	out.RecommendationID = newID(out.RecommendationID)
	weather, err := encodeWeather(out.WeatherData)
	if err != nil {
		return nil, fail("auto_recs.encode", err)
	}
	_, err = a.s.exec(ctx, `
        INSERT INTO auto_recommendations (`+autoRecCols+`, priority_rank, sort_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, out.RecommendationID, out.UserID, out.UserPlantID, out.PlantID, out.GardenID, string(out.Type), out.Tag,
		out.Title, out.Message, string(out.Priority), string(out.Status), millis(out.DueDate), millis(out.ScheduledFor),
		millis(out.ExpiresAt), weather, out.IsRecurring, out.RecurringPattern, out.ActionTaken, millisPtr(out.ActionDate),
		out.UserNotes, millis(out.CreatedAt), millis(out.UpdatedAt), out.Priority.Rank(), millis(out.SortDate()))
	if err != nil {
		return nil, fail("auto_recs.create", err)
	}
	return &out, nil
}

func (a *autoRecs) Get(ctx context.Context, id string) (*model.AutoRecommendation, error) {
	r, err := scanAutoRec(a.s.queryRow(ctx, `SELECT `+autoRecCols+` FROM auto_recommendations WHERE recommendation_id=?`, id))
	if err != nil {
		return nil, fail("auto_recs.get", err)
	}
	return r, nil
}

func (a *autoRecs) FindByKey(ctx context.Context, userID, userPlantID string, t model.RecommendationType, tag string, now time.Time) (*model.AutoRecommendation, error) {
	at := now.UnixMilli()
	r, err := scanAutoRec(a.s.queryRow(ctx, `
        SELECT `+autoRecCols+` FROM auto_recommendations
        WHERE user_id=? AND user_plant_id=? AND type=? AND tag=? AND status<>?
          AND (scheduled_for IS NULL OR scheduled_for<=?) AND expires_at>?
        ORDER BY created_at DESC LIMIT 1
    `, userID, userPlantID, string(t), tag, string(model.StatusExpired), at, at))
	if err != nil {
		return nil, fail("auto_recs.find", err)
	}
	return r, nil
}

func (a *autoRecs) Refresh(ctx context.Context, r *model.AutoRecommendation) error {
	weather, err := encodeWeather(r.WeatherData)
	if err != nil {
		return fail("auto_recs.encode", err)
	}
	res, err := a.s.exec(ctx, `
        UPDATE auto_recommendations
        SET title=?, message=?, priority=?, priority_rank=?, due_at=?, expires_at=?, sort_at=?, weather=?, updated_at=?
        WHERE recommendation_id=?
    `, r.Title, r.Message, string(r.Priority), r.Priority.Rank(), millis(r.DueDate), millis(r.ExpiresAt),
		millis(r.SortDate()), weather, millis(r.UpdatedAt), r.RecommendationID)
	if err != nil {
		return fail("auto_recs.refresh", err)
	}
	if n, err := affected(res); err != nil {
		return fail("auto_recs.refresh", err)
	} else if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (a *autoRecs) Transition(ctx context.Context, r *model.AutoRecommendation) (bool, error) {
	res, err := a.s.exec(ctx, `
        UPDATE auto_recommendations
        SET status=?, action_taken=?, action_at=?, user_notes=?, updated_at=?
        WHERE recommendation_id=? AND status=?
    `, string(r.Status), r.ActionTaken, millisPtr(r.ActionDate), r.UserNotes, millis(r.UpdatedAt),
		r.RecommendationID, string(model.StatusActive))
	if err != nil {
		return false, fail("auto_recs.transition", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fail("auto_recs.transition", err)
	}
	if n == 0 {
		if _, err := a.Get(ctx, r.RecommendationID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func autoRecWhere(f model.AutoRecommendationFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(c string, v ...any) {
		conds = append(conds, c)
		args = append(args, v...)
	}
	if f.UserID != "" {
		add("user_id=?", f.UserID)
	}
	if f.Type != "" {
		add("type=?", string(f.Type))
	}
	if f.Status != "" {
		add("status=?", string(f.Status))
	}
	if f.Priority != "" {
		add("priority=?", string(f.Priority))
	}
	if f.VisibleAt != nil {
		at := f.VisibleAt.UnixMilli()
		add("status=? AND (scheduled_for IS NULL OR scheduled_for<=?) AND expires_at>?", string(model.StatusActive), at, at)
	}
	if f.NotExpiredAt != nil {
		add("expires_at>?", f.NotExpiredAt.UnixMilli())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (a *autoRecs) List(ctx context.Context, f model.AutoRecommendationFilter) ([]*model.AutoRecommendation, int, error) {
	where, args := autoRecWhere(f)
	var total int
	if err := a.s.queryRow(ctx, `SELECT COUNT(*) FROM auto_recommendations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fail("auto_recs.count", err)
	}
	q := `SELECT ` + autoRecCols + ` FROM auto_recommendations` + where +
		` ORDER BY priority_rank DESC, sort_at ASC, recommendation_id ASC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, max(f.Offset, 0))
	}
	rows, err := a.s.query(ctx, q, args...)
	if err != nil {
		return nil, 0, fail("auto_recs.list", err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.AutoRecommendation
	for rows.Next() {
		r, err := scanAutoRec(rows)
		if err != nil {
			return nil, 0, fail("auto_recs.list", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fail("auto_recs.list", err)
	}
	return out, total, nil
}

func (a *autoRecs) ExpireBefore(ctx context.Context, now time.Time) (int, error) {
	res, err := a.s.exec(ctx, `
        UPDATE auto_recommendations SET status=?, updated_at=? WHERE status=? AND expires_at<=?
    `, string(model.StatusExpired), now.UnixMilli(), string(model.StatusActive), now.UnixMilli())
	if err != nil {
		return 0, fail("auto_recs.expire", err)
	}
	n, err := affected(res)
	return n, fail("auto_recs.expire", err)
}

// --- supervisor Recommendations ---
type supervisorRecs struct{ s *Store }

const supervisorCols = `recommendation_id, supervisor_id, user_id, user_plant_id, type, title, message, priority,
        status, user_response, follow_up_at, responded_at, created_at, updated_at`

func scanSupervisor(sc interface{ Scan(...any) error }) (*model.Recommendation, error) {
	var r model.Recommendation
	var follow, responded, created, updated sql.NullInt64
	if err := sc.Scan(&r.RecommendationID, &r.SupervisorID, &r.UserID, &r.UserPlantID, &r.Type, &r.Title, &r.Message,
		&r.Priority, &r.Status, &r.UserResponse, &follow, &responded, &created, &updated); err != nil {
		return nil, err
	}
	r.FollowUp = fromMillisPtr(follow)
	r.RespondedAt = fromMillisPtr(responded)
	r.CreatedAt = fromMillis(created)
	r.UpdatedAt = fromMillis(updated)
	return &r, nil
}

func (r *supervisorRecs) Create(ctx context.Context, m *model.Recommendation) (*model.Recommendation, error) {
	out := *m
	out.RecommendationID = newID(out.RecommendationID)
	_, err := r.s.exec(ctx, `
        INSERT INTO supervisor_recommendations (`+supervisorCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, out.RecommendationID, out.SupervisorID, out.UserID, out.UserPlantID, out.Type, out.Title, out.Message,
		string(out.Priority), string(out.Status), out.UserResponse, millisPtr(out.FollowUp), millisPtr(out.RespondedAt),
		millis(out.CreatedAt), millis(out.UpdatedAt))
	if err != nil {
		return nil, fail("supervisor_recs.create", err)
	}
	return &out, nil
}

func (r *supervisorRecs) Get(ctx context.Context, id string) (*model.Recommendation, error) {
	m, err := scanSupervisor(r.s.queryRow(ctx, `SELECT `+supervisorCols+` FROM supervisor_recommendations WHERE recommendation_id=?`, id))
	if err != nil {
		return nil, fail("supervisor_recs.get", err)
	}
	return m, nil
}

func (r *supervisorRecs) Update(ctx context.Context, m *model.Recommendation) error {
	res, err := r.s.exec(ctx, `
        UPDATE supervisor_recommendations
        SET status=?, user_response=?, follow_up_at=?, responded_at=?, updated_at=?
        WHERE recommendation_id=?
    `, string(m.Status), m.UserResponse, millisPtr(m.FollowUp), millisPtr(m.RespondedAt), millis(m.UpdatedAt), m.RecommendationID)
	if err != nil {
		return fail("supervisor_recs.update", err)
	}
	if n, err := affected(res); err != nil {
		return fail("supervisor_recs.update", err)
	} else if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *supervisorRecs) ListForUser(ctx context.Context, userID string) ([]*model.Recommendation, error) {
	rows, err := r.s.query(ctx, `
        SELECT `+supervisorCols+` FROM supervisor_recommendations WHERE user_id=? ORDER BY created_at DESC, recommendation_id
    `, userID)
	if err != nil {
		return nil, fail("supervisor_recs.list", err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Recommendation
	for rows.Next() {
		m, err := scanSupervisor(rows)
		if err != nil {
			return nil, fail("supervisor_recs.list", err)
		}
		out = append(out, m)
	}
	return out, fail("supervisor_recs.list", rows.Err())
}

// --- Observations ---
type observations struct{ s *Store }

func (o *observations) Create(ctx context.Context, m *model.Observation) (*model.Observation, error) {
	out := *m
	out.ObservationID = newID(out.ObservationID)
	_, err := o.s.exec(ctx, `
        INSERT INTO observations (observation_id, user_id, owner_kind, owner_id, plant_ref, note, health, observed_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, out.ObservationID, out.UserID, string(out.Owner.Kind), out.Owner.OwnerID, out.Owner.PlantRef, out.Note,
		out.Health, millis(out.ObservedAt))
	if err != nil {
		return nil, fail("observations.create", err)
	}
	return &out, nil
}

func (o *observations) List(ctx context.Context, owner model.OwnerRef) ([]model.Observation, error) {
	rows, err := o.s.query(ctx, `
        SELECT observation_id, user_id, owner_kind, owner_id, plant_ref, note, health, observed_at
        FROM observations WHERE owner_kind=? AND owner_id=? AND plant_ref=?
        ORDER BY observed_at DESC, observation_id
    `, string(owner.Kind), owner.OwnerID, owner.PlantRef)
	if err != nil {
		return nil, fail("observations.list", err)
	}
	defer func() { _ = rows.Close() }()
	var out []model.Observation
	for rows.Next() {
		var m model.Observation
		var at sql.NullInt64
		if err := rows.Scan(&m.ObservationID, &m.UserID, &m.Owner.Kind, &m.Owner.OwnerID, &m.Owner.PlantRef,
			&m.Note, &m.Health, &at); err != nil {
			return nil, fail("observations.list", err)
		}
		m.ObservedAt = fromMillis(at)
		out = append(out, m)
	}
	return out, fail("observations.list", rows.Err())
}
