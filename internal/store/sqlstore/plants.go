package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/leaflove/care-service/internal/model"
	"github.com/leaflove/care-service/internal/store"
)

// --- Users ---
type users struct{ s *Store }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	out.UserID = newID(out.UserID)
	_, err := u.s.exec(ctx, `
        INSERT INTO users (user_id, location, hemisphere, created_at) VALUES (?,?,?,?)
    `, out.UserID, out.Location, out.Hemisphere, millis(out.CreatedAt))
	if err != nil {
		return nil, fail("users.create", err)
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	var created sql.NullInt64
	row := u.s.queryRow(ctx, `SELECT user_id, location, hemisphere, created_at FROM users WHERE user_id=?`, userID)
	if err := row.Scan(&out.UserID, &out.Location, &out.Hemisphere, &created); err != nil {
		return nil, fail("users.get", err)
	}
	out.CreatedAt = fromMillis(created)
	return &out, nil
}

func (u *users) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := u.s.query(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fail("users.list", err)
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fail("users.list", err)
		}
		ids = append(ids, id)
	}
	return ids, fail("users.list", rows.Err())
}

// --- Catalog ---
type catalog struct{ s *Store }

func (c *catalog) GetCareProfile(ctx context.Context, plantID string) (*model.PlantCareProfile, error) {
	var raw string
	if err := c.s.queryRow(ctx, `SELECT profile FROM plant_catalog WHERE plant_id=?`, plantID).Scan(&raw); err != nil {
		return nil, fail("catalog.get", err)
	}
	var p model.PlantCareProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fail("catalog.decode", err)
	}
	return &p, nil
}

func (c *catalog) Put(ctx context.Context, p *model.PlantCareProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fail("catalog.encode", err)
	}
	_, err = c.s.exec(ctx, `
        INSERT INTO plant_catalog (plant_id, profile) VALUES (?,?)
        ON CONFLICT (plant_id) DO UPDATE SET profile=excluded.profile
    `, p.PlantID, string(raw))
	return fail("catalog.put", err)
}

// --- UserPlants ---
type userPlants struct{ s *Store }

const userPlantCols = `user_plant_id, user_id, plant_id, garden_id, custom_name, location, planted_at, is_active, care, created_at`

func scanUserPlant(sc interface{ Scan(...any) error }) (*model.UserPlant, error) {
	var up model.UserPlant
	var planted, created sql.NullInt64
	var care string
	if err := sc.Scan(&up.UserPlantID, &up.UserID, &up.PlantID, &up.GardenID, &up.CustomName, &up.Location,
		&planted, &up.IsActive, &care, &created); err != nil {
		return nil, err
	}
	up.PlantedDate = fromMillis(planted)
	up.CreatedAt = fromMillis(created)
	if care != "" && care != "{}" {
		if err := json.Unmarshal([]byte(care), &up.Care); err != nil {
			return nil, errors.Wrap(err, "decode care overrides")
		}
	}
	return &up, nil
}

func encodeCare(up *model.UserPlant) (string, error) {
	if len(up.Care) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(up.Care)
	return string(raw), err
}

func (p *userPlants) Create(ctx context.Context, up *model.UserPlant) (*model.UserPlant, error) {
	out := *up
	out.UserPlantID = newID(out.UserPlantID)
	out.Reminders, out.CareHistory = nil, nil
	care, err := encodeCare(&out)
	if err != nil {
		return nil, fail("user_plants.encode", err)
	}
	_, err = p.s.exec(ctx, `
        INSERT INTO user_plants (`+userPlantCols+`) VALUES (?,?,?,?,?,?,?,?,?,?)
    `, out.UserPlantID, out.UserID, out.PlantID, out.GardenID, out.CustomName, out.Location,
		millis(out.PlantedDate), out.IsActive, care, millis(out.CreatedAt))
	if err != nil {
		return nil, fail("user_plants.create", err)
	}
	return &out, nil
}

func (p *userPlants) Get(ctx context.Context, userID, userPlantID string) (*model.UserPlant, error) {
	row := p.s.queryRow(ctx, `SELECT `+userPlantCols+` FROM user_plants WHERE user_id=? AND user_plant_id=?`, userID, userPlantID)
	up, err := scanUserPlant(row)
	if err != nil {
		return nil, fail("user_plants.get", err)
	}
	return up, nil
}

func (p *userPlants) ListActiveForUser(ctx context.Context, userID string) ([]*model.UserPlant, error) {
	rows, err := p.s.query(ctx, `
        SELECT `+userPlantCols+` FROM user_plants
        WHERE user_id=? AND is_active=? ORDER BY user_plant_id
    `, userID, true)
	if err != nil {
		return nil, fail("user_plants.list", err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.UserPlant
	for rows.Next() {
		up, err := scanUserPlant(rows)
		if err != nil {
			return nil, fail("user_plants.list", err)
		}
		out = append(out, up)
	}
	return out, fail("user_plants.list", rows.Err())
}

const updatePlant = `
        UPDATE user_plants SET garden_id=?, custom_name=?, location=?, planted_at=?, is_active=?, care=?
        WHERE user_id=? AND user_plant_id=?
    `

func plantArgs(up *model.UserPlant) ([]any, error) {
	care, err := encodeCare(up)
	if err != nil {
		return nil, err
	}
	return []any{up.GardenID, up.CustomName, up.Location, millis(up.PlantedDate), up.IsActive, care, up.UserID, up.UserPlantID}, nil
}

func (p *userPlants) Save(ctx context.Context, up *model.UserPlant) error {
	args, err := plantArgs(up)
	if err != nil {
		return fail("user_plants.encode", err)
	}
	res, err := p.s.exec(ctx, updatePlant, args...)
	if err != nil {
		return fail("user_plants.save", err)
	}
	if n, err := affected(res); err != nil {
		return fail("user_plants.save", err)
	} else if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Reminders ---
type reminders struct{ s *Store }

const reminderCols = `reminder_id, user_plant_id, user_id, type, title, description, due_at, is_completed, completed_at, is_recurring, recurring_interval, previous_id, created_at`

func scanReminder(sc interface{ Scan(...any) error }) (model.Reminder, error) {
	var r model.Reminder
	var due, completed, created sql.NullInt64
	err := sc.Scan(&r.ReminderID, &r.UserPlantID, &r.UserID, &r.Type, &r.Title, &r.Description,
		&due, &r.IsCompleted, &completed, &r.IsRecurring, &r.RecurringInterval, &r.PreviousID, &created)
	r.DueDate = fromMillis(due)
	r.CompletedDate = fromMillisPtr(completed)
	r.CreatedAt = fromMillis(created)
	return r, err
}

func reminderArgs(r *model.Reminder) []any {
	return []any{r.ReminderID, r.UserPlantID, r.UserID, string(r.Type), r.Title, r.Description,
		millis(r.DueDate), r.IsCompleted, millisPtr(r.CompletedDate), r.IsRecurring, r.RecurringInterval,
		r.PreviousID, millis(r.CreatedAt)}
}

const insertReminder = `INSERT INTO reminders (` + reminderCols + `) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`

func (r *reminders) Create(ctx context.Context, m *model.Reminder) (*model.Reminder, error) {
	out := *m
	out.ReminderID = newID(out.ReminderID)
	if _, err := r.s.exec(ctx, insertReminder, reminderArgs(&out)...); err != nil {
		return nil, fail("reminders.create", err)
	}
	return &out, nil
}

func (r *reminders) Get(ctx context.Context, userID, reminderID string) (*model.Reminder, error) {
	row := r.s.queryRow(ctx, `SELECT `+reminderCols+` FROM reminders WHERE user_id=? AND reminder_id=?`, userID, reminderID)
	m, err := scanReminder(row)
	if err != nil {
		return nil, fail("reminders.get", err)
	}
	return &m, nil
}

func (r *reminders) list(ctx context.Context, op, where string, args ...any) ([]model.Reminder, error) {
	rows, err := r.s.query(ctx, `SELECT `+reminderCols+` FROM reminders WHERE `+where+` ORDER BY due_at, reminder_id`, args...)
	if err != nil {
		return nil, fail(op, err)
	}
	defer func() { _ = rows.Close() }()
	var out []model.Reminder
	for rows.Next() {
		m, err := scanReminder(rows)
		if err != nil {
			return nil, fail(op, err)
		}
		out = append(out, m)
	}
	return out, fail(op, rows.Err())
}

func (r *reminders) ListByUserPlant(ctx context.Context, userPlantID string) ([]model.Reminder, error) {
	return r.list(ctx, "reminders.list_plant", `user_plant_id=?`, userPlantID)
}

func (r *reminders) ListOpenForUser(ctx context.Context, userID string) ([]model.Reminder, error) {
	return r.list(ctx, "reminders.list_open", `user_id=? AND is_completed=?`, userID, false)
}

func (r *reminders) Complete(ctx context.Context, c store.Completion) (bool, error) {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fail("reminders.complete", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, r.s.rebind(`
        UPDATE reminders SET is_completed=?, completed_at=? WHERE reminder_id=? AND is_completed=?
    `), true, millis(c.CompletedAt), c.ReminderID, false)
	if err != nil {
		return false, fail("reminders.complete", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fail("reminders.complete", err)
	}
	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, r.s.rebind(`SELECT 1 FROM reminders WHERE reminder_id=?`), c.ReminderID).Scan(&one)
		if err != nil {
			return false, fail("reminders.complete", err)
		}
		return false, nil
	}
	if c.Successor != nil {
		next := *c.Successor
		next.ReminderID = newID(next.ReminderID)
		if _, err := tx.ExecContext(ctx, r.s.rebind(insertReminder), reminderArgs(&next)...); err != nil {
			return false, fail("reminders.successor", err)
		}
	}
	if c.Plant != nil {
		args, err := plantArgs(c.Plant)
		if err != nil {
			return false, fail("user_plants.encode", err)
		}
		res, err := tx.ExecContext(ctx, r.s.rebind(updatePlant), args...)
		if err != nil {
			return false, fail("user_plants.save", err)
		}
		if n, err := affected(res); err != nil {
			return false, fail("user_plants.save", err)
		} else if n == 0 {
			return false, model.ErrNotFound
		}
	}
	if c.Event != nil {
		if _, err := tx.ExecContext(ctx, r.s.rebind(insertCareEvent), careEventArgs(c.Event)...); err != nil {
			return false, fail("care_events.append", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fail("reminders.complete", err)
	}
	return true, nil
}

// --- CareHistory ---
type careHistory struct{ s *Store }

const insertCareEvent = `
        INSERT INTO care_events (event_id, user_plant_id, action, notes, reminder_id, performed_at) VALUES (?,?,?,?,?,?)
    `

func careEventArgs(ev *model.CareEvent) []any {
	return []any{newID(ev.EventID), ev.UserPlantID, ev.Action, ev.Notes, ev.ReminderID, millis(ev.PerformedAt)}
}

func (h *careHistory) Append(ctx context.Context, ev *model.CareEvent) error {
	_, err := h.s.exec(ctx, insertCareEvent, careEventArgs(ev)...)
	return fail("care_events.append", err)
}

func (h *careHistory) List(ctx context.Context, userPlantID string, limit int) ([]model.CareEvent, error) {
	q := `SELECT event_id, user_plant_id, action, notes, reminder_id, performed_at
        FROM care_events WHERE user_plant_id=? ORDER BY performed_at DESC, event_id`
	args := []any{userPlantID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := h.s.query(ctx, q, args...)
	if err != nil {
		return nil, fail("care_events.list", err)
	}
	defer func() { _ = rows.Close() }()
	var out []model.CareEvent
	for rows.Next() {
		var ev model.CareEvent
		var at sql.NullInt64
		if err := rows.Scan(&ev.EventID, &ev.UserPlantID, &ev.Action, &ev.Notes, &ev.ReminderID, &at); err != nil {
			return nil, fail("care_events.list", err)
		}
		ev.PerformedAt = fromMillis(at)
		out = append(out, ev)
	}
	return out, fail("care_events.list", rows.Err())
}
