package sqlstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Instants are stored as unix milliseconds in nullable BIGINT columns so the same
// DDL and range predicates work on Postgres and SQLite. JSON documents are TEXT.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id TEXT PRIMARY KEY,
        location TEXT NOT NULL DEFAULT '',
        hemisphere TEXT NOT NULL DEFAULT '',
        created_at BIGINT
    )`,
	`CREATE TABLE IF NOT EXISTS plant_catalog (
        plant_id TEXT PRIMARY KEY,
        profile TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS user_plants (
        user_plant_id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        plant_id TEXT NOT NULL,
        garden_id TEXT NOT NULL DEFAULT '',
        custom_name TEXT NOT NULL DEFAULT '',
        location TEXT NOT NULL DEFAULT '',
        planted_at BIGINT,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        care TEXT NOT NULL DEFAULT '{}',
        created_at BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_user_plants_user ON user_plants(user_id)`,
	`CREATE TABLE IF NOT EXISTS reminders (
        reminder_id TEXT PRIMARY KEY,
        user_plant_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        type TEXT NOT NULL,
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        due_at BIGINT,
        is_completed BOOLEAN NOT NULL DEFAULT FALSE,
        completed_at BIGINT,
        is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
        recurring_interval TEXT NOT NULL DEFAULT '',
        previous_id TEXT NOT NULL DEFAULT '',
        created_at BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_plant ON reminders(user_plant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id, is_completed)`,
	`CREATE TABLE IF NOT EXISTS care_events (
        event_id TEXT PRIMARY KEY,
        user_plant_id TEXT NOT NULL,
        action TEXT NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        reminder_id TEXT NOT NULL DEFAULT '',
        performed_at BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_care_events_plant ON care_events(user_plant_id, performed_at)`,
	`CREATE TABLE IF NOT EXISTS auto_recommendations (
        recommendation_id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        user_plant_id TEXT NOT NULL DEFAULT '',
        plant_id TEXT NOT NULL DEFAULT '',
        garden_id TEXT NOT NULL DEFAULT '',
        type TEXT NOT NULL,
        tag TEXT NOT NULL DEFAULT '',
        title TEXT NOT NULL,
        message TEXT NOT NULL,
        priority TEXT NOT NULL,
        priority_rank INTEGER NOT NULL,
        status TEXT NOT NULL,
        due_at BIGINT,
        scheduled_for BIGINT,
        expires_at BIGINT,
        sort_at BIGINT,
        weather TEXT,
        is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
        recurring_pattern TEXT NOT NULL DEFAULT '',
        action_taken BOOLEAN NOT NULL DEFAULT FALSE,
        action_at BIGINT,
        user_notes TEXT NOT NULL DEFAULT '',
        created_at BIGINT,
        updated_at BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_auto_recs_user ON auto_recommendations(user_id, status, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_auto_recs_key ON auto_recommendations(user_id, user_plant_id, type, tag)`,
	`CREATE TABLE IF NOT EXISTS supervisor_recommendations (
        recommendation_id TEXT PRIMARY KEY,
        supervisor_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        user_plant_id TEXT NOT NULL DEFAULT '',
        type TEXT NOT NULL DEFAULT '',
        title TEXT NOT NULL,
        message TEXT NOT NULL,
        priority TEXT NOT NULL,
        status TEXT NOT NULL,
        user_response TEXT NOT NULL DEFAULT '',
        follow_up_at BIGINT,
        responded_at BIGINT,
        created_at BIGINT,
        updated_at BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_supervisor_recs_user ON supervisor_recommendations(user_id)`,
	`CREATE TABLE IF NOT EXISTS observations (
        observation_id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        owner_kind TEXT NOT NULL,
        owner_id TEXT NOT NULL,
        plant_ref TEXT NOT NULL,
        note TEXT NOT NULL,
        health TEXT NOT NULL DEFAULT '',
        observed_at BIGINT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_observations_owner ON observations(owner_kind, owner_id, plant_ref)`,
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}
