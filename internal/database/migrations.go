package database

import "fmt"

// Migrations are applied in order at startup; each entry runs at most once,
// tracked in schema_migrations. Statements must be idempotent-safe to write
// but are only executed for unseen versions.
var migrations = []string{
	// 1: users
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		provider_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		calendar_connected BOOLEAN NOT NULL DEFAULT FALSE,
		calendar_access_token TEXT NOT NULL DEFAULT '',
		calendar_refresh_token TEXT NOT NULL DEFAULT '',
		calendar_token_expiry TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 2: categories
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '#6366f1',
		icon TEXT NOT NULL DEFAULT '📋',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, name)
	)`,

	// 3: tasks. Sessions are embedded as a JSONB log so the auto-completion
	// guard (append + total update) is one conditional row update.
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		date DATE NOT NULL,
		day TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		start_time TIMESTAMPTZ,
		sessions JSONB NOT NULL DEFAULT '[]',
		total_time BIGINT NOT NULL DEFAULT 0,
		planned_time BIGINT NOT NULL DEFAULT 0,
		is_automated BOOLEAN NOT NULL DEFAULT FALSE,
		completion_count INTEGER NOT NULL DEFAULT 0,
		task_order INTEGER NOT NULL DEFAULT 0,
		scheduled_start_time TEXT,
		scheduled_end_time TEXT,
		notifications_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		notification_minutes INTEGER NOT NULL DEFAULT 30,
		calendar_event_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, name, category, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_date ON tasks (user_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_category ON tasks (user_id, category)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_active ON tasks (user_id) WHERE is_active`,

	// 4: task templates; the task list is an ordered JSONB array of
	// day-of-week-keyed definitions.
	`CREATE TABLE IF NOT EXISTS task_templates (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		tasks JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, name)
	)`,

	// 5: sleep sessions; at most one active per user.
	`CREATE TABLE IF NOT EXISTS sleep_sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		duration BIGINT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sleep_one_active
		ON sleep_sessions (user_id) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_sleep_user_date ON sleep_sessions (user_id, date)`,

	// 6: todos with soft delete.
	`CREATE TABLE IF NOT EXISTS todos (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		date DATE NOT NULL,
		is_overdue BOOLEAN NOT NULL DEFAULT FALSE,
		deadline DATE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_user_date ON todos (user_id, date) WHERE NOT deleted`,
}

func (db *DB) migrate() error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i, stmt := range migrations {
		version := i + 1
		if version <= current {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
	}

	return nil
}
