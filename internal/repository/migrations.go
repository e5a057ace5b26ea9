package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		wallet_address TEXT,
		total_points INT NOT NULL DEFAULT 0,
		total_tokens DECIMAL(18,8) NOT NULL DEFAULT 0,
		academy_coins DECIMAL(18,8) NOT NULL DEFAULT 0,
		leadership_level INT NOT NULL DEFAULT 1,
		daily_streak INT NOT NULL DEFAULT 0,
		last_reward_date DATE,
		completed_tasks INT NOT NULL DEFAULT 0,
		referrer_id BIGINT,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		task_number INT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		reward_points INT NOT NULL DEFAULT 10,
		reward_tokens DECIMAL(18,8) NOT NULL DEFAULT 10,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_tasks (
		user_id BIGINT NOT NULL REFERENCES users(id),
		task_number INT NOT NULL REFERENCES tasks(task_number),
		status TEXT NOT NULL DEFAULT 'pending',
		submitted_proof TEXT,
		submitted_at TIMESTAMPTZ,
		approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, task_number)
	)`,
	`CREATE TABLE IF NOT EXISTS referrals (
		referrer_id BIGINT NOT NULL REFERENCES users(id),
		referred_id BIGINT NOT NULL UNIQUE,
		bonus_awarded BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id UUID PRIMARY KEY,
		entry_type TEXT NOT NULL,
		from_account BIGINT,
		to_account BIGINT NOT NULL,
		points INT NOT NULL DEFAULT 0,
		tokens DECIMAL(18,8) NOT NULL DEFAULT 0,
		coins DECIMAL(18,8) NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_to_account
		ON ledger_entries (to_account, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS teaching_network (
		teacher_id BIGINT NOT NULL REFERENCES users(id),
		student_id BIGINT NOT NULL,
		coins_earned DECIMAL(18,8) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (teacher_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payouts (
		id UUID PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		token_amount DECIMAL(18,8) NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		tx_hash TEXT,
		fail_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS system_counters (
		name TEXT PRIMARY KEY,
		value DECIMAL(18,8) NOT NULL DEFAULT 0
	)`,
	`INSERT INTO system_counters (name, value) VALUES ('total_minted', 0)
		ON CONFLICT (name) DO NOTHING`,
}

type seedTask struct {
	number int
	title  string
	desc   string
	points int
	tokens int
}

var seedTasks = []seedTask{
	{1, "Join the Telegram channel", "Join our official Telegram channel and stay for at least 7 days", 5, 10},
	{2, "Share the pinned post", "Share the pinned channel post in a group or channel of yours", 10, 20},
	{3, "Invite your first friend", "Invite one friend to join the academy", 15, 30},
	{4, "Write an original post", "Create an original post about the project and publish it", 20, 40},
	{5, "Enter the monthly contest", "Take part in our monthly community contest", 25, 50},
	{6, "Report a bug", "Report a bug or suggest an improvement", 10, 20},
	{7, "Translate content", "Help translate academy content into another language", 15, 30},
	{8, "Invite five friends", "Bring five new members to the academy", 50, 100},
	{9, "Review the project", "Write a review of the project on an external platform", 20, 40},
	{10, "Record a video", "Create an explainer video about the project", 30, 60},
}

// InitSchema creates the tables and seeds the task catalog. Safe to run on
// every startup; seeding updates titles and rewards for existing tasks so the
// catalog can be tuned without a separate migration.
func (r *Repository) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	for _, t := range seedTasks {
		query, args, err := squirrel.
			Insert("tasks").
			Columns("task_number", "title", "description", "reward_points", "reward_tokens").
			Values(t.number, t.title, t.desc, t.points, t.tokens).
			Suffix(`ON CONFLICT (task_number) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				reward_points = EXCLUDED.reward_points,
				reward_tokens = EXCLUDED.reward_tokens`).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build task seed query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to seed task %d: %w", t.number, err)
		}
	}

	return nil
}
