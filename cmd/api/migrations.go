// cmd/api/migrations.go

package main

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// runMigrations creates the schema on startup. Every statement is
// idempotent so restarting against an existing database is safe.
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			phone VARCHAR(32) UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			provider VARCHAR(32) NOT NULL DEFAULT 'local',
			provider_id VARCHAR(255),
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			refresh_token TEXT NOT NULL UNIQUE,
			user_agent TEXT NOT NULL DEFAULT '',
			ip_address VARCHAR(64) NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS otp_codes (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			purpose VARCHAR(32) NOT NULL,
			code_hash VARCHAR(64) NOT NULL,
			channel VARCHAR(16) NOT NULL,
			destination VARCHAR(255) NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			expires_at TIMESTAMPTZ NOT NULL,
			consumed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			display_name VARCHAR(80) NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			gender VARCHAR(16) NOT NULL,
			interested_in TEXT[] NOT NULL DEFAULT '{}',
			date_of_birth DATE NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			located_at TIMESTAMPTZ,
			current_mood VARCHAR(32) NOT NULL DEFAULT '',
			mood_set_at TIMESTAMPTZ,
			mood_ttl_hours INT NOT NULL DEFAULT 24,
			search_radius_m INT NOT NULL DEFAULT 25000,
			age_min INT NOT NULL DEFAULT 18,
			age_max INT NOT NULL DEFAULT 100,
			photo_url TEXT NOT NULL DEFAULT '',
			ghost_mode BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_banned BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS mood_history (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			mood VARCHAR(32) NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			set_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS likes (
			id BIGSERIAL PRIMARY KEY,
			liker_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			liked_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (liker_id, liked_id)
		)`,

		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			unmatched_by BIGINT,
			unmatched_at TIMESTAMPTZ,
			matched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user1_id, user2_id),
			CHECK (user1_id < user2_id)
		)`,

		`CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			host_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(80) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(32) NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			place_name VARCHAR(120) NOT NULL DEFAULT '',
			starts_at TIMESTAMPTZ NOT NULL,
			capacity INT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'open',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS activity_members (
			activity_id BIGINT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (activity_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			plan_id VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			starts_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			cancelled_at TIMESTAMPTZ,
			payment_ref VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			plan_id VARCHAR(32) NOT NULL,
			amount_cents BIGINT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			provider_ref VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(64) NOT NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			data JSONB NOT NULL DEFAULT '{}',
			read_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS push_tokens (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token TEXT NOT NULL UNIQUE,
			platform VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_otp_codes_user_purpose ON otp_codes(user_id, purpose)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_location ON profiles(latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_visibility ON profiles(is_active, is_banned, ghost_mode)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_history_user ON mood_history(user_id, set_at)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_liked ON likes(liked_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user1 ON matches(user1_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_feed ON activities(status, starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_location ON activities(latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_members_user ON activity_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_expiry ON subscriptions(status, expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_push_tokens_user ON push_tokens(user_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
