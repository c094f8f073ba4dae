// internal/otp/repository.go

package otp

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, code *Code) error
	Latest(ctx context.Context, userID int64, purpose Purpose) (*Code, error)
	IncrementAttempts(ctx context.Context, id int64) error
	MarkConsumed(ctx context.Context, id int64) error
	InvalidateActive(ctx context.Context, userID int64, purpose Purpose) error
	CountRecent(ctx context.Context, userID int64, window time.Duration) (int, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, code *Code) error {
	query := `
		INSERT INTO otp_codes (user_id, purpose, code_hash, channel, destination, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		code.UserID, code.Purpose, code.CodeHash, code.Channel, code.Destination, code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

func (r *postgresRepository) Latest(ctx context.Context, userID int64, purpose Purpose) (*Code, error) {
	var code Code
	query := `
		SELECT * FROM otp_codes
		WHERE user_id = $1 AND purpose = $2
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &code, query, userID, purpose)
	if err == sql.ErrNoRows {
		return nil, ErrCodeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp code: %w", err)
	}
	return &code, nil
}

func (r *postgresRepository) IncrementAttempts(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	return nil
}

func (r *postgresRepository) MarkConsumed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET consumed_at = NOW() WHERE id = $1 AND consumed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to consume otp code: %w", err)
	}
	return nil
}

func (r *postgresRepository) InvalidateActive(ctx context.Context, userID int64, purpose Purpose) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otp_codes SET consumed_at = NOW()
		WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL`, userID, purpose)
	if err != nil {
		return fmt.Errorf("failed to invalidate otp codes: %w", err)
	}
	return nil
}

func (r *postgresRepository) CountRecent(ctx context.Context, userID int64, window time.Duration) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM otp_codes WHERE user_id = $1 AND created_at > $2`

	err := r.db.GetContext(ctx, &count, query, userID, time.Now().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("failed to count recent otp codes: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otp codes: %w", err)
	}
	return result.RowsAffected()
}
