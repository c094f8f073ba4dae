// internal/notify/repository.go

package notify

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID int64, ids []int64) (int64, error)
	MarkAllRead(ctx context.Context, userID int64) error
	CountUnread(ctx context.Context, userID int64) (int, error)
	DeleteNotification(ctx context.Context, userID, id int64) (bool, error)

	UpsertToken(ctx context.Context, t *PushToken) error
	DeleteToken(ctx context.Context, userID int64, token string) error
	UserTokens(ctx context.Context, userID int64) ([]string, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, kind, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		n.UserID, n.Kind, n.Title, n.Body, n.Data,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListNotifications(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*Notification, error) {
	query := `
		SELECT id, user_id, kind, title, body, data, read_at, created_at
		FROM notifications
		WHERE user_id = $1`
	if onlyUnread {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	var notifications []*Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *postgresRepository) MarkRead(ctx context.Context, userID int64, ids []int64) (int64, error) {
	query := `
		UPDATE notifications
		SET read_at = NOW()
		WHERE user_id = $1 AND id = ANY($2) AND read_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

func (r *postgresRepository) MarkAllRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	return nil
}

func (r *postgresRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`

	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) DeleteNotification(ctx context.Context, userID, id int64) (bool, error) {
	query := `DELETE FROM notifications WHERE user_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *postgresRepository) UpsertToken(ctx context.Context, t *PushToken) error {
	query := `
		INSERT INTO push_tokens (user_id, token, platform, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (token)
		DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, t.UserID, t.Token, t.Platform).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteToken(ctx context.Context, userID int64, token string) error {
	query := `DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	return nil
}

func (r *postgresRepository) UserTokens(ctx context.Context, userID int64) ([]string, error) {
	var tokens []string
	query := `SELECT token FROM push_tokens WHERE user_id = $1 ORDER BY updated_at DESC`

	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	return tokens, nil
}
