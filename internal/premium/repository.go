// internal/premium/repository.go

package premium

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateSubscription(ctx context.Context, sub *Subscription) error
	ActiveSubscription(ctx context.Context, userID int64) (*Subscription, error)
	CancelActive(ctx context.Context, userID int64) (bool, error)
	ExpireDue(ctx context.Context) ([]int64, error)

	RecordPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, userID int64) ([]*Payment, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan_id, status, starts_at, expires_at, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		sub.UserID, sub.PlanID, sub.Status, sub.StartsAt, sub.ExpiresAt, sub.PaymentRef,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *postgresRepository) ActiveSubscription(ctx context.Context, userID int64) (*Subscription, error) {
	var sub Subscription
	query := `
		SELECT id, user_id, plan_id, status, starts_at, expires_at, cancelled_at, payment_ref, created_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND expires_at > NOW()
		ORDER BY expires_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &sub, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// CancelActive stamps cancelled_at on the active period. The status
// stays active so the entitlement runs to expires_at.
func (r *postgresRepository) CancelActive(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE subscriptions
		SET cancelled_at = NOW()
		WHERE user_id = $1 AND status = 'active' AND expires_at > NOW() AND cancelled_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel subscription: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// ExpireDue flips lapsed subscriptions to expired and reports the users
// who just lost premium.
func (r *postgresRepository) ExpireDue(ctx context.Context) ([]int64, error) {
	query := `
		UPDATE subscriptions
		SET status = 'expired'
		WHERE status = 'active' AND expires_at <= NOW()
		RETURNING user_id`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

func (r *postgresRepository) RecordPayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (user_id, plan_id, amount_cents, currency, provider_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.UserID, p.PlanID, p.AmountCents, p.Currency, p.ProviderRef, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListPayments(ctx context.Context, userID int64) ([]*Payment, error) {
	var payments []*Payment
	query := `
		SELECT id, user_id, plan_id, amount_cents, currency, provider_ref, status, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
