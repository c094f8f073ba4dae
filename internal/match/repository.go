// internal/match/repository.go

package match

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateLike(ctx context.Context, likerID, likedID int64) (bool, error)
	DeleteLike(ctx context.Context, likerID, likedID int64) error
	HasLike(ctx context.Context, likerID, likedID int64) (bool, error)
	ReceivedLikes(ctx context.Context, userID int64, limit int) ([]*Like, error)
	CountLikesSince(ctx context.Context, likerID int64, since time.Time) (int, error)

	CreateMatch(ctx context.Context, user1ID, user2ID int64) (*Match, error)
	GetMatch(ctx context.Context, matchID int64) (*Match, error)
	ListMatches(ctx context.Context, userID int64) ([]*Match, error)
	IsMatched(ctx context.Context, user1ID, user2ID int64) (bool, error)
	Unmatch(ctx context.Context, matchID, byUserID int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateLike(ctx context.Context, likerID, likedID int64) (bool, error) {
	query := `
		INSERT INTO likes (liker_id, liked_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (liker_id, liked_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, likerID, likedID)
	if err != nil {
		return false, fmt.Errorf("failed to create like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postgresRepository) DeleteLike(ctx context.Context, likerID, likedID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE liker_id = $1 AND liked_id = $2`, likerID, likedID)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

func (r *postgresRepository) HasLike(ctx context.Context, likerID, likedID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE liker_id = $1 AND liked_id = $2)`

	if err := r.db.GetContext(ctx, &exists, query, likerID, likedID); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) ReceivedLikes(ctx context.Context, userID int64, limit int) ([]*Like, error) {
	var likes []*Like
	query := `
		SELECT * FROM likes
		WHERE liked_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &likes, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list received likes: %w", err)
	}
	return likes, nil
}

func (r *postgresRepository) CountLikesSince(ctx context.Context, likerID int64, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM likes WHERE liker_id = $1 AND created_at >= $2`

	if err := r.db.GetContext(ctx, &count, query, likerID, since); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) CreateMatch(ctx context.Context, user1ID, user2ID int64) (*Match, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}

	// Re-matching after an unmatch reactivates the same row.
	query := `
		INSERT INTO matches (user1_id, user2_id, is_active, matched_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (user1_id, user2_id)
		DO UPDATE SET
			is_active = TRUE,
			unmatched_by = NULL,
			unmatched_at = NULL,
			matched_at = NOW()
		RETURNING id, matched_at`

	match := &Match{User1ID: user1ID, User2ID: user2ID, IsActive: true}
	err := r.db.QueryRowxContext(ctx, query, user1ID, user2ID).Scan(&match.ID, &match.MatchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (r *postgresRepository) GetMatch(ctx context.Context, matchID int64) (*Match, error) {
	var match Match
	err := r.db.GetContext(ctx, &match, `SELECT * FROM matches WHERE id = $1`, matchID)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}

func (r *postgresRepository) ListMatches(ctx context.Context, userID int64) ([]*Match, error) {
	var matches []*Match
	query := `
		SELECT * FROM matches
		WHERE (user1_id = $1 OR user2_id = $1) AND is_active = TRUE
		ORDER BY matched_at DESC`

	if err := r.db.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (r *postgresRepository) IsMatched(ctx context.Context, user1ID, user2ID int64) (bool, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}

	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM matches
			WHERE user1_id = $1 AND user2_id = $2 AND is_active = TRUE
		)`

	if err := r.db.GetContext(ctx, &exists, query, user1ID, user2ID); err != nil {
		return false, fmt.Errorf("failed to check match: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Unmatch(ctx context.Context, matchID, byUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET is_active = FALSE, unmatched_by = $2, unmatched_at = NOW()
		WHERE id = $1 AND is_active = TRUE`, matchID, byUserID)
	if err != nil {
		return fmt.Errorf("failed to unmatch: %w", err)
	}
	return nil
}
