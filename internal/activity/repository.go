// internal/activity/repository.go

package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
)

type NearbyFilter struct {
	Center       geo.Point
	RadiusMeters int
	Category     string
	After        time.Time
	Limit        int
}

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	Get(ctx context.Context, id int64) (*Activity, error)
	Update(ctx context.Context, a *Activity) error
	SetStatus(ctx context.Context, id int64, status string) error
	Nearby(ctx context.Context, f NearbyFilter) ([]*Activity, error)
	ListByHost(ctx context.Context, hostID int64) ([]*Activity, error)
	ListJoined(ctx context.Context, userID int64) ([]*Activity, error)

	Join(ctx context.Context, activityID, userID int64) (bool, error)
	Leave(ctx context.Context, activityID, userID int64) error
	IsMember(ctx context.Context, activityID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, activityID int64) ([]int64, error)
	MemberOf(ctx context.Context, userID int64, activityIDs []int64) ([]int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// activityColumns is every persisted column plus the derived member
// count; keep in sync with the Activity db tags.
const activityColumns = `
	a.id, a.host_id, a.title, a.description, a.category,
	a.latitude, a.longitude, a.place_name, a.starts_at, a.capacity, a.status,
	a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM activity_members am WHERE am.activity_id = a.id) AS member_count`

func (r *postgresRepository) Create(ctx context.Context, a *Activity) error {
	query := `
		INSERT INTO activities (host_id, title, description, category, latitude, longitude, place_name, starts_at, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.HostID, a.Title, a.Description, a.Category, a.Lat, a.Lng, a.PlaceName, a.StartsAt, a.Capacity, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *postgresRepository) Get(ctx context.Context, id int64) (*Activity, error) {
	var a Activity
	query := fmt.Sprintf(`SELECT %s FROM activities a WHERE a.id = $1`, activityColumns)

	err := r.db.GetContext(ctx, &a, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &a, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *Activity) error {
	query := `
		UPDATE activities
		SET title = $2, description = $3, place_name = $4, starts_at = $5, capacity = $6, updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, a.ID, a.Title, a.Description, a.PlaceName, a.StartsAt, a.Capacity)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activities SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set activity status: %w", err)
	}
	return nil
}

// Nearby runs the feed query: open, upcoming, inside the radius,
// optionally one category, soonest first. The bounding box narrows the
// scan before the exact spherical distance check.
func (r *postgresRepository) Nearby(ctx context.Context, f NearbyFilter) ([]*Activity, error) {
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(f.Center, f.RadiusMeters)

	query := fmt.Sprintf(`
		SELECT %s
		FROM activities a
		WHERE a.status = 'open'
		  AND a.starts_at > $1
		  AND a.latitude BETWEEN $2 AND $3
		  AND a.longitude BETWEEN $4 AND $5
		  AND 6371000 * acos(LEAST(1.0,
		        cos(radians($6)) * cos(radians(a.latitude)) * cos(radians(a.longitude) - radians($7))
		      + sin(radians($6)) * sin(radians(a.latitude)))) <= $8
		  AND ($9::text = '' OR a.category = $9)
		ORDER BY a.starts_at ASC
		LIMIT $10`, activityColumns)

	var out []*Activity
	err := r.db.SelectContext(ctx, &out, query,
		f.After, minLat, maxLat, minLng, maxLng,
		f.Center.Lat, f.Center.Lng, f.RadiusMeters,
		f.Category, f.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby activities: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) ListByHost(ctx context.Context, hostID int64) ([]*Activity, error) {
	var out []*Activity
	query := fmt.Sprintf(`
		SELECT %s FROM activities a
		WHERE a.host_id = $1
		ORDER BY a.starts_at DESC`, activityColumns)

	if err := r.db.SelectContext(ctx, &out, query, hostID); err != nil {
		return nil, fmt.Errorf("failed to list hosted activities: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) ListJoined(ctx context.Context, userID int64) ([]*Activity, error) {
	var out []*Activity
	query := fmt.Sprintf(`
		SELECT %s FROM activities a
		JOIN activity_members am2 ON am2.activity_id = a.id AND am2.user_id = $1
		WHERE a.host_id <> $1
		ORDER BY a.starts_at DESC`, activityColumns)

	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list joined activities: %w", err)
	}
	return out, nil
}

// Join inserts a membership only while a seat is free; joining twice is
// a no-op. Returns whether a row was inserted.
func (r *postgresRepository) Join(ctx context.Context, activityID, userID int64) (bool, error) {
	query := `
		INSERT INTO activity_members (activity_id, user_id, joined_at)
		SELECT $1, $2, NOW()
		WHERE (SELECT COUNT(*) FROM activity_members WHERE activity_id = $1)
		    < (SELECT capacity FROM activities WHERE id = $1)
		ON CONFLICT (activity_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, activityID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to join activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postgresRepository) Leave(ctx context.Context, activityID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_members WHERE activity_id = $1 AND user_id = $2`, activityID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave activity: %w", err)
	}
	return nil
}

func (r *postgresRepository) IsMember(ctx context.Context, activityID, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM activity_members WHERE activity_id = $1 AND user_id = $2)`

	if err := r.db.GetContext(ctx, &exists, query, activityID, userID); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) MemberIDs(ctx context.Context, activityID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT user_id FROM activity_members WHERE activity_id = $1 ORDER BY joined_at ASC`

	if err := r.db.SelectContext(ctx, &ids, query, activityID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return ids, nil
}

func (r *postgresRepository) MemberOf(ctx context.Context, userID int64, activityIDs []int64) ([]int64, error) {
	if len(activityIDs) == 0 {
		return nil, nil
	}

	var ids []int64
	query := `SELECT activity_id FROM activity_members WHERE user_id = $1 AND activity_id = ANY($2)`

	if err := r.db.SelectContext(ctx, &ids, query, userID, pq.Array(activityIDs)); err != nil {
		return nil, fmt.Errorf("failed to check memberships: %w", err)
	}
	return ids, nil
}
