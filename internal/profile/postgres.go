// internal/profile/postgres.go

package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns the Postgres-backed profile store.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// profileRow adapts the canonical entity to the relational schema;
// conversion happens only at this edge.
type profileRow struct {
	UserID       int64           `db:"user_id"`
	DisplayName  string          `db:"display_name"`
	Bio          string          `db:"bio"`
	Gender       string          `db:"gender"`
	InterestedIn pq.StringArray  `db:"interested_in"`
	DateOfBirth  time.Time       `db:"date_of_birth"`
	Latitude     sql.NullFloat64 `db:"latitude"`
	Longitude    sql.NullFloat64 `db:"longitude"`
	LocatedAt    sql.NullTime    `db:"located_at"`
	Mood         string          `db:"current_mood"`
	MoodSetAt    sql.NullTime    `db:"mood_set_at"`
	MoodTTLHours int             `db:"mood_ttl_hours"`
	SearchRadius int             `db:"search_radius_m"`
	AgeMin       int             `db:"age_min"`
	AgeMax       int             `db:"age_max"`
	PhotoURL     string          `db:"photo_url"`
	GhostMode    bool            `db:"ghost_mode"`
	IsActive     bool            `db:"is_active"`
	IsBanned     bool            `db:"is_banned"`
	LastSeen     time.Time       `db:"last_seen"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r *profileRow) toProfile() *Profile {
	p := &Profile{
		UserID:             r.UserID,
		DisplayName:        r.DisplayName,
		Bio:                r.Bio,
		Gender:             r.Gender,
		InterestedIn:       []string(r.InterestedIn),
		DateOfBirth:        r.DateOfBirth,
		Mood:               r.Mood,
		MoodTTLHours:       r.MoodTTLHours,
		SearchRadiusMeters: r.SearchRadius,
		AgeMin:             r.AgeMin,
		AgeMax:             r.AgeMax,
		PhotoURL:           r.PhotoURL,
		GhostMode:          r.GhostMode,
		IsActive:           r.IsActive,
		IsBanned:           r.IsBanned,
		LastSeen:           r.LastSeen,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		p.Location = &geo.Point{Lat: r.Latitude.Float64, Lng: r.Longitude.Float64}
	}
	if r.LocatedAt.Valid {
		t := r.LocatedAt.Time
		p.LocatedAt = &t
	}
	if r.MoodSetAt.Valid {
		t := r.MoodSetAt.Time
		p.MoodSetAt = &t
	}
	return p
}

const profileColumns = `
	user_id, display_name, bio, gender, interested_in, date_of_birth,
	latitude, longitude, located_at,
	current_mood, mood_set_at, mood_ttl_hours,
	search_radius_m, age_min, age_max,
	photo_url, ghost_mode, is_active, is_banned,
	last_seen, created_at, updated_at`

func (s *postgresStore) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, display_name, bio, gender, interested_in, date_of_birth,
			current_mood, mood_ttl_hours, search_radius_m, age_min, age_max,
			photo_url, ghost_mode, is_active, is_banned, last_seen, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, $9, $10, '', FALSE, TRUE, FALSE, NOW(), NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.Bio, p.Gender, pq.Array(p.InterestedIn),
		p.DateOfBirth, p.MoodTTLHours, p.SearchRadiusMeters, p.AgeMin, p.AgeMax,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	if rows == 0 {
		return ErrProfileExists
	}
	return nil
}

func (s *postgresStore) Get(ctx context.Context, userID int64) (*Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	err := s.db.GetContext(ctx, &row, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return row.toProfile(), nil
}

func (s *postgresStore) GetMany(ctx context.Context, userIDs []int64) ([]*Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var rows []profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ANY($1)`

	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}

	profiles := make([]*Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toProfile())
	}
	return profiles, nil
}

func (s *postgresStore) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2, bio = $3, gender = $4, interested_in = $5,
		    search_radius_m = $6, age_min = $7, age_max = $8, mood_ttl_hours = $9,
		    updated_at = NOW()
		WHERE user_id = $1`

	result, err := s.db.ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.Bio, p.Gender, pq.Array(p.InterestedIn),
		p.SearchRadiusMeters, p.AgeMin, p.AgeMax, p.MoodTTLHours,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return checkFound(result)
}

func (s *postgresStore) UpdateLocation(ctx context.Context, userID int64, loc geo.Point, at time.Time) error {
	query := `
		UPDATE profiles
		SET latitude = $2, longitude = $3, located_at = $4, last_seen = $4, updated_at = NOW()
		WHERE user_id = $1`

	result, err := s.db.ExecContext(ctx, query, userID, loc.Lat, loc.Lng, at)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return checkFound(result)
}

func (s *postgresStore) SetMood(ctx context.Context, userID int64, mood string, loc *geo.Point, at time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	if mood == "" {
		result, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET current_mood = '', mood_set_at = NULL, updated_at = NOW()
			WHERE user_id = $1`, userID)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET current_mood = $2, mood_set_at = $3, last_seen = $3, updated_at = NOW()
			WHERE user_id = $1`, userID, mood, at)
	}
	if err != nil {
		return fmt.Errorf("failed to set mood: %w", err)
	}
	if err := checkFound(result); err != nil {
		return err
	}

	// The history log is append-only; clears are not history events.
	if mood != "" {
		var lat, lng interface{}
		if loc != nil {
			lat, lng = loc.Lat, loc.Lng
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mood_history (user_id, mood, latitude, longitude, set_at)
			VALUES ($1, $2, $3, $4, $5)`, userID, mood, lat, lng, at)
		if err != nil {
			return fmt.Errorf("failed to append mood history: %w", err)
		}
	}

	return tx.Commit()
}

func (s *postgresStore) MoodHistory(ctx context.Context, userID int64, limit int) ([]*MoodEntry, error) {
	type entryRow struct {
		ID        int64           `db:"id"`
		UserID    int64           `db:"user_id"`
		Mood      string          `db:"mood"`
		Latitude  sql.NullFloat64 `db:"latitude"`
		Longitude sql.NullFloat64 `db:"longitude"`
		SetAt     time.Time       `db:"set_at"`
	}

	var rows []entryRow
	query := `
		SELECT id, user_id, mood, latitude, longitude, set_at
		FROM mood_history
		WHERE user_id = $1
		ORDER BY set_at DESC
		LIMIT $2`

	if err := s.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list mood history: %w", err)
	}

	entries := make([]*MoodEntry, 0, len(rows))
	for _, r := range rows {
		e := &MoodEntry{ID: strconv.FormatInt(r.ID, 10), UserID: r.UserID, Mood: r.Mood, SetAt: r.SetAt}
		if r.Latitude.Valid && r.Longitude.Valid {
			e.Location = &geo.Point{Lat: r.Latitude.Float64, Lng: r.Longitude.Float64}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *postgresStore) PruneMoodHistory(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM mood_history WHERE set_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune mood history: %w", err)
	}
	return result.RowsAffected()
}

func (s *postgresStore) SetPhotoURL(ctx context.Context, userID int64, url string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET photo_url = $2, updated_at = NOW() WHERE user_id = $1`, userID, url)
	if err != nil {
		return fmt.Errorf("failed to set photo url: %w", err)
	}
	return checkFound(result)
}

func (s *postgresStore) SetGhostMode(ctx context.Context, userID int64, on bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET ghost_mode = $2, updated_at = NOW() WHERE user_id = $1`, userID, on)
	if err != nil {
		return fmt.Errorf("failed to set ghost mode: %w", err)
	}
	return checkFound(result)
}

func (s *postgresStore) SetActive(ctx context.Context, userID int64, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET is_active = $2, updated_at = NOW() WHERE user_id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	return checkFound(result)
}

func (s *postgresStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET is_banned = $2, updated_at = NOW() WHERE user_id = $1`, userID, banned)
	if err != nil {
		return fmt.Errorf("failed to set ban flag: %w", err)
	}
	return checkFound(result)
}

func (s *postgresStore) TouchLastSeen(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET last_seen = $2 WHERE user_id = $1 AND last_seen < $2`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to touch last seen: %w", err)
	}
	return nil
}

func (s *postgresStore) FindCandidates(ctx context.Context, f CandidateFilter) ([]*Profile, error) {
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(f.Center, f.RadiusMeters)

	// Bounding box narrows the scan; the spherical distance expression
	// makes the radius exact. Mood freshness is evaluated per candidate
	// against that candidate's own TTL.
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE user_id <> $1
		  AND is_active = TRUE
		  AND is_banned = FALSE
		  AND ghost_mode = FALSE
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
		  AND latitude BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5
		  AND 6371000 * acos(LEAST(1.0,
		        cos(radians($6)) * cos(radians(latitude)) * cos(radians(longitude) - radians($7))
		      + sin(radians($6)) * sin(radians(latitude)))) <= $8
		  AND date_of_birth > $9
		  AND date_of_birth <= $10
		  AND ($11::text = '' OR (
		        current_mood = $11
		    AND mood_set_at IS NOT NULL
		    AND mood_set_at >= $12::timestamptz - make_interval(hours => mood_ttl_hours)))
		ORDER BY last_seen DESC
		LIMIT $13`

	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows, query,
		f.ExcludeUserID,
		minLat, maxLat, minLng, maxLng,
		f.Center.Lat, f.Center.Lng, f.RadiusMeters,
		f.BornAfter, f.BornOnOrBefore,
		f.Mood, f.Now,
		f.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	profiles := make([]*Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toProfile())
	}
	return profiles, nil
}

func checkFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}
