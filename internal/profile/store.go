// internal/profile/store.go

package profile

import (
	"context"
	"errors"
	"time"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

// CandidateFilter is the storage-level discovery predicate. Every field
// is already resolved; the store only translates it into its query
// language.
type CandidateFilter struct {
	ExcludeUserID int64
	Center        geo.Point
	RadiusMeters  int

	// Date-of-birth window derived from the age range via DOBWindow:
	// born after BornAfter (exclusive), on or before BornOnOrBefore
	// (inclusive).
	BornAfter      time.Time
	BornOnOrBefore time.Time

	// Mood, when set, keeps only candidates whose current mood equals it
	// and is still fresh per the candidate's own TTL evaluated at Now.
	Mood string
	Now  time.Time

	Limit int
}

// Store is the single read/write interface over the canonical profile
// entity. Two backends implement it (Postgres, Mongo); callers never see
// which one is wired.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, userID int64) (*Profile, error)
	GetMany(ctx context.Context, userIDs []int64) ([]*Profile, error)

	// Update persists the mutable descriptive fields: display name, bio,
	// gender, interests, preferences, mood TTL.
	Update(ctx context.Context, p *Profile) error

	UpdateLocation(ctx context.Context, userID int64, loc geo.Point, at time.Time) error

	// SetMood updates the current mood (empty mood clears it) and
	// appends one history entry for non-empty moods.
	SetMood(ctx context.Context, userID int64, mood string, loc *geo.Point, at time.Time) error
	MoodHistory(ctx context.Context, userID int64, limit int) ([]*MoodEntry, error)
	PruneMoodHistory(ctx context.Context, before time.Time) (int64, error)

	SetPhotoURL(ctx context.Context, userID int64, url string) error
	SetGhostMode(ctx context.Context, userID int64, on bool) error
	SetActive(ctx context.Context, userID int64, active bool) error
	SetBanned(ctx context.Context, userID int64, banned bool) error
	TouchLastSeen(ctx context.Context, userID int64, at time.Time) error

	// FindCandidates runs the compound discovery query in one round
	// trip: requester excluded, active, not banned, not ghosted, has
	// coordinates, within the radius, inside the DOB window, mood
	// predicate when present. Ordered by last_seen descending, capped
	// at filter.Limit.
	FindCandidates(ctx context.Context, f CandidateFilter) ([]*Profile, error)
}
