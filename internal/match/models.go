// internal/match/models.go

package match

import (
	"time"

	"github.com/moodlyapp/moodly-backend/internal/profile"
)

// Like is one directed swipe. The pair (liker, liked) is unique;
// repeating a like is a no-op.
type Like struct {
	ID        int64     `db:"id" json:"id"`
	LikerID   int64     `db:"liker_id" json:"liker_id"`
	LikedID   int64     `db:"liked_id" json:"liked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Match is a mutual like. user1_id < user2_id always holds so a pair
// maps to exactly one row regardless of who liked last.
type Match struct {
	ID          int64      `db:"id" json:"id"`
	User1ID     int64      `db:"user1_id" json:"-"`
	User2ID     int64      `db:"user2_id" json:"-"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	UnmatchedBy *int64     `db:"unmatched_by" json:"-"`
	UnmatchedAt *time.Time `db:"unmatched_at" json:"-"`
	MatchedAt   time.Time  `db:"matched_at" json:"matched_at"`

	// Partner is hydrated by the service for the requesting user's
	// perspective; it never comes from the matches table itself.
	Partner *profile.PublicProfile `db:"-" json:"partner,omitempty"`
}

// PartnerID returns the other side of the match from userID's view.
func (m *Match) PartnerID(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// Involves reports whether userID is one of the two matched users.
func (m *Match) Involves(userID int64) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// LikeResult tells the client what a swipe did.
type LikeResult struct {
	Liked          bool   `json:"liked"`
	Matched        bool   `json:"matched"`
	Match          *Match `json:"match,omitempty"`
	LikesRemaining *int   `json:"likes_remaining,omitempty"`
}

// ReceivedLike pairs a stored like with the liker's public profile.
type ReceivedLike struct {
	Liker   *profile.PublicProfile `json:"liker"`
	LikedAt time.Time              `json:"liked_at"`
}
