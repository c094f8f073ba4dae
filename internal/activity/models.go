// internal/activity/models.go

package activity

import (
	"time"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

// Activity statuses. Fullness is derived from the member count, not
// stored.
const (
	StatusOpen      = "open"
	StatusCancelled = "cancelled"
)

// Categories is the closed set of activity types.
var Categories = []string{
	"coffee",
	"food",
	"drinks",
	"walk",
	"sports",
	"culture",
	"music",
	"outdoor",
	"games",
	"other",
}

func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// Activity is a user-hosted meetup at a concrete place and time.
type Activity struct {
	ID          int64     `db:"id" json:"id"`
	HostID      int64     `db:"host_id" json:"host_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Category    string    `db:"category" json:"category"`
	Lat         float64   `db:"latitude" json:"lat"`
	Lng         float64   `db:"longitude" json:"lng"`
	PlaceName   string    `db:"place_name" json:"place_name,omitempty"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Status      string    `db:"status" json:"status"`
	MemberCount int       `db:"member_count" json:"member_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Filled by the service for the requesting viewer.
	DistanceMeters int                    `db:"-" json:"distance_m,omitempty"`
	Joined         bool                   `db:"-" json:"joined"`
	Host           *profile.PublicProfile `db:"-" json:"host,omitempty"`
}

// Location returns the meetup point as a geo point.
func (a *Activity) Location() *geo.Point {
	return &geo.Point{Lat: a.Lat, Lng: a.Lng}
}

// Member is one attendee row.
type Member struct {
	ActivityID int64     `db:"activity_id" json:"activity_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	JoinedAt   time.Time `db:"joined_at" json:"joined_at"`
}

type CreateActivityRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=80"`
	Description string    `json:"description" validate:"max=1000"`
	Category    string    `json:"category" validate:"required"`
	Lat         float64   `json:"lat" validate:"latitude"`
	Lng         float64   `json:"lng" validate:"longitude"`
	PlaceName   string    `json:"place_name" validate:"max=120"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,min=2,max=100"`
}

type UpdateActivityRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=80"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	PlaceName   *string    `json:"place_name,omitempty" validate:"omitempty,max=120"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	Capacity    *int       `json:"capacity,omitempty" validate:"omitempty,min=2,max=100"`
}

// NearbyQuery filters the activity feed. Zero coordinates fall back to
// the requester's stored profile location.
type NearbyQuery struct {
	Center       *geo.Point
	RadiusMeters int
	Category     string
	Limit        int
}
