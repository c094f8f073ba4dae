// internal/profile/models.go

package profile

import (
	"time"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
)

// Gender identity tags. InterestTags is everything a user can declare
// interest in: the targetable identities plus the "all" wildcard
// (GenderOther is reachable only through "all").
const (
	GenderFemale      = "female"
	GenderMale        = "male"
	GenderNonBinary   = "non_binary"
	GenderGenderfluid = "genderfluid"
	GenderAgender     = "agender"
	GenderTransFemale = "trans_female"
	GenderTransMale   = "trans_male"
	GenderOther       = "other"

	InterestAll = "all"
)

var GenderTags = []string{
	GenderFemale,
	GenderMale,
	GenderNonBinary,
	GenderGenderfluid,
	GenderAgender,
	GenderTransFemale,
	GenderTransMale,
	GenderOther,
}

var InterestTags = []string{
	GenderFemale,
	GenderMale,
	GenderNonBinary,
	GenderGenderfluid,
	GenderAgender,
	GenderTransFemale,
	GenderTransMale,
	InterestAll,
}

// MoodTags is the closed set of declarable moods.
var MoodTags = []string{
	"happy",
	"excited",
	"relaxed",
	"zen",
	"adventurous",
	"romantic",
	"playful",
	"curious",
	"focused",
	"creative",
	"social",
	"sporty",
	"foodie",
	"party",
	"chill",
	"thoughtful",
	"energetic",
	"cozy",
	"spontaneous",
}

func ValidGender(s string) bool {
	for _, g := range GenderTags {
		if g == s {
			return true
		}
	}
	return false
}

func ValidInterest(s string) bool {
	for _, i := range InterestTags {
		if i == s {
			return true
		}
	}
	return false
}

func ValidMood(s string) bool {
	for _, m := range MoodTags {
		if m == s {
			return true
		}
	}
	return false
}

// hoursPerYear uses the 365.25-day year so age derivation and the
// discovery date-of-birth window can never disagree.
const hoursPerYear = 24 * 365.25

// AgeAt returns completed years between dob and now, floored.
func AgeAt(dob, now time.Time) int {
	if now.Before(dob) {
		return 0
	}
	return int(now.Sub(dob).Hours() / hoursPerYear)
}

// DOBWindow translates an inclusive [ageMin, ageMax] range into a
// date-of-birth window: born after bornAfter (exclusive) and on or
// before bornOnOrBefore (inclusive).
func DOBWindow(now time.Time, ageMin, ageMax int) (bornAfter, bornOnOrBefore time.Time) {
	bornAfter = now.Add(-time.Duration(float64(ageMax+1) * hoursPerYear * float64(time.Hour)))
	bornOnOrBefore = now.Add(-time.Duration(float64(ageMin) * hoursPerYear * float64(time.Hour)))
	return bornAfter, bornOnOrBefore
}

// Profile is the canonical user profile entity. Both storage backends
// read and write this one struct; neither keeps its own model.
type Profile struct {
	UserID       int64      `json:"user_id"`
	DisplayName  string     `json:"display_name"`
	Bio          string     `json:"bio,omitempty"`
	Gender       string     `json:"gender"`
	InterestedIn []string   `json:"interested_in"`
	DateOfBirth  time.Time  `json:"date_of_birth"`
	Location     *geo.Point `json:"location,omitempty"`
	LocatedAt    *time.Time `json:"located_at,omitempty"`

	Mood         string     `json:"mood,omitempty"`
	MoodSetAt    *time.Time `json:"mood_set_at,omitempty"`
	MoodTTLHours int        `json:"mood_ttl_hours"`

	SearchRadiusMeters int `json:"search_radius_m"`
	AgeMin             int `json:"age_min"`
	AgeMax             int `json:"age_max"`

	PhotoURL  string `json:"photo_url,omitempty"`
	GhostMode bool   `json:"ghost_mode"`
	IsActive  bool   `json:"is_active"`
	IsBanned  bool   `json:"-"`

	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Age returns the profile's age in completed years as of now.
func (p *Profile) Age(now time.Time) int {
	return AgeAt(p.DateOfBirth, now)
}

// MoodFresh reports whether the declared mood is still current per the
// owner's TTL. The boundary is inclusive: a mood exactly TTL old is
// still fresh.
func (p *Profile) MoodFresh(now time.Time) bool {
	return MoodFreshAt(p.Mood, p.MoodSetAt, p.MoodTTLHours, now)
}

// MoodFreshAt is the freshness predicate behind Profile.MoodFresh.
func MoodFreshAt(mood string, setAt *time.Time, ttlHours int, now time.Time) bool {
	if mood == "" || setAt == nil {
		return false
	}
	return now.Sub(*setAt) <= time.Duration(ttlHours)*time.Hour
}

// CurrentMood returns the mood when fresh and "" once it has gone stale;
// a stale mood reads the same as never having declared one.
func (p *Profile) CurrentMood(now time.Time) string {
	if p.MoodFresh(now) {
		return p.Mood
	}
	return ""
}

// PublicProfile is the credential-free projection handed to other users.
type PublicProfile struct {
	UserID       int64     `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio,omitempty"`
	Gender       string    `json:"gender"`
	InterestedIn []string  `json:"interested_in"`
	Age          int       `json:"age"`
	Mood         string    `json:"mood,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	LastSeen     time.Time `json:"last_seen"`
}

// Public builds the projection; the mood is included only while fresh.
func (p *Profile) Public(now time.Time) *PublicProfile {
	return &PublicProfile{
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		Gender:       p.Gender,
		InterestedIn: p.InterestedIn,
		Age:          p.Age(now),
		Mood:         p.CurrentMood(now),
		PhotoURL:     p.PhotoURL,
		LastSeen:     p.LastSeen,
	}
}

// MoodEntry is one record of the append-only mood history. IDs are
// strings because the two backends key history differently.
type MoodEntry struct {
	ID       string     `json:"id"`
	UserID   int64      `json:"user_id"`
	Mood     string     `json:"mood"`
	Location *geo.Point `json:"location,omitempty"`
	SetAt    time.Time  `json:"set_at"`
}

// CreateProfileRequest is the onboarding payload.
type CreateProfileRequest struct {
	DisplayName  string   `json:"display_name" validate:"required,min=2,max=50"`
	Bio          string   `json:"bio" validate:"max=500"`
	Gender       string   `json:"gender" validate:"required"`
	InterestedIn []string `json:"interested_in"`
	DateOfBirth  string   `json:"date_of_birth" validate:"required"` // YYYY-MM-DD
}

// UpdateProfileRequest carries only the fields the client wants changed.
type UpdateProfileRequest struct {
	DisplayName  *string   `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio          *string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	Gender       *string   `json:"gender,omitempty"`
	InterestedIn *[]string `json:"interested_in,omitempty"`
}

// UpdateLocationRequest moves the profile's coordinates.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// UpdateMoodRequest declares a new current mood.
type UpdateMoodRequest struct {
	Mood string `json:"mood" validate:"required"`
}

// UpdatePreferencesRequest tunes discovery preferences.
type UpdatePreferencesRequest struct {
	SearchRadiusMeters *int `json:"search_radius_m,omitempty" validate:"omitempty,min=100"`
	AgeMin             *int `json:"age_min,omitempty" validate:"omitempty,min=18,max=100"`
	AgeMax             *int `json:"age_max,omitempty" validate:"omitempty,min=18,max=100"`
	MoodTTLHours       *int `json:"mood_ttl_hours,omitempty" validate:"omitempty,min=1,max=168"`
}
