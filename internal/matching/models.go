// internal/matching/models.go

package matching

import "github.com/moodlyapp/moodly-backend/internal/profile"

// Options narrows a discovery query. Nil fields fall back to the
// requester's stored preferences.
type Options struct {
	MaxDistanceMeters *int
	AgeMin            *int
	AgeMax            *int
	Mood              *string
	Limit             *int
}

// Candidate is one discovery result: the candidate's public projection
// plus the great-circle distance from the requester.
type Candidate struct {
	profile.PublicProfile
	DistanceMeters int `json:"distance_m"`
}

// CompatibilityResult answers "could these two users match?".
type CompatibilityResult struct {
	Compatible     bool `json:"compatible"`
	DistanceMeters int  `json:"distance_m"`
}
