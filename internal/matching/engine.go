// internal/matching/engine.go

package matching

import "github.com/moodlyapp/moodly-backend/internal/profile"

// Compatible reports whether two users pass the mutual-interest check.
// Both directions must hold: each user's gender has to appear in the
// other's interest set, with "all" standing in for every identity. An
// empty interest set matches nothing.
func Compatible(a, b *profile.Profile) bool {
	return interestedIn(a, b.Gender) && interestedIn(b, a.Gender)
}

func interestedIn(p *profile.Profile, gender string) bool {
	for _, tag := range p.InterestedIn {
		if tag == profile.InterestAll || tag == gender {
			return true
		}
	}
	return false
}
