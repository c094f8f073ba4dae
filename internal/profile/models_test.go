// internal/profile/models_test.go

package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"mid-twenties", time.Date(1997, 3, 10, 0, 0, 0, 0, time.UTC), 28},
		{"just turned 18", fixedNow.Add(-time.Duration(18 * hoursPerYear * float64(time.Hour))), 18},
		{"one hour short of 18", fixedNow.Add(-time.Duration(18*hoursPerYear*float64(time.Hour)) + time.Hour), 17},
		{"born today", fixedNow, 0},
		{"future birthdate", fixedNow.AddDate(1, 0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.dob, fixedNow))
		})
	}
}

func TestDOBWindow(t *testing.T) {
	bornAfter, bornOnOrBefore := DOBWindow(fixedNow, 25, 35)

	// Ages inside the range fall inside the window; the derived age and
	// the window must never disagree.
	for _, dob := range []time.Time{
		fixedNow.AddDate(-25, -6, 0),
		fixedNow.AddDate(-30, 0, 0),
		fixedNow.AddDate(-35, -6, 0),
	} {
		age := AgeAt(dob, fixedNow)
		inWindow := dob.After(bornAfter) && !dob.After(bornOnOrBefore)
		assert.True(t, inWindow, "age %d should be inside the window", age)
		assert.GreaterOrEqual(t, age, 25)
		assert.LessOrEqual(t, age, 35)
	}

	// Just outside on both ends
	tooYoung := fixedNow.AddDate(-24, -6, 0)
	assert.True(t, tooYoung.After(bornOnOrBefore), "24-year-old should be outside")

	tooOld := fixedNow.AddDate(-36, -6, 0)
	assert.False(t, tooOld.After(bornAfter), "36-year-old should be outside")
}

func TestDOBWindow_BoundaryAges(t *testing.T) {
	bornAfter, bornOnOrBefore := DOBWindow(fixedNow, 25, 35)

	// Born exactly 25 years (in 365.25-day years) ago: age is exactly
	// 25, and the inclusive end of the window keeps it in.
	exactly25 := fixedNow.Add(-time.Duration(25 * hoursPerYear * float64(time.Hour)))
	assert.Equal(t, 25, AgeAt(exactly25, fixedNow))
	assert.False(t, exactly25.After(bornOnOrBefore))

	// Born exactly 36 years ago: age 36, excluded by the exclusive
	// start of the window.
	exactly36 := fixedNow.Add(-time.Duration(36 * hoursPerYear * float64(time.Hour)))
	assert.Equal(t, 36, AgeAt(exactly36, fixedNow))
	assert.False(t, exactly36.After(bornAfter))
}

func TestMoodFreshAt(t *testing.T) {
	setAt := fixedNow.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		mood     string
		setAt    *time.Time
		ttlHours int
		now      time.Time
		want     bool
	}{
		{"well within ttl", "zen", timePtr(fixedNow.Add(-time.Hour)), 24, fixedNow, true},
		{"exactly at the boundary", "zen", &setAt, 24, fixedNow, true},
		{"one second past the boundary", "zen", &setAt, 24, fixedNow.Add(time.Second), false},
		{"short custom ttl", "zen", timePtr(fixedNow.Add(-2 * time.Hour)), 1, fixedNow, false},
		{"long custom ttl", "zen", timePtr(fixedNow.Add(-100 * time.Hour)), 168, fixedNow, true},
		{"no mood declared", "", &setAt, 24, fixedNow, false},
		{"mood without timestamp", "zen", nil, 24, fixedNow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MoodFreshAt(tt.mood, tt.setAt, tt.ttlHours, tt.now))
		})
	}
}

func TestProfile_CurrentMood(t *testing.T) {
	p := &Profile{Mood: "cozy", MoodSetAt: timePtr(fixedNow.Add(-2 * time.Hour)), MoodTTLHours: 24}
	assert.Equal(t, "cozy", p.CurrentMood(fixedNow))

	// Stale reads the same as never declared
	p.MoodSetAt = timePtr(fixedNow.Add(-25 * time.Hour))
	assert.Equal(t, "", p.CurrentMood(fixedNow))
}

func TestProfile_Public(t *testing.T) {
	p := &Profile{
		UserID:       7,
		DisplayName:  "Ada",
		Bio:          "likes climbing",
		Gender:       GenderFemale,
		InterestedIn: []string{GenderMale, GenderNonBinary},
		DateOfBirth:  fixedNow.AddDate(-28, -6, 0),
		Mood:         "adventurous",
		MoodSetAt:    timePtr(fixedNow.Add(-3 * time.Hour)),
		MoodTTLHours: 24,
		PhotoURL:     "https://cdn.example.com/p/7.jpg",
		LastSeen:     fixedNow.Add(-10 * time.Minute),
	}

	pub := p.Public(fixedNow)
	assert.Equal(t, int64(7), pub.UserID)
	assert.Equal(t, 28, pub.Age)
	assert.Equal(t, "adventurous", pub.Mood)
	assert.Equal(t, p.LastSeen, pub.LastSeen)

	// A stale mood is dropped from the projection entirely
	p.MoodSetAt = timePtr(fixedNow.Add(-30 * time.Hour))
	assert.Equal(t, "", p.Public(fixedNow).Mood)
}

func TestValidTags(t *testing.T) {
	assert.True(t, ValidGender(GenderNonBinary))
	assert.False(t, ValidGender("alien"))
	assert.False(t, ValidGender(InterestAll), "the wildcard is an interest, not an identity")

	assert.True(t, ValidInterest(InterestAll))
	assert.True(t, ValidInterest(GenderTransMale))
	assert.False(t, ValidInterest(GenderOther), "other is reachable only through the wildcard")

	assert.True(t, ValidMood("zen"))
	assert.False(t, ValidMood("grumpy"))
}

func timePtr(t time.Time) *time.Time { return &t }
