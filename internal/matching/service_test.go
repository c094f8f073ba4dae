// internal/matching/service_test.go

package matching

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

// fakeStore keeps profiles in memory and answers FindCandidates with
// the same semantics the real backends promise: requester excluded,
// visibility flags honored, radius, date-of-birth window, fresh-mood
// equality, last_seen descending, capped at Limit.
type fakeStore struct {
	profile.Store

	profiles   map[int64]*profile.Profile
	lastFilter profile.CandidateFilter
	getErr     error
	findErr    error
}

func newFakeStore(profiles ...*profile.Profile) *fakeStore {
	f := &fakeStore{profiles: make(map[int64]*profile.Profile)}
	for _, p := range profiles {
		f.profiles[p.UserID] = p
	}
	return f
}

func (f *fakeStore) Get(ctx context.Context, userID int64) (*profile.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) FindCandidates(ctx context.Context, filter profile.CandidateFilter) ([]*profile.Profile, error) {
	f.lastFilter = filter
	if f.findErr != nil {
		return nil, f.findErr
	}

	var out []*profile.Profile
	for _, p := range f.profiles {
		if p.UserID == filter.ExcludeUserID {
			continue
		}
		if !p.IsActive || p.IsBanned || p.GhostMode || p.Location == nil {
			continue
		}
		if geo.DistanceMeters(&filter.Center, p.Location) > filter.RadiusMeters {
			continue
		}
		if !p.DateOfBirth.After(filter.BornAfter) || p.DateOfBirth.After(filter.BornOnOrBefore) {
			continue
		}
		if filter.Mood != "" {
			if p.Mood != filter.Mood || !profile.MoodFreshAt(p.Mood, p.MoodSetAt, p.MoodTTLHours, filter.Now) {
				continue
			}
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// paris is the fixture center; candidate coordinates are offsets from it.
var paris = geo.Point{Lat: 48.85, Lng: 2.35}

type profileOpt func(*profile.Profile)

func testProfile(id int64, age int, opts ...profileOpt) *profile.Profile {
	now := time.Now()
	p := &profile.Profile{
		UserID:             id,
		DisplayName:        "user",
		Gender:             profile.GenderFemale,
		InterestedIn:       []string{profile.InterestAll},
		DateOfBirth:        now.AddDate(-age, -6, 0), // mid-year keeps the derived age stable
		Location:           &geo.Point{Lat: paris.Lat, Lng: paris.Lng},
		MoodTTLHours:       24,
		SearchRadiusMeters: 25000,
		AgeMin:             18,
		AgeMax:             100,
		IsActive:           true,
		LastSeen:           now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func at(lat, lng float64) profileOpt {
	return func(p *profile.Profile) { p.Location = &geo.Point{Lat: lat, Lng: lng} }
}

func noLocation() profileOpt {
	return func(p *profile.Profile) { p.Location = nil }
}

func banned() profileOpt {
	return func(p *profile.Profile) { p.IsBanned = true }
}

func inactive() profileOpt {
	return func(p *profile.Profile) { p.IsActive = false }
}

func ghosting() profileOpt {
	return func(p *profile.Profile) { p.GhostMode = true }
}

func seeking(gender string, interestedIn ...string) profileOpt {
	return func(p *profile.Profile) {
		p.Gender = gender
		p.InterestedIn = interestedIn
	}
}

func inMood(mood string, age time.Duration) profileOpt {
	return func(p *profile.Profile) {
		setAt := time.Now().Add(-age)
		p.Mood = mood
		p.MoodSetAt = &setAt
	}
}

func lastSeen(ago time.Duration) profileOpt {
	return func(p *profile.Profile) { p.LastSeen = time.Now().Add(-ago) }
}

func testConfig() config.MatchingConfig {
	return config.MatchingConfig{
		DefaultRadiusMeters: 25000,
		MaxRadiusMeters:     150000,
		MaxPageSize:         50,
		MinAge:              18,
		MaxAge:              100,
	}
}

func candidateIDs(candidates []*Candidate) []int64 {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}
	return ids
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestFindCandidates_ExcludesIneligible(t *testing.T) {
	requester := testProfile(1, 30)
	store := newFakeStore(
		requester,
		testProfile(2, 28),                            // eligible
		testProfile(3, 32, lastSeen(time.Minute)),     // eligible
		testProfile(4, 28, banned()),                  // banned
		testProfile(5, 28, inactive()),                // deactivated
		testProfile(6, 28, ghosting()),                // hidden by ghost mode
		testProfile(7, 28, noLocation()),              // no coordinates
		testProfile(8, 28, at(50.0, 10.0)),            // ~600 km away
		testProfile(9, 17),                            // under the age floor
		testProfile(10, 28, seeking(profile.GenderMale, profile.GenderMale)), // not mutually interested
	)
	svc := NewService(store, testConfig())

	candidates, err := svc.FindCandidates(context.Background(), 1, Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{2, 3}, candidateIDs(candidates))
}

func TestFindCandidates_MoodFilter(t *testing.T) {
	store := newFakeStore(
		testProfile(1, 30),
		testProfile(2, 28, inMood("zen", time.Hour)),     // fresh zen
		testProfile(3, 28, inMood("zen", 30*time.Hour)),  // zen but stale
		testProfile(4, 28, inMood("party", time.Hour)),   // different mood
		testProfile(5, 28),                               // no mood at all
	)
	svc := NewService(store, testConfig())

	candidates, err := svc.FindCandidates(context.Background(), 1, Options{Mood: strPtr("zen")})
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, candidateIDs(candidates))
}

func TestFindCandidates_NoLocation(t *testing.T) {
	store := newFakeStore(testProfile(1, 30, noLocation()))
	svc := NewService(store, testConfig())

	_, err := svc.FindCandidates(context.Background(), 1, Options{})
	assert.ErrorIs(t, err, ErrInvalidQueryState)
}

func TestFindCandidates_InvalidAgeRange(t *testing.T) {
	store := newFakeStore(testProfile(1, 30))
	svc := NewService(store, testConfig())

	_, err := svc.FindCandidates(context.Background(), 1, Options{
		AgeMin: intPtr(40),
		AgeMax: intPtr(30),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestFindCandidates_RequesterMissing(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, testConfig())

	_, err := svc.FindCandidates(context.Background(), 1, Options{})
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestFindCandidates_StorageError(t *testing.T) {
	store := newFakeStore(testProfile(1, 30))
	store.findErr = errors.New("connection refused")
	svc := NewService(store, testConfig())

	_, err := svc.FindCandidates(context.Background(), 1, Options{})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

// The scenario every discovery change has to keep passing: requester in
// central Paris, 5 km radius, ages 25-35.
func TestFindCandidates_ParisScenario(t *testing.T) {
	requester := testProfile(1, 30, seeking(profile.GenderFemale, profile.GenderMale))
	store := newFakeStore(
		requester,
		// A: nearby, 28, mutually interested
		testProfile(2, 28, at(48.86, 2.36), seeking(profile.GenderMale, profile.GenderFemale)),
		// B: same spot but 40
		testProfile(3, 40, at(48.86, 2.36), seeking(profile.GenderMale, profile.GenderFemale)),
		// C: far outside the radius
		testProfile(4, 28, at(50.0, 10.0), seeking(profile.GenderMale, profile.GenderFemale)),
		// D: same as A but banned
		testProfile(5, 28, at(48.86, 2.36), seeking(profile.GenderMale, profile.GenderFemale), banned()),
	)
	svc := NewService(store, testConfig())

	candidates, err := svc.FindCandidates(context.Background(), 1, Options{
		MaxDistanceMeters: intPtr(5000),
		AgeMin:            intPtr(25),
		AgeMax:            intPtr(35),
	})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, int64(2), candidates[0].UserID)
	assert.Equal(t, 28, candidates[0].Age)
	// (48.86, 2.36) is roughly 1.3 km from the fixture center
	assert.InDelta(t, 1330, candidates[0].DistanceMeters, 50)
}

func TestFindCandidates_OrderedByLastSeen(t *testing.T) {
	store := newFakeStore(
		testProfile(1, 30),
		testProfile(2, 28, lastSeen(3*time.Hour)),
		testProfile(3, 28, lastSeen(time.Hour)),
		testProfile(4, 28, lastSeen(2*time.Hour)),
	)
	svc := NewService(store, testConfig())

	candidates, err := svc.FindCandidates(context.Background(), 1, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 4, 2}, candidateIDs(candidates))
}

// The store page is capped before the mutual-interest filter runs, so a
// page dominated by incompatible profiles can shrink the result below
// the limit even though compatible candidates exist further down the
// ordering. Deliberate behavior; this test pins it.
func TestFindCandidates_PageCapBeforeCompatibilityFilter(t *testing.T) {
	requester := testProfile(1, 30, seeking(profile.GenderFemale, profile.GenderMale))
	incompatible := seeking(profile.GenderMale, profile.GenderMale)
	compatible := seeking(profile.GenderMale, profile.GenderFemale)

	store := newFakeStore(
		requester,
		testProfile(2, 28, incompatible, lastSeen(time.Minute)),
		testProfile(3, 28, incompatible, lastSeen(2*time.Minute)),
		testProfile(4, 28, compatible, lastSeen(3*time.Minute)),
	)
	svc := NewService(store, testConfig())

	candidates, err := svc.FindCandidates(context.Background(), 1, Options{Limit: intPtr(2)})
	require.NoError(t, err)

	// The two-profile page held only incompatible users; user 4 was
	// never fetched.
	assert.Empty(t, candidates)
	assert.Equal(t, 2, store.lastFilter.Limit)

	// A larger page reaches the compatible candidate.
	candidates, err = svc.FindCandidates(context.Background(), 1, Options{Limit: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, candidateIDs(candidates))
}

func TestFindCandidates_DefaultsFromPreferences(t *testing.T) {
	requester := testProfile(1, 30)
	requester.SearchRadiusMeters = 12000
	requester.AgeMin = 25
	requester.AgeMax = 35

	store := newFakeStore(requester)
	svc := NewService(store, testConfig())

	_, err := svc.FindCandidates(context.Background(), 1, Options{})
	require.NoError(t, err)

	filter := store.lastFilter
	assert.Equal(t, int64(1), filter.ExcludeUserID)
	assert.Equal(t, 12000, filter.RadiusMeters)
	assert.Equal(t, 50, filter.Limit)
	assert.Equal(t, paris.Lat, filter.Center.Lat)
	assert.Equal(t, paris.Lng, filter.Center.Lng)

	// The date-of-birth window must agree with the age range: a
	// 25-year-old's birthdate sits inside it, a 36-year-old's outside.
	now := filter.Now
	inside := now.AddDate(-25, -6, 0)
	assert.True(t, inside.After(filter.BornAfter) && !inside.After(filter.BornOnOrBefore))
	tooOld := now.AddDate(-36, -6, 0)
	assert.False(t, tooOld.After(filter.BornAfter))
	tooYoung := now.AddDate(-24, -6, 0)
	assert.True(t, tooYoung.After(filter.BornOnOrBefore))
}

func TestFindCandidates_RadiusClampedToMax(t *testing.T) {
	store := newFakeStore(testProfile(1, 30))
	svc := NewService(store, testConfig())

	_, err := svc.FindCandidates(context.Background(), 1, Options{MaxDistanceMeters: intPtr(10_000_000)})
	require.NoError(t, err)

	assert.Equal(t, 150000, store.lastFilter.RadiusMeters)
}

func TestFindCandidates_MoodNearTTLBoundary(t *testing.T) {
	// A mood just inside the owner's TTL still counts; one just past it
	// reads as no mood. The exact-boundary case is covered by the
	// MoodFreshAt tests, where the clock is fixed.
	subject := testProfile(2, 28, inMood("zen", 24*time.Hour-time.Minute))
	store := newFakeStore(testProfile(1, 30), subject)
	svc := NewService(store, testConfig())

	candidates, err := svc.FindCandidates(context.Background(), 1, Options{Mood: strPtr("zen")})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, candidateIDs(candidates))

	past := time.Now().Add(-24*time.Hour - time.Second)
	subject.MoodSetAt = &past
	candidates, err = svc.FindCandidates(context.Background(), 1, Options{Mood: strPtr("zen")})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestCheckCompatibility(t *testing.T) {
	store := newFakeStore(
		testProfile(1, 30, seeking(profile.GenderFemale, profile.GenderMale)),
		testProfile(2, 28, at(48.86, 2.36), seeking(profile.GenderMale, profile.GenderFemale)),
		testProfile(3, 28, seeking(profile.GenderMale, profile.GenderMale)),
	)
	svc := NewService(store, testConfig())

	result, err := svc.CheckCompatibility(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, result.Compatible)
	assert.InDelta(t, 1330, result.DistanceMeters, 50)

	result, err = svc.CheckCompatibility(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.False(t, result.Compatible)

	_, err = svc.CheckCompatibility(context.Background(), 1, 99)
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}
