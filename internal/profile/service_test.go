// internal/profile/service_test.go

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/config"
)

type stubStore struct {
	Store

	profiles map[int64]*Profile
	created  *Profile
	updated  *Profile

	moodUserID int64
	moodValue  string
	moodLoc    *geo.Point
}

func newStubStore(profiles ...*Profile) *stubStore {
	s := &stubStore{profiles: make(map[int64]*Profile)}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *stubStore) Create(ctx context.Context, p *Profile) error {
	s.created = p
	s.profiles[p.UserID] = p
	return nil
}

func (s *stubStore) Get(ctx context.Context, userID int64) (*Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *stubStore) Update(ctx context.Context, p *Profile) error {
	s.updated = p
	s.profiles[p.UserID] = p
	return nil
}

func (s *stubStore) SetMood(ctx context.Context, userID int64, mood string, loc *geo.Point, at time.Time) error {
	s.moodUserID = userID
	s.moodValue = mood
	s.moodLoc = loc
	return nil
}

func serviceUnderTest(store Store) Service {
	return NewService(store, nil, nil,
		config.MoodConfig{DefaultTTLHours: 24, HistoryRetention: 90 * 24 * time.Hour},
		config.MatchingConfig{DefaultRadiusMeters: 25000, MaxRadiusMeters: 150000, MaxPageSize: 50, MinAge: 18, MaxAge: 100},
	)
}

func TestServiceCreate_AppliesDefaults(t *testing.T) {
	store := newStubStore()
	svc := serviceUnderTest(store)

	p, err := svc.Create(context.Background(), 42, &CreateProfileRequest{
		DisplayName:  "Ada",
		Gender:       GenderFemale,
		InterestedIn: []string{GenderMale, GenderNonBinary},
		DateOfBirth:  "1996-03-10",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, 24, p.MoodTTLHours)
	assert.Equal(t, 25000, p.SearchRadiusMeters)
	assert.Equal(t, 18, p.AgeMin)
	assert.Equal(t, 100, p.AgeMax)
	assert.True(t, p.IsActive)
	assert.Nil(t, p.Location, "location is set later, not at onboarding")
	require.NotNil(t, store.created)
	assert.Equal(t, p, store.created)
}

func TestServiceCreate_Validation(t *testing.T) {
	svc := serviceUnderTest(newStubStore())
	base := func() *CreateProfileRequest {
		return &CreateProfileRequest{
			DisplayName:  "Ada",
			Gender:       GenderFemale,
			InterestedIn: []string{InterestAll},
			DateOfBirth:  "1996-03-10",
		}
	}

	t.Run("malformed date", func(t *testing.T) {
		req := base()
		req.DateOfBirth = "10-03-1996"
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("under 18", func(t *testing.T) {
		req := base()
		req.DateOfBirth = time.Now().AddDate(-16, 0, 0).Format("2006-01-02")
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrInvalidAge)
	})

	t.Run("over 100", func(t *testing.T) {
		req := base()
		req.DateOfBirth = "1902-01-01"
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrInvalidAge)
	})

	t.Run("unknown gender", func(t *testing.T) {
		req := base()
		req.Gender = "martian"
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrUnknownGender)
	})

	t.Run("unknown interest tag", func(t *testing.T) {
		req := base()
		req.InterestedIn = []string{GenderMale, "martian"}
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrUnknownInterest)
	})

	t.Run("other is not a valid interest tag", func(t *testing.T) {
		req := base()
		req.InterestedIn = []string{GenderOther}
		_, err := svc.Create(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrUnknownInterest)
	})
}

func TestServiceSetMood(t *testing.T) {
	loc := &geo.Point{Lat: 48.85, Lng: 2.35}
	store := newStubStore(&Profile{UserID: 7, Location: loc, MoodTTLHours: 24, IsActive: true})
	svc := serviceUnderTest(store)

	p, err := svc.SetMood(context.Background(), 7, &UpdateMoodRequest{Mood: "zen"})
	require.NoError(t, err)

	assert.Equal(t, "zen", p.Mood)
	require.NotNil(t, p.MoodSetAt)
	assert.Equal(t, int64(7), store.moodUserID)
	assert.Equal(t, "zen", store.moodValue)
	assert.Equal(t, loc, store.moodLoc, "history entry snapshots the declaring location")

	_, err = svc.SetMood(context.Background(), 7, &UpdateMoodRequest{Mood: "grumpy"})
	assert.ErrorIs(t, err, ErrUnknownMood)
}

func TestServiceClearMood(t *testing.T) {
	store := newStubStore(&Profile{UserID: 7, MoodTTLHours: 24, IsActive: true})
	svc := serviceUnderTest(store)

	require.NoError(t, svc.ClearMood(context.Background(), 7))
	assert.Equal(t, "", store.moodValue)
	assert.Nil(t, store.moodLoc)
}

func TestServiceUpdatePreferences(t *testing.T) {
	radius := 300000
	store := newStubStore(&Profile{UserID: 7, AgeMin: 18, AgeMax: 100, IsActive: true})
	svc := serviceUnderTest(store)

	p, err := svc.UpdatePreferences(context.Background(), 7, &UpdatePreferencesRequest{
		SearchRadiusMeters: &radius,
	})
	require.NoError(t, err)
	assert.Equal(t, 150000, p.SearchRadiusMeters, "radius is clamped to the configured maximum")

	ageMin, ageMax := 40, 30
	_, err = svc.UpdatePreferences(context.Background(), 7, &UpdatePreferencesRequest{
		AgeMin: &ageMin,
		AgeMax: &ageMax,
	})
	assert.ErrorIs(t, err, ErrInvalidAgeRange)
}

func TestServiceGetPublic(t *testing.T) {
	active := &Profile{UserID: 1, DisplayName: "Ada", Gender: GenderFemale, DateOfBirth: time.Now().AddDate(-28, -6, 0), IsActive: true}
	bannedUser := &Profile{UserID: 2, IsActive: true, IsBanned: true}
	deactivated := &Profile{UserID: 3, IsActive: false}
	svc := serviceUnderTest(newStubStore(active, bannedUser, deactivated))

	pub, err := svc.GetPublic(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", pub.DisplayName)
	assert.Equal(t, 28, pub.Age)

	_, err = svc.GetPublic(context.Background(), 2)
	assert.ErrorIs(t, err, ErrProfileNotFound, "banned profiles read as absent")

	_, err = svc.GetPublic(context.Background(), 3)
	assert.ErrorIs(t, err, ErrProfileNotFound, "deactivated profiles read as absent")
}

func TestServiceUpdate_EnumChecks(t *testing.T) {
	store := newStubStore(&Profile{UserID: 7, Gender: GenderFemale, IsActive: true})
	svc := serviceUnderTest(store)

	bad := "martian"
	_, err := svc.Update(context.Background(), 7, &UpdateProfileRequest{Gender: &bad})
	assert.ErrorIs(t, err, ErrUnknownGender)

	tags := []string{InterestAll, "martian"}
	_, err = svc.Update(context.Background(), 7, &UpdateProfileRequest{InterestedIn: &tags})
	assert.ErrorIs(t, err, ErrUnknownInterest)

	name := "Grace"
	p, err := svc.Update(context.Background(), 7, &UpdateProfileRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace", p.DisplayName)
	assert.NotNil(t, store.updated)
}
