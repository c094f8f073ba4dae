// internal/match/service_test.go

package match

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

type likeKey struct{ liker, liked int64 }

type stubRepo struct {
	likes   map[likeKey]time.Time
	matches map[int64]*Match
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		likes:   make(map[likeKey]time.Time),
		matches: make(map[int64]*Match),
	}
}

func (r *stubRepo) CreateLike(ctx context.Context, likerID, likedID int64) (bool, error) {
	key := likeKey{likerID, likedID}
	if _, ok := r.likes[key]; ok {
		return false, nil
	}
	r.likes[key] = time.Now()
	return true, nil
}

func (r *stubRepo) DeleteLike(ctx context.Context, likerID, likedID int64) error {
	delete(r.likes, likeKey{likerID, likedID})
	return nil
}

func (r *stubRepo) HasLike(ctx context.Context, likerID, likedID int64) (bool, error) {
	_, ok := r.likes[likeKey{likerID, likedID}]
	return ok, nil
}

func (r *stubRepo) ReceivedLikes(ctx context.Context, userID int64, limit int) ([]*Like, error) {
	var out []*Like
	for key, at := range r.likes {
		if key.liked == userID {
			out = append(out, &Like{LikerID: key.liker, LikedID: key.liked, CreatedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubRepo) CountLikesSince(ctx context.Context, likerID int64, since time.Time) (int, error) {
	count := 0
	for key, at := range r.likes {
		if key.liker == likerID && !at.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *stubRepo) CreateMatch(ctx context.Context, user1ID, user2ID int64) (*Match, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}
	for _, m := range r.matches {
		if m.User1ID == user1ID && m.User2ID == user2ID {
			m.IsActive = true
			m.UnmatchedBy = nil
			m.UnmatchedAt = nil
			m.MatchedAt = time.Now()
			return m, nil
		}
	}
	r.nextID++
	m := &Match{ID: r.nextID, User1ID: user1ID, User2ID: user2ID, IsActive: true, MatchedAt: time.Now()}
	r.matches[m.ID] = m
	return m, nil
}

func (r *stubRepo) GetMatch(ctx context.Context, matchID int64) (*Match, error) {
	m, ok := r.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

func (r *stubRepo) ListMatches(ctx context.Context, userID int64) ([]*Match, error) {
	var out []*Match
	for _, m := range r.matches {
		if m.IsActive && m.Involves(userID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	return out, nil
}

func (r *stubRepo) IsMatched(ctx context.Context, user1ID, user2ID int64) (bool, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}
	for _, m := range r.matches {
		if m.IsActive && m.User1ID == user1ID && m.User2ID == user2ID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) Unmatch(ctx context.Context, matchID, byUserID int64) error {
	if m, ok := r.matches[matchID]; ok {
		now := time.Now()
		m.IsActive = false
		m.UnmatchedBy = &byUserID
		m.UnmatchedAt = &now
	}
	return nil
}

type stubProfiles struct {
	profile.Store
	profiles map[int64]*profile.Profile
}

func (s *stubProfiles) Get(ctx context.Context, userID int64) (*profile.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubProfiles) GetMany(ctx context.Context, userIDs []int64) ([]*profile.Profile, error) {
	var out []*profile.Profile
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubEntitlements struct {
	premium map[int64]bool
}

func (s *stubEntitlements) IsPremium(ctx context.Context, userID int64) (bool, error) {
	return s.premium[userID], nil
}

type published struct {
	userID int64
	kind   string
}

type stubNotifier struct {
	sent []published
}

func (s *stubNotifier) Publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) error {
	s.sent = append(s.sent, published{userID: userID, kind: kind})
	return nil
}

func (s *stubNotifier) kindsFor(userID int64) []string {
	var out []string
	for _, p := range s.sent {
		if p.userID == userID {
			out = append(out, p.kind)
		}
	}
	return out
}

type fixture struct {
	repo         *stubRepo
	profiles     *stubProfiles
	entitlements *stubEntitlements
	notifier     *stubNotifier
	svc          Service
}

func newFixture(limit int, profiles ...*profile.Profile) *fixture {
	f := &fixture{
		repo:         newStubRepo(),
		profiles:     &stubProfiles{profiles: make(map[int64]*profile.Profile)},
		entitlements: &stubEntitlements{premium: make(map[int64]bool)},
		notifier:     &stubNotifier{},
	}
	for _, p := range profiles {
		f.profiles.profiles[p.UserID] = p
	}
	f.svc = NewService(f.repo, f.profiles, f.entitlements, f.notifier, config.LikesConfig{FreeDailyLimit: limit})
	return f
}

func activeProfile(id int64) *profile.Profile {
	return &profile.Profile{
		UserID:      id,
		DisplayName: "user",
		Gender:      profile.GenderFemale,
		DateOfBirth: time.Now().AddDate(-28, -6, 0),
		IsActive:    true,
	}
}

func TestLike_MutualLikeCreatesMatch(t *testing.T) {
	f := newFixture(50, activeProfile(1), activeProfile(2))

	// First like: no match yet, the liked user gets a teaser
	result, err := f.svc.Like(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.False(t, result.Matched)
	assert.Equal(t, []string{"like.received"}, f.notifier.kindsFor(2))

	// Reverse like completes the pair
	result, err = f.svc.Like(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.NotNil(t, result.Match)
	assert.Equal(t, int64(1), result.Match.User1ID)
	assert.Equal(t, int64(2), result.Match.User2ID)

	assert.Contains(t, f.notifier.kindsFor(1), "match.created")
	assert.Contains(t, f.notifier.kindsFor(2), "match.created")
}

func TestLike_SelfAndHiddenTargets(t *testing.T) {
	bannedTarget := activeProfile(3)
	bannedTarget.IsBanned = true
	f := newFixture(50, activeProfile(1), bannedTarget)

	_, err := f.svc.Like(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSelfLike)

	_, err = f.svc.Like(context.Background(), 1, 3)
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	_, err = f.svc.Like(context.Background(), 1, 99)
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestLike_DailyQuota(t *testing.T) {
	f := newFixture(2, activeProfile(1), activeProfile(2), activeProfile(3), activeProfile(4))

	result, err := f.svc.Like(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, result.LikesRemaining)
	assert.Equal(t, 1, *result.LikesRemaining)

	result, err = f.svc.Like(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, *result.LikesRemaining)

	_, err = f.svc.Like(context.Background(), 1, 4)
	assert.ErrorIs(t, err, ErrLikeQuota)
}

func TestLike_PremiumBypassesQuota(t *testing.T) {
	f := newFixture(1, activeProfile(1), activeProfile(2), activeProfile(3))
	f.entitlements.premium[1] = true

	for _, target := range []int64{2, 3} {
		result, err := f.svc.Like(context.Background(), 1, target)
		require.NoError(t, err)
		assert.Nil(t, result.LikesRemaining, "premium gets no quota counter")
	}
}

func TestLike_RepeatIsNoOp(t *testing.T) {
	f := newFixture(5, activeProfile(1), activeProfile(2))

	_, err := f.svc.Like(context.Background(), 1, 2)
	require.NoError(t, err)

	result, err := f.svc.Like(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	require.NotNil(t, result.LikesRemaining)
	assert.Equal(t, 4, *result.LikesRemaining, "a repeat costs nothing")

	// Only one teaser went out
	assert.Equal(t, []string{"like.received"}, f.notifier.kindsFor(2))
}

func TestReceivedLikes_PremiumOnly(t *testing.T) {
	bannedLiker := activeProfile(4)
	bannedLiker.IsBanned = true
	f := newFixture(50, activeProfile(1), activeProfile(2), activeProfile(3), bannedLiker)

	for _, liker := range []int64{2, 3, 4} {
		_, err := f.repo.CreateLike(context.Background(), liker, 1)
		require.NoError(t, err)
	}

	_, err := f.svc.ReceivedLikes(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrPremiumRequired)

	f.entitlements.premium[1] = true
	likes, err := f.svc.ReceivedLikes(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, likes, 2, "the banned liker is hidden")
}

func TestListMatches_HydratesPartner(t *testing.T) {
	f := newFixture(50, activeProfile(1), activeProfile(2), activeProfile(3))

	_, err := f.repo.CreateMatch(context.Background(), 1, 2)
	require.NoError(t, err)
	_, err = f.repo.CreateMatch(context.Background(), 3, 1)
	require.NoError(t, err)

	matches, err := f.svc.ListMatches(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.NotNil(t, m.Partner)
		assert.NotEqual(t, int64(1), m.Partner.UserID)
	}

	// A banned partner hides the whole match
	f.profiles.profiles[2].IsBanned = true
	matches, err = f.svc.ListMatches(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(3), matches[0].Partner.UserID)
}

func TestUnmatch(t *testing.T) {
	f := newFixture(50, activeProfile(1), activeProfile(2))
	m, err := f.repo.CreateMatch(context.Background(), 1, 2)
	require.NoError(t, err)

	err = f.svc.Unmatch(context.Background(), 3, m.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	err = f.svc.Unmatch(context.Background(), 2, m.ID)
	require.NoError(t, err)
	assert.False(t, f.repo.matches[m.ID].IsActive)

	err = f.svc.Unmatch(context.Background(), 2, 999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestRematchReactivates(t *testing.T) {
	f := newFixture(50, activeProfile(1), activeProfile(2))

	_, err := f.svc.Like(context.Background(), 1, 2)
	require.NoError(t, err)
	result, err := f.svc.Like(context.Background(), 2, 1)
	require.NoError(t, err)
	require.True(t, result.Matched)

	require.NoError(t, f.svc.Unmatch(context.Background(), 1, result.Match.ID))

	// Both likes still exist, so liking again re-forms the same match
	again, err := f.svc.Like(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, again.Matched)
	assert.Equal(t, result.Match.ID, again.Match.ID)
	assert.True(t, f.repo.matches[result.Match.ID].IsActive)
}
