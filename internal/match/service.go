// internal/match/service.go

package match

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

var (
	ErrSelfLike        = errors.New("cannot like your own profile")
	ErrLikeQuota       = errors.New("daily like limit reached")
	ErrMatchNotFound   = errors.New("match not found")
	ErrNotParticipant  = errors.New("not a participant of this match")
	ErrPremiumRequired = errors.New("premium subscription required")
)

// Entitlements answers premium checks. The premium package implements
// it; the indirection keeps match free of a premium import.
type Entitlements interface {
	IsPremium(ctx context.Context, userID int64) (bool, error)
}

// Notifier delivers user-facing notifications. Implemented by the
// notify service.
type Notifier interface {
	Publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) error
}

type Service interface {
	// Like records a swipe, returning whether it completed a mutual
	// match. Free accounts are capped per day; premium is uncapped.
	Like(ctx context.Context, likerID, likedID int64) (*LikeResult, error)
	Unlike(ctx context.Context, likerID, likedID int64) error

	// ReceivedLikes lists who liked the user. Premium only.
	ReceivedLikes(ctx context.Context, userID int64, limit int) ([]*ReceivedLike, error)

	ListMatches(ctx context.Context, userID int64) ([]*Match, error)
	Unmatch(ctx context.Context, userID, matchID int64) error
}

type service struct {
	repo         Repository
	profiles     profile.Store
	entitlements Entitlements
	notifier     Notifier
	cfg          config.LikesConfig
}

func NewService(repo Repository, profiles profile.Store, entitlements Entitlements, notifier Notifier, cfg config.LikesConfig) Service {
	return &service{
		repo:         repo,
		profiles:     profiles,
		entitlements: entitlements,
		notifier:     notifier,
		cfg:          cfg,
	}
}

func (s *service) Like(ctx context.Context, likerID, likedID int64) (*LikeResult, error) {
	// 1. Sanity checks on the target
	if likerID == likedID {
		return nil, ErrSelfLike
	}
	target, err := s.profiles.Get(ctx, likedID)
	if err != nil {
		return nil, err
	}
	if !target.IsActive || target.IsBanned {
		return nil, profile.ErrProfileNotFound
	}

	// 2. Enforce the free-tier daily quota
	premium := s.isPremium(ctx, likerID)
	var remaining *int
	if !premium {
		used, err := s.repo.CountLikesSince(ctx, likerID, startOfDayUTC(time.Now()))
		if err != nil {
			return nil, err
		}
		if used >= s.cfg.FreeDailyLimit {
			recordLike("quota_blocked")
			return nil, ErrLikeQuota
		}
		left := s.cfg.FreeDailyLimit - used - 1
		remaining = &left
	}

	// 3. Record the like; repeats are no-ops
	created, err := s.repo.CreateLike(ctx, likerID, likedID)
	if err != nil {
		return nil, err
	}
	if !created {
		recordLike("duplicate")
		// Undo the decrement shown to the client; nothing was spent
		if remaining != nil {
			*remaining++
		}
	} else {
		recordLike("created")
	}

	result := &LikeResult{Liked: true, LikesRemaining: remaining}

	// 4. A reverse like turns the pair into a match
	mutual, err := s.repo.HasLike(ctx, likedID, likerID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		if created {
			s.publish(ctx, likedID, "like.received", "Someone likes you", "Open Moodly to find out who.", nil)
		}
		return result, nil
	}

	m, err := s.repo.CreateMatch(ctx, likerID, likedID)
	if err != nil {
		return nil, err
	}
	recordMatch()
	result.Matched = true
	result.Match = m

	for _, uid := range []int64{likerID, likedID} {
		s.publish(ctx, uid, "match.created", "It's a match!", "You and your match both liked each other.", map[string]string{
			"match_id": formatID(m.ID),
		})
	}
	return result, nil
}

func (s *service) Unlike(ctx context.Context, likerID, likedID int64) error {
	return s.repo.DeleteLike(ctx, likerID, likedID)
}

func (s *service) ReceivedLikes(ctx context.Context, userID int64, limit int) ([]*ReceivedLike, error) {
	if !s.isPremium(ctx, userID) {
		return nil, ErrPremiumRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	likes, err := s.repo.ReceivedLikes(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return []*ReceivedLike{}, nil
	}

	likerIDs := make([]int64, 0, len(likes))
	for _, l := range likes {
		likerIDs = append(likerIDs, l.LikerID)
	}
	profiles, err := s.profiles.GetMany(ctx, likerIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	now := time.Now()
	out := make([]*ReceivedLike, 0, len(likes))
	for _, l := range likes {
		p, ok := byID[l.LikerID]
		if !ok || !p.IsActive || p.IsBanned {
			continue
		}
		out = append(out, &ReceivedLike{Liker: p.Public(now), LikedAt: l.CreatedAt})
	}
	return out, nil
}

func (s *service) ListMatches(ctx context.Context, userID int64) ([]*Match, error) {
	matches, err := s.repo.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []*Match{}, nil
	}

	partnerIDs := make([]int64, 0, len(matches))
	for _, m := range matches {
		partnerIDs = append(partnerIDs, m.PartnerID(userID))
	}
	profiles, err := s.profiles.GetMany(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	// Matches whose partner is banned or gone are hidden, matching how
	// lookups of those profiles behave everywhere else.
	now := time.Now()
	visible := make([]*Match, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.PartnerID(userID)]
		if !ok || !p.IsActive || p.IsBanned {
			continue
		}
		m.Partner = p.Public(now)
		visible = append(visible, m)
	}
	return visible, nil
}

func (s *service) Unmatch(ctx context.Context, userID, matchID int64) error {
	m, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.Involves(userID) {
		return ErrNotParticipant
	}

	if err := s.repo.Unmatch(ctx, matchID, userID); err != nil {
		return err
	}
	recordUnmatch()
	return nil
}

func (s *service) isPremium(ctx context.Context, userID int64) bool {
	if s.entitlements == nil {
		return false
	}
	premium, err := s.entitlements.IsPremium(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to check entitlement, treating as free tier")
		return false
	}
	return premium
}

func (s *service) publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, userID, kind, title, body, data); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to publish notification")
	}
}

// startOfDayUTC anchors the daily quota window to UTC midnight.
func startOfDayUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
