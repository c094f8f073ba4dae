// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

var (
	// ErrInvalidQueryState means the requester is missing data the
	// query cannot run without, i.e. no location on file.
	ErrInvalidQueryState = errors.New("profile has no location set")

	// ErrInvalidRange means the effective query parameters are
	// contradictory, e.g. age_min above age_max.
	ErrInvalidRange = errors.New("invalid query range")

	// ErrStorageUnavailable wraps a failed candidate store read. It is
	// propagated, never retried here.
	ErrStorageUnavailable = errors.New("candidate storage unavailable")
)

type Service interface {
	// FindCandidates runs one discovery query for userID. Options
	// default to the requester's stored preferences.
	FindCandidates(ctx context.Context, userID int64, opts Options) ([]*Candidate, error)

	// CheckCompatibility answers whether two specific users could
	// match, with their current distance.
	CheckCompatibility(ctx context.Context, userID, otherID int64) (*CompatibilityResult, error)
}

type service struct {
	profiles profile.Store
	cfg      config.MatchingConfig
}

func NewService(profiles profile.Store, cfg config.MatchingConfig) Service {
	return &service{profiles: profiles, cfg: cfg}
}

func (s *service) FindCandidates(ctx context.Context, userID int64, opts Options) ([]*Candidate, error) {
	start := time.Now()

	// 1. Resolve the requester; discovery is meaningless without a
	// full preference record.
	requester, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			recordDiscovery("no_profile", 0, time.Since(start))
			return nil, err
		}
		recordDiscovery("storage_error", 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// 2. No location, no query. Returning an empty set here would hide
	// a broken client.
	if requester.Location == nil {
		recordDiscovery("no_location", 0, time.Since(start))
		return nil, ErrInvalidQueryState
	}

	// 3. Overlay explicit options on stored preferences
	now := time.Now()
	radius, ageMin, ageMax, limit, err := s.effectiveParams(requester, opts)
	if err != nil {
		recordDiscovery("invalid_range", 0, time.Since(start))
		return nil, err
	}
	mood := ""
	if opts.Mood != nil {
		mood = *opts.Mood
	}

	bornAfter, bornOnOrBefore := profile.DOBWindow(now, ageMin, ageMax)
	filter := profile.CandidateFilter{
		ExcludeUserID:  userID,
		Center:         *requester.Location,
		RadiusMeters:   radius,
		BornAfter:      bornAfter,
		BornOnOrBefore: bornOnOrBefore,
		Mood:           mood,
		Now:            now,
		Limit:          limit,
	}

	// 4. One compound read against the store. The limit caps this page,
	// not the final result.
	page, err := s.profiles.FindCandidates(ctx, filter)
	if err != nil {
		recordDiscovery("storage_error", 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// 5. Mutual-interest post-filter. Compatibility needs both users'
	// full preference records, so it cannot be pushed into the store
	// query; filtering after the cap means a page full of incompatible
	// profiles shrinks the result rather than pulling more rows.
	candidates := make([]*Candidate, 0, len(page))
	for _, c := range page {
		if !Compatible(requester, c) {
			continue
		}
		candidates = append(candidates, &Candidate{
			PublicProfile:  *c.Public(now),
			DistanceMeters: geo.DistanceMeters(requester.Location, c.Location),
		})
	}

	recordDiscovery("ok", len(candidates), time.Since(start))
	return candidates, nil
}

func (s *service) CheckCompatibility(ctx context.Context, userID, otherID int64) (*CompatibilityResult, error) {
	a, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.profiles.Get(ctx, otherID)
	if err != nil {
		return nil, err
	}

	result := &CompatibilityResult{
		Compatible:     Compatible(a, b),
		DistanceMeters: geo.DistanceMeters(a.Location, b.Location),
	}
	recordCompatibilityCheck(result.Compatible)
	return result, nil
}

// effectiveParams merges explicit options with the requester's stored
// preferences and the configured bounds.
func (s *service) effectiveParams(requester *profile.Profile, opts Options) (radius, ageMin, ageMax, limit int, err error) {
	radius = requester.SearchRadiusMeters
	if opts.MaxDistanceMeters != nil {
		radius = *opts.MaxDistanceMeters
	}
	if radius <= 0 {
		radius = s.cfg.DefaultRadiusMeters
	}
	if radius <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: radius must be positive", ErrInvalidRange)
	}
	if s.cfg.MaxRadiusMeters > 0 && radius > s.cfg.MaxRadiusMeters {
		radius = s.cfg.MaxRadiusMeters
	}

	ageMin = requester.AgeMin
	if opts.AgeMin != nil {
		ageMin = *opts.AgeMin
	}
	ageMax = requester.AgeMax
	if opts.AgeMax != nil {
		ageMax = *opts.AgeMax
	}
	if ageMin > ageMax {
		return 0, 0, 0, 0, fmt.Errorf("%w: age_min %d above age_max %d", ErrInvalidRange, ageMin, ageMax)
	}
	// Hard floor and ceiling regardless of stored preferences
	if ageMin < s.cfg.MinAge {
		ageMin = s.cfg.MinAge
	}
	if ageMax > s.cfg.MaxAge {
		ageMax = s.cfg.MaxAge
	}

	limit = s.cfg.MaxPageSize
	if opts.Limit != nil && *opts.Limit > 0 && *opts.Limit < limit {
		limit = *opts.Limit
	}

	return radius, ageMin, ageMax, limit, nil
}
