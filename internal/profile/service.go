// internal/profile/service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/config"
)

var (
	ErrInvalidAge      = errors.New("age must be between 18 and 100")
	ErrInvalidDate     = errors.New("date_of_birth must be formatted YYYY-MM-DD")
	ErrUnknownGender   = errors.New("unknown gender identity")
	ErrUnknownInterest = errors.New("interested_in contains an unknown tag")
	ErrUnknownMood     = errors.New("unknown mood")
	ErrInvalidAgeRange = errors.New("age_min cannot exceed age_max")
)

// presenceThrottle caps how often a profile's last_seen is rewritten.
const presenceThrottle = 60 * time.Second

type Service interface {
	Create(ctx context.Context, userID int64, req *CreateProfileRequest) (*Profile, error)
	Get(ctx context.Context, userID int64) (*Profile, error)
	GetPublic(ctx context.Context, userID int64) (*PublicProfile, error)
	Update(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error)
	UpdateLocation(ctx context.Context, userID int64, req *UpdateLocationRequest) error
	SetMood(ctx context.Context, userID int64, req *UpdateMoodRequest) (*Profile, error)
	ClearMood(ctx context.Context, userID int64) error
	MoodHistory(ctx context.Context, userID int64, limit int) ([]*MoodEntry, error)
	UpdatePreferences(ctx context.Context, userID int64, req *UpdatePreferencesRequest) (*Profile, error)
	SetPhoto(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (string, error)
	Deactivate(ctx context.Context, userID int64) error
	Reactivate(ctx context.Context, userID int64) error
	SetBanned(ctx context.Context, userID int64, banned bool) error
	TouchLastSeen(ctx context.Context, userID int64)
}

type service struct {
	store    Store
	uploads  UploadService
	redis    *redis.Client
	moodCfg  config.MoodConfig
	matchCfg config.MatchingConfig
}

// NewService wires the profile service. redisClient may be nil; the
// presence throttle then degrades to writing last_seen on every touch.
func NewService(store Store, uploads UploadService, redisClient *redis.Client, moodCfg config.MoodConfig, matchCfg config.MatchingConfig) Service {
	return &service{
		store:    store,
		uploads:  uploads,
		redis:    redisClient,
		moodCfg:  moodCfg,
		matchCfg: matchCfg,
	}
}

func (s *service) Create(ctx context.Context, userID int64, req *CreateProfileRequest) (*Profile, error) {
	// 1. Parse and bound the date of birth
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidDate
	}
	age := AgeAt(dob, time.Now())
	if age < 18 || age > 100 {
		return nil, ErrInvalidAge
	}

	// 2. Enum checks
	if !ValidGender(req.Gender) {
		return nil, ErrUnknownGender
	}
	for _, tag := range req.InterestedIn {
		if !ValidInterest(tag) {
			return nil, ErrUnknownInterest
		}
	}

	// 3. Fill defaults and persist
	now := time.Now()
	p := &Profile{
		UserID:             userID,
		DisplayName:        req.DisplayName,
		Bio:                req.Bio,
		Gender:             req.Gender,
		InterestedIn:       req.InterestedIn,
		DateOfBirth:        dob,
		MoodTTLHours:       s.moodCfg.DefaultTTLHours,
		SearchRadiusMeters: s.matchCfg.DefaultRadiusMeters,
		AgeMin:             s.matchCfg.MinAge,
		AgeMax:             s.matchCfg.MaxAge,
		IsActive:           true,
		LastSeen:           now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if p.InterestedIn == nil {
		p.InterestedIn = []string{}
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	logrus.WithField("user_id", userID).Info("profile created")
	return p, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*Profile, error) {
	return s.store.Get(ctx, userID)
}

func (s *service) GetPublic(ctx context.Context, userID int64) (*PublicProfile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Banned and deactivated profiles are indistinguishable from absent.
	if !p.IsActive || p.IsBanned {
		return nil, ErrProfileNotFound
	}
	return p.Public(time.Now()), nil
}

func (s *service) Update(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Gender != nil {
		if !ValidGender(*req.Gender) {
			return nil, ErrUnknownGender
		}
		p.Gender = *req.Gender
	}
	if req.InterestedIn != nil {
		for _, tag := range *req.InterestedIn {
			if !ValidInterest(tag) {
				return nil, ErrUnknownInterest
			}
		}
		p.InterestedIn = *req.InterestedIn
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) UpdateLocation(ctx context.Context, userID int64, req *UpdateLocationRequest) error {
	return s.store.UpdateLocation(ctx, userID, geo.Point{Lat: req.Lat, Lng: req.Lng}, time.Now())
}

func (s *service) SetMood(ctx context.Context, userID int64, req *UpdateMoodRequest) (*Profile, error) {
	if !ValidMood(req.Mood) {
		return nil, ErrUnknownMood
	}

	// The history entry snapshots where the mood was declared.
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.store.SetMood(ctx, userID, req.Mood, p.Location, now); err != nil {
		return nil, err
	}

	p.Mood = req.Mood
	p.MoodSetAt = &now
	p.LastSeen = now
	return p, nil
}

func (s *service) ClearMood(ctx context.Context, userID int64) error {
	return s.store.SetMood(ctx, userID, "", nil, time.Now())
}

func (s *service) MoodHistory(ctx context.Context, userID int64, limit int) ([]*MoodEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.MoodHistory(ctx, userID, limit)
}

func (s *service) UpdatePreferences(ctx context.Context, userID int64, req *UpdatePreferencesRequest) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.SearchRadiusMeters != nil {
		radius := *req.SearchRadiusMeters
		if radius > s.matchCfg.MaxRadiusMeters {
			radius = s.matchCfg.MaxRadiusMeters
		}
		p.SearchRadiusMeters = radius
	}
	if req.AgeMin != nil {
		p.AgeMin = *req.AgeMin
	}
	if req.AgeMax != nil {
		p.AgeMax = *req.AgeMax
	}
	if p.AgeMin > p.AgeMax {
		return nil, ErrInvalidAgeRange
	}
	if req.MoodTTLHours != nil {
		p.MoodTTLHours = *req.MoodTTLHours
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetPhoto(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (string, error) {
	url, err := s.uploads.UploadFile(ctx, file, header, "profiles")
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	if err := s.store.SetPhotoURL(ctx, userID, url); err != nil {
		// Don't leave an orphan object behind.
		if delErr := s.uploads.DeleteFile(ctx, url); delErr != nil {
			logrus.WithError(delErr).Warn("failed to delete orphaned photo")
		}
		return "", err
	}
	return url, nil
}

func (s *service) Deactivate(ctx context.Context, userID int64) error {
	return s.store.SetActive(ctx, userID, false)
}

func (s *service) Reactivate(ctx context.Context, userID int64) error {
	return s.store.SetActive(ctx, userID, true)
}

func (s *service) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if err := s.store.SetBanned(ctx, userID, banned); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "banned": banned}).Warn("ban flag changed")
	return nil
}

// TouchLastSeen records activity, throttled through Redis so hot users
// don't turn every request into a write.
func (s *service) TouchLastSeen(ctx context.Context, userID int64) {
	if s.redis != nil {
		key := fmt.Sprintf("presence:%d", userID)
		set, err := s.redis.SetNX(ctx, key, 1, presenceThrottle).Result()
		if err == nil && !set {
			return
		}
	}

	if err := s.store.TouchLastSeen(ctx, userID, time.Now()); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to touch last seen")
	}
}
