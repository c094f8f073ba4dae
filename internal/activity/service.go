// internal/activity/service.go

package activity

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrNotHost          = errors.New("only the host can do that")
	ErrActivityFull     = errors.New("activity is full")
	ErrActivityClosed   = errors.New("activity is closed")
	ErrHostCannotLeave  = errors.New("the host cannot leave, cancel instead")
	ErrUnknownCategory  = errors.New("unknown activity category")
	ErrPastStart        = errors.New("starts_at must be in the future")
	ErrNoLocation       = errors.New("no location available for nearby search")
)

// Notifier delivers user-facing notifications; the notify service
// implements it.
type Notifier interface {
	Publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) error
}

// MyActivities groups a user's hosted and joined meetups.
type MyActivities struct {
	Hosted []*Activity `json:"hosted"`
	Joined []*Activity `json:"joined"`
}

type Service interface {
	Create(ctx context.Context, hostID int64, req *CreateActivityRequest) (*Activity, error)
	Get(ctx context.Context, id, viewerID int64) (*Activity, error)
	Update(ctx context.Context, id, hostID int64, req *UpdateActivityRequest) (*Activity, error)
	Cancel(ctx context.Context, id, hostID int64) error
	Nearby(ctx context.Context, userID int64, q NearbyQuery) ([]*Activity, error)
	Join(ctx context.Context, id, userID int64) error
	Leave(ctx context.Context, id, userID int64) error
	Members(ctx context.Context, id, viewerID int64) ([]*profile.PublicProfile, error)
	Mine(ctx context.Context, userID int64) (*MyActivities, error)
}

type service struct {
	repo     Repository
	profiles profile.Store
	notifier Notifier
	cfg      config.MatchingConfig
}

func NewService(repo Repository, profiles profile.Store, notifier Notifier, cfg config.MatchingConfig) Service {
	return &service{
		repo:     repo,
		profiles: profiles,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *service) Create(ctx context.Context, hostID int64, req *CreateActivityRequest) (*Activity, error) {
	if !ValidCategory(req.Category) {
		return nil, ErrUnknownCategory
	}
	if !req.StartsAt.After(time.Now()) {
		return nil, ErrPastStart
	}

	a := &Activity{
		HostID:      hostID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Lat:         req.Lat,
		Lng:         req.Lng,
		PlaceName:   req.PlaceName,
		StartsAt:    req.StartsAt,
		Capacity:    req.Capacity,
		Status:      StatusOpen,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	// The host takes the first seat
	if _, err := s.repo.Join(ctx, a.ID, hostID); err != nil {
		logrus.WithError(err).WithField("activity_id", a.ID).Warn("failed to seat host")
	}
	a.MemberCount = 1
	a.Joined = true

	logrus.WithFields(logrus.Fields{"activity_id": a.ID, "host_id": hostID}).Info("activity created")
	return a, nil
}

func (s *service) Get(ctx context.Context, id, viewerID int64) (*Activity, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	host, err := s.profiles.Get(ctx, a.HostID)
	if err != nil || !host.IsActive || host.IsBanned {
		// An activity with an invisible host is invisible too
		return nil, ErrActivityNotFound
	}
	a.Host = host.Public(time.Now())

	joined, err := s.repo.IsMember(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	a.Joined = joined

	if viewer, err := s.profiles.Get(ctx, viewerID); err == nil && viewer.Location != nil {
		a.DistanceMeters = geo.DistanceMeters(viewer.Location, a.Location())
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, id, hostID int64, req *UpdateActivityRequest) (*Activity, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.HostID != hostID {
		return nil, ErrNotHost
	}
	if a.Status != StatusOpen {
		return nil, ErrActivityClosed
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.PlaceName != nil {
		a.PlaceName = *req.PlaceName
	}
	if req.StartsAt != nil {
		if !req.StartsAt.After(time.Now()) {
			return nil, ErrPastStart
		}
		a.StartsAt = *req.StartsAt
	}
	if req.Capacity != nil {
		if *req.Capacity < a.MemberCount {
			return nil, utils.NewValidationError("capacity cannot drop below the current member count (%d)", a.MemberCount)
		}
		a.Capacity = *req.Capacity
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Cancel(ctx context.Context, id, hostID int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.HostID != hostID {
		return ErrNotHost
	}
	if a.Status == StatusCancelled {
		return nil
	}

	if err := s.repo.SetStatus(ctx, id, StatusCancelled); err != nil {
		return err
	}

	members, err := s.repo.MemberIDs(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("activity_id", id).Warn("failed to load members for cancellation notice")
		return nil
	}
	for _, uid := range members {
		if uid == hostID {
			continue
		}
		s.publish(ctx, uid, "activity.cancelled", "Activity cancelled",
			a.Title+" was cancelled by the host.", map[string]string{"activity_id": formatID(id)})
	}
	return nil
}

func (s *service) Nearby(ctx context.Context, userID int64, q NearbyQuery) ([]*Activity, error) {
	requester, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 1. Resolve the search center and radius
	center := q.Center
	if center == nil {
		center = requester.Location
	}
	if center == nil {
		return nil, ErrNoLocation
	}
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = requester.SearchRadiusMeters
	}
	if radius <= 0 {
		radius = s.cfg.DefaultRadiusMeters
	}
	if s.cfg.MaxRadiusMeters > 0 && radius > s.cfg.MaxRadiusMeters {
		radius = s.cfg.MaxRadiusMeters
	}
	if q.Category != "" && !ValidCategory(q.Category) {
		return nil, ErrUnknownCategory
	}
	limit := q.Limit
	if limit <= 0 || limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	// 2. One feed query
	page, err := s.repo.Nearby(ctx, NearbyFilter{
		Center:       *center,
		RadiusMeters: radius,
		Category:     q.Category,
		After:        time.Now(),
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return []*Activity{}, nil
	}

	// 3. Hydrate hosts and the viewer's membership in one batch each
	hostIDs := make([]int64, 0, len(page))
	activityIDs := make([]int64, 0, len(page))
	for _, a := range page {
		hostIDs = append(hostIDs, a.HostID)
		activityIDs = append(activityIDs, a.ID)
	}
	hosts, err := s.profiles.GetMany(ctx, hostIDs)
	if err != nil {
		return nil, err
	}
	hostByID := make(map[int64]*profile.Profile, len(hosts))
	for _, h := range hosts {
		hostByID[h.UserID] = h
	}
	joinedIDs, err := s.repo.MemberOf(ctx, userID, activityIDs)
	if err != nil {
		return nil, err
	}
	joined := make(map[int64]bool, len(joinedIDs))
	for _, id := range joinedIDs {
		joined[id] = true
	}

	now := time.Now()
	out := make([]*Activity, 0, len(page))
	for _, a := range page {
		if a.MemberCount >= a.Capacity {
			// Full meetups stay out of the feed
			continue
		}
		host, ok := hostByID[a.HostID]
		if !ok || !host.IsActive || host.IsBanned {
			continue
		}
		a.Host = host.Public(now)
		a.Joined = joined[a.ID]
		a.DistanceMeters = geo.DistanceMeters(center, a.Location())
		out = append(out, a)
	}
	return out, nil
}

func (s *service) Join(ctx context.Context, id, userID int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != StatusOpen || !a.StartsAt.After(time.Now()) {
		return ErrActivityClosed
	}

	// Joining twice is fine and costs nothing
	already, err := s.repo.IsMember(ctx, id, userID)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	inserted, err := s.repo.Join(ctx, id, userID)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrActivityFull
	}

	s.publish(ctx, a.HostID, "activity.joined", "New attendee",
		"Someone joined "+a.Title+".", map[string]string{"activity_id": formatID(id)})
	return nil
}

func (s *service) Leave(ctx context.Context, id, userID int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.HostID == userID {
		return ErrHostCannotLeave
	}
	return s.repo.Leave(ctx, id, userID)
}

// Members lists the attendees of a visible activity, in join order,
// skipping profiles that are no longer visible themselves.
func (s *service) Members(ctx context.Context, id, viewerID int64) ([]*profile.PublicProfile, error) {
	if _, err := s.Get(ctx, id, viewerID); err != nil {
		return nil, err
	}

	ids, err := s.repo.MemberIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*profile.PublicProfile{}, nil
	}

	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	now := time.Now()
	out := make([]*profile.PublicProfile, 0, len(ids))
	for _, uid := range ids {
		p, ok := byID[uid]
		if !ok || !p.IsActive || p.IsBanned {
			continue
		}
		out = append(out, p.Public(now))
	}
	return out, nil
}

func (s *service) Mine(ctx context.Context, userID int64) (*MyActivities, error) {
	hosted, err := s.repo.ListByHost(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range hosted {
		a.Joined = true
	}
	for _, a := range joined {
		a.Joined = true
	}

	result := &MyActivities{Hosted: hosted, Joined: joined}
	if result.Hosted == nil {
		result.Hosted = []*Activity{}
	}
	if result.Joined == nil {
		result.Joined = []*Activity{}
	}
	return result, nil
}

func (s *service) publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, userID, kind, title, body, data); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to publish notification")
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
