// internal/notify/service.go

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Service fans a notification out to the best available channel: the
// live websocket when the user is connected, device push otherwise.
// The inbox row is written regardless.
type Service interface {
	Publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) error

	List(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID int64, ids []int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, userID, id int64) error

	RegisterDevice(ctx context.Context, userID int64, token, platform string) error
	RemoveDevice(ctx context.Context, userID int64, token string) error
}

type service struct {
	repo   Repository
	hub    *Hub
	pusher Pusher
}

func NewService(repo Repository, hub *Hub, pusher Pusher) Service {
	return &service{repo: repo, hub: hub, pusher: pusher}
}

func (s *service) Publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) error {
	n := &Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		Data:   Data(data),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}

	// Live socket first
	if s.hub != nil {
		if payload, err := marshalEnvelope(n); err == nil {
			if s.hub.Deliver(userID, payload) {
				recordPublished(kind, "ws")
				return nil
			}
		} else {
			logrus.WithError(err).Warn("failed to encode websocket frame")
		}
	}

	// Fall back to device push; delivery failures stay local, the
	// inbox row already exists.
	if s.pusher != nil {
		tokens, err := s.repo.UserTokens(ctx, userID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("failed to load push tokens")
		} else if len(tokens) > 0 {
			if err := s.pusher.Push(ctx, tokens, n); err != nil {
				logrus.WithError(err).WithField("user_id", userID).Warn("push delivery failed")
			} else {
				recordPublished(kind, "push")
				return nil
			}
		}
	}

	recordPublished(kind, "inbox")
	return nil
}

func (s *service) List(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	notifications, err := s.repo.ListNotifications(ctx, userID, onlyUnread, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*Notification{}
	}
	return notifications, nil
}

func (s *service) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.repo.MarkRead(ctx, userID, ids)
	return err
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.repo.DeleteNotification(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *service) RegisterDevice(ctx context.Context, userID int64, token, platform string) error {
	if !ValidPlatform(platform) {
		return utils.NewValidationError("platform must be one of: ios, android, web")
	}
	t := &PushToken{UserID: userID, Token: token, Platform: platform}
	return s.repo.UpsertToken(ctx, t)
}

func (s *service) RemoveDevice(ctx context.Context, userID int64, token string) error {
	return s.repo.DeleteToken(ctx, userID, token)
}

func marshalEnvelope(n *Notification) ([]byte, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type:      "notification",
		Data:      raw,
		Timestamp: time.Now(),
	})
}
