// internal/notify/push.go

package notify

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/moodlyapp/moodly-backend/internal/config"
)

// Pusher delivers a notification to a set of device tokens.
type Pusher interface {
	Push(ctx context.Context, tokens []string, n *Notification) error
}

// fcmPusher sends through Firebase Cloud Messaging.
type fcmPusher struct {
	client *messaging.Client
}

// NewFCMPusher builds a pusher from whichever Firebase credential the
// config carries.
func NewFCMPusher(ctx context.Context, cfg config.FCMConfig) (Pusher, error) {
	var opt option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	case cfg.CredentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	default:
		return nil, errors.New("no firebase credentials configured")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &fcmPusher{client: client}, nil
}

func (p *fcmPusher) Push(ctx context.Context, tokens []string, n *Notification) error {
	if len(tokens) == 0 {
		return nil
	}

	// Copy so the caller's notification is left untouched
	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["kind"] = n.Kind

	base := &messaging.Notification{
		Title: n.Title,
		Body:  n.Body,
	}

	if len(tokens) == 1 {
		_, err := p.client.Send(ctx, &messaging.Message{
			Token:        tokens[0],
			Notification: base,
			Data:         data,
		})
		return err
	}

	batch := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		batch = append(batch, &messaging.Message{
			Token:        token,
			Notification: base,
			Data:         data,
		})
	}
	resp, err := p.client.SendAll(ctx, batch)
	if err != nil {
		return err
	}
	if resp.FailureCount > 0 {
		logrus.WithFields(logrus.Fields{
			"failed": resp.FailureCount,
			"total":  len(batch),
		}).Warn("some push deliveries failed")
	}
	return nil
}

// logPusher stands in when Firebase is not configured.
type logPusher struct{}

func NewLogPusher() Pusher {
	return &logPusher{}
}

func (p *logPusher) Push(ctx context.Context, tokens []string, n *Notification) error {
	logrus.WithFields(logrus.Fields{
		"tokens": len(tokens),
		"kind":   n.Kind,
		"title":  n.Title,
	}).Info("push (log only)")
	return nil
}
