// internal/notify/service_test.go

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
)

type memoryNotifyRepo struct {
	nextID        int64
	notifications []*Notification
	tokens        map[string]*PushToken
}

func newMemoryNotifyRepo() *memoryNotifyRepo {
	return &memoryNotifyRepo{tokens: make(map[string]*PushToken)}
}

func (r *memoryNotifyRepo) CreateNotification(ctx context.Context, n *Notification) error {
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	copied := *n
	r.notifications = append(r.notifications, &copied)
	return nil
}

func (r *memoryNotifyRepo) ListNotifications(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*Notification, error) {
	var out []*Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.UserID != userID {
			continue
		}
		if onlyUnread && n.ReadAt != nil {
			continue
		}
		copied := *n
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryNotifyRepo) MarkRead(ctx context.Context, userID int64, ids []int64) (int64, error) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var affected int64
	for _, n := range r.notifications {
		if n.UserID == userID && wanted[n.ID] && n.ReadAt == nil {
			now := time.Now()
			n.ReadAt = &now
			affected++
		}
	}
	return affected, nil
}

func (r *memoryNotifyRepo) MarkAllRead(ctx context.Context, userID int64) error {
	for _, n := range r.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			now := time.Now()
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *memoryNotifyRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *memoryNotifyRepo) DeleteNotification(ctx context.Context, userID, id int64) (bool, error) {
	for i, n := range r.notifications {
		if n.UserID == userID && n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryNotifyRepo) UpsertToken(ctx context.Context, t *PushToken) error {
	r.nextID++
	t.ID = r.nextID
	copied := *t
	r.tokens[t.Token] = &copied
	return nil
}

func (r *memoryNotifyRepo) DeleteToken(ctx context.Context, userID int64, token string) error {
	if t, ok := r.tokens[token]; ok && t.UserID == userID {
		delete(r.tokens, token)
	}
	return nil
}

func (r *memoryNotifyRepo) UserTokens(ctx context.Context, userID int64) ([]string, error) {
	var out []string
	for _, t := range r.tokens {
		if t.UserID == userID {
			out = append(out, t.Token)
		}
	}
	return out, nil
}

type pushCall struct {
	tokens []string
	kind   string
}

type recordingPusher struct {
	calls []pushCall
	err   error
}

func (p *recordingPusher) Push(ctx context.Context, tokens []string, n *Notification) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, pushCall{tokens: tokens, kind: n.Kind})
	return nil
}

func TestPublish_PushesWhenOffline(t *testing.T) {
	repo := newMemoryNotifyRepo()
	pusher := &recordingPusher{}
	svc := NewService(repo, NewHub(), pusher)

	require.NoError(t, svc.RegisterDevice(context.Background(), 7, "device-a", PlatformIOS))
	require.NoError(t, svc.Publish(context.Background(), 7, KindLikeReceived, "New like", "Someone likes you", nil))

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, []string{"device-a"}, pusher.calls[0].tokens)
	assert.Equal(t, KindLikeReceived, pusher.calls[0].kind)

	// The inbox row exists regardless of the channel
	count, err := svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPublish_PrefersLiveSocket(t *testing.T) {
	repo := newMemoryNotifyRepo()
	pusher := &recordingPusher{}
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	svc := NewService(repo, hub, pusher)
	require.NoError(t, svc.RegisterDevice(context.Background(), 7, "device-a", PlatformAndroid))

	c := &client{hub: hub, send: make(chan []byte, 4), userID: 7}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.Connected(7) }, time.Second, 10*time.Millisecond)

	data := map[string]string{"match_id": "42"}
	require.NoError(t, svc.Publish(context.Background(), 7, KindMatchCreated, "It's a match", "Say hi", data))

	select {
	case payload := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		assert.Equal(t, "notification", env.Type)

		var n Notification
		require.NoError(t, json.Unmarshal(env.Data, &n))
		assert.Equal(t, KindMatchCreated, n.Kind)
		assert.Equal(t, "42", n.Data["match_id"])
	case <-time.After(time.Second):
		t.Fatal("no frame on the live socket")
	}

	assert.Empty(t, pusher.calls, "a live socket should suppress push")
}

func TestPublish_InboxOnlyWithoutDevices(t *testing.T) {
	repo := newMemoryNotifyRepo()
	pusher := &recordingPusher{}
	svc := NewService(repo, NewHub(), pusher)

	require.NoError(t, svc.Publish(context.Background(), 9, KindPremiumExpired, "Premium expired", "", nil))

	assert.Empty(t, pusher.calls)
	notifications, err := svc.List(context.Background(), 9, false, 0)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestPublish_PushFailureStillPersists(t *testing.T) {
	repo := newMemoryNotifyRepo()
	pusher := &recordingPusher{err: assert.AnError}
	svc := NewService(repo, NewHub(), pusher)

	require.NoError(t, svc.RegisterDevice(context.Background(), 7, "device-a", PlatformWeb))
	require.NoError(t, svc.Publish(context.Background(), 7, KindActivityCancelled, "Cancelled", "", nil))

	count, err := svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReadTracking(t *testing.T) {
	repo := newMemoryNotifyRepo()
	svc := NewService(repo, NewHub(), &recordingPusher{})

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Publish(context.Background(), 7, KindLikeReceived, "New like", "", nil))
	}

	count, err := svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := svc.List(context.Background(), 7, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, svc.MarkRead(context.Background(), 7, []int64{all[0].ID, all[1].ID}))

	unread, err := svc.List(context.Background(), 7, true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	require.NoError(t, svc.MarkAllRead(context.Background(), 7))
	count, err = svc.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDelete(t *testing.T) {
	repo := newMemoryNotifyRepo()
	svc := NewService(repo, NewHub(), &recordingPusher{})

	require.NoError(t, svc.Publish(context.Background(), 7, KindLikeReceived, "New like", "", nil))
	require.NoError(t, svc.Publish(context.Background(), 7, KindMatchCreated, "It's a match", "", nil))

	all, err := svc.List(context.Background(), 7, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, svc.Delete(context.Background(), 7, all[0].ID))

	remaining, err := svc.List(context.Background(), 7, false, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.NotEqual(t, all[0].ID, remaining[0].ID)

	// Deleting again, or deleting someone else's row, reports not found
	assert.ErrorIs(t, svc.Delete(context.Background(), 7, all[0].ID), ErrNotificationNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 8, remaining[0].ID), ErrNotificationNotFound)
}

func TestRegisterDevice_PlatformChecked(t *testing.T) {
	svc := NewService(newMemoryNotifyRepo(), NewHub(), &recordingPusher{})

	err := svc.RegisterDevice(context.Background(), 7, "device-a", "blackberry")
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
}

func TestRemoveDevice(t *testing.T) {
	repo := newMemoryNotifyRepo()
	pusher := &recordingPusher{}
	svc := NewService(repo, NewHub(), pusher)

	require.NoError(t, svc.RegisterDevice(context.Background(), 7, "device-a", PlatformIOS))
	require.NoError(t, svc.RemoveDevice(context.Background(), 7, "device-a"))

	require.NoError(t, svc.Publish(context.Background(), 7, KindLikeReceived, "New like", "", nil))
	assert.Empty(t, pusher.calls)
}
