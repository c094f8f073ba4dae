// internal/notify/models.go

package notify

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Notification kinds emitted by the other services.
const (
	KindLikeReceived      = "like.received"
	KindMatchCreated      = "match.created"
	KindActivityJoined    = "activity.joined"
	KindActivityCancelled = "activity.cancelled"
	KindPremiumActivated  = "premium.activated"
	KindPremiumExpired    = "premium.expired"
)

// Device platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

func ValidPlatform(s string) bool {
	return s == PlatformIOS || s == PlatformAndroid || s == PlatformWeb
}

// Data is the free-form payload attached to a notification, stored as
// JSONB.
type Data map[string]string

// Scan implements sql.Scanner.
func (d *Data) Scan(value interface{}) error {
	if value == nil {
		*d = make(Data)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// Value implements driver.Valuer.
func (d Data) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	return json.Marshal(d)
}

// Notification is one inbox entry.
type Notification struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"-"`
	Kind      string     `db:"kind" json:"kind"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	Data      Data       `db:"data" json:"data,omitempty"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// PushToken is one registered device.
type PushToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Token     string    `db:"token" json:"token"`
	Platform  string    `db:"platform" json:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Envelope is the frame written to a live websocket.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Inbound is what a client may send over the socket; only read acks
// are understood.
type Inbound struct {
	Type string  `json:"type"`
	IDs  []int64 `json:"ids,omitempty"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type MarkReadRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}
