// internal/otp/models.go

package otp

import "time"

// Purpose says what a verification code unlocks.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "password_reset"
)

// Channel is the delivery transport for a code.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Code is one issued verification code. The code itself is never
// stored; only its SHA-256 hash is.
type Code struct {
	ID          int64      `db:"id"`
	UserID      int64      `db:"user_id"`
	Purpose     string     `db:"purpose"`
	CodeHash    string     `db:"code_hash"`
	Channel     string     `db:"channel"`
	Destination string     `db:"destination"`
	Attempts    int        `db:"attempts"`
	ExpiresAt   time.Time  `db:"expires_at"`
	ConsumedAt  *time.Time `db:"consumed_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// EmailMessage is a rendered email ready for a provider.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// SMSMessage is a rendered text message ready for a provider.
type SMSMessage struct {
	To   string
	Body string
}
