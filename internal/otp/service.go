// internal/otp/service.go

package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrCodeInvalid     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrTooManyRequests = errors.New("too many code requests, try again later")
)

const (
	codeLength = 6

	// issueWindow / issueLimit cap how often a single user can request
	// fresh codes across all purposes.
	issueWindow = time.Hour
	issueLimit  = 5
)

type Service interface {
	Issue(ctx context.Context, userID int64, purpose Purpose, channel Channel, destination string) error
	Verify(ctx context.Context, userID int64, purpose Purpose, code string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo        Repository
	email       EmailProvider
	sms         SMSProvider
	codeTTL     time.Duration
	maxAttempts int
}

func NewService(repo Repository, email EmailProvider, sms SMSProvider, codeTTL time.Duration, maxAttempts int) Service {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &service{
		repo:        repo,
		email:       email,
		sms:         sms,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
	}
}

func (s *service) Issue(ctx context.Context, userID int64, purpose Purpose, channel Channel, destination string) error {
	// 1. Rate-limit issuance per user
	recent, err := s.repo.CountRecent(ctx, userID, issueWindow)
	if err != nil {
		return err
	}
	if recent >= issueLimit {
		return ErrTooManyRequests
	}

	// 2. Retire any still-active codes for this purpose
	if err := s.repo.InvalidateActive(ctx, userID, purpose); err != nil {
		logrus.WithError(err).Warn("failed to invalidate previous codes")
	}

	// 3. Generate and store a fresh code (hash only)
	plain, err := generateCode(codeLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	code := &Code{
		UserID:      userID,
		Purpose:     string(purpose),
		CodeHash:    hashCode(plain),
		Channel:     string(channel),
		Destination: destination,
		ExpiresAt:   time.Now().Add(s.codeTTL),
	}
	if err := s.repo.Create(ctx, code); err != nil {
		return err
	}

	// 4. Deliver
	return s.deliver(ctx, purpose, channel, destination, plain)
}

func (s *service) Verify(ctx context.Context, userID int64, purpose Purpose, plain string) error {
	code, err := s.repo.Latest(ctx, userID, purpose)
	if err != nil {
		return err
	}

	if code.ConsumedAt != nil {
		return ErrCodeInvalid
	}
	if time.Now().After(code.ExpiresAt) {
		return ErrCodeExpired
	}
	if code.Attempts >= s.maxAttempts {
		return ErrTooManyAttempts
	}

	if err := s.repo.IncrementAttempts(ctx, code.ID); err != nil {
		logrus.WithError(err).Warn("failed to record verification attempt")
	}

	if subtle.ConstantTimeCompare([]byte(code.CodeHash), []byte(hashCode(plain))) != 1 {
		return ErrCodeInvalid
	}

	return s.repo.MarkConsumed(ctx, code.ID)
}

func (s *service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now())
}

func (s *service) deliver(ctx context.Context, purpose Purpose, channel Channel, destination, plain string) error {
	minutes := int(s.codeTTL.Minutes())

	switch channel {
	case ChannelSMS:
		if s.sms == nil {
			return errors.New("sms provider not configured")
		}
		return s.sms.SendSMS(ctx, &SMSMessage{
			To:   destination,
			Body: fmt.Sprintf("Your Moodly code is %s. It expires in %d minutes.", plain, minutes),
		})
	case ChannelEmail:
		if s.email == nil {
			return errors.New("email provider not configured")
		}
		return s.email.SendEmail(ctx, &EmailMessage{
			To:      destination,
			Subject: subjectFor(purpose),
			Body:    fmt.Sprintf("Your verification code is: %s\n\nThis code expires in %d minutes.", plain, minutes),
		})
	default:
		return fmt.Errorf("unsupported delivery channel: %s", channel)
	}
}

func subjectFor(purpose Purpose) string {
	switch purpose {
	case PurposeReset:
		return "Reset your Moodly password"
	case PurposeSignup:
		return "Verify your Moodly account"
	default:
		return "Your Moodly verification code"
	}
}

func generateCode(length int) (string, error) {
	const digits = "0123456789"
	code := make([]byte, length)

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[num.Int64()]
	}
	return string(code), nil
}

func hashCode(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
