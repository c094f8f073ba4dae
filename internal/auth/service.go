// internal/auth/service.go

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/otp"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountLocked       = errors.New("account temporarily locked")
	ErrNotVerified         = errors.New("account not verified")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidGoogleToken  = errors.New("invalid google token")
)

const (
	maxFailedSignins = 5
	lockoutWindow    = 15 * time.Minute

	providerLocal  = "local"
	providerGoogle = "google"
)

type Service interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Signin(ctx context.Context, req *SigninRequest, userAgent, ip string) (*AuthResponse, error)
	GoogleSignin(ctx context.Context, req *GoogleSigninRequest, userAgent, ip string) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken, userAgent, ip string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccount(ctx context.Context, userID int64, code string) error
	ResendCode(ctx context.Context, userID int64, channel string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req *PasswordResetConfirmRequest) error
	ValidateAccessToken(tokenString string) (*utils.TokenClaims, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type service struct {
	repo           Repository
	otp            otp.Service
	redis          *redis.Client
	jwtSecret      string
	accessTTL      time.Duration
	refreshTTL     time.Duration
	googleClientID string
}

func NewService(repo Repository, otpService otp.Service, redisClient *redis.Client, cfg *config.Config) Service {
	return &service{
		repo:           repo,
		otp:            otpService,
		redis:          redisClient,
		jwtSecret:      cfg.JWTSecret,
		accessTTL:      cfg.AccessTokenTTL,
		refreshTTL:     cfg.RefreshTokenTTL,
		googleClientID: cfg.Google.ClientID,
	}
}

func (s *service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	// 1. Validate input
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 2. Reject duplicate emails
	taken, err := s.repo.IsEmailTaken(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	// 3. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 4. Create the account
	user := &User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Provider:     providerLocal,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	// 5. Send a verification code. Signup still succeeds if delivery
	// fails; the client can request a resend.
	if err := s.otp.Issue(ctx, user.ID, otp.PurposeSignup, otp.ChannelEmail, user.Email); err != nil {
		logOTPFailure(user.ID, err)
	}

	// 6. Issue tokens so the client can poll verification status
	return s.issueTokens(ctx, user, "", "")
}

func (s *service) Signin(ctx context.Context, req *SigninRequest, userAgent, ip string) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 1. Check lockout before touching credentials
	if s.isLockedOut(ctx, req.Email) {
		return nil, ErrAccountLocked
	}

	// 2. Look up the account
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Compare password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedSignin(ctx, req.Email)
		return nil, ErrInvalidCredentials
	}
	s.clearFailedSignins(ctx, req.Email)

	// 4. Issue tokens
	return s.issueTokens(ctx, user, userAgent, ip)
}

func (s *service) GoogleSignin(ctx context.Context, req *GoogleSigninRequest, userAgent, ip string) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	// 1. Verify the ID token against Google's tokeninfo endpoint
	oauthService, err := goauth2.NewService(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth service: %w", err)
	}
	info, err := oauthService.Tokeninfo().IdToken(req.IDToken).Context(ctx).Do()
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}
	if s.googleClientID != "" && info.Audience != s.googleClientID {
		return nil, ErrInvalidGoogleToken
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, ErrInvalidGoogleToken
	}

	// 2. Find an existing account for this Google subject
	user, err := s.repo.GetUserByProvider(ctx, providerGoogle, info.UserId)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	// 3. Fall back to the email owner, then to a fresh account.
	// Google accounts arrive verified; no OTP round-trip.
	if user == nil {
		user, err = s.repo.GetUserByEmail(ctx, info.Email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		if user == nil {
			randomSecret, err := randomHex(32)
			if err != nil {
				return nil, err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(randomSecret), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			providerID := info.UserId
			user = &User{
				Email:        info.Email,
				PasswordHash: string(hash),
				Provider:     providerGoogle,
				ProviderID:   &providerID,
				IsVerified:   true,
			}
			if err := s.repo.CreateUser(ctx, user); err != nil {
				return nil, err
			}
		}
	}

	// 4. Issue tokens
	return s.issueTokens(ctx, user, userAgent, ip)
}

func (s *service) Refresh(ctx context.Context, refreshToken, userAgent, ip string) (*AuthResponse, error) {
	// 1. The refresh token must be a valid, unexpired refresh JWT
	claims, err := utils.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil || claims.Type != utils.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	// 2. It must map to a live session
	session, err := s.repo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil || time.Now().After(session.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	// 3. Rotate: revoke the old session, mint a new pair
	if err := s.repo.RevokeSession(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user, userAgent, ip)
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeSession(ctx, refreshToken)
}

func (s *service) VerifyAccount(ctx context.Context, userID int64, code string) error {
	if err := s.otp.Verify(ctx, userID, otp.PurposeSignup, code); err != nil {
		return err
	}
	return s.repo.MarkVerified(ctx, userID)
}

func (s *service) ResendCode(ctx context.Context, userID int64, channel string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}

	if channel == "sms" && user.Phone != nil {
		return s.otp.Issue(ctx, user.ID, otp.PurposeSignup, otp.ChannelSMS, *user.Phone)
	}
	return s.otp.Issue(ctx, user.ID, otp.PurposeSignup, otp.ChannelEmail, user.Email)
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		// Do not leak which emails exist
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.otp.Issue(ctx, user.ID, otp.PurposeReset, otp.ChannelEmail, user.Email)
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req *PasswordResetConfirmRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	if err := s.otp.Verify(ctx, user.ID, otp.PurposeReset, req.Code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	// Changing the password invalidates every open session
	return s.repo.RevokeUserSessions(ctx, user.ID)
}

func (s *service) ValidateAccessToken(tokenString string) (*utils.TokenClaims, error) {
	claims, err := utils.ValidateToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Type != utils.TokenTypeAccess {
		return nil, utils.ErrInvalidToken
	}
	return claims, nil
}

func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, time.Now())
}

func (s *service) issueTokens(ctx context.Context, user *User, userAgent, ip string) (*AuthResponse, error) {
	accessToken, err := utils.GenerateToken(user.ID, user.Email, utils.TokenTypeAccess, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateToken(user.ID, user.Email, utils.TokenTypeRefresh, s.jwtSecret, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		IPAddress:    ip,
		ExpiresAt:    time.Now().Add(s.refreshTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *service) failedKey(email string) string {
	return fmt.Sprintf("auth:failed:%s", email)
}

func (s *service) isLockedOut(ctx context.Context, email string) bool {
	if s.redis == nil {
		return false
	}
	count, err := s.redis.Get(ctx, s.failedKey(email)).Int()
	if err != nil {
		return false
	}
	return count >= maxFailedSignins
}

func (s *service) recordFailedSignin(ctx context.Context, email string) {
	if s.redis == nil {
		return
	}
	key := s.failedKey(email)
	if count, err := s.redis.Incr(ctx, key).Result(); err == nil && count == 1 {
		s.redis.Expire(ctx, key, lockoutWindow)
	}
}

func (s *service) clearFailedSignins(ctx context.Context, email string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, s.failedKey(email))
}

func logOTPFailure(userID int64, err error) {
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"error":   err.Error(),
	}).Warn("failed to send verification code")
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
