// internal/auth/service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/otp"
)

type memoryAuthRepo struct {
	users    map[int64]*User
	sessions map[string]*Session
	nextID   int64
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{users: map[int64]*User{}, sessions: map[string]*Session{}}
}

func (r *memoryAuthRepo) CreateUser(_ context.Context, user *User) error {
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *memoryAuthRepo) GetUserByID(_ context.Context, id int64) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (r *memoryAuthRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryAuthRepo) GetUserByProvider(_ context.Context, provider, providerID string) (*User, error) {
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderID != nil && *u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryAuthRepo) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (r *memoryAuthRepo) MarkVerified(_ context.Context, userID int64) error {
	if u, ok := r.users[userID]; ok {
		u.IsVerified = true
	}
	return nil
}

func (r *memoryAuthRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (r *memoryAuthRepo) CreateSession(_ context.Context, session *Session) error {
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	r.sessions[session.RefreshToken] = session
	return nil
}

func (r *memoryAuthRepo) GetSessionByToken(_ context.Context, refreshToken string) (*Session, error) {
	if s, ok := r.sessions[refreshToken]; ok {
		return s, nil
	}
	return nil, ErrInvalidRefreshToken
}

func (r *memoryAuthRepo) RevokeSession(_ context.Context, refreshToken string) error {
	if s, ok := r.sessions[refreshToken]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (r *memoryAuthRepo) RevokeUserSessions(_ context.Context, userID int64) error {
	now := time.Now()
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *memoryAuthRepo) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	var deleted int64
	for token, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// stubOTP accepts exactly one code and records everything it issues.
type stubOTP struct {
	issued   []issuedCode
	issueErr error
	accepted string
}

type issuedCode struct {
	userID      int64
	purpose     otp.Purpose
	channel     otp.Channel
	destination string
}

func (s *stubOTP) Issue(_ context.Context, userID int64, purpose otp.Purpose, channel otp.Channel, destination string) error {
	if s.issueErr != nil {
		return s.issueErr
	}
	s.issued = append(s.issued, issuedCode{userID, purpose, channel, destination})
	return nil
}

func (s *stubOTP) Verify(_ context.Context, _ int64, _ otp.Purpose, code string) error {
	if code != s.accepted {
		return otp.ErrCodeInvalid
	}
	return nil
}

func (s *stubOTP) CleanupExpired(context.Context) (int64, error) { return 0, nil }

type authFixture struct {
	service Service
	repo    *memoryAuthRepo
	otp     *stubOTP
}

func newAuthFixture() *authFixture {
	f := &authFixture{repo: newMemoryAuthRepo(), otp: &stubOTP{accepted: "123456"}}
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	f.service = NewService(f.repo, f.otp, nil, cfg)
	return f
}

func signupRequest() *SignupRequest {
	return &SignupRequest{Email: "ada@example.com", Password: "s3cret-pass"}
}

func TestSignup_CreatesAccountAndSendsCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotZero(t, resp.User.ID)
	assert.False(t, resp.User.IsVerified)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	require.Len(t, f.otp.issued, 1)
	assert.Equal(t, otp.PurposeSignup, f.otp.issued[0].purpose)
	assert.Equal(t, otp.ChannelEmail, f.otp.issued[0].channel)
	assert.Equal(t, "ada@example.com", f.otp.issued[0].destination)

	_, err = f.service.Signup(ctx, signupRequest())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignup_SurvivesDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.otp.issueErr = assert.AnError

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestSignup_Validation(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	_, err := f.service.Signup(ctx, &SignupRequest{Email: "not-an-email", Password: "s3cret-pass"})
	assert.True(t, utils.IsValidationError(err))

	_, err = f.service.Signup(ctx, &SignupRequest{Email: "ada@example.com", Password: "short"})
	assert.True(t, utils.IsValidationError(err))
}

func TestSignin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	_, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	resp, err := f.service.Signin(ctx, &SigninRequest{Email: "ada@example.com", Password: "s3cret-pass"}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = f.service.Signin(ctx, &SigninRequest{Email: "ada@example.com", Password: "wrong-pass"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts get the same error as bad passwords
	_, err = f.service.Signin(ctx, &SigninRequest{Email: "ghost@example.com", Password: "whatever1"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_RotatesSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	first, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	second, err := f.service.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Rotation revoked the old token
	_, err = f.service.Refresh(ctx, first.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.service.Refresh(ctx, second.RefreshToken, "", "")
	assert.NoError(t, err)
}

func TestRefresh_RejectsNonRefreshTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, resp.AccessToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.service.Refresh(ctx, "garbage", "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, resp.RefreshToken))

	_, err = f.service.Refresh(ctx, resp.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestVerifyAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.VerifyAccount(ctx, resp.User.ID, "999999"), otp.ErrCodeInvalid)
	user, err := f.service.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.False(t, user.IsVerified)

	require.NoError(t, f.service.VerifyAccount(ctx, resp.User.ID, "123456"))
	user, err = f.service.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
}

func TestResendCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	req := signupRequest()
	req.Phone = "+33612345678"
	resp, err := f.service.Signup(ctx, req)
	require.NoError(t, err)
	require.Len(t, f.otp.issued, 1)

	require.NoError(t, f.service.ResendCode(ctx, resp.User.ID, "sms"))
	require.Len(t, f.otp.issued, 2)
	assert.Equal(t, otp.ChannelSMS, f.otp.issued[1].channel)
	assert.Equal(t, "+33612345678", f.otp.issued[1].destination)

	// Verified accounts do not get codes
	require.NoError(t, f.service.VerifyAccount(ctx, resp.User.ID, "123456"))
	require.NoError(t, f.service.ResendCode(ctx, resp.User.ID, "email"))
	assert.Len(t, f.otp.issued, 2)
}

func TestPasswordReset_Flow(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	// Unknown emails are silently accepted
	require.NoError(t, f.service.RequestPasswordReset(ctx, "ghost@example.com"))
	assert.Len(t, f.otp.issued, 1)

	require.NoError(t, f.service.RequestPasswordReset(ctx, "ada@example.com"))
	require.Len(t, f.otp.issued, 2)
	assert.Equal(t, otp.PurposeReset, f.otp.issued[1].purpose)

	require.NoError(t, f.service.ConfirmPasswordReset(ctx, &PasswordResetConfirmRequest{
		Email:       "ada@example.com",
		Code:        "123456",
		NewPassword: "n3w-secret-pass",
	}))

	// Old password is out, the new one is in
	_, err = f.service.Signin(ctx, &SigninRequest{Email: "ada@example.com", Password: "s3cret-pass"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.service.Signin(ctx, &SigninRequest{Email: "ada@example.com", Password: "n3w-secret-pass"}, "", "")
	assert.NoError(t, err)

	// Every session opened before the reset is dead
	_, err = f.service.Refresh(ctx, resp.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestValidateAccessToken(t *testing.T) {
	f := newAuthFixture()

	resp, err := f.service.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	claims, err := f.service.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	// Refresh tokens are not access tokens
	_, err = f.service.ValidateAccessToken(resp.RefreshToken)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	resp, err := f.service.Signup(ctx, signupRequest())
	require.NoError(t, err)

	f.repo.sessions[resp.RefreshToken].ExpiresAt = time.Now().Add(-time.Minute)

	purged, err := f.service.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Empty(t, f.repo.sessions)
}
