// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting, loaded once at startup.
type Config struct {
	Env     string
	Port    string
	OpsPort string

	DatabaseURL   string
	RedisURL      string
	MongoURL      string
	MongoDatabase string
	ProfileStore  string // "postgres" or "mongo"

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// InternalToken guards the ops listener's moderation endpoints.
	InternalToken string

	CORSAllowedOrigins []string

	Matching MatchingConfig
	Mood     MoodConfig
	Likes    LikesConfig
	Premium  PremiumConfig
	Upload   UploadConfig
	OTP      OTPConfig
	Google   GoogleConfig
	FCM      FCMConfig
}

// MatchingConfig bounds the candidate discovery query.
type MatchingConfig struct {
	DefaultRadiusMeters int
	MaxRadiusMeters     int
	MaxPageSize         int
	MinAge              int
	MaxAge              int
}

// MoodConfig controls mood freshness and history retention.
type MoodConfig struct {
	DefaultTTLHours  int
	HistoryRetention time.Duration
}

// LikesConfig caps free-tier swiping.
type LikesConfig struct {
	FreeDailyLimit int
}

// PremiumConfig tunes subscription handling.
type PremiumConfig struct {
	EntitlementCacheTTL time.Duration
}

// UploadConfig selects the photo storage backend.
type UploadConfig struct {
	Provider         string // "s3" or "local"
	S3Bucket         string
	S3Region         string
	S3ForcePathStyle bool
	LocalDir         string
	BaseURL          string
	MaxSizeBytes     int64
}

// OTPConfig selects verification code delivery providers.
type OTPConfig struct {
	EmailProvider string // "sendgrid", "smtp" or "mock"
	SMSProvider   string // "twilio" or "mock"
	CodeTTL       time.Duration
	MaxAttempts   int

	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

// GoogleConfig holds the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID string
}

// FCMConfig holds Firebase credentials for push delivery.
type FCMConfig struct {
	CredentialsFile string
	CredentialsJSON string
}

// Load reads the configuration from the environment with development
// defaults for everything non-secret.
func Load() *Config {
	return &Config{
		Env:     getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		OpsPort: getEnv("OPS_PORT", "9090"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		MongoURL:      getEnv("MONGO_URL", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "moodly"),
		ProfileStore:  getEnv("PROFILE_STORE", "postgres"),

		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		InternalToken: getEnv("INTERNAL_TOKEN", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		Matching: MatchingConfig{
			DefaultRadiusMeters: getEnvInt("MATCH_DEFAULT_RADIUS_M", 25000),
			MaxRadiusMeters:     getEnvInt("MATCH_MAX_RADIUS_M", 150000),
			MaxPageSize:         getEnvInt("MATCH_MAX_PAGE_SIZE", 50),
			MinAge:              getEnvInt("MATCH_MIN_AGE", 18),
			MaxAge:              getEnvInt("MATCH_MAX_AGE", 100),
		},

		Mood: MoodConfig{
			DefaultTTLHours:  getEnvInt("MOOD_DEFAULT_TTL_HOURS", 24),
			HistoryRetention: getEnvDuration("MOOD_HISTORY_RETENTION", 90*24*time.Hour),
		},

		Likes: LikesConfig{
			FreeDailyLimit: getEnvInt("LIKES_FREE_DAILY_LIMIT", 50),
		},

		Premium: PremiumConfig{
			EntitlementCacheTTL: getEnvDuration("PREMIUM_CACHE_TTL", 5*time.Minute),
		},

		Upload: UploadConfig{
			Provider:         getEnv("UPLOAD_PROVIDER", "local"),
			S3Bucket:         getEnv("S3_BUCKET", ""),
			S3Region:         getEnv("S3_REGION", "eu-west-1"),
			S3ForcePathStyle: getEnvBool("S3_FORCE_PATH_STYLE", false),
			LocalDir:         getEnv("UPLOAD_LOCAL_DIR", "./uploads"),
			BaseURL:          getEnv("UPLOAD_BASE_URL", "http://localhost:8080/uploads"),
			MaxSizeBytes:     int64(getEnvInt("UPLOAD_MAX_SIZE_BYTES", 5*1024*1024)),
		},

		OTP: OTPConfig{
			EmailProvider: getEnv("OTP_EMAIL_PROVIDER", "mock"),
			SMSProvider:   getEnv("OTP_SMS_PROVIDER", "mock"),
			CodeTTL:       getEnvDuration("OTP_CODE_TTL", 10*time.Minute),
			MaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 5),

			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			EmailFrom:      getEnv("EMAIL_FROM", "no-reply@moodly.app"),
			EmailFromName:  getEnv("EMAIL_FROM_NAME", "Moodly"),

			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),

			TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},

		Google: GoogleConfig{
			ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		},

		FCM: FCMConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			CredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		},
	}
}

// Validate rejects configurations the server cannot safely start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.ProfileStore {
	case "postgres":
	case "mongo":
		if c.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required when PROFILE_STORE=mongo")
		}
	default:
		return fmt.Errorf("PROFILE_STORE must be postgres or mongo, got %q", c.ProfileStore)
	}

	if c.Matching.MaxPageSize < 1 {
		return fmt.Errorf("MATCH_MAX_PAGE_SIZE must be positive")
	}
	if c.Matching.MinAge < 18 {
		return fmt.Errorf("MATCH_MIN_AGE cannot be below 18")
	}

	switch c.OTP.EmailProvider {
	case "sendgrid":
		if c.OTP.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when OTP_EMAIL_PROVIDER=sendgrid")
		}
	case "smtp":
		if c.OTP.SMTPHost == "" || c.OTP.SMTPUsername == "" || c.OTP.SMTPPassword == "" {
			return fmt.Errorf("SMTP_HOST, SMTP_USERNAME and SMTP_PASSWORD are required when OTP_EMAIL_PROVIDER=smtp")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown OTP_EMAIL_PROVIDER %q", c.OTP.EmailProvider)
	}

	switch c.OTP.SMSProvider {
	case "twilio":
		if c.OTP.TwilioAccountSID == "" || c.OTP.TwilioAuthToken == "" {
			return fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required when OTP_SMS_PROVIDER=twilio")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown OTP_SMS_PROVIDER %q", c.OTP.SMSProvider)
	}

	if c.Upload.Provider == "s3" && c.Upload.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when UPLOAD_PROVIDER=s3")
	}

	if c.IsProduction() {
		if c.JWTSecret == "dev-secret-change-me" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.InternalToken == "" {
			return fmt.Errorf("INTERNAL_TOKEN must be set in production")
		}
		if c.OTP.EmailProvider == "mock" {
			return fmt.Errorf("OTP_EMAIL_PROVIDER=mock is not allowed in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
