// cmd/api/main.go

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moodlyapp/moodly-backend/internal/activity"
	"github.com/moodlyapp/moodly-backend/internal/auth"
	"github.com/moodlyapp/moodly-backend/internal/common/database"
	"github.com/moodlyapp/moodly-backend/internal/common/logger"
	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/match"
	"github.com/moodlyapp/moodly-backend/internal/matching"
	"github.com/moodlyapp/moodly-backend/internal/notify"
	"github.com/moodlyapp/moodly-backend/internal/ops"
	"github.com/moodlyapp/moodly-backend/internal/otp"
	"github.com/moodlyapp/moodly-backend/internal/premium"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

func main() {
	// 1. Environment and configuration
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using process environment")
	}

	cfg := config.Load()
	logger.Setup(cfg.Env)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// 2. PostgreSQL
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	if err := runMigrations(db); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}
	logrus.Info("database migrations applied")

	// 3. Redis, optional: signin lockouts degrade gracefully without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Warn("redis unavailable, continuing without it")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 4. Profile store: postgres by default, mongo when configured
	var profileStore profile.Store
	var mongoClient *mongo.Client
	switch cfg.ProfileStore {
	case "mongo":
		mongoClient, err = database.NewMongoClient(context.Background(), cfg.MongoURL)
		if err != nil {
			logrus.WithError(err).Fatal("failed to connect to mongo")
		}
		mongoStore := profile.NewMongoStore(mongoClient.Database(cfg.MongoDatabase))
		if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
			logrus.WithError(err).Warn("failed to ensure mongo indexes")
		}
		profileStore = mongoStore
		logrus.Info("using mongo profile store")
	default:
		profileStore = profile.NewPostgresStore(db)
		logrus.Info("using postgres profile store")
	}

	// 5. Photo uploads
	uploader, err := profile.NewUploader(cfg.Upload)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize upload storage")
	}

	// 6. Verification codes
	emailProvider := otp.NewEmailProvider(cfg.OTP)
	smsProvider := otp.NewSMSProvider(cfg.OTP)
	otpService := otp.NewService(otp.NewPostgresRepository(db), emailProvider, smsProvider, cfg.OTP.CodeTTL, cfg.OTP.MaxAttempts)

	// 7. Authentication
	authService := auth.NewService(auth.NewPostgresRepository(db), otpService, redisClient, cfg)
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)

	// 8. Notifications: websocket hub plus FCM fallback
	hub := notify.NewHub()
	go hub.Run()

	var pusher notify.Pusher
	if cfg.FCM.CredentialsFile != "" || cfg.FCM.CredentialsJSON != "" {
		pusher, err = notify.NewFCMPusher(context.Background(), cfg.FCM)
		if err != nil {
			logrus.WithError(err).Warn("firebase unavailable, push delivery disabled")
			pusher = notify.NewLogPusher()
		} else {
			logrus.Info("firebase push delivery enabled")
		}
	} else {
		pusher = notify.NewLogPusher()
	}

	notifyService := notify.NewService(notify.NewPostgresRepository(db), hub, pusher)
	notifyHandler := notify.NewHandler(notifyService, hub)

	// 9. Profiles and moods
	profileService := profile.NewService(profileStore, uploader, redisClient, cfg.Mood, cfg.Matching)
	profileHandler := profile.NewHandler(profileService, cfg.Upload.MaxSizeBytes)

	// 10. Discovery
	matchingService := matching.NewService(profileStore, cfg.Matching)
	matchingHandler := matching.NewHandler(matchingService)

	// 11. Premium subscriptions
	premiumService := premium.NewService(premium.NewPostgresRepository(db), profileStore, premium.NewSandboxProvider(), notifyService, cfg.Premium)
	premiumHandler := premium.NewHandler(premiumService)

	// 12. Likes and matches
	matchService := match.NewService(match.NewPostgresRepository(db), profileStore, premiumService, notifyService, cfg.Likes)
	matchHandler := match.NewHandler(matchService)

	// 13. Activities
	activityService := activity.NewService(activity.NewPostgresRepository(db), profileStore, notifyService, cfg.Matching)
	activityHandler := activity.NewHandler(activityService)

	// 14. Public router
	router := mux.NewRouter()
	router.Use(logger.RequestLogger)
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	// Preflight requests must match a route for middleware to run
	router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if cfg.Upload.Provider == "local" {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Upload.LocalDir))))
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	auth.RegisterRoutes(api, authHandler, authMiddleware)
	profile.RegisterRoutes(api, profileHandler, authMiddleware)
	matching.RegisterRoutes(api, matchingHandler, authMiddleware)
	match.RegisterRoutes(api, matchHandler, authMiddleware)
	activity.RegisterRoutes(api, activityHandler, authMiddleware)
	premium.RegisterRoutes(api, premiumHandler, authMiddleware)
	notify.RegisterRoutes(api, notifyHandler, authMiddleware)

	// 15. Ops listener: probes, metrics, moderation
	opsRouter := ops.NewRouter(ops.Probes{DB: db, Redis: redisClient, Mongo: mongoClient}, profileService, cfg.InternalToken)
	opsSrv := &http.Server{
		Addr:    ":" + cfg.OpsPort,
		Handler: opsRouter,
	}
	go func() {
		logrus.WithField("port", cfg.OpsPort).Info("ops server listening")
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("ops server failed")
		}
	}()

	// 16. Background jobs
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile.NewSweeper(profileStore, cfg.Mood.HistoryRetention).Start(rootCtx)
	premium.NewSweeper(premiumService).Start(rootCtx)
	go runMaintenance(rootCtx, authService, otpService)

	// 17. Serve
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("api server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("api server failed")
		}
	}()

	<-rootCtx.Done()
	logrus.Info("shutdown signal received")

	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("api server shutdown failed")
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("ops server shutdown failed")
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logrus.WithError(err).Error("mongo disconnect failed")
		}
	}

	logrus.Info("server exited")
}

// runMaintenance prunes expired sessions and verification codes on an
// hourly cadence.
func runMaintenance(ctx context.Context, authService auth.Service, otpService otp.Service) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)

			if n, err := authService.PurgeExpiredSessions(jobCtx); err != nil {
				logrus.WithError(err).Warn("session purge failed")
			} else if n > 0 {
				logrus.WithField("purged", n).Debug("expired sessions purged")
			}

			if n, err := otpService.CleanupExpired(jobCtx); err != nil {
				logrus.WithError(err).Warn("verification code purge failed")
			} else if n > 0 {
				logrus.WithField("purged", n).Debug("expired codes purged")
			}

			cancel()
		}
	}
}

func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			next.ServeHTTP(w, r)
		})
	}
}
