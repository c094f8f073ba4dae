// cmd/envcheck/main.go

// Command envcheck verifies the process environment before a deploy:
// it loads .env, validates the configuration, and pings every backend
// the configuration names.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/moodlyapp/moodly-backend/internal/common/database"
	"github.com/moodlyapp/moodly-backend/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file, using process environment")
	} else {
		fmt.Println("✅ .env loaded")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ invalid configuration: ", err)
	}
	fmt.Println("✅ configuration valid")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ postgres: ", err)
	}
	defer db.Close()

	var tables int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public'`).Scan(&tables); err != nil {
		log.Fatal("❌ postgres query: ", err)
	}
	fmt.Printf("✅ postgres reachable, %d tables\n", tables)

	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("❌ redis: ", err)
		}
		defer rdb.Close()
		fmt.Println("✅ redis reachable")
	} else {
		fmt.Println("redis not configured, skipping")
	}

	if cfg.ProfileStore == "mongo" {
		client, err := database.NewMongoClient(ctx, cfg.MongoURL)
		if err != nil {
			log.Fatal("❌ mongo: ", err)
		}
		defer client.Disconnect(ctx)
		fmt.Println("✅ mongo reachable")
	}

	fmt.Println("✅ environment ready")
}
