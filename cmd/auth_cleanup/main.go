package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/repository"
)

// One-shot sweep of expired refresh token records, intended for cron.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	deleted, err := repository.NewRefreshTokenRepository(db).DeleteExpired(context.Background(), time.Now())
	if err != nil {
		log.Fatalf("cleanup refresh_tokens failed: %v", err)
	}

	log.Printf("auth cleanup completed: refresh_tokens=%d", deleted)
}
