package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/domain/entity"
	"github.com/resumeforge/api/internal/domain/repository"
	pginfra "github.com/resumeforge/api/internal/infrastructure/postgres"
	"github.com/resumeforge/api/pkg/helpers"
)

// seed creates a verified Basic demo account that can log in immediately.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	email := getenvDefault("SEED_EMAIL", "demo@resumeforge.dev")
	password := getenvDefault("SEED_PASSWORD", "password123")

	hash, err := helpers.HashPassword(password)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}
	u := &entity.User{
		Email:            email,
		Password:         hash,
		Name:             "Demo User",
		EmailVerified:    true,
		SubscriptionPlan: entity.PlanBasic,
	}
	err = users.Create(ctx, u)
	if errors.Is(err, repository.ErrDuplicate) {
		logger.WithField("email", email).Info("demo user already exists")
		return
	}
	if err != nil {
		logger.Fatalf("failed to seed user: %v", err)
	}
	logger.WithFields(logrus.Fields{"id": u.ID, "email": email}).Info("seeded demo user")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
