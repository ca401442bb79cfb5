// Command token registers a user if needed and prints a session token for it.
//
//	go run ./cmd/token -email ann@example.com -name Ann
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmynk/groupshare/internal/auth"
	"github.com/mmynk/groupshare/internal/config"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage/sqlite"
	"github.com/mmynk/groupshare/pkg/logging"
)

func main() {
	email := flag.String("email", "", "user email (required)")
	name := flag.String("name", "", "display name for a new user")
	flag.Parse()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireAuth()
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, err := issue(context.Background(), cfg, *email, *name)
	if err != nil {
		logger.Error("Failed to issue token", "email", *email, "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func issue(ctx context.Context, cfg *config.Config, email, name string) (string, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	user, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		user = &models.User{Email: email, DisplayName: name}
		if err := store.CreateUser(ctx, user); err != nil {
			return "", err
		}
		slog.Info("User created", "user_id", user.ID, "email", user.Email)
	}

	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL).Generate(user)
}
