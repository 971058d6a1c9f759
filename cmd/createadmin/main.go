package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/config"
	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository/postgres"
	userService "github.com/jwalitptl/feedback-api/internal/service/user"
	"github.com/jwalitptl/feedback-api/pkg/logger"
	"github.com/jwalitptl/feedback-api/pkg/security"
)

// createadmin provisions an administrator account. Administrators cannot
// self-register through the API.
func main() {
	emailAddr := flag.String("email", "", "administrator email (required)")
	password := flag.String("password", "", "administrator password (required, or ADMIN_PASSWORD)")
	username := flag.String("username", "", "username (derived from the email when empty)")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *emailAddr == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Log.Level, true)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	users := userService.NewService(
		postgres.NewUserRepository(postgres.NewBaseRepository(db)),
		security.NewBcryptHasher(0),
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := users.CreateAdmin(ctx, &model.RegisterRequest{
		Email:    *emailAddr,
		Password: *password,
		Username: *username,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create administrator")
	}

	log.Info().
		Str("user_id", admin.ID.String()).
		Str("username", admin.Username).
		Msg("administrator created")
}
