package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xtrntr/marketplace/internal/auth"
	"github.com/xtrntr/marketplace/internal/config"
	"github.com/xtrntr/marketplace/internal/db"
	"github.com/xtrntr/marketplace/internal/logging"
	"github.com/xtrntr/marketplace/migrations"
)

// seedPassword is shared by every seeded account.
const seedPassword = "password123"

var seedUsers = []string{"trader1", "trader2", "admin"}

// Seed the database with test users
func main() {
	v := config.New()
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Create the test accounts in Postgres",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogFormat, cfg.LogLevel)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database.url is required")
			}
			return seed(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().String("database-url", "", "postgres connection string")
	if err := v.BindPFlag(config.KeyDatabaseURL, cmd.Flags().Lookup("database-url")); err != nil {
		panic(err)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(ctx)

	if err := database.Migrate(ctx, migrations.Schema); err != nil {
		return err
	}

	authService := auth.NewAuthService(database, cfg.AuthSecret, cfg.TokenTTL)
	for _, username := range seedUsers {
		if _, err := database.GetUserByUsername(ctx, username); err == nil {
			logger.Info().Str("username", username).Msg("user exists, skipping")
			continue
		}
		user, err := authService.Register(ctx, username, seedPassword)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", username, err)
		}
		logger.Info().Str("username", user.Username).Str("address", string(user.Address)).Msg("created user")
	}

	logger.Info().Str("admin", string(auth.AddressFor("admin"))).Msg("set market.admin to this address to administer the marketplace")
	return nil
}
