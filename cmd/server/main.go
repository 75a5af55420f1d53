package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xtrntr/marketplace/internal/config"
	"github.com/xtrntr/marketplace/internal/db"
	"github.com/xtrntr/marketplace/internal/logging"
	"github.com/xtrntr/marketplace/migrations"
)

func main() {
	if err := newRootCmd(config.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "marketd",
		Short:         "Escrowed asset marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(config.KeyConfigFile, "", "path to a config file")
	root.PersistentFlags().String("log-format", "plain", "log format (json|plain)")
	root.PersistentFlags().String("log-level", "info", "log level (debug|info|error)")
	root.PersistentFlags().String("database-url", "", "postgres connection string")
	bind(v, root, config.KeyConfigFile, config.KeyConfigFile)
	bind(v, root, config.KeyLogFormat, "log-format")
	bind(v, root, config.KeyLogLevel, "log-level")
	bind(v, root, config.KeyDatabaseURL, "database-url")

	root.AddCommand(newServeCmd(v), newMigrateCmd(v))
	return root
}

func bind(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

func setup(v *viper.Viper) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	logger, err := logging.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().String("redis-addr", "", "redis address for the listing cache")
	cmd.Flags().String("admin", "", "address allowed to administer the marketplace")
	bind(v, cmd, config.KeyHTTPAddr, "addr")
	bind(v, cmd, config.KeyRedisAddr, "redis-addr")
	bind(v, cmd, config.KeyAdmin, "admin")
	return cmd
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(v)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("database.url is required")
			}
			database, err := db.NewDB(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close(cmd.Context())
			if err := database.Migrate(cmd.Context(), migrations.Schema); err != nil {
				return err
			}
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
