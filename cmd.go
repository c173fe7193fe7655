package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const serviceName = "simpleblog"

var configFile string

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "A small blog with accounts and author-owned posts",
		// Running without a subcommand serves the blog.
		RunE:         serve.RunE,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	addConfigFlags(cmd.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newInitDBCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}

func newInitDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the database tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := initDB(cmd.Context(), db); err != nil {
				return err
			}
			cmd.Printf("initialized %s\n", cfg.DBPath)
			return nil
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}

// runServe runs the blog until ctx is cancelled, then shuts down gracefully.
func runServe(ctx context.Context, cfg *Config) error {
	logger := newLogger(serviceName, version, cfg.LogFormat, cfg.LogLevel, nil)
	slog.SetDefault(logger)

	sessions, err := NewSessions([]byte(cfg.JWTSecret), sessionDuration)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := initDB(ctx, db); err != nil {
		return err
	}

	registry := newRegistry()
	metrics := NewMetrics(registry)

	blog, err := NewBlog(newSQLiteStore(db), sessions, newBcryptHasher(cfg.BcryptCost), logger, metrics)
	if err != nil {
		return err
	}

	var obs *obsServer
	if cfg.MetricsAddr != "" {
		obs = newObsServer(cfg.MetricsAddr, registry, func(ctx context.Context) bool {
			return db.PingContext(ctx) == nil
		}, logger)
		if _, err := obs.Start(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           blog.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "db_path", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			logError(shutdownCtx, logger, "stopping observability server", err)
		}
	}
	return srv.Shutdown(shutdownCtx)
}
