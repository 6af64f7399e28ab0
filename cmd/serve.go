// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/db"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/router"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [-p port] [-t sqlite|postgres] [-d url] [-policy file]",
		Short: "Start the API server",
		Long: `Starts the HTTP API and the live wheel websocket.

Flags fall back to PORT, DATABASE_TYPE, DATABASE_URL, LOG_LEVEL, POLICY_FILE,
SHARE_SLUG_SALT and IP_HASH_SALT. Both salts are required.`,
		Example: `  # SQLite in the working directory
  SHARE_SLUG_SALT=s IP_HASH_SALT=i literary-wheel serve

  # PostgreSQL with a tuning file
  literary-wheel serve -t postgres -d postgres://localhost/wheel -policy policy.yaml`,
		// cliparse owns the flag set so the server keeps one flag syntax.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliparse.ParseFlags(args)
			if errors.Is(err, flag.ErrHelp) {
				return nil
			}
			if err != nil {
				return err
			}
			level, _ := cliparse.ParseLogLevel(cfg.LogLevel)
			slog.SetDefault(newLogger(os.Stdout, level))

			return serve(cmd.Context(), cfg)
		},
	}
	return cmd
}

func serve(ctx context.Context, cfg cliparse.Config) error {
	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.CreateSchema(conn); err != nil {
		return err
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           middleware.CORS(router.NewRouter(conn, cfg)),
		ReadHeaderTimeout: 10 * time.Second,
		// Websocket sessions outlive Shutdown; they watch this context instead.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
			return err
		}
		slog.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
