// Package main is the telegrasper binary: it archives Telegram channels,
// links drug slang to a knowledge graph and screens channels for trade.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/telegrasper/internal/app"
	"github.com/lueurxax/telegrasper/internal/core/domain"
	"github.com/lueurxax/telegrasper/internal/platform/config"
)

const appName = "telegrasper"

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Telegram channel archiver and drug-argot linker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), scrapeCmd(), checkCmd(), migrateCmd(), versionCmd())

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep a Telegram session open and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zerolog.Logger) error {
				return a.Serve(ctx)
			})
		},
	}
}

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <channel>",
		Short: "Archive the latest messages of one channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := domain.ParseChannelKey(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zerolog.Logger) error {
				res, err := a.Scrape(ctx, key)
				if err != nil {
					return err
				}

				if err := printJSON(cmd, res); err != nil {
					return err
				}

				if res.Status == domain.ScrapeError {
					return errors.New(res.Message)
				}

				return nil
			})
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <channel>",
		Short: "Ask the classifier whether a channel looks like drug trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := domain.ParseChannelKey(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zerolog.Logger) error {
				ok, err := a.Check(ctx, key)
				if err != nil {
					return err
				}

				return printJSON(cmd, map[string]any{"channel": key.String(), "suspicious": ok})
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create document store tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			docs, closeDocs, err := app.OpenDocStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeDocs()

			if err := docs.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate %s: %w", docs.Name(), err)
			}

			logger.Info().Str("store", docs.Name()).Msg("Migrations applied")

			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s (build: %s)\n", appName, version, buildTime)
		},
	}
}

func setup() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	return cfg, &logger, nil
}

func withApp(parent context.Context, fn func(ctx context.Context, a *app.App, logger *zerolog.Logger) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(parent)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a, logger)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("application stopped")

		return nil
	}

	return err
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func newLogger(appEnv, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
