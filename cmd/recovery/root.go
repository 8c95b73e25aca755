// ABOUTME: Root Cobra command for recovery CLI.
// ABOUTME: Loads config and handles repository and engine lifecycle via PersistentPre/PostRunE.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/recovery/internal/config"
	"github.com/harperreed/recovery/internal/engine"
	"github.com/harperreed/recovery/internal/metrics"
	"github.com/harperreed/recovery/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// skipStorage marks commands that manage their own storage or need none.
const skipStorage = "skip-storage"

var (
	cfg      *config.Config
	repo     storage.Repository
	eng      *engine.Engine
	registry *prometheus.Registry
	logger   zerolog.Logger

	logLevel string
	userID   string

	// now is the engine clock.
	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Daily recovery scoring and training adjustments",
	Long: `Recovery turns daily physiological and subjective signals into a 0-100
readiness score, a category, and a training prescription.

WHAT IT SCORES:

  HRV          current RMSSD against your 7-day baseline
  Sleep        duration, efficiency, deep and REM minutes
  Resting HR   current resting heart rate against baseline
  Subjective   energy, soreness, stress, mood (1-5)

  Missing signals are fine: the score reweights over what you provide and
  confidence drops accordingly.

QUICK START:

  $ recovery data add --hrv-rmssd 62 --resting-hr 51 --sleep-min 450 --sleep-efficiency 91
  $ recovery score compute --from-data      # Score today from stored data
  $ recovery score show                     # Today's score card
  $ recovery decide abc123 accepted         # Log what you did with it
  $ recovery trend                          # Improving, declining, or stable

CATEGORIES:

  recovered        80-100   proceed as planned
  moderate         60-79    proceed as planned
  under_recovered  40-59    reduce intensity and volume by ~15%
  critical         0-39     active recovery or rest

STORAGE:

  SQLite by default at ~/.local/share/recovery/recovery.db. Set "backend" in
  ~/.config/recovery/config.json (or RECOVERY_BACKEND) to "postgres" or "charm".

MCP INTEGRATION:

  Run 'recovery mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger, err = newLogger(cfg)
		if err != nil {
			return err
		}

		if skipsStorage(cmd) {
			return nil
		}
		return openEngine(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRepo()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", defaultUser(), "athlete ID")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(c *config.Config) (zerolog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger(), nil
}

// openEngine opens the configured backend and builds the engine over it.
func openEngine(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	repo, err = cfg.OpenStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err)
	}

	registry = prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		_ = closeRepo()
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	eng = engine.New(repo,
		engine.WithLogger(logger),
		engine.WithClock(now),
		engine.WithMetrics(collector),
		engine.WithTrendWindow(cfg.TrendWindowDays),
		engine.WithBaselineDays(cfg.BaselineDays),
		engine.WithConflictPolicy(cfg.Policy()),
	)
	logger.Debug().Str("backend", cfg.Backend).Msg("storage opened")
	return nil
}

func closeRepo() error {
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo = nil
	eng = nil
	return err
}

func skipsStorage(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipStorage] == "true" {
			return true
		}
	}
	return false
}

func defaultUser() string {
	if u := os.Getenv("RECOVERY_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}
