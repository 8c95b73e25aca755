// ABOUTME: CLI command for copying recovery data between storage backends.
// ABOUTME: Reads everything from one backend and replays it into another.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/config"
	"github.com/harperreed/recovery/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom      string
	migrateTo        string
	migrateToDataDir string
	migrateToDSN     string
	migrateForce     bool
	migrateDryRun    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy recovery data to another storage backend",
	Long: `Copy all scores, data points, and decisions from one backend to another.

BACKENDS:

  sqlite     local database at <data_dir>/recovery.db
  postgres   shared database (needs a DSN)
  charm      Charm KV, synced across devices

IMPORTANT:

  - The source defaults to the configured backend
  - A SQLite destination with existing files is refused unless --force
  - Decisions that already exist in the destination are skipped
  - Run with --dry-run first to see what would be copied

USAGE:

  recovery migrate --to charm --dry-run
  recovery migrate --to postgres --to-dsn postgres://localhost/recovery
  recovery migrate --from charm --to sqlite --to-data-dir ~/recovery-backup

AFTER MIGRATION:

  Point your config at the new backend:
    ~/.config/recovery/config.json  {"backend": "<to>"}`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		srcCfg := *cfg
		if migrateFrom != "" {
			srcCfg.Backend = migrateFrom
		}
		dstCfg := *cfg
		dstCfg.Backend = migrateTo
		if migrateToDataDir != "" {
			dstCfg.DataDir = migrateToDataDir
		}
		if migrateToDSN != "" {
			dstCfg.PostgresDSN = migrateToDSN
		}

		if err := dstCfg.Validate(); err != nil {
			return fmt.Errorf("invalid destination: %w", err)
		}
		if srcCfg.Backend == dstCfg.Backend && srcCfg.GetDataDir() == dstCfg.GetDataDir() && srcCfg.PostgresDSN == dstCfg.PostgresDSN {
			return fmt.Errorf("source and destination are the same %s backend", srcCfg.Backend)
		}
		if dstCfg.Backend == config.BackendSQLite && !migrateForce && !migrateDryRun {
			nonEmpty, err := storage.IsDirNonEmpty(dstCfg.GetDataDir())
			if err != nil {
				return err
			}
			if nonEmpty {
				return fmt.Errorf("destination %s is not empty (use --force to merge into it)", dstCfg.GetDataDir())
			}
		}

		src, err := srcCfg.OpenStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to open source %s: %w", srcCfg.Backend, err)
		}
		defer src.Close()

		if migrateDryRun {
			data, err := src.GetAllData(ctx)
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Println()
			fmt.Printf("Would copy from %s to %s:\n", srcCfg.Backend, dstCfg.Backend)
			fmt.Printf("  Scores: %d\n", len(data.Scores))
			fmt.Printf("  Data points: %d\n", len(data.DataPoints))
			fmt.Printf("  Decisions: %d\n", len(data.AdjustmentLogs))
			return nil
		}

		dst, err := dstCfg.OpenStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to open destination %s: %w", dstCfg.Backend, err)
		}
		defer dst.Close()

		summary, err := storage.MigrateData(ctx, src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated %s → %s", srcCfg.Backend, dstCfg.Backend)
		fmt.Printf("  Scores: %d\n", summary.Scores)
		fmt.Printf("  Data points: %d\n", summary.DataPoints)
		fmt.Printf("  Decisions: %d\n", summary.AdjustmentLogs)
		if dstCfg.Backend == config.BackendSQLite {
			fmt.Printf("\nThe new data is stored at:\n  %s\n", filepath.Join(dstCfg.GetDataDir(), "recovery.db"))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "source backend (default: configured backend)")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend: sqlite, postgres, or charm")
	migrateCmd.Flags().StringVar(&migrateToDataDir, "to-data-dir", "", "data directory for a sqlite destination")
	migrateCmd.Flags().StringVar(&migrateToDSN, "to-dsn", "", "connection string for a postgres destination")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "merge into a non-empty sqlite destination")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}
