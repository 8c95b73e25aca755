// ABOUTME: CLI commands for exporting and importing recovery data.
// ABOUTME: Supports JSON, YAML, Markdown, and Parquet export; imports JSON files by glob.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportSince   string
	exportAllUser bool
)

var exportFormats = []string{"json", "yaml", "markdown", "parquet-scores", "parquet-adjustments"}

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export recovery data",
	Long: `Export recovery data in various formats.

FORMATS:

  json                 Full JSON export (suitable for backup/restore)
  yaml                 YAML export (human-readable)
  markdown             Markdown tables of scores and decisions
  parquet-scores       Scores as Parquet, for analysis tools
  parquet-adjustments  Decisions as Parquet, for effectiveness analysis

OPTIONS:

  --output, -o   Write to file instead of stdout (required for parquet)
  --since        Only include data since this date (markdown only)
  --all-users    Include every athlete (markdown only)

EXAMPLES:

  recovery export json                        # Export all data as JSON
  recovery export json -o backup.json         # Save to file
  recovery export markdown --since 2026-01-01 # Your scores from 2026 onward
  recovery export parquet-adjustments -o decisions.parquet`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: exportFormats,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]
		ctx := cmd.Context()

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = storage.ExportJSON(ctx, repo)
		case "yaml":
			data, err = storage.ExportYAML(ctx, repo)
		case "markdown":
			var since *time.Time
			if exportSince != "" {
				t, err := models.ParseDate(exportSince)
				if err != nil {
					return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
				}
				since = &t
			}
			user := userID
			if exportAllUser {
				user = ""
			}
			var md string
			md, err = storage.ExportMarkdown(ctx, repo, user, since)
			data = []byte(md)
		case "parquet-scores", "parquet-adjustments":
			if exportOutput == "" {
				return fmt.Errorf("%s export is binary: use --output", format)
			}
			if format == "parquet-scores" {
				data, err = storage.ExportScoresParquet(ctx, repo)
			} else {
				data, err = storage.ExportAdjustmentsParquet(ctx, repo)
			}
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, markdown, parquet-scores, or parquet-adjustments)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file|pattern>...",
	Short: "Import recovery data from JSON",
	Long: `Import recovery data from JSON export files.

Patterns are expanded with ** support, so a directory of backups can be
replayed at once. Scores and data points are upserted. Decisions keep their
IDs; a decision that already exists is skipped.

EXAMPLES:

  recovery import backup.json
  recovery import "exports/**/*.json"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandPatterns(args)
		if err != nil {
			return err
		}

		for _, filename := range files {
			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			summary, err := storage.ImportJSON(cmd.Context(), repo, data)
			if err != nil {
				return fmt.Errorf("import %s failed: %w", filename, err)
			}

			color.Green("✓ Imported from %s", filename)
			fmt.Printf("  Scores: %d  Data points: %d  Decisions: %d",
				summary.Scores, summary.DataPoints, summary.AdjustmentLogs)
			if summary.SkippedLogs > 0 {
				fmt.Printf("  (skipped %d existing)", summary.SkippedLogs)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include data since date (YYYY-MM-DD)")
	exportCmd.Flags().BoolVar(&exportAllUser, "all-users", false, "include every athlete (markdown only)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// expandPatterns resolves each argument as a glob, keeping the first
// occurrence of each file. A pattern that matches nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid pattern: %s", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %s", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
