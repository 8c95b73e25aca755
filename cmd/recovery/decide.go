// ABOUTME: CLI commands for acknowledging scores and logging training decisions.
// ABOUTME: Each decision appends to the adjustment history; nothing is overwritten.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/engine"
	"github.com/harperreed/recovery/internal/models"
	"github.com/spf13/cobra"
)

var (
	decideIntensity float64
	decideVolume    float64
	decideNotes     string
)

var ackCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge a score",
	Long: `Mark a score as seen. The ID can be a full ID or a unique prefix.

Acknowledging twice keeps the first acknowledgment time.

Example:
  recovery ack 3f2a9c1e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := eng.Acknowledge(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to acknowledge score: %w", err)
		}

		color.Green("✓ Acknowledged score for %s", models.FormatDate(s.Date))
		fmt.Printf("  %s %d %s\n",
			color.New(color.Faint).Sprint(s.ID.String()[:8]),
			s.OverallScore, s.Category)
		return nil
	},
}

var decideCmd = &cobra.Command{
	Use:   "decide <id> <action>",
	Short: "Log what you did with a recommendation",
	Long: `Log a decision about a score's recommendation.

ACTIONS:

  accepted          trained with the suggested modifiers
  rejected          ignored the suggestion
  modified          trained with your own modifiers (requires --intensity and --volume)
  skipped_workout   did not train

Every decision is appended to the history. Logging again for the same score
adds a new entry; the score's adjustment state follows the latest one.

Examples:
  recovery decide 3f2a9c1e accepted
  recovery decide 3f2a9c1e modified --intensity 0.8 --volume 0.9
  recovery decide 3f2a9c1e skipped_workout --notes "travel day"`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: actionNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := args[1]
		if !models.IsValidAction(action) {
			return fmt.Errorf("unknown action: %s\nValid actions: %s", action, strings.Join(actionNames(), ", "))
		}

		var actual *engine.Modifiers
		flags := cmd.Flags()
		if flags.Changed("intensity") || flags.Changed("volume") {
			if !flags.Changed("intensity") || !flags.Changed("volume") {
				return fmt.Errorf("--intensity and --volume must be given together")
			}
			actual = &engine.Modifiers{Intensity: decideIntensity, Volume: decideVolume}
		}

		l, err := eng.LogDecision(cmd.Context(), args[0], models.Action(action), actual, decideNotes)
		if err != nil {
			return fmt.Errorf("failed to log decision: %w", err)
		}

		color.Green("✓ Logged %s for %s", l.ActionTaken, models.FormatDate(l.ScoreDate))
		fmt.Printf("  %s %s\n",
			color.New(color.Faint).Sprint(l.ID.String()[:8]),
			formatModifiers(l))
		return nil
	},
}

func init() {
	decideCmd.Flags().Float64Var(&decideIntensity, "intensity", 0, "intensity modifier actually used (modified only)")
	decideCmd.Flags().Float64Var(&decideVolume, "volume", 0, "volume modifier actually used (modified only)")
	decideCmd.Flags().StringVar(&decideNotes, "notes", "", "notes for the decision")

	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(decideCmd)
}

func actionNames() []string {
	names := make([]string, 0, len(models.AllActions))
	for _, a := range models.AllActions {
		names = append(names, string(a))
	}
	return names
}

func formatModifiers(l *models.RecoveryAdjustmentLog) string {
	suggested := fmt.Sprintf("suggested %.2f/%.2f", l.SuggestedIntensityModifier, l.SuggestedVolumeModifier)
	if l.ActualIntensityModifier == nil || l.ActualVolumeModifier == nil {
		return suggested
	}
	return fmt.Sprintf("%s  actual %.2f/%.2f", suggested, *l.ActualIntensityModifier, *l.ActualVolumeModifier)
}
