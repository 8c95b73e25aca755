// ABOUTME: CLI commands for trends, decision history, effectiveness, and the policy table.
// ABOUTME: Read-only views over stored scores and adjustment logs.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
	"github.com/spf13/cobra"
)

var (
	historyLimit       int
	effectivenessSince string
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show your recovery trend",
	Long: `Compare the recent half of your scores in the trend window with the older
half. A difference above 5 points is improving, below -5 is declining.

At least three scores in the window are needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		trend, ok, err := eng.Trend(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to get trend: %w", err)
		}
		if !ok {
			fmt.Println("Not enough scores for a trend yet (need at least 3).")
			return nil
		}

		switch trend {
		case models.TrendImproving:
			color.Green("↑ improving")
		case models.TrendDeclining:
			color.Red("↓ declining")
		default:
			color.Cyan("→ stable")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h"},
	Short:   "List logged decisions",
	Long: `List logged decisions, newest first.

OUTPUT FORMAT:

  Each line shows: ID  SCORE DATE  ACTION  SCORE  MODIFIERS  (NOTES)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, err := eng.History(cmd.Context(), userID, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No decisions logged.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, l := range logs {
			notes := ""
			if l.Notes != nil && *l.Notes != "" {
				notes = faint.Sprintf(" (%s)", truncate(*l.Notes, 30))
			}
			fmt.Printf("%s %s %s %3d %s%s\n",
				faint.Sprint(l.ID.String()[:8]),
				faint.Sprint(models.FormatDate(l.ScoreDate)),
				padRight(string(l.ActionTaken), 16),
				l.OverallScore,
				formatModifiers(l),
				notes)
		}
		return nil
	},
}

var effectivenessCmd = &cobra.Command{
	Use:   "effectiveness",
	Short: "Show how scores moved after each kind of decision",
	Long: `For each action, count decisions and the mean change in overall score from
the decision's day to the next day, where both days have scores.

Example:
  recovery effectiveness --since 2026-01-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since := eng.Today().AddDate(0, 0, -30)
		if effectivenessSince != "" {
			var err error
			if since, err = models.ParseDate(effectivenessSince); err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", effectivenessSince)
			}
		}

		effects, err := eng.Effectiveness(cmd.Context(), userID, since)
		if err != nil {
			return fmt.Errorf("failed to compute effectiveness: %w", err)
		}

		fmt.Printf("Since %s\n\n", models.FormatDate(since))
		for _, e := range effects {
			delta := color.New(color.Faint).Sprint("n/a")
			if e.MeanNextDayDelta != nil {
				delta = fmt.Sprintf("%+.1f", *e.MeanNextDayDelta)
			}
			fmt.Printf("%s %3d decisions  %3d samples  %s\n",
				padRight(string(e.Action), 16), e.Decisions, e.Samples, delta)
		}
		return nil
	},
}

var policyCmd = &cobra.Command{
	Use:         "policy",
	Short:       "Show score thresholds and training prescriptions",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range scoring.PolicyTable() {
			lo, hi := scoring.CategoryRange(p.Category)
			fmt.Printf("%s %3d-%-3d  intensity %.2f  volume %.2f  %s\n",
				categoryStyle(p.Category).Render(padRight(string(p.Category), 15)),
				lo, hi, p.IntensityModifier, p.VolumeModifier, p.SuggestedAction)
		}

		w := scoring.DefaultWeights
		fmt.Printf("\nWeights: hrv %.2f  sleep %.2f  resting_hr %.2f  subjective %.2f\n",
			w.HRV, w.Sleep, w.RestingHR, w.Subjective)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max number of results")
	effectivenessCmd.Flags().StringVar(&effectivenessSince, "since", "", "first score date (YYYY-MM-DD, default 30 days ago)")

	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(effectivenessCmd)
	rootCmd.AddCommand(policyCmd)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
