// ABOUTME: CLI commands for computing and viewing recovery scores.
// ABOUTME: Renders a score card with lipgloss and lists recent scores.
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
	"github.com/spf13/cobra"
)

var (
	scoreDate     string
	scoreFromData bool
	scoreSources  []string

	scoreHRV, scoreHRVBaseline              float64
	scoreSleepMin, scoreSleepEfficiency     float64
	scoreDeepMin, scoreREMMin               float64
	scoreRestingHR, scoreHRBaseline         float64
	scoreEnergy, scoreSoreness, scoreStress int
	scoreMood                               int

	scoreListDays int
)

var scoreCmd = &cobra.Command{
	Use:     "score",
	Aliases: []string{"sc"},
	Short:   "Compute and view recovery scores",
}

var scoreComputeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute and store a day's recovery score",
	Long: `Compute a day's recovery score and store it, replacing any earlier score
for the same day.

Pass signals directly with flags, or use --from-data to score from the data
points recorded with 'recovery data add'. Any signal may be omitted; the
score reweights over what is present and confidence reflects how many
signals were used.

SIGNALS:

  HRV          --hrv and --hrv-baseline
  Sleep        --sleep-min and --sleep-efficiency (--deep-min, --rem-min optional)
  Resting HR   --resting-hr and --hr-baseline
  Subjective   --energy --soreness --stress --mood (all four, 1-5)

Examples:
  recovery score compute --from-data
  recovery score compute --hrv 62 --hrv-baseline 58 --resting-hr 51 --hr-baseline 53
  recovery score compute --date 2026-03-19 --energy 4 --soreness 2 --stress 2 --mood 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(scoreDate)
		if err != nil {
			return err
		}

		var s *models.RecoveryScore
		if scoreFromData {
			s, err = eng.ComputeFromDataPoints(cmd.Context(), userID, date)
		} else {
			var in scoring.ScoreInputs
			in, err = scoreInputsFromFlags(cmd)
			if err != nil {
				return err
			}
			s, err = eng.ComputeAndStore(cmd.Context(), userID, date, in)
		}
		if err != nil {
			return fmt.Errorf("failed to compute score: %w", err)
		}

		color.Green("✓ Stored score for %s", models.FormatDate(s.Date))
		fmt.Println(renderScoreCard(s))
		return nil
	},
}

var scoreShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a score card",
	Long: `Show a score by ID or ID prefix, or the score for --date (default today).

Examples:
  recovery score show
  recovery score show --date 2026-03-19
  recovery score show 3f2a9c1e`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s *models.RecoveryScore
		if len(args) == 1 {
			var err error
			s, err = eng.ScoreByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get score: %w", err)
			}
		} else {
			date, err := dateOrToday(scoreDate)
			if err != nil {
				return err
			}
			s, err = eng.GetScore(cmd.Context(), userID, date)
			if err != nil {
				return fmt.Errorf("failed to get score: %w", err)
			}
			if s == nil {
				fmt.Printf("No score for %s.\n", models.FormatDate(date))
				fmt.Println("Run 'recovery score compute' to create one.")
				return nil
			}
		}

		fmt.Println(renderScoreCard(s))
		return nil
	},
}

var scoreListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List recent scores",
	Long: `List scores from the last N days, most recent first.

OUTPUT FORMAT:

  Each line shows: ID  DATE  SCORE  CATEGORY  CONFIDENCE  FLAGS

  The ID is an 8-character prefix you can use with show, ack, and decide.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since := eng.Today().AddDate(0, 0, -(scoreListDays - 1))
		scores, err := eng.Repository().GetRecentScores(cmd.Context(), userID, since)
		if err != nil {
			return fmt.Errorf("failed to list scores: %w", err)
		}
		if len(scores) == 0 {
			fmt.Println("No scores found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range scores {
			var flags []string
			if s.UserAcknowledged {
				flags = append(flags, "ack")
			}
			if s.AdjustmentApplied {
				flags = append(flags, "applied")
			}
			fmt.Printf("%s %s %3d %s %.2f %s\n",
				faint.Sprint(s.ID.String()[:8]),
				faint.Sprint(models.FormatDate(s.Date)),
				s.OverallScore,
				categoryStyle(s.Category).Render(padRight(string(s.Category), 15)),
				s.Confidence,
				faint.Sprint(strings.Join(flags, ",")))
		}
		return nil
	},
}

func init() {
	f := scoreComputeCmd.Flags()
	f.StringVar(&scoreDate, "date", "", "date (YYYY-MM-DD, default today)")
	f.BoolVar(&scoreFromData, "from-data", false, "score from stored data points")
	f.StringSliceVar(&scoreSources, "source", nil, "sources that produced the inputs")
	f.Float64Var(&scoreHRV, "hrv", 0, "current HRV RMSSD (ms)")
	f.Float64Var(&scoreHRVBaseline, "hrv-baseline", 0, "7-day average HRV RMSSD (ms)")
	f.Float64Var(&scoreSleepMin, "sleep-min", 0, "sleep duration (minutes)")
	f.Float64Var(&scoreSleepEfficiency, "sleep-efficiency", 0, "sleep efficiency (0-100)")
	f.Float64Var(&scoreDeepMin, "deep-min", 0, "deep sleep (minutes)")
	f.Float64Var(&scoreREMMin, "rem-min", 0, "REM sleep (minutes)")
	f.Float64Var(&scoreRestingHR, "resting-hr", 0, "current resting heart rate (bpm)")
	f.Float64Var(&scoreHRBaseline, "hr-baseline", 0, "baseline resting heart rate (bpm)")
	f.IntVar(&scoreEnergy, "energy", 0, "energy rating (1-5)")
	f.IntVar(&scoreSoreness, "soreness", 0, "soreness rating (1-5)")
	f.IntVar(&scoreStress, "stress", 0, "stress rating (1-5)")
	f.IntVar(&scoreMood, "mood", 0, "mood rating (1-5)")

	scoreShowCmd.Flags().StringVar(&scoreDate, "date", "", "date (YYYY-MM-DD, default today)")
	scoreListCmd.Flags().IntVarP(&scoreListDays, "days", "n", 14, "number of days to include")

	scoreCmd.AddCommand(scoreComputeCmd)
	scoreCmd.AddCommand(scoreShowCmd)
	scoreCmd.AddCommand(scoreListCmd)
	rootCmd.AddCommand(scoreCmd)
}

// scoreInputsFromFlags builds inputs from the flags actually passed. A signal
// is included when any of its flags is set.
func scoreInputsFromFlags(cmd *cobra.Command) (scoring.ScoreInputs, error) {
	flags := cmd.Flags()
	anySet := func(names ...string) bool {
		for _, n := range names {
			if flags.Changed(n) {
				return true
			}
		}
		return false
	}

	var in scoring.ScoreInputs
	if anySet("hrv", "hrv-baseline") {
		in.HRV = &scoring.HRVInput{CurrentRMSSD: scoreHRV, Baseline7DayAvg: scoreHRVBaseline}
	}
	if anySet("sleep-min", "sleep-efficiency", "deep-min", "rem-min") {
		in.Sleep = &scoring.SleepInput{
			DurationMin:   scoreSleepMin,
			EfficiencyPct: scoreSleepEfficiency,
			DeepMin:       scoreDeepMin,
			REMMin:        scoreREMMin,
		}
	}
	if anySet("resting-hr", "hr-baseline") {
		in.RestingHR = &scoring.RestingHRInput{CurrentHR: scoreRestingHR, BaselineHR: scoreHRBaseline}
	}
	subjective := []string{"energy", "soreness", "stress", "mood"}
	if anySet(subjective...) {
		for _, n := range subjective {
			if !flags.Changed(n) {
				return in, fmt.Errorf("subjective input needs all of --energy, --soreness, --stress, --mood (missing --%s)", n)
			}
		}
		in.Subjective = &scoring.SubjectiveInput{
			Energy:   scoreEnergy,
			Soreness: scoreSoreness,
			Stress:   scoreStress,
			Mood:     scoreMood,
		}
	}
	for _, src := range scoreSources {
		if !models.IsValidSource(src) {
			return in, fmt.Errorf("unknown source: %s\nValid sources: %s", src, joinSources())
		}
		in.Sources = append(in.Sources, models.Source(src))
	}
	return in, nil
}

var categoryColors = map[models.Category]lipgloss.Color{
	models.CategoryRecovered:      lipgloss.Color("10"),
	models.CategoryModerate:       lipgloss.Color("12"),
	models.CategoryUnderRecovered: lipgloss.Color("3"),
	models.CategoryCritical:       lipgloss.Color("9"),
}

func categoryStyle(c models.Category) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(categoryColors[c])
}

// renderScoreCard draws a bordered summary of one score.
func renderScoreCard(s *models.RecoveryScore) string {
	accent := categoryColors[s.Category]
	header := lipgloss.NewStyle().Bold(true).Foreground(accent)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	label := lipgloss.NewStyle().Width(12)

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n",
		header.Render(fmt.Sprintf("%d  %s", s.OverallScore, strings.ToUpper(string(s.Category)))),
		dim.Render(models.FormatDate(s.Date)))
	fmt.Fprintf(&b, "%s\n\n", s.SuggestedAction)

	for _, row := range []struct {
		name  string
		score *int
	}{
		{"HRV", s.HRVScore},
		{"Sleep", s.SleepScore},
		{"Resting HR", s.RestingHRScore},
		{"Subjective", s.SubjectiveScore},
	} {
		value := dim.Render("-")
		if row.score != nil {
			value = fmt.Sprintf("%3d", *row.score)
		}
		fmt.Fprintf(&b, "%s%s\n", label.Render(row.name), value)
	}

	fmt.Fprintf(&b, "\n%s%.2f  %s%.2f\n",
		label.Render("Intensity"), s.IntensityModifier,
		lipgloss.NewStyle().Width(8).Render("Volume"), s.VolumeModifier)
	fmt.Fprintf(&b, "%s%.2f", label.Render("Confidence"), s.Confidence)

	var status []string
	if s.UserAcknowledged {
		status = append(status, "acknowledged")
	}
	if s.AdjustmentApplied {
		status = append(status, "adjustment applied")
	}
	fmt.Fprintf(&b, "\n%s", dim.Render(s.ID.String()[:8]))
	if len(status) > 0 {
		fmt.Fprintf(&b, "  %s", dim.Render(strings.Join(status, ", ")))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(b.String())
}
