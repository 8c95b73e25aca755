// ABOUTME: CLI commands for recording and listing daily data points.
// ABOUTME: One data point per athlete, date, and source; re-adding replaces it.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/models"
	"github.com/spf13/cobra"
)

var (
	dataDate   string
	dataSource string

	dataHRVRMSSD, dataHRVSDNN                      float64
	dataRestingHR, dataAvgHRAwake                  float64
	dataSleepMin, dataSleepEfficiency              float64
	dataDeepMin, dataREMMin                        float64
	dataAwakenings, dataSleepQuality               int
	dataSteps, dataActiveMinutes                   int
	dataTrainingLoad                               float64
	dataEnergy, dataSoreness, dataStress, dataMood int

	dataListFrom string
	dataListTo   string
)

var dataCmd = &cobra.Command{
	Use:     "data",
	Aliases: []string{"d"},
	Short:   "Record and list daily observations",
}

var dataAddCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"a"},
	Short:   "Record one day's observations from a source",
	Long: `Record one day's observations. Only the flags you pass are stored.

Adding again for the same date and source replaces the earlier entry.

SOURCES:

  manual, whoop, oura, garmin, apple_health, fitbit, terra_api

  When several sources report the same field for a day, scoring uses them
  in that order.

Examples:
  recovery data add --hrv-rmssd 62 --resting-hr 51
  recovery data add --sleep-min 450 --sleep-efficiency 91 --deep-min 85 --rem-min 100
  recovery data add --energy 4 --soreness 2 --stress 2 --mood 4
  recovery data add --source oura --date 2026-03-19 --hrv-rmssd 58`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(dataDate)
		if err != nil {
			return err
		}
		if !models.IsValidSource(dataSource) {
			return fmt.Errorf("unknown source: %s\nValid sources: %s", dataSource, joinSources())
		}

		p := models.NewDataPoint(userID, date, models.Source(dataSource))
		flags := cmd.Flags()
		p.HRVRMSSD = floatFlag(flags.Changed("hrv-rmssd"), dataHRVRMSSD)
		p.HRVSDNN = floatFlag(flags.Changed("hrv-sdnn"), dataHRVSDNN)
		p.RestingHR = floatFlag(flags.Changed("resting-hr"), dataRestingHR)
		p.AvgHRAwake = floatFlag(flags.Changed("avg-hr-awake"), dataAvgHRAwake)
		p.SleepDurationMin = floatFlag(flags.Changed("sleep-min"), dataSleepMin)
		p.SleepEfficiency = floatFlag(flags.Changed("sleep-efficiency"), dataSleepEfficiency)
		p.DeepSleepMin = floatFlag(flags.Changed("deep-min"), dataDeepMin)
		p.REMSleepMin = floatFlag(flags.Changed("rem-min"), dataREMMin)
		p.Awakenings = intFlag(flags.Changed("awakenings"), dataAwakenings)
		p.SleepQuality = intFlag(flags.Changed("sleep-quality"), dataSleepQuality)
		p.Steps = intFlag(flags.Changed("steps"), dataSteps)
		p.ActiveMinutes = intFlag(flags.Changed("active-minutes"), dataActiveMinutes)
		p.TrainingLoad = floatFlag(flags.Changed("training-load"), dataTrainingLoad)
		p.Energy = intFlag(flags.Changed("energy"), dataEnergy)
		p.Soreness = intFlag(flags.Changed("soreness"), dataSoreness)
		p.Stress = intFlag(flags.Changed("stress"), dataStress)
		p.Mood = intFlag(flags.Changed("mood"), dataMood)

		if err := eng.RecordDataPoint(cmd.Context(), p); err != nil {
			return fmt.Errorf("failed to record data point: %w", err)
		}

		color.Green("✓ Recorded %s data for %s", p.Source, models.FormatDate(p.Date))
		fmt.Printf("  %s %s\n",
			color.New(color.Faint).Sprint(p.ID.String()[:8]),
			summarizeDataPoint(p))
		return nil
	},
}

var dataListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List recorded data points",
	Long: `List data points for a date range, oldest first.

Examples:
  recovery data list                          # Last 7 days
  recovery data list --from 2026-03-01 --to 2026-03-14`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := dateOrToday(dataListTo)
		if err != nil {
			return err
		}
		from := to.AddDate(0, 0, -6)
		if dataListFrom != "" {
			if from, err = models.ParseDate(dataListFrom); err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", dataListFrom)
			}
		}

		points, err := eng.Repository().GetDataPoints(cmd.Context(), userID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list data points: %w", err)
		}
		if len(points) == 0 {
			fmt.Println("No data points found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range points {
			fmt.Printf("%s %s %s %s\n",
				faint.Sprint(p.ID.String()[:8]),
				faint.Sprint(models.FormatDate(p.Date)),
				padRight(string(p.Source), 13),
				summarizeDataPoint(p))
		}
		return nil
	},
}

func init() {
	f := dataAddCmd.Flags()
	f.StringVar(&dataDate, "date", "", "date (YYYY-MM-DD, default today)")
	f.StringVar(&dataSource, "source", string(models.SourceManual), "data source")
	f.Float64Var(&dataHRVRMSSD, "hrv-rmssd", 0, "HRV RMSSD (ms)")
	f.Float64Var(&dataHRVSDNN, "hrv-sdnn", 0, "HRV SDNN (ms)")
	f.Float64Var(&dataRestingHR, "resting-hr", 0, "resting heart rate (bpm)")
	f.Float64Var(&dataAvgHRAwake, "avg-hr-awake", 0, "average awake heart rate (bpm)")
	f.Float64Var(&dataSleepMin, "sleep-min", 0, "sleep duration (minutes)")
	f.Float64Var(&dataSleepEfficiency, "sleep-efficiency", 0, "sleep efficiency (0-100)")
	f.Float64Var(&dataDeepMin, "deep-min", 0, "deep sleep (minutes)")
	f.Float64Var(&dataREMMin, "rem-min", 0, "REM sleep (minutes)")
	f.IntVar(&dataAwakenings, "awakenings", 0, "number of awakenings")
	f.IntVar(&dataSleepQuality, "sleep-quality", 0, "sleep quality rating (1-5)")
	f.IntVar(&dataSteps, "steps", 0, "step count")
	f.IntVar(&dataActiveMinutes, "active-minutes", 0, "active minutes")
	f.Float64Var(&dataTrainingLoad, "training-load", 0, "training load")
	f.IntVar(&dataEnergy, "energy", 0, "energy rating (1-5)")
	f.IntVar(&dataSoreness, "soreness", 0, "soreness rating (1-5)")
	f.IntVar(&dataStress, "stress", 0, "stress rating (1-5)")
	f.IntVar(&dataMood, "mood", 0, "mood rating (1-5)")

	dataListCmd.Flags().StringVar(&dataListFrom, "from", "", "first date (YYYY-MM-DD, default 6 days before --to)")
	dataListCmd.Flags().StringVar(&dataListTo, "to", "", "last date (YYYY-MM-DD, default today)")

	dataCmd.AddCommand(dataAddCmd)
	dataCmd.AddCommand(dataListCmd)
	rootCmd.AddCommand(dataCmd)
}

func floatFlag(set bool, v float64) *float64 {
	if !set {
		return nil
	}
	return models.Float(v)
}

func intFlag(set bool, v int) *int {
	if !set {
		return nil
	}
	return models.Int(v)
}

func summarizeDataPoint(p *models.RecoveryDataPoint) string {
	var parts []string
	if p.HRVRMSSD != nil {
		parts = append(parts, fmt.Sprintf("hrv %.0fms", *p.HRVRMSSD))
	}
	if p.RestingHR != nil {
		parts = append(parts, fmt.Sprintf("rhr %.0f", *p.RestingHR))
	}
	if p.SleepDurationMin != nil {
		parts = append(parts, fmt.Sprintf("sleep %.0fmin", *p.SleepDurationMin))
	}
	if p.SleepEfficiency != nil {
		parts = append(parts, fmt.Sprintf("eff %.0f%%", *p.SleepEfficiency))
	}
	if p.Energy != nil && p.Soreness != nil && p.Stress != nil && p.Mood != nil {
		parts = append(parts, fmt.Sprintf("feel %d/%d/%d/%d", *p.Energy, *p.Soreness, *p.Stress, *p.Mood))
	}
	if len(parts) == 0 {
		return "(no scoring fields)"
	}
	return strings.Join(parts, "  ")
}

func joinSources() string {
	names := make([]string, 0, len(models.AllSources))
	for _, s := range models.AllSources {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// dateOrToday parses a YYYY-MM-DD flag, defaulting to the engine's today.
func dateOrToday(s string) (time.Time, error) {
	if s == "" {
		return eng.Today(), nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", s)
	}
	return d, nil
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
