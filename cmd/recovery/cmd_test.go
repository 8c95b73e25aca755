// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs commands against a temporary SQLite store and checks what was persisted.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
	"github.com/harperreed/recovery/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const testUser = "athlete"

var testNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

// setupTestCLI points the config and data directories at a temp dir and
// opens the database the CLI will use, so tests can seed and inspect it.
func setupTestCLI(t *testing.T) *storage.DB {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("RECOVERY_BACKEND", "")

	originalNow := now
	now = func() time.Time { return testNow }

	testDB, err := storage.Open(filepath.Join(tmpDir, "data", "recovery", "recovery.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	t.Cleanup(func() {
		_ = closeRepo()
		testDB.Close()
		now = originalNow
	})

	return testDB
}

// resetFlags returns every flag to its default so one test's flags never
// leak into the next Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command as testUser.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--user", testUser}, args...))
	return rootCmd.Execute()
}

// captureStdout runs fn and returns what it printed to os.Stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	original, originalColor := os.Stdout, color.Output
	os.Stdout, color.Output = w, w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn()
	w.Close()
	os.Stdout, color.Output = original, originalColor
	return <-done, runErr
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}

// seedScore stores an HRV-only score; overall is 70 + 1.5*(rmssd-100).
func seedScore(t *testing.T, db *storage.DB, date string, rmssd float64) *models.RecoveryScore {
	t.Helper()
	s, err := scoring.Compute(testUser, mustDate(t, date), scoring.ScoreInputs{
		HRV: &scoring.HRVInput{CurrentRMSSD: rmssd, Baseline7DayAvg: 100},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	stored, err := db.UpsertScore(context.Background(), s, models.LastWriteWins)
	if err != nil {
		t.Fatalf("UpsertScore failed: %v", err)
	}
	return stored
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string no truncation", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length", input: "hello", maxLen: 5, want: "hello"},
		{name: "needs truncation", input: "hello world this is a long string", maxLen: 10, want: "hello w..."},
		{name: "empty string", input: "", maxLen: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"abc", 6, "abc   "},
		{"abcdef", 6, "abcdef"},
		{"abcdefgh", 6, "abcdefgh"},
		{"", 3, "   "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestRootCmdFlags(t *testing.T) {
	if rootCmd.Use != "recovery" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "recovery")
	}
	if rootCmd.Short == "" {
		t.Error("Expected rootCmd.Short to be non-empty")
	}
	for _, name := range []string{"log-level", "user"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent --%s flag on root command", name)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"data add", "data list",
		"score compute", "score show", "score list",
		"ack", "decide", "trend", "history", "effectiveness", "policy",
		"export", "import", "migrate", "mcp", "install-skill",
		"sync link", "sync unlink", "sync status", "sync now", "sync repair", "sync reset", "sync wipe",
	}

	for _, path := range want {
		cmd, rest, err := rootCmd.Find(strings.Fields(path))
		if err != nil || len(rest) != 0 {
			t.Errorf("command %q not found: %v", path, err)
			continue
		}
		if cmd.Name() != strings.Fields(path)[len(strings.Fields(path))-1] {
			t.Errorf("command %q resolved to %q", path, cmd.Name())
		}
	}
}

func TestStorageSkippingCommands(t *testing.T) {
	for _, path := range [][]string{{"policy"}, {"migrate"}, {"install-skill"}, {"sync", "status"}} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Fatalf("Find(%v) failed: %v", path, err)
		}
		if !skipsStorage(cmd) {
			t.Errorf("Expected %v to skip opening storage", path)
		}
	}

	cmd, _, _ := rootCmd.Find([]string{"score", "compute"})
	if skipsStorage(cmd) {
		t.Error("score compute should open storage")
	}
}

func TestDataAddStoresOnlyPassedFields(t *testing.T) {
	testDB := setupTestCLI(t)

	err := runCLI(t, "data", "add", "--date", "2026-03-19", "--hrv-rmssd", "62", "--resting-hr", "51")
	if err != nil {
		t.Fatalf("data add failed: %v", err)
	}

	day := mustDate(t, "2026-03-19")
	points, err := testDB.GetDataPoints(context.Background(), testUser, day, day)
	if err != nil {
		t.Fatalf("GetDataPoints failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 data point, got %d", len(points))
	}
	p := points[0]
	if p.Source != models.SourceManual {
		t.Errorf("Source = %q, want manual", p.Source)
	}
	if p.HRVRMSSD == nil || *p.HRVRMSSD != 62 {
		t.Errorf("HRVRMSSD = %v, want 62", p.HRVRMSSD)
	}
	if p.RestingHR == nil || *p.RestingHR != 51 {
		t.Errorf("RestingHR = %v, want 51", p.RestingHR)
	}
	if p.SleepDurationMin != nil || p.Energy != nil {
		t.Error("Fields that were not passed should stay unset")
	}
}

func TestDataAddDefaultsToToday(t *testing.T) {
	testDB := setupTestCLI(t)

	if err := runCLI(t, "data", "add", "--source", "oura", "--sleep-min", "450", "--sleep-efficiency", "91"); err != nil {
		t.Fatalf("data add failed: %v", err)
	}

	today := models.DateOnly(testNow)
	points, err := testDB.GetDataPoints(context.Background(), testUser, today, today)
	if err != nil {
		t.Fatalf("GetDataPoints failed: %v", err)
	}
	if len(points) != 1 || points[0].Source != models.SourceOura {
		t.Fatalf("Expected one oura data point today, got %+v", points)
	}
}

func TestDataAddErrors(t *testing.T) {
	setupTestCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown source", []string{"data", "add", "--source", "polar", "--hrv-rmssd", "60"}},
		{"rating out of range", []string{"data", "add", "--energy", "9"}},
		{"invalid date", []string{"data", "add", "--date", "20-03-2026", "--hrv-rmssd", "60"}},
		{"negative duration", []string{"data", "add", "--sleep-min", "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runCLI(t, tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestDataListCmd(t *testing.T) {
	setupTestCLI(t)

	if err := runCLI(t, "data", "add", "--hrv-rmssd", "60"); err != nil {
		t.Fatalf("data add failed: %v", err)
	}

	out, err := captureStdout(t, func() error { return runCLI(t, "data", "list") })
	if err != nil {
		t.Fatalf("data list failed: %v", err)
	}
	if !strings.Contains(out, "2026-03-20") || !strings.Contains(out, "hrv 60ms") {
		t.Errorf("data list output missing today's point:\n%s", out)
	}
}

func TestScoreComputeExplicitInputs(t *testing.T) {
	testDB := setupTestCLI(t)

	err := runCLI(t, "score", "compute", "--date", "2026-03-20", "--hrv", "100", "--hrv-baseline", "100", "--source", "whoop")
	if err != nil {
		t.Fatalf("score compute failed: %v", err)
	}

	s, err := testDB.GetScore(context.Background(), testUser, mustDate(t, "2026-03-20"))
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if s == nil {
		t.Fatal("Expected a stored score")
	}
	if s.OverallScore != 70 || s.Category != models.CategoryModerate {
		t.Errorf("score = %d %s, want 70 moderate", s.OverallScore, s.Category)
	}
	if s.Confidence != 0.35 {
		t.Errorf("Confidence = %v, want 0.35", s.Confidence)
	}
	if len(s.DataSources) != 1 || s.DataSources[0] != models.SourceWhoop {
		t.Errorf("DataSources = %v, want [whoop]", s.DataSources)
	}
}

func TestScoreComputeSubjectiveNeedsAllRatings(t *testing.T) {
	testDB := setupTestCLI(t)

	if err := runCLI(t, "score", "compute", "--energy", "4", "--mood", "3"); err == nil {
		t.Fatal("Expected error when only some subjective ratings are given")
	}

	s, err := testDB.GetScore(context.Background(), testUser, models.DateOnly(testNow))
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if s != nil {
		t.Error("No score should be stored after a rejected input")
	}
}

func TestScoreComputeUnknownSource(t *testing.T) {
	setupTestCLI(t)

	if err := runCLI(t, "score", "compute", "--hrv", "60", "--hrv-baseline", "60", "--source", "polar"); err == nil {
		t.Error("Expected error for unknown source")
	}
}

func TestScoreComputeFromData(t *testing.T) {
	testDB := setupTestCLI(t)

	steps := [][]string{
		{"data", "add", "--date", "2026-03-20", "--energy", "5", "--soreness", "1", "--stress", "1", "--mood", "5"},
		{"data", "add", "--date", "2026-03-20", "--source", "garmin", "--sleep-min", "480", "--sleep-efficiency", "90", "--deep-min", "90", "--rem-min", "90"},
		{"score", "compute", "--from-data", "--date", "2026-03-20"},
	}
	for _, args := range steps {
		if err := runCLI(t, args...); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}

	s, err := testDB.GetScore(context.Background(), testUser, mustDate(t, "2026-03-20"))
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if s == nil {
		t.Fatal("Expected a stored score")
	}
	if s.SleepScore == nil || *s.SleepScore != 100 {
		t.Errorf("SleepScore = %v, want 100", s.SleepScore)
	}
	if s.SubjectiveScore == nil || *s.SubjectiveScore != 100 {
		t.Errorf("SubjectiveScore = %v, want 100", s.SubjectiveScore)
	}
	if s.Confidence != 0.45 {
		t.Errorf("Confidence = %v, want 0.45", s.Confidence)
	}
	want := []models.Source{models.SourceManual, models.SourceGarmin}
	if len(s.DataSources) != 2 || s.DataSources[0] != want[0] || s.DataSources[1] != want[1] {
		t.Errorf("DataSources = %v, want %v", s.DataSources, want)
	}
}

func TestScoreShowCmd(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 110)

	out, err := captureStdout(t, func() error { return runCLI(t, "score", "show") })
	if err != nil {
		t.Fatalf("score show failed: %v", err)
	}
	if !strings.Contains(out, "85") || !strings.Contains(out, "RECOVERED") {
		t.Errorf("score card missing overall or category:\n%s", out)
	}

	out, err = captureStdout(t, func() error { return runCLI(t, "score", "show", s.ID.String()[:8]) })
	if err != nil {
		t.Fatalf("score show by prefix failed: %v", err)
	}
	if !strings.Contains(out, s.ID.String()[:8]) {
		t.Errorf("score card missing ID prefix:\n%s", out)
	}
}

func TestScoreShowMissing(t *testing.T) {
	setupTestCLI(t)

	out, err := captureStdout(t, func() error { return runCLI(t, "score", "show", "--date", "2026-01-01") })
	if err != nil {
		t.Fatalf("score show for a day without a score should not fail: %v", err)
	}
	if !strings.Contains(out, "No score for 2026-01-01") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if err := runCLI(t, "score", "show", "ffffffff"); err == nil {
		t.Error("Expected error for unknown score ID")
	}
}

func TestScoreListCmd(t *testing.T) {
	testDB := setupTestCLI(t)
	seedScore(t, testDB, "2026-03-18", 100)
	seedScore(t, testDB, "2026-03-19", 90)
	seedScore(t, testDB, "2026-01-01", 90)

	out, err := captureStdout(t, func() error { return runCLI(t, "score", "list", "--days", "7") })
	if err != nil {
		t.Fatalf("score list failed: %v", err)
	}
	if strings.Index(out, "2026-03-19") > strings.Index(out, "2026-03-18") {
		t.Errorf("Expected most recent first:\n%s", out)
	}
	if strings.Contains(out, "2026-01-01") {
		t.Errorf("Expected scores outside the window to be excluded:\n%s", out)
	}
}

func TestAckCmd(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 100)

	if err := runCLI(t, "ack", s.ID.String()[:8]); err != nil {
		t.Fatalf("ack failed: %v", err)
	}

	got, err := testDB.GetScoreByID(context.Background(), s.ID.String())
	if err != nil {
		t.Fatalf("GetScoreByID failed: %v", err)
	}
	if !got.UserAcknowledged || got.AcknowledgedAt == nil {
		t.Error("Expected score to be acknowledged with a timestamp")
	}
}

func TestAckCmdNotFound(t *testing.T) {
	setupTestCLI(t)

	if err := runCLI(t, "ack", "ffffffff"); err == nil {
		t.Error("Expected error for unknown score ID")
	}
}

func TestDecideAccepted(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 100)

	if err := runCLI(t, "decide", s.ID.String(), "accepted", "--notes", "felt fine"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	got, err := testDB.GetScoreByID(context.Background(), s.ID.String())
	if err != nil {
		t.Fatalf("GetScoreByID failed: %v", err)
	}
	if !got.AdjustmentApplied || got.AdjustmentDetails == nil {
		t.Fatal("Expected adjustment to be applied with details")
	}
	if got.AdjustmentDetails.IntensityModifier != s.IntensityModifier {
		t.Errorf("applied intensity = %v, want suggested %v", got.AdjustmentDetails.IntensityModifier, s.IntensityModifier)
	}
	if !got.UserAcknowledged {
		t.Error("A decision should acknowledge the score")
	}

	logs, err := testDB.GetAdjustmentHistory(context.Background(), testUser, 0)
	if err != nil {
		t.Fatalf("GetAdjustmentHistory failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}
	if logs[0].Notes == nil || *logs[0].Notes != "felt fine" {
		t.Error("Notes not recorded")
	}
}

func TestDecideModified(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 80)

	if err := runCLI(t, "decide", s.ID.String()[:8], "modified", "--intensity", "0.8", "--volume", "0.9"); err != nil {
		t.Fatalf("decide modified failed: %v", err)
	}

	logs, err := testDB.GetAdjustmentHistory(context.Background(), testUser, 0)
	if err != nil {
		t.Fatalf("GetAdjustmentHistory failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}
	l := logs[0]
	if l.ActualIntensityModifier == nil || *l.ActualIntensityModifier != 0.8 {
		t.Errorf("ActualIntensityModifier = %v, want 0.8", l.ActualIntensityModifier)
	}
	if l.ActualVolumeModifier == nil || *l.ActualVolumeModifier != 0.9 {
		t.Errorf("ActualVolumeModifier = %v, want 0.9", l.ActualVolumeModifier)
	}
}

func TestDecideErrors(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 100)
	id := s.ID.String()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown action", []string{"decide", id, "ignored"}},
		{"modified without modifiers", []string{"decide", id, "modified"}},
		{"modified with one modifier", []string{"decide", id, "modified", "--intensity", "0.8"}},
		{"modifiers with accepted", []string{"decide", id, "accepted", "--intensity", "0.8", "--volume", "0.8"}},
		{"modifier out of range", []string{"decide", id, "modified", "--intensity", "3", "--volume", "1"}},
		{"unknown score", []string{"decide", "ffffffff", "accepted"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runCLI(t, tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}

	logs, err := testDB.GetAdjustmentHistory(context.Background(), testUser, 0)
	if err != nil {
		t.Fatalf("GetAdjustmentHistory failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Rejected decisions should not be logged, got %d", len(logs))
	}
}

func TestTrendCmd(t *testing.T) {
	testDB := setupTestCLI(t)

	out, err := captureStdout(t, func() error { return runCLI(t, "trend") })
	if err != nil {
		t.Fatalf("trend failed: %v", err)
	}
	if !strings.Contains(out, "Not enough scores") {
		t.Errorf("Expected not-enough-scores message:\n%s", out)
	}

	seedScore(t, testDB, "2026-03-18", 80)
	seedScore(t, testDB, "2026-03-19", 90)
	seedScore(t, testDB, "2026-03-20", 110)

	out, err = captureStdout(t, func() error { return runCLI(t, "trend") })
	if err != nil {
		t.Fatalf("trend failed: %v", err)
	}
	if !strings.Contains(out, "improving") {
		t.Errorf("Expected improving trend:\n%s", out)
	}
}

func TestHistoryCmd(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 100)

	out, err := captureStdout(t, func() error { return runCLI(t, "history") })
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No decisions logged.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if err := runCLI(t, "decide", s.ID.String(), "rejected"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if err := runCLI(t, "decide", s.ID.String(), "skipped_workout"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	out, err = captureStdout(t, func() error { return runCLI(t, "history", "-n", "1") })
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "skipped_workout") || strings.Contains(out, "rejected") {
		t.Errorf("Expected only the newest decision:\n%s", out)
	}
}

func TestEffectivenessCmd(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-18", 80)
	seedScore(t, testDB, "2026-03-19", 100)

	if err := runCLI(t, "decide", s.ID.String(), "accepted"); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	out, err := captureStdout(t, func() error { return runCLI(t, "effectiveness", "--since", "2026-03-01") })
	if err != nil {
		t.Fatalf("effectiveness failed: %v", err)
	}
	if !strings.Contains(out, "+30.0") {
		t.Errorf("Expected +30.0 next-day delta for accepted:\n%s", out)
	}

	if err := runCLI(t, "effectiveness", "--since", "March"); err == nil {
		t.Error("Expected error for invalid --since")
	}
}

func TestPolicyCmdSkipsStorage(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := captureStdout(t, func() error { return runCLI(t, "policy") })
	if err != nil {
		t.Fatalf("policy failed: %v", err)
	}
	for _, c := range models.AllCategories {
		if !strings.Contains(out, string(c)) {
			t.Errorf("policy output missing %s:\n%s", c, out)
		}
	}

	if _, err := os.Stat(filepath.Join(dataHome, "recovery")); !os.IsNotExist(err) {
		t.Error("policy should not create a database")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	setupTestCLI(t)

	if err := runCLI(t, "--log-level", "loud", "history"); err == nil {
		t.Error("Expected error for invalid --log-level")
	}
}

func TestExportFormats(t *testing.T) {
	testDB := setupTestCLI(t)
	seedScore(t, testDB, "2026-03-20", 100)
	dir := t.TempDir()

	for _, format := range exportFormats {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "export-"+format)
			if err := runCLI(t, "export", format, "-o", path); err != nil {
				t.Fatalf("export %s failed: %v", format, err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Expected export file: %v", err)
			}
			if info.Size() == 0 {
				t.Error("Export file is empty")
			}
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "export-json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var export storage.ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("JSON export does not parse: %v", err)
	}
	if len(export.Scores) != 1 {
		t.Errorf("Expected 1 exported score, got %d", len(export.Scores))
	}
}

func TestExportErrors(t *testing.T) {
	setupTestCLI(t)

	if err := runCLI(t, "export", "csv"); err == nil {
		t.Error("Expected error for unknown format")
	}
	if err := runCLI(t, "export", "parquet-scores"); err == nil {
		t.Error("Expected error for parquet export to stdout")
	}
	if err := runCLI(t, "export", "markdown", "--since", "yesterday"); err == nil {
		t.Error("Expected error for invalid --since")
	}
}

func TestImportGlob(t *testing.T) {
	testDB := setupTestCLI(t)

	dir := t.TempDir()
	nested := filepath.Join(dir, "exports", "2026")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	for i, date := range []string{"2026-03-10", "2026-03-11"} {
		s, err := scoring.Compute(testUser, mustDate(t, date), scoring.ScoreInputs{
			HRV: &scoring.HRVInput{CurrentRMSSD: 100, Baseline7DayAvg: 100},
		})
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		l := models.NewAdjustmentLog(s, models.ActionRejected, testNow)
		data, err := json.Marshal(storage.NewExportData([]*models.RecoveryScore{s}, nil, []*models.RecoveryAdjustmentLog{l}))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		name := filepath.Join(nested, []string{"a.json", "b.json"}[i])
		if err := os.WriteFile(name, data, 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	pattern := filepath.Join(dir, "exports", "**", "*.json")
	if err := runCLI(t, "import", pattern); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	all, err := testDB.GetAllData(context.Background())
	if err != nil {
		t.Fatalf("GetAllData failed: %v", err)
	}
	if len(all.Scores) != 2 || len(all.AdjustmentLogs) != 2 {
		t.Errorf("Expected 2 scores and 2 logs, got %d and %d", len(all.Scores), len(all.AdjustmentLogs))
	}

	// Importing again skips the logs that already exist.
	if err := runCLI(t, "import", pattern); err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	all, err = testDB.GetAllData(context.Background())
	if err != nil {
		t.Fatalf("GetAllData failed: %v", err)
	}
	if len(all.AdjustmentLogs) != 2 {
		t.Errorf("Expected logs to stay at 2, got %d", len(all.AdjustmentLogs))
	}
}

func TestImportNoMatch(t *testing.T) {
	setupTestCLI(t)

	if err := runCLI(t, "import", filepath.Join(t.TempDir(), "*.json")); err == nil {
		t.Error("Expected error when no files match")
	}
}

func TestExpandPatternsDedupes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	files, err := expandPatterns([]string{path, filepath.Join(dir, "*.json")})
	if err != nil {
		t.Fatalf("expandPatterns failed: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("Expected 1 file, got %v", files)
	}
}

func TestMigrateToSQLite(t *testing.T) {
	testDB := setupTestCLI(t)
	s := seedScore(t, testDB, "2026-03-20", 100)
	l := models.NewAdjustmentLog(s, models.ActionRejected, testNow)
	if _, err := testDB.AppendAdjustmentLog(context.Background(), l); err != nil {
		t.Fatalf("AppendAdjustmentLog failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backup")
	if err := runCLI(t, "migrate", "--to", "sqlite", "--to-data-dir", dest); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	dst, err := storage.Open(filepath.Join(dest, "recovery.db"))
	if err != nil {
		t.Fatalf("Failed to open destination: %v", err)
	}
	defer dst.Close()

	got, err := dst.GetScore(context.Background(), testUser, mustDate(t, "2026-03-20"))
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if got == nil || got.ID != s.ID {
		t.Errorf("Expected migrated score %s, got %+v", s.ID, got)
	}
	logs, err := dst.GetAdjustmentHistory(context.Background(), testUser, 0)
	if err != nil {
		t.Fatalf("GetAdjustmentHistory failed: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != l.ID {
		t.Errorf("Expected migrated log %s, got %d logs", l.ID, len(logs))
	}
}

func TestMigrateRefusesNonEmptyDestination(t *testing.T) {
	testDB := setupTestCLI(t)
	seedScore(t, testDB, "2026-03-20", 100)

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "notes.txt"), []byte("keep"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := runCLI(t, "migrate", "--to", "sqlite", "--to-data-dir", dest); err == nil {
		t.Fatal("Expected error for non-empty destination")
	}
	if err := runCLI(t, "migrate", "--to", "sqlite", "--to-data-dir", dest, "--force"); err != nil {
		t.Fatalf("migrate --force failed: %v", err)
	}
}

func TestMigrateDryRun(t *testing.T) {
	testDB := setupTestCLI(t)
	seedScore(t, testDB, "2026-03-20", 100)

	dest := filepath.Join(t.TempDir(), "backup")
	if err := runCLI(t, "migrate", "--to", "sqlite", "--to-data-dir", dest, "--dry-run"); err != nil {
		t.Fatalf("migrate --dry-run failed: %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("dry run should not create the destination")
	}
}

func TestMigrateErrors(t *testing.T) {
	setupTestCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing --to", []string{"migrate"}},
		{"unknown backend", []string{"migrate", "--to", "mongo"}},
		{"same backend", []string{"migrate", "--to", "sqlite"}},
		{"postgres without dsn", []string{"migrate", "--to", "postgres"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runCLI(t, tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestMcpCmdFlags(t *testing.T) {
	if mcpCmd.Flags().Lookup("metrics-addr") == nil {
		t.Error("Expected --metrics-addr flag on mcp command")
	}
}

func TestRenderScoreCard(t *testing.T) {
	s, err := scoring.Compute(testUser, mustDate(t, "2026-03-20"), scoring.ScoreInputs{
		HRV:        &scoring.HRVInput{CurrentRMSSD: 100, Baseline7DayAvg: 100},
		Subjective: &scoring.SubjectiveInput{Energy: 3, Soreness: 3, Stress: 3, Mood: 3},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	s.UserAcknowledged = true

	card := renderScoreCard(s)
	for _, want := range []string{
		models.FormatDate(s.Date),
		strings.ToUpper(string(s.Category)),
		s.SuggestedAction,
		"Confidence",
		"acknowledged",
		s.ID.String()[:8],
	} {
		if !strings.Contains(card, want) {
			t.Errorf("score card missing %q:\n%s", want, card)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		accepted []string
		want     bool
	}{
		{"yes", "y\n", []string{"y", "yes"}, true},
		{"long yes upper case", "  YES \n", []string{"y", "yes"}, true},
		{"no", "n\n", []string{"y", "yes"}, false},
		{"empty", "\n", []string{"y", "yes"}, false},
		{"eof", "", []string{"y", "yes"}, false},
		{"typed word without newline", "wipe", []string{"wipe"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			_, _ = captureStdout(t, func() error {
				got = confirm(strings.NewReader(tt.input), "? ", tt.accepted...)
				return nil
			})
			if got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
