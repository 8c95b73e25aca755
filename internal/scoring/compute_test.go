// ABOUTME: Tests for the full compute pipeline and input validation.
// ABOUTME: Out-of-domain inputs must be rejected, never clamped.
package scoring

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/harperreed/recovery/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	return d
}

func fullInputs() ScoreInputs {
	return ScoreInputs{
		HRV:        &HRVInput{CurrentRMSSD: 65, Baseline7DayAvg: 50},
		Sleep:      &SleepInput{DurationMin: 480, EfficiencyPct: 90, DeepMin: 100, REMMin: 80},
		RestingHR:  &RestingHRInput{CurrentHR: 55, BaselineHR: 55},
		Subjective: &SubjectiveInput{Energy: 4, Soreness: 2, Stress: 1, Mood: 5},
		Sources:    []models.Source{models.SourceOura, models.SourceManual, models.SourceOura},
	}
}

func TestCompute(t *testing.T) {
	date := mustDate(t, "2026-03-01")
	s, err := Compute("athlete-1", date, fullInputs())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if s.ID != models.ScoreID("athlete-1", date) {
		t.Errorf("ID = %s, want stable score id", s.ID)
	}
	if *s.HRVScore != 100 || *s.SleepScore != 98 || *s.RestingHRScore != 70 || *s.SubjectiveScore != 88 {
		t.Errorf("unexpected sub-scores: %d %d %d %d", *s.HRVScore, *s.SleepScore, *s.RestingHRScore, *s.SubjectiveScore)
	}
	if s.OverallScore != 92 {
		t.Errorf("OverallScore = %d, want 92", s.OverallScore)
	}
	if s.Category != models.CategoryRecovered {
		t.Errorf("Category = %s, want recovered", s.Category)
	}
	if s.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", s.Confidence)
	}
	want := []models.Source{models.SourceManual, models.SourceOura}
	if !reflect.DeepEqual(s.DataSources, want) {
		t.Errorf("DataSources = %v, want %v", s.DataSources, want)
	}
	if s.UserAcknowledged || s.AdjustmentApplied || s.AdjustmentDetails != nil {
		t.Error("fresh score should carry no acknowledgment or adjustment state")
	}
}

func TestComputeNoSignals(t *testing.T) {
	s, err := Compute("athlete-1", mustDate(t, "2026-03-01"), ScoreInputs{})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if s.OverallScore != 50 || s.Confidence != 0.5 {
		t.Errorf("got %d/%v, want 50/0.5", s.OverallScore, s.Confidence)
	}
	if s.Category != models.CategoryUnderRecovered {
		t.Errorf("Category = %s, want under_recovered", s.Category)
	}
	if s.IntensityModifier != 0.85 {
		t.Errorf("IntensityModifier = %v, want 0.85", s.IntensityModifier)
	}
	if s.DataSources == nil {
		t.Error("DataSources should be an empty slice, not nil")
	}
}

func TestComputeValidation(t *testing.T) {
	date := mustDate(t, "2026-03-01")
	tests := []struct {
		name   string
		user   string
		date   time.Time
		mutate func(*ScoreInputs)
		field  string
	}{
		{"missing user", "", date, func(*ScoreInputs) {}, "user_id"},
		{"missing date", "athlete-1", time.Time{}, func(*ScoreInputs) {}, "date"},
		{"rating of seven", "athlete-1", date, func(in *ScoreInputs) { in.Subjective.Energy = 7 }, "subjective.energy"},
		{"rating of zero", "athlete-1", date, func(in *ScoreInputs) { in.Subjective.Mood = 0 }, "subjective.mood"},
		{"negative rmssd", "athlete-1", date, func(in *ScoreInputs) { in.HRV.CurrentRMSSD = -1 }, "hrv.current_rmssd"},
		{"efficiency over 100", "athlete-1", date, func(in *ScoreInputs) { in.Sleep.EfficiencyPct = 120 }, "sleep.efficiency_pct"},
		{"negative resting hr", "athlete-1", date, func(in *ScoreInputs) { in.RestingHR.CurrentHR = -5 }, "resting_hr.current_hr"},
		{"unknown source", "athlete-1", date, func(in *ScoreInputs) { in.Sources = []models.Source{"polar"} }, "sources"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fullInputs()
			tt.mutate(&in)
			_, err := Compute(tt.user, tt.date, in)
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}
