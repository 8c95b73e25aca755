// ABOUTME: Tests for the policy table and trend detector.
// ABOUTME: Trend cases cover the asymmetric midpoint split.
package scoring

import (
	"testing"

	"github.com/harperreed/recovery/internal/models"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		category  models.Category
		intensity float64
		volume    float64
		action    string
	}{
		{models.CategoryRecovered, 1.0, 1.0, "Proceed with your planned workout."},
		{models.CategoryModerate, 1.0, 1.0, "Proceed with your planned workout."},
		{models.CategoryUnderRecovered, 0.85, 0.85, "Consider reducing intensity and volume by ~15%."},
		{models.CategoryCritical, 0.6, 0.5, "Active recovery or rest is recommended today."},
	}

	for _, tt := range tests {
		p := PolicyFor(tt.category)
		if p.IntensityModifier != tt.intensity || p.VolumeModifier != tt.volume {
			t.Errorf("PolicyFor(%s) modifiers = %v/%v, want %v/%v",
				tt.category, p.IntensityModifier, p.VolumeModifier, tt.intensity, tt.volume)
		}
		if p.SuggestedAction != tt.action {
			t.Errorf("PolicyFor(%s) action = %q, want %q", tt.category, p.SuggestedAction, tt.action)
		}
	}

	if len(PolicyTable()) != len(models.AllCategories) {
		t.Errorf("PolicyTable() has %d rows, want %d", len(PolicyTable()), len(models.AllCategories))
	}
}

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   models.Trend
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"one", []int{70}, "", false},
		{"two", []int{80, 40}, "", false},
		{"worked example", []int{80, 78, 76, 50, 48, 45}, models.TrendImproving, true},
		{"declining", []int{45, 48, 50, 76, 78, 80}, models.TrendDeclining, true},
		{"flat", []int{70, 70, 70, 70}, models.TrendStable, true},
		// midpoint 1: recent [76], older [70, 71] -> diff 5.5
		{"odd length goes older", []int{76, 70, 71}, models.TrendImproving, true},
		// diff exactly 5 is stable
		{"threshold is exclusive", []int{75, 75, 70, 70}, models.TrendStable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectTrend(tt.scores)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("DetectTrend(%v) = %q, %v; want %q, %v", tt.scores, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
