// ABOUTME: Tests for the composite aggregator and classifier.
// ABOUTME: Checks renormalization, neutral defaults, bounds, and monotonicity.
package scoring

import (
	"testing"

	"github.com/harperreed/recovery/internal/models"
)

func intp(v int) *int { return &v }

func TestAggregate(t *testing.T) {
	tests := []struct {
		name           string
		sub            SubScores
		wantOverall    int
		wantConfidence float64
	}{
		{"no signals", SubScores{}, 50, 0.5},
		{"all signals", SubScores{HRV: intp(100), Sleep: intp(98), RestingHR: intp(70), Subjective: intp(88)}, 92, 1.0},
		{"hrv only", SubScores{HRV: intp(40)}, 40, 0.35},
		{"hrv and sleep", SubScores{HRV: intp(80), Sleep: intp(60)}, 70, 0.7},
		{"subjective only", SubScores{Subjective: intp(88)}, 88, 0.1},
		{"resting hr and subjective", SubScores{RestingHR: intp(50), Subjective: intp(80)}, 60, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.sub)
			if got.Overall != tt.wantOverall {
				t.Errorf("Overall = %d, want %d", got.Overall, tt.wantOverall)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestAggregateBounds(t *testing.T) {
	values := []*int{nil, intp(0), intp(37), intp(100)}
	for _, hrv := range values {
		for _, sleep := range values {
			for _, rhr := range values {
				for _, subj := range values {
					c := Aggregate(SubScores{HRV: hrv, Sleep: sleep, RestingHR: rhr, Subjective: subj})
					if c.Overall < 0 || c.Overall > 100 {
						t.Fatalf("overall %d out of range", c.Overall)
					}
					if c.Confidence < 0 || c.Confidence > 1 {
						t.Fatalf("confidence %v out of range", c.Confidence)
					}
				}
			}
		}
	}
}

func TestAggregateMonotonic(t *testing.T) {
	base := SubScores{HRV: intp(60), Sleep: intp(60), RestingHR: intp(60), Subjective: intp(60)}
	fields := []func(*SubScores) **int{
		func(s *SubScores) **int { return &s.HRV },
		func(s *SubScores) **int { return &s.Sleep },
		func(s *SubScores) **int { return &s.RestingHR },
		func(s *SubScores) **int { return &s.Subjective },
	}

	for i, field := range fields {
		prev := -1
		for v := 0; v <= 100; v++ {
			sub := base
			*field(&sub) = intp(v)
			got := Aggregate(sub).Overall
			if got < prev {
				t.Fatalf("field %d: overall decreased from %d to %d at %d", i, prev, got, v)
			}
			prev = got
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		overall int
		want    models.Category
	}{
		{100, models.CategoryRecovered},
		{82, models.CategoryRecovered},
		{80, models.CategoryRecovered},
		{79, models.CategoryModerate},
		{75, models.CategoryModerate},
		{60, models.CategoryModerate},
		{59, models.CategoryUnderRecovered},
		{40, models.CategoryUnderRecovered},
		{39, models.CategoryCritical},
		{0, models.CategoryCritical},
	}

	for _, tt := range tests {
		if got := Classify(tt.overall); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.overall, got, tt.want)
		}
	}
}

func TestCategoryRangeAgreesWithClassify(t *testing.T) {
	for _, c := range models.AllCategories {
		lo, hi := CategoryRange(c)
		if Classify(lo) != c || Classify(hi) != c {
			t.Errorf("CategoryRange(%s) = [%d, %d] disagrees with Classify", c, lo, hi)
		}
		if lo > 0 && Classify(lo-1) == c {
			t.Errorf("CategoryRange(%s) lower bound %d is not tight", c, lo)
		}
	}
}

func TestCheckScore(t *testing.T) {
	s, err := Compute("athlete-1", mustDate(t, "2026-03-01"), ScoreInputs{HRV: &HRVInput{CurrentRMSSD: 65, Baseline7DayAvg: 50}})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if err := CheckScore(s); err != nil {
		t.Fatalf("CheckScore on computed score failed: %v", err)
	}

	s.Category = models.CategoryCritical
	if err := CheckScore(s); err == nil {
		t.Fatal("expected category drift to be rejected")
	}
}
