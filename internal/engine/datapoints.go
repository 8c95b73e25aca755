// ABOUTME: Data point ingestion and scoring from stored observations.
// ABOUTME: Merges sources by priority and derives baselines from prior days.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
)

// RecordDataPoint validates p and upserts it on (user, date, source).
func (e *Engine) RecordDataPoint(ctx context.Context, p *models.RecoveryDataPoint) error {
	p.Date = models.DateOnly(p.Date)
	if err := p.Validate(); err != nil {
		return err
	}
	if err := e.repo.UpsertDataPoint(ctx, p); err != nil {
		return e.storeFailed("upsert data point", err)
	}
	e.log.Debug().
		Str("user_id", p.UserID).
		Str("date", models.FormatDate(p.Date)).
		Str("source", string(p.Source)).
		Msg("data point recorded")
	return nil
}

// ComputeFromDataPoints builds the day's inputs from stored data points and
// calls ComputeAndStore. A day without data points scores as neutral.
func (e *Engine) ComputeFromDataPoints(ctx context.Context, userID string, date time.Time) (*models.RecoveryScore, error) {
	if userID == "" {
		return nil, models.Invalid("user_id", "required")
	}
	date = models.DateOnly(date)
	start := date.AddDate(0, 0, -e.baselineDays)

	points, err := e.repo.GetDataPoints(ctx, userID, start, date)
	if err != nil {
		return nil, e.storeFailed("get data points", err)
	}

	return e.ComputeAndStore(ctx, userID, date, BuildInputs(points, date))
}

// merged is one day's fields after resolving sources, with the source of each field.
type merged struct {
	rmssd, restingHR     *float64
	duration, efficiency *float64
	deep, rem            *float64
	energy, soreness     *int
	stress, mood         *int
	sources              map[string]models.Source
}

// BuildInputs turns stored data points into ScoreInputs for date. Points on
// earlier days only feed the RMSSD and resting HR baselines.
func BuildInputs(points []*models.RecoveryDataPoint, date time.Time) scoring.ScoreInputs {
	byDay := make(map[string][]*models.RecoveryDataPoint)
	for _, p := range points {
		day := models.FormatDate(p.Date)
		byDay[day] = append(byDay[day], p)
	}

	target := models.FormatDate(date)
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		if day < target {
			days = append(days, day)
		}
	}
	sort.Strings(days)

	var rmssdHistory, hrHistory []float64
	for _, day := range days {
		m := mergeDay(byDay[day])
		if m.rmssd != nil {
			rmssdHistory = append(rmssdHistory, *m.rmssd)
		}
		if m.restingHR != nil {
			hrHistory = append(hrHistory, *m.restingHR)
		}
	}

	today := mergeDay(byDay[target])
	var in scoring.ScoreInputs
	used := map[models.Source]bool{}
	use := func(fields ...string) {
		for _, f := range fields {
			used[today.sources[f]] = true
		}
	}

	if today.rmssd != nil {
		in.HRV = &scoring.HRVInput{CurrentRMSSD: *today.rmssd, Baseline7DayAvg: mean(rmssdHistory)}
		use("rmssd")
	}
	if today.restingHR != nil {
		in.RestingHR = &scoring.RestingHRInput{CurrentHR: *today.restingHR, BaselineHR: mean(hrHistory)}
		use("resting_hr")
	}
	if today.duration != nil && today.efficiency != nil {
		in.Sleep = &scoring.SleepInput{
			DurationMin:   *today.duration,
			EfficiencyPct: *today.efficiency,
			DeepMin:       valueOr(today.deep),
			REMMin:        valueOr(today.rem),
		}
		use("duration", "efficiency")
		if today.deep != nil {
			use("deep")
		}
		if today.rem != nil {
			use("rem")
		}
	}
	if today.energy != nil && today.soreness != nil && today.stress != nil && today.mood != nil {
		in.Subjective = &scoring.SubjectiveInput{
			Energy:   *today.energy,
			Soreness: *today.soreness,
			Stress:   *today.stress,
			Mood:     *today.mood,
		}
		use("energy", "soreness", "stress", "mood")
	}

	for src := range used {
		in.Sources = append(in.Sources, src)
	}
	sort.Slice(in.Sources, func(i, j int) bool {
		return models.SourcePriority(in.Sources[i]) < models.SourcePriority(in.Sources[j])
	})
	return in
}

// mergeDay takes each field from the highest-priority source that has it.
func mergeDay(points []*models.RecoveryDataPoint) merged {
	ordered := append([]*models.RecoveryDataPoint(nil), points...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return models.SourcePriority(ordered[i].Source) < models.SourcePriority(ordered[j].Source)
	})

	m := merged{sources: map[string]models.Source{}}
	for _, p := range ordered {
		pickFloat(&m.rmssd, p.HRVRMSSD, "rmssd", p.Source, m.sources)
		pickFloat(&m.restingHR, p.RestingHR, "resting_hr", p.Source, m.sources)
		pickFloat(&m.duration, p.SleepDurationMin, "duration", p.Source, m.sources)
		pickFloat(&m.efficiency, p.SleepEfficiency, "efficiency", p.Source, m.sources)
		pickFloat(&m.deep, p.DeepSleepMin, "deep", p.Source, m.sources)
		pickFloat(&m.rem, p.REMSleepMin, "rem", p.Source, m.sources)
		pickInt(&m.energy, p.Energy, "energy", p.Source, m.sources)
		pickInt(&m.soreness, p.Soreness, "soreness", p.Source, m.sources)
		pickInt(&m.stress, p.Stress, "stress", p.Source, m.sources)
		pickInt(&m.mood, p.Mood, "mood", p.Source, m.sources)
	}
	return m
}

func pickFloat(dst **float64, v *float64, field string, src models.Source, sources map[string]models.Source) {
	if *dst == nil && v != nil {
		*dst = v
		sources[field] = src
	}
}

func pickInt(dst **int, v *int, field string, src models.Source, sources map[string]models.Source) {
	if *dst == nil && v != nil {
		*dst = v
		sources[field] = src
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
