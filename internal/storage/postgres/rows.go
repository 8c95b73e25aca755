// ABOUTME: Row structs mapping PostgreSQL columns to recovery models.
// ABOUTME: Nullable columns use sql.Null* and JSONB columns scan as raw bytes.
package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
)

type scoreRow struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	Date              time.Time      `db:"date"`
	HRVScore          sql.NullInt64  `db:"hrv_score"`
	SleepScore        sql.NullInt64  `db:"sleep_score"`
	RestingHRScore    sql.NullInt64  `db:"resting_hr_score"`
	SubjectiveScore   sql.NullInt64  `db:"subjective_score"`
	OverallScore      int            `db:"overall_score"`
	Category          string         `db:"category"`
	IntensityModifier float64        `db:"intensity_modifier"`
	VolumeModifier    float64        `db:"volume_modifier"`
	SuggestedAction   string         `db:"suggested_action"`
	DataSources       []byte         `db:"data_sources"`
	Confidence        float64        `db:"confidence"`
	UserAcknowledged  bool           `db:"user_acknowledged"`
	AcknowledgedAt    sql.NullTime   `db:"acknowledged_at"`
	AdjustmentApplied bool           `db:"adjustment_applied"`
	AdjustmentDetails sql.NullString `db:"adjustment_details"`
}

const scoreColumns = `id, user_id, date, hrv_score, sleep_score, resting_hr_score, subjective_score,
	overall_score, category, intensity_modifier, volume_modifier, suggested_action, data_sources,
	confidence, user_acknowledged, acknowledged_at, adjustment_applied, adjustment_details`

func (r *scoreRow) toModel() (*models.RecoveryScore, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse score id: %w", err)
	}

	s := &models.RecoveryScore{
		ID:                id,
		UserID:            r.UserID,
		Date:              models.DateOnly(r.Date),
		HRVScore:          nullInt(r.HRVScore),
		SleepScore:        nullInt(r.SleepScore),
		RestingHRScore:    nullInt(r.RestingHRScore),
		SubjectiveScore:   nullInt(r.SubjectiveScore),
		OverallScore:      r.OverallScore,
		Category:          models.Category(r.Category),
		IntensityModifier: r.IntensityModifier,
		VolumeModifier:    r.VolumeModifier,
		SuggestedAction:   r.SuggestedAction,
		Confidence:        r.Confidence,
		UserAcknowledged:  r.UserAcknowledged,
		AdjustmentApplied: r.AdjustmentApplied,
	}

	s.DataSources = []models.Source{}
	if len(r.DataSources) > 0 {
		if err := json.Unmarshal(r.DataSources, &s.DataSources); err != nil {
			return nil, fmt.Errorf("unmarshal data sources: %w", err)
		}
	}
	if r.AcknowledgedAt.Valid {
		t := r.AcknowledgedAt.Time.UTC()
		s.AcknowledgedAt = &t
	}
	if r.AdjustmentDetails.Valid {
		var d models.AdjustmentDetails
		if err := json.Unmarshal([]byte(r.AdjustmentDetails.String), &d); err != nil {
			return nil, fmt.Errorf("unmarshal adjustment details: %w", err)
		}
		s.AdjustmentDetails = &d
	}
	return s, nil
}

type dataPointRow struct {
	ID               string          `db:"id"`
	UserID           string          `db:"user_id"`
	Date             time.Time       `db:"date"`
	Source           string          `db:"source"`
	HRVRMSSD         sql.NullFloat64 `db:"hrv_rmssd"`
	HRVSDNN          sql.NullFloat64 `db:"hrv_sdnn"`
	RestingHR        sql.NullFloat64 `db:"resting_hr"`
	AvgHRAwake       sql.NullFloat64 `db:"avg_hr_awake"`
	SleepDurationMin sql.NullFloat64 `db:"sleep_duration_min"`
	SleepEfficiency  sql.NullFloat64 `db:"sleep_efficiency"`
	DeepSleepMin     sql.NullFloat64 `db:"deep_sleep_min"`
	REMSleepMin      sql.NullFloat64 `db:"rem_sleep_min"`
	Awakenings       sql.NullInt64   `db:"awakenings"`
	SleepQuality     sql.NullInt64   `db:"sleep_quality"`
	Steps            sql.NullInt64   `db:"steps"`
	ActiveMinutes    sql.NullInt64   `db:"active_minutes"`
	TrainingLoad     sql.NullFloat64 `db:"training_load"`
	Energy           sql.NullInt64   `db:"energy"`
	Soreness         sql.NullInt64   `db:"soreness"`
	Stress           sql.NullInt64   `db:"stress"`
	Mood             sql.NullInt64   `db:"mood"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

const dataPointColumns = `id, user_id, date, source, hrv_rmssd, hrv_sdnn, resting_hr, avg_hr_awake,
	sleep_duration_min, sleep_efficiency, deep_sleep_min, rem_sleep_min, awakenings, sleep_quality,
	steps, active_minutes, training_load, energy, soreness, stress, mood, created_at, updated_at`

func (r *dataPointRow) toModel() (*models.RecoveryDataPoint, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse data point id: %w", err)
	}
	return &models.RecoveryDataPoint{
		ID:               id,
		UserID:           r.UserID,
		Date:             models.DateOnly(r.Date),
		Source:           models.Source(r.Source),
		HRVRMSSD:         nullFloat(r.HRVRMSSD),
		HRVSDNN:          nullFloat(r.HRVSDNN),
		RestingHR:        nullFloat(r.RestingHR),
		AvgHRAwake:       nullFloat(r.AvgHRAwake),
		SleepDurationMin: nullFloat(r.SleepDurationMin),
		SleepEfficiency:  nullFloat(r.SleepEfficiency),
		DeepSleepMin:     nullFloat(r.DeepSleepMin),
		REMSleepMin:      nullFloat(r.REMSleepMin),
		Awakenings:       nullInt(r.Awakenings),
		SleepQuality:     nullInt(r.SleepQuality),
		Steps:            nullInt(r.Steps),
		ActiveMinutes:    nullInt(r.ActiveMinutes),
		TrainingLoad:     nullFloat(r.TrainingLoad),
		Energy:           nullInt(r.Energy),
		Soreness:         nullInt(r.Soreness),
		Stress:           nullInt(r.Stress),
		Mood:             nullInt(r.Mood),
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}, nil
}

type adjustmentRow struct {
	ID                         string          `db:"id"`
	UserID                     string          `db:"user_id"`
	ScoreID                    string          `db:"score_id"`
	ScoreDate                  time.Time       `db:"score_date"`
	Category                   string          `db:"category"`
	OverallScore               int             `db:"overall_score"`
	SuggestedIntensityModifier float64         `db:"suggested_intensity_modifier"`
	SuggestedVolumeModifier    float64         `db:"suggested_volume_modifier"`
	ActionTaken                string          `db:"action_taken"`
	ActualIntensityModifier    sql.NullFloat64 `db:"actual_intensity_modifier"`
	ActualVolumeModifier       sql.NullFloat64 `db:"actual_volume_modifier"`
	Notes                      sql.NullString  `db:"notes"`
	CreatedAt                  time.Time       `db:"created_at"`
}

const adjustmentColumns = `id, user_id, score_id, score_date, category, overall_score,
	suggested_intensity_modifier, suggested_volume_modifier, action_taken,
	actual_intensity_modifier, actual_volume_modifier, notes, created_at`

func (r *adjustmentRow) toModel() (*models.RecoveryAdjustmentLog, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse adjustment log id: %w", err)
	}
	scoreID, err := uuid.Parse(r.ScoreID)
	if err != nil {
		return nil, fmt.Errorf("parse score id: %w", err)
	}
	l := &models.RecoveryAdjustmentLog{
		ID:                         id,
		UserID:                     r.UserID,
		ScoreID:                    scoreID,
		ScoreDate:                  models.DateOnly(r.ScoreDate),
		Category:                   models.Category(r.Category),
		OverallScore:               r.OverallScore,
		SuggestedIntensityModifier: r.SuggestedIntensityModifier,
		SuggestedVolumeModifier:    r.SuggestedVolumeModifier,
		ActionTaken:                models.Action(r.ActionTaken),
		ActualIntensityModifier:    nullFloat(r.ActualIntensityModifier),
		ActualVolumeModifier:       nullFloat(r.ActualVolumeModifier),
		CreatedAt:                  r.CreatedAt.UTC(),
	}
	if r.Notes.Valid {
		notes := r.Notes.String
		l.Notes = &notes
	}
	return l, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
