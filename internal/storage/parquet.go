// ABOUTME: Parquet export of scores and adjustment logs for offline analysis.
// ABOUTME: Files are written to an in-memory buffer with SNAPPY compression.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/recovery/internal/models"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type scoreParquetRow struct {
	ID                string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID            string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date              string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	HRVScore          *int32  `parquet:"name=hrv_score, type=INT32, repetitiontype=OPTIONAL"`
	SleepScore        *int32  `parquet:"name=sleep_score, type=INT32, repetitiontype=OPTIONAL"`
	RestingHRScore    *int32  `parquet:"name=resting_hr_score, type=INT32, repetitiontype=OPTIONAL"`
	SubjectiveScore   *int32  `parquet:"name=subjective_score, type=INT32, repetitiontype=OPTIONAL"`
	OverallScore      int32   `parquet:"name=overall_score, type=INT32"`
	Category          string  `parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	IntensityModifier float64 `parquet:"name=intensity_modifier, type=DOUBLE"`
	VolumeModifier    float64 `parquet:"name=volume_modifier, type=DOUBLE"`
	Confidence        float64 `parquet:"name=confidence, type=DOUBLE"`
	DataSources       string  `parquet:"name=data_sources, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAcknowledged  bool    `parquet:"name=user_acknowledged, type=BOOLEAN"`
	AdjustmentApplied bool    `parquet:"name=adjustment_applied, type=BOOLEAN"`
}

type adjustmentParquetRow struct {
	ID                         string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID                     string   `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ScoreID                    string   `parquet:"name=score_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreDate                  string   `parquet:"name=score_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Category                   string   `parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	OverallScore               int32    `parquet:"name=overall_score, type=INT32"`
	SuggestedIntensityModifier float64  `parquet:"name=suggested_intensity_modifier, type=DOUBLE"`
	SuggestedVolumeModifier    float64  `parquet:"name=suggested_volume_modifier, type=DOUBLE"`
	ActionTaken                string   `parquet:"name=action_taken, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ActualIntensityModifier    *float64 `parquet:"name=actual_intensity_modifier, type=DOUBLE, repetitiontype=OPTIONAL"`
	ActualVolumeModifier       *float64 `parquet:"name=actual_volume_modifier, type=DOUBLE, repetitiontype=OPTIONAL"`
	CreatedAt                  string   `parquet:"name=created_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportScoresParquet writes every stored score as one Parquet row.
func ExportScoresParquet(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]scoreParquetRow, 0, len(data.Scores))
	for _, s := range data.Scores {
		sources := make([]string, 0, len(s.DataSources))
		for _, src := range s.DataSources {
			sources = append(sources, string(src))
		}
		rows = append(rows, scoreParquetRow{
			ID:                s.ID.String(),
			UserID:            s.UserID,
			Date:              models.FormatDate(s.Date),
			HRVScore:          int32Ptr(s.HRVScore),
			SleepScore:        int32Ptr(s.SleepScore),
			RestingHRScore:    int32Ptr(s.RestingHRScore),
			SubjectiveScore:   int32Ptr(s.SubjectiveScore),
			OverallScore:      int32(s.OverallScore),
			Category:          string(s.Category),
			IntensityModifier: s.IntensityModifier,
			VolumeModifier:    s.VolumeModifier,
			Confidence:        s.Confidence,
			DataSources:       strings.Join(sources, ","),
			UserAcknowledged:  s.UserAcknowledged,
			AdjustmentApplied: s.AdjustmentApplied,
		})
	}
	return marshalParquet(rows)
}

// ExportAdjustmentsParquet writes every decision log as one Parquet row.
func ExportAdjustmentsParquet(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]adjustmentParquetRow, 0, len(data.AdjustmentLogs))
	for _, l := range data.AdjustmentLogs {
		rows = append(rows, adjustmentParquetRow{
			ID:                         l.ID.String(),
			UserID:                     l.UserID,
			ScoreID:                    l.ScoreID.String(),
			ScoreDate:                  models.FormatDate(l.ScoreDate),
			Category:                   string(l.Category),
			OverallScore:               int32(l.OverallScore),
			SuggestedIntensityModifier: l.SuggestedIntensityModifier,
			SuggestedVolumeModifier:    l.SuggestedVolumeModifier,
			ActionTaken:                string(l.ActionTaken),
			ActualIntensityModifier:    l.ActualIntensityModifier,
			ActualVolumeModifier:       l.ActualVolumeModifier,
			CreatedAt:                  models.FormatTimestamp(l.CreatedAt),
		})
	}
	return marshalParquet(rows)
}

func marshalParquet[T any](rows []T) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(T), 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}
