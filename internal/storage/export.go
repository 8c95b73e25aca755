// ABOUTME: Export and import functionality for recovery data.
// ABOUTME: Supports JSON, YAML, Markdown, and Parquet export over any Repository.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/recovery/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for recovery data.
type ExportData struct {
	Version        string                          `json:"version" yaml:"version"`
	ExportedAt     time.Time                       `json:"exported_at" yaml:"exported_at"`
	Tool           string                          `json:"tool" yaml:"tool"`
	Scores         []*models.RecoveryScore         `json:"scores" yaml:"scores"`
	DataPoints     []*models.RecoveryDataPoint     `json:"data_points" yaml:"data_points"`
	AdjustmentLogs []*models.RecoveryAdjustmentLog `json:"adjustment_logs" yaml:"adjustment_logs"`
}

// NewExportData stamps a snapshot with the current format version.
func NewExportData(scores []*models.RecoveryScore, points []*models.RecoveryDataPoint, logs []*models.RecoveryAdjustmentLog) *ExportData {
	return &ExportData{
		Version:        "1.0",
		ExportedAt:     time.Now().UTC(),
		Tool:           "recovery",
		Scores:         scores,
		DataPoints:     points,
		AdjustmentLogs: logs,
	}
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+scoreColumns+` FROM recovery_scores ORDER BY user_id, date DESC`)
	if err != nil {
		return nil, models.WrapStore("list scores", err)
	}
	defer rows.Close()

	scores, err := scanScores(rows)
	if err != nil {
		return nil, models.WrapStore("list scores", err)
	}

	points, err := d.listDataPoints(ctx)
	if err != nil {
		return nil, models.WrapStore("list data points", err)
	}

	logs, err := d.listAdjustmentLogs(ctx)
	if err != nil {
		return nil, models.WrapStore("list adjustment logs", err)
	}

	return NewExportData(scores, points, logs), nil
}

// ImportSummary holds counts of imported entities.
type ImportSummary struct {
	Scores         int
	DataPoints     int
	AdjustmentLogs int
	SkippedLogs    int
}

// ImportData replays an export into repo. Scores and data points are upserted;
// adjustment logs keep their IDs and a log that already exists is skipped.
func ImportData(ctx context.Context, repo Repository, data *ExportData) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for _, p := range data.DataPoints {
		if err := repo.UpsertDataPoint(ctx, p); err != nil {
			return summary, fmt.Errorf("import data point %s: %w", p.ID, err)
		}
		summary.DataPoints++
	}

	for _, s := range data.Scores {
		if _, err := repo.UpsertScore(ctx, s, models.LastWriteWins); err != nil {
			return summary, fmt.Errorf("import score %s: %w", s.ID, err)
		}
		summary.Scores++
	}

	for _, l := range data.AdjustmentLogs {
		existing, err := repo.GetAdjustmentLog(ctx, l.ID)
		if err != nil {
			return summary, fmt.Errorf("check adjustment log %s: %w", l.ID, err)
		}
		if existing != nil {
			summary.SkippedLogs++
			continue
		}
		if _, err := repo.AppendAdjustmentLog(ctx, l); err != nil {
			return summary, fmt.Errorf("import adjustment log %s: %w", l.ID, err)
		}
		summary.AdjustmentLogs++
	}

	return summary, nil
}

// ImportJSON imports data from JSON bytes.
func ImportJSON(ctx context.Context, repo Repository, data []byte) (*ImportSummary, error) {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return ImportData(ctx, repo, &exportData)
}

// ExportJSON exports all data as JSON.
func ExportJSON(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML, grouped by athlete.
func ExportYAML(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string                 `yaml:"version"`
		ExportedAt string                 `yaml:"exported_at"`
		Tool       string                 `yaml:"tool"`
		Athletes   map[string]yamlAthlete `yaml:"athletes"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Athletes:   make(map[string]yamlAthlete),
	}

	for _, s := range data.Scores {
		a := yamlData.Athletes[s.UserID]
		ys := yamlScore{
			ID:           s.ID.String()[:8],
			Date:         models.FormatDate(s.Date),
			Overall:      s.OverallScore,
			Category:     string(s.Category),
			Confidence:   s.Confidence,
			Intensity:    s.IntensityModifier,
			Volume:       s.VolumeModifier,
			Acknowledged: s.UserAcknowledged,
			Applied:      s.AdjustmentApplied,
		}
		for _, src := range s.DataSources {
			ys.Sources = append(ys.Sources, string(src))
		}
		a.Scores = append(a.Scores, ys)
		yamlData.Athletes[s.UserID] = a
	}

	for _, l := range data.AdjustmentLogs {
		a := yamlData.Athletes[l.UserID]
		yd := yamlDecision{
			ID:        l.ID.String()[:8],
			ScoreDate: models.FormatDate(l.ScoreDate),
			Action:    string(l.ActionTaken),
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
		if l.ActualIntensityModifier != nil {
			yd.Intensity = *l.ActualIntensityModifier
		}
		if l.ActualVolumeModifier != nil {
			yd.Volume = *l.ActualVolumeModifier
		}
		if l.Notes != nil {
			yd.Notes = *l.Notes
		}
		a.Decisions = append(a.Decisions, yd)
		yamlData.Athletes[l.UserID] = a
	}

	for _, p := range data.DataPoints {
		a := yamlData.Athletes[p.UserID]
		a.DataPoints++
		yamlData.Athletes[p.UserID] = a
	}

	return yaml.Marshal(yamlData)
}

type yamlAthlete struct {
	DataPoints int            `yaml:"data_points"`
	Scores     []yamlScore    `yaml:"scores,omitempty"`
	Decisions  []yamlDecision `yaml:"decisions,omitempty"`
}

type yamlScore struct {
	ID           string   `yaml:"id"`
	Date         string   `yaml:"date"`
	Overall      int      `yaml:"overall"`
	Category     string   `yaml:"category"`
	Confidence   float64  `yaml:"confidence"`
	Intensity    float64  `yaml:"intensity_modifier"`
	Volume       float64  `yaml:"volume_modifier"`
	Sources      []string `yaml:"sources,omitempty"`
	Acknowledged bool     `yaml:"acknowledged"`
	Applied      bool     `yaml:"adjustment_applied"`
}

type yamlDecision struct {
	ID        string  `yaml:"id"`
	ScoreDate string  `yaml:"score_date"`
	Action    string  `yaml:"action"`
	Intensity float64 `yaml:"actual_intensity_modifier,omitempty"`
	Volume    float64 `yaml:"actual_volume_modifier,omitempty"`
	Notes     string  `yaml:"notes,omitempty"`
	CreatedAt string  `yaml:"created_at"`
}

// ExportMarkdown renders scores and decisions as Markdown tables, one section
// per athlete. An empty userID includes every athlete; since filters by date.
func ExportMarkdown(ctx context.Context, repo Repository, userID string, since *time.Time) (string, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return "", err
	}

	include := func(user string, date time.Time) bool {
		if userID != "" && user != userID {
			return false
		}
		return since == nil || !date.Before(*since)
	}

	scores := make(map[string][]*models.RecoveryScore)
	for _, s := range data.Scores {
		if include(s.UserID, s.Date) {
			scores[s.UserID] = append(scores[s.UserID], s)
		}
	}
	decisions := make(map[string][]*models.RecoveryAdjustmentLog)
	for _, l := range data.AdjustmentLogs {
		if include(l.UserID, l.ScoreDate) {
			decisions[l.UserID] = append(decisions[l.UserID], l)
		}
	}

	// Sort athletes for consistent output
	var athletes []string
	for user := range scores {
		athletes = append(athletes, user)
	}
	for user := range decisions {
		if _, ok := scores[user]; !ok {
			athletes = append(athletes, user)
		}
	}
	sort.Strings(athletes)

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# Recovery Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	for _, user := range athletes {
		sb.WriteString(fmt.Sprintf("## %s\n\n", user))

		if list := scores[user]; len(list) > 0 {
			sb.WriteString("| Date | Overall | Category | Confidence | Intensity | Volume | Ack | Applied |\n")
			sb.WriteString("|------|---------|----------|------------|-----------|--------|-----|---------|\n")
			for _, s := range list {
				sb.WriteString(fmt.Sprintf("| %s | %d | %s | %.2f | %.2f | %.2f | %s | %s |\n",
					models.FormatDate(s.Date), s.OverallScore, s.Category, s.Confidence,
					s.IntensityModifier, s.VolumeModifier, yesNo(s.UserAcknowledged), yesNo(s.AdjustmentApplied)))
			}
			sb.WriteString("\n")
		}

		if list := decisions[user]; len(list) > 0 {
			sb.WriteString("### Decisions\n\n")
			sb.WriteString("| Logged | Score Date | Action | Intensity | Volume | Notes |\n")
			sb.WriteString("|--------|------------|--------|-----------|--------|-------|\n")
			for _, l := range list {
				notes := ""
				if l.Notes != nil {
					notes = *l.Notes
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
					l.CreatedAt.Format("2006-01-02 15:04"), models.FormatDate(l.ScoreDate), l.ActionTaken,
					optionalModifier(l.ActualIntensityModifier), optionalModifier(l.ActualVolumeModifier), notes))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func optionalModifier(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
