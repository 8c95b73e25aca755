// ABOUTME: MCP tool implementations for recovery scoring.
// ABOUTME: Data ingestion, score computation, acknowledgment, decisions, and trends.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/recovery/internal/engine"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// add_data_point
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_data_point",
		Description: "Record one day's normalized observations from a source (HRV, heart rate, sleep, activity, subjective ratings)",
	}, s.handleAddDataPoint)

	// compute_score
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compute_score",
		Description: "Compute and store the recovery score for a day, from explicit inputs or from stored data points",
	}, s.handleComputeScore)

	// get_score
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_score",
		Description: "Get a recovery score by ID or ID prefix, or by athlete and date",
	}, s.handleGetScore)

	// acknowledge_score
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "acknowledge_score",
		Description: "Mark a recovery score as seen by the athlete",
	}, s.handleAcknowledgeScore)

	// log_decision
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_decision",
		Description: "Record what the athlete did with a recommendation: accepted, rejected, modified, or skipped_workout",
	}, s.handleLogDecision)

	// get_trend
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_trend",
		Description: "Get the athlete's recovery trend (improving, declining, stable) over the recent window",
	}, s.handleGetTrend)

	// adjustment_history
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "adjustment_history",
		Description: "List the athlete's logged decisions, newest first",
	}, s.handleAdjustmentHistory)
}

// Tool input/output types

type addDataPointInput struct {
	UserID string `json:"user_id" jsonschema:"Athlete ID"`
	Date   string `json:"date,omitempty" jsonschema:"Calendar date (YYYY-MM-DD), defaults to today"`
	Source string `json:"source" jsonschema:"Data source: manual, whoop, oura, garmin, apple_health, fitbit, terra_api"`

	HRVRMSSD         *float64 `json:"hrv_rmssd,omitempty" jsonschema:"HRV RMSSD in ms"`
	HRVSDNN          *float64 `json:"hrv_sdnn,omitempty" jsonschema:"HRV SDNN in ms"`
	RestingHR        *float64 `json:"resting_hr,omitempty" jsonschema:"Resting heart rate in bpm"`
	AvgHRAwake       *float64 `json:"avg_hr_awake,omitempty" jsonschema:"Average awake heart rate in bpm"`
	SleepDurationMin *float64 `json:"sleep_duration_min,omitempty" jsonschema:"Total sleep in minutes"`
	SleepEfficiency  *float64 `json:"sleep_efficiency,omitempty" jsonschema:"Sleep efficiency percent (0-100)"`
	DeepSleepMin     *float64 `json:"deep_sleep_min,omitempty" jsonschema:"Deep sleep in minutes"`
	REMSleepMin      *float64 `json:"rem_sleep_min,omitempty" jsonschema:"REM sleep in minutes"`
	Awakenings       *int     `json:"awakenings,omitempty" jsonschema:"Number of awakenings"`
	SleepQuality     *int     `json:"sleep_quality,omitempty" jsonschema:"Sleep quality rating (1-5)"`
	Steps            *int     `json:"steps,omitempty" jsonschema:"Step count"`
	ActiveMinutes    *int     `json:"active_minutes,omitempty" jsonschema:"Active minutes"`
	TrainingLoad     *float64 `json:"training_load,omitempty" jsonschema:"Training load"`
	Energy           *int     `json:"energy,omitempty" jsonschema:"Energy rating (1-5)"`
	Soreness         *int     `json:"soreness,omitempty" jsonschema:"Soreness rating (1-5, higher is worse)"`
	Stress           *int     `json:"stress,omitempty" jsonschema:"Stress rating (1-5, higher is worse)"`
	Mood             *int     `json:"mood,omitempty" jsonschema:"Mood rating (1-5)"`
}

type simpleOutput struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

type computeScoreInput struct {
	UserID     string                   `json:"user_id" jsonschema:"Athlete ID"`
	Date       string                   `json:"date,omitempty" jsonschema:"Calendar date (YYYY-MM-DD), defaults to today"`
	FromData   bool                     `json:"from_data,omitempty" jsonschema:"Build inputs from stored data points instead of the fields below"`
	HRV        *scoring.HRVInput        `json:"hrv,omitempty" jsonschema:"Current RMSSD and its 7-day baseline"`
	Sleep      *scoring.SleepInput      `json:"sleep,omitempty" jsonschema:"Sleep duration, efficiency, deep and REM minutes"`
	RestingHR  *scoring.RestingHRInput  `json:"resting_hr,omitempty" jsonschema:"Current resting heart rate and its baseline"`
	Subjective *scoring.SubjectiveInput `json:"subjective,omitempty" jsonschema:"Energy, soreness, stress, and mood ratings (1-5)"`
	Sources    []string                 `json:"sources,omitempty" jsonschema:"Sources that contributed the inputs"`
}

type scoreOutput struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	Date              string   `json:"date"`
	HRVScore          *int     `json:"hrv_score,omitempty"`
	SleepScore        *int     `json:"sleep_score,omitempty"`
	RestingHRScore    *int     `json:"resting_hr_score,omitempty"`
	SubjectiveScore   *int     `json:"subjective_score,omitempty"`
	OverallScore      int      `json:"overall_score"`
	Category          string   `json:"category"`
	IntensityModifier float64  `json:"intensity_modifier"`
	VolumeModifier    float64  `json:"volume_modifier"`
	SuggestedAction   string   `json:"suggested_action"`
	DataSources       []string `json:"data_sources"`
	Confidence        float64  `json:"confidence"`
	UserAcknowledged  bool     `json:"user_acknowledged"`
	AdjustmentApplied bool     `json:"adjustment_applied"`
}

type getScoreInput struct {
	ID     string `json:"id,omitempty" jsonschema:"Score ID or prefix"`
	UserID string `json:"user_id,omitempty" jsonschema:"Athlete ID, used with date when no id is given"`
	Date   string `json:"date,omitempty" jsonschema:"Calendar date (YYYY-MM-DD), defaults to today"`
}

type getScoreOutput struct {
	Found   bool         `json:"found"`
	Score   *scoreOutput `json:"score,omitempty"`
	Message string       `json:"message,omitempty"`
}

type acknowledgeInput struct {
	ID string `json:"id" jsonschema:"Score ID or prefix"`
}

type logDecisionInput struct {
	ScoreID                 string   `json:"score_id" jsonschema:"Score ID or prefix"`
	Action                  string   `json:"action" jsonschema:"accepted, rejected, modified, or skipped_workout"`
	ActualIntensityModifier *float64 `json:"actual_intensity_modifier,omitempty" jsonschema:"Intensity factor actually used (modified only, 0-2)"`
	ActualVolumeModifier    *float64 `json:"actual_volume_modifier,omitempty" jsonschema:"Volume factor actually used (modified only, 0-2)"`
	Notes                   string   `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type logOutput struct {
	ID                         string   `json:"id"`
	ScoreID                    string   `json:"score_id"`
	ScoreDate                  string   `json:"score_date"`
	Category                   string   `json:"category"`
	OverallScore               int      `json:"overall_score"`
	SuggestedIntensityModifier float64  `json:"suggested_intensity_modifier"`
	SuggestedVolumeModifier    float64  `json:"suggested_volume_modifier"`
	ActionTaken                string   `json:"action_taken"`
	ActualIntensityModifier    *float64 `json:"actual_intensity_modifier,omitempty"`
	ActualVolumeModifier       *float64 `json:"actual_volume_modifier,omitempty"`
	Notes                      string   `json:"notes,omitempty"`
	CreatedAt                  string   `json:"created_at"`
}

type userInput struct {
	UserID string `json:"user_id" jsonschema:"Athlete ID"`
}

type trendOutput struct {
	Trend   string `json:"trend,omitempty"`
	Known   bool   `json:"known"`
	Message string `json:"message"`
}

type historyInput struct {
	UserID string `json:"user_id" jsonschema:"Athlete ID"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type historyOutput struct {
	Count int          `json:"count"`
	Logs  []*logOutput `json:"logs"`
}

// Tool handlers

func (s *Server) handleAddDataPoint(ctx context.Context, req *mcp.CallToolRequest, input addDataPointInput) (*mcp.CallToolResult, simpleOutput, error) {
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, simpleOutput{}, err
	}

	p := models.NewDataPoint(input.UserID, date, models.Source(input.Source))
	p.HRVRMSSD = input.HRVRMSSD
	p.HRVSDNN = input.HRVSDNN
	p.RestingHR = input.RestingHR
	p.AvgHRAwake = input.AvgHRAwake
	p.SleepDurationMin = input.SleepDurationMin
	p.SleepEfficiency = input.SleepEfficiency
	p.DeepSleepMin = input.DeepSleepMin
	p.REMSleepMin = input.REMSleepMin
	p.Awakenings = input.Awakenings
	p.SleepQuality = input.SleepQuality
	p.Steps = input.Steps
	p.ActiveMinutes = input.ActiveMinutes
	p.TrainingLoad = input.TrainingLoad
	p.Energy = input.Energy
	p.Soreness = input.Soreness
	p.Stress = input.Stress
	p.Mood = input.Mood

	if err := s.engine.RecordDataPoint(ctx, p); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to record data point: %w", err)
	}

	return nil, simpleOutput{
		ID:      p.ID.String()[:8],
		Message: fmt.Sprintf("Recorded %s data for %s on %s", p.Source, p.UserID, models.FormatDate(p.Date)),
	}, nil
}

func (s *Server) handleComputeScore(ctx context.Context, req *mcp.CallToolRequest, input computeScoreInput) (*mcp.CallToolResult, scoreOutput, error) {
	date, err := s.parseDate(input.Date)
	if err != nil {
		return nil, scoreOutput{}, err
	}

	var score *models.RecoveryScore
	if input.FromData {
		score, err = s.engine.ComputeFromDataPoints(ctx, input.UserID, date)
	} else {
		in := scoring.ScoreInputs{
			HRV:        input.HRV,
			Sleep:      input.Sleep,
			RestingHR:  input.RestingHR,
			Subjective: input.Subjective,
		}
		for _, src := range input.Sources {
			in.Sources = append(in.Sources, models.Source(src))
		}
		score, err = s.engine.ComputeAndStore(ctx, input.UserID, date, in)
	}
	if err != nil {
		return nil, scoreOutput{}, fmt.Errorf("failed to compute score: %w", err)
	}

	return nil, *toScoreOutput(score), nil
}

func (s *Server) handleGetScore(ctx context.Context, req *mcp.CallToolRequest, input getScoreInput) (*mcp.CallToolResult, getScoreOutput, error) {
	var score *models.RecoveryScore
	var err error
	switch {
	case input.ID != "":
		score, err = s.engine.ScoreByID(ctx, input.ID)
	case input.UserID != "":
		var date time.Time
		if date, err = s.parseDate(input.Date); err != nil {
			return nil, getScoreOutput{}, err
		}
		score, err = s.engine.GetScore(ctx, input.UserID, date)
	default:
		return nil, getScoreOutput{}, fmt.Errorf("either id or user_id is required")
	}
	if err != nil {
		return nil, getScoreOutput{}, fmt.Errorf("failed to get score: %w", err)
	}

	if score == nil {
		return nil, getScoreOutput{Message: "No score computed for that day."}, nil
	}
	return nil, getScoreOutput{Found: true, Score: toScoreOutput(score)}, nil
}

func (s *Server) handleAcknowledgeScore(ctx context.Context, req *mcp.CallToolRequest, input acknowledgeInput) (*mcp.CallToolResult, simpleOutput, error) {
	score, err := s.engine.Acknowledge(ctx, input.ID)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to acknowledge score: %w", err)
	}

	return nil, simpleOutput{
		ID:      score.ID.String()[:8],
		Message: fmt.Sprintf("Acknowledged %s score for %s", models.FormatDate(score.Date), score.UserID),
	}, nil
}

func (s *Server) handleLogDecision(ctx context.Context, req *mcp.CallToolRequest, input logDecisionInput) (*mcp.CallToolResult, logOutput, error) {
	var actual *engine.Modifiers
	switch {
	case input.ActualIntensityModifier != nil && input.ActualVolumeModifier != nil:
		actual = &engine.Modifiers{Intensity: *input.ActualIntensityModifier, Volume: *input.ActualVolumeModifier}
	case input.ActualIntensityModifier != nil || input.ActualVolumeModifier != nil:
		return nil, logOutput{}, models.Invalid("actual_modifiers", "both intensity and volume are required")
	}

	l, err := s.engine.LogDecision(ctx, input.ScoreID, models.Action(input.Action), actual, input.Notes)
	if err != nil {
		return nil, logOutput{}, fmt.Errorf("failed to log decision: %w", err)
	}
	return nil, *toLogOutput(l), nil
}

func (s *Server) handleGetTrend(ctx context.Context, req *mcp.CallToolRequest, input userInput) (*mcp.CallToolResult, trendOutput, error) {
	trend, ok, err := s.engine.Trend(ctx, input.UserID)
	if err != nil {
		return nil, trendOutput{}, fmt.Errorf("failed to get trend: %w", err)
	}
	if !ok {
		return nil, trendOutput{Message: fmt.Sprintf("Not enough scores yet (need at least %d).", scoring.MinTrendScores)}, nil
	}
	return nil, trendOutput{
		Trend:   string(trend),
		Known:   true,
		Message: fmt.Sprintf("Recovery is %s.", trend),
	}, nil
}

func (s *Server) handleAdjustmentHistory(ctx context.Context, req *mcp.CallToolRequest, input historyInput) (*mcp.CallToolResult, historyOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	logs, err := s.engine.History(ctx, input.UserID, input.Limit)
	if err != nil {
		return nil, historyOutput{}, fmt.Errorf("failed to get history: %w", err)
	}

	out := historyOutput{Count: len(logs), Logs: make([]*logOutput, 0, len(logs))}
	for _, l := range logs {
		out.Logs = append(out.Logs, toLogOutput(l))
	}
	return nil, out, nil
}

func (s *Server) parseDate(value string) (time.Time, error) {
	if value == "" {
		return s.engine.Today(), nil
	}
	date, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, models.Invalid("date", "expected YYYY-MM-DD, got %q", value)
	}
	return date, nil
}

func toScoreOutput(s *models.RecoveryScore) *scoreOutput {
	out := &scoreOutput{
		ID:                s.ID.String(),
		UserID:            s.UserID,
		Date:              models.FormatDate(s.Date),
		HRVScore:          s.HRVScore,
		SleepScore:        s.SleepScore,
		RestingHRScore:    s.RestingHRScore,
		SubjectiveScore:   s.SubjectiveScore,
		OverallScore:      s.OverallScore,
		Category:          string(s.Category),
		IntensityModifier: s.IntensityModifier,
		VolumeModifier:    s.VolumeModifier,
		SuggestedAction:   s.SuggestedAction,
		DataSources:       make([]string, 0, len(s.DataSources)),
		Confidence:        s.Confidence,
		UserAcknowledged:  s.UserAcknowledged,
		AdjustmentApplied: s.AdjustmentApplied,
	}
	for _, src := range s.DataSources {
		out.DataSources = append(out.DataSources, string(src))
	}
	return out
}

func toLogOutput(l *models.RecoveryAdjustmentLog) *logOutput {
	out := &logOutput{
		ID:                         l.ID.String(),
		ScoreID:                    l.ScoreID.String(),
		ScoreDate:                  models.FormatDate(l.ScoreDate),
		Category:                   string(l.Category),
		OverallScore:               l.OverallScore,
		SuggestedIntensityModifier: l.SuggestedIntensityModifier,
		SuggestedVolumeModifier:    l.SuggestedVolumeModifier,
		ActionTaken:                string(l.ActionTaken),
		ActualIntensityModifier:    l.ActualIntensityModifier,
		ActualVolumeModifier:       l.ActualVolumeModifier,
		CreatedAt:                  l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.Notes != nil {
		out.Notes = *l.Notes
	}
	return out
}
