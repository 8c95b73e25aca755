// ABOUTME: Full pipeline from inputs to a classified, prescribed RecoveryScore.
// ABOUTME: Sub-scores, composite, category, and policy in one pure call.
package scoring

import (
	"sort"
	"time"

	"github.com/harperreed/recovery/internal/models"
)

// Compute validates inputs and builds the score for userID on date.
// The returned score is fresh: no acknowledgment or adjustment state.
func Compute(userID string, date time.Time, in ScoreInputs) (*models.RecoveryScore, error) {
	s := &models.RecoveryScore{UserID: userID, Date: models.DateOnly(date)}
	if err := s.ValidateKey(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sub := in.SubScores()
	composite := Aggregate(sub)
	category := Classify(composite.Overall)
	policy := PolicyFor(category)

	s.ID = models.ScoreID(userID, s.Date)
	s.HRVScore = sub.HRV
	s.SleepScore = sub.Sleep
	s.RestingHRScore = sub.RestingHR
	s.SubjectiveScore = sub.Subjective
	s.OverallScore = composite.Overall
	s.Confidence = composite.Confidence
	s.Category = category
	s.IntensityModifier = policy.IntensityModifier
	s.VolumeModifier = policy.VolumeModifier
	s.SuggestedAction = policy.SuggestedAction
	s.DataSources = normalizeSources(in.Sources)

	return s, nil
}

// normalizeSources dedupes and orders sources by merge priority so identical
// inputs always persist identical records.
func normalizeSources(sources []models.Source) []models.Source {
	seen := make(map[models.Source]bool, len(sources))
	out := make([]models.Source, 0, len(sources))
	for _, src := range sources {
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool {
		return models.SourcePriority(out[i]) < models.SourcePriority(out[j])
	})
	return out
}
