// ABOUTME: Category classifier mapping an overall score to a readiness tier.
// ABOUTME: The single source of truth for score/category consistency.
package scoring

import "github.com/harperreed/recovery/internal/models"

// Lower bounds of each category, inclusive.
const (
	recoveredMin      = 80
	moderateMin       = 60
	underRecoveredMin = 40
)

// Classify maps an overall score to its category.
func Classify(overall int) models.Category {
	switch {
	case overall >= recoveredMin:
		return models.CategoryRecovered
	case overall >= moderateMin:
		return models.CategoryModerate
	case overall >= underRecoveredMin:
		return models.CategoryUnderRecovered
	default:
		return models.CategoryCritical
	}
}

// CategoryRange returns the inclusive overall-score bounds of a category.
// Unknown categories report the critical range.
func CategoryRange(c models.Category) (lo, hi int) {
	switch c {
	case models.CategoryRecovered:
		return recoveredMin, 100
	case models.CategoryModerate:
		return moderateMin, recoveredMin - 1
	case models.CategoryUnderRecovered:
		return underRecoveredMin, moderateMin - 1
	default:
		return 0, underRecoveredMin - 1
	}
}

// CheckScore validates ranges and that the category matches the overall score.
func CheckScore(s *models.RecoveryScore) error {
	if err := s.ValidateRanges(); err != nil {
		return err
	}
	if want := Classify(s.OverallScore); s.Category != want {
		return models.Invalid("category", "%s does not match overall score %d (want %s)",
			s.Category, s.OverallScore, want)
	}
	return nil
}
