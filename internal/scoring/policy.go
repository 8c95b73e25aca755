// ABOUTME: Policy engine mapping a readiness category to training modifiers.
// ABOUTME: Modifiers are multiplicative factors on planned intensity and volume.
package scoring

import "github.com/harperreed/recovery/internal/models"

// Policy is the prescription for one category.
type Policy struct {
	Category          models.Category `json:"category"`
	IntensityModifier float64         `json:"intensity_modifier"`
	VolumeModifier    float64         `json:"volume_modifier"`
	SuggestedAction   string          `json:"suggested_action"`
}

const proceedAction = "Proceed with your planned workout."

var policies = map[models.Category]Policy{
	models.CategoryRecovered: {
		Category:          models.CategoryRecovered,
		IntensityModifier: 1.0,
		VolumeModifier:    1.0,
		SuggestedAction:   proceedAction,
	},
	models.CategoryModerate: {
		Category:          models.CategoryModerate,
		IntensityModifier: 1.0,
		VolumeModifier:    1.0,
		SuggestedAction:   proceedAction,
	},
	models.CategoryUnderRecovered: {
		Category:          models.CategoryUnderRecovered,
		IntensityModifier: 0.85,
		VolumeModifier:    0.85,
		SuggestedAction:   "Consider reducing intensity and volume by ~15%.",
	},
	models.CategoryCritical: {
		Category:          models.CategoryCritical,
		IntensityModifier: 0.6,
		VolumeModifier:    0.5,
		SuggestedAction:   "Active recovery or rest is recommended today.",
	},
}

// PolicyFor returns the prescription for a category. Unknown categories get
// the critical prescription.
func PolicyFor(c models.Category) Policy {
	if p, ok := policies[c]; ok {
		return p
	}
	return policies[models.CategoryCritical]
}

// PolicyTable returns every prescription from best to worst category.
func PolicyTable() []Policy {
	table := make([]Policy, 0, len(models.AllCategories))
	for _, c := range models.AllCategories {
		table = append(table, policies[c])
	}
	return table
}
