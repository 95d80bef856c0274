// Package scoring implements composite candidate scoring and knockout rule
// evaluation. Both operations are pure: the same inputs always produce the
// same outputs, so they can be re-run whenever a sub-score changes.
package scoring

import (
	"fmt"
	"math"
)

// Weighting channel names. Values are percentages that sum to 100.
const (
	ChannelCV         = "cv"
	ChannelAssessment = "assessment"
	ChannelInterview  = "interview"
	ChannelReferences = "references"
)

// Weightings maps a sub-score channel to its percentage weight
type Weightings map[string]float64

// SubScores holds the four sub-scores in the 0..100 range
type SubScores struct {
	CV         float64 `json:"cv_score"`
	Assessment float64 `json:"assessment_score"`
	Interview  float64 `json:"interview_feedback_score"`
	References float64 `json:"references_score"`
}

// Breakdown records each sub-score, the weightings snapshot used, and the
// computed overall value. Stored on the application as scoring_breakdown.
type Breakdown struct {
	SubScores  SubScores  `json:"sub_scores"`
	Weightings Weightings `json:"weightings"`
	Overall    float64    `json:"overall_score"`
}

// ValidateWeightings checks that all keys are known channels, all values are
// non-negative, and the values sum to 100. Missing channels are allowed; the
// composite treats them as weight 0.
func ValidateWeightings(w Weightings) error {
	if len(w) == 0 {
		return fmt.Errorf("weightings are required")
	}
	sum := 0.0
	for channel, weight := range w {
		switch channel {
		case ChannelCV, ChannelAssessment, ChannelInterview, ChannelReferences:
		default:
			return fmt.Errorf("unknown weighting channel: %s", channel)
		}
		if weight < 0 {
			return fmt.Errorf("weighting for %s must not be negative", channel)
		}
		sum += weight
	}
	if math.Abs(sum-100) > 1e-9 {
		return fmt.Errorf("weightings must sum to 100, got %g", sum)
	}
	return nil
}

// Composite computes the weighted overall score from the sub-scores.
// Overall = sum(sub_score * weight / 100). Channels absent from the
// weightings contribute nothing.
func Composite(sub SubScores, w Weightings) Breakdown {
	overall := sub.CV*w[ChannelCV]/100 +
		sub.Assessment*w[ChannelAssessment]/100 +
		sub.Interview*w[ChannelInterview]/100 +
		sub.References*w[ChannelReferences]/100

	snapshot := make(Weightings, len(w))
	for k, v := range w {
		snapshot[k] = v
	}

	return Breakdown{
		SubScores:  sub,
		Weightings: snapshot,
		Overall:    overall,
	}
}

// Clamp bounds a score to the 0..100 range
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
