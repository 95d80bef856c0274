package applications

import (
	"strconv"
	"strings"

	"github.com/recruitflow/recruitflow/internal/db"
)

// PassThreshold is the minimum percentage score for a pass recommendation
const PassThreshold = 60.0

// GradeResult is the outcome of grading one assessment submission
type GradeResult struct {
	QuestionScores map[string]any
	TotalScore     float64
	MaxScore       float64
	Percentage     float64
	Recommendation string
}

// Grade scores submitted answers against an assessment pack. Answers are
// keyed by question index ("0", "1", ...) and accept either an option letter
// ("B") or an option index ("1"). Each question scores its weight (default 1)
// on an exact match with the designated correct answer.
func Grade(questions []db.Question, answers map[string]any) GradeResult {
	result := GradeResult{QuestionScores: make(map[string]any, len(questions))}

	for i, q := range questions {
		weight := q.Weight
		if weight <= 0 {
			weight = 1
		}
		result.MaxScore += weight

		key := strconv.Itoa(i)
		correct := answerIndex(q.Correct, len(q.Options))
		submitted := answerIndex(answers[key], len(q.Options))

		score := 0.0
		if correct >= 0 && submitted >= 0 && correct == submitted {
			score = weight
		}
		result.QuestionScores[key] = score
		result.TotalScore += score
	}

	if result.MaxScore > 0 {
		result.Percentage = result.TotalScore / result.MaxScore * 100
	}
	if result.Percentage >= PassThreshold {
		result.Recommendation = db.RecommendationPass
	} else {
		result.Recommendation = db.RecommendationFail
	}
	return result
}

// answerIndex resolves an answer given as an index, a numeric string, or an
// option letter into a zero-based option index. Returns -1 when unresolvable.
func answerIndex(v any, optionCount int) int {
	idx := -1
	switch a := v.(type) {
	case int:
		idx = a
	case int64:
		idx = int(a)
	case float64:
		idx = int(a)
	case string:
		s := strings.TrimSpace(a)
		if s == "" {
			return -1
		}
		if n, err := strconv.Atoi(s); err == nil {
			idx = n
		} else if len(s) == 1 {
			c := strings.ToUpper(s)[0]
			if c >= 'A' && c <= 'Z' {
				idx = int(c - 'A')
			}
		}
	default:
		return -1
	}
	if idx < 0 || (optionCount > 0 && idx >= optionCount) {
		return -1
	}
	return idx
}
