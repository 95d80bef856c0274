package applications

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recruitflow/recruitflow/internal/db"
)

func sampleQuestions() []db.Question {
	return []db.Question{
		{Text: "Pick B", Options: []string{"a", "b", "c", "d"}, Correct: "B", Weight: 2},
		{Text: "Pick first", Options: []string{"x", "y", "z"}, Correct: 0, Weight: 0},
		{Text: "Pick index 2", Options: []string{"p", "q", "r"}, Correct: "2", Weight: 1},
	}
}

func TestGrade_AllCorrect(t *testing.T) {
	answers := map[string]any{
		"0": "b", // letter, case-insensitive
		"1": 0,   // numeric index
		"2": "C", // letter naming index 2
	}

	result := Grade(sampleQuestions(), answers)

	assert.Equal(t, 4.0, result.TotalScore)
	assert.Equal(t, 4.0, result.MaxScore)
	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, db.RecommendationPass, result.Recommendation)
}

func TestGrade_WeightDefaultsToOne(t *testing.T) {
	result := Grade(sampleQuestions(), map[string]any{"1": "0"})

	// question 1 has weight 0, graded as 1
	assert.Equal(t, 1.0, result.QuestionScores["1"])
	assert.Equal(t, 4.0, result.MaxScore)
}

func TestGrade_PassThresholdBoundary(t *testing.T) {
	questions := []db.Question{
		{Options: []string{"a", "b"}, Correct: 0},
		{Options: []string{"a", "b"}, Correct: 0},
		{Options: []string{"a", "b"}, Correct: 0},
		{Options: []string{"a", "b"}, Correct: 0},
		{Options: []string{"a", "b"}, Correct: 0},
	}

	// 3 of 5 correct is exactly 60 percent
	result := Grade(questions, map[string]any{"0": 0, "1": 0, "2": 0, "3": 1, "4": 1})
	assert.Equal(t, 60.0, result.Percentage)
	assert.Equal(t, db.RecommendationPass, result.Recommendation)

	// 2 of 5 correct fails
	result = Grade(questions, map[string]any{"0": 0, "1": 0})
	assert.Equal(t, 40.0, result.Percentage)
	assert.Equal(t, db.RecommendationFail, result.Recommendation)
}

func TestGrade_UnansweredAndMalformedScoreZero(t *testing.T) {
	answers := map[string]any{
		"0": "zz",             // unresolvable
		"1": 7,                // out of option range
		"2": map[string]any{}, // wrong type
	}

	result := Grade(sampleQuestions(), answers)
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Equal(t, db.RecommendationFail, result.Recommendation)
}

func TestGrade_NoQuestions(t *testing.T) {
	result := Grade(nil, map[string]any{"0": "A"})

	assert.Equal(t, 0.0, result.MaxScore)
	assert.Equal(t, 0.0, result.Percentage)
	assert.Equal(t, db.RecommendationFail, result.Recommendation)
}

func TestGrade_FloatAnswersFromJSON(t *testing.T) {
	// JSON decoding turns numbers into float64
	result := Grade(sampleQuestions(), map[string]any{"0": 1.0, "1": 0.0, "2": 2.0})
	assert.Equal(t, 100.0, result.Percentage)
}
