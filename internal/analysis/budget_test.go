package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetInputs_WithinBudgetUntouched(t *testing.T) {
	resume := "short resume"
	job := "short job spec"

	gotResume, gotJob := BudgetInputs(resume, job)
	assert.Equal(t, resume, gotResume)
	assert.Equal(t, job, gotJob)
}

func TestBudgetInputs_ResumeGetsLargerShare(t *testing.T) {
	long := strings.Repeat("word ", 10000)

	gotResume, gotJob := BudgetInputs(long, long)
	assert.Greater(t, len(gotResume), len(gotJob))
	assert.True(t, strings.HasSuffix(gotResume, truncationMarker))
	assert.True(t, strings.HasSuffix(gotJob, truncationMarker))
}

func TestTruncate_MarksCut(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 100)

	cut := truncate(text, 500)
	assert.LessOrEqual(t, len(cut), 500+len(truncationMarker))
	assert.True(t, strings.HasSuffix(cut, truncationMarker))
}

func TestTruncate_BreaksOnWordBoundary(t *testing.T) {
	text := strings.Repeat("hello ", 200)

	cut := truncate(text, 100)
	body := strings.TrimSuffix(cut, truncationMarker)
	assert.False(t, strings.HasSuffix(body, "hel"), "should not cut inside a word")
}
