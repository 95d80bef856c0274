package analysis

import "strings"

// The model input budget is split between the two documents: the resume gets
// the larger share since it carries more signal than the job specification.
const (
	inputCharBudget  = 24000
	resumeShare      = 0.6
	truncationMarker = "\n[content truncated]"
)

// BudgetInputs trims the resume and job specification to the input budget.
// Whatever is cut gets a visible truncation marker so the model knows the
// document is incomplete.
func BudgetInputs(resumeText, jobSpec string) (string, string) {
	resumeLimit := int(float64(inputCharBudget) * resumeShare)
	jobLimit := inputCharBudget - resumeLimit
	return truncate(resumeText, resumeLimit), truncate(jobSpec, jobLimit)
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	// break on a word boundary when one is close
	if idx := strings.LastIndexByte(cut, ' '); idx > limit-200 {
		cut = cut[:idx]
	}
	return cut + truncationMarker
}
