package analysis

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// KeywordMatch is the deterministic offline fallback used when no AI backend
// is available or the model response cannot be salvaged. Both documents are
// tokenized to lowercase word sets; the score is the share of job words the
// resume covers.
func KeywordMatch(resumeText, jobSpec string) Result {
	resumeWords := wordSet(resumeText)
	jobWords := wordSet(jobSpec)

	var matched int
	var missing []string
	for word := range jobWords {
		if resumeWords[word] {
			matched++
		} else {
			missing = append(missing, word)
		}
	}
	sort.Strings(missing)

	var score float64
	if len(jobWords) > 0 {
		score = math.Floor(float64(matched) / float64(len(jobWords)) * 100)
	}

	return Result{
		MatchScore:    score,
		MissingSkills: missing,
		Summary:       "Keyword comparison of resume against job requirements.",
		Method:        MethodKeyword,
	}
}

// wordSet tokenizes text to a set of lowercase words of length >= 3
func wordSet(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) >= 3 {
			set[w] = true
		}
	}
	return set
}
