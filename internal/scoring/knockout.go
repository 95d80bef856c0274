package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Knockout rule types
const (
	RuleCertification = "certification"
	RuleExperience    = "experience"
	RuleSkills        = "skills"
	RuleEducation     = "education"
	RuleLocation      = "location"
	RuleSalary        = "salary"
)

// KnockoutRule is a single predicate that, if unsatisfied by the candidate,
// disqualifies the application regardless of score.
type KnockoutRule struct {
	Type     string `json:"type"`
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Violation is a failed knockout rule together with the reason it failed
type Violation struct {
	Type     string `json:"type"`
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
	Reason   string `json:"reason"`
}

// CandidateFacts is the candidate-side input to knockout evaluation,
// assembled from the candidate record and the user's profile mapping.
type CandidateFacts struct {
	Certifications []string
	Skills         []string
	Education      []any // entries are strings or maps with a "degree" key
	Location       string
	Profile        map[string]any
}

// Profile keys accepted for years of experience, checked in order.
var experienceKeys = []string{"years_experience", "experience_years", "years_of_experience"}

// EvaluateKnockout evaluates every rule against the candidate and returns the
// ordered list of failing rules. The candidate is disqualified iff the list
// is non-empty.
func EvaluateKnockout(rules []KnockoutRule, c CandidateFacts) []Violation {
	var violations []Violation
	for _, rule := range rules {
		if reason, failed := evaluateRule(rule, c); failed {
			violations = append(violations, Violation{
				Type:     rule.Type,
				Field:    rule.Field,
				Operator: rule.Operator,
				Value:    rule.Value,
				Reason:   reason,
			})
		}
	}
	return violations
}

// evaluateRule returns (reason, true) when the rule fails.
func evaluateRule(rule KnockoutRule, c CandidateFacts) (string, bool) {
	if rule.Operator == "" {
		return "Missing operator", true
	}

	switch rule.Type {
	case RuleCertification:
		has := containsFold(c.Certifications, toString(rule.Value))
		if !compareBool(rule.Operator, has, true) {
			return fmt.Sprintf("certification %q requirement not met", toString(rule.Value)), true
		}
	case RuleSkills:
		has := containsFold(c.Skills, toString(rule.Value))
		if !compareBool(rule.Operator, has, true) {
			return fmt.Sprintf("skill %q requirement not met", toString(rule.Value)), true
		}
	case RuleEducation:
		has := hasDegree(c.Education, toString(rule.Value))
		if !compareBool(rule.Operator, has, true) {
			return fmt.Sprintf("education %q requirement not met", toString(rule.Value)), true
		}
	case RuleLocation:
		got := strings.ToLower(strings.TrimSpace(c.Location))
		want := strings.ToLower(strings.TrimSpace(toString(rule.Value)))
		if !compareString(rule.Operator, got, want) {
			return fmt.Sprintf("location %q does not satisfy %s %q", c.Location, rule.Operator, toString(rule.Value)), true
		}
	case RuleExperience:
		years := profileNumber(c.Profile, experienceKeys...)
		if !compareNumber(rule.Operator, years, toFloat(rule.Value)) {
			return fmt.Sprintf("experience %g does not satisfy %s %g", years, rule.Operator, toFloat(rule.Value)), true
		}
	case RuleSalary:
		salary := profileNumber(c.Profile, "expected_salary")
		if !compareNumber(rule.Operator, salary, toFloat(rule.Value)) {
			return fmt.Sprintf("expected salary %g does not satisfy %s %g", salary, rule.Operator, toFloat(rule.Value)), true
		}
	default:
		return fmt.Sprintf("unknown rule type: %s", rule.Type), true
	}
	return "", false
}

// containsFold reports case-insensitive membership of value in list
func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

// hasDegree reports whether any education entry's degree contains value.
// Entries may be plain strings or objects carrying a "degree" key.
func hasDegree(education []any, value string) bool {
	want := strings.ToLower(value)
	for _, entry := range education {
		var degree string
		switch e := entry.(type) {
		case map[string]any:
			degree = toString(e["degree"])
		case string:
			degree = e
		default:
			continue
		}
		if strings.Contains(strings.ToLower(degree), want) {
			return true
		}
	}
	return false
}

// profileNumber resolves the first present key in the profile to a number,
// coercing non-numeric values to 0.
func profileNumber(profile map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := profile[key]; ok {
			return toFloat(v)
		}
	}
	return 0
}

func compareBool(op string, got, want bool) bool {
	g, w := 0.0, 0.0
	if got {
		g = 1
	}
	if want {
		w = 1
	}
	return compareNumber(op, g, w)
}

func compareString(op, got, want string) bool {
	switch op {
	case "==":
		return got == want
	case "!=":
		return got != want
	case ">":
		return got > want
	case ">=":
		return got >= want
	case "<":
		return got < want
	case "<=":
		return got <= want
	}
	return false
}

func compareNumber(op string, got, want float64) bool {
	switch op {
	case "==":
		return got == want
	case "!=":
		return got != want
	case ">":
		return got > want
	case ">=":
		return got >= want
	case "<":
		return got < want
	case "<=":
		return got <= want
	}
	return false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toFloat coerces a value to float64; anything non-numeric becomes 0.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}
