package db

import (
	"time"
)

// Application status values, in lifecycle order
const (
	ApplicationDraft               = "draft"
	ApplicationInProgress          = "in_progress"
	ApplicationApplied             = "applied"
	ApplicationAssessmentSubmitted = "assessment_submitted"
	ApplicationDisqualified        = "disqualified"
	ApplicationReviewed            = "reviewed"
	ApplicationShortlisted         = "shortlisted"
	ApplicationRejected            = "rejected"
	ApplicationHired               = "hired"
)

// Assessment recommendation values
const (
	RecommendationPass = "pass"
	RecommendationFail = "fail"
)

// Application is the edge between one candidate and one requisition, bearing
// its own lifecycle state. At most one non-rejected application exists per
// (candidate, requisition) pair.
type Application struct {
	ID                     int64         `json:"id"`
	CandidateID            int64         `json:"candidate_id"`
	RequisitionID          int64         `json:"requisition_id"`
	Status                 string        `json:"status"`
	IsDraft                bool          `json:"is_draft"`
	DraftData              JSONMap       `json:"draft_data"`
	LastSavedScreen        *string       `json:"last_saved_screen,omitempty"`
	SavedAt                *time.Time    `json:"saved_at,omitempty"`
	ResumeURL              *string       `json:"resume_url,omitempty"`
	CVScore                *float64      `json:"cv_score,omitempty"`
	CVParserResult         JSONMap       `json:"cv_parser_result,omitempty"`
	AssessmentScore        *float64      `json:"assessment_score,omitempty"`
	InterviewFeedbackScore *float64      `json:"interview_feedback_score,omitempty"`
	OverallScore           *float64      `json:"overall_score,omitempty"`
	ScoringBreakdown       JSONMap       `json:"scoring_breakdown,omitempty"`
	KnockoutViolations     ViolationList `json:"knockout_rule_violations"`
	Recommendation         *string       `json:"recommendation,omitempty"`
	AssessedAt             *time.Time    `json:"assessed_date,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// AssessmentResult is the exactly-one assessment outcome of an application.
// Immutable after creation.
type AssessmentResult struct {
	ID              int64     `json:"id"`
	ApplicationID   int64     `json:"application_id"`
	Answers         JSONMap   `json:"answers"`
	QuestionScores  JSONMap   `json:"question_scores"`
	TotalScore      float64   `json:"total_score"`
	MaxScore        float64   `json:"max_score"`
	PercentageScore float64   `json:"percentage_score"`
	Recommendation  string    `json:"recommendation"`
	CreatedAt       time.Time `json:"created_at"`
}

// Interview status values
const (
	InterviewScheduled   = "scheduled"
	InterviewCompleted   = "completed"
	InterviewCancelled   = "cancelled"
	InterviewNoShow      = "no_show"
	InterviewRescheduled = "rescheduled"
)

// Interview is scheduled for a candidate by a hiring manager, optionally
// linked to an application.
type Interview struct {
	ID                  int64      `json:"id"`
	CandidateID         int64      `json:"candidate_id"`
	ApplicationID       *int64     `json:"application_id,omitempty"`
	ScheduledBy         int64      `json:"scheduled_by"`
	ScheduledTime       time.Time  `json:"scheduled_time"`
	Status              string     `json:"status"`
	CalendarEventID     *string    `json:"calendar_event_id,omitempty"`
	FeedbackScore       *float64   `json:"feedback_score,omitempty"`
	FeedbackSubmittedBy *int64     `json:"feedback_submitted_by,omitempty"`
	FeedbackSubmittedAt *time.Time `json:"feedback_submitted_at,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
