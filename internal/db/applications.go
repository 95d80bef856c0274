package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const applicationColumns = `id, candidate_id, requisition_id, status, is_draft, draft_data, last_saved_screen, saved_at, resume_url, cv_score, cv_parser_result, assessment_score, interview_feedback_score, overall_score, scoring_breakdown, knockout_rule_violations, recommendation, assessed_date, created_at, updated_at`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.CandidateID, &a.RequisitionID, &a.Status, &a.IsDraft,
		&a.DraftData, &a.LastSavedScreen, &a.SavedAt, &a.ResumeURL, &a.CVScore,
		&a.CVParserResult, &a.AssessmentScore, &a.InterviewFeedbackScore,
		&a.OverallScore, &a.ScoringBreakdown, &a.KnockoutViolations,
		&a.Recommendation, &a.AssessedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}
	return &a, nil
}

// CreateApplication inserts a fresh application in the given status
func (s *Store) CreateApplication(ctx context.Context, candidateID, requisitionID int64, status string) (*Application, error) {
	return scanApplication(s.q.QueryRow(ctx,
		`INSERT INTO applications (candidate_id, requisition_id, status, is_draft, draft_data, knockout_rule_violations)
		 VALUES ($1, $2, $3, FALSE, '{}', '[]')
		 RETURNING `+applicationColumns,
		candidateID, requisitionID, status))
}

// GetApplication retrieves an application by ID
func (s *Store) GetApplication(ctx context.Context, id int64) (*Application, error) {
	return scanApplication(s.q.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
}

// GetOpenApplication finds the existing non-rejected application for a
// (candidate, requisition) pair, if any.
func (s *Store) GetOpenApplication(ctx context.Context, candidateID, requisitionID int64) (*Application, error) {
	return scanApplication(s.q.QueryRow(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE candidate_id = $1 AND requisition_id = $2 AND status != $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		candidateID, requisitionID, ApplicationRejected))
}

// UpdateApplicationStatus sets the lifecycle status
func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %d", id)
	}
	return nil
}

// SaveApplicationDraft merges the screen payload into draft_data and stamps
// the draft bookkeeping columns.
func (s *Store) SaveApplicationDraft(ctx context.Context, id int64, screenKey string, payload JSONMap) error {
	result, err := s.q.Exec(ctx,
		`UPDATE applications
		 SET draft_data = jsonb_set(COALESCE(draft_data, '{}'), ARRAY[$1], COALESCE(draft_data->$1, '{}') || $2),
		     is_draft = TRUE, status = $3, last_saved_screen = $1, saved_at = NOW(), updated_at = NOW()
		 WHERE id = $4`,
		screenKey, payload, ApplicationDraft, id)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %d", id)
	}
	return nil
}

// SubmitApplicationDraft clears the draft flag and moves the row to in_progress
func (s *Store) SubmitApplicationDraft(ctx context.Context, id int64) error {
	result, err := s.q.Exec(ctx,
		`UPDATE applications SET is_draft = FALSE, status = $1, updated_at = NOW() WHERE id = $2`,
		ApplicationInProgress, id)
	if err != nil {
		return fmt.Errorf("failed to submit draft: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %d", id)
	}
	return nil
}

// SetApplicationResumeURL stores the uploaded resume location
func (s *Store) SetApplicationResumeURL(ctx context.Context, id int64, url string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE applications SET resume_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("failed to set resume url: %w", err)
	}
	return nil
}

// SetApplicationCVResult writes the CV analysis outcome back onto the application
func (s *Store) SetApplicationCVResult(ctx context.Context, id int64, cvScore float64, parserResult JSONMap, recommendation string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE applications
		 SET cv_score = $1, cv_parser_result = $2, recommendation = $3, updated_at = NOW()
		 WHERE id = $4`,
		cvScore, parserResult, recommendation, id)
	if err != nil {
		return fmt.Errorf("failed to set cv result: %w", err)
	}
	return nil
}

// SetApplicationInterviewScore writes the interview feedback sub-score
func (s *Store) SetApplicationInterviewScore(ctx context.Context, id int64, score float64) error {
	_, err := s.q.Exec(ctx,
		`UPDATE applications SET interview_feedback_score = $1, updated_at = NOW() WHERE id = $2`, score, id)
	if err != nil {
		return fmt.Errorf("failed to set interview score: %w", err)
	}
	return nil
}

// FinalizeAssessment writes the assessment outcome and composite scoring in
// one statement: sub-score, overall, breakdown, violations, status, stamp.
func (s *Store) FinalizeAssessment(ctx context.Context, id int64, assessmentScore, overallScore float64, breakdown JSONMap, violations ViolationList, status string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE applications
		 SET assessment_score = $1, overall_score = $2, scoring_breakdown = $3,
		     knockout_rule_violations = $4, status = $5, is_draft = FALSE,
		     assessed_date = NOW(), updated_at = NOW()
		 WHERE id = $6`,
		assessmentScore, overallScore, breakdown, violations, status, id)
	if err != nil {
		return fmt.Errorf("failed to finalize assessment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %d", id)
	}
	return nil
}

// SetApplicationScoring refreshes the composite scoring columns. Called
// whenever a sub-score is updated asynchronously.
func (s *Store) SetApplicationScoring(ctx context.Context, id int64, overallScore float64, breakdown JSONMap) error {
	_, err := s.q.Exec(ctx,
		`UPDATE applications SET overall_score = $1, scoring_breakdown = $2, updated_at = NOW() WHERE id = $3`,
		overallScore, breakdown, id)
	if err != nil {
		return fmt.Errorf("failed to set application scoring: %w", err)
	}
	return nil
}

// ApplicationFilters holds optional filters for listing applications
type ApplicationFilters struct {
	RequisitionID int64
	CandidateID   int64
	Status        string
	Limit         int
}

// ListApplications retrieves applications with optional filters, newest first
func (s *Store) ListApplications(ctx context.Context, filters ApplicationFilters) ([]Application, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.RequisitionID != 0 {
		query += fmt.Sprintf(" AND requisition_id = $%d", argNum)
		args = append(args, filters.RequisitionID)
		argNum++
	}
	if filters.CandidateID != 0 {
		query += fmt.Sprintf(" AND candidate_id = $%d", argNum)
		args = append(args, filters.CandidateID)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.RequisitionID, &a.Status, &a.IsDraft,
			&a.DraftData, &a.LastSavedScreen, &a.SavedAt, &a.ResumeURL, &a.CVScore,
			&a.CVParserResult, &a.AssessmentScore, &a.InterviewFeedbackScore,
			&a.OverallScore, &a.ScoringBreakdown, &a.KnockoutViolations,
			&a.Recommendation, &a.AssessedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, nil
}
