package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateAssessmentResult records the one-and-only assessment outcome for an
// application. The unique constraint on application_id guarantees a second
// submission can never double-score.
func (s *Store) CreateAssessmentResult(ctx context.Context, r *AssessmentResult) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO assessment_results (application_id, answers, question_scores, total_score, max_score, percentage_score, recommendation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		r.ApplicationID, r.Answers, r.QuestionScores, r.TotalScore, r.MaxScore,
		r.PercentageScore, r.Recommendation,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create assessment result: %w", err)
	}
	return id, nil
}

// GetAssessmentResultByApplication retrieves the assessment result of an application
func (s *Store) GetAssessmentResultByApplication(ctx context.Context, applicationID int64) (*AssessmentResult, error) {
	var r AssessmentResult
	err := s.q.QueryRow(ctx,
		`SELECT id, application_id, answers, question_scores, total_score, max_score, percentage_score, recommendation, created_at
		 FROM assessment_results WHERE application_id = $1`,
		applicationID,
	).Scan(&r.ID, &r.ApplicationID, &r.Answers, &r.QuestionScores, &r.TotalScore,
		&r.MaxScore, &r.PercentageScore, &r.Recommendation, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment result: %w", err)
	}
	return &r, nil
}
