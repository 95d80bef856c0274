package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const interviewColumns = `id, candidate_id, application_id, scheduled_by, scheduled_time, status, calendar_event_id, feedback_score, feedback_submitted_by, feedback_submitted_at, notes, created_at, updated_at`

// CreateInterview schedules a new interview and returns its ID
func (s *Store) CreateInterview(ctx context.Context, iv *Interview) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO interviews (candidate_id, application_id, scheduled_by, scheduled_time, status, calendar_event_id, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		iv.CandidateID, iv.ApplicationID, iv.ScheduledBy, iv.ScheduledTime,
		InterviewScheduled, iv.CalendarEventID, iv.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create interview: %w", err)
	}
	return id, nil
}

// GetInterview retrieves an interview by ID
func (s *Store) GetInterview(ctx context.Context, id int64) (*Interview, error) {
	var iv Interview
	err := s.q.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id,
	).Scan(&iv.ID, &iv.CandidateID, &iv.ApplicationID, &iv.ScheduledBy, &iv.ScheduledTime,
		&iv.Status, &iv.CalendarEventID, &iv.FeedbackScore, &iv.FeedbackSubmittedBy,
		&iv.FeedbackSubmittedAt, &iv.Notes, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return &iv, nil
}

// UpdateInterviewStatus moves the interview to a new status
func (s *Store) UpdateInterviewStatus(ctx context.Context, id int64, status string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE interviews SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update interview status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview not found: %d", id)
	}
	return nil
}

// SubmitInterviewFeedback records the feedback score and marks the interview completed
func (s *Store) SubmitInterviewFeedback(ctx context.Context, id, submittedBy int64, score float64, notes string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE interviews
		 SET status = $1, feedback_score = $2, feedback_submitted_by = $3,
		     feedback_submitted_at = NOW(), notes = $4, updated_at = NOW()
		 WHERE id = $5`,
		InterviewCompleted, score, submittedBy, notes, id)
	if err != nil {
		return fmt.Errorf("failed to submit interview feedback: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview not found: %d", id)
	}
	return nil
}

// ListInterviewsByCandidate retrieves a candidate's interviews ordered by schedule
func (s *Store) ListInterviewsByCandidate(ctx context.Context, candidateID int64) ([]Interview, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE candidate_id = $1 ORDER BY scheduled_time`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []Interview
	for rows.Next() {
		var iv Interview
		if err := rows.Scan(&iv.ID, &iv.CandidateID, &iv.ApplicationID, &iv.ScheduledBy, &iv.ScheduledTime,
			&iv.Status, &iv.CalendarEventID, &iv.FeedbackScore, &iv.FeedbackSubmittedBy,
			&iv.FeedbackSubmittedAt, &iv.Notes, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, iv)
	}
	return interviews, nil
}
