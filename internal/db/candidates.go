package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const candidateColumns = `id, user_id, education, skills, work_experience, certifications, languages, documents, location, cv_url, cv_text, created_at, updated_at`

func scanCandidate(row pgx.Row) (*Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.UserID, &c.Education, &c.Skills, &c.WorkExperience,
		&c.Certifications, &c.Languages, &c.Documents, &c.Location, &c.CVUrl, &c.CVText,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	return &c, nil
}

// CreateCandidate creates the candidate record backing a user with role=candidate
func (s *Store) CreateCandidate(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO candidates (user_id, education, skills, work_experience, certifications, languages, documents, location)
		 VALUES ($1, '[]', '[]', '[]', '[]', '[]', '[]', '')
		 RETURNING id`,
		userID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create candidate: %w", err)
	}
	return id, nil
}

// GetCandidate retrieves a candidate by ID
func (s *Store) GetCandidate(ctx context.Context, candidateID int64) (*Candidate, error) {
	return scanCandidate(s.q.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, candidateID))
}

// GetCandidateByUserID retrieves the candidate record for a user
func (s *Store) GetCandidateByUserID(ctx context.Context, userID int64) (*Candidate, error) {
	return scanCandidate(s.q.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE user_id = $1`, userID))
}

// UpdateCandidate updates the structured career arrays and location
func (s *Store) UpdateCandidate(ctx context.Context, c *Candidate) error {
	result, err := s.q.Exec(ctx,
		`UPDATE candidates
		 SET education = $1, skills = $2, work_experience = $3, certifications = $4,
		     languages = $5, documents = $6, location = $7, updated_at = NOW()
		 WHERE id = $8`,
		c.Education, c.Skills, c.WorkExperience, c.Certifications,
		c.Languages, c.Documents, c.Location, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("candidate not found: %d", c.ID)
	}
	return nil
}

// SetCandidateCV stores the uploaded CV location and extracted text
func (s *Store) SetCandidateCV(ctx context.Context, candidateID int64, cvURL, cvText string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE candidates SET cv_url = $1, cv_text = $2, updated_at = NOW() WHERE id = $3`,
		cvURL, cvText, candidateID,
	)
	if err != nil {
		return fmt.Errorf("failed to set candidate cv: %w", err)
	}
	return nil
}
