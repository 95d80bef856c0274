package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CV analysis status values
const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// CVAnalysis is the durable record of one asynchronous resume-analysis job
type CVAnalysis struct {
	ID                   int64      `json:"id"`
	ApplicationID        int64      `json:"application_id"`
	Status               string     `json:"status"`
	ExtractionMethod     string     `json:"extraction_method,omitempty"`
	ExtractionConfidence float64    `json:"extraction_confidence,omitempty"`
	PageCount            int        `json:"page_count,omitempty"`
	ScannedContent       bool       `json:"scanned_content"`
	Result               JSONMap    `json:"result,omitempty"`
	Attempts             int        `json:"attempts"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

const analysisColumns = `id, application_id, status, extraction_method, extraction_confidence, page_count, scanned_content, result, attempts, started_at, finished_at, created_at, updated_at`

func scanAnalysis(row pgx.Row) (*CVAnalysis, error) {
	var a CVAnalysis
	err := row.Scan(&a.ID, &a.ApplicationID, &a.Status, &a.ExtractionMethod,
		&a.ExtractionConfidence, &a.PageCount, &a.ScannedContent, &a.Result,
		&a.Attempts, &a.StartedAt, &a.FinishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan cv analysis: %w", err)
	}
	return &a, nil
}

// CreateCVAnalysis creates a pending analysis record carrying the extraction metadata
func (s *Store) CreateCVAnalysis(ctx context.Context, a *CVAnalysis) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO cv_analyses (application_id, status, extraction_method, extraction_confidence, page_count, scanned_content, result)
		 VALUES ($1, $2, $3, $4, $5, $6, '{}')
		 RETURNING id`,
		a.ApplicationID, AnalysisPending, a.ExtractionMethod, a.ExtractionConfidence,
		a.PageCount, a.ScannedContent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create cv analysis: %w", err)
	}
	return id, nil
}

// GetCVAnalysis retrieves an analysis by ID
func (s *Store) GetCVAnalysis(ctx context.Context, id int64) (*CVAnalysis, error) {
	return scanAnalysis(s.q.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM cv_analyses WHERE id = $1`, id))
}

// StartCVAnalysis marks an analysis processing. Returns false when the row is
// already processing or terminal, making duplicate enqueues a no-op.
func (s *Store) StartCVAnalysis(ctx context.Context, id int64) (bool, error) {
	result, err := s.q.Exec(ctx,
		`UPDATE cv_analyses
		 SET status = $1, started_at = NOW(), attempts = attempts + 1, updated_at = NOW()
		 WHERE id = $2 AND status IN ($3, $4)`,
		AnalysisProcessing, id, AnalysisPending, AnalysisFailed)
	if err != nil {
		return false, fmt.Errorf("failed to start cv analysis: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// FinishCVAnalysis records the terminal outcome of an analysis run
func (s *Store) FinishCVAnalysis(ctx context.Context, id int64, status string, analysisResult JSONMap) error {
	_, err := s.q.Exec(ctx,
		`UPDATE cv_analyses SET status = $1, result = $2, finished_at = NOW(), updated_at = NOW() WHERE id = $3`,
		status, analysisResult, id)
	if err != nil {
		return fmt.Errorf("failed to finish cv analysis: %w", err)
	}
	return nil
}

// ResetCVAnalysisForRetry puts a failed analysis back to pending with the error recorded
func (s *Store) ResetCVAnalysisForRetry(ctx context.Context, id int64, analysisResult JSONMap) error {
	_, err := s.q.Exec(ctx,
		`UPDATE cv_analyses SET status = $1, result = $2, updated_at = NOW() WHERE id = $3`,
		AnalysisFailed, analysisResult, id)
	if err != nil {
		return fmt.Errorf("failed to record cv analysis failure: %w", err)
	}
	return nil
}
