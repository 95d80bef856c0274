package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const requisitionColumns = `id, created_by, title, description, summary, category, skills, qualifications, responsibilities, min_experience, knockout_rules, weightings, questions, test_pack_id, is_active, deleted_at, created_at, updated_at`

func scanRequisition(row pgx.Row) (*Requisition, error) {
	var r Requisition
	err := row.Scan(&r.ID, &r.CreatedBy, &r.Title, &r.Description, &r.Summary, &r.Category,
		&r.Skills, &r.Qualifications, &r.Responsibilities, &r.MinExperience,
		&r.KnockoutRules, &r.Weightings, &r.Questions, &r.TestPackID,
		&r.IsActive, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan requisition: %w", err)
	}
	return &r, nil
}

// CreateRequisition creates a new requisition and returns its ID. The title
// must be unique among active requisitions (enforced by a partial unique index).
func (s *Store) CreateRequisition(ctx context.Context, r *Requisition) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO requisitions (created_by, title, description, summary, category, skills,
		     qualifications, responsibilities, min_experience, knockout_rules, weightings,
		     questions, test_pack_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE)
		 RETURNING id`,
		r.CreatedBy, r.Title, r.Description, r.Summary, r.Category, r.Skills,
		r.Qualifications, r.Responsibilities, r.MinExperience, r.KnockoutRules,
		r.Weightings, r.Questions, r.TestPackID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create requisition: %w", err)
	}
	return id, nil
}

// GetRequisition retrieves a requisition by ID, including soft-deleted rows
func (s *Store) GetRequisition(ctx context.Context, id int64) (*Requisition, error) {
	return scanRequisition(s.q.QueryRow(ctx,
		`SELECT `+requisitionColumns+` FROM requisitions WHERE id = $1`, id))
}

// UpdateRequisition updates the descriptive payload, rules, and weightings
func (s *Store) UpdateRequisition(ctx context.Context, r *Requisition) error {
	result, err := s.q.Exec(ctx,
		`UPDATE requisitions
		 SET title = $1, description = $2, summary = $3, category = $4, skills = $5,
		     qualifications = $6, responsibilities = $7, min_experience = $8,
		     knockout_rules = $9, weightings = $10, questions = $11, test_pack_id = $12,
		     updated_at = NOW()
		 WHERE id = $13 AND deleted_at IS NULL`,
		r.Title, r.Description, r.Summary, r.Category, r.Skills,
		r.Qualifications, r.Responsibilities, r.MinExperience,
		r.KnockoutRules, r.Weightings, r.Questions, r.TestPackID, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update requisition: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("requisition not found: %d", r.ID)
	}
	return nil
}

// SoftDeleteRequisition marks a requisition deleted. Existing applications are
// preserved; new applications against it are rejected.
func (s *Store) SoftDeleteRequisition(ctx context.Context, id int64) error {
	result, err := s.q.Exec(ctx,
		`UPDATE requisitions SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete requisition: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("requisition not found: %d", id)
	}
	return nil
}

// RequisitionFilters holds optional filters for listing requisitions
type RequisitionFilters struct {
	Category string
	Limit    int
}

// ListRequisitions retrieves active requisitions, newest first
func (s *Store) ListRequisitions(ctx context.Context, filters RequisitionFilters) ([]Requisition, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + requisitionColumns + ` FROM requisitions WHERE is_active = TRUE AND deleted_at IS NULL`
	args := []any{}
	argNum := 1

	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filters.Category)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requisitions: %w", err)
	}
	defer rows.Close()

	var reqs []Requisition
	for rows.Next() {
		var r Requisition
		if err := rows.Scan(&r.ID, &r.CreatedBy, &r.Title, &r.Description, &r.Summary, &r.Category,
			&r.Skills, &r.Qualifications, &r.Responsibilities, &r.MinExperience,
			&r.KnockoutRules, &r.Weightings, &r.Questions, &r.TestPackID,
			&r.IsActive, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan requisition: %w", err)
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// GetTestPack retrieves a shared assessment pack by ID
func (s *Store) GetTestPack(ctx context.Context, id int64) (*TestPack, error) {
	var p TestPack
	err := s.q.QueryRow(ctx,
		`SELECT id, name, questions, created_at FROM test_packs WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Questions, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get test pack: %w", err)
	}
	return &p, nil
}
