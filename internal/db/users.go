package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateUser creates a new user and returns its ID
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, profile, is_active)
		 VALUES ($1, $2, $3, $4, '{}', TRUE)
		 RETURNING id`,
		name, email, passwordHash, role,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

const userColumns = `id, name, email, password_hash, role, profile, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Profile, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, userID int64) (*User, error) {
	return scanUser(s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserRole returns the canonical role stored for a user. Used by the
// authorization gate to re-check a stale token claim.
func (s *Store) GetUserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := s.q.QueryRow(ctx,
		`SELECT role FROM users WHERE id = $1 AND is_active = TRUE`, userID,
	).Scan(&role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return role, nil
}

// UpdateUserProfile replaces the free-form profile mapping for a user
func (s *Store) UpdateUserProfile(ctx context.Context, userID int64, profile JSONMap) error {
	_, err := s.q.Exec(ctx,
		`UPDATE users SET profile = $1, updated_at = NOW() WHERE id = $2`,
		profile, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// DeactivateUser flips is_active off; users are never hard-deleted while referenced
func (s *Store) DeactivateUser(ctx context.Context, userID int64) error {
	result, err := s.q.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %d", userID)
	}
	return nil
}

// ListUsersByRole retrieves active users holding the given role
func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 AND is_active = TRUE ORDER BY id`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Profile, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}
